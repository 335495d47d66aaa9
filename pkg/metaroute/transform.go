package metaroute

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// Transformer converts a decoded JSON value into an instance of t.
// The returned value is a pointer to t.
type Transformer interface {
	ToInstance(t reflect.Type, raw any) (any, error)
}

// Validator validates a transformed instance. An empty result means valid.
type Validator interface {
	Validate(instance any) (ValidationErrors, error)
}

// MapTransformer decodes with mapstructure, matching fields by their json tags
type MapTransformer struct{}

// ToInstance implements Transformer
func (MapTransformer) ToInstance(t reflect.Type, raw any) (any, error) {
	if t == nil {
		return nil, errors.New("metaroute: nil target type")
	}

	target := reflect.New(t)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           target.Interface(),
		Squash:           true,
		WeaklyTypedInput: false,
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}
	return target.Interface(), nil
}

// PlaygroundValidator validates struct tags with go-playground/validator and
// reports failures under their json field paths
type PlaygroundValidator struct {
	validate *validator.Validate
}

// NewPlaygroundValidator creates a validator reading `validate` struct tags
func NewPlaygroundValidator() *PlaygroundValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		}
		return name
	})
	return &PlaygroundValidator{validate: v}
}

// Validate implements Validator. Values that are not structs are always valid.
func (p *PlaygroundValidator) Validate(instance any) (ValidationErrors, error) {
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, nil
	}

	err := p.validate.Struct(v.Interface())
	if err == nil {
		return nil, nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}

	out := make(ValidationErrors, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		out[path] = append(out[path], constraintMessage(fe))
	}
	return out, nil
}

func constraintMessage(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag())
}
