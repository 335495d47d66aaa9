package metaroute

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Context keys used with RequestContext.Get/Set
const (
	BodyKey    = "metaroute.body"
	RawBodyKey = "metaroute.rawBody"
)

// resolution produces one argument value. Resolutions that call user
// callbacks run concurrently; everything reading the request runs before them.
type resolution func(ctx context.Context) (any, error)

type pipeline struct {
	route     RouteDescriptor
	opts      Options
	signature reflect.Type
}

// Pipeline builds the handler that serves one compiled route: authorization,
// argument resolution, invocation and the success response. Failures are
// returned to the caller, which is expected to be the error stage.
func Pipeline(route RouteDescriptor, opts Options) HandlerFunc {
	p := &pipeline{
		route:     route,
		opts:      opts.withDefaults(),
		signature: route.Method.Type(),
	}
	return p.serve
}

func (p *pipeline) serve(c RequestContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	if err := p.authorize(c); err != nil {
		return err
	}

	args, err := p.arguments(c)
	if err != nil {
		return err
	}

	result, hasValue, err := p.invoke(c, args)
	if err != nil {
		return err
	}
	return p.respond(c, result, hasValue)
}

func (p *pipeline) authorize(c RequestContext) error {
	if p.route.Authorization == nil {
		return nil
	}
	if p.opts.AuthorizationHandler == nil {
		return configError(p.route.Class, p.route.MethodName, "No authorization handler specified")
	}

	ok, err := p.opts.AuthorizationHandler(c, slices.Clone(p.route.Authorization.Roles))
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized("Unauthorized")
	}
	return nil
}

func (p *pipeline) arguments(c RequestContext) ([]reflect.Value, error) {
	params := p.route.Parameters
	ctx := c.Context()

	values := make([]any, len(params))
	errs := make([]error, len(params))
	pending := make([]resolution, len(params))
	for i, param := range params {
		values[i], pending[i], errs[i] = p.prepare(c, param)
	}

	var g errgroup.Group
	for i, resolve := range pending {
		if resolve == nil || errs[i] != nil {
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = panicError(r)
				}
			}()
			values[i], errs[i] = resolve(ctx)
			return nil
		})
	}
	_ = g.Wait()

	// lowest index wins so the reported failure does not depend on scheduling
	first := -1
	for i, err := range errs {
		if err != nil && (first < 0 || params[i].Index < params[first].Index) {
			first = i
		}
	}
	if first >= 0 {
		return nil, errs[first]
	}

	args := make([]reflect.Value, p.signature.NumIn())
	for i, param := range params {
		v, err := argument(values[i], p.signature.In(param.Index))
		if err != nil {
			return nil, err
		}
		args[param.Index] = v
	}
	for i, arg := range args {
		if arg.IsValid() {
			continue
		}
		if in := p.signature.In(i); in == contextType {
			args[i] = reflect.ValueOf(ctx)
		} else {
			args[i] = reflect.Zero(in)
		}
	}
	return args, nil
}

// prepare reads everything param needs from the request. It returns either a
// value or a resolution still to run.
func (p *pipeline) prepare(c RequestContext, param ParameterInfo) (any, resolution, error) {
	switch param.Kind {
	case BodyParam:
		raw := c.Get(BodyKey)
		if raw == nil {
			return nil, nil, ErrBadRequest("Invalid request.body")
		}
		return nil, func(context.Context) (any, error) {
			return p.body(param, raw)
		}, nil

	case CurrentUserParam:
		handler := p.opts.CurrentUserHandler
		if handler == nil {
			return nil, nil, configError(p.route.Class, p.route.MethodName, "No current user handler specified")
		}
		return nil, func(context.Context) (any, error) {
			return handler(c)
		}, nil

	case EncodedJwtTokenParam:
		token, err := ExtractJwtToken(c.Header("Authorization"))
		return token, nil, err

	case HeaderParam:
		v := c.Header(param.Name())
		if v == "" {
			return nil, nil, ErrBadRequest("Header does not exist")
		}
		return v, nil, nil

	case PathParam:
		raw := c.Param(param.Name())
		if raw == "" {
			return nil, nil, ErrBadRequest("Parameter does not exist")
		}
		v, err := p.decodeParam(raw, param)
		return v, nil, err

	case QueryParam:
		v := c.QueryParam(param.Name())
		if v == "" {
			return nil, nil, ErrBadRequest("Query parameter does not exist")
		}
		return v, nil, nil

	case RawRequestParam:
		req, _ := c.Raw()
		return req, nil, nil

	case RawResponseParam:
		_, res := c.Raw()
		return res, nil, nil

	default:
		return nil, nil, configError(p.route.Class, p.route.MethodName, "Invalid ParameterType %s", param.Kind)
	}
}

func (p *pipeline) body(param ParameterInfo, raw any) (any, error) {
	instance, err := p.opts.Transformer.ToInstance(param.Type, raw)
	if err != nil {
		return nil, ErrBadRequest("Invalid request.body").WithCause(err)
	}
	verrs, err := p.opts.Validator.Validate(instance)
	if err != nil {
		return nil, err
	}
	if len(verrs) > 0 {
		return nil, NewValidationError(verrs)
	}
	return instance, nil
}

// decodeParam decodes a path segment as JSON into the declared argument type
func (p *pipeline) decodeParam(raw string, param ParameterInfo) (any, error) {
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}

	target := reflect.New(p.signature.In(param.Index))
	if err := json.Unmarshal([]byte(raw), target.Interface()); err != nil {
		return nil, ErrBadRequest("Invalid parameter").WithCause(err)
	}
	return target.Elem().Interface(), nil
}

func (p *pipeline) invoke(c RequestContext, args []reflect.Value) (any, bool, error) {
	out := p.route.Method.Call(args)

	var result any
	switch len(out) {
	case 0:
		return nil, false, nil
	case 1:
		if p.signature.Out(0) == errorType {
			return nil, false, asError(out[0])
		}
		result = out[0].Interface()
	default:
		if err := asError(out[1]); err != nil {
			return nil, false, err
		}
		result = out[0].Interface()
	}

	if awaitable, ok := result.(Awaitable); ok && !isNil(result) {
		v, err := awaitable.Await(c.Context())
		if err != nil {
			return nil, false, err
		}
		result = v
	}
	return result, true, nil
}

func (p *pipeline) respond(c RequestContext, result any, hasValue bool) error {
	if !hasValue || isNil(result) {
		return c.NoContent(http.StatusOK)
	}

	if r, ok := result.(*Response); ok {
		code := r.StatusCode
		if code == 0 {
			code = http.StatusOK
		}
		if r.Body == nil {
			return c.NoContent(code)
		}
		return c.JSON(code, r.Body)
	}
	return c.JSON(http.StatusOK, result)
}

// argument converts a resolved value to the declared parameter type
func argument(v any, target reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(target), nil
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(target):
		return rv, nil
	case rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Type().AssignableTo(target):
		return rv.Elem(), nil
	case rv.Kind() == target.Kind() && rv.Type().ConvertibleTo(target):
		return rv.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("metaroute: cannot use %T as %s", v, target)
}

func asError(v reflect.Value) error {
	if isNilValue(v) {
		return nil
	}
	err, _ := v.Interface().(error)
	return err
}

func isNil(v any) bool {
	return v == nil || isNilValue(reflect.ValueOf(v))
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
