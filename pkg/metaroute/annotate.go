package metaroute

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/toyz/metaroute/internal/annotations"
)

// Annotations maps a method name to its annotation string. The "" key holds
// the class annotations.
//
//	func (*WidgetController) Annotations() metaroute.Annotations {
//		return metaroute.Annotations{
//			"":          `@JsonController("/widgets") @Authorize("USER")`,
//			"GetWidget": `@Route(GET, "/:id") @Param("id")`,
//		}
//	}
//
// Parameter annotations bind to the method's parameters in order, skipping
// context.Context parameters. A @Body parameter decodes into the parameter's
// type, dereferenced if it is a pointer. Methods are registered in name order.
type Annotations map[string]string

// Annotated is implemented by controllers that declare their routes with annotations
type Annotated interface {
	Annotations() Annotations
}

var parameterKinds = map[string]ParameterKind{
	annotations.Body:            BodyParam,
	annotations.CurrentUser:     CurrentUserParam,
	annotations.EncodedJwtToken: EncodedJwtTokenParam,
	annotations.HeaderParam:     HeaderParam,
	annotations.Param:           PathParam,
	annotations.QueryParam:      QueryParam,
	annotations.Req:             RawRequestParam,
	annotations.Res:             RawResponseParam,
}

// Annotate parses the annotations of controller and records them in reg.
// Nothing is recorded unless every annotation is valid.
func Annotate(reg *Registry, controller Annotated) error {
	if reg == nil {
		return configError("", "", "nil registry")
	}
	if isNil(controller) {
		return configError("", "", "nil controller")
	}

	class := ClassName(controller)
	if class == "" {
		return configError("", "", "controller %T is not a named type", controller)
	}

	p := &annotationParser{
		class:   class,
		typ:     reflect.TypeOf(controller),
		schemas: annotations.DefaultRegistry(),
	}
	source := controller.Annotations()

	p.parseClass(source[""])

	methods := make([]string, 0, len(source))
	for name := range source {
		if name != "" {
			methods = append(methods, name)
		}
	}
	sort.Strings(methods)
	for _, method := range methods {
		if err := p.parseMethod(method, source[method]); err != nil {
			return err
		}
	}

	if err := p.errs.ErrOrNil(); err != nil {
		return &ConfigurationError{Message: "invalid annotations", Class: class, Cause: err}
	}
	for _, ctx := range p.contexts {
		if err := reg.AddMetadata(ctx); err != nil {
			return err
		}
	}
	return nil
}

type annotationParser struct {
	class    string
	typ      reflect.Type
	schemas  annotations.SchemaRegistry
	contexts []MetadataContext
	errs     annotations.MultipleAnnotationErrors
}

func (p *annotationParser) collect(err error) {
	var annErr annotations.AnnotationError
	if errors.As(err, &annErr) {
		p.errs.Add(annErr)
		return
	}
	p.errs.Add(&annotations.SchemaError{Msg: err.Error(), Loc: annotations.SourceLocation{Source: shortClass(p.class)}})
}

func (p *annotationParser) parseClass(src string) {
	parsed, err := annotations.Parse(shortClass(p.class), src)
	if err != nil {
		p.collect(err)
		return
	}

	for _, a := range parsed {
		schema, err := p.schemas.Validate(a, annotations.ClassTarget)
		if err != nil {
			p.collect(err)
			continue
		}
		switch schema.Name {
		case annotations.JsonController:
			p.contexts = append(p.contexts, ControllerContext{Class: p.class, BaseRoute: a.Arg(0)})
		case annotations.Authorize:
			p.contexts = append(p.contexts, AuthorizationContext{Class: p.class, Roles: a.Strings()})
		}
	}
}

func (p *annotationParser) parseMethod(method, src string) error {
	m, ok := p.typ.MethodByName(method)
	if !ok {
		return configError(p.class, method, "annotated method not found on %s", p.typ)
	}

	parsed, err := annotations.Parse(shortClass(p.class)+"."+method, src)
	if err != nil {
		p.collect(err)
		return nil
	}

	// argument slots, excluding the receiver and context.Context parameters
	var slots []int
	for i := 1; i < m.Type.NumIn(); i++ {
		if m.Type.In(i) != contextType {
			slots = append(slots, i-1)
		}
	}

	routed := false
	next := 0
	for _, a := range parsed {
		target := annotations.MethodTarget
		if _, isParam := parameterKinds[p.canonical(a.Name)]; isParam {
			target = annotations.ParameterTarget
		}
		schema, err := p.schemas.Validate(a, target)
		if err != nil {
			p.collect(err)
			continue
		}

		if target == annotations.MethodTarget {
			if routed {
				p.collect(&annotations.SchemaError{Annotation: a.Name, Msg: "method already has a route", Loc: a.Location()})
				continue
			}
			routed = true
			p.contexts = append(p.contexts, routeContext(p.class, method, schema, a))
			continue
		}

		if next >= len(slots) {
			p.collect(&annotations.SchemaError{
				Annotation: a.Name,
				Msg:        "more parameter annotations than method parameters",
				Loc:        a.Location(),
			})
			continue
		}
		index := slots[next]
		next++

		ctx := ParameterContext{
			Class:  p.class,
			Method: method,
			Index:  index,
			Kind:   parameterKinds[schema.Name],
			Args:   a.Strings(),
		}
		if ctx.Kind == BodyParam {
			typ := m.Type.In(index + 1)
			if typ.Kind() == reflect.Pointer {
				typ = typ.Elem()
			}
			ctx.Type = typ
		}
		p.contexts = append(p.contexts, ctx)
	}
	return nil
}

// canonical resolves an alias to its schema name
func (p *annotationParser) canonical(name string) string {
	if schema, ok := p.schemas.Lookup(name); ok {
		return schema.Name
	}
	return name
}

func routeContext(class, method string, schema annotations.Schema, a *annotations.Annotation) RouteContext {
	if schema.Name == annotations.Route {
		return RouteContext{Class: class, Method: method, HTTPMethod: strings.ToUpper(a.Arg(0)), Path: a.Arg(1)}
	}
	return RouteContext{Class: class, Method: method, HTTPMethod: strings.ToUpper(schema.Name), Path: a.Arg(0)}
}
