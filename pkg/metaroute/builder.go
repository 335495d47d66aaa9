package metaroute

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
)

// ParamSpec declares the source of one handler argument. Specs passed to
// Route take the index of their position unless At overrides it.
type ParamSpec struct {
	kind  ParameterKind
	args  []string
	typ   reflect.Type
	index int
}

// At places the argument at an explicit zero-based parameter index
func (s ParamSpec) At(index int) ParamSpec {
	s.index = index
	return s
}

// Kind returns the parameter kind
func (s ParamSpec) Kind() ParameterKind {
	return s.kind
}

func spec(kind ParameterKind, args ...string) ParamSpec {
	return ParamSpec{kind: kind, args: args, index: -1}
}

// Body decodes the JSON request body into a T and validates it. Pointer types
// name their element, so Body[*T] and Body[T] are the same declaration.
func Body[T any]() ParamSpec {
	typ := reflect.TypeFor[T]()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	s := spec(BodyParam)
	s.typ = typ
	return s
}

// CurrentUser resolves the argument with the configured CurrentUserHandler
func CurrentUser() ParamSpec { return spec(CurrentUserParam) }

// EncodedJwtToken extracts the bearer token from the Authorization header
func EncodedJwtToken() ParamSpec { return spec(EncodedJwtTokenParam) }

// Header reads the named request header
func Header(name string) ParamSpec { return spec(HeaderParam, name) }

// Param reads and JSON-decodes the named path parameter
func Param(name string) ParamSpec { return spec(PathParam, name) }

// Query reads the named query value as a literal string
func Query(name string) ParamSpec { return spec(QueryParam, name) }

// RawRequest passes the framework's native request handle
func RawRequest() ParamSpec { return spec(RawRequestParam) }

// RawResponse passes the framework's native response handle
func RawResponse() ParamSpec { return spec(RawResponseParam) }

// ControllerBuilder registers one controller class and its routes. The first
// registration failure is kept and returned by Err; later calls become no-ops.
type ControllerBuilder struct {
	reg   *Registry
	class string
	err   error
}

// Controller declares T as a controller mounted under baseRoute
//
//	metaroute.Controller[WidgetController](reg, "/widgets").
//	    Get("/:id", "GetWidget", metaroute.Param("id")).
//	    Post("", "CreateWidget", metaroute.Body[Widget]())
func Controller[T any](reg *Registry, baseRoute string) *ControllerBuilder {
	b := &ControllerBuilder{reg: reg, class: classNameOf(reflect.TypeFor[T]())}
	if b.class == "" {
		b.err = configError("", "", "controller type %s is not a named type", reflect.TypeFor[T]())
		return b
	}
	b.add(ControllerContext{Class: b.class, BaseRoute: baseRoute})
	return b
}

// Class returns the registry key of the controller
func (b *ControllerBuilder) Class() string {
	return b.class
}

// Authorize requires roles for every route of the controller
func (b *ControllerBuilder) Authorize(roles ...string) *ControllerBuilder {
	b.add(AuthorizationContext{Class: b.class, Roles: roles})
	return b
}

// Route binds method to httpMethod and path, with one ParamSpec per argument
func (b *ControllerBuilder) Route(httpMethod, path, method string, params ...ParamSpec) *ControllerBuilder {
	b.add(RouteContext{
		Class:      b.class,
		Method:     method,
		HTTPMethod: strings.ToUpper(httpMethod),
		Path:       path,
	})
	for i, p := range params {
		index := p.index
		if index < 0 {
			index = i
		}
		if p.kind.named() && (len(p.args) == 0 || p.args[0] == "") {
			b.fail(configError(b.class, method, "%s parameter at index %d has no name", p.kind, index))
			continue
		}
		b.add(ParameterContext{
			Class:  b.class,
			Method: method,
			Index:  index,
			Kind:   p.kind,
			Args:   p.args,
			Type:   p.typ,
		})
	}
	return b
}

// Get is shorthand for Route("GET", path, method, params...)
func (b *ControllerBuilder) Get(path, method string, params ...ParamSpec) *ControllerBuilder {
	return b.Route(http.MethodGet, path, method, params...)
}

// Post is shorthand for Route("POST", path, method, params...)
func (b *ControllerBuilder) Post(path, method string, params ...ParamSpec) *ControllerBuilder {
	return b.Route(http.MethodPost, path, method, params...)
}

// Put is shorthand for Route("PUT", path, method, params...)
func (b *ControllerBuilder) Put(path, method string, params ...ParamSpec) *ControllerBuilder {
	return b.Route(http.MethodPut, path, method, params...)
}

// Patch is shorthand for Route("PATCH", path, method, params...)
func (b *ControllerBuilder) Patch(path, method string, params ...ParamSpec) *ControllerBuilder {
	return b.Route(http.MethodPatch, path, method, params...)
}

// Delete is shorthand for Route("DELETE", path, method, params...)
func (b *ControllerBuilder) Delete(path, method string, params ...ParamSpec) *ControllerBuilder {
	return b.Route(http.MethodDelete, path, method, params...)
}

// Err returns the first error met while registering
func (b *ControllerBuilder) Err() error {
	return b.err
}

func (b *ControllerBuilder) add(ctx MetadataContext) {
	if b.err != nil {
		return
	}
	if b.reg == nil {
		b.fail(errors.New("metaroute: nil registry"))
		return
	}
	b.fail(b.reg.AddMetadata(ctx))
}

func (b *ControllerBuilder) fail(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}
