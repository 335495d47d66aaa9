package metaroute

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

var (
	errorType   = reflect.TypeFor[error]()
	contextType = reflect.TypeFor[context.Context]()
	stringType  = reflect.TypeFor[string]()
)

// RouteDescriptor is one compiled route bound to a live controller instance
type RouteDescriptor struct {
	Class         string
	MethodName    string
	HTTPMethod    string
	Path          RoutePath
	Controller    any
	Method        reflect.Value
	Authorization *AuthorizationInfo
	Parameters    []ParameterInfo
}

// Key returns the "VERB /path" pair used for duplicate detection
func (d RouteDescriptor) Key() string {
	return d.HTTPMethod + " " + string(d.Path)
}

// Handler returns the display name of the bound method, e.g. "WidgetController.GetWidget"
func (d RouteDescriptor) Handler() string {
	return shortClass(d.Class) + "." + d.MethodName
}

// Roles returns the roles required by the route, or nil when unrestricted
func (d RouteDescriptor) Roles() []string {
	if d.Authorization == nil {
		return nil
	}
	return slices.Clone(d.Authorization.Roles)
}

func (d RouteDescriptor) String() string {
	return fmt.Sprintf("%s -> %s", d.Key(), d.Handler())
}

// Compile activates opts.Controllers in reg and resolves the route table for
// every class that has both metadata and an instance. Any error is fatal:
// no partial table is returned.
func Compile(reg *Registry, opts Options) ([]RouteDescriptor, error) {
	if reg == nil {
		return nil, configError("", "", "nil registry")
	}
	if len(opts.Controllers) == 0 {
		return nil, configError("", "", "no controllers configured")
	}
	if err := reg.activate(opts.Controllers); err != nil {
		return nil, err
	}

	seen := make(map[string]string)
	var routes []RouteDescriptor
	for _, class := range reg.Classes() {
		instance, active := reg.Controller(class)
		if !active {
			continue
		}
		meta, _ := reg.Metadata(class)

		if meta.Controller == nil {
			return nil, configError(class, "", "No controller found")
		}
		if len(meta.Routes) == 0 {
			return nil, configError(class, "", "No routes found for controller")
		}
		if meta.Authorization != nil && opts.AuthorizationHandler == nil {
			return nil, configError(class, "", "No authorization handler specified")
		}

		for _, method := range meta.RouteMethods() {
			route := meta.Routes[method]
			verb := strings.ToUpper(route.HTTPMethod)
			if verb == "" {
				return nil, configError(class, method, "route has no HTTP method")
			}

			path := NormalizePath(opts.RoutePrefix, meta.Controller.BaseRoute, route.Path)
			key := verb + " " + string(path)
			if prev, dup := seen[key]; dup {
				return nil, configError(class, method, "Duplicate paths found: %s is already bound to %s", key, prev)
			}
			seen[key] = shortClass(class) + "." + method

			descriptor, err := bindRoute(instance, meta, method, verb, path)
			if err != nil {
				return nil, err
			}
			for _, p := range descriptor.Parameters {
				if p.Kind == CurrentUserParam && opts.CurrentUserHandler == nil {
					return nil, configError(class, method, "No current user handler specified")
				}
			}
			routes = append(routes, descriptor)
		}
	}
	return routes, nil
}

func bindRoute(instance any, meta ClassMetadata, method, verb string, path RoutePath) (RouteDescriptor, error) {
	class := meta.Class
	bound := reflect.ValueOf(instance).MethodByName(method)
	if !bound.IsValid() {
		return RouteDescriptor{}, configError(class, method, "method not found on controller %T", instance)
	}

	signature := bound.Type()
	if signature.IsVariadic() {
		return RouteDescriptor{}, configError(class, method, "variadic handlers are not supported")
	}
	if err := checkResults(signature); err != nil {
		return RouteDescriptor{}, configError(class, method, "%s", err)
	}

	params := meta.Parameters[method].Present()
	for i, p := range params {
		if p.Index >= signature.NumIn() {
			return RouteDescriptor{}, configError(class, method,
				"parameter index %d out of range, method takes %d arguments", p.Index, signature.NumIn())
		}
		if err := checkParameter(p, signature.In(p.Index)); err != nil {
			return RouteDescriptor{}, configError(class, method, "%s", err)
		}
		if p.Kind == PathParam {
			// path parameter names are lower-cased along with the path
			params[i].Args = []string{strings.ToLower(p.Name())}
		}
	}

	var authorization *AuthorizationInfo
	if meta.Authorization != nil {
		authorization = &AuthorizationInfo{Roles: slices.Clone(meta.Authorization.Roles)}
	}

	return RouteDescriptor{
		Class:         class,
		MethodName:    method,
		HTTPMethod:    verb,
		Path:          path,
		Controller:    instance,
		Method:        bound,
		Authorization: authorization,
		Parameters:    params,
	}, nil
}

func checkResults(signature reflect.Type) error {
	switch signature.NumOut() {
	case 0, 1:
		return nil
	case 2:
		if signature.Out(1) != errorType {
			return fmt.Errorf("second result must be error, got %s", signature.Out(1))
		}
		return nil
	default:
		return fmt.Errorf("handlers return at most (value, error), got %d results", signature.NumOut())
	}
}

func checkParameter(p ParameterInfo, target reflect.Type) error {
	switch p.Kind {
	case BodyParam:
		if p.Type == nil {
			return fmt.Errorf("Body parameter at index %d has no type", p.Index)
		}
		if target == p.Type ||
			(target.Kind() == reflect.Pointer && target.Elem() == p.Type) ||
			(target.Kind() == reflect.Interface && reflect.PointerTo(p.Type).Implements(target)) {
			return nil
		}
		return fmt.Errorf("Body parameter at index %d declares %s but the method takes %s", p.Index, p.Type, target)
	case HeaderParam, QueryParam, EncodedJwtTokenParam:
		if target.Kind() == reflect.String ||
			(target.Kind() == reflect.Interface && stringType.Implements(target)) {
			return nil
		}
		return fmt.Errorf("%s parameter at index %d must be a string, the method takes %s", p.Kind, p.Index, target)
	case PathParam, CurrentUserParam, RawRequestParam, RawResponseParam:
		return nil
	default:
		return fmt.Errorf("invalid parameter kind %s at index %d", p.Kind, p.Index)
	}
}
