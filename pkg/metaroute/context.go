package metaroute

import (
	"fmt"
	"reflect"
	"strings"
)

// ParameterKind tags how a handler argument is obtained from a request
type ParameterKind int

const (
	BodyParam ParameterKind = iota
	CurrentUserParam
	EncodedJwtTokenParam
	HeaderParam
	PathParam
	QueryParam
	RawRequestParam
	RawResponseParam
)

// String returns the string representation of the parameter kind
func (k ParameterKind) String() string {
	switch k {
	case BodyParam:
		return "Body"
	case CurrentUserParam:
		return "CurrentUser"
	case EncodedJwtTokenParam:
		return "EncodedJwtToken"
	case HeaderParam:
		return "HeaderParam"
	case PathParam:
		return "PathParam"
	case QueryParam:
		return "QueryParam"
	case RawRequestParam:
		return "RawRequest"
	case RawResponseParam:
		return "RawResponse"
	default:
		return fmt.Sprintf("ParameterKind(%d)", int(k))
	}
}

// named reports whether the kind requires a key argument (header, param or query name)
func (k ParameterKind) named() bool {
	return k == HeaderParam || k == PathParam || k == QueryParam
}

// MetadataContext is one declaration captured for a controller class. It is a
// closed sum: only the four context types in this package implement it.
type MetadataContext interface {
	ClassName() string
	metadataContext()
}

// ControllerContext declares a class as a controller mounted under BaseRoute
type ControllerContext struct {
	Class     string
	BaseRoute string
}

// AuthorizationContext requires the listed roles for every route of a class
type AuthorizationContext struct {
	Class string
	Roles []string
}

// RouteContext binds a method of a class to an HTTP verb and path
type RouteContext struct {
	Class      string
	Method     string
	HTTPMethod string
	Path       string
}

// ParameterContext describes how to obtain argument Index of Method
type ParameterContext struct {
	Class  string
	Method string
	Index  int
	Kind   ParameterKind
	Args   []string

	// Type is the explicit target type of a Body parameter
	Type reflect.Type
}

func (c ControllerContext) ClassName() string    { return c.Class }
func (c AuthorizationContext) ClassName() string { return c.Class }
func (c RouteContext) ClassName() string         { return c.Class }
func (c ParameterContext) ClassName() string     { return c.Class }

func (ControllerContext) metadataContext()    {}
func (AuthorizationContext) metadataContext() {}
func (RouteContext) metadataContext()         {}
func (ParameterContext) metadataContext()     {}

// ClassName returns the registry key for a controller value: its package path
// and type name, with pointers dereferenced. Unnamed types yield "".
func ClassName(controller any) string {
	if controller == nil {
		return ""
	}
	return classNameOf(reflect.TypeOf(controller))
}

func classNameOf(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return ""
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// shortClass trims the package path and package name from a class name for display
func shortClass(class string) string {
	if i := strings.LastIndex(class, "/"); i >= 0 {
		class = class[i+1:]
	}
	if i := strings.LastIndex(class, "."); i >= 0 {
		return class[i+1:]
	}
	return class
}
