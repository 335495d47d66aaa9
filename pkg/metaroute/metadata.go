package metaroute

import (
	"reflect"
	"slices"
)

// ControllerInfo holds the base route segment of a controller class
type ControllerInfo struct {
	BaseRoute string
}

// AuthorizationInfo lists the roles required to reach any route of a class
type AuthorizationInfo struct {
	Roles []string
}

// RouteInfo binds one method to an HTTP verb and optional path segment
type RouteInfo struct {
	Method     string
	HTTPMethod string
	Path       string
}

// ParameterInfo describes one handler argument
type ParameterInfo struct {
	Method string
	Index  int
	Kind   ParameterKind
	Args   []string
	Type   reflect.Type
}

// Name returns the header, parameter or query key of the descriptor
func (p ParameterInfo) Name() string {
	if len(p.Args) == 0 {
		return ""
	}
	return p.Args[0]
}

// ParameterList holds descriptors at their declared index. Holes are nil.
type ParameterList []*ParameterInfo

// place stores p at its own index, growing the list as needed
func (l ParameterList) place(p ParameterInfo) ParameterList {
	if p.Index >= len(l) {
		l = append(l, make(ParameterList, p.Index-len(l)+1)...)
	}
	l[p.Index] = &p
	return l
}

// Present returns the descriptors that were supplied, ordered by index
func (l ParameterList) Present() []ParameterInfo {
	out := make([]ParameterInfo, 0, len(l))
	for _, p := range l {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// ClassMetadata accumulates every declaration made for one controller class
type ClassMetadata struct {
	Class         string
	Controller    *ControllerInfo
	Authorization *AuthorizationInfo
	Routes        map[string]RouteInfo
	Parameters    map[string]ParameterList

	routeOrder []string
}

func newClassMetadata(class string) *ClassMetadata {
	return &ClassMetadata{
		Class:      class,
		Routes:     make(map[string]RouteInfo),
		Parameters: make(map[string]ParameterList),
	}
}

// RouteMethods returns the routed method names in the order they were first declared
func (m *ClassMetadata) RouteMethods() []string {
	return slices.Clone(m.routeOrder)
}

func (m *ClassMetadata) clone() ClassMetadata {
	out := ClassMetadata{
		Class:      m.Class,
		Routes:     make(map[string]RouteInfo, len(m.Routes)),
		Parameters: make(map[string]ParameterList, len(m.Parameters)),
		routeOrder: slices.Clone(m.routeOrder),
	}
	if m.Controller != nil {
		controller := *m.Controller
		out.Controller = &controller
	}
	if m.Authorization != nil {
		out.Authorization = &AuthorizationInfo{Roles: slices.Clone(m.Authorization.Roles)}
	}
	for method, route := range m.Routes {
		out.Routes[method] = route
	}
	for method, params := range m.Parameters {
		out.Parameters[method] = slices.Clone(params)
	}
	return out
}
