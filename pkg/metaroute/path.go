package metaroute

import (
	"regexp"
	"strings"
)

// RoutePathPartType represents the type of path segment
type RoutePathPartType int

const (
	StaticPart RoutePathPartType = iota
	ParameterPart
	WildcardPart
)

// RoutePathPart represents a single segment of a route path
type RoutePathPart struct {
	Type  RoutePathPartType
	Value string // literal text for static parts, the parameter name for parameters
}

// RoutePath is a normalized route path using ":name" parameters and "*" wildcards,
// e.g. "/api/widgets/:id".
type RoutePath string

var duplicateSlashes = regexp.MustCompile(`/+`)

// NormalizePath joins prefix, controller base and route path, lower-cases the
// result, collapses runs of "/" and strips any trailing "/". The root path is "/".
func NormalizePath(prefix, base, route string) RoutePath {
	joined := strings.ToLower("/" + prefix + "/" + base + "/" + route)
	joined = duplicateSlashes.ReplaceAllString(joined, "/")
	joined = strings.TrimRight(joined, "/")
	if joined == "" {
		return "/"
	}
	return RoutePath(joined)
}

// Raw returns the path as a string
func (p RoutePath) Raw() string {
	return string(p)
}

// Parts splits the path into its segments
func (p RoutePath) Parts() []RoutePathPart {
	var parts []RoutePathPart
	for _, segment := range strings.Split(strings.Trim(string(p), "/"), "/") {
		switch {
		case segment == "":
			continue
		case segment == "*":
			parts = append(parts, RoutePathPart{Type: WildcardPart, Value: "*"})
		case strings.HasPrefix(segment, ":") && len(segment) > 1:
			parts = append(parts, RoutePathPart{Type: ParameterPart, Value: segment[1:]})
		default:
			parts = append(parts, RoutePathPart{Type: StaticPart, Value: segment})
		}
	}
	return parts
}

// Params returns the parameter names declared in the path, in order
func (p RoutePath) Params() []string {
	var names []string
	for _, part := range p.Parts() {
		if part.Type == ParameterPart {
			names = append(names, part.Value)
		}
	}
	return names
}

// Format renders the path in a framework's syntax. param renders a parameter
// name and wildcard replaces a "*" segment.
//
//	p.Format(func(n string) string { return "{" + n + "}" }, "{path:.*}")
func (p RoutePath) Format(param func(name string) string, wildcard string) string {
	parts := p.Parts()
	if len(parts) == 0 {
		return "/"
	}

	var b strings.Builder
	for _, part := range parts {
		b.WriteByte('/')
		switch part.Type {
		case ParameterPart:
			b.WriteString(param(part.Value))
		case WildcardPart:
			b.WriteString(wildcard)
		default:
			b.WriteString(part.Value)
		}
	}
	return b.String()
}

// ColonParam renders a parameter as ":name", the syntax shared by echo, gin and fiber
func ColonParam(name string) string {
	return ":" + name
}
