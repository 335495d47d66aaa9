package metaroute

import (
	"fmt"
	"slices"
	"sync"
)

// Registry collects controller metadata during bootstrap and holds the
// controller instances activated at startup. It is safe for concurrent use;
// after startup it is only read.
type Registry struct {
	mu          sync.RWMutex
	metadata    map[string]*ClassMetadata
	order       []string
	controllers map[string]any
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		metadata:    make(map[string]*ClassMetadata),
		controllers: make(map[string]any),
	}
}

// AddMetadata records one declaration for its class, creating the class entry
// on first use. Controller and authorization contexts replace the previous
// value; a route context replaces any earlier route for the same method;
// a parameter context is placed at its own index.
func (r *Registry) AddMetadata(ctx MetadataContext) error {
	if ctx == nil {
		return configError("", "", "invalid context type <nil>")
	}
	class := ctx.ClassName()
	if class == "" {
		return configError("", "", "context %T has no class name", ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	meta, ok := r.metadata[class]
	if !ok {
		meta = newClassMetadata(class)
	}

	switch c := ctx.(type) {
	case AuthorizationContext:
		meta.Authorization = &AuthorizationInfo{Roles: slices.Clone(c.Roles)}
	case ControllerContext:
		meta.Controller = &ControllerInfo{BaseRoute: c.BaseRoute}
	case RouteContext:
		if c.Method == "" {
			return configError(class, "", "route context has no method name")
		}
		if _, exists := meta.Routes[c.Method]; !exists {
			meta.routeOrder = append(meta.routeOrder, c.Method)
		}
		meta.Routes[c.Method] = RouteInfo{Method: c.Method, HTTPMethod: c.HTTPMethod, Path: c.Path}
	case ParameterContext:
		if c.Method == "" {
			return configError(class, "", "parameter context has no method name")
		}
		if c.Index < 0 {
			return configError(class, c.Method, "negative parameter index %d", c.Index)
		}
		meta.Parameters[c.Method] = meta.Parameters[c.Method].place(ParameterInfo{
			Method: c.Method,
			Index:  c.Index,
			Kind:   c.Kind,
			Args:   slices.Clone(c.Args),
			Type:   c.Type,
		})
	default:
		return configError(class, "", "invalid context type %T", ctx)
	}

	if !ok {
		r.metadata[class] = meta
		r.order = append(r.order, class)
	}
	return nil
}

// ClearMetadata resets the registry and the controller instance map
func (r *Registry) ClearMetadata() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metadata = make(map[string]*ClassMetadata)
	r.order = nil
	r.controllers = make(map[string]any)
}

// Classes returns every class name with metadata, in registration order
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Metadata returns a snapshot of the metadata recorded for class
func (r *Registry) Metadata(class string) (ClassMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.metadata[class]
	if !ok {
		return ClassMetadata{}, false
	}
	return meta.clone(), true
}

// Controller returns the activated instance for class
func (r *Registry) Controller(class string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, ok := r.controllers[class]
	return instance, ok
}

// activate replaces the controller instance map with one instance per class
func (r *Registry) activate(controllers []any) error {
	instances := make(map[string]any, len(controllers))
	for i, controller := range controllers {
		class := ClassName(controller)
		if class == "" {
			return configError("", "", "controller %d (%T) is not a named type", i, controller)
		}
		if _, dup := instances[class]; dup {
			return configError(class, "", "controller registered more than once")
		}
		instances[class] = controller
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.controllers = instances
	return nil
}

// String summarizes the registry for logs
func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("Registry(%d classes, %d active)", len(r.order), len(r.controllers))
}
