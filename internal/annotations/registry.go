package annotations

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// SchemaRegistry defines the interface for managing annotation schemas
type SchemaRegistry interface {
	// Register adds a schema under its name and aliases
	Register(schema Schema) error

	// Lookup finds a schema by name or alias
	Lookup(name string) (Schema, bool)

	// Names returns the canonical names of all registered schemas
	Names() []string

	// Validate checks an annotation against its schema for the given target
	Validate(a *Annotation, target Target) (Schema, error)
}

// registry is the concrete implementation of SchemaRegistry
type registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema // keyed by name and by every alias
	names   []string
}

// NewRegistry creates an empty schema registry
func NewRegistry() SchemaRegistry {
	return &registry{schemas: make(map[string]Schema)}
}

var (
	defaultRegistry     SchemaRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the shared registry holding the built-in schemas
func DefaultRegistry() SchemaRegistry {
	defaultRegistryOnce.Do(func() {
		r := NewRegistry()
		for _, schema := range BuiltinSchemas() {
			if err := r.Register(schema); err != nil {
				panic(err)
			}
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Register adds a schema under its name and aliases
func (r *registry) Register(schema Schema) error {
	if schema.Name == "" {
		return &RegistrationError{Msg: "schema name cannot be empty", Hint: "Set Schema.Name"}
	}
	if schema.MaxArgs != unbounded && schema.MaxArgs < schema.MinArgs {
		return &RegistrationError{
			Msg:  fmt.Sprintf("schema %s accepts at most %d arguments but requires %d", schema.Name, schema.MaxArgs, schema.MinArgs),
			Hint: "MaxArgs must be -1 or at least MinArgs",
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append([]string{schema.Name}, schema.Aliases...)
	for _, key := range keys {
		if _, exists := r.schemas[key]; exists {
			return &RegistrationError{
				Msg:  fmt.Sprintf("annotation %s is already registered", key),
				Hint: "Choose a different name or alias",
			}
		}
	}
	for _, key := range keys {
		r.schemas[key] = schema
	}
	r.names = append(r.names, schema.Name)
	return nil
}

// Lookup finds a schema by name or alias
func (r *registry) Lookup(name string) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, ok := r.schemas[name]
	return schema, ok
}

// Names returns the canonical names of all registered schemas, sorted
func (r *registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := append([]string(nil), r.names...)
	sort.Strings(names)
	return names
}

// Validate checks that a is known, used on target and has a valid argument count
func (r *registry) Validate(a *Annotation, target Target) (Schema, error) {
	schema, ok := r.Lookup(a.Name)
	if !ok {
		return Schema{}, &SchemaError{
			Annotation: a.Name,
			Msg:        "unknown annotation",
			Loc:        a.Location(),
			Hint:       "Use one of: " + strings.Join(r.namesFor(target), ", "),
		}
	}

	if schema.Target != target {
		return Schema{}, &SchemaError{
			Annotation: a.Name,
			Msg:        fmt.Sprintf("applies to a %s, not a %s", schema.Target, target),
			Loc:        a.Location(),
		}
	}

	n := len(a.Args)
	if n < schema.MinArgs || (schema.MaxArgs != unbounded && n > schema.MaxArgs) {
		return Schema{}, &SchemaError{
			Annotation: a.Name,
			Msg:        fmt.Sprintf("expects %s, got %d", arity(schema), n),
			Loc:        a.Location(),
			Hint:       "Example: " + strings.Join(schema.Examples, " or "),
		}
	}
	return schema, nil
}

func (r *registry) namesFor(target Target) []string {
	var names []string
	for _, name := range r.Names() {
		if schema, _ := r.Lookup(name); schema.Target == target {
			names = append(names, "@"+name)
		}
	}
	return names
}

func arity(s Schema) string {
	switch {
	case s.MaxArgs == unbounded:
		return fmt.Sprintf("at least %d arguments", s.MinArgs)
	case s.MinArgs == s.MaxArgs:
		return fmt.Sprintf("%d arguments", s.MinArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", s.MinArgs, s.MaxArgs)
	}
}
