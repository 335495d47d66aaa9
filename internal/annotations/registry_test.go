package annotations

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()
	require.NotNil(t, registry)
	assert.Empty(t, registry.Names())
}

func TestDefaultRegistry(t *testing.T) {
	registry1 := DefaultRegistry()
	registry2 := DefaultRegistry()
	assert.Same(t, registry1, registry2)

	for _, schema := range BuiltinSchemas() {
		got, ok := registry1.Lookup(schema.Name)
		assert.True(t, ok, schema.Name)
		assert.Equal(t, schema.Name, got.Name)

		for _, alias := range schema.Aliases {
			got, ok := registry1.Lookup(alias)
			assert.True(t, ok, alias)
			assert.Equal(t, schema.Name, got.Name)
		}
	}
}

func TestRegister(t *testing.T) {
	registry := NewRegistry()

	err := registry.Register(Schema{Name: "Cache", Aliases: []string{"Cached"}, Target: MethodTarget, MaxArgs: 1})
	require.NoError(t, err)

	schema, ok := registry.Lookup("Cached")
	require.True(t, ok)
	assert.Equal(t, "Cache", schema.Name)
	assert.Equal(t, []string{"Cache"}, registry.Names())
}

func TestRegister_Errors(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(Schema{Name: "Cache", Target: MethodTarget}))

	tests := []struct {
		name   string
		schema Schema
	}{
		{"empty name", Schema{}},
		{"duplicate name", Schema{Name: "Cache"}},
		{"alias clashes with name", Schema{Name: "Other", Aliases: []string{"Cache"}}},
		{"max below min", Schema{Name: "Bad", MinArgs: 2, MaxArgs: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Register(tt.schema)
			require.Error(t, err)

			var regErr *RegistrationError
			require.True(t, errors.As(err, &regErr))
			assert.Equal(t, RegistrationErrorCode, regErr.Code())
		})
	}
}

func TestValidate(t *testing.T) {
	registry := DefaultRegistry()

	parse := func(input string) *Annotation {
		t.Helper()
		got, err := Parse("Test", input)
		require.NoError(t, err)
		require.Len(t, got, 1)
		return got[0]
	}

	tests := []struct {
		name    string
		input   string
		target  Target
		want    string
		wantErr string
	}{
		{"controller", `@JsonController("/widgets")`, ClassTarget, JsonController, ""},
		{"controller alias without base", `@Controller`, ClassTarget, JsonController, ""},
		{"authorize any roles", `@Authorize("A", "B", "C")`, ClassTarget, Authorize, ""},
		{"route", `@Route(GET, "/x")`, MethodTarget, Route, ""},
		{"verb shorthand", `@Get("/x")`, MethodTarget, Get, ""},
		{"path param alias", `@PathParam("id")`, ParameterTarget, Param, ""},
		{"unknown", `@Cache`, MethodTarget, "", "unknown annotation"},
		{"wrong target", `@Body`, MethodTarget, "", "applies to a parameter, not a method"},
		{"too few args", `@Route(GET)`, MethodTarget, "", "expects 2 arguments, got 1"},
		{"too many args", `@Param("a", "b")`, ParameterTarget, "", "expects 1 arguments, got 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := registry.Validate(parse(tt.input), tt.target)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				var schemaErr *SchemaError
				require.True(t, errors.As(err, &schemaErr))
				assert.Equal(t, SchemaErrorCode, schemaErr.Code())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, schema.Name)
		})
	}
}

func TestRegistry_ConcurrentLookup(t *testing.T) {
	registry := DefaultRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := registry.Lookup(Route)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

func TestMultipleAnnotationErrors(t *testing.T) {
	var errs MultipleAnnotationErrors
	assert.NoError(t, errs.ErrOrNil())

	errs.Add(&SyntaxError{Msg: "bad", Loc: SourceLocation{Source: "A"}})
	errs.Add(&SchemaError{Annotation: "X", Msg: "unknown annotation", Loc: SourceLocation{Source: "B"}})

	err := errs.ErrOrNil()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 annotation errors")

	var schemaErr *SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}
