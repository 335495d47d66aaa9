package metaroute

import (
	"context"
	"errors"
	"maps"
	"math"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJwtToken(t *testing.T) {
	tests := []struct {
		header  string
		token   string
		message string
	}{
		{header: "Bearer abc.def", token: "abc.def"},
		{header: "bearer abc.def", token: "abc.def"},
		{header: "BEARER xyz", token: "xyz"},
		{header: "", message: "No authorization header found"},
		{header: "Basic dXNlcjpwdw==", message: "No bearer found"},
		{header: "Bear", message: "No bearer found"},
		{header: "Bearer ", message: "No JWT token found"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, err := ExtractJwtToken(tt.header)
			if tt.message != "" {
				assert.Equal(t, tt.message, messageOf(t, err))
				assert.Equal(t, 401, statusOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestConvertSimpleType(t *testing.T) {
	tests := []struct {
		name  string
		kind  string
		input any
		want  any
	}{
		{"string from number", "string", 12, "12"},
		{"string from bool", "String", true, "true"},
		{"number from string", "number", "3.5", 3.5},
		{"number from int", "number", 7, 7.0},
		{"number from true", "number", true, 1.0},
		{"number from empty", "number", "", 0.0},
		{"boolean true", "boolean", "TRUE", true},
		{"boolean other", "boolean", "yes", false},
		{"boolean non string", "boolean", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertSimpleType(tt.kind, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := ConvertSimpleType("number", "abc")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.(float64)))

	got, err = ConvertSimpleType("number", nil)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got.(float64)))

	_, err = ConvertSimpleType("date", "2024-01-01")
	assert.EqualError(t, err, "invalid simple type, type = [date]")
}

func TestPending(t *testing.T) {
	ctx := context.Background()

	v, err := Async(func() (any, error) { return 42, nil }).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = Async(func() (any, error) { panic("async boom") }).Await(ctx)
	assert.EqualError(t, err, "async boom")

	v, err = Resolved("ready").Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ready", v)

	sentinel := errors.New("nope")
	_, err = Rejected(sentinel).Await(ctx)
	assert.ErrorIs(t, err, sentinel)

	block := make(chan struct{})
	defer close(block)
	timeout, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = Async(func() (any, error) { <-block; return nil, nil }).Await(timeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type order struct {
	ID    uuid.UUID `json:"id"`
	Items []item    `json:"items" validate:"min=1,dive"`
	Note  string    `json:"note,omitempty" validate:"omitempty,max=5"`
}

type item struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestMapTransformer(t *testing.T) {
	id := uuid.New()
	raw := map[string]any{
		"id":    id.String(),
		"items": []any{map[string]any{"sku": "A-1", "quantity": float64(2)}},
		"extra": "ignored",
	}

	v, err := MapTransformer{}.ToInstance(reflect.TypeFor[order](), raw)
	require.NoError(t, err)
	assert.Equal(t, &order{ID: id, Items: []item{{SKU: "A-1", Quantity: 2}}}, v)

	_, err = MapTransformer{}.ToInstance(reflect.TypeFor[order](), map[string]any{"items": "nope"})
	assert.Error(t, err)

	_, err = MapTransformer{}.ToInstance(nil, raw)
	assert.Error(t, err)
}

func TestPlaygroundValidator(t *testing.T) {
	v := NewPlaygroundValidator()

	errs, err := v.Validate(&order{Items: []item{{SKU: "A", Quantity: 1}}})
	require.NoError(t, err)
	assert.Empty(t, errs)

	errs, err = v.Validate(&order{Items: []item{{Quantity: 0}}, Note: "too long"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"items[0].sku", "items[0].quantity", "note"}, slices.Collect(maps.Keys(errs)))
	assert.Equal(t, []string{"quantity must satisfy gt=0"}, errs["items[0].quantity"])

	errs, err = v.Validate(&order{})
	require.NoError(t, err)
	assert.Contains(t, errs, "items")

	bad := &order{}
	errs, err = v.Validate(&bad)
	require.NoError(t, err)
	assert.Contains(t, errs, "items", "pointers to pointers are validated too")

	var missing *order
	errs, err = v.Validate(missing)
	require.NoError(t, err)
	assert.Empty(t, errs)

	errs, err = v.Validate("not a struct")
	require.NoError(t, err)
	assert.Empty(t, errs)
}
