package metaroute

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string `json:"name" validate:"required,min=2"`
	Count int    `json:"count" validate:"gte=0"`
}

type widgetController struct {
	calls atomic.Int32
}

func (c *widgetController) List() []widget {
	c.calls.Add(1)
	return []widget{{Name: "first"}}
}

func (c *widgetController) Get(id int) (widget, error) {
	c.calls.Add(1)
	if id == 404 {
		return widget{}, ErrNotFound("Widget not found")
	}
	return widget{Name: "w", Count: id}, nil
}

func (c *widgetController) Echo(v any) any          { return v }
func (c *widgetController) Name(name string) string { return name }
func (c *widgetController) Flag(on bool) bool       { return on }
func (c *widgetController) Search(q string) string  { return q }
func (c *widgetController) Token(token string) string {
	return token
}

func (c *widgetController) Create(w *widget) *Response {
	c.calls.Add(1)
	return Created(w)
}

func (c *widgetController) Replace(id int, w widget) widget {
	w.Count = id
	return w
}

func (c *widgetController) Whoami(user any) any { return user }

func (c *widgetController) Both(user any, w *widget) []any { return []any{user, w} }

func (c *widgetController) Headers(a, b string) []string { return []string{a, b} }

func (c *widgetController) WithContext(ctx context.Context, id int) bool {
	return ctx != nil && id == 7
}

func (c *widgetController) Raw(req, res any) []any { return []any{req, res} }

func (c *widgetController) Fail() error { return ErrForbidden("nope") }

func (c *widgetController) Plain() (string, error) { return "", errors.New("database is down") }

func (c *widgetController) Boom() { panic("boom") }

func (c *widgetController) Nothing() { c.calls.Add(1) }

func (c *widgetController) NilWidget() *widget { return nil }

func (c *widgetController) Empty() []widget { return nil }

func (c *widgetController) Later() *Pending {
	return Async(func() (any, error) { return widget{Name: "later"}, nil })
}

func (c *widgetController) Gone() Awaitable { return Rejected(ErrNotFound("gone")) }

func (c *widgetController) Custom() Awaitable { return Resolved(Accepted(map[string]string{"queued": "yes"})) }

func (c *widgetController) Never(ctx context.Context) *Pending {
	return Async(func() (any, error) {
		<-ctx.Done()
		return nil, nil
	})
}

func (c *widgetController) Variadic(ids ...int) int { return len(ids) }

func (c *widgetController) TooMany() (int, int, error) { return 0, 0, nil }

func (c *widgetController) NotError() (int, int) { return 0, 0 }

type gadgetController struct{}

func (gadgetController) List() []string { return nil }
func (gadgetController) Get(id int) int { return id }

// compileWith registers one widgetController through declare and compiles it
func compileWith(t *testing.T, opts Options, declare func(b *ControllerBuilder)) (RouteDescriptor, *widgetController) {
	t.Helper()

	reg := NewRegistry()
	b := Controller[widgetController](reg, "/widgets")
	declare(b)
	require.NoError(t, b.Err())

	ctrl := &widgetController{}
	opts.Controllers = []any{ctrl}
	routes, err := Compile(reg, opts)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	return routes[0], ctrl
}

func compileRoute(t *testing.T, opts Options, method string, params ...ParamSpec) (RouteDescriptor, *widgetController) {
	t.Helper()
	return compileWith(t, opts, func(b *ControllerBuilder) {
		b.Get("/x", method, params...)
	})
}
