package metaroute

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	status, ok := StatusOf(err)
	require.True(t, ok, "error %v carries no status", err)
	return status
}

func messageOf(t *testing.T, err error) string {
	t.Helper()
	var httpErr *HttpError
	require.ErrorAs(t, err, &httpErr)
	return httpErr.Message
}

func TestPipeline_PathParamDecoding(t *testing.T) {
	tests := []struct {
		name   string
		method string
		raw    string
		want   any
		status int
	}{
		{name: "number into int", method: "Get", raw: "17", want: widget{Name: "w", Count: 17}},
		{name: "number into any", method: "Echo", raw: "17", want: float64(17)},
		{name: "boolean into any", method: "Echo", raw: "true", want: true},
		{name: "boolean into bool", method: "Flag", raw: "false", want: false},
		{name: "quoted string", method: "Name", raw: `%22abc%22`, want: "abc"},
		{name: "bare word into any", method: "Echo", raw: "abc", status: http.StatusBadRequest},
		{name: "bare word into int", method: "Get", raw: "abc", status: http.StatusBadRequest},
		{name: "bare word into string", method: "Name", raw: "abc", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, _ := compileRoute(t, Options{}, tt.method, Param("id"))
			c := newFakeContext(http.MethodGet, "/widgets/x").withParam("id", tt.raw)

			err := Pipeline(route, Options{})(c)
			if tt.status != 0 {
				assert.Equal(t, tt.status, statusOf(t, err))
				assert.Equal(t, "Invalid parameter", messageOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, c.status)
			assert.Equal(t, tt.want, c.written)
		})
	}
}

func TestPipeline_MissingParameters(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		param   ParamSpec
		message string
	}{
		{"path", "Get", Param("id"), "Parameter does not exist"},
		{"query", "Search", Query("q"), "Query parameter does not exist"},
		{"header", "Name", Header("X-Name"), "Header does not exist"},
		{"body", "Create", Body[widget](), "Invalid request.body"},
		{"jwt", "Token", EncodedJwtToken(), "No authorization header found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, ctrl := compileRoute(t, Options{}, tt.method, tt.param)

			err := Pipeline(route, Options{})(newFakeContext(http.MethodGet, "/widgets/x"))
			assert.Equal(t, tt.message, messageOf(t, err))
			assert.Zero(t, ctrl.calls.Load())
		})
	}
}

func TestPipeline_QueryStaysString(t *testing.T) {
	route, _ := compileRoute(t, Options{}, "Search", Query("q"))
	c := newFakeContext(http.MethodGet, "/widgets/x").withQuery("q", "123")

	require.NoError(t, Pipeline(route, Options{})(c))
	assert.Equal(t, "123", c.written)
}

func TestPipeline_HeaderAndToken(t *testing.T) {
	route, _ := compileRoute(t, Options{}, "Headers", Header("X-A"), Header("x-b"))
	c := newFakeContext(http.MethodGet, "/widgets/x").withHeader("X-A", "a").withHeader("X-B", "b")
	require.NoError(t, Pipeline(route, Options{})(c))
	assert.Equal(t, []string{"a", "b"}, c.written)

	route, _ = compileRoute(t, Options{}, "Token", EncodedJwtToken())
	c = newFakeContext(http.MethodGet, "/widgets/x").withHeader("Authorization", "Bearer abc.def.ghi")
	require.NoError(t, Pipeline(route, Options{})(c))
	assert.Equal(t, "abc.def.ghi", c.written)
}

func TestPipeline_Body(t *testing.T) {
	t.Run("pointer target", func(t *testing.T) {
		route, _ := compileRoute(t, Options{}, "Create", Body[widget]())
		c := newFakeContext(http.MethodPost, "/widgets/x").withJSON(`{"name":"gear","count":2}`)

		require.NoError(t, Pipeline(route, Options{})(c))
		assert.Equal(t, http.StatusCreated, c.status)
		assert.Equal(t, &widget{Name: "gear", Count: 2}, c.written)
	})

	t.Run("value target", func(t *testing.T) {
		route, _ := compileRoute(t, Options{}, "Replace", Param("id"), Body[widget]())
		c := newFakeContext(http.MethodPut, "/widgets/x").withParam("id", "3").withJSON(`{"name":"gear"}`)

		require.NoError(t, Pipeline(route, Options{})(c))
		assert.Equal(t, widget{Name: "gear", Count: 3}, c.written)
	})

	t.Run("validation failure", func(t *testing.T) {
		route, ctrl := compileRoute(t, Options{}, "Create", Body[widget]())
		c := newFakeContext(http.MethodPost, "/widgets/x").withJSON(`{"name":"g","count":-1}`)

		err := Pipeline(route, Options{})(c)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

		var httpErr *HttpError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, "Failed validation", httpErr.Message)
		assert.Contains(t, httpErr.ValidationErrors, "name")
		assert.Contains(t, httpErr.ValidationErrors, "count")
		assert.Zero(t, ctrl.calls.Load())
	})

	t.Run("pointer type token", func(t *testing.T) {
		route, ctrl := compileRoute(t, Options{}, "Create", Body[*widget]())
		assert.Equal(t, reflect.TypeFor[widget](), route.Parameters[0].Type)

		c := newFakeContext(http.MethodPost, "/widgets/x").withJSON(`{"count":1}`)
		err := Pipeline(route, Options{})(c)

		var httpErr *HttpError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, "Failed validation", httpErr.Message)
		assert.Contains(t, httpErr.ValidationErrors, "name")
		assert.Zero(t, ctrl.calls.Load())
	})

	t.Run("wrong shape", func(t *testing.T) {
		route, _ := compileRoute(t, Options{}, "Create", Body[widget]())
		c := newFakeContext(http.MethodPost, "/widgets/x").withJSON(`{"name":["not","a","string"]}`)

		err := Pipeline(route, Options{})(c)
		assert.Equal(t, "Invalid request.body", messageOf(t, err))
	})
}

type countingValidator struct{ calls atomic.Int32 }

func (v *countingValidator) Validate(any) (ValidationErrors, error) {
	v.calls.Add(1)
	return nil, nil
}

func TestPipeline_CustomValidator(t *testing.T) {
	validator := &countingValidator{}
	opts := Options{Validator: validator}
	route, _ := compileRoute(t, opts, "Create", Body[widget]())

	// the custom validator accepts what the default one would refuse
	c := newFakeContext(http.MethodPost, "/widgets/x").withJSON(`{"name":""}`)
	require.NoError(t, Pipeline(route, opts)(c))
	assert.Equal(t, int32(1), validator.calls.Load())
}

func TestPipeline_Authorization(t *testing.T) {
	var seen []string
	opts := Options{
		AuthorizationHandler: func(c RequestContext, roles []string) (bool, error) {
			seen = roles
			return c.Header("X-Role") == "ADMIN", nil
		},
	}
	route, ctrl := compileWith(t, opts, func(b *ControllerBuilder) {
		b.Authorize("ADMIN", "OWNER").Get("", "List")
	})

	err := Pipeline(route, opts)(newFakeContext(http.MethodGet, "/widgets"))
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	assert.Equal(t, "Unauthorized", messageOf(t, err))
	assert.Zero(t, ctrl.calls.Load(), "handler must not run when authorization fails")
	assert.Equal(t, []string{"ADMIN", "OWNER"}, seen)

	c := newFakeContext(http.MethodGet, "/widgets").withHeader("X-Role", "ADMIN")
	require.NoError(t, Pipeline(route, opts)(c))
	assert.Equal(t, int32(1), ctrl.calls.Load())
}

func TestPipeline_AuthorizationError(t *testing.T) {
	opts := Options{
		AuthorizationHandler: func(RequestContext, []string) (bool, error) {
			return false, ErrForbidden("suspended")
		},
	}
	route, ctrl := compileWith(t, opts, func(b *ControllerBuilder) {
		b.Authorize().Get("", "List")
	})

	err := Pipeline(route, opts)(newFakeContext(http.MethodGet, "/widgets"))
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	assert.Zero(t, ctrl.calls.Load())
}

func TestPipeline_CurrentUser(t *testing.T) {
	opts := Options{
		CurrentUserHandler: func(c RequestContext) (any, error) {
			if c.Header("X-User") == "" {
				return nil, ErrUnauthorized("who are you")
			}
			return c.Header("X-User"), nil
		},
	}
	route, _ := compileRoute(t, opts, "Whoami", CurrentUser())

	c := newFakeContext(http.MethodGet, "/widgets/x").withHeader("X-User", "alice")
	require.NoError(t, Pipeline(route, opts)(c))
	assert.Equal(t, "alice", c.written)

	err := Pipeline(route, opts)(newFakeContext(http.MethodGet, "/widgets/x"))
	assert.Equal(t, "who are you", messageOf(t, err))
}

func TestPipeline_LowestIndexErrorWins(t *testing.T) {
	opts := Options{
		CurrentUserHandler: func(RequestContext) (any, error) {
			return nil, ErrUnauthorized("no user")
		},
	}
	route, _ := compileRoute(t, opts, "Both", CurrentUser(), Body[widget]())

	for range 20 {
		c := newFakeContext(http.MethodPost, "/widgets/x").withJSON(`{"name":""}`)
		err := Pipeline(route, opts)(c)
		assert.Equal(t, "no user", messageOf(t, err))
	}
}

func TestPipeline_ConcurrentResolution(t *testing.T) {
	release := make(chan struct{})
	var started atomic.Int32
	opts := Options{
		CurrentUserHandler: func(RequestContext) (any, error) {
			started.Add(1)
			<-release
			return "bob", nil
		},
		Validator: validatorFunc(func(any) (ValidationErrors, error) {
			started.Add(1)
			<-release
			return nil, nil
		}),
	}
	route, _ := compileRoute(t, opts, "Both", CurrentUser(), Body[widget]())

	done := make(chan error, 1)
	c := newFakeContext(http.MethodPost, "/widgets/x").withJSON(`{"name":"gear"}`)
	go func() { done <- Pipeline(route, opts)(c) }()

	// both callbacks block until released, so they must be running together
	require.Eventually(t, func() bool { return started.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []any{"bob", &widget{Name: "gear"}}, c.written)
}

type validatorFunc func(any) (ValidationErrors, error)

func (f validatorFunc) Validate(v any) (ValidationErrors, error) { return f(v) }

func TestPipeline_MissingIndexes(t *testing.T) {
	route, _ := compileRoute(t, Options{}, "WithContext", Param("id").At(1))
	c := newFakeContext(http.MethodGet, "/widgets/x").withParam("id", "7")

	require.NoError(t, Pipeline(route, Options{})(c))
	assert.Equal(t, true, c.written)

	// an undeclared non-context argument receives its zero value
	route, _ = compileRoute(t, Options{}, "Replace", Body[widget]().At(1))
	c = newFakeContext(http.MethodGet, "/widgets/x").withJSON(`{"name":"gear"}`)
	require.NoError(t, Pipeline(route, Options{})(c))
	assert.Equal(t, widget{Name: "gear"}, c.written)
}

func TestPipeline_RawHandles(t *testing.T) {
	route, _ := compileRoute(t, Options{}, "Raw", RawRequest(), RawResponse())
	c := newFakeContext(http.MethodGet, "/widgets/x")

	require.NoError(t, Pipeline(route, Options{})(c))
	assert.Equal(t, []any{"raw-request", "raw-response"}, c.written)
}

func TestPipeline_Results(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		status  int
		written any
	}{
		{"value", "List", http.StatusOK, []widget{{Name: "first"}}},
		{"no result", "Nothing", http.StatusOK, nil},
		{"nil pointer", "NilWidget", http.StatusOK, nil},
		{"nil slice is a value", "Empty", http.StatusOK, []widget(nil)},
		{"awaited", "Later", http.StatusOK, widget{Name: "later"}},
		{"awaited response", "Custom", http.StatusAccepted, map[string]string{"queued": "yes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, _ := compileRoute(t, Options{}, tt.method)
			c := newFakeContext(http.MethodGet, "/widgets/x")

			require.NoError(t, Pipeline(route, Options{})(c))
			assert.Equal(t, tt.status, c.status)
			assert.Equal(t, tt.written, c.written)
		})
	}
}

func TestPipeline_Failures(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		route, _ := compileRoute(t, Options{}, "Fail")
		err := Pipeline(route, Options{})(newFakeContext(http.MethodGet, "/"))
		assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	})

	t.Run("plain error", func(t *testing.T) {
		route, _ := compileRoute(t, Options{}, "Plain")
		err := Pipeline(route, Options{})(newFakeContext(http.MethodGet, "/"))
		require.EqualError(t, err, "database is down")
		_, ok := StatusOf(err)
		assert.False(t, ok)
	})

	t.Run("panic", func(t *testing.T) {
		route, _ := compileRoute(t, Options{}, "Boom")
		var err error
		require.NotPanics(t, func() {
			err = Pipeline(route, Options{})(newFakeContext(http.MethodGet, "/"))
		})
		require.EqualError(t, err, "boom")
		assert.Contains(t, stackOf(err), "metaroute")
	})

	t.Run("rejected awaitable", func(t *testing.T) {
		route, _ := compileRoute(t, Options{}, "Gone")
		err := Pipeline(route, Options{})(newFakeContext(http.MethodGet, "/"))
		assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	})

	t.Run("canceled while awaiting", func(t *testing.T) {
		route, _ := compileRoute(t, Options{}, "Never")
		ctx, cancel := context.WithCancel(context.Background())
		c := newFakeContext(http.MethodGet, "/")
		c.ctx = ctx

		done := make(chan error, 1)
		go func() { done <- Pipeline(route, Options{})(c) }()
		cancel()

		select {
		case err := <-done:
			assert.True(t, errors.Is(err, context.Canceled))
		case <-time.After(time.Second):
			t.Fatal("pipeline did not return after cancellation")
		}
	})
}

func TestArgument(t *testing.T) {
	type id int

	v, err := argument(5, reflect.TypeFor[id]())
	require.NoError(t, err)
	assert.Equal(t, id(5), v.Interface())

	v, err = argument(&widget{Name: "x"}, reflect.TypeFor[widget]())
	require.NoError(t, err)
	assert.Equal(t, widget{Name: "x"}, v.Interface())

	v, err = argument(nil, reflect.TypeFor[*widget]())
	require.NoError(t, err)
	assert.True(t, v.IsNil())

	_, err = argument("x", reflect.TypeFor[int]())
	assert.Error(t, err)
}
