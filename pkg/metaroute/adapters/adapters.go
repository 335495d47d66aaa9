// Package adapters connects metaroute to concrete web frameworks: Echo, Gin,
// Fiber and gorilla/mux.
package adapters

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/toyz/metaroute/pkg/metaroute"
)

// allowedMethods are advertised by the permissive CORS policy of the net/http based adapters
var allowedMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// withCORS wraps h with gorilla's CORS handler allowing any origin
func withCORS(h http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods(allowedMethods),
		handlers.AllowedHeaders([]string{"Accept", "Authorization", "Content-Type", "Origin"}),
	)(h)
}

// readBody reads the request body and puts an identical reader back so the
// body can be read again downstream
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, err
}

// fallbackError is used when an error escapes the metaroute error stage,
// e.g. a write failure while rendering a response
func fallbackError(err error) (int, metaroute.ErrorBody) {
	body := metaroute.NewErrorBody(err, false)
	return body.StatusCode, body
}

type originalPathKey struct{}

// foldPath lower-cases the request path for routing, matching the lower-cased
// route table. The path as sent is kept for Path and parameter values.
func foldPath(r *http.Request) *http.Request {
	lower := strings.ToLower(r.URL.Path)
	if lower == r.URL.Path {
		return r
	}

	r = r.WithContext(context.WithValue(r.Context(), originalPathKey{}, r.URL.Path))
	u := *r.URL
	u.Path = lower
	u.RawPath = strings.ToLower(u.RawPath)
	r.URL = &u
	return r
}

// requestPath returns the path as the client sent it
func requestPath(r *http.Request) string {
	if original, ok := r.Context().Value(originalPathKey{}).(string); ok {
		return original
	}
	return r.URL.Path
}

// originalValue finds segment in the route pattern and returns the same
// position of the unfolded request path. A catch-all (rest) takes every
// remaining segment. routed is returned unless the two agree ignoring case.
func originalValue(r *http.Request, pattern, segment, routed string, rest bool) string {
	original, ok := r.Context().Value(originalPathKey{}).(string)
	if !ok || routed == "" {
		return routed
	}

	sent := strings.Split(original, "/")
	for i, part := range strings.Split(pattern, "/") {
		if part != segment {
			continue
		}
		if i >= len(sent) {
			break
		}
		value := sent[i]
		if rest {
			value = strings.Join(sent[i:], "/")
		}
		if strings.EqualFold(value, routed) {
			return value
		}
		break
	}
	return routed
}
