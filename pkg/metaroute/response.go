package metaroute

import "net/http"

// Response lets a handler choose its status code. Return it (or an Awaitable
// resolving to it) in place of a plain value:
//
//	func (c *WidgetController) Create(w Widget) (*metaroute.Response, error) {
//		return metaroute.Created(store.Add(w)), nil
//	}
//
// A nil Body answers with an empty body.
type Response struct {
	StatusCode int `json:"-"`
	Body       any `json:"body,omitempty"`
}

// NewResponse creates a new Response with the specified status code and body
func NewResponse(statusCode int, body any) *Response {
	return &Response{
		StatusCode: statusCode,
		Body:       body,
	}
}

// OK creates a 200 OK response with the given body
func OK(body any) *Response {
	return NewResponse(http.StatusOK, body)
}

// Created creates a 201 Created response with the given body
func Created(body any) *Response {
	return NewResponse(http.StatusCreated, body)
}

// Accepted creates a 202 Accepted response with the given body
func Accepted(body any) *Response {
	return NewResponse(http.StatusAccepted, body)
}

// NoContent creates a 204 No Content response
func NoContent() *Response {
	return NewResponse(http.StatusNoContent, nil)
}
