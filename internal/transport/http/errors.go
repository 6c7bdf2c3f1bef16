// Package http exposes the computed gold tables over a chi-routed JSON API
// with request tracing and Prometheus metrics.
package http

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the RFC 7807 style problem body returned on failures.
type APIError struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Status)
	return nil
}

// ErrInvalidRequest builds a 400 problem response.
func ErrInvalidRequest(detail string) *APIError {
	return &APIError{
		Type:   "about:blank",
		Title:  "Invalid Request",
		Status: http.StatusBadRequest,
		Detail: detail,
	}
}

// ErrNotReady builds a 503 problem response for results that have not been
// produced yet.
func ErrNotReady(detail string) *APIError {
	return &APIError{
		Type:   "about:blank",
		Title:  "Results Not Available",
		Status: http.StatusServiceUnavailable,
		Detail: detail,
	}
}

// ErrInternal builds a 500 problem response.
func ErrInternal(detail string) *APIError {
	return &APIError{
		Type:   "about:blank",
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: detail,
	}
}
