package models

import "errors"

// Common error types shared by the fake compute API and its store.
// The client maps HTTP failures to its own sentinel errors in the compute package.

var (
	// ErrNotFound indicates the requested resource does not exist.
	// HTTP equivalent: 404 Not Found
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates a resource with the same name already exists.
	// HTTP equivalent: 409 Conflict
	ErrConflict = errors.New("resource already exists")

	// ErrInvalidRequest indicates the request body or parameters are invalid.
	// HTTP equivalent: 400 Bad Request
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	// HTTP equivalent: 401 Unauthorized
	ErrUnauthorized = errors.New("unauthorized")

	// ErrResourceInUse indicates a resource cannot be deleted because another
	// resource references it (e.g., a disk attached to an instance).
	// HTTP equivalent: 400 Bad Request
	ErrResourceInUse = errors.New("resource is in use")
)

// ErrorResponse is the error envelope returned by the compute API.
//
//	{"error": {"code": 404, "message": "...", "errors": [{"domain": "global", "reason": "notFound", "message": "..."}]}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the body of an ErrorResponse.
type ErrorDetail struct {
	// Code is the HTTP status code
	Code int `json:"code"`

	// Message is the top-level human-readable message
	Message string `json:"message"`

	// Errors holds the individual failures
	Errors []ErrorItem `json:"errors,omitempty"`
}

// ErrorItem is a single failure inside an ErrorDetail.
type ErrorItem struct {
	Domain  string `json:"domain,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}
