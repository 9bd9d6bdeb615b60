package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrExternalService is wrapped by every failure to obtain a usable
	// response from a bibliographic service.
	ErrExternalService = errors.New("external service error")

	// ErrInvalidResponse indicates a response that lacks required fields or
	// cannot be decoded.
	ErrInvalidResponse = errors.New("invalid response")
)

// APIError is a non-200 HTTP status from a bibliographic service.
type APIError struct {
	Service    string
	Identifier string
	StatusCode int
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusNotFound:
		return fmt.Sprintf("Identifier %s does not appear to exist.", e.Identifier)
	case http.StatusTooManyRequests:
		return "Too many requests in too short a time. Please wait a few minutes before trying again."
	default:
		return fmt.Sprintf("Received HTTP status code %d.", e.StatusCode)
	}
}

func (e *APIError) Unwrap() error {
	return ErrExternalService
}

// IsNotFound returns true if the service reported that the identifier does
// not exist.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// ResponseError is a 200 response that cannot be used.
type ResponseError struct {
	Service string
	Reason  string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, e.Reason)
}

// Is matches both ErrInvalidResponse and ErrExternalService.
func (e *ResponseError) Is(target error) bool {
	return target == ErrInvalidResponse || target == ErrExternalService
}

func invalid(service, format string, args ...any) error {
	return &ResponseError{Service: service, Reason: fmt.Sprintf(format, args...)}
}
