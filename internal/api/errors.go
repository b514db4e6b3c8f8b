package api

import (
	"errors"
	"fmt"
)

// ErrRequestFailed matches every transport or status failure returned by the
// client, regardless of its concrete type.
var ErrRequestFailed = errors.New("request failed")

// ErrInvalidResponse indicates a 2xx response whose body does not have the
// expected shape.
var ErrInvalidResponse = errors.New("invalid response")

// APIError represents a non-2xx response from the backend.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error: endpoint=%s status=%d request_id=%s message=%s", e.Endpoint, e.StatusCode, e.RequestID, e.Message)
	}
	return fmt.Sprintf("api error: endpoint=%s status=%d request_id=%s", e.Endpoint, e.StatusCode, e.RequestID)
}

func (e *APIError) Is(target error) bool { return target == ErrRequestFailed }

// UnreachableError indicates the backend could not be reached (connection
// refused, timeout, cancelled context).
type UnreachableError struct {
	Host      string
	RequestID string
	Err       error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("backend unreachable at %s (request_id=%s): %v", e.Host, e.RequestID, e.Err)
	}
	return fmt.Sprintf("backend unreachable (request_id=%s): %v", e.RequestID, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

func (e *UnreachableError) Is(target error) bool { return target == ErrRequestFailed }

// SchemaError lists the problems found while validating a response body.
type SchemaError struct {
	Endpoint string
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid response from %s: %v", e.Endpoint, e.Problems)
}

func (e *SchemaError) Is(target error) bool { return target == ErrInvalidResponse }
