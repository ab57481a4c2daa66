package errors

import "fmt"

// ErrorCode represents a store error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrConfigMissing  ErrorCode = "CONFIG_MISSING"  // 412
	ErrGatewayIO      ErrorCode = "GATEWAY_IO"      // 500
	ErrProvider       ErrorCode = "PROVIDER"        // 502
	ErrNoCandidates   ErrorCode = "NO_CANDIDATES"   // 502
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// Error represents a structured error with code, status, and details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing thread or thought.
func NewNotFound(identifier string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewConfigMissing creates an error for generation attempted without a
// configured API key and model. User-actionable, surfaced before any I/O.
func NewConfigMissing() *Error {
	return &Error{
		Code:    ErrConfigMissing,
		Status:  412,
		Message: "generation requires an API key and model; update settings first",
	}
}

// NewGatewayIO wraps a persistence failure. The in-memory mutation has
// already applied; the durable store may be behind by one write.
func NewGatewayIO(err error) *Error {
	msg := "storage error"
	if err != nil {
		msg = fmt.Sprintf("storage error: %v", err)
	}
	return &Error{
		Code:    ErrGatewayIO,
		Status:  500,
		Message: msg,
	}
}

// NewProvider wraps an AI provider failure.
func NewProvider(err error) *Error {
	msg := "provider error"
	if err != nil {
		msg = fmt.Sprintf("provider error: %v", err)
	}
	return &Error{
		Code:    ErrProvider,
		Status:  502,
		Message: msg,
	}
}

// NewNoCandidates creates an error for a provider reply that parsed into
// zero usable candidates.
func NewNoCandidates() *Error {
	return &Error{
		Code:    ErrNoCandidates,
		Status:  502,
		Message: "no valid candidates parsed from provider response",
	}
}

// NewCancelled creates an error for a caller-aborted operation. Cancellation
// is distinguished from failure and suppressed from the user-facing surface.
func NewCancelled(operation string) *Error {
	return &Error{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
		Details: map[string]any{"operation": operation},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an Error with the given code.
func Is(err error, code ErrorCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
