package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a Pocket error code.
type ErrorCode string

const (
	ErrNoToken          ErrorCode = "NO_TOKEN"          // 401
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400
	ErrInvalidResponse  ErrorCode = "INVALID_RESPONSE"  // 502
	ErrAPI              ErrorCode = "API_ERROR"         // 502
	ErrExtractionFailed ErrorCode = "EXTRACTION_FAILED" // 500
	ErrLoginTimeout     ErrorCode = "LOGIN_TIMEOUT"     // 504
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// PocketError represents a structured error with code, status, and details.
type PocketError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *PocketError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PocketError) Unwrap() error {
	return e.Err
}

// NewNoToken creates a 401 error for a missing or expired credential.
func NewNoToken(hint string) *PocketError {
	msg := "no token"
	if hint != "" {
		msg = fmt.Sprintf("no token. %s", hint)
	}
	return &PocketError{
		Code:    ErrNoToken,
		Status:  401,
		Message: msg,
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PocketError {
	return &PocketError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidResponse creates a 502 error for a response missing required fields.
func NewInvalidResponse(msg string) *PocketError {
	return &PocketError{
		Code:    ErrInvalidResponse,
		Status:  502,
		Message: msg,
	}
}

// NewAPI wraps a transport or HTTP failure. No code is preserved from the
// upstream response; the status, when known, is attached as a detail.
func NewAPI(err error, status int) *PocketError {
	msg := "API error"
	if err != nil {
		msg = fmt.Sprintf("API error: %v", err)
	}
	e := &PocketError{
		Code:    ErrAPI,
		Status:  502,
		Message: msg,
		Err:     err,
	}
	if status != 0 {
		e.Details = map[string]any{"http_status": status}
	}
	return e
}

// NewExtractionFailed creates an error for a failed token extraction.
func NewExtractionFailed(reason string) *PocketError {
	return &PocketError{
		Code:    ErrExtractionFailed,
		Status:  500,
		Message: fmt.Sprintf("token extraction failed: %s", reason),
		Details: map[string]any{"reason": reason},
	}
}

// NewLoginTimeout creates an error for when interactive login never completed.
func NewLoginTimeout(attempts int) *PocketError {
	return &PocketError{
		Code:    ErrLoginTimeout,
		Status:  504,
		Message: "timeout waiting for login",
		Details: map[string]any{"attempts": attempts},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *PocketError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &PocketError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Err:     err,
	}
}

// Is checks if an error (or anything it wraps) is a PocketError with the given code.
func Is(err error, code ErrorCode) bool {
	var pErr *PocketError
	if stderrors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}

// As returns the PocketError in err's chain, if any.
func As(err error) (*PocketError, bool) {
	var pErr *PocketError
	if stderrors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}

// Message returns the PocketError message in err's chain, preceded by any
// context added by wrapping (e.g. "data[3]: recording is missing id").
// For other errors it returns err.Error().
func Message(err error) string {
	pErr, ok := As(err)
	if !ok {
		return err.Error()
	}
	full := err.Error()
	if prefix, found := strings.CutSuffix(full, pErr.Error()); found {
		return prefix + pErr.Message
	}
	return pErr.Message
}
