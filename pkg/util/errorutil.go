package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the backend clients and the UI adapter.
const (
	CodeTransport  = "TRANSPORT_FAILED"
	CodeRequest    = "REQUEST_FAILED"
	CodeLogical    = "LOGICAL_FAILURE"
	CodeValidation = "VALIDATION_FAILED"
	CodeUnauth     = "UNAUTHORIZED"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeInternal   = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewTransportError wraps a network-level failure or a malformed response.
func NewTransportError(err error) error {
	return &DomainError{
		Code:       CodeTransport,
		Message:    "error connecting",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewStatusError reports a non-success HTTP status with the server-supplied text.
func NewStatusError(status int, message string) error {
	return NewDomainError(CodeRequest, message, http.StatusBadGateway, map[string]any{"status": status})
}

// NewLogicalError reports a failure flagged inside a success-shaped payload.
func NewLogicalError(message string) error {
	return NewDomainError(CodeLogical, message, http.StatusUnprocessableEntity, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauth, message, http.StatusUnauthorized, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	return HasCode(err, CodeTransport)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
