package apperrors

import (
	"fmt"
	"net/http"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches by error code so wrapped copies compare equal to the named values
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Message == e.Message
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of base carrying the underlying cause
func Wrap(base *Error, err error) *Error {
	return &Error{Code: base.Code, Message: base.Message, Err: err}
}

// Common error types
var (
	ErrBadRequest     = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized   = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden      = New(http.StatusForbidden, "Forbidden", nil)
	ErrNotFound       = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer = New(http.StatusInternalServerError, "Internal server error", nil)
)

// Validation error types
var (
	ErrValidation   = New(http.StatusBadRequest, "Validation error", nil)
	ErrInvalidInput = New(http.StatusBadRequest, "Invalid input", nil)
)

// Cart error types
var (
	ErrCartNotFound = New(http.StatusNotFound, "Cart not found", nil)
	ErrItemNotFound = New(http.StatusNotFound, "Cart item not found", nil)
	ErrEmptyCart    = New(http.StatusBadRequest, "Cart is empty", nil)
)

// Lookup pipeline error types
var (
	ErrItemUnavailable = New(http.StatusConflict, "Item is not available", nil)
	ErrLookupFailure   = New(http.StatusBadGateway, "Item lookup failed", nil)
	ErrLookupTimeout   = New(http.StatusGatewayTimeout, "Item lookup timed out", nil)
	ErrLookupCancelled = New(http.StatusServiceUnavailable, "Item lookup cancelled", nil)
	ErrPublishFailed   = New(http.StatusServiceUnavailable, "Failed to publish lookup request", nil)
)

// Payment error types
var (
	ErrDuplicatePayment = New(http.StatusConflict, "A payment already exists for this cart", nil)
	ErrPaymentNotFound  = New(http.StatusNotFound, "Payment not found", nil)
)

// Correlation error types
var (
	ErrDuplicateLookup = New(http.StatusInternalServerError, "Duplicate correlation id", nil)
)
