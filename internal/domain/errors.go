package domain

import (
	"errors"
	"fmt"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Error codes.
const (
	CodeNotAuthorized = "NOT_AUTHORIZED"
	CodeInvalidTarget = "INVALID_TARGET"
	CodeNotFound      = "NOT_FOUND"
	CodeValidation    = "VALIDATION_ERROR"
	CodeRateLimited   = "RATE_LIMITED"
	CodeStore         = "STORE_ERROR"
	CodeInternal      = "INTERNAL_ERROR"
)

// Standard domain error constructors.

func ErrNotAuthorized(msg string) *AppError {
	return &AppError{Code: CodeNotAuthorized, Message: msg, Status: 403}
}

func ErrInvalidTarget(ref string) *AppError {
	return &AppError{Code: CodeInvalidTarget, Message: fmt.Sprintf("%q is not a valid user reference", ref), Status: 400}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Status: 400}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: CodeRateLimited, Message: msg, Status: 429}
}

// ErrStore wraps a persistence failure. The message is safe to show to callers;
// the cause is only for logs.
func ErrStore(op string, cause error) *AppError {
	return &AppError{Code: CodeStore, Message: op + " failed", Status: 500, Cause: cause}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: msg, Status: 500, Cause: cause}
}

// AsAppError unwraps err into an *AppError if it is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError carrying code.
func IsCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
