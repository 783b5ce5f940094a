package http

import (
	"errors"
	"fmt"
	"net/http"

	"TopMover/internal/domain/errs"
)

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Status:  status,
		Params:  make(map[string]interface{}),
	}
}

// WithParam sets a single error param.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// NotFoundError creates a 404 error.
func NotFoundError(message string) *AppError {
	return NewAppError("ERR_NOT_FOUND", "", message, http.StatusNotFound)
}

// BadRequestError creates a 400 error.
func BadRequestError(message string) *AppError {
	return NewAppError("ERR_BAD_REQUEST", "", message, http.StatusBadRequest)
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", "", message, http.StatusInternalServerError)
}

// FromDomain maps the ingestion error taxonomy onto HTTP statuses.
func FromDomain(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ir *errs.InvalidRangeError
	var im *errs.InvalidModeError
	switch {
	case errors.As(err, &ir):
		return NewAppError("ERR_INVALID_RANGE", "", ir.Error(), http.StatusBadRequest).
			WithParam("start", ir.Start).WithParam("end", ir.End)
	case errors.As(err, &im):
		return NewAppError("ERR_INVALID_MODE", "", im.Error(), http.StatusBadRequest)
	case errs.IsNoData(err), errs.IsNotFound(err):
		return NotFoundError(err.Error())
	case errs.IsProvider(err):
		return NewAppError("ERR_PROVIDER", "", err.Error(), http.StatusBadGateway)
	case errs.IsStoreUnavailable(err):
		return NewAppError("ERR_STORE_UNAVAILABLE", "", "store unavailable", http.StatusServiceUnavailable).WithError(err)
	default:
		return InternalError("internal error").WithError(err)
	}
}
