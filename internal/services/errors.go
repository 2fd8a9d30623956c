package services

import (
	"errors"
	"fmt"
)

// Service error codes, mapped to HTTP statuses by the handlers
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"
)

// ServiceError is a business rule violation that is safe to show to callers
type ServiceError struct {
	Code    string
	Message string
	Field   string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func validationError(field, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflictError(field, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeConflict, Field: field, Message: fmt.Sprintf(format, args...)}
}

func invalidStateError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

// AsServiceError unwraps err into a ServiceError when it is one
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}
