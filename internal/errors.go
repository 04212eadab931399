package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidDateRange ErrorCode = "INVALID_DATE_RANGE"
	ErrCodeInvalidUnits     ErrorCode = "INVALID_UNITS"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"

	ErrCodeLeaveTypeNotFound      ErrorCode = "LEAVE_TYPE_NOT_FOUND"
	ErrCodeLeaveTypeNotConfigured ErrorCode = "LEAVE_TYPE_NOT_CONFIGURED"
	ErrCodeLeaveTypeExists        ErrorCode = "LEAVE_TYPE_EXISTS"
	ErrCodeEmployeeNotFound       ErrorCode = "EMPLOYEE_NOT_FOUND"
	ErrCodePolicyNotFound         ErrorCode = "POLICY_NOT_FOUND"
	ErrCodeCalendarNotFound       ErrorCode = "CALENDAR_NOT_FOUND"
	ErrCodeLeaveNotFound          ErrorCode = "LEAVE_NOT_FOUND"
	ErrCodeZeroUnits              ErrorCode = "ZERO_UNITS"
	ErrCodeInsufficientBalance    ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeInvalidTxnType         ErrorCode = "INVALID_TXN_TYPE"

	ErrCodeApprovalNotFound      ErrorCode = "APPROVAL_NOT_FOUND"
	ErrCodeNotYourStep           ErrorCode = "NOT_YOUR_STEP"
	ErrCodeNoPendingStep         ErrorCode = "NO_PENDING_STEP"
	ErrCodeRequestNotPending     ErrorCode = "REQUEST_NOT_PENDING"
	ErrCodeConcurrentUpdate      ErrorCode = "CONCURRENT_UPDATE"
	ErrCodeInvalidSplitDate      ErrorCode = "INVALID_SPLIT_DATE"
	ErrCodeSplitNotSupported     ErrorCode = "SPLIT_NOT_SUPPORTED"
	ErrCodeSplitCoversWholeRange ErrorCode = "SPLIT_COVERS_WHOLE_RANGE"

	ErrCodeUnauthorizedAccess ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so sentinel errors survive WithCause copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithCause returns a copy carrying cause; sentinels stay untouched.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage returns a copy with a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewAuthorizationError is the 403 class: the actor is known but may not act.
func NewAuthorizationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewConsistencyError aborts the surrounding transaction; nothing is persisted.
func NewConsistencyError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrUnauthorizedAccess = NewUnauthorizedError("missing or invalid credentials", ErrCodeUnauthorizedAccess)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)

	ErrConcurrentUpdate = NewConsistencyError("request was modified concurrently, retry the action", ErrCodeConcurrentUpdate)
)

// IsAppError unwraps err until it finds an *AppError.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
