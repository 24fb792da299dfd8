package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Throttling errors
	ErrRateLimited = errors.New("too many requests")
)

// Identity errors
var (
	ErrStudentNotFound      = errors.New("student not found")
	ErrWorkerNotFound       = errors.New("worker not found")
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrRollNumberExists     = errors.New("roll number already registered")
	ErrEmployeeIDExists     = errors.New("employee ID already registered")
	ErrPasswordMismatch     = errors.New("passwords do not match")
	ErrWorkerInactive       = errors.New("worker account is inactive")
	ErrAdminRequired        = errors.New("admin role required")
	ErrCannotDeactivateSelf = errors.New("admins cannot deactivate their own account")
)

// Service request errors
var (
	ErrRequestNotFound     = errors.New("service request not found")
	ErrUnknownRequestType  = errors.New("unknown request type")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrTokenCollision      = errors.New("could not allocate a unique token number")
	ErrDailyLimitReached   = errors.New("daily request limit reached")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrDocumentTooLarge    = errors.New("document exceeds maximum size")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewValidationError creates a new custom error for invalid input with a message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// NewFieldValidationError creates a validation error pointing at a single input field
func NewFieldValidationError(field, message string) error {
	return (&CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}).WithDetails(map[string]interface{}{"field": field})
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithStatusMsg adds a user-friendly status message
func (e *CustomError) WithStatusMsg(msg string) *CustomError {
	e.StatusMsg = msg
	return e
}
