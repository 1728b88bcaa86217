package apperrors

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Services wrap these with
// fmt.Errorf("%w: ...") and the HTTP layer maps them with errors.Is.
var (
	// ValidationError: malformed or missing input
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidMediaType = errors.New("unsupported media type")
	ErrFileTooLarge     = errors.New("file too large")

	// AuthError: no session, bad session or insufficient role
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrPermissionDenied   = errors.New("permission denied")

	// ProviderError: the record store or identity provider refused the operation
	ErrProvider              = errors.New("provider rejected the operation")
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")
	ErrEmailAlreadyExists    = errors.New("email already exists")

	// StorageError: upload, download or signing failure
	ErrStorage = errors.New("storage operation failed")

	// Lifecycle
	ErrIllegalTransition = errors.New("illegal lifecycle transition")
)

// Entity errors
var (
	ErrUserNotFound         = fmt.Errorf("user %w", ErrResourceNotFound)
	ErrDepartmentNotFound   = fmt.Errorf("department %w", ErrResourceNotFound)
	ErrInternshipNotFound   = fmt.Errorf("internship %w", ErrResourceNotFound)
	ErrApplicationNotFound  = fmt.Errorf("application %w", ErrResourceNotFound)
	ErrCertificateNotFound  = fmt.Errorf("certificate %w", ErrResourceNotFound)
	ErrDepartmentExists     = fmt.Errorf("department %w", ErrResourceAlreadyExists)
	ErrApplicationExists    = fmt.Errorf("application %w", ErrResourceAlreadyExists)
	ErrDepartmentHasMembers = fmt.Errorf("%w: department still has profiles or internships", ErrConflict)
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

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError creates a validation error carrying the offending field
func NewValidationError(field, message string) *CustomError {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

// NewProviderError wraps an identity provider or record store failure
func NewProviderError(cause error, message string) *CustomError {
	return &CustomError{
		Err:     errors.Join(ErrProvider, cause),
		Message: message,
	}
}

// NewStorageError wraps an object store failure
func NewStorageError(cause error, message string) *CustomError {
	return &CustomError{
		Err:     errors.Join(ErrStorage, cause),
		Message: message,
	}
}

// Is returns whether err matches target or any of the errors in errList
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

// PartialBatchError reports a bulk operation in which some rows failed.
// It is surfaced to clients as counts, never as a hard failure.
type PartialBatchError struct {
	Total  int
	Failed int
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("%d of %d rows failed", e.Failed, e.Total)
}

// Succeeded returns the number of rows that went through
func (e *PartialBatchError) Succeeded() int {
	return e.Total - e.Failed
}
