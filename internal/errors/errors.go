package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a DomainError. Callers branch on the kind, never on the message.
type Kind int

const (
	KindInternal Kind = iota
	KindConflict
	KindNotFound
	KindInvalidCredential
	KindForbidden
	KindUnauthorized
	KindInvalidInput
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidInput:
		return "invalid_input"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports a match on Code, so a wrapped copy of a predefined error
// still satisfies errors.Is against the original.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind Kind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Kind:    domainErr.Kind,
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	// Credential errors
	ErrEmailExists        = NewDomainError(KindConflict, "EMAIL_EXISTS", "Email already exists!")
	ErrUserNotFound       = NewDomainError(KindNotFound, "USER_NOT_FOUND", "User not found!")
	ErrInvalidCredentials = NewDomainError(KindInvalidCredential, "INVALID_CREDENTIALS", "Password is incorrect!")
	ErrSignInFailed       = NewDomainError(KindUnauthorized, "SIGNIN_FAILED", "Invalid email or password")

	// Session errors
	ErrAccessDenied = NewDomainError(KindForbidden, "ACCESS_DENIED", "Access denied!")
	ErrNotOwner     = NewDomainError(KindForbidden, "NOT_OWNER", "You can only modify your own account")

	// Token errors
	ErrUnauthorized = NewDomainError(KindUnauthorized, "UNAUTHORIZED", "Unauthorized")
	ErrInvalidToken = NewDomainError(KindUnauthorized, "INVALID_TOKEN", "invalid token signature")
	ErrTokenExpired = NewDomainError(KindUnauthorized, "TOKEN_EXPIRED", "token has expired")
	ErrTokenRevoked = NewDomainError(KindUnauthorized, "TOKEN_REVOKED", "token has been revoked")

	// Validation errors
	ErrInvalidInput = NewDomainError(KindInvalidInput, "INVALID_INPUT", "invalid input")

	// System errors
	ErrInternal           = NewDomainError(KindInternal, "INTERNAL_ERROR", "internal server error")
	ErrServiceUnavailable = NewDomainError(KindUnavailable, "SERVICE_UNAVAILABLE", "service unavailable")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// KindOf returns the kind of err, KindInternal for anything that is not a DomainError.
func KindOf(err error) Kind {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Kind
	}
	return KindInternal
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindInvalidCredential, KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts a client-facing message. Wrapped causes
// are never included.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Message
	}

	return ErrInternal.Message
}
