package error

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind groups error codes by how a caller should react to them.
type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindTooManyRequests Kind = "TOO_MANY_REQUESTS"
	KindInternal        Kind = "INTERNAL"
)

// ErrorCode represents a unique error code
type ErrorCode string

const (
	// Authentication Errors (1xxx)
	ErrCodeUnauthenticated ErrorCode = "AUTH_1001"
	ErrCodeInvalidToken    ErrorCode = "AUTH_1002"
	ErrCodeInvalidOTP      ErrorCode = "AUTH_1003"
	ErrCodeInvalidRefresh  ErrorCode = "AUTH_1004"

	// Validation Errors (2xxx)
	ErrCodeInvalidRequest ErrorCode = "VALID_2001"
	ErrCodeInvalidEmail   ErrorCode = "VALID_2002"
	ErrCodeMissingField   ErrorCode = "VALID_2003"
	ErrCodeInvalidStatus  ErrorCode = "VALID_2004"
	ErrCodeInvalidOTPCode ErrorCode = "VALID_2005"
	ErrCodeRecaptcha      ErrorCode = "VALID_2006"

	// Rate Limiting Errors (3xxx)
	ErrCodeRateLimitExceeded ErrorCode = "RATE_3001"
	ErrCodeOTPCooldown       ErrorCode = "RATE_3002"

	// Lookup Errors (4xxx)
	ErrCodeUserNotFound      ErrorCode = "NOTFOUND_4001"
	ErrCodeAffiliateNotFound ErrorCode = "NOTFOUND_4002"

	// Conflict Errors (5xxx)
	ErrCodeEmailTaken ErrorCode = "CONFLICT_5001"

	// Server Errors (6xxx)
	ErrCodeInternalServerError ErrorCode = "SERVER_6001"
	ErrCodeDatabaseError       ErrorCode = "SERVER_6002"

	// Security Errors (7xxx)
	ErrCodeForbidden      ErrorCode = "SEC_7001"
	ErrCodeAdminRequired  ErrorCode = "SEC_7002"
	ErrCodeAccountBlocked ErrorCode = "SEC_7003"
)

// AppError represents a structured application error
type AppError struct {
	Kind    Kind      `json:"-"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(kind Kind, code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Validation errors

func NewValidationError(message string, cause error) *AppError {
	return NewAppError(KindValidation, ErrCodeInvalidRequest, message, "", cause)
}

func ErrInvalidEmail(email string) *AppError {
	return NewAppError(KindValidation, ErrCodeInvalidEmail, "Invalid email format", fmt.Sprintf("Email: %s", email), nil)
}

func ErrMissingField(message string) *AppError {
	return NewAppError(KindValidation, ErrCodeMissingField, message, "", nil)
}

func ErrInvalidStatus(valid []string) *AppError {
	return NewAppError(KindValidation, ErrCodeInvalidStatus,
		fmt.Sprintf("Invalid status. Must be one of: %s", strings.Join(valid, ", ")), "", nil)
}

func ErrInvalidOTPCode(length int) *AppError {
	return NewAppError(KindValidation, ErrCodeInvalidOTPCode,
		fmt.Sprintf("Verification code must be %d digits", length), "", nil)
}

func ErrRecaptchaFailed(cause error) *AppError {
	return NewAppError(KindValidation, ErrCodeRecaptcha, "reCAPTCHA verification failed", "", cause)
}

// Authentication errors

func ErrUnauthenticated(message string) *AppError {
	return NewAppError(KindUnauthenticated, ErrCodeUnauthenticated, message, "", nil)
}

func ErrInvalidToken(cause error) *AppError {
	return NewAppError(KindUnauthenticated, ErrCodeInvalidToken, "Invalid or expired token", "", cause)
}

func ErrInvalidOTP() *AppError {
	return NewAppError(KindUnauthenticated, ErrCodeInvalidOTP, "Invalid or expired verification code", "", nil)
}

func ErrInvalidRefreshToken() *AppError {
	return NewAppError(KindUnauthenticated, ErrCodeInvalidRefresh, "Invalid or expired refresh token", "", nil)
}

// Authorization errors

func ErrForbidden(message string) *AppError {
	return NewAppError(KindForbidden, ErrCodeForbidden, message, "", nil)
}

func ErrAdminRequired() *AppError {
	return NewAppError(KindForbidden, ErrCodeAdminRequired, "Admin access required", "", nil)
}

func ErrAccountBlocked(status string) *AppError {
	return NewAppError(KindForbidden, ErrCodeAccountBlocked, "Account is not allowed to sign in", fmt.Sprintf("Status: %s", status), nil)
}

// Lookup errors

func ErrUserNotFound(userID string) *AppError {
	return NewAppError(KindNotFound, ErrCodeUserNotFound, "User not found", fmt.Sprintf("User ID: %s", userID), nil)
}

func ErrAffiliateNotFound(affiliateID string) *AppError {
	return NewAppError(KindNotFound, ErrCodeAffiliateNotFound, "Affiliate not found", fmt.Sprintf("Affiliate ID: %s", affiliateID), nil)
}

// Conflict errors

func ErrEmailTaken(email string) *AppError {
	return NewAppError(KindConflict, ErrCodeEmailTaken, "User with this email already exists", fmt.Sprintf("Email: %s", email), nil)
}

// Rate limiting errors

func ErrRateLimitExceeded(message string) *AppError {
	return NewAppError(KindTooManyRequests, ErrCodeRateLimitExceeded, message, "", nil)
}

func ErrOTPCooldown(wait string) *AppError {
	return NewAppError(KindTooManyRequests, ErrCodeOTPCooldown, "Please wait before requesting another code", fmt.Sprintf("Retry after: %s", wait), nil)
}

// Server errors

func ErrDatabaseError(operation string, cause error) *AppError {
	return NewAppError(KindInternal, ErrCodeDatabaseError, "Database operation failed", fmt.Sprintf("Operation: %s", operation), cause)
}

func ErrInternalServerError(message string, cause error) *AppError {
	return NewAppError(KindInternal, ErrCodeInternalServerError, message, "", cause)
}

// As extracts the outermost AppError from err.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf classifies any error. Errors that are not AppErrors are internal.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok && appErr.Kind != "" {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// GetHTTPStatusCode maps an error to the HTTP status it should produce.
func GetHTTPStatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
