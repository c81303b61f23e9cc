package utils

import "fmt"

// AppError is the application-level error carried back through actor
// responses and mapped onto HTTP statuses at the edge.
type AppError struct {
	Code    string
	Message string
	Origin  error // original error that caused this one, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"

	// Authentication/Authorization errors
	ErrUnauthorized = "UNAUTHORIZED"
	ErrForbidden    = "FORBIDDEN"
	ErrInvalidToken = "INVALID_TOKEN"

	// User-specific errors
	ErrUserNotFound       = "USER_NOT_FOUND"
	ErrUserAlreadyExists  = "USER_ALREADY_EXISTS"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"

	// Content errors
	ErrPostNotFound    = "POST_NOT_FOUND"
	ErrCommentNotFound = "COMMENT_NOT_FOUND"
	ErrEditLocked      = "EDIT_LOCKED" // edit window expired or post too popular
	ErrPollClosed      = "POLL_CLOSED"

	// Moderation errors
	ErrReportNotFound  = "REPORT_NOT_FOUND"
	ErrAppealNotFound  = "APPEAL_NOT_FOUND"
	ErrTicketNotFound  = "TICKET_NOT_FOUND"
	ErrListingNotFound = "LISTING_NOT_FOUND"

	// Actor communication errors
	ErrActorTimeout    = "ACTOR_TIMEOUT"
	ErrActorNotFound   = "ACTOR_NOT_FOUND"
	ErrMessageRejected = "MESSAGE_REJECTED"

	// Rate limiting
	ErrTooManyRequests = "TOO_MANY_REQUESTS"

	ErrDatabase = "DATABASE_ERROR"
)

// NewAppError builds an AppError with the given code and optional origin.
func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

func NewUserNotFoundError(userID string) *AppError {
	return &AppError{
		Code:    ErrUserNotFound,
		Message: "User not found: " + userID,
	}
}

func NewUnauthorizedError(reason string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "Unauthorized: " + reason,
	}
}

func NewEditLockedError(ageHours float64) *AppError {
	return &AppError{
		Code:    ErrEditLocked,
		Message: fmt.Sprintf("Post can no longer be edited (age %.1fh)", ageHours),
	}
}

func NewActorTimeoutError(actorName string) *AppError {
	return &AppError{
		Code:    ErrActorTimeout,
		Message: "Actor communication timeout: " + actorName,
	}
}

// IsErrorCode checks whether err is an AppError with the given code.
func IsErrorCode(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrUserNotFound, ErrPostNotFound, ErrCommentNotFound,
		ErrReportNotFound, ErrAppealNotFound, ErrTicketNotFound, ErrListingNotFound,
		ErrActorNotFound:
		return 404
	case ErrInvalidInput, ErrInvalidCredentials, ErrPollClosed:
		return 400
	case ErrUnauthorized, ErrInvalidToken:
		return 401
	case ErrForbidden, ErrEditLocked:
		return 403
	case ErrDuplicate, ErrUserAlreadyExists:
		return 409
	case ErrTooManyRequests:
		return 429
	default:
		return 500
	}
}
