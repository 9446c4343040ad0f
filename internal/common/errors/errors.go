package errors

import (
	"fmt"
	"time"
)

// ErrorCode is the stable machine-readable code returned in error responses.
type ErrorCode string

const (
	ErrCodeAuthentication   ErrorCode = "authentication_error"
	ErrCodeAuthorization    ErrorCode = "authorization_error"
	ErrCodeRedundant        ErrorCode = "action_redundant"
	ErrCodeResourceNotFound ErrorCode = "resource_not_found"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeInvalid          ErrorCode = "invalid"
	ErrCodeMissingField     ErrorCode = "missing_field"
	ErrCodeThirdParty       ErrorCode = "third_party_error"
	ErrCodeUnknown          ErrorCode = "unknown_error"
)

// Messages returned alongside the codes above. The (message, code) pair is part
// of the API contract, so changes here are client-visible.
const (
	MsgForbiddenAccess         = "Forbidden Access"
	MsgMissingAccessToken      = "Access token is missing in Header"
	MsgInvalidAccessToken      = "Access token is not valid"
	MsgResourceNotFound        = "The resource for key is not found"
	MsgUserRequestSelf         = "User cannot perform this action on themselves"
	MsgUserFollowing           = "User is already following them"
	MsgUserNotFollowing        = "User is not following them"
	MsgUserConnected           = "Users are already connected"
	MsgUserConnectionRequest   = "A connection request is already pending between the users"
	MsgUserNoConnectionRequest = "No connection request exists between the users"
	MsgUserCannotConfirm       = "A connection request cannot be confirmed by its initiator"
	MsgUserSkillEndorsed       = "User has already endorsed this skill"
	MsgUserSkillUnendorsed     = "User has not endorsed this skill"
	MsgSignedURLQueryParam     = "imageType must be display_picture or background_image"
)

// AppError is the typed error carried through handlers to the error middleware.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"-"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail attaches structured detail to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an underlying error with an application code and message.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// NewRedundantError reports an operation that would have no effect.
func NewRedundantError(message string) *AppError {
	return New(ErrCodeRedundant, message)
}

// NewAuthorizationError reports an actor not permitted to perform an action.
func NewAuthorizationError(message string) *AppError {
	return New(ErrCodeAuthorization, message)
}

// NewResourceNotFoundError reports a missing edge or user.
func NewResourceNotFoundError(message string) *AppError {
	return New(ErrCodeResourceNotFound, message)
}

// NewInvalidError reports a malformed argument.
func NewInvalidError(message string) *AppError {
	return New(ErrCodeInvalid, message)
}

// NewThirdPartyError reports a failing external dependency.
func NewThirdPartyError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeThirdParty, fmt.Sprintf("External dependency failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewUnknownError reports an unclassified store failure.
func NewUnknownError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeUnknown, fmt.Sprintf("Operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError converts err to *AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
