package errors

import (
	"fmt"
	"time"
)

// ErrorCode identifies a class of application error
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"

	// Command errors
	ErrCodeInvalidSyntax ErrorCode = "INVALID_COMMAND_SYNTAX"

	// Premium membership errors
	ErrCodePremiumRequired   ErrorCode = "PREMIUM_MEMBERSHIP_REQUIRED"
	ErrCodeTierLimitExceeded ErrorCode = "LIMITED_PREMIUM_MEMBERSHIP"

	// Giveaway errors
	ErrCodeGiveawayNotFound ErrorCode = "GIVEAWAY_NOT_FOUND"
	ErrCodeInvalidWinners   ErrorCode = "INVALID_WINNERS_COUNT"

	// Reaction role errors
	ErrCodeGroupNotFound ErrorCode = "REACTION_ROLE_GROUP_NOT_FOUND"
	ErrCodeRoleNotFound  ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeEmojiInUse    ErrorCode = "EMOJI_ALREADY_BOUND"

	// Infrastructure errors
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeTransient     ErrorCode = "TRANSIENT_ERROR"
)

// AppError is the typed application error surfaced to the invoking user
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
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

// IsNotFound reports whether the error is an absence, which callers treat
// as a normal short-circuit rather than a failure.
func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound ||
		e.Code == ErrCodeGiveawayNotFound ||
		e.Code == ErrCodeGroupNotFound ||
		e.Code == ErrCodeRoleNotFound
}

// IsTransient reports whether the error came from a best-effort platform
// call and may be swallowed at the boundary.
func (e *AppError) IsTransient() bool {
	return e.Code == ErrCodeTransient
}

// WithDetail adds structured detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new application error
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Constructors for the recurring cases

// NewInvalidSyntaxError creates the rejection for a missing required argument
func NewInvalidSyntaxError(command string) *AppError {
	return New(ErrCodeInvalidSyntax, fmt.Sprintf("Invalid syntax for command '%s'", command)).
		WithDetail("command", command)
}

// NewNotFoundError creates a generic absence error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// NewGiveawayNotFoundError creates the absence error for a giveaway record
func NewGiveawayNotFoundError(giveawayID string) *AppError {
	return New(ErrCodeGiveawayNotFound, fmt.Sprintf("Giveaway not found: %s", giveawayID)).
		WithDetail("giveaway_id", giveawayID)
}

// NewPremiumRequiredError creates the rejection for a non-premium guild
// exceeding the baseline allowance. The allowed maximum drives the
// remediation message shown to the user.
func NewPremiumRequiredError(limit string, max int) *AppError {
	return New(ErrCodePremiumRequired, fmt.Sprintf("Premium membership required to exceed %s of %d", limit, max)).
		WithDetail("limit", limit).
		WithDetail("max", max)
}

// NewTierLimitExceededError creates the rejection for a premium guild
// exceeding its own tier allowance. Distinct from the premium-required
// rejection: the remediation is an upgrade, not a purchase.
func NewTierLimitExceededError(limit string, max int) *AppError {
	return New(ErrCodeTierLimitExceeded, fmt.Sprintf("Premium membership %s limit is %d", limit, max)).
		WithDetail("limit", limit).
		WithDetail("max", max)
}

// NewDatabaseError creates a storage failure
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("Database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewTransientError creates a best-effort platform failure
func NewTransientError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeTransient, fmt.Sprintf("Platform operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError converts err to an AppError when possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
