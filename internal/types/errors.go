package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for LeadForge engine errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Database error codes
const (
	DB_OPEN_FAILED      ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
)

// Prospect and scoring error codes
const (
	PROSPECT_NOT_FOUND      ErrorCode = "PROSPECT_NOT_FOUND"
	SNAPSHOT_PERSIST_FAILED ErrorCode = "SNAPSHOT_PERSIST_FAILED"
	PATHWAY_PERSIST_FAILED  ErrorCode = "PATHWAY_PERSIST_FAILED"
)

// Sequence and scheduling error codes
const (
	SEQUENCE_NOT_FOUND         ErrorCode = "SEQUENCE_NOT_FOUND"
	SEQUENCE_INVALID           ErrorCode = "SEQUENCE_INVALID"
	EXECUTION_ALREADY_EXISTS   ErrorCode = "EXECUTION_ALREADY_EXISTS"
	EXECUTION_NOT_CLAIMABLE    ErrorCode = "EXECUTION_NOT_CLAIMABLE"
	TEMPLATE_NOT_FOUND         ErrorCode = "TEMPLATE_NOT_FOUND"
	CONDITION_EVAL_FAILED      ErrorCode = "CONDITION_EVAL_FAILED"
	DELIVERY_FAILED            ErrorCode = "DELIVERY_FAILED"
	CONTACT_MISSING            ErrorCode = "CONTACT_MISSING"
	CHANNEL_DISABLED           ErrorCode = "CHANNEL_DISABLED"
)

// Daemon error codes
const (
	DAEMON_ALREADY_RUNNING ErrorCode = "DAEMON_ALREADY_RUNNING"
	DAEMON_NOT_RUNNING     ErrorCode = "DAEMON_NOT_RUNNING"
	DAEMON_START_FAILED    ErrorCode = "DAEMON_START_FAILED"
)

// ForgeError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type ForgeError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *ForgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *ForgeError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a ForgeError with the same Code.
func (e *ForgeError) Is(target error) bool {
	var forgeErr *ForgeError
	if errors.As(target, &forgeErr) {
		return e.Code == forgeErr.Code
	}
	return false
}

// NewError creates a new non-retryable ForgeError with the given code and message.
func NewError(code ErrorCode, message string) *ForgeError {
	return &ForgeError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable ForgeError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., delivery timeouts).
func NewRetryableError(code ErrorCode, message string) *ForgeError {
	return &ForgeError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable ForgeError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *ForgeError {
	return &ForgeError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// HasCode reports whether err (or any error in its chain) is a ForgeError
// with the given code.
func HasCode(err error, code ErrorCode) bool {
	var forgeErr *ForgeError
	if errors.As(err, &forgeErr) {
		return forgeErr.Code == code
	}
	return false
}

// IsRetryable reports whether err (or any error in its chain) is a ForgeError
// marked retryable.
func IsRetryable(err error) bool {
	var forgeErr *ForgeError
	if errors.As(err, &forgeErr) {
		return forgeErr.Retryable
	}
	return false
}
