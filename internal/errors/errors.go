package errors

import (
	"fmt"
	"strings"
)

// LexError is the structured error type for lexnav.
// It carries the context needed for error handling, logging, and fallbacks.
type LexError struct {
	// Code is the unique error code (e.g., "ERR_302_RATE_LIMITED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, External, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *LexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *LexError) Unwrap() error {
	return e.Cause
}

// Is matches LexErrors by code so errors.Is works across wrapping.
func (e *LexError) Is(target error) bool {
	if t, ok := target.(*LexError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new LexError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *LexError {
	return &LexError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a LexError from an existing error.
// The error's message becomes the LexError message.
func Wrap(code string, err error) *LexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *LexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// EmbeddingError creates an embedding-capability error.
func EmbeddingError(message string, cause error) *LexError {
	return New(ErrCodeEmbeddingFailed, message, cause)
}

// JudgmentError creates a relevance-judgment capability error.
func JudgmentError(message string, cause error) *LexError {
	return New(ErrCodeJudgmentFailed, message, cause)
}

// IsRetryable checks if an error is retryable.
// Rate-limit signals from the Gemini API are retryable even when the
// error did not originate as a LexError.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if le, ok := err.(*LexError); ok {
		return le.Retryable
	}
	return IsRateLimit(err)
}

// IsRateLimit reports whether an error looks like an API rate-limit signal.
// The Gemini API surfaces these as HTTP 429 or RESOURCE_EXHAUSTED.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if le, ok := err.(*LexError); ok {
		return le.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a LexError.
// Returns empty string if not a LexError.
func GetCode(err error) string {
	if le, ok := err.(*LexError); ok {
		return le.Code
	}
	return ""
}
