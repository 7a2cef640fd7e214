// Package errors provides structured error handling for lexnav.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Corpus and index IO errors
//   - 3XX: External capability errors (embedding, completion)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates corpus, index, and graph file errors.
	CategoryIO Category = "IO"
	// CategoryExternal indicates errors from external capabilities.
	CategoryExternal Category = "EXTERNAL"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid  = "ERR_101_CONFIG_INVALID"
	ErrCodeMissingAPIKey  = "ERR_102_MISSING_API_KEY"
	ErrCodeConfigNotFound = "ERR_103_CONFIG_NOT_FOUND"

	// IO errors (200-299)
	ErrCodeFeedNotFound  = "ERR_201_FEED_NOT_FOUND"
	ErrCodeFeedMalformed = "ERR_202_FEED_MALFORMED"
	ErrCodeCorruptIndex  = "ERR_203_CORRUPT_INDEX"
	ErrCodeGraphMissing  = "ERR_204_GRAPH_MISSING"

	// External capability errors (300-399)
	ErrCodeEmbeddingFailed = "ERR_301_EMBEDDING_FAILED"
	ErrCodeRateLimited     = "ERR_302_RATE_LIMITED"
	ErrCodeJudgmentFailed  = "ERR_303_JUDGMENT_FAILED"
	ErrCodeCompletionEmpty = "ERR_304_COMPLETION_EMPTY"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeQueryEmpty        = "ERR_403_QUERY_EMPTY"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_502_SEARCH_FAILED"
	ErrCodeIndexFailed  = "ERR_503_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryExternal
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeMissingAPIKey, ErrCodeConfigInvalid, ErrCodeCorruptIndex:
		return SeverityFatal
	}
	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeRateLimited, ErrCodeEmbeddingFailed, ErrCodeJudgmentFailed:
		return true
	}
	return false
}
