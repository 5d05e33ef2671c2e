package domain

import "fmt"

// ErrorCategory classifies errors for logging and response.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation"
	ErrCatConfig     ErrorCategory = "configuration"
	ErrCatUpstream   ErrorCategory = "upstream_error"
	ErrCatMalformed  ErrorCategory = "malformed_response"
	ErrCatNotFound   ErrorCategory = "not_found"
	ErrCatRateLimit  ErrorCategory = "rate_limit"
	ErrCatUnknown    ErrorCategory = "unknown"
)

// AppError wraps an error with a category and HTTP status code.
type AppError struct {
	Category   ErrorCategory
	Message    string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError reports a missing or invalid request parameter.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Category:   ErrCatValidation,
		Message:    msg,
		StatusCode: 400,
	}
}

// NewConfigError reports absent credentials or settings, detected before any
// network call is attempted.
func NewConfigError(msg string) *AppError {
	return &AppError{
		Category:   ErrCatConfig,
		Message:    msg,
		StatusCode: 500,
	}
}

// NewUpstreamError reports a fatal failure of the detail-fetch phase. The
// verification phase never produces this: it degrades to the rule-based
// decision instead.
func NewUpstreamError(msg string, err error) *AppError {
	return &AppError{
		Category:   ErrCatUpstream,
		Message:    msg,
		StatusCode: 500,
		Err:        err,
	}
}

// NewMalformedError reports an upstream payload that failed shape validation
// after normalization.
func NewMalformedError(msg string) *AppError {
	return &AppError{
		Category:   ErrCatMalformed,
		Message:    msg,
		StatusCode: 500,
	}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{
		Category:   ErrCatNotFound,
		Message:    msg,
		StatusCode: 404,
	}
}

func NewInternalError(msg string, err error) *AppError {
	return &AppError{
		Category:   ErrCatUnknown,
		Message:    msg,
		StatusCode: 500,
		Err:        err,
	}
}
