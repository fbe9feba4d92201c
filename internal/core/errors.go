// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Errorf wraps base with a formatted cause.
func Errorf(base *Error, format string, args ...any) *Error {
	return WrapError(base, fmt.Errorf(format, args...))
}

// Predefined errors
var (
	// Data errors
	ErrSymbolNotFound = &Error{Code: "SYMBOL_NOT_FOUND", Message: "symbol not found"}
	ErrNoData         = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrInvalidData    = &Error{Code: "DATA_INVALID", Message: "invalid bar data"}

	// Source errors
	ErrSourceFailed = &Error{Code: "SOURCE_FAILED", Message: "bar source failed"}

	// Strategy errors
	ErrStrategyNotFound = &Error{Code: "STRATEGY_NOT_FOUND", Message: "strategy not found"}
	ErrStrategyFailed   = &Error{Code: "STRATEGY_FAILED", Message: "strategy decision failed"}
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for analysis"}

	// Ledger errors
	ErrSizing           = &Error{Code: "SIZING_FAILED", Message: "order size is not positive and finite"}
	ErrInsufficientCash = &Error{Code: "INSUFFICIENT_CASH", Message: "insufficient cash"}
	ErrPositionNotFound = &Error{Code: "POSITION_NOT_FOUND", Message: "no open position"}
	ErrOrderInvalid     = &Error{Code: "ORDER_INVALID", Message: "invalid order"}

	// Metric errors
	ErrMetricUndefined = &Error{Code: "METRIC_UNDEFINED", Message: "metric undefined"}

	// Job and archive errors
	ErrJobNotFound      = &Error{Code: "JOB_NOT_FOUND", Message: "job not found"}
	ErrArtifactNotFound = &Error{Code: "ARTIFACT_NOT_FOUND", Message: "archived artifact not found"}

	// API errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
