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

// Rejectf wraps base with a formatted reason.
func Rejectf(base *Error, format string, args ...any) *Error {
	return WrapError(base, fmt.Errorf(format, args...))
}

// Predefined errors
var (
	// Data errors
	ErrNoData           = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrInvalidSeries    = &Error{Code: "INVALID_SERIES", Message: "bar series is not strictly ordered"}
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for analysis"}

	// Collector errors
	ErrCollectorFailed = &Error{Code: "COLLECTOR_FAILED", Message: "collector failed"}

	// Order and ledger rejections
	ErrInvalidOrder        = &Error{Code: "INVALID_ORDER", Message: "invalid order"}
	ErrInsufficientFunds   = &Error{Code: "INSUFFICIENT_FUNDS", Message: "insufficient funds"}
	ErrNoPosition          = &Error{Code: "NO_POSITION", Message: "no open position"}
	ErrPositionAlreadyOpen = &Error{Code: "POSITION_ALREADY_OPEN", Message: "position already open"}
	ErrInvalidSizing       = &Error{Code: "INVALID_SIZING", Message: "position sizing rejected"}

	// Persistence errors
	ErrSnapshotCorrupt = &Error{Code: "SNAPSHOT_CORRUPT", Message: "ledger snapshot corrupt"}
	ErrSnapshotVersion = &Error{Code: "SNAPSHOT_VERSION", Message: "unsupported ledger snapshot version"}
	ErrPersistFailed   = &Error{Code: "PERSIST_FAILED", Message: "ledger persistence failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
