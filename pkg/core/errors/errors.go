package errors

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// MaxChainDepth limits how deep wrapped error chains may grow. Batch loops
// that wrap per-item errors repeatedly get flattened instead of leaking.
const MaxChainDepth = 12

// maxStackFrames limits the number of frames captured per error.
const maxStackFrames = 16

// Error is the structured error type used across the toolchain. It carries
// a classification code, a severity, the pipeline stage it surfaced in, and
// free-form details for the ledger and --debug output.
type Error struct {
	message   string
	cause     error
	code      Code
	severity  Severity
	stage     string
	operation string
	timestamp time.Time
	details   map[string]interface{}
	stack     []Frame
}

// Frame is one captured stack frame.
type Frame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// New creates a new Error with the given message.
func New(message string) *Error {
	return &Error{
		message:   message,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		timestamp: time.Now(),
		details:   make(map[string]interface{}),
		stack:     captureStack(2),
	}
}

// Newf creates a new Error with a formatted message.
func Newf(format string, args ...interface{}) *Error {
	e := New(fmt.Sprintf(format, args...))
	e.stack = captureStack(2)
	return e
}

// Wrap wraps an existing error with additional context. Codes, severities
// and stages of a wrapped *Error are preserved. Wrapping nil returns nil.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	if depth := chainDepth(err); depth >= MaxChainDepth {
		root := RootCause(err)
		return &Error{
			message:   fmt.Sprintf("%s (chain truncated at depth %d): %s", message, MaxChainDepth, root.Error()),
			code:      GetCode(err),
			severity:  SeverityHigh,
			timestamp: time.Now(),
			details:   map[string]interface{}{"truncated": true},
			stack:     captureStack(2),
		}
	}

	if ke, ok := err.(*Error); ok {
		wrapped := &Error{
			message:   message,
			cause:     ke,
			code:      ke.code,
			severity:  ke.severity,
			stage:     ke.stage,
			operation: ke.operation,
			timestamp: time.Now(),
			details:   make(map[string]interface{}),
			stack:     captureStack(2),
		}
		for k, v := range ke.details {
			wrapped.details[k] = v
		}
		return wrapped
	}

	return &Error{
		message:   message,
		cause:     err,
		code:      CodeUnknown,
		severity:  SeverityMedium,
		timestamp: time.Now(),
		details:   make(map[string]interface{}),
		stack:     captureStack(2),
	}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	e := Wrap(err, fmt.Sprintf(format, args...))
	e.stack = captureStack(2)
	return e
}

// Error implements the standard error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.message, e.cause.Error())
	}
	return e.message
}

// Unwrap returns the underlying cause for errors.Is / errors.As traversal.
func (e *Error) Unwrap() error {
	return e.cause
}

// WithCode sets the error code. The severity follows the code's default
// unless it was set explicitly before.
func (e *Error) WithCode(code Code) *Error {
	e.code = code
	if e.severity == SeverityMedium {
		e.severity = SeverityFromCode(code)
	}
	return e
}

// WithSeverity sets the error severity
func (e *Error) WithSeverity(severity Severity) *Error {
	e.severity = severity
	return e
}

// WithStage records the pipeline stage the error surfaced in.
func (e *Error) WithStage(stage string) *Error {
	e.stage = stage
	return e
}

// WithOperation sets the operation that caused the error
func (e *Error) WithOperation(operation string) *Error {
	e.operation = operation
	return e
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.details[key] = value
	return e
}

// WithDetails adds multiple key-value details to the error
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	for k, v := range details {
		e.details[k] = v
	}
	return e
}

// Code returns the error code
func (e *Error) Code() Code {
	return e.code
}

// Severity returns the error severity
func (e *Error) Severity() Severity {
	return e.severity
}

// Stage returns the pipeline stage the error surfaced in, if any.
func (e *Error) Stage() string {
	return e.stage
}

// Operation returns the operation that caused the error
func (e *Error) Operation() string {
	return e.operation
}

// Timestamp returns when the error occurred
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// Details returns a copy of the error details
func (e *Error) Details() map[string]interface{} {
	result := make(map[string]interface{}, len(e.details))
	for k, v := range e.details {
		result[k] = v
	}
	return result
}

// Stack returns the captured stack trace.
func (e *Error) Stack() []Frame {
	result := make([]Frame, len(e.stack))
	copy(result, e.stack)
	return result
}

// String returns a detailed multi-line representation for --debug output.
func (e *Error) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Error: %s", e.message))
	parts = append(parts, fmt.Sprintf("Code: %s", e.code))
	parts = append(parts, fmt.Sprintf("Severity: %s", e.severity))
	if e.stage != "" {
		parts = append(parts, fmt.Sprintf("Stage: %s", e.stage))
	}
	if e.operation != "" {
		parts = append(parts, fmt.Sprintf("Operation: %s", e.operation))
	}
	if len(e.details) > 0 {
		detailStrs := make([]string, 0, len(e.details))
		for k, v := range e.details {
			detailStrs = append(detailStrs, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("Details: {%s}", strings.Join(detailStrs, ", ")))
	}
	if e.cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %s", e.cause.Error()))
	}
	return strings.Join(parts, "\n")
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *Error) MarshalJSON() ([]byte, error) {
	data := map[string]interface{}{
		"message":   e.message,
		"code":      e.code,
		"severity":  e.severity.String(),
		"timestamp": e.timestamp.Format(time.RFC3339),
	}
	if e.stage != "" {
		data["stage"] = e.stage
	}
	if e.operation != "" {
		data["operation"] = e.operation
	}
	if len(e.details) > 0 {
		data["details"] = e.details
	}
	if e.cause != nil {
		data["cause"] = e.cause.Error()
	}
	return json.Marshal(data)
}

// RootCause returns the deepest error in a chain.
func RootCause(err error) error {
	current := err
	last := err
	for current != nil {
		last = current
		if ke, ok := current.(*Error); ok {
			current = ke.cause
		} else {
			break
		}
	}
	return last
}

// HasCode checks if an error (anywhere in its chain) carries a code.
func HasCode(err error, code Code) bool {
	for err != nil {
		if ke, ok := err.(*Error); ok {
			if ke.code == code {
				return true
			}
			err = ke.cause
			continue
		}
		return false
	}
	return false
}

// GetCode returns the error code from an error, or CodeUnknown if it is
// not a structured error.
func GetCode(err error) Code {
	if ke, ok := err.(*Error); ok {
		return ke.code
	}
	return CodeUnknown
}

// GetSeverity returns the severity from an error, or SeverityMedium.
func GetSeverity(err error) Severity {
	if ke, ok := err.(*Error); ok {
		return ke.severity
	}
	return SeverityMedium
}

// GetStage returns the pipeline stage recorded on an error, or "".
func GetStage(err error) string {
	if ke, ok := err.(*Error); ok {
		return ke.stage
	}
	return ""
}

func chainDepth(err error) int {
	depth := 0
	current := err
	for current != nil && depth < MaxChainDepth*2 {
		depth++
		if ke, ok := current.(*Error); ok {
			current = ke.cause
		} else {
			break
		}
	}
	return depth
}

func captureStack(skip int) []Frame {
	frames := make([]Frame, 0, maxStackFrames)
	for i := skip; i < maxStackFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		frames = append(frames, Frame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}
	return frames
}
