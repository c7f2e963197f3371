package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Error represents a coded error with an optional stack trace.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	Stack   string `json:"stack,omitempty"`
}

// Code bands. Each failure family gets its own range so transports can map
// them without string matching.
const (
	CodeValidation = 1000
	CodeConflict   = 2000
	CodeNotFound   = 3000
	CodeDependency = 4000
	CodeInternal   = 5000
)

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements the errors.Wrapper interface
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCode creates a new error with code
func WithCode(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Stack:   captureStack(),
	}
}

// WithCodef creates a new error with code and formatted message
func WithCodef(code int, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(),
	}
}

// Validation creates a caller-input error
func Validation(message string) *Error {
	return WithCode(CodeValidation, message)
}

// Validationf creates a formatted caller-input error
func Validationf(format string, args ...interface{}) *Error {
	return WithCodef(CodeValidation, format, args...)
}

// Conflict creates a state-conflict error
func Conflict(message string) *Error {
	return WithCode(CodeConflict, message)
}

// NotFound creates a not-found error; ownership failures use the same code
// so callers cannot distinguish "missing" from "not yours"
func NotFound(message string) *Error {
	return WithCode(CodeNotFound, message)
}

// Wrap wraps an error with message
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    GetCode(err),
		Message: message,
		Err:     err,
		Stack:   captureStack(),
	}
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    GetCode(err),
		Message: fmt.Sprintf(format, args...),
		Err:     err,
		Stack:   captureStack(),
	}
}

// New creates a new error
func New(message string) *Error {
	return &Error{
		Message: message,
		Stack:   captureStack(),
	}
}

// GetCode returns the error code, walking the wrap chain
func GetCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// GetMessage returns the error message
func GetMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func inBand(err error, band int) bool {
	code := GetCode(err)
	return code >= band && code < band+1000
}

// IsValidation reports whether err belongs to the validation band
func IsValidation(err error) bool { return inBand(err, CodeValidation) }

// IsConflict reports whether err belongs to the conflict band
func IsConflict(err error) bool { return inBand(err, CodeConflict) }

// IsNotFound reports whether err belongs to the not-found band
func IsNotFound(err error) bool { return inBand(err, CodeNotFound) }

// IsDependency reports whether err belongs to the dependency-degradation band
func IsDependency(err error) bool { return inBand(err, CodeDependency) }

// Cause returns the innermost wrapped error
func Cause(err error) error {
	for err != nil {
		var e *Error
		if errors.As(err, &e) && e.Err != nil {
			err = e.Err
		} else {
			return err
		}
	}
	return err
}

// captureStack captures the current stack trace
func captureStack() string {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	lines := strings.Split(stack, "\n")
	if len(lines) > 6 {
		stack = strings.Join(lines[6:], "\n")
	}
	return strings.TrimSpace(stack)
}

// Format implements fmt.Formatter
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s", e.Error())
			if e.Stack != "" {
				fmt.Fprintf(s, "\n%s", e.Stack)
			}
			return
		}
		fallthrough
	case 's':
		fmt.Fprintf(s, "%s", e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
