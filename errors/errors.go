// Package errors defines the error types surfaced by the compiler, the module
// decoder and the virtual machine.
package errors

import (
	"errors"
	"fmt"
)

// SourceLocation represents a position in source code.
type SourceLocation struct {
	Line   int // 1-based line number
	Column int // 1-based column number
}

// String returns a formatted string representation of the source location.
func (s SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// FriendlyError is an interface for errors that have a human friendly message
// in addition to a the lower level default error message.
type FriendlyError interface {
	Error() string
	FriendlyErrorMessage() string
}

// FormattableError is an interface for errors that can be formatted with
// the enhanced error formatter (with colors, codes and hints).
type FormattableError interface {
	Error() string
	ToFormatted() *FormattedError
}

// FormatError is returned when a byte sequence is not a valid module. The
// whole module is rejected.
type FormatError struct {
	Code    ErrorCode
	Offset  int // byte offset into the encoded module
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error: %s (offset %d)", e.Message, e.Offset)
}

// ToFormatted converts to the FormattedError type for display.
func (e *FormatError) ToFormatted() *FormattedError {
	return &FormattedError{
		Code:     e.Code,
		Kind:     "format error",
		Message:  e.Message,
		Location: fmt.Sprintf("byte %d", e.Offset),
	}
}

// FormatErrorf creates a FormatError at the given byte offset.
func FormatErrorf(code ErrorCode, offset int, format string, args ...any) *FormatError {
	return &FormatError{Code: code, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// ExecutionError aborts a run. Attribute arrays are left as they were before
// the run.
type ExecutionError struct {
	Code    ErrorCode
	Offset  int // offset of the instruction in the stream, or -1
	Message string
	Err     error
}

func (e *ExecutionError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	if e.Offset < 0 {
		return "execution error: " + msg
	}
	return fmt.Sprintf("execution error: %s (offset %d)", msg, e.Offset)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ToFormatted converts to the FormattedError type for display.
func (e *ExecutionError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:    e.Code,
		Kind:    "execution error",
		Message: e.Message,
	}
	if e.Offset >= 0 {
		fe.Location = fmt.Sprintf("instruction at %d", e.Offset)
	}
	if e.Err != nil {
		fe.Note = e.Err.Error()
	}
	return fe
}

// ExecutionErrorf creates an ExecutionError for the instruction at offset.
func ExecutionErrorf(code ErrorCode, offset int, format string, args ...any) *ExecutionError {
	return &ExecutionError{Code: code, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the error code carried by err, or "" if err is not one of
// the error types defined in this package.
func CodeOf(err error) ErrorCode {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Code
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}
