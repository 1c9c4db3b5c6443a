package errors

import (
	"fmt"
	"strings"
)

// CompileError is returned when a program cannot be lowered to bytecode.
// The program is not executable and nothing is emitted.
type CompileError struct {
	Code        ErrorCode
	Message     string
	Line        int
	Column      int
	Suggestions []Suggestion
	Note        string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString("compile error: ")
	b.WriteString(e.Message)
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d, column %d)", e.Line, e.Column)
	}
	return b.String()
}

// Location returns the source position of the error.
func (e *CompileError) Location() SourceLocation {
	return SourceLocation{Line: e.Line, Column: e.Column}
}

// FriendlyErrorMessage returns a human-friendly error message.
func (e *CompileError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts to the FormattedError type for display.
func (e *CompileError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:     e.Code,
		Kind:     "compile error",
		Message:  e.Message,
		Location: e.Location().String(),
		Note:     e.Note,
	}
	if e.Line == 0 {
		fe.Location = ""
	}
	if len(e.Suggestions) > 0 {
		fe.Hint = FormatSuggestions(e.Suggestions)
	}
	return fe
}

// CompileErrorf creates a CompileError at the given position.
func CompileErrorf(code ErrorCode, line, column int, format string, args ...any) *CompileError {
	return &CompileError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  column,
	}
}
