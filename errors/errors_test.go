package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceLocation(t *testing.T) {
	require.Equal(t, "10:5", SourceLocation{Line: 10, Column: 5}.String())
	require.True(t, SourceLocation{}.IsZero())
	require.False(t, SourceLocation{Line: 1}.IsZero())
}

func TestErrorCodeCategory(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		category string
		desc     string
	}{
		{E2001, "compile", "undefined variable"},
		{E2011, "compile", "recursive call cycle"},
		{E3002, "execution", "iteration limit exceeded"},
		{E4001, "format", "unsupported version"},
		{ErrorCode("X"), "unknown", "unknown error"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.category, tt.code.Category(), tt.code)
		require.Equal(t, tt.desc, tt.code.Description())
	}
}

func TestCompileError(t *testing.T) {
	err := CompileErrorf(E2001, 3, 7, "undefined variable %q", "vv")
	require.Equal(t, `compile error: undefined variable "vv" (line 3, column 7)`, err.Error())
	require.Equal(t, SourceLocation{Line: 3, Column: 7}, err.Location())

	err.Suggestions = SuggestSimilar("vv", []string{"v", "nv", "length"})
	msg := err.FriendlyErrorMessage()
	require.Contains(t, msg, "compile error[E2001]: undefined variable")
	require.Contains(t, msg, "--> 3:7")
	require.Contains(t, msg, `hint: did you mean "nv" or "v"?`)
}

func TestCompileErrorWithoutPosition(t *testing.T) {
	err := CompileErrorf(E2007, 0, 0, "too many registers")
	require.Equal(t, "compile error: too many registers", err.Error())
	require.NotContains(t, err.FriendlyErrorMessage(), "-->")
}

func TestFormatError(t *testing.T) {
	err := FormatErrorf(E4001, 0, "unsupported version %q", "SIMv9.9")
	require.Equal(t, `format error: unsupported version "SIMv9.9" (offset 0)`, err.Error())
	require.Equal(t, E4001, CodeOf(fmt.Errorf("load: %w", err)))
	require.Equal(t, "byte 0", err.ToFormatted().Location)
}

func TestExecutionError(t *testing.T) {
	err := ExecutionErrorf(E3002, 12, "loop exceeded %d iterations", 10)
	require.Equal(t, "execution error: loop exceeded 10 iterations (offset 12)", err.Error())
	require.Equal(t, E3002, CodeOf(err))

	cause := fmt.Errorf("boom")
	wrapped := &ExecutionError{Code: E3003, Offset: -1, Message: "bad data", Err: cause}
	require.Equal(t, "execution error: bad data: boom", wrapped.Error())
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, "boom", wrapped.ToFormatted().Note)

	require.Equal(t, ErrorCode(""), CodeOf(cause))
}

func TestFormatMultiple(t *testing.T) {
	f := NewFormatter(false)
	out := f.FormatMultiple([]*FormattedError{
		{Kind: "compile error", Message: "first"},
		{Kind: "compile error", Message: "second"},
	})
	require.Contains(t, out, "compile error[1/2]: first")
	require.Contains(t, out, "compile error[2/2]: second")
	require.Contains(t, out, "found 2 errors")

	colored := NewFormatter(true).Format(&FormattedError{Message: "x"})
	require.Contains(t, colored, "\x1b[")
}

func TestSuggestSimilar(t *testing.T) {
	s := SuggestSimilar("lenght", []string{"length", "floor", "clamp"})
	require.Equal(t, []Suggestion{{Value: "length", Distance: 1}}, s)
	require.Equal(t, `did you mean "length"?`, FormatSuggestions(s))

	s = SuggestSimilar("velocty", []string{"velocity", "velocity", "Velocity", "color"})
	require.Equal(t, []string{"velocity", "Velocity"}, values(s))

	s = SuggestSimilar("mn", []string{"min", "max", "mix", "sin"})
	require.Equal(t, []string{"min"}, values(s))

	require.Nil(t, SuggestSimilar("", []string{"a"}))
	require.Empty(t, SuggestSimilar("zzzzzz", []string{"length"}))
	require.Equal(t, "", FormatSuggestions(nil))
	require.Equal(t, `did you mean "a", "b" or "c"?`,
		FormatSuggestions([]Suggestion{{Value: "a"}, {Value: "b"}, {Value: "c"}}))
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"ab", "ba", 1},
		{"lenght", "length", 1},
		{"pos", "pos", 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, editDistance(tt.a, tt.b), "%s -> %s", tt.a, tt.b)
	}
}

func TestSuggestSwizzle(t *testing.T) {
	tests := []struct {
		swizzle    string
		components int
		want       []string
	}{
		{"rgb", 3, []string{"xyz"}},
		{"ba", 4, []string{"zw"}},
		{"st", 2, []string{"xy"}},
		{"XY", 2, []string{"xy"}},
		{"rxg", 2, []string{"xxy"}},
		{"rgba", 3, nil},
		{"z", 2, nil},
		{"xyzwx", 4, nil},
		{"k", 4, nil},
		{"", 4, nil},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, values(SuggestSwizzle(tt.swizzle, tt.components)), tt.swizzle)
	}
}

func values(s []Suggestion) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	for i := range s {
		out[i] = s[i].Value
	}
	return out
}
