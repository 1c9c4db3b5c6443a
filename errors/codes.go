package errors

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E2xxx: Compile errors
//   - E3xxx: Execution errors
//   - E4xxx: Module format errors
type ErrorCode string

const (
	// Compile errors (E2xxx)
	E2001 ErrorCode = "E2001" // Undefined variable
	E2002 ErrorCode = "E2002" // Undefined function
	E2003 ErrorCode = "E2003" // Type mismatch
	E2004 ErrorCode = "E2004" // Non-boolean condition
	E2005 ErrorCode = "E2005" // Invalid return statement
	E2006 ErrorCode = "E2006" // Duplicate declaration
	E2007 ErrorCode = "E2007" // Too many registers
	E2008 ErrorCode = "E2008" // Invalid swizzle
	E2009 ErrorCode = "E2009" // Swizzle on non-vector
	E2010 ErrorCode = "E2010" // Assignment to uniform
	E2011 ErrorCode = "E2011" // Recursive call cycle
	E2012 ErrorCode = "E2012" // Wrong argument count
	E2013 ErrorCode = "E2013" // Missing return
	E2014 ErrorCode = "E2014" // Invalid declaration
	E2015 ErrorCode = "E2015" // Invalid assignment target

	// Execution errors (E3xxx)
	E3001 ErrorCode = "E3001" // Register out of range
	E3002 ErrorCode = "E3002" // Iteration limit exceeded
	E3003 ErrorCode = "E3003" // Invalid instance data
	E3004 ErrorCode = "E3004" // Execution halted

	// Module format errors (E4xxx)
	E4001 ErrorCode = "E4001" // Unsupported version
	E4002 ErrorCode = "E4002" // Truncated module
	E4003 ErrorCode = "E4003" // Unknown opcode
	E4004 ErrorCode = "E4004" // Block length mismatch
	E4005 ErrorCode = "E4005" // Register out of range
	E4006 ErrorCode = "E4006" // Trailing bytes
	E4007 ErrorCode = "E4007" // Invalid declaration
	E4008 ErrorCode = "E4008" // Unmatched block marker
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E2001: "undefined variable",
	E2002: "undefined function",
	E2003: "type mismatch",
	E2004: "non-boolean condition",
	E2005: "invalid return statement",
	E2006: "duplicate declaration",
	E2007: "too many registers",
	E2008: "invalid swizzle",
	E2009: "swizzle on non-vector",
	E2010: "assignment to uniform",
	E2011: "recursive call cycle",
	E2012: "wrong argument count",
	E2013: "missing return",
	E2014: "invalid declaration",
	E2015: "invalid assignment target",

	E3001: "register out of range",
	E3002: "iteration limit exceeded",
	E3003: "invalid instance data",
	E3004: "execution halted",

	E4001: "unsupported version",
	E4002: "truncated module",
	E4003: "unknown opcode",
	E4004: "block length mismatch",
	E4005: "register out of range",
	E4006: "trailing bytes",
	E4007: "invalid declaration",
	E4008: "unmatched block marker",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// Category returns the error category based on the code prefix.
func (c ErrorCode) Category() string {
	if len(c) < 2 {
		return "unknown"
	}
	switch c[1] {
	case '2':
		return "compile"
	case '3':
		return "execution"
	case '4':
		return "format"
	default:
		return "unknown"
	}
}
