package op

import "math"

// Scalar semantics shared by the virtual machine and the compiler's constant
// folder. Booleans are produced as 1.0 and 0.0; any nonzero input is true.

// Truth converts a boolean to its register representation.
func Truth(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// PowF32 computes a^b in float32.
func PowF32(a, b float32) float32 {
	return float32(math.Pow(float64(a), float64(b)))
}

// SqrtF32 computes the square root of a in float32.
func SqrtF32(a float32) float32 {
	return float32(math.Sqrt(float64(a)))
}

// FloorF32 rounds a toward negative infinity.
func FloorF32(a float32) float32 {
	return float32(math.Floor(float64(a)))
}

// EvalBinary applies a two-operand opcode to scalar operands. It reports
// false if code is not a two-operand opcode.
func EvalBinary(code Code, a, b float32) (float32, bool) {
	switch code {
	case Add:
		return a + b, true
	case Sub:
		return a - b, true
	case Mul:
		return a * b, true
	case Div:
		return a / b, true
	case Pow:
		return PowF32(a, b), true
	case Less:
		return Truth(a < b), true
	case Greater:
		return Truth(a > b), true
	case Equal:
		return Truth(a == b), true
	case And:
		return Truth(a != 0 && b != 0), true
	case Or:
		return Truth(a != 0 || b != 0), true
	}
	return 0, false
}

// EvalUnary applies a one-operand opcode to a scalar operand. It reports
// false if code is not a one-operand opcode.
func EvalUnary(code Code, a float32) (float32, bool) {
	switch code {
	case Sqrt:
		return SqrtF32(a), true
	case Not:
		return Truth(a == 0), true
	case Floor:
		return FloorF32(a), true
	case Mov:
		return a, true
	}
	return 0, false
}

// EvalSel returns a when cond is true and b otherwise.
func EvalSel(a, b, cond float32) float32 {
	if cond != 0 {
		return a
	}
	return b
}

// ProducesBool reports whether the opcode's result is a boolean.
func ProducesBool(code Code) bool {
	switch code {
	case Less, Greater, Equal, And, Or, Not:
		return true
	}
	return false
}
