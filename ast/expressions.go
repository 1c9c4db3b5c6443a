package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// BinaryOp is a binary operator.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpDiv
	OpPow
	OpLess
	OpGreater
	OpEqual
	OpNotEqual
	OpLessEqual
	OpGreaterEqual
	OpAnd
	OpOr
)

var binaryOpSymbols = map[BinaryOp]string{
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpPow:          "^",
	OpLess:         "<",
	OpGreater:      ">",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpLessEqual:    "<=",
	OpGreaterEqual: ">=",
	OpAnd:          "&&",
	OpOr:           "||",
}

func (op BinaryOp) String() string {
	if s, ok := binaryOpSymbols[op]; ok {
		return s
	}
	return "?"
}

// IsArithmetic reports whether op takes and produces float values.
func (op BinaryOp) IsArithmetic() bool {
	return op >= OpAdd && op <= OpPow
}

// IsComparison reports whether op compares floats and produces booleans.
func (op BinaryOp) IsComparison() bool {
	return op >= OpLess && op <= OpGreaterEqual
}

// IsLogical reports whether op combines booleans.
func (op BinaryOp) IsLogical() bool {
	return op == OpAnd || op == OpOr
}

// UnaryOp is a prefix operator.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota + 1
	OpNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "!"
	default:
		return "?"
	}
}

// Number is a float literal.
type Number struct {
	At    Position
	Value float32
}

func (x *Number) exprNode()     {}
func (x *Number) Pos() Position { return x.At }
func (x *Number) String() string {
	return strconv.FormatFloat(float64(x.Value), 'g', -1, 32)
}

// Bool is a boolean literal.
type Bool struct {
	At    Position
	Value bool
}

func (x *Bool) exprNode()     {}
func (x *Bool) Pos() Position { return x.At }
func (x *Bool) String() string {
	return strconv.FormatBool(x.Value)
}

// Ident refers to an attribute, uniform, variable or parameter by name.
type Ident struct {
	At   Position
	Name string
}

func (x *Ident) exprNode()      {}
func (x *Ident) Pos() Position  { return x.At }
func (x *Ident) String() string { return x.Name }

// Member selects components of a vector, e.g. v.xzy.
type Member struct {
	At      Position
	X       Expr
	Swizzle string
}

func (x *Member) exprNode()     {}
func (x *Member) Pos() Position { return x.At }
func (x *Member) String() string {
	return fmt.Sprintf("%s.%s", x.X, x.Swizzle)
}

// Binary is an infix operation.
type Binary struct {
	At Position
	Op BinaryOp
	X  Expr
	Y  Expr
}

func (x *Binary) exprNode()     {}
func (x *Binary) Pos() Position { return x.At }
func (x *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", x.X, x.Op, x.Y)
}

// Unary is a prefix operation.
type Unary struct {
	At Position
	Op UnaryOp
	X  Expr
}

func (x *Unary) exprNode()     {}
func (x *Unary) Pos() Position { return x.At }
func (x *Unary) String() string {
	return fmt.Sprintf("(%s%s)", x.Op, x.X)
}

// Call invokes an intrinsic or a user function.
type Call struct {
	At   Position
	Name string
	Args []Expr
}

func (x *Call) exprNode()     {}
func (x *Call) Pos() Position { return x.At }
func (x *Call) String() string {
	args := make([]string, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, a.String())
	}
	return fmt.Sprintf("%s(%s)", x.Name, strings.Join(args, ", "))
}
