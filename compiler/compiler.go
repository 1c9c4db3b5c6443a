// Package compiler lowers a typed program tree into a bytecode module.
//
// # Two-Pass Compilation Strategy
//
// Pass 1 walks the top-level statements and collects attribute, uniform and
// function declarations. Uniforms and then attributes receive permanent
// registers in declaration order, so every global is visible from the first
// statement. Function declarations are grouped into overload sets and the
// call graph is checked for cycles: there is no call instruction, so a
// recursive program could never be inlined.
//
// Pass 2 lowers the remaining statements in order. Vector operations expand
// to one scalar instruction per component, swizzles only reorder register
// references, intrinsics expand to primitive opcodes, user functions are
// inlined at every call site, and if/while/for become predicated blocks whose
// headers carry the byte length of their regions.
//
// # Registers
//
// Registers are handed out in stack order. Block-scoped variables are
// released when their block ends and expression temporaries when their
// statement ends. Sub-expressions whose inputs are all literals are folded to
// constants, which cost no register until they are stored.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/lanevm/ast"
	"github.com/deepnoodle-ai/lanevm/bytecode"
	"github.com/deepnoodle-ai/lanevm/errors"
	"github.com/deepnoodle-ai/lanevm/types"
)

// Error codes used by the compiler, named by what they report.
const (
	undefinedVariable   = errors.E2001
	undefinedFunction   = errors.E2002
	typeMismatch        = errors.E2003
	nonBooleanCondition = errors.E2004
	invalidReturn       = errors.E2005
	duplicateDecl       = errors.E2006
	registerExhausted   = errors.E2007
	invalidSwizzle      = errors.E2008
	swizzleNonVector    = errors.E2009
	assignToUniform     = errors.E2010
	recursiveCall       = errors.E2011
	wrongArgCount       = errors.E2012
	missingReturn       = errors.E2013
	invalidDecl         = errors.E2014
	invalidTarget       = errors.E2015
)

// Compiler lowers one program. It is not safe for concurrent use; create one
// per compilation or use the package-level Compile function.
type Compiler struct {
	cfg    *Config
	logger zerolog.Logger

	globals *SymbolTable
	scope   *SymbolTable
	regs    *registers
	instrs  []bytecode.Instruction

	attributes []bytecode.Declaration
	uniforms   []bytecode.Declaration
	functions  map[string][]*function

	// Set on register exhaustion, which can happen deep inside expression
	// lowering. Checked at the end of every statement.
	failure error

	// Position of the node being lowered, for errors raised without one.
	pos ast.Position

	// Depth of inlined calls being lowered, to reject misplaced returns.
	inlineDepth int
}

// Compile lowers the program and returns an immutable module.
func Compile(prog *ast.Program, opts ...Option) (*bytecode.Module, error) {
	return New(opts...).Compile(prog)
}

// New creates and returns a new Compiler.
func New(opts ...Option) *Compiler {
	cfg := newConfig(opts)
	return &Compiler{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Compile lowers the program. A Compiler may be reused; each call starts from
// a clean state.
func (c *Compiler) Compile(prog *ast.Program) (*bytecode.Module, error) {
	if prog == nil {
		return nil, fmt.Errorf("compile: nil program")
	}
	c.globals = NewSymbolTable()
	c.scope = c.globals
	c.regs = newRegisters(c.cfg.MaxRegisters)
	c.instrs = nil
	c.attributes = nil
	c.uniforms = nil
	c.functions = map[string][]*function{}
	c.failure = nil
	c.inlineDepth = 0

	if err := c.collectDeclarations(prog); err != nil {
		return nil, err
	}
	if err := c.checkCallGraph(); err != nil {
		return nil, err
	}
	for _, stmt := range prog.Stmts {
		switch stmt.(type) {
		case *ast.AttributeDecl, *ast.UniformDecl, *ast.FuncDecl:
			continue
		}
		if err := c.statement(stmt); err != nil {
			return nil, err
		}
	}
	if err := c.checkUnusedFunctions(); err != nil {
		return nil, err
	}

	m, err := bytecode.NewModule(bytecode.ModuleParams{
		Attributes:    c.attributes,
		Uniforms:      c.uniforms,
		RegisterCount: c.regs.count(),
		Instructions:  c.instrs,
	})
	if err != nil {
		return nil, fmt.Errorf("compile: internal error: %w", err)
	}
	c.logger.Debug().
		Int("attributes", len(c.attributes)).
		Int("uniforms", len(c.uniforms)).
		Int("registers", m.RegisterCount()).
		Int("instructions", m.InstructionCount()).
		Int("stream_bytes", m.StreamSize()).
		Msg("compiled module")
	return m, nil
}

// collectDeclarations is pass 1: globals and function overload sets.
func (c *Compiler) collectDeclarations(prog *ast.Program) error {
	var attrs, unis []ast.Stmt
	for _, stmt := range prog.Stmts {
		switch s := stmt.(type) {
		case *ast.AttributeDecl:
			attrs = append(attrs, s)
		case *ast.UniformDecl:
			unis = append(unis, s)
		case *ast.FuncDecl:
			if err := c.declareFunction(s); err != nil {
				return err
			}
		}
	}
	for _, stmt := range append(unis, attrs...) {
		var (
			name string
			typ  types.Type
			kind Kind
		)
		switch s := stmt.(type) {
		case *ast.AttributeDecl:
			name, typ, kind = s.Name, s.Type, Attribute
		case *ast.UniformDecl:
			name, typ, kind = s.Name, s.Type, Uniform
		}
		pos := stmt.Pos()
		c.pos = pos
		if name == "" || len(name) > 255 {
			return c.errorf(invalidDecl, pos, "%s name must be 1 to 255 bytes", kind)
		}
		if !typ.Valid() {
			return c.errorf(invalidDecl, pos, "%s %q has invalid type %s", kind, name, typ)
		}
		if c.globals.IsDefined(name) {
			return c.errorf(duplicateDecl, pos, "%q is already declared", name)
		}
		regs := make([]types.Reg, typ.Components())
		for i := range regs {
			regs[i] = c.temp()
		}
		if c.failure != nil {
			return c.failure
		}
		v := value{typ: typ, regs: regs}
		if _, err := c.globals.Insert(name, kind, v, pos); err != nil {
			return c.errorf(duplicateDecl, pos, "%s", err)
		}
		decl := bytecode.Declaration{Name: name, Type: typ, Regs: regs}
		if kind == Attribute {
			c.attributes = append(c.attributes, decl)
		} else {
			c.uniforms = append(c.uniforms, decl)
		}
	}
	if len(c.attributes) > 255 || len(c.uniforms) > 255 {
		return c.errorf(invalidDecl, ast.Position{}, "at most 255 attributes and 255 uniforms may be declared")
	}
	return nil
}

// errorf builds a CompileError at pos.
func (c *Compiler) errorf(code errors.ErrorCode, pos ast.Position, format string, args ...any) *errors.CompileError {
	return errors.CompileErrorf(code, pos.Line, pos.Column, format, args...)
}

// undefined reports an unknown name, suggesting similar visible names.
func (c *Compiler) undefined(code errors.ErrorCode, pos ast.Position, what, name string, candidates []string) *errors.CompileError {
	err := c.errorf(code, pos, "undefined %s %q", what, name)
	err.Suggestions = errors.SuggestSimilar(name, candidates)
	return err
}

// badSwizzle reports a selector that does not parse, suggesting its xyzw
// spelling when there is one.
func (c *Compiler) badSwizzle(pos ast.Position, err error, swizzle string, components int) *errors.CompileError {
	cerr := c.errorf(invalidSwizzle, pos, "%s", err)
	cerr.Suggestions = errors.SuggestSwizzle(swizzle, components)
	return cerr
}

// functionNames lists user functions and intrinsics for suggestions.
func (c *Compiler) functionNames() []string {
	names := make([]string, 0, len(c.functions)+len(intrinsics))
	for name := range c.functions {
		names = append(names, name)
	}
	for name := range intrinsics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func typeList(ts []types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
