package compiler

import (
	"github.com/deepnoodle-ai/lanevm/ast"
	"github.com/deepnoodle-ai/lanevm/bytecode"
	"github.com/deepnoodle-ai/lanevm/op"
	"github.com/deepnoodle-ai/lanevm/types"
)

// statement lowers one statement. Temporaries allocated while lowering it are
// released when it finishes; variables it declares are not.
func (c *Compiler) statement(stmt ast.Stmt) error {
	c.pos = stmt.Pos()
	var err error
	switch s := stmt.(type) {
	case *ast.VarDecl:
		err = c.varDecl(s)
	default:
		mark := c.regs.mark()
		err = c.lowerStatement(stmt)
		c.regs.release(mark)
	}
	if err != nil {
		return err
	}
	return c.failure
}

func (c *Compiler) lowerStatement(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.Block:
		return c.block(s, c.scope.NewBlock())
	case *ast.Assign:
		return c.assign(s)
	case *ast.If:
		return c.ifStmt(s)
	case *ast.While:
		return c.loop(s.Cond, s.Body, nil)
	case *ast.For:
		return c.forStmt(s)
	case *ast.ExprStmt:
		_, err := c.expr(s.X)
		return err
	case *ast.Return:
		if c.inlineDepth > 0 {
			return c.errorf(invalidReturn, s.Pos(), "return must be the last statement of a function body")
		}
		return c.errorf(invalidReturn, s.Pos(), "return outside of a function")
	case *ast.AttributeDecl, *ast.UniformDecl, *ast.FuncDecl:
		return c.errorf(invalidDecl, s.Pos(), "declaration must appear at the top level")
	default:
		return c.errorf(invalidDecl, stmt.Pos(), "unsupported statement %s", stmt)
	}
}

// block lowers a statement list in scope. Variables declared in the block
// are released when it ends.
func (c *Compiler) block(b *ast.Block, scope *SymbolTable) error {
	saved := c.scope
	c.scope = scope
	mark := c.regs.mark()
	defer func() {
		c.scope = saved
		c.regs.release(mark)
	}()
	if b == nil {
		return nil
	}
	for _, stmt := range b.Stmts {
		if err := c.statement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) varDecl(s *ast.VarDecl) error {
	pos := s.Pos()
	if s.Name == "" {
		return c.errorf(invalidDecl, pos, "variable name must not be empty")
	}
	if c.scope.IsDefined(s.Name) {
		sym, _ := c.scope.Get(s.Name)
		return c.errorf(duplicateDecl, pos, "%q is already declared as a %s at %s", s.Name, sym.Kind(), sym.Pos())
	}
	typ := s.Type
	switch {
	case typ == types.Invalid && s.Value == nil:
		return c.errorf(invalidDecl, pos, "variable %q needs a type or an initializer", s.Name)
	case typ == types.Invalid:
		// Lower the initializer once without keeping it to learn its type,
		// so the variable's registers can sit below the temporaries.
		if err := c.scratch(func() error {
			v, err := c.expr(s.Value)
			typ = v.typ
			return err
		}); err != nil {
			return err
		}
		if !typ.Valid() {
			return c.errorf(typeMismatch, pos, "cannot initialize %q with a value of type %s", s.Name, typ)
		}
	case !typ.Valid():
		return c.errorf(invalidDecl, pos, "variable %q has invalid type %s", s.Name, typ)
	}

	regs := make([]types.Reg, typ.Components())
	for i := range regs {
		regs[i] = c.temp()
	}
	mark := c.regs.mark()
	init := zero(typ)
	if s.Value != nil {
		v, err := c.expr(s.Value)
		if err != nil {
			return err
		}
		if v.typ != typ {
			return c.errorf(typeMismatch, pos, "cannot initialize %q of type %s with a value of type %s", s.Name, typ, v.typ)
		}
		init = v
	}
	c.store(regs, init)
	c.regs.release(mark)

	if _, err := c.scope.Insert(s.Name, Variable, value{typ: typ, regs: regs}, pos); err != nil {
		return c.errorf(duplicateDecl, pos, "%s", err)
	}
	return nil
}

// assignTarget resolves the registers an assignment writes.
func (c *Compiler) assignTarget(target ast.Expr) ([]types.Reg, types.Type, error) {
	var (
		ident   *ast.Ident
		swizzle string
	)
	switch t := target.(type) {
	case *ast.Ident:
		ident = t
	case *ast.Member:
		id, ok := t.X.(*ast.Ident)
		if !ok {
			return nil, types.Invalid, c.errorf(invalidTarget, t.Pos(), "cannot assign to %s", t)
		}
		ident, swizzle = id, t.Swizzle
	default:
		return nil, types.Invalid, c.errorf(invalidTarget, target.Pos(), "cannot assign to %s", target)
	}

	sym, ok := c.scope.Resolve(ident.Name)
	if !ok {
		return nil, types.Invalid, c.undefined(undefinedVariable, ident.Pos(), "variable", ident.Name, c.scope.VisibleNames())
	}
	if sym.Kind() == Uniform {
		return nil, types.Invalid, c.errorf(assignToUniform, target.Pos(), "cannot assign to uniform %q", ident.Name)
	}
	v := sym.value
	if swizzle == "" {
		return v.regs, v.typ, nil
	}
	if !v.typ.IsVector() {
		return nil, types.Invalid, c.errorf(swizzleNonVector, target.Pos(), "cannot swizzle %s of type %s", ident.Name, v.typ)
	}
	s, err := types.ParseSwizzle(swizzle, v.components())
	if err != nil {
		return nil, types.Invalid, c.badSwizzle(target.Pos(), err, swizzle, v.components())
	}
	if s.HasDuplicates() {
		return nil, types.Invalid, c.errorf(invalidSwizzle, target.Pos(), "cannot assign to %s.%s: component repeated", ident.Name, swizzle)
	}
	sw := v.swizzle(s)
	return sw.regs, sw.typ, nil
}

func (c *Compiler) assign(s *ast.Assign) error {
	dst, typ, err := c.assignTarget(s.Target)
	if err != nil {
		return err
	}
	v, err := c.expr(s.Value)
	if err != nil {
		return err
	}
	if v.typ != typ {
		return c.errorf(typeMismatch, s.Pos(), "cannot assign %s to %s of type %s", v.typ, s.Target, typ)
	}
	if hazard(dst, v) {
		v = c.snapshot(v)
	}
	c.store(dst, v)
	return nil
}

// hazard reports whether storing v into dst one component at a time could
// overwrite a source register before it is read.
func hazard(dst []types.Reg, v value) bool {
	if len(dst) < 2 || v.isConst() {
		return false
	}
	identity := true
	overlap := false
	for i, src := range v.regs {
		if src != dst[i] {
			identity = false
		}
		for _, d := range dst {
			if src == d {
				overlap = true
			}
		}
	}
	return overlap && !identity
}

// condition lowers a branch or loop condition, which must be a scalar bool.
func (c *Compiler) condition(e ast.Expr, pos ast.Position) (value, error) {
	v, err := c.expr(e)
	if err != nil {
		return voidValue, err
	}
	if v.typ != types.Bool {
		return voidValue, c.errorf(nonBooleanCondition, pos, "condition must be bool, got %s", v.typ)
	}
	return v, nil
}

func (c *Compiler) ifStmt(s *ast.If) error {
	cond, err := c.condition(s.Cond, s.Pos())
	if err != nil {
		return err
	}
	if cond.isConst() {
		if cond.consts[0] != 0 {
			return c.block(s.Body, c.scope.NewBlock())
		}
		return c.scratch(func() error {
			return c.block(s.Body, c.scope.NewBlock())
		})
	}
	header := len(c.instrs)
	c.emit(bytecode.BeginIf(cond.regs[0], 0, types.RegRange{}))
	if err := c.block(s.Body, c.scope.NewBlock()); err != nil {
		return err
	}
	end := len(c.instrs)
	c.emit(bytecode.Marker(op.EndIf))

	body := c.instrs[header+1 : end]
	c.instrs[header].BodyLen = uint32(bytecode.StreamSize(body))
	c.instrs[header].BodyRange = bytecode.WrittenRange(body)
	return nil
}

// loop lowers a while loop. A non-nil step runs after the body on every
// iteration, outside the body's scope.
func (c *Compiler) loop(condExpr ast.Expr, body *ast.Block, step ast.Stmt) error {
	pos := c.pos
	header := len(c.instrs)
	c.emit(bytecode.BeginWhile(0, 0, types.RegRange{}, 0, types.RegRange{}))

	cond := constant(types.Bool, 1)
	if condExpr != nil {
		var err error
		if cond, err = c.condition(condExpr, pos); err != nil {
			return err
		}
	}
	lowerBody := func() error {
		if err := c.block(body, c.scope.NewBlock()); err != nil {
			return err
		}
		if step != nil {
			return c.statement(step)
		}
		return nil
	}
	if cond.isConst() && cond.consts[0] == 0 {
		// The condition still runs once for its side effects.
		c.instrs = append(c.instrs[:header], c.instrs[header+1:]...)
		return c.scratch(lowerBody)
	}
	condReg := c.reg(cond, 0)
	condEnd := len(c.instrs)
	c.emit(bytecode.Marker(op.EndWhileCond))
	if err := lowerBody(); err != nil {
		return err
	}
	bodyEnd := len(c.instrs)
	c.emit(bytecode.Marker(op.EndWhile))

	condRegion := c.instrs[header+1 : condEnd]
	bodyRegion := c.instrs[condEnd+1 : bodyEnd]
	h := &c.instrs[header]
	h.Cond = condReg
	h.CondLen = uint32(bytecode.StreamSize(condRegion))
	h.CondRange = bytecode.WrittenRange(condRegion)
	h.BodyLen = uint32(bytecode.StreamSize(bodyRegion))
	h.BodyRange = bytecode.WrittenRange(bodyRegion)
	return nil
}

func (c *Compiler) forStmt(s *ast.For) error {
	saved := c.scope
	c.scope = c.scope.NewBlock()
	defer func() { c.scope = saved }()
	if s.Init != nil {
		if err := c.statement(s.Init); err != nil {
			return err
		}
	}
	c.pos = s.Pos()
	return c.loop(s.Cond, s.Body, s.Step)
}
