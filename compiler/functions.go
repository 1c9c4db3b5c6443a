package compiler

import (
	"sort"
	"strings"

	"github.com/deepnoodle-ai/lanevm/ast"
	"github.com/deepnoodle-ai/lanevm/types"
)

// function is one overload of a user function.
type function struct {
	decl   *ast.FuncDecl
	params []types.Type
	result types.Type
	used   bool
}

func (f *function) body() []ast.Stmt {
	if f.decl.Body == nil {
		return nil
	}
	return f.decl.Body.Stmts
}

func sameTypes(a, b []types.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// declareFunction adds an overload. Overloads are distinguished by their
// parameter types.
func (c *Compiler) declareFunction(decl *ast.FuncDecl) error {
	pos := decl.Pos()
	if decl.Name == "" {
		return c.errorf(invalidDecl, pos, "function name must not be empty")
	}
	result := decl.Result
	if result == types.Invalid {
		result = types.Void
	}
	if result != types.Void && !result.Valid() {
		return c.errorf(invalidDecl, pos, "function %q has invalid result type %s", decl.Name, result)
	}
	seen := map[string]bool{}
	for _, p := range decl.Params {
		if !p.Type.Valid() {
			return c.errorf(invalidDecl, pos, "parameter %q of %q has invalid type %s", p.Name, decl.Name, p.Type)
		}
		if seen[p.Name] {
			return c.errorf(duplicateDecl, pos, "duplicate parameter %q in function %q", p.Name, decl.Name)
		}
		seen[p.Name] = true
	}
	fn := &function{decl: decl, params: decl.Signature(), result: result}
	for _, other := range c.functions[decl.Name] {
		if sameTypes(other.params, fn.params) {
			return c.errorf(duplicateDecl, pos, "function %s(%s) is already declared at %s",
				decl.Name, typeList(fn.params), other.decl.Pos())
		}
	}
	c.functions[decl.Name] = append(c.functions[decl.Name], fn)
	return nil
}

// checkCallGraph rejects programs whose functions call each other in a
// cycle. Overloads share a node, so the check is conservative.
func (c *Compiler) checkCallGraph() error {
	names := make([]string, 0, len(c.functions))
	for name := range c.functions {
		names = append(names, name)
	}
	sort.Strings(names)

	edges := map[string][]string{}
	for _, name := range names {
		seen := map[string]bool{}
		for _, fn := range c.functions[name] {
			if fn.decl.Body == nil {
				continue
			}
			ast.Inspect(fn.decl.Body, func(n ast.Node) bool {
				if call, ok := n.(*ast.Call); ok {
					if _, user := c.functions[call.Name]; user && !seen[call.Name] {
						seen[call.Name] = true
						edges[name] = append(edges[name], call.Name)
					}
				}
				return true
			})
		}
		sort.Strings(edges[name])
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := map[string]int{}
	var stack []string
	var visit func(name string) []string
	visit = func(name string) []string {
		state[name] = visiting
		stack = append(stack, name)
		for _, callee := range edges[name] {
			switch state[callee] {
			case visiting:
				for i, n := range stack {
					if n == callee {
						return append(append([]string(nil), stack[i:]...), callee)
					}
				}
			case unvisited:
				if cycle := visit(callee); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}
	for _, name := range names {
		if state[name] != unvisited {
			continue
		}
		if cycle := visit(name); cycle != nil {
			first := c.functions[cycle[0]][0].decl
			return c.errorf(recursiveCall, first.Pos(), "recursive call cycle: %s", strings.Join(cycle, " -> "))
		}
	}
	return nil
}

// lookupFunction finds the user overload matching the argument types.
func (c *Compiler) lookupFunction(name string, args []value) (*function, bool) {
	argTypes := make([]types.Type, len(args))
	for i, a := range args {
		argTypes[i] = a.typ
	}
	for _, fn := range c.functions[name] {
		if sameTypes(fn.params, argTypes) {
			return fn, true
		}
	}
	return nil, false
}

// inline expands a call to fn in place. Arguments are copied into fresh
// parameter registers, the body is lowered in a scope that sees only the
// globals, and the value of the final return statement is the result.
func (c *Compiler) inline(fn *function, args []value) (value, error) {
	fn.used = true
	saved := c.scope
	c.scope = c.globals.NewChild()
	c.inlineDepth++
	defer func() {
		c.scope = saved
		c.inlineDepth--
	}()

	for i, p := range fn.decl.Params {
		regs := make([]types.Reg, p.Type.Components())
		for j := range regs {
			regs[j] = c.temp()
		}
		c.store(regs, args[i])
		if _, err := c.scope.Insert(p.Name, Parameter, value{typ: p.Type, regs: regs}, fn.decl.Pos()); err != nil {
			return voidValue, c.errorf(duplicateDecl, fn.decl.Pos(), "%s", err)
		}
	}

	body := fn.body()
	var ret *ast.Return
	if n := len(body); n > 0 {
		if r, ok := body[n-1].(*ast.Return); ok {
			ret, body = r, body[:n-1]
		}
	}
	for _, stmt := range body {
		if err := c.statement(stmt); err != nil {
			return voidValue, err
		}
	}

	name := fn.decl.Name
	switch {
	case ret == nil && fn.result != types.Void:
		return voidValue, c.errorf(missingReturn, fn.decl.Pos(), "function %q must end with a return of %s", name, fn.result)
	case ret == nil:
		return voidValue, nil
	case fn.result == types.Void && ret.Value != nil:
		return voidValue, c.errorf(invalidReturn, ret.Pos(), "function %q has no result but returns a value", name)
	case fn.result == types.Void:
		return voidValue, nil
	case ret.Value == nil:
		return voidValue, c.errorf(missingReturn, ret.Pos(), "function %q must return a %s", name, fn.result)
	}
	c.pos = ret.Pos()
	v, err := c.expr(ret.Value)
	if err != nil {
		return voidValue, err
	}
	if v.typ != fn.result {
		return voidValue, c.errorf(typeMismatch, ret.Pos(), "function %q returns %s, expected %s", name, v.typ, fn.result)
	}
	return v, c.failure
}

// checkUnusedFunctions type-checks overloads that were never called, so that
// errors in them are not silently ignored. Nothing they emit is kept.
func (c *Compiler) checkUnusedFunctions() error {
	names := make([]string, 0, len(c.functions))
	for name := range c.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, fn := range c.functions[name] {
			if fn.used {
				continue
			}
			if err := c.scratch(func() error {
				args := make([]value, len(fn.params))
				for i, t := range fn.params {
					regs := make([]types.Reg, t.Components())
					for j := range regs {
						regs[j] = c.temp()
					}
					args[i] = value{typ: t, regs: regs}
				}
				_, err := c.inline(fn, args)
				return err
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// scratch runs f and then discards the instructions it emitted and the
// registers it allocated. It is used to type-check code that is never
// executed.
func (c *Compiler) scratch(f func() error) error {
	n := len(c.instrs)
	regs := *c.regs
	err := f()
	if err == nil {
		err = c.failure
	}
	c.instrs = c.instrs[:n]
	*c.regs = regs
	return err
}
