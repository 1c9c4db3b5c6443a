package ast

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses a tree in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, stmt := range n.Stmts {
			Walk(v, stmt)
		}

	// Statements
	case *VarDecl:
		if n.Value != nil {
			Walk(v, n.Value)
		}
	case *FuncDecl:
		if n.Body != nil {
			Walk(v, n.Body)
		}
	case *Block:
		for _, stmt := range n.Stmts {
			Walk(v, stmt)
		}
	case *Assign:
		Walk(v, n.Target)
		Walk(v, n.Value)
	case *If:
		Walk(v, n.Cond)
		if n.Body != nil {
			Walk(v, n.Body)
		}
	case *While:
		Walk(v, n.Cond)
		if n.Body != nil {
			Walk(v, n.Body)
		}
	case *For:
		if n.Init != nil {
			Walk(v, n.Init)
		}
		if n.Cond != nil {
			Walk(v, n.Cond)
		}
		if n.Step != nil {
			Walk(v, n.Step)
		}
		if n.Body != nil {
			Walk(v, n.Body)
		}
	case *Return:
		if n.Value != nil {
			Walk(v, n.Value)
		}
	case *ExprStmt:
		Walk(v, n.X)

	// Expressions
	case *Member:
		Walk(v, n.X)
	case *Binary:
		Walk(v, n.X)
		Walk(v, n.Y)
	case *Unary:
		Walk(v, n.X)
	case *Call:
		for _, arg := range n.Args {
			Walk(v, arg)
		}
	}

	v.Visit(nil)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses a tree in depth-first order. It starts by calling f(node);
// if f returns true, Inspect invokes f recursively for each of the non-nil
// children of node, followed by a call of f(nil).
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}
