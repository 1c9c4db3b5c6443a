package compiler

import (
	"fmt"
	"sort"

	"github.com/deepnoodle-ai/lanevm/ast"
)

// Kind describes where a symbol's registers come from.
type Kind uint8

const (
	// Variable is declared with var, globally or in a function or block.
	Variable Kind = iota
	// Parameter is a function parameter bound at an inlined call site.
	Parameter
	// Attribute is a per-instance value shared with the host.
	Attribute
	// Uniform is a read-only broadcast value.
	Uniform
)

func (k Kind) String() string {
	switch k {
	case Variable:
		return "variable"
	case Parameter:
		return "parameter"
	case Attribute:
		return "attribute"
	case Uniform:
		return "uniform"
	default:
		return "unknown"
	}
}

// Symbol is a named value bound to registers.
type Symbol struct {
	name  string
	kind  Kind
	value value
	pos   ast.Position
}

// Name returns the symbol's name.
func (s *Symbol) Name() string { return s.name }

// Kind returns what declared the symbol.
func (s *Symbol) Kind() Kind { return s.kind }

// Pos returns where the symbol was declared.
func (s *Symbol) Pos() ast.Position { return s.pos }

// SymbolTable tracks the symbols defined in a given scope. Tables may have a
// parent, which indicates that they represent a nested scope. A table created
// with NewBlock represents a block within a function or within the program
// (like inside an if { ... }); a table created with NewChild represents the
// body of an inlined function, which sees only its own symbols and those of
// the global table.
type SymbolTable struct {
	id            string
	parent        *SymbolTable
	children      int
	symbolsByName map[string]*Symbol
	symbols       []*Symbol
	isBlock       bool
}

// NewSymbolTable returns a new global symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		id:            "root",
		symbolsByName: map[string]*Symbol{},
	}
}

// NewChild creates a function scope below the global table that t belongs to.
func (t *SymbolTable) NewChild() *SymbolTable {
	root := t.Root()
	child := &SymbolTable{
		id:            fmt.Sprintf("%s.%d", root.id, root.children),
		parent:        root,
		symbolsByName: map[string]*Symbol{},
	}
	root.children++
	return child
}

// NewBlock creates a nested scope that can see every symbol visible from t.
func (t *SymbolTable) NewBlock() *SymbolTable {
	child := &SymbolTable{
		id:            fmt.Sprintf("%s.%d", t.id, t.children),
		parent:        t,
		symbolsByName: map[string]*Symbol{},
		isBlock:       true,
	}
	t.children++
	return child
}

// ID returns a path-like identifier for the scope, e.g. "root.0.1".
func (t *SymbolTable) ID() string {
	return t.id
}

// Parent returns the enclosing table, or nil for the global table.
func (t *SymbolTable) Parent() *SymbolTable {
	return t.parent
}

// Root returns the global table.
func (t *SymbolTable) Root() *SymbolTable {
	for t.parent != nil {
		t = t.parent
	}
	return t
}

// IsGlobal returns true if this table represents the top-level scope.
func (t *SymbolTable) IsGlobal() bool {
	return t.parent == nil
}

// Count returns the number of symbols defined directly in this table.
func (t *SymbolTable) Count() int {
	return len(t.symbols)
}

// Insert adds a new symbol to this table. Redefining a name in the same table
// is an error; shadowing a name from an enclosing table is allowed.
func (t *SymbolTable) Insert(name string, kind Kind, v value, pos ast.Position) (*Symbol, error) {
	if _, ok := t.symbolsByName[name]; ok {
		return nil, fmt.Errorf("%s %q already declared in this scope", kind, name)
	}
	s := &Symbol{name: name, kind: kind, value: v, pos: pos}
	t.symbols = append(t.symbols, s)
	t.symbolsByName[name] = s
	return s, nil
}

// IsDefined returns true if the specified symbol is defined in this table.
// Does not check any parent tables.
func (t *SymbolTable) IsDefined(name string) bool {
	_, ok := t.symbolsByName[name]
	return ok
}

// Get returns the symbol with the specified name and a boolean indicating
// whether the symbol was found. Does not check any parent tables.
func (t *SymbolTable) Get(name string) (*Symbol, bool) {
	s, ok := t.symbolsByName[name]
	return s, ok
}

// Resolve looks the name up in this table and then in each enclosing table.
func (t *SymbolTable) Resolve(name string) (*Symbol, bool) {
	for table := t; table != nil; table = table.parent {
		if s, ok := table.symbolsByName[name]; ok {
			return s, true
		}
	}
	return nil, false
}

// VisibleNames returns the sorted names of every symbol resolvable from t.
func (t *SymbolTable) VisibleNames() []string {
	seen := map[string]bool{}
	var names []string
	for table := t; table != nil; table = table.parent {
		for _, s := range table.symbols {
			if !seen[s.name] {
				seen[s.name] = true
				names = append(names, s.name)
			}
		}
	}
	sort.Strings(names)
	return names
}
