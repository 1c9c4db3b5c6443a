package bytecode

// Node is an element of a block tree: *Seq, *If or *While.
type Node interface {
	node()
}

// Block is a sequence of nodes executed in order under one mask.
type Block struct {
	Nodes []Node
}

// Seq is a run of straight-line, value-producing instructions. Offsets are
// relative to the start of the instruction stream.
type Seq struct {
	Offsets      []int
	Instructions []Instruction
}

// If is a beginif ... endif region.
type If struct {
	Offset int
	Header Instruction
	Body   *Block
}

// While is a beginwhile ... endwhilecond ... endwhile region. Cond evaluates
// Header.Cond; Body runs for the lanes where it is true.
type While struct {
	Offset int
	Header Instruction
	Cond   *Block
	Body   *Block
}

func (*Seq) node()   {}
func (*If) node()    {}
func (*While) node() {}

// Depth returns the maximum block nesting depth below b.
func (b *Block) Depth() int {
	depth := 0
	for _, n := range b.Nodes {
		d := 0
		switch n := n.(type) {
		case *If:
			d = 1 + n.Body.Depth()
		case *While:
			d = 1 + max(n.Cond.Depth(), n.Body.Depth())
		}
		depth = max(depth, d)
	}
	return depth
}
