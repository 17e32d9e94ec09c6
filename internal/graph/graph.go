// Package graph holds the in-memory strategy graph edited on the canvas.
package graph

import (
	"maps"
	"slices"
	"strconv"
)

// Block is a placed, configured block. Children are owned by their parent.
type Block struct {
	// ID is kept when a document carries one; new blocks leave it empty.
	ID         string
	Type       string
	Fields     map[string]string
	Values     map[string]*Block
	Statements map[string][]*Block
}

// Stack is a top-level chain of blocks at an absolute canvas position.
// Blocks[0] is the root; each following block hangs off the previous
// block's next connector.
type Stack struct {
	X      int
	Y      int
	Blocks []*Block
}

// Root returns the first block of the stack, or nil.
func (s *Stack) Root() *Block {
	if len(s.Blocks) == 0 {
		return nil
	}
	return s.Blocks[0]
}

// Graph is the forest of stacks on the canvas.
type Graph struct {
	Stacks []*Stack
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// AddStack places a chain of blocks at (x, y) and returns the new stack.
func (g *Graph) AddStack(x, y int, chain ...*Block) *Stack {
	s := &Stack{X: x, Y: y, Blocks: chain}
	g.Stacks = append(g.Stacks, s)
	return s
}

// RemoveStack deletes the stack at index i.
func (g *Graph) RemoveStack(i int) bool {
	if i < 0 || i >= len(g.Stacks) {
		return false
	}
	g.Stacks = slices.Delete(g.Stacks, i, i+1)
	return true
}

// RootsOfType returns the stacks whose root block has the given type.
func (g *Graph) RootsOfType(typ string) []*Stack {
	var out []*Stack
	for _, s := range g.Stacks {
		if r := s.Root(); r != nil && r.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

// Len counts every block in the graph.
func (g *Graph) Len() int {
	n := 0
	g.Walk(func(*Block, string) bool {
		n++
		return true
	})
	return n
}

// Walk visits every block depth first, in the order sockets appear in the
// maps' sorted keys. fn receives the block's path; returning false stops the
// walk.
func (g *Graph) Walk(fn func(b *Block, path string) bool) {
	for si, s := range g.Stacks {
		for bi, b := range s.Blocks {
			if !walkBlock(b, stackPath(si, bi), fn) {
				return
			}
		}
	}
}

func walkBlock(b *Block, path string, fn func(*Block, string) bool) bool {
	if b == nil {
		return true
	}
	if !fn(b, path) {
		return false
	}
	for _, name := range slices.Sorted(maps.Keys(b.Values)) {
		if !walkBlock(b.Values[name], valuePath(path, name), fn) {
			return false
		}
	}
	for _, name := range slices.Sorted(maps.Keys(b.Statements)) {
		for i, c := range b.Statements[name] {
			if !walkBlock(c, statementPath(path, name, i), fn) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := &Graph{Stacks: make([]*Stack, len(g.Stacks))}
	for i, s := range g.Stacks {
		cs := &Stack{X: s.X, Y: s.Y, Blocks: make([]*Block, len(s.Blocks))}
		for j, b := range s.Blocks {
			cs.Blocks[j] = b.Clone()
		}
		out.Stacks[i] = cs
	}
	return out
}

// Clone returns a deep copy of the block and its children.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	out := &Block{ID: b.ID, Type: b.Type}
	if b.Fields != nil {
		out.Fields = maps.Clone(b.Fields)
	}
	if b.Values != nil {
		out.Values = make(map[string]*Block, len(b.Values))
		for k, v := range b.Values {
			out.Values[k] = v.Clone()
		}
	}
	if b.Statements != nil {
		out.Statements = make(map[string][]*Block, len(b.Statements))
		for k, list := range b.Statements {
			cl := make([]*Block, len(list))
			for i, c := range list {
				cl[i] = c.Clone()
			}
			out.Statements[k] = cl
		}
	}
	return out
}

// Field returns a field value and whether it is set.
func (b *Block) Field(name string) (string, bool) {
	v, ok := b.Fields[name]
	return v, ok
}

// WithField sets a field without checking it against the schema.
func (b *Block) WithField(name, value string) *Block {
	if b.Fields == nil {
		b.Fields = make(map[string]string)
	}
	b.Fields[name] = value
	return b
}

// WithValue plugs child into a value socket.
func (b *Block) WithValue(socket string, child *Block) *Block {
	if b.Values == nil {
		b.Values = make(map[string]*Block)
	}
	b.Values[socket] = child
	return b
}

// Append adds children to the end of a statement socket.
func (b *Block) Append(socket string, children ...*Block) *Block {
	if b.Statements == nil {
		b.Statements = make(map[string][]*Block)
	}
	b.Statements[socket] = append(b.Statements[socket], children...)
	return b
}

// Equal reports whether two graphs have the same block types, field values,
// socket nesting and root positions. Block ids are ignored, and an empty
// socket equals an absent one.
func Equal(a, b *Graph) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Stacks) != len(b.Stacks) {
		return false
	}
	for i := range a.Stacks {
		sa, sb := a.Stacks[i], b.Stacks[i]
		if sa.X != sb.X || sa.Y != sb.Y || !chainEqual(sa.Blocks, sb.Blocks) {
			return false
		}
	}
	return true
}

// BlockEqual compares two block subtrees the way Equal does.
func BlockEqual(a, b *Block) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type {
		return false
	}
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for k, v := range a.Fields {
		if w, ok := b.Fields[k]; !ok || w != v {
			return false
		}
	}

	if countValues(a) != countValues(b) {
		return false
	}
	for k, v := range a.Values {
		if v == nil {
			continue
		}
		if !BlockEqual(v, b.Values[k]) {
			return false
		}
	}

	if countStatements(a) != countStatements(b) {
		return false
	}
	for k, list := range a.Statements {
		if len(list) == 0 {
			continue
		}
		if !chainEqual(list, b.Statements[k]) {
			return false
		}
	}
	return true
}

func chainEqual(a, b []*Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !BlockEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func countValues(b *Block) int {
	n := 0
	for _, v := range b.Values {
		if v != nil {
			n++
		}
	}
	return n
}

func countStatements(b *Block) int {
	n := 0
	for _, list := range b.Statements {
		if len(list) > 0 {
			n++
		}
	}
	return n
}

func stackPath(stack, index int) string {
	return strconv.Itoa(stack) + "." + strconv.Itoa(index)
}

func valuePath(parent, socket string) string {
	return parent + "/" + socket
}

func statementPath(parent, socket string, index int) string {
	return parent + "/" + socket + "." + strconv.Itoa(index)
}
