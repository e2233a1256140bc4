package document

import (
	"fmt"
	"unicode/utf8"
)

// State is an immutable-by-convention snapshot: the arena, the root and the selection.
// Commands mutate a private clone through Tx.
type State struct {
	schema Schema
	nodes  []*Node
	root   NodeID
	sel    Selection
	// floor is the lowest id alloc may hand out; ids below it belong to other snapshots.
	floor NodeID

	storedMarks []Mark
}

func newState(schema Schema, floor NodeID) *State {
	s := &State{schema: schema, floor: floor}
	s.root = s.alloc(TypeDoc, nil)
	return s
}

func (s *State) clone() *State {
	c := &State{
		schema:      s.schema,
		nodes:       make([]*Node, len(s.nodes)),
		root:        s.root,
		sel:         s.sel,
		floor:       s.floor,
		storedMarks: append([]Mark(nil), s.storedMarks...),
	}
	for i, n := range s.nodes {
		c.nodes[i] = n.clone()
	}
	return c
}

func (s *State) alloc(typ string, attrs Attrs) NodeID {
	for NodeID(len(s.nodes)) < s.floor {
		s.nodes = append(s.nodes, &Node{ID: NodeID(len(s.nodes)), Parent: NoNode, dead: true})
	}
	id := NodeID(len(s.nodes))
	s.nodes = append(s.nodes, &Node{ID: id, Type: typ, Attrs: attrs, Parent: NoNode})
	return id
}

func (s *State) Schema() Schema {
	return s.schema
}

func (s *State) Root() NodeID {
	return s.root
}

func (s *State) Selection() Selection {
	return s.sel
}

// Node returns the live node with the given id, or nil.
func (s *State) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(s.nodes) || s.nodes[id].dead {
		return nil
	}
	return s.nodes[id]
}

func (s *State) Spec(id NodeID) NodeSpec {
	n := s.Node(id)
	if n == nil {
		return NodeSpec{}
	}
	return s.specOf(n.Type)
}

func (s *State) specOf(typ string) NodeSpec {
	switch typ {
	case TypeDoc:
		return NodeSpec{Name: TypeDoc, Content: ContentBlocks}
	case TypeText:
		return NodeSpec{Name: TypeText, Group: GroupInline}
	}
	spec, _ := s.schema.Spec(typ)
	return spec
}

func (s *State) isLeaf(n *Node) bool {
	return !n.IsText() && s.specOf(n.Type).IsLeaf()
}

// Size is the number of positions the node occupies in its parent.
func (s *State) Size(id NodeID) int {
	n := s.nodes[id]
	if n.IsText() {
		return utf8.RuneCountInString(n.Text)
	}
	if s.isLeaf(n) {
		return 1
	}
	return 2 + s.contentSize(id)
}

func (s *State) contentSize(id NodeID) int {
	total := 0
	for _, c := range s.nodes[id].Children {
		total += s.Size(c)
	}
	return total
}

// ContentSize is the largest valid position.
func (s *State) ContentSize() int {
	return s.contentSize(s.root)
}

// PosOf returns the position directly before the node.
func (s *State) PosOf(id NodeID) (int, error) {
	n := s.Node(id)
	if n == nil {
		return 0, fmt.Errorf("%w: node %d", ErrDetached, id)
	}
	if id == s.root {
		return 0, nil
	}
	return s.childPos(n.Parent, id)
}

// contentStart is the position of the first child of id.
func (s *State) contentStart(id NodeID) (int, error) {
	if id == s.root {
		return 0, nil
	}
	before, err := s.PosOf(id)
	if err != nil {
		return 0, err
	}
	return before + 1, nil
}

func (s *State) childPos(parent, child NodeID) (int, error) {
	pos, err := s.contentStart(parent)
	if err != nil {
		return 0, err
	}
	for _, c := range s.nodes[parent].Children {
		if c == child {
			return pos, nil
		}
		pos += s.Size(c)
	}
	return 0, fmt.Errorf("node %d is not a child of %d", child, parent)
}

func (s *State) indexInParent(id NodeID) int {
	n := s.nodes[id]
	if n.Parent == NoNode {
		return -1
	}
	for i, c := range s.nodes[n.Parent].Children {
		if c == id {
			return i
		}
	}
	return -1
}

// ResolvedPos describes where a position falls: the innermost node whose content holds it
// and the path from the root down to that node.
type ResolvedPos struct {
	Pos    int
	Path   []NodeID
	Parent NodeID
	// ParentOffset is Pos relative to the start of Parent's content.
	ParentOffset int
	// Index is the child of Parent at or after Pos.
	Index int
}

func (r ResolvedPos) Depth() int {
	return len(r.Path) - 1
}

func (s *State) Resolve(pos int) (ResolvedPos, error) {
	if pos < 0 || pos > s.ContentSize() {
		return ResolvedPos{}, fmt.Errorf("%w: %d outside 0..%d", ErrOutOfRange, pos, s.ContentSize())
	}

	node := s.root
	start := 0
	path := []NodeID{node}

descend:
	for {
		offset := start
		for i, c := range s.nodes[node].Children {
			size := s.Size(c)
			child := s.nodes[c]
			if !child.IsText() && !s.isLeaf(child) && pos > offset && pos < offset+size {
				node = c
				start = offset + 1
				path = append(path, c)
				continue descend
			}
			if pos < offset+size {
				return ResolvedPos{Pos: pos, Path: path, Parent: node, ParentOffset: pos - start, Index: i}, nil
			}
			offset += size
		}
		return ResolvedPos{Pos: pos, Path: path, Parent: node, ParentOffset: pos - start, Index: len(s.nodes[node].Children)}, nil
	}
}

// NodesBetween calls fn for every node overlapping from..to, parents before children.
// Returning false from fn skips the node's content.
func (s *State) NodesBetween(from, to int, fn func(n *Node, pos int) bool) {
	s.nodesBetween(s.root, from, to, 0, fn)
}

func (s *State) nodesBetween(parent NodeID, from, to, start int, fn func(*Node, int) bool) {
	pos := start
	for _, c := range s.nodes[parent].Children {
		if pos >= to {
			break
		}
		child := s.nodes[c]
		end := pos + s.Size(c)
		if end > from {
			if fn(child, pos) && !child.IsText() && !s.isLeaf(child) && len(child.Children) > 0 {
				inner := pos + 1
				s.nodesBetween(c, max(from, inner), min(end-1, to), inner, fn)
			}
		}
		pos = end
	}
}

// Textblock returns the textblock enclosing pos, or NoNode.
func (s *State) Textblock(pos int) NodeID {
	r, err := s.Resolve(pos)
	if err != nil {
		return NoNode
	}
	if s.Spec(r.Parent).IsTextblock() {
		return r.Parent
	}
	return NoNode
}

// TextContent concatenates the text below id; leaves contribute nothing.
func (s *State) TextContent(id NodeID) string {
	n := s.Node(id)
	if n == nil {
		return ""
	}
	if n.IsText() {
		return n.Text
	}
	out := ""
	for _, c := range n.Children {
		out += s.TextContent(c)
	}
	return out
}

// Textblocks returns the textblocks overlapping from..to in document order.
func (s *State) Textblocks(from, to int) []NodeID {
	var out []NodeID
	s.NodesBetween(from, to, func(n *Node, _ int) bool {
		if s.specOf(n.Type).IsTextblock() {
			out = append(out, n.ID)
			return false
		}
		return true
	})
	return out
}

// Ancestors returns the chain from id's parent up to the root.
func (s *State) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for n := s.Node(id); n != nil && n.Parent != NoNode; n = s.Node(n.Parent) {
		out = append(out, n.Parent)
	}
	return out
}

// TopLevel returns the child of the root containing id.
func (s *State) TopLevel(id NodeID) NodeID {
	for n := s.Node(id); n != nil; n = s.Node(n.Parent) {
		if n.Parent == s.root {
			return n.ID
		}
	}
	return NoNode
}

// Walk visits every live node below the root in document order.
func (s *State) Walk(fn func(n *Node, depth int) bool) {
	var walk func(id NodeID, depth int) bool
	walk = func(id NodeID, depth int) bool {
		for _, c := range s.nodes[id].Children {
			if !fn(s.nodes[c], depth) {
				return false
			}
			if !walk(c, depth+1) {
				return false
			}
		}
		return true
	}
	walk(s.root, 0)
}

// high is one past the largest id in the arena.
func (s *State) high() NodeID {
	return NodeID(len(s.nodes))
}
