package document

import (
	"fmt"
	"slices"
)

// Command is one atomic edit. A command that returns an error leaves the document untouched.
type Command func(tx *Tx) error

// Tx is a private, mutable copy of the state handed to a command.
type Tx struct {
	*State
}

func (tx *Tx) SetSelection(sel Selection) error {
	size := tx.ContentSize()
	if sel.Anchor < 0 || sel.Head < 0 || sel.Anchor > size || sel.Head > size {
		return fmt.Errorf("%w: selection %d..%d outside 0..%d", ErrOutOfRange, sel.Anchor, sel.Head, size)
	}
	tx.sel = sel
	return nil
}

// NewNode allocates a detached node of a registered type with normalized attributes.
func (tx *Tx) NewNode(typ string, attrs Attrs) (NodeID, error) {
	spec, ok := tx.schema.Spec(typ)
	if !ok {
		return NoNode, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	return tx.alloc(typ, normalizeAttrs(spec, attrs)), nil
}

func (tx *Tx) NewText(text string, marks []Mark) NodeID {
	id := tx.alloc(TypeText, nil)
	tx.nodes[id].Text = text
	tx.nodes[id].Marks = append([]Mark(nil), marks...)
	return id
}

// Append attaches child as the last child of parent.
func (tx *Tx) Append(parent, child NodeID) {
	tx.Insert(parent, len(tx.nodes[parent].Children), child)
}

func (tx *Tx) Insert(parent NodeID, index int, child NodeID) {
	p := tx.nodes[parent]
	index = min(max(index, 0), len(p.Children))
	p.Children = slices.Insert(p.Children, index, child)
	tx.nodes[child].Parent = parent
}

// detach unlinks id from its parent and keeps the subtree alive.
func (tx *Tx) detach(id NodeID) {
	n := tx.nodes[id]
	if n.Parent == NoNode {
		return
	}
	p := tx.nodes[n.Parent]
	if i := slices.Index(p.Children, id); i >= 0 {
		p.Children = slices.Delete(p.Children, i, i+1)
	}
	n.Parent = NoNode
}

// Remove detaches id and retires it together with its subtree.
func (tx *Tx) Remove(id NodeID) {
	tx.detach(id)
	tx.kill(id)
}

func (tx *Tx) kill(id NodeID) {
	n := tx.nodes[id]
	n.dead = true
	for _, c := range n.Children {
		tx.kill(c)
	}
}

func (tx *Tx) setChildren(parent NodeID, children []NodeID) {
	for _, c := range children {
		tx.nodes[c].Parent = parent
	}
	tx.nodes[parent].Children = children
}

// SetType changes a node's type in place, keeping its id and children.
func (tx *Tx) SetType(id NodeID, typ string, attrs Attrs) error {
	spec, ok := tx.schema.Spec(typ)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	n := tx.Node(id)
	if n == nil {
		return fmt.Errorf("%w: node %d", ErrDetached, id)
	}
	n.Type = typ
	n.Attrs = normalizeAttrs(spec, attrs)
	return nil
}

// PatchAttrs merges patch into the node's attributes.
func (tx *Tx) PatchAttrs(id NodeID, patch Attrs) error {
	n := tx.Node(id)
	if n == nil {
		return fmt.Errorf("%w: node %d", ErrDetached, id)
	}
	merged := n.Attrs.Clone()
	if merged == nil {
		merged = Attrs{}
	}
	for k, v := range patch {
		merged[k] = v
	}
	n.Attrs = normalizeAttrs(tx.specOf(n.Type), merged)
	return nil
}

// mergeText joins adjacent text children with equal marks and drops empty ones.
func (tx *Tx) mergeText(parent NodeID) {
	p := tx.nodes[parent]
	out := make([]NodeID, 0, len(p.Children))
	for _, c := range p.Children {
		n := tx.nodes[c]
		if n.IsText() && n.Text == "" {
			tx.kill(c)
			continue
		}
		if n.IsText() && len(out) > 0 {
			prev := tx.nodes[out[len(out)-1]]
			if prev.IsText() && sameMarks(prev.Marks, n.Marks) {
				prev.Text += n.Text
				tx.kill(c)
				continue
			}
		}
		out = append(out, c)
	}
	p.Children = out
}

// fill gives empty containers the content they require.
func (tx *Tx) fill(id NodeID) {
	n := tx.nodes[id]
	for _, c := range n.Children {
		tx.fill(c)
	}
	if len(n.Children) > 0 {
		return
	}
	switch tx.specOf(n.Type).Content {
	case ContentBlocks:
		if p, err := tx.NewNode(TypeParagraph, nil); err == nil {
			tx.Append(id, p)
		}
	case ContentListItems:
		if li, err := tx.NewNode(TypeListItem, nil); err == nil {
			tx.Append(id, li)
			tx.fill(li)
		}
	}
}

// mapText rewrites the marks of every text run inside from..to, splitting runs at the edges.
// Text in code blocks is skipped. It reports whether any run changed.
func (tx *Tx) mapText(from, to int, fn func([]Mark) []Mark) bool {
	changed := false
	for _, tb := range tx.Textblocks(from, to) {
		if tx.Spec(tb).Content != ContentInline {
			continue
		}
		start, err := tx.contentStart(tb)
		if err != nil {
			continue
		}
		var children []NodeID
		pos := start
		for _, c := range tx.nodes[tb].Children {
			n := tx.nodes[c]
			size := tx.Size(c)
			a, b := max(from, pos), min(to, pos+size)
			if !n.IsText() || a >= b {
				children = append(children, c)
				pos += size
				continue
			}

			runes := []rune(n.Text)
			before, mid, after := runes[:a-pos], runes[a-pos:b-pos], runes[b-pos:]
			marks := fn(append([]Mark(nil), n.Marks...))
			if !sameMarks(marks, n.Marks) {
				changed = true
			}
			if len(before) > 0 {
				children = append(children, tx.NewText(string(before), n.Marks))
			}
			children = append(children, tx.NewText(string(mid), marks))
			if len(after) > 0 {
				children = append(children, tx.NewText(string(after), n.Marks))
			}
			tx.kill(c)
			pos += size
		}
		tx.setChildren(tb, children)
		tx.mergeText(tb)
	}
	return changed
}

// AddMark applies m over from..to.
func (tx *Tx) AddMark(from, to int, m Mark) bool {
	return tx.mapText(from, to, func(marks []Mark) []Mark { return addToSet(marks, m) })
}

// RemoveMark strips every mark of type t over from..to.
func (tx *Tx) RemoveMark(from, to int, t string) bool {
	return tx.mapText(from, to, func(marks []Mark) []Mark { return removeFromSet(marks, t) })
}

// InsertBlockAtCursor places a new block at the cursor: an empty top-level paragraph under the
// cursor is replaced, otherwise the block goes after the cursor's top-level block. The cursor
// moves into the following paragraph, which is created when missing.
func (tx *Tx) InsertBlockAtCursor(typ string, attrs Attrs) (NodeID, error) {
	id, err := tx.NewNode(typ, attrs)
	if err != nil {
		return NoNode, err
	}
	tx.fill(id)

	from := tx.sel.From()
	index := 0
	if tb := tx.Textblock(from); tb != NoNode {
		top := tx.TopLevel(tb)
		index = tx.indexInParent(top) + 1
		if top == tb && tx.nodes[tb].Type == TypeParagraph && len(tx.nodes[tb].Children) == 0 {
			index--
			tx.Remove(tb)
		}
	} else if r, err := tx.Resolve(from); err == nil {
		index = r.Index
		if len(r.Path) > 1 {
			index = tx.indexInParent(r.Path[1]) + 1
		}
	}
	tx.Insert(tx.root, index, id)

	next := NoNode
	if siblings := tx.nodes[tx.root].Children; index+1 < len(siblings) {
		next = siblings[index+1]
	}
	if next == NoNode || tx.nodes[next].Type != TypeParagraph {
		p, err := tx.NewNode(TypeParagraph, nil)
		if err != nil {
			return NoNode, err
		}
		tx.Insert(tx.root, index+1, p)
		next = p
	}
	start, _ := tx.contentStart(next)
	tx.sel = Cursor(start)
	return id, nil
}
