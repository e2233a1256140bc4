package document

import (
	"fmt"
	"strings"
)

func rejected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCommandRejected, fmt.Sprintf(format, args...))
}

// Chain runs commands in order inside one transaction.
func Chain(cmds ...Command) Command {
	return func(tx *Tx) error {
		for _, cmd := range cmds {
			if err := cmd(tx); err != nil {
				return err
			}
		}
		return nil
	}
}

// SetSelectionCmd moves the selection as part of a command chain.
func SetSelectionCmd(sel Selection) Command {
	return func(tx *Tx) error {
		return tx.SetSelection(sel)
	}
}

// ToggleMark removes the mark when it covers the whole selection, adds it otherwise.
func ToggleMark(t string) Command {
	return func(tx *Tx) error {
		if !IsMark(t) {
			return rejected("unknown mark %s", t)
		}
		from, to := tx.sel.From(), tx.sel.To()
		if from == to {
			return rejected("%s needs a range", t)
		}
		if tx.markCovers(from, to, t) {
			tx.RemoveMark(from, to, t)
			return nil
		}
		if !tx.AddMark(from, to, Mark{Type: t}) {
			return rejected("%s does not apply here", t)
		}
		return nil
	}
}

// SetLink links the selection; an empty href removes links instead.
func SetLink(href string) Command {
	return func(tx *Tx) error {
		href = strings.TrimSpace(href)
		if href == "" {
			return UnsetLink()(tx)
		}
		from, to := tx.linkRange()
		if from == to {
			return rejected("link needs a range")
		}
		if !tx.AddMark(from, to, Mark{Type: MarkLink, Href: href}) {
			if tx.markCovers(from, to, MarkLink) {
				return nil
			}
			return rejected("link does not apply here")
		}
		return nil
	}
}

// UnsetLink removes links from the selection, extended to the whole link under it.
func UnsetLink() Command {
	return func(tx *Tx) error {
		from, to := tx.linkRange()
		tx.RemoveMark(from, to, MarkLink)
		return nil
	}
}

// linkRange is the selection widened to the full extent of any link touching its ends.
func (tx *Tx) linkRange() (int, int) {
	from, to := tx.sel.From(), tx.sel.To()
	tb := tx.Textblock(from)
	if tb == NoNode || tb != tx.Textblock(to) {
		return from, to
	}
	start, err := tx.contentStart(tb)
	if err != nil {
		return from, to
	}

	type run struct {
		from, to int
		link     bool
	}
	var runs []run
	pos := start
	for _, c := range tx.nodes[tb].Children {
		size := tx.Size(c)
		runs = append(runs, run{pos, pos + size, tx.nodes[c].HasMark(MarkLink)})
		pos += size
	}
	for i, r := range runs {
		if !r.link {
			continue
		}
		j := i
		for j+1 < len(runs) && runs[j+1].link {
			j++
		}
		if r.from <= to && runs[j].to >= from {
			from, to = min(from, r.from), max(to, runs[j].to)
		}
	}
	return from, to
}

// markCovers reports whether every text run in from..to carries the mark.
func (s *State) markCovers(from, to int, t string) bool {
	found := false
	all := true
	s.NodesBetween(from, to, func(n *Node, _ int) bool {
		if n.IsText() {
			found = true
			if !n.HasMark(t) {
				all = false
			}
		}
		return all
	})
	return found && all
}

// SetBlockType turns every textblock in the selection into typ.
func SetBlockType(typ string, attrs Attrs) Command {
	return func(tx *Tx) error {
		spec, ok := tx.schema.Spec(typ)
		if !ok || !spec.IsTextblock() {
			return rejected("%s is not a textblock", typ)
		}
		blocks := tx.Textblocks(tx.sel.From(), tx.sel.To())
		if len(blocks) == 0 {
			return rejected("no textblock in selection")
		}
		for _, tb := range blocks {
			if spec.Content == ContentText {
				tx.flattenToText(tb)
			}
			if err := tx.SetType(tb, typ, attrs); err != nil {
				return err
			}
		}
		return nil
	}
}

// flattenToText drops marks and turns hard breaks into newlines.
func (tx *Tx) flattenToText(tb NodeID) {
	var sb strings.Builder
	for _, c := range tx.nodes[tb].Children {
		n := tx.nodes[c]
		if n.IsText() {
			sb.WriteString(n.Text)
		} else if n.Type == TypeHardBreak {
			sb.WriteString("\n")
		}
		tx.kill(c)
	}
	tx.nodes[tb].Children = nil
	if sb.Len() > 0 {
		tx.Append(tb, tx.NewText(sb.String(), nil))
	}
}

func SetHeading(level int) Command {
	return func(tx *Tx) error {
		if level < 1 || level > 6 {
			return rejected("heading level %d", level)
		}
		return SetBlockType(TypeHeading, Attrs{"level": level})(tx)
	}
}

func SetParagraph() Command {
	return SetBlockType(TypeParagraph, nil)
}

// ToggleCodeBlock converts to a code block, or back to paragraphs when every block already is one.
func ToggleCodeBlock() Command {
	return func(tx *Tx) error {
		blocks := tx.Textblocks(tx.sel.From(), tx.sel.To())
		all := len(blocks) > 0
		for _, tb := range blocks {
			if tx.nodes[tb].Type != TypeCodeBlock {
				all = false
			}
		}
		if all {
			return SetParagraph()(tx)
		}
		return SetBlockType(TypeCodeBlock, nil)(tx)
	}
}

func ToggleBulletList() Command {
	return toggleList(TypeBulletList)
}

func ToggleOrderedList() Command {
	return toggleList(TypeOrderedList)
}

func toggleList(listType string) Command {
	return func(tx *Tx) error {
		bm := tx.bookmark()
		from, to := tx.sel.From(), tx.sel.To()

		if list, a, b, ok := tx.sharedAncestor(from, to, isList); ok {
			if tx.nodes[list].Type == listType {
				tx.lift(list, a, b, true)
			} else if err := tx.SetType(list, listType, nil); err != nil {
				return err
			}
			tx.restore(bm)
			return nil
		}

		parent, a, b, ok := tx.blockRange(from, to)
		if !ok {
			return rejected("no block range to wrap")
		}
		children := tx.nodes[parent].Children[a : b+1]
		for _, c := range children {
			if tx.nodes[c].Type != TypeParagraph {
				return rejected("%s cannot hold %s", TypeListItem, tx.nodes[c].Type)
			}
		}
		list, err := tx.NewNode(listType, nil)
		if err != nil {
			return err
		}
		for _, c := range append([]NodeID(nil), children...) {
			item, err := tx.NewNode(TypeListItem, nil)
			if err != nil {
				return err
			}
			tx.detach(c)
			tx.Append(item, c)
			tx.Append(list, item)
		}
		tx.Insert(parent, a, list)
		tx.restore(bm)
		return nil
	}
}

func ToggleBlockquote() Command {
	return func(tx *Tx) error {
		bm := tx.bookmark()
		from, to := tx.sel.From(), tx.sel.To()

		isQuote := func(t string) bool { return t == TypeBlockquote }
		if quote, a, b, ok := tx.sharedAncestor(from, to, isQuote); ok {
			tx.lift(quote, a, b, false)
			tx.restore(bm)
			return nil
		}

		parent, a, b, ok := tx.blockRange(from, to)
		if !ok {
			return rejected("no block range to wrap")
		}
		quote, err := tx.NewNode(TypeBlockquote, nil)
		if err != nil {
			return err
		}
		for _, c := range append([]NodeID(nil), tx.nodes[parent].Children[a:b+1]...) {
			tx.detach(c)
			tx.Append(quote, c)
		}
		tx.Insert(parent, a, quote)
		tx.restore(bm)
		return nil
	}
}

// SetHorizontalRule inserts a rule the way block inserts work.
func SetHorizontalRule() Command {
	return func(tx *Tx) error {
		_, err := tx.InsertBlockAtCursor(TypeHorizontalRule, nil)
		return err
	}
}

// sharedAncestor finds the innermost node matching match that contains both ends, with the
// indexes of its children holding from and to.
func (s *State) sharedAncestor(from, to int, match func(string) bool) (NodeID, int, int, bool) {
	rf, err := s.Resolve(from)
	if err != nil {
		return NoNode, 0, 0, false
	}
	rt, err := s.Resolve(to)
	if err != nil {
		return NoNode, 0, 0, false
	}
	for d := min(len(rf.Path), len(rt.Path)) - 1; d >= 0; d-- {
		if rf.Path[d] != rt.Path[d] {
			continue
		}
		id := rf.Path[d]
		if !match(s.nodes[id].Type) {
			continue
		}
		if d+1 >= len(rf.Path) || d+1 >= len(rt.Path) {
			return NoNode, 0, 0, false
		}
		return id, s.indexInParent(rf.Path[d+1]), s.indexInParent(rt.Path[d+1]), true
	}
	return NoNode, 0, 0, false
}

// blockRange returns the deepest block container holding both ends and the span of its
// children covered by the selection.
func (s *State) blockRange(from, to int) (NodeID, int, int, bool) {
	rf, err := s.Resolve(from)
	if err != nil {
		return NoNode, 0, 0, false
	}
	rt, err := s.Resolve(to)
	if err != nil {
		return NoNode, 0, 0, false
	}
	d := 0
	for d+1 < len(rf.Path) && d+1 < len(rt.Path) && rf.Path[d+1] == rt.Path[d+1] {
		d++
	}
	for d >= 0 && s.Spec(rf.Path[d]).Content != ContentBlocks {
		d--
	}
	if d < 0 {
		return NoNode, 0, 0, false
	}
	parent := rf.Path[d]
	index := func(r ResolvedPos, end bool) int {
		if d+1 < len(r.Path) {
			return s.indexInParent(r.Path[d+1])
		}
		if end && r.Index > 0 {
			return r.Index - 1
		}
		return r.Index
	}
	a, b := index(rf, false), index(rt, true)
	if a < 0 || b < a || b >= len(s.nodes[parent].Children) {
		return NoNode, 0, 0, false
	}
	return parent, a, b, true
}

// lift moves children a..b of container out into its parent, splitting the container around
// them. List items are unwrapped so their blocks land in the parent directly.
func (tx *Tx) lift(container NodeID, a, b int, unwrapItems bool) {
	c := tx.nodes[container]
	parent := c.Parent
	at := tx.indexInParent(container)

	children := append([]NodeID(nil), c.Children...)
	before, selected, after := children[:a], children[a:b+1], children[b+1:]

	var lifted []NodeID
	for _, id := range selected {
		if unwrapItems && tx.nodes[id].Type == TypeListItem {
			lifted = append(lifted, tx.nodes[id].Children...)
			tx.nodes[id].Children = nil
			tx.kill(id)
			continue
		}
		lifted = append(lifted, id)
	}

	tx.setChildren(container, append([]NodeID(nil), before...))
	insertAt := at + 1
	if len(before) == 0 {
		tx.Remove(container)
		insertAt = at
	}
	for i, id := range lifted {
		tx.nodes[id].Parent = NoNode
		tx.Insert(parent, insertAt+i, id)
	}
	if len(after) > 0 {
		rest := tx.alloc(c.Type, c.Attrs.Clone())
		tx.setChildren(rest, append([]NodeID(nil), after...))
		tx.Insert(parent, insertAt+len(lifted), rest)
	}
}

// InsertText replaces the selection with text. Both ends must sit in the same textblock.
// The inserted run takes the marks of the text before the cursor.
func InsertText(text string) Command {
	return func(tx *Tx) error {
		from, to := tx.sel.From(), tx.sel.To()
		tb := tx.Textblock(from)
		if tb == NoNode || tb != tx.Textblock(to) {
			return rejected("text needs a textblock")
		}
		if err := tx.deleteInline(tb, from, to); err != nil {
			return err
		}
		if text == "" {
			tx.sel = Cursor(from)
			return nil
		}

		var marks []Mark
		if tx.Spec(tb).Content == ContentInline {
			marks = tx.marksBefore(tb, from)
		}
		index, pos := tx.splitInline(tb, from)
		tx.Insert(tb, index, tx.NewText(text, marks))
		tx.mergeText(tb)
		tx.sel = Cursor(pos + len([]rune(text)))
		return nil
	}
}

// DeleteSelection removes the selected inline content of a single textblock.
func DeleteSelection() Command {
	return func(tx *Tx) error {
		from, to := tx.sel.From(), tx.sel.To()
		if from == to {
			return rejected("nothing selected")
		}
		tb := tx.Textblock(from)
		if tb == NoNode || tb != tx.Textblock(to) {
			return rejected("selection spans blocks")
		}
		if err := tx.deleteInline(tb, from, to); err != nil {
			return err
		}
		tx.sel = Cursor(from)
		return nil
	}
}

// SplitBlock splits the textblock at the cursor; the second half becomes a paragraph when
// the split happens at the end of a heading.
func SplitBlock() Command {
	return func(tx *Tx) error {
		if !tx.sel.Empty() {
			if err := DeleteSelection()(tx); err != nil {
				return err
			}
		}
		pos := tx.sel.Head
		tb := tx.Textblock(pos)
		if tb == NoNode {
			return rejected("split needs a textblock")
		}
		n := tx.nodes[tb]
		index, _ := tx.splitInline(tb, pos)

		typ, attrs := n.Type, n.Attrs.Clone()
		if index == len(n.Children) && n.Type == TypeHeading {
			typ, attrs = TypeParagraph, nil
		}
		second, err := tx.NewNode(typ, attrs)
		if err != nil {
			return err
		}
		tail := append([]NodeID(nil), n.Children[index:]...)
		n.Children = n.Children[:index]
		tx.setChildren(second, tail)
		tx.Insert(n.Parent, tx.indexInParent(tb)+1, second)

		start, _ := tx.contentStart(second)
		tx.sel = Cursor(start)
		return nil
	}
}

// splitInline guarantees a child boundary at pos inside tb and returns the child index there.
func (tx *Tx) splitInline(tb NodeID, pos int) (int, int) {
	start, _ := tx.contentStart(tb)
	at := start
	for i, c := range tx.nodes[tb].Children {
		size := tx.Size(c)
		if pos == at {
			return i, pos
		}
		if pos < at+size && tx.nodes[c].IsText() {
			n := tx.nodes[c]
			runes := []rune(n.Text)
			head, tail := string(runes[:pos-at]), string(runes[pos-at:])
			n.Text = head
			tx.Insert(tb, i+1, tx.NewText(tail, n.Marks))
			return i + 1, pos
		}
		at += size
	}
	return len(tx.nodes[tb].Children), pos
}

func (tx *Tx) deleteInline(tb NodeID, from, to int) error {
	if from == to {
		return nil
	}
	a, _ := tx.splitInline(tb, from)
	b, _ := tx.splitInline(tb, to)
	doomed := append([]NodeID(nil), tx.nodes[tb].Children[a:b]...)
	for _, c := range doomed {
		tx.Remove(c)
	}
	tx.mergeText(tb)
	return nil
}

func (s *State) marksBefore(tb NodeID, pos int) []Mark {
	start, err := s.contentStart(tb)
	if err != nil {
		return nil
	}
	at := start
	var last []Mark
	for _, c := range s.nodes[tb].Children {
		if at >= pos {
			break
		}
		if n := s.nodes[c]; n.IsText() {
			last = n.Marks
		} else {
			last = nil
		}
		at += s.Size(c)
	}
	return last
}
