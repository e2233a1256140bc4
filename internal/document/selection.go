package document

// Selection is a pair of positions; Head is the end that moves.
type Selection struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

func Cursor(pos int) Selection {
	return Selection{Anchor: pos, Head: pos}
}

func (s Selection) From() int {
	return min(s.Anchor, s.Head)
}

func (s Selection) To() int {
	return max(s.Anchor, s.Head)
}

func (s Selection) Empty() bool {
	return s.Anchor == s.Head
}

// selectionBookmark pins each end to a textblock and an offset into it, so a selection
// survives structural edits that shift absolute positions.
type selectionBookmark struct {
	anchor, head posBookmark
}

type posBookmark struct {
	block  NodeID
	offset int
	raw    int
}

func (s *State) bookmarkPos(pos int) posBookmark {
	if tb := s.Textblock(pos); tb != NoNode {
		start, _ := s.contentStart(tb)
		return posBookmark{block: tb, offset: pos - start, raw: pos}
	}
	return posBookmark{block: NoNode, raw: pos}
}

func (s *State) bookmark() selectionBookmark {
	return selectionBookmark{anchor: s.bookmarkPos(s.sel.Anchor), head: s.bookmarkPos(s.sel.Head)}
}

func (s *State) restorePos(b posBookmark) int {
	if b.block != NoNode && s.Node(b.block) != nil {
		if start, err := s.contentStart(b.block); err == nil {
			return start + min(b.offset, s.contentSize(b.block))
		}
	}
	return min(max(b.raw, 0), s.ContentSize())
}

func (s *State) restore(b selectionBookmark) {
	s.sel = Selection{Anchor: s.restorePos(b.anchor), Head: s.restorePos(b.head)}
}
