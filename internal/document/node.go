package document

import (
	"maps"
	"strconv"
)

// NodeID addresses a node in the document arena. Ids are never reused within a document.
type NodeID int

const NoNode NodeID = -1

const (
	TypeDoc  = "doc"
	TypeText = "text"
)

// Node is one arena slot. Parent and children are ids, never pointers.
type Node struct {
	ID       NodeID
	Type     string
	Attrs    Attrs
	Text     string
	Marks    []Mark
	Parent   NodeID
	Children []NodeID

	dead bool
}

func (n *Node) IsText() bool {
	return n.Type == TypeText
}

func (n *Node) clone() *Node {
	c := *n
	c.Attrs = n.Attrs.Clone()
	c.Marks = append([]Mark(nil), n.Marks...)
	c.Children = append([]NodeID(nil), n.Children...)
	return &c
}

func (n *Node) HasMark(t string) bool {
	for _, m := range n.Marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

func (n *Node) MarkOf(t string) (Mark, bool) {
	for _, m := range n.Marks {
		if m.Type == t {
			return m, true
		}
	}
	return Mark{}, false
}

// Mark is an inline formatting attribute. Href is only meaningful for links.
type Mark struct {
	Type string
	Href string
}

const (
	MarkBold      = "bold"
	MarkItalic    = "italic"
	MarkUnderline = "underline"
	MarkStrike    = "strike"
	MarkCode      = "code"
	MarkLink      = "link"
)

// markRank orders marks inside a text node and the nesting of serialized tags.
var markRank = map[string]int{
	MarkLink:      0,
	MarkBold:      1,
	MarkItalic:    2,
	MarkUnderline: 3,
	MarkStrike:    4,
	MarkCode:      5,
}

func IsMark(t string) bool {
	_, ok := markRank[t]
	return ok
}

func sameMarks(a, b []Mark) bool {
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

// addToSet inserts m keeping rank order; an existing mark of the same type is replaced.
func addToSet(set []Mark, m Mark) []Mark {
	out := make([]Mark, 0, len(set)+1)
	placed := false
	for _, cur := range set {
		if cur.Type == m.Type {
			continue
		}
		if !placed && markRank[m.Type] < markRank[cur.Type] {
			out = append(out, m)
			placed = true
		}
		out = append(out, cur)
	}
	if !placed {
		out = append(out, m)
	}
	return out
}

func removeFromSet(set []Mark, t string) []Mark {
	out := make([]Mark, 0, len(set))
	for _, cur := range set {
		if cur.Type != t {
			out = append(out, cur)
		}
	}
	return out
}

// Attrs holds node attributes. Values are string, bool or int.
type Attrs map[string]any

func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	return maps.Clone(a)
}

func (a Attrs) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func (a Attrs) Bool(key string) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

func (a Attrs) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		i, _ := strconv.Atoi(v)
		return i
	}
	return 0
}

// Matches reports whether every key of want has the same string form in a.
func (a Attrs) Matches(want Attrs) bool {
	for k := range want {
		if a.String(k) != want.String(k) {
			return false
		}
	}
	return true
}
