// Package toolbar is the floating formatting toolbar shown over a text selection.
package toolbar

import (
	"sync"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/rs/zerolog"
)

const DefaultOffset = 50

var toolbarLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	toolbarLogger = l
}

type Mode int

const (
	Hidden Mode = iota
	Visible
	// URLCapture is Visible with the link URL input open.
	URLCapture
)

func (m Mode) String() string {
	switch m {
	case Visible:
		return "visible"
	case URLCapture:
		return "url-capture"
	default:
		return "hidden"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Coords are the screen coordinates of a document position.
type Coords struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Viewport maps document positions to screen coordinates.
type Viewport interface {
	CoordsAtPos(pos int) (Coords, error)
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Editor is the document the toolbar acts on.
type Editor interface {
	Snapshot() *document.State
	Apply(cmd document.Command) error
	IsActive(name string, attrs document.Attrs) bool
}

type Toolbar struct {
	mu     sync.Mutex
	doc    Editor
	offset float64
	mode   Mode
	pos    Position
}

// New returns a hidden toolbar floating offset pixels above the selection.
func New(doc Editor, offset int) *Toolbar {
	if offset <= 0 {
		offset = DefaultOffset
	}
	return &Toolbar{doc: doc, offset: float64(offset)}
}

func (t *Toolbar) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

func (t *Toolbar) Position() Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

// SelectionChanged re-evaluates visibility and position for the document's current selection.
// An open URL input stays open while the selection remains eligible.
func (t *Toolbar) SelectionChanged(vp Viewport) Mode {
	state := t.doc.Snapshot()
	sel := state.Selection()

	t.mu.Lock()
	defer t.mu.Unlock()

	if !Eligible(state) {
		t.mode = Hidden
		return t.mode
	}

	start, err := vp.CoordsAtPos(sel.From())
	if err == nil {
		var end Coords
		if end, err = vp.CoordsAtPos(sel.To()); err == nil {
			t.pos = Position{X: (start.Left + end.Left) / 2, Y: start.Top - t.offset}
		}
	}
	if err != nil {
		toolbarLogger.Debug().Err(err).Msg("No coordinates for selection, hiding toolbar")
		t.mode = Hidden
		return t.mode
	}

	if t.mode != URLCapture {
		t.mode = Visible
	}
	return t.mode
}

// OutsideClick hides the toolbar and discards any URL being entered.
func (t *Toolbar) OutsideClick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode = Hidden
}

// Escape closes the URL input, or the toolbar when no input is open.
func (t *Toolbar) Escape() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.mode {
	case URLCapture:
		t.mode = Visible
	default:
		t.mode = Hidden
	}
	return t.mode
}

// Eligible reports whether the selection is a non-empty range of plain text: nothing in it is
// an atomic block or a block showing its input form, and both ends sit in the same kind of
// paragraph-level node.
func Eligible(s *document.State) bool {
	sel := s.Selection()
	if sel.Empty() {
		return false
	}

	ok := true
	s.NodesBetween(sel.From(), sel.To(), func(n *document.Node, _ int) bool {
		if n.IsText() {
			return true
		}
		if s.Spec(n.ID).Atomic || n.Attrs.Bool(document.AttrEditing) {
			ok = false
		}
		return ok
	})
	if !ok {
		return false
	}

	from, err := s.Resolve(sel.From())
	if err != nil {
		return false
	}
	to, err := s.Resolve(sel.To())
	if err != nil {
		return false
	}
	a, b := s.Node(from.Parent), s.Node(to.Parent)
	if a == nil || b == nil || a.Type != b.Type {
		return false
	}
	switch a.Type {
	case document.TypeParagraph, document.TypeListItem, document.TypeText:
		return true
	}
	return false
}
