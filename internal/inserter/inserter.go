// Package inserter drives the "+" trigger beside empty paragraphs and the block menu it opens.
package inserter

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/rs/zerolog"
)

const (
	// TriggerNudge lifts the trigger slightly above the paragraph's top edge.
	TriggerNudge = 2
	// MenuGap places the menu below the trigger.
	MenuGap = 30
)

var (
	ErrMenuClosed  = errors.New("block menu is not open")
	ErrUnknownItem = errors.New("unknown block menu item")
)

var inserterLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	inserterLogger = l
}

// Layout reports where the editing surface has laid out a paragraph.
type Layout interface {
	// ParagraphTop is the distance from the top of the editing surface to the paragraph.
	ParagraphTop(id document.NodeID) (float64, error)
	ScrollTop() float64
}

type Editor interface {
	Snapshot() *document.State
	Apply(cmd document.Command) error
}

// View is what the surface should draw.
type View struct {
	Trigger    bool              `json:"trigger"`
	TriggerTop float64           `json:"triggerTop"`
	Menu       bool              `json:"menu"`
	MenuTop    float64           `json:"menuTop"`
	Items      []schema.MenuItem `json:"items,omitempty"`
	Paragraph  document.NodeID   `json:"paragraph"`
}

type Inserter struct {
	mu       sync.Mutex
	doc      Editor
	registry *schema.Registry

	hovered   bool
	available bool
	menuOpen  bool
	lineTop   float64
	paragraph document.NodeID
}

func New(doc Editor, registry *schema.Registry) *Inserter {
	return &Inserter{doc: doc, registry: registry, paragraph: document.NoNode}
}

// PointerEntered records that the pointer has been over the editing surface. It stays set for
// the rest of the session.
func (in *Inserter) PointerEntered() {
	in.mu.Lock()
	in.hovered = true
	in.mu.Unlock()
}

// Recompute re-evaluates the trigger after input, a click, a key release or a scroll.
func (in *Inserter) Recompute(layout Layout) View {
	state := in.doc.Snapshot()

	in.mu.Lock()
	defer in.mu.Unlock()

	in.available = false
	in.paragraph = document.NoNode

	id, ok := emptyParagraph(state)
	if ok && in.hovered {
		top, err := layout.ParagraphTop(id)
		if err != nil {
			inserterLogger.Debug().Err(err).Int("node_id", int(id)).Msg("Paragraph not laid out")
		} else {
			in.lineTop = top + layout.ScrollTop()
			in.available = true
			in.paragraph = id
		}
	}
	return in.view()
}

// emptyParagraph finds the paragraph holding the cursor when it has no visible text.
func emptyParagraph(s *document.State) (document.NodeID, bool) {
	tb := s.Textblock(s.Selection().From())
	if tb == document.NoNode {
		return document.NoNode, false
	}
	if n := s.Node(tb); n == nil || n.Type != document.TypeParagraph {
		return document.NoNode, false
	}
	if strings.TrimSpace(s.TextContent(tb)) != "" {
		return document.NoNode, false
	}
	return tb, true
}

func (in *Inserter) View() View {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.view()
}

func (in *Inserter) view() View {
	v := View{Paragraph: in.paragraph}
	if in.menuOpen {
		v.Menu = true
		v.MenuTop = in.lineTop + MenuGap
		v.Items = in.registry.InsertableTypes()
		return v
	}
	if in.available {
		v.Trigger = true
		v.TriggerTop = in.lineTop - TriggerNudge
	}
	return v
}

// OpenMenu opens the block menu from a visible trigger.
func (in *Inserter) OpenMenu() bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	if !in.available {
		return false
	}
	in.menuOpen = true
	return true
}

// ClickOutside closes the menu unless the click landed on the menu or its trigger.
func (in *Inserter) ClickOutside(inMenuOrTrigger bool) {
	if inMenuOrTrigger {
		return
	}
	in.mu.Lock()
	in.menuOpen = false
	in.mu.Unlock()
}

// Choose closes the menu and inserts the block behind the menu entry at the cursor.
func (in *Inserter) Choose(key string) error {
	in.mu.Lock()
	if !in.menuOpen {
		in.mu.Unlock()
		return ErrMenuClosed
	}
	in.menuOpen = false
	in.mu.Unlock()

	item, ok := in.registry.MenuItem(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, key)
	}
	if err := in.doc.Apply(in.registry.CreateInsertCommand(item.Type, nil)); err != nil {
		inserterLogger.Warn().Err(err).Str("type", item.Type).Msg("Block insert failed")
		return err
	}
	inserterLogger.Debug().Str("type", item.Type).Msg("Block inserted from menu")
	return nil
}
