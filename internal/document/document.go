// Package document is a headless rich-text document engine: an arena of nodes addressed by
// stable ids, integer positions, a selection, marks, atomic commands and undo/redo.
package document

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

const historyDepth = 100

var docLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	docLogger = l
}

// Document owns the current state and its history. Safe for concurrent use.
type Document struct {
	mu     sync.Mutex
	schema Schema
	state  *State
	undo   []*State
	redo   []*State
	// nextID is above every id any snapshot has used, so ids are never reused.
	nextID NodeID

	listeners []func(html string)
}

// New returns a document holding a single empty paragraph.
func New(schema Schema) *Document {
	s := newState(schema, 0)
	tx := &Tx{State: s}
	tx.fill(s.root)
	s.sel = Cursor(1)
	return &Document{schema: schema, state: s, nextID: s.high()}
}

// Parse builds a document from serialized markup.
func Parse(schema Schema, markup string) (*Document, error) {
	s, err := parseHTML(schema, markup, 0)
	if err != nil {
		return nil, err
	}
	return &Document{schema: schema, state: s, nextID: s.high()}, nil
}

// OnChange registers fn to run with the serialized document after every change.
// Listeners run outside the document lock.
func (d *Document) OnChange(fn func(html string)) {
	d.mu.Lock()
	d.listeners = append(d.listeners, fn)
	d.mu.Unlock()
}

func (d *Document) emit() {
	d.mu.Lock()
	listeners := append([]func(string){}, d.listeners...)
	html := serializeHTML(d.state)
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(html)
	}
}

// Snapshot returns a private copy of the current state for read-only queries.
func (d *Document) Snapshot() *State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.clone()
}

func (d *Document) Selection() Selection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.sel
}

func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return serializeHTML(d.state)
}

// SetSelection moves the selection. It is not a document change.
func (d *Document) SetSelection(sel Selection) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return (&Tx{State: d.state}).SetSelection(sel)
}

// Apply runs cmd on a copy of the state and commits it when cmd succeeds.
func (d *Document) Apply(cmd Command) error {
	d.mu.Lock()
	next := d.fork()
	if err := cmd(&Tx{State: next}); err != nil {
		d.mu.Unlock()
		if !errors.Is(err, ErrCommandRejected) {
			err = fmt.Errorf("%w: %w", ErrCommandRejected, err)
		}
		docLogger.Debug().Err(err).Msg("Command rejected")
		return err
	}
	d.push(next)
	d.mu.Unlock()

	d.emit()
	return nil
}

// Can reports whether cmd would apply, without changing anything.
func (d *Document) Can(cmd Command) bool {
	d.mu.Lock()
	next := d.fork()
	d.mu.Unlock()
	return cmd(&Tx{State: next}) == nil
}

// fork clones the current state so that new nodes get ids no snapshot has used.
func (d *Document) fork() *State {
	next := d.state.clone()
	next.floor = d.nextID
	return next
}

func (d *Document) push(next *State) {
	d.nextID = max(d.nextID, next.high())
	d.undo = append(d.undo, d.state)
	if len(d.undo) > historyDepth {
		d.undo = d.undo[len(d.undo)-historyDepth:]
	}
	d.redo = nil
	d.state = next
}

// SetContent replaces the whole document. The previous content stays undoable.
func (d *Document) SetContent(markup string) error {
	d.mu.Lock()
	s, err := parseHTML(d.schema, markup, d.nextID)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.push(s)
	d.mu.Unlock()

	d.emit()
	return nil
}

func (d *Document) Undo() bool {
	d.mu.Lock()
	if len(d.undo) == 0 {
		d.mu.Unlock()
		return false
	}
	prev := d.undo[len(d.undo)-1]
	d.undo = d.undo[:len(d.undo)-1]
	d.redo = append(d.redo, d.state)
	d.state = prev
	d.mu.Unlock()

	d.emit()
	return true
}

func (d *Document) Redo() bool {
	d.mu.Lock()
	if len(d.redo) == 0 {
		d.mu.Unlock()
		return false
	}
	next := d.redo[len(d.redo)-1]
	d.redo = d.redo[:len(d.redo)-1]
	d.undo = append(d.undo, d.state)
	d.state = next
	d.mu.Unlock()

	d.emit()
	return true
}

// UpdateAttrs patches a node's attributes out of band: the selection does not move and the
// patch is not an undo step. It is written into every history snapshot still holding the node,
// so undo and redo never revert it.
func (d *Document) UpdateAttrs(id NodeID, patch Attrs) error {
	d.mu.Lock()
	if d.state.Node(id) == nil {
		d.mu.Unlock()
		return fmt.Errorf("%w: node %d", ErrDetached, id)
	}
	for _, s := range append(append([]*State{d.state}, d.undo...), d.redo...) {
		if s.Node(id) != nil {
			_ = (&Tx{State: s}).PatchAttrs(id, patch)
		}
	}
	d.mu.Unlock()

	d.emit()
	return nil
}

// Attrs returns a copy of a live node's attributes.
func (d *Document) Attrs(id NodeID) (Attrs, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.state.Node(id)
	if n == nil {
		return nil, fmt.Errorf("%w: node %d", ErrDetached, id)
	}
	return n.Attrs.Clone(), nil
}

func (d *Document) IsActive(name string, attrs Attrs) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.IsActive(name, attrs)
}

// IsActive reports whether a mark covers the selection, or whether every selected textblock is
// (or sits inside) a node of the given type with matching attributes.
func (s *State) IsActive(name string, attrs Attrs) bool {
	from, to := s.sel.From(), s.sel.To()
	if IsMark(name) {
		if from == to {
			tb := s.Textblock(from)
			if tb == NoNode {
				return false
			}
			for _, m := range s.marksBefore(tb, from) {
				if m.Type == name && (attrs == nil || m.Href == attrs.String("href")) {
					return true
				}
			}
			return false
		}
		return s.markCovers(from, to, name)
	}

	blocks := s.Textblocks(from, to)
	if len(blocks) == 0 {
		return false
	}
	for _, tb := range blocks {
		found := false
		for _, id := range append([]NodeID{tb}, s.Ancestors(tb)...) {
			n := s.nodes[id]
			if n.Type == name && n.Attrs.Matches(attrs) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Blocks lists the ids of live nodes of type typ in document order.
func (s *State) Blocks(typ string) []NodeID {
	var out []NodeID
	s.Walk(func(n *Node, _ int) bool {
		if n.Type == typ {
			out = append(out, n.ID)
		}
		return true
	})
	return out
}
