// Package blocks holds the presentation adapters of the custom blocks: which view a block
// shows, how each view renders, and the mutations each block's controls perform.
package blocks

import (
	"errors"
	"fmt"
	"html/template"
	"slices"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyURL          = errors.New("url is empty")
	ErrEmptyHTML         = errors.New("html is empty")
	ErrInvalidYouTubeURL = errors.New("not a valid YouTube URL")
	ErrUnknownBlock      = errors.New("no adapter for block type")
)

var blocksLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	blocksLogger = l
}

// State is the view a block is in: Editing or Committed.
type State interface {
	isState()
}

// Editing shows the block's input form. Draft holds what has been entered so far.
type Editing struct {
	Draft document.Attrs
}

// Committed shows the rendered block.
type Committed struct {
	Attrs document.Attrs
}

func (Editing) isState()   {}
func (Committed) isState() {}

// Adapter renders one block type.
type Adapter interface {
	Type() string
	State(attrs document.Attrs) State
	Render(attrs document.Attrs) (template.HTML, error)
}

// stateFor derives the view from the editing flag. A block whose primary attribute is empty
// is always editing.
func stateFor(attrs document.Attrs, primary string) State {
	if attrs.Bool(document.AttrEditing) || (primary != "" && attrs.String(primary) == "") {
		return Editing{Draft: attrs.Clone()}
	}
	return Committed{Attrs: attrs.Clone()}
}

// render executes the editing or display template of a block.
func render(a Adapter, editing, display string, attrs document.Attrs, data func(document.Attrs) any) (template.HTML, error) {
	name := display
	if _, ok := a.State(attrs).(Editing); ok {
		name = editing
	}
	html, err := execute(name, data(attrs))
	if err != nil {
		return "", fmt.Errorf("render %s: %w", a.Type(), err)
	}
	return html, nil
}

// Set is the collection of adapters, one per custom block type.
type Set struct {
	adapters map[string]Adapter
}

func NewSet(adapters ...Adapter) *Set {
	s := &Set{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		s.adapters[a.Type()] = a
	}
	return s
}

// DefaultSet returns the adapters of every built-in custom block.
func DefaultSet(trustHTML bool) *Set {
	return NewSet(
		Divider{},
		HTML{Trusted: trustHTML},
		Image{},
		Bookmark{},
		YouTube{},
		Twitter{},
		Photo{},
	)
}

func (s *Set) Get(typ string) (Adapter, bool) {
	a, ok := s.adapters[typ]
	return a, ok
}

func (s *Set) Types() []string {
	out := make([]string, 0, len(s.adapters))
	for t := range s.adapters {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func (s *Set) Render(typ string, attrs document.Attrs) (template.HTML, error) {
	a, ok := s.Get(typ)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownBlock, typ)
	}
	return a.Render(attrs)
}

func (s *Set) State(typ string, attrs document.Attrs) (State, error) {
	a, ok := s.Get(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, typ)
	}
	return a.State(attrs), nil
}

// Divider has no attributes and a single view.
type Divider struct{}

func (Divider) Type() string { return schema.TypeDivider }

func (Divider) State(attrs document.Attrs) State {
	return Committed{}
}

func (Divider) Render(document.Attrs) (template.HTML, error) {
	return execute("divider", nil)
}
