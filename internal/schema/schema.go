// Package schema is the block schema registry: node types, their attributes and defaults,
// how they are matched in markup, and the command that inserts them.
package schema

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/rs/zerolog"
)

var schemaLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	schemaLogger = l
}

// ElementMatch is an extra tag/data-type pair that parses into a registered type.
type ElementMatch struct {
	Tag      string
	DataType string
}

// MenuItem is one entry of the block-insertion menu.
type MenuItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type Registry struct { // implements document.Schema
	mu       sync.RWMutex
	specs    map[string]document.NodeSpec
	order    []string
	elements map[ElementMatch]string
	menu     []MenuItem
}

func NewRegistry() *Registry {
	return &Registry{
		specs:    make(map[string]document.NodeSpec),
		elements: make(map[ElementMatch]string),
	}
}

// Register adds a node type. Names and element matches must be unique.
func (r *Registry) Register(spec document.NodeSpec, aliases ...ElementMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if spec.Name == "" {
		return fmt.Errorf("node spec without a name")
	}
	if _, ok := r.specs[spec.Name]; ok {
		return fmt.Errorf("node type %s already registered", spec.Name)
	}
	if spec.Primary != "" && !spec.HasAttr(spec.Primary) {
		return fmt.Errorf("node type %s: primary attribute %s not declared", spec.Name, spec.Primary)
	}

	matches := aliases
	if spec.Tag != "" {
		matches = append([]ElementMatch{{Tag: spec.Tag, DataType: spec.DataType}}, aliases...)
	}
	for _, m := range matches {
		if owner, ok := r.elements[m]; ok {
			return fmt.Errorf("node type %s: <%s data-type=%q> already matches %s", spec.Name, m.Tag, m.DataType, owner)
		}
	}
	for _, m := range matches {
		r.elements[m] = spec.Name
	}

	r.specs[spec.Name] = spec
	r.order = append(r.order, spec.Name)

	schemaLogger.Debug().Str("type", spec.Name).Bool("atomic", spec.Atomic).Msg("Node type registered")
	return nil
}

func (r *Registry) MustRegister(spec document.NodeSpec, aliases ...ElementMatch) {
	if err := r.Register(spec, aliases...); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (document.NodeSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[name]
	if ok {
		spec.Attrs = slices.Clone(spec.Attrs)
	}
	return spec, ok
}

func (r *Registry) Spec(name string) (document.NodeSpec, bool) {
	return r.Lookup(name)
}

func (r *Registry) SpecForElement(tag, dataType string) (document.NodeSpec, bool) {
	r.mu.RLock()
	name, ok := r.elements[ElementMatch{Tag: tag, DataType: dataType}]
	r.mu.RUnlock()

	if !ok {
		return document.NodeSpec{}, false
	}
	return r.Lookup(name)
}

// Names lists registered types in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// AtomicTypes lists the registered atomic types, sorted.
func (r *Registry) AtomicTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for name, spec := range r.specs {
		if spec.Atomic {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// AddMenuItem exposes a registered type in the insertion menu.
func (r *Registry) AddMenuItem(item MenuItem) error {
	if _, ok := r.Lookup(item.Type); !ok {
		return fmt.Errorf("menu item %s: %w: %s", item.Key, document.ErrUnknownType, item.Type)
	}
	r.mu.Lock()
	r.menu = append(r.menu, item)
	r.mu.Unlock()
	return nil
}

// InsertableTypes returns the insertion menu entries in display order.
func (r *Registry) InsertableTypes() []MenuItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.menu)
}

// MenuItem finds a menu entry by key.
func (r *Registry) MenuItem(key string) (MenuItem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := slices.IndexFunc(r.menu, func(m MenuItem) bool { return m.Key == key })
	if i < 0 {
		return MenuItem{}, false
	}
	return r.menu[i], true
}

// CreateInsertCommand builds the command inserting typ at the cursor with
// defaults, then attrs, then editing=true. An unknown type yields a command that does nothing.
func (r *Registry) CreateInsertCommand(typ string, attrs document.Attrs) document.Command {
	spec, ok := r.Lookup(typ)
	if !ok {
		return func(*document.Tx) error {
			schemaLogger.Debug().Str("type", typ).Msg("Insert of unknown block type ignored")
			return nil
		}
	}

	merged := spec.DefaultAttrs()
	if merged == nil {
		merged = document.Attrs{}
	}
	maps.Copy(merged, attrs)
	if spec.HasAttr(document.AttrEditing) {
		merged[document.AttrEditing] = true
	}

	return func(tx *document.Tx) error {
		id, err := tx.InsertBlockAtCursor(typ, merged)
		if err != nil {
			return err
		}
		schemaLogger.Debug().Str("type", typ).Int("node_id", int(id)).Msg("Block inserted")
		return nil
	}
}
