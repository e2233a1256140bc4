package document

// ContentKind constrains what a node may contain.
type ContentKind int

const (
	// ContentNone marks a leaf: it occupies a single position.
	ContentNone ContentKind = iota
	// ContentInline is text, marks and inline leaves (paragraph, heading).
	ContentInline
	// ContentText is unmarked text only (code block).
	ContentText
	// ContentBlocks is any block node.
	ContentBlocks
	// ContentListItems is listItem children only.
	ContentListItems
)

const (
	GroupBlock  = "block"
	GroupInline = "inline"
)

// AttrEditing is the per-block flag selecting the input form over the rendered view.
const AttrEditing = "editing"

type AttrSpec struct {
	Name    string
	Default any
}

type NodeSpec struct {
	Name    string
	Group   string
	Content ContentKind
	// Atomic nodes are edited as one unit and never hold formatted text.
	Atomic bool
	Attrs  []AttrSpec

	// Tag and DataType select the HTML element that parses into this node.
	Tag      string
	DataType string

	// Primary is the attribute that must be non-empty while editing is false.
	Primary string
}

func (s NodeSpec) IsTextblock() bool {
	return s.Content == ContentInline || s.Content == ContentText
}

func (s NodeSpec) IsLeaf() bool {
	return s.Content == ContentNone
}

func (s NodeSpec) HasAttr(name string) bool {
	for _, a := range s.Attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// DefaultAttrs returns a fresh attribute set holding every declared default.
func (s NodeSpec) DefaultAttrs() Attrs {
	if len(s.Attrs) == 0 {
		return nil
	}
	attrs := make(Attrs, len(s.Attrs))
	for _, a := range s.Attrs {
		attrs[a.Name] = a.Default
	}
	return attrs
}

// Schema resolves node type names to their specs.
type Schema interface {
	Spec(name string) (NodeSpec, bool)
	// SpecForElement finds the node type parsed from an element with the given tag and data-type.
	SpecForElement(tag, dataType string) (NodeSpec, bool)
}

// normalizeAttrs fills defaults, drops undeclared keys and enforces the editing invariant.
func normalizeAttrs(spec NodeSpec, in Attrs) Attrs {
	if len(spec.Attrs) == 0 {
		return nil
	}
	out := spec.DefaultAttrs()
	for _, a := range spec.Attrs {
		v, ok := in[a.Name]
		if !ok || v == nil {
			continue
		}
		switch a.Default.(type) {
		case bool:
			out[a.Name] = Attrs{a.Name: v}.Bool(a.Name)
		case int:
			out[a.Name] = Attrs{a.Name: v}.Int(a.Name)
		default:
			out[a.Name] = Attrs{a.Name: v}.String(a.Name)
		}
	}
	if spec.Primary != "" && spec.HasAttr(AttrEditing) && out.String(spec.Primary) == "" {
		out[AttrEditing] = true
	}
	return out
}
