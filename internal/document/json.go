package document

// JSONNode is the tree form handed to clients, in the shape TipTap uses for its JSON content.
type JSONNode struct {
	ID      NodeID         `json:"id,omitempty"`
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []JSONNode     `json:"content,omitempty"`
	Marks   []JSONMark     `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

type JSONMark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// JSON returns the document tree rooted at the doc node.
func (s *State) JSON() JSONNode {
	return s.jsonNode(s.root)
}

func (s *State) jsonNode(id NodeID) JSONNode {
	n := s.nodes[id]
	out := JSONNode{ID: n.ID, Type: n.Type, Text: n.Text}
	if len(n.Attrs) > 0 {
		out.Attrs = make(map[string]any, len(n.Attrs))
		for k, v := range n.Attrs {
			out.Attrs[k] = v
		}
	}
	for _, m := range n.Marks {
		jm := JSONMark{Type: m.Type}
		if m.Type == MarkLink {
			jm.Attrs = map[string]any{"href": m.Href}
		}
		out.Marks = append(out.Marks, jm)
	}
	for _, c := range n.Children {
		out.Content = append(out.Content, s.jsonNode(c))
	}
	return out
}
