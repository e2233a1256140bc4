package document

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var collapseSpace = regexp.MustCompile(`[ \t\n\r\f]+`)

var markTags = map[string]string{
	MarkBold:      "strong",
	MarkItalic:    "em",
	MarkUnderline: "u",
	MarkStrike:    "s",
	MarkCode:      "code",
	MarkLink:      "a",
}

var tagMarks = map[string]string{
	"strong": MarkBold,
	"b":      MarkBold,
	"em":     MarkItalic,
	"i":      MarkItalic,
	"u":      MarkUnderline,
	"s":      MarkStrike,
	"strike": MarkStrike,
	"del":    MarkStrike,
	"code":   MarkCode,
	"a":      MarkLink,
}

var voidTags = map[string]bool{"hr": true, "br": true, "img": true}

// HTML serializes the state the way the document is persisted.
func (s *State) HTML() string {
	return serializeHTML(s)
}

// NodeHTML serializes a single node and its content.
func (s *State) NodeHTML(id NodeID) string {
	var sb strings.Builder
	if s.Node(id) != nil {
		s.writeBlock(&sb, id, nil)
	}
	return sb.String()
}

// RenderHook writes a block node in place of the default serialization and reports whether
// it did. It is consulted for every block, containers included.
type RenderHook func(w io.Writer, n *Node) bool

// RenderHTML serializes the document like HTML, letting hook take over individual blocks.
func (s *State) RenderHTML(hook RenderHook) string {
	var sb strings.Builder
	for _, c := range s.nodes[s.root].Children {
		s.writeBlock(&sb, c, hook)
	}
	return sb.String()
}

func serializeHTML(s *State) string {
	return s.RenderHTML(nil)
}

func (s *State) writeBlock(sb *strings.Builder, id NodeID, hook RenderHook) {
	n := s.nodes[id]
	spec := s.specOf(n.Type)

	if hook != nil && hook(sb, n) {
		return
	}

	switch {
	case n.Type == TypeHeading:
		level := min(max(n.Attrs.Int("level"), 1), 6)
		fmt.Fprintf(sb, "<h%d>", level)
		s.writeInline(sb, n.Children)
		fmt.Fprintf(sb, "</h%d>", level)
	case n.Type == TypeCodeBlock:
		sb.WriteString("<pre><code")
		if lang := n.Attrs.String("language"); lang != "" {
			fmt.Fprintf(sb, ` class="language-%s"`, html.EscapeString(lang))
		}
		sb.WriteString(">")
		sb.WriteString(html.EscapeString(s.TextContent(id)))
		sb.WriteString("</code></pre>")
	case spec.IsTextblock():
		fmt.Fprintf(sb, "<%s>", spec.Tag)
		s.writeInline(sb, n.Children)
		fmt.Fprintf(sb, "</%s>", spec.Tag)
	case spec.IsLeaf():
		sb.WriteString("<" + spec.Tag)
		writeAttrs(sb, spec, n.Attrs)
		sb.WriteString(">")
		if !voidTags[spec.Tag] {
			sb.WriteString("</" + spec.Tag + ">")
		}
	default:
		fmt.Fprintf(sb, "<%s>", spec.Tag)
		for _, c := range n.Children {
			s.writeBlock(sb, c, hook)
		}
		fmt.Fprintf(sb, "</%s>", spec.Tag)
	}
}

func writeAttrs(sb *strings.Builder, spec NodeSpec, attrs Attrs) {
	if spec.DataType != "" {
		fmt.Fprintf(sb, ` data-type="%s"`, spec.DataType)
	}
	for _, a := range spec.Attrs {
		fmt.Fprintf(sb, ` %s="%s"`, a.Name, html.EscapeString(attrs.String(a.Name)))
	}
}

// writeInline keeps marks shared by neighbouring runs open across them.
func (s *State) writeInline(sb *strings.Builder, children []NodeID) {
	var open []Mark
	for _, c := range children {
		n := s.nodes[c]
		marks := n.Marks
		keep := 0
		for keep < len(open) && keep < len(marks) && open[keep] == marks[keep] {
			keep++
		}
		for i := len(open) - 1; i >= keep; i-- {
			sb.WriteString("</" + markTags[open[i].Type] + ">")
		}
		open = open[:keep]
		for _, m := range marks[keep:] {
			if m.Type == MarkLink {
				fmt.Fprintf(sb, `<a target="_blank" rel="noopener noreferrer nofollow" href="%s">`, html.EscapeString(m.Href))
			} else {
				sb.WriteString("<" + markTags[m.Type] + ">")
			}
			open = append(open, m)
		}

		switch {
		case n.IsText():
			sb.WriteString(html.EscapeString(n.Text))
		case n.Type == TypeHardBreak:
			sb.WriteString("<br>")
		}
	}
	for i := len(open) - 1; i >= 0; i-- {
		sb.WriteString("</" + markTags[open[i].Type] + ">")
	}
}

type htmlParser struct {
	tx *Tx
}

func parseHTML(schema Schema, markup string, floor NodeID) (*State, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	s := newState(schema, floor)
	p := &htmlParser{tx: &Tx{State: s}}
	p.blocks(s.root, nodes)
	p.tx.fill(s.root)

	s.sel = Cursor(0)
	if blocks := s.Textblocks(0, s.ContentSize()); len(blocks) > 0 {
		start, _ := s.contentStart(blocks[0])
		s.sel = Cursor(start)
	}
	return s, nil
}

func attr(el *html.Node, key string) (string, bool) {
	for _, a := range el.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func children(el *html.Node) []*html.Node {
	var out []*html.Node
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// blocks parses nodes in a block context. Stray inline content is gathered into paragraphs.
func (p *htmlParser) blocks(parent NodeID, nodes []*html.Node) {
	pending := NoNode
	flush := func() {
		if pending != NoNode {
			p.finishTextblock(pending)
			pending = NoNode
		}
	}
	inline := func(n *html.Node) {
		if pending == NoNode {
			id, err := p.tx.NewNode(TypeParagraph, nil)
			if err != nil {
				return
			}
			p.tx.Append(parent, id)
			pending = id
		}
		p.inline(pending, n, nil)
	}

	for _, n := range nodes {
		switch n.Type {
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" || pending != NoNode {
				inline(n)
			}
			continue
		case html.ElementNode:
		default:
			continue
		}

		if _, isMark := tagMarks[n.Data]; isMark || n.Data == "br" || n.Data == "span" {
			inline(n)
			continue
		}
		flush()
		p.block(parent, n)
	}
	flush()
}

func (p *htmlParser) block(parent NodeID, el *html.Node) {
	tx := p.tx
	dataType, _ := attr(el, "data-type")

	if spec, ok := tx.schema.SpecForElement(el.Data, dataType); ok && spec.IsLeaf() {
		p.leaf(parent, spec, el)
		return
	}

	switch el.Data {
	case "p":
		p.textblock(parent, TypeParagraph, nil, el)
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(el.Data[1:])
		p.textblock(parent, TypeHeading, Attrs{"level": level}, el)
	case "pre":
		p.codeBlock(parent, el)
	case "ul", "ol":
		typ := TypeBulletList
		if el.Data == "ol" {
			typ = TypeOrderedList
		}
		list, err := tx.NewNode(typ, nil)
		if err != nil {
			return
		}
		tx.Append(parent, list)
		for _, c := range children(el) {
			if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
				continue
			}
			item, err := tx.NewNode(TypeListItem, nil)
			if err != nil {
				return
			}
			tx.Append(list, item)
			if c.Type == html.ElementNode && c.Data == "li" {
				p.blocks(item, children(c))
			} else {
				p.blocks(item, []*html.Node{c})
			}
		}
	case "blockquote":
		quote, err := tx.NewNode(TypeBlockquote, nil)
		if err != nil {
			return
		}
		tx.Append(parent, quote)
		p.blocks(quote, children(el))
	case "script", "style", "head", "title", "meta", "link":
	default:
		p.blocks(parent, children(el))
	}
}

// leaf builds an atomic or leaf block from the element's attributes. Imported blocks whose
// primary attribute is set but carry no editing flag start out committed.
func (p *htmlParser) leaf(parent NodeID, spec NodeSpec, el *html.Node) {
	attrs := Attrs{}
	for _, a := range spec.Attrs {
		if v, ok := attr(el, a.Name); ok {
			attrs[a.Name] = v
		}
	}
	if _, ok := attr(el, AttrEditing); !ok && spec.HasAttr(AttrEditing) && spec.Primary != "" && attrs.String(spec.Primary) != "" {
		attrs[AttrEditing] = false
	}
	id, err := p.tx.NewNode(spec.Name, attrs)
	if err != nil {
		docLogger.Debug().Err(err).Str("tag", el.Data).Msg("Skipping element")
		return
	}
	p.tx.Append(parent, id)
}

func (p *htmlParser) textblock(parent NodeID, typ string, attrs Attrs, el *html.Node) {
	id, err := p.tx.NewNode(typ, attrs)
	if err != nil {
		return
	}
	p.tx.Append(parent, id)
	for _, c := range children(el) {
		p.inline(id, c, nil)
	}
	p.finishTextblock(id)
}

func (p *htmlParser) codeBlock(parent NodeID, el *html.Node) {
	var lang string
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && n.Data == "code" && lang == "" {
			if class, ok := attr(n, "class"); ok {
				for _, c := range strings.Fields(class) {
					if l, ok := strings.CutPrefix(c, "language-"); ok {
						lang = l
					}
				}
			}
		}
		if n.Type == html.ElementNode && n.Data == "br" {
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(el)

	id, err := p.tx.NewNode(TypeCodeBlock, Attrs{"language": lang})
	if err != nil {
		return
	}
	p.tx.Append(parent, id)
	if text := sb.String(); text != "" {
		p.tx.Append(id, p.tx.NewText(text, nil))
	}
}

func (p *htmlParser) inline(tb NodeID, n *html.Node, marks []Mark) {
	tx := p.tx
	switch n.Type {
	case html.TextNode:
		if text := collapseSpace.ReplaceAllString(n.Data, " "); text != "" {
			tx.Append(tb, tx.NewText(text, marks))
		}
		return
	case html.ElementNode:
	default:
		return
	}

	if n.Data == "br" {
		if id, err := tx.NewNode(TypeHardBreak, nil); err == nil {
			tx.Append(tb, id)
		}
		return
	}
	if m, ok := tagMarks[n.Data]; ok {
		mark := Mark{Type: m}
		if m == MarkLink {
			mark.Href, _ = attr(n, "href")
		}
		if m != MarkLink || mark.Href != "" {
			marks = addToSet(marks, mark)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.inline(tb, c, marks)
	}
}

// finishTextblock trims the outer whitespace and joins equal runs.
func (p *htmlParser) finishTextblock(tb NodeID) {
	tx := p.tx
	kids := tx.nodes[tb].Children
	if len(kids) > 0 {
		if first := tx.nodes[kids[0]]; first.IsText() {
			first.Text = strings.TrimLeft(first.Text, " ")
		}
		if last := tx.nodes[kids[len(kids)-1]]; last.IsText() {
			last.Text = strings.TrimRight(last.Text, " ")
		}
	}
	tx.mergeText(tb)
}
