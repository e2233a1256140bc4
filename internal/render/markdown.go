package render

import (
	"fmt"
	"strings"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mmarkdown/mmark/v2/lang"
	"github.com/mmarkdown/mmark/v2/mast"
	"github.com/mmarkdown/mmark/v2/mparser"
	"github.com/mmarkdown/mmark/v2/render/mhtml"
)

const (
	MarkdownClassic = "classic"
	MarkdownMmark   = "mmark"
)

// MarkdownToHTML renders CommonMark-style markdown. Fenced code keeps its language class.
func MarkdownToHTML(md []byte) []byte {
	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.HrefTargetBlank,
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.BackslashLineBreak | parser.DefinitionLists | parser.OrderedListStart | parser.NoIntraEmphasis,
	).Parse(markdown.NormalizeNewlines(md))
	return markdown.Render(doc, md_html.NewRenderer(opts))
}

// MmarkToHTML renders mmark, returning the title block when the document has one.
func MmarkToHTML(md []byte) ([]byte, *mast.TitleData) {
	md = markdown.NormalizeNewlines(md)

	p := parser.NewWithExtensions(mparser.Extensions | parser.NoIntraEmphasis)
	init := mparser.NewInitial("")
	var info *mast.TitleData

	p.Opts = parser.Options{
		ParserHook: func(data []byte) (ast.Node, []byte, int) {
			node, data, consumed := mparser.Hook(data)
			if t, ok := node.(*mast.Title); ok {
				info = t.TitleData
			}
			return node, data, consumed
		},
		ReadIncludeFn: init.ReadInclude,
		Flags:         parser.FlagsNone,
	}

	doc := markdown.Parse(md, p)
	mparser.AddIndex(doc)

	language := "en"
	if info != nil && info.Language != "" {
		language = info.Language
	}
	mhtmlOpts := mhtml.RendererOptions{Language: lang.New(language)}

	renderer := md_html.NewRenderer(md_html.RendererOptions{
		RenderNodeHook: mhtmlOpts.RenderHook,
		Flags:          md_html.CommonFlags | md_html.FootnoteNoHRTag | md_html.FootnoteReturnLinks,
	})
	return markdown.Render(doc, renderer), info
}

// Import converts a markdown post into editor content. Markup the editor has no node for is
// dropped or flattened by the document parser.
func Import(schema document.Schema, md []byte, flavour string) (title, content string, err error) {
	var rendered []byte
	switch flavour {
	case MarkdownMmark:
		var info *mast.TitleData
		rendered, info = MmarkToHTML(md)
		if info != nil {
			title = info.Title
		}
	case MarkdownClassic, "":
		rendered = MarkdownToHTML(md)
	default:
		return "", "", fmt.Errorf("unknown markdown flavour %q", flavour)
	}

	doc, err := document.Parse(schema, string(rendered))
	if err != nil {
		return "", "", fmt.Errorf("parse rendered markdown: %w", err)
	}
	return strings.TrimSpace(title), doc.HTML(), nil
}
