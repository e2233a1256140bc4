package document_test

import (
	"testing"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, markup string) *document.Document {
	t.Helper()
	doc, err := document.Parse(schema.Default(), markup)
	require.NoError(t, err)
	return doc
}

func selectRange(t *testing.T, doc *document.Document, anchor, head int) {
	t.Helper()
	require.NoError(t, doc.SetSelection(document.Selection{Anchor: anchor, Head: head}))
}

func TestNewDocument(t *testing.T) {
	doc := document.New(schema.Default())

	assert.Equal(t, "<p></p>", doc.HTML())
	assert.Equal(t, document.Cursor(1), doc.Selection())
}

func TestParseAndSerialize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain paragraph", "<p>Hello world</p>", "<p>Hello world</p>"},
		{"marks", "<p>Hello <strong>world</strong></p>", "<p>Hello <strong>world</strong></p>"},
		{"b and i aliases", "<p><b>a</b><i>b</i></p>", "<p><strong>a</strong><em>b</em></p>"},
		{"nested marks stay open", "<p><strong>a<em>b</em></strong></p>", "<p><strong>a<em>b</em></strong></p>"},
		{"link", `<p><a href="https://go.dev">Go</a></p>`, `<p><a target="_blank" rel="noopener noreferrer nofollow" href="https://go.dev">Go</a></p>`},
		{"headings", "<h2>Title</h2><h3>Sub</h3>", "<h2>Title</h2><h3>Sub</h3>"},
		{"lists", "<ul><li><p>a</p></li><li>b</li></ul><ol><li><p>c</p></li></ol>", "<ul><li><p>a</p></li><li><p>b</p></li></ul><ol><li><p>c</p></li></ol>"},
		{"blockquote", "<blockquote><p>q</p></blockquote>", "<blockquote><p>q</p></blockquote>"},
		{"code block", `<pre><code class="language-go">x := 1 &lt; 2</code></pre>`, `<pre><code class="language-go">x := 1 &lt; 2</code></pre>`},
		{"rule and break", "<p>a<br>b</p><hr>", "<p>a<br>b</p><hr>"},
		{"whitespace collapses", "<p>  a \n  b  </p>", "<p>a b</p>"},
		{"stray text becomes a paragraph", "loose <em>text</em>", "<p>loose <em>text</em></p>"},
		{"empty input", "", "<p></p>"},
		{"generic containers flatten", "<div><section><p>x</p></section></div>", "<p>x</p>"},
		{"divider", `<hr data-type="divider">`, `<hr data-type="divider">`},
		{
			"bookmark",
			`<div data-type="bookmark" url="https://go.dev" title="Go" description="The Go site" image="https://go.dev/x.png" editing="false"></div>`,
			`<div data-type="bookmark" url="https://go.dev" title="Go" description="The Go site" image="https://go.dev/x.png" editing="false"></div>`,
		},
		{
			"committed block without primary attribute returns to editing",
			`<div data-type="twitter" url="" editing="false"></div>`,
			`<div data-type="twitter" url="" editing="true"></div>`,
		},
		{
			"bare image imports committed",
			`<img src="https://example.com/a.png">`,
			`<div data-type="image-block" src="https://example.com/a.png" caption="" editing="false"></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parse(t, tt.in).HTML())
		})
	}
}

func TestCustomBlocksRoundTrip(t *testing.T) {
	blocks := []string{
		`<div data-type="html-block" html="&lt;b&gt;x&lt;/b&gt;" editing="false"></div>`,
		`<div data-type="image-block" src="blob:abc" caption="A cat" editing="false"></div>`,
		`<div data-type="bookmark" url="" title="" description="" image="" editing="true"></div>`,
		`<div data-type="youtube" src="https://www.youtube.com/embed/dQw4w9WgXcQ" url="https://youtu.be/dQw4w9WgXcQ" editing="false"></div>`,
		`<div data-type="unsplash" src="https://picsum.photos/id/1/600/400" author="Photographer 1" editing="false"></div>`,
		`<div data-type="twitter" url="https://twitter.com/x/status/1" editing="false"></div>`,
		`<hr data-type="divider">`,
	}
	for _, b := range blocks {
		first := parse(t, b).HTML()
		assert.Equal(t, b, first)
		assert.Equal(t, first, parse(t, first).HTML())
	}

	doc := parse(t, blocks[0])
	id := doc.Snapshot().Blocks(schema.TypeHTMLBlock)[0]
	attrs, err := doc.Attrs(id)
	require.NoError(t, err)
	assert.Equal(t, "<b>x</b>", attrs.String("html"))
	assert.False(t, attrs.Bool(document.AttrEditing))
}

func TestPositions(t *testing.T) {
	doc := parse(t, "<p>abc</p><p>de</p>")
	s := doc.Snapshot()

	assert.Equal(t, 9, s.ContentSize())

	tests := []struct {
		pos          int
		parentType   string
		parentOffset int
	}{
		{0, "doc", 0},
		{1, "paragraph", 0},
		{2, "paragraph", 1},
		{4, "paragraph", 3},
		{5, "doc", 5},
		{6, "paragraph", 0},
		{8, "paragraph", 2},
		{9, "doc", 9},
	}
	for _, tt := range tests {
		r, err := s.Resolve(tt.pos)
		require.NoError(t, err)
		assert.Equal(t, tt.parentType, s.Node(r.Parent).Type, "pos %d", tt.pos)
		assert.Equal(t, tt.parentOffset, r.ParentOffset, "pos %d", tt.pos)
	}

	_, err := s.Resolve(10)
	assert.ErrorIs(t, err, document.ErrOutOfRange)

	second := s.Node(s.Root()).Children[1]
	pos, err := s.PosOf(second)
	require.NoError(t, err)
	assert.Equal(t, 5, pos)
}

func TestNodesBetween(t *testing.T) {
	doc := parse(t, `<p>ab</p><div data-type="twitter" url="" editing="true"></div><p>cd</p>`)
	s := doc.Snapshot()

	var seen []string
	s.NodesBetween(2, 7, func(n *document.Node, _ int) bool {
		seen = append(seen, n.Type)
		return true
	})
	assert.Equal(t, []string{"paragraph", "text", "twitter", "paragraph", "text"}, seen)

	seen = nil
	s.NodesBetween(1, 3, func(n *document.Node, _ int) bool {
		seen = append(seen, n.Type)
		return true
	})
	assert.Equal(t, []string{"paragraph", "text"}, seen)
}

func TestToggleMarkIsIdempotent(t *testing.T) {
	const original = "<p>Hello <em>big</em> world</p>"
	doc := parse(t, original)
	selectRange(t, doc, 1, 12)

	require.NoError(t, doc.Apply(document.ToggleMark(document.MarkBold)))
	assert.Equal(t, "<p><strong>Hello <em>big</em> w</strong>orld</p>", doc.HTML())
	assert.True(t, doc.IsActive(document.MarkBold, nil))

	require.NoError(t, doc.Apply(document.ToggleMark(document.MarkBold)))
	assert.Equal(t, original, doc.HTML())
	assert.False(t, doc.IsActive(document.MarkBold, nil))
	assert.Equal(t, document.Selection{Anchor: 1, Head: 12}, doc.Selection())
}

func TestToggleMarkPartiallyCovered(t *testing.T) {
	doc := parse(t, "<p><strong>ab</strong>cd</p>")
	selectRange(t, doc, 1, 5)

	assert.False(t, doc.IsActive(document.MarkBold, nil))
	require.NoError(t, doc.Apply(document.ToggleMark(document.MarkBold)))
	assert.Equal(t, "<p><strong>abcd</strong></p>", doc.HTML())
}

func TestToggleMarkNeedsRange(t *testing.T) {
	doc := parse(t, "<p>abc</p>")
	selectRange(t, doc, 2, 2)

	err := doc.Apply(document.ToggleMark(document.MarkItalic))
	assert.ErrorIs(t, err, document.ErrCommandRejected)
	assert.Equal(t, "<p>abc</p>", doc.HTML())
}

func TestLinks(t *testing.T) {
	doc := parse(t, "<p>see the docs</p>")
	selectRange(t, doc, 5, 13)

	require.NoError(t, doc.Apply(document.SetLink("https://go.dev/doc")))
	assert.Equal(t, `<p>see <a target="_blank" rel="noopener noreferrer nofollow" href="https://go.dev/doc">the docs</a></p>`, doc.HTML())
	assert.True(t, doc.IsActive(document.MarkLink, nil))

	// A cursor inside the link is enough to remove all of it.
	selectRange(t, doc, 7, 7)
	require.NoError(t, doc.Apply(document.UnsetLink()))
	assert.Equal(t, "<p>see the docs</p>", doc.HTML())

	selectRange(t, doc, 5, 8)
	require.NoError(t, doc.Apply(document.SetLink("https://a.example")))
	require.NoError(t, doc.Apply(document.SetLink("")))
	assert.Equal(t, "<p>see the docs</p>", doc.HTML())
}

func TestBlockTypes(t *testing.T) {
	doc := parse(t, "<p>Hello <strong>world</strong></p>")
	selectRange(t, doc, 2, 2)

	require.NoError(t, doc.Apply(document.SetHeading(2)))
	assert.Equal(t, "<h2>Hello <strong>world</strong></h2>", doc.HTML())
	assert.True(t, doc.IsActive(document.TypeHeading, document.Attrs{"level": 2}))
	assert.False(t, doc.IsActive(document.TypeHeading, document.Attrs{"level": 3}))

	require.NoError(t, doc.Apply(document.SetHeading(3)))
	assert.Equal(t, "<h3>Hello <strong>world</strong></h3>", doc.HTML())

	require.NoError(t, doc.Apply(document.SetParagraph()))
	assert.Equal(t, "<p>Hello <strong>world</strong></p>", doc.HTML())
	assert.True(t, doc.IsActive(document.TypeParagraph, nil))

	require.NoError(t, doc.Apply(document.ToggleCodeBlock()))
	assert.Equal(t, "<pre><code>Hello world</code></pre>", doc.HTML())
	assert.True(t, doc.IsActive(document.TypeCodeBlock, nil))

	require.NoError(t, doc.Apply(document.ToggleCodeBlock()))
	assert.Equal(t, "<p>Hello world</p>", doc.HTML())

	assert.ErrorIs(t, doc.Apply(document.SetHeading(9)), document.ErrCommandRejected)
}

func TestLists(t *testing.T) {
	doc := parse(t, "<p>Hello</p>")
	selectRange(t, doc, 1, 6)

	require.NoError(t, doc.Apply(document.ToggleBulletList()))
	assert.Equal(t, "<ul><li><p>Hello</p></li></ul>", doc.HTML())
	assert.Equal(t, document.Selection{Anchor: 3, Head: 8}, doc.Selection())
	assert.True(t, doc.IsActive(document.TypeBulletList, nil))

	require.NoError(t, doc.Apply(document.ToggleOrderedList()))
	assert.Equal(t, "<ol><li><p>Hello</p></li></ol>", doc.HTML())

	require.NoError(t, doc.Apply(document.ToggleOrderedList()))
	assert.Equal(t, "<p>Hello</p>", doc.HTML())
	assert.Equal(t, document.Selection{Anchor: 1, Head: 6}, doc.Selection())
}

func TestLiftMiddleItem(t *testing.T) {
	doc := parse(t, "<ul><li><p>a</p></li><li><p>b</p></li><li><p>c</p></li></ul>")
	// Position 8 sits inside the second item's paragraph.
	selectRange(t, doc, 8, 8)

	require.NoError(t, doc.Apply(document.ToggleBulletList()))
	assert.Equal(t, "<ul><li><p>a</p></li></ul><p>b</p><ul><li><p>c</p></li></ul>", doc.HTML())
}

func TestListRejectedForHeading(t *testing.T) {
	doc := parse(t, "<h2>Title</h2>")
	selectRange(t, doc, 1, 3)

	err := doc.Apply(document.ToggleBulletList())
	assert.ErrorIs(t, err, document.ErrCommandRejected)
	assert.Equal(t, "<h2>Title</h2>", doc.HTML())
}

func TestBlockquote(t *testing.T) {
	doc := parse(t, "<p>a</p><p>b</p>")
	selectRange(t, doc, 1, 5)

	require.NoError(t, doc.Apply(document.ToggleBlockquote()))
	assert.Equal(t, "<blockquote><p>a</p><p>b</p></blockquote>", doc.HTML())
	assert.True(t, doc.IsActive(document.TypeBlockquote, nil))

	require.NoError(t, doc.Apply(document.ToggleBlockquote()))
	assert.Equal(t, "<p>a</p><p>b</p>", doc.HTML())
}

func TestHorizontalRule(t *testing.T) {
	doc := parse(t, "<p>a</p><p>b</p>")
	selectRange(t, doc, 2, 2)

	require.NoError(t, doc.Apply(document.SetHorizontalRule()))
	assert.Equal(t, "<p>a</p><hr><p>b</p>", doc.HTML())
	assert.Equal(t, document.Cursor(5), doc.Selection())
}

func TestTextEditing(t *testing.T) {
	doc := parse(t, "<p><strong>ab</strong></p>")
	selectRange(t, doc, 3, 3)

	require.NoError(t, doc.Apply(document.InsertText("cd")))
	assert.Equal(t, "<p><strong>abcd</strong></p>", doc.HTML())
	assert.Equal(t, document.Cursor(5), doc.Selection())

	require.NoError(t, doc.Apply(document.SplitBlock()))
	assert.Equal(t, "<p><strong>abcd</strong></p><p></p>", doc.HTML())

	selectRange(t, doc, 2, 4)
	require.NoError(t, doc.Apply(document.DeleteSelection()))
	assert.Equal(t, "<p><strong>ad</strong></p><p></p>", doc.HTML())

	selectRange(t, doc, 2, 6)
	assert.ErrorIs(t, doc.Apply(document.DeleteSelection()), document.ErrCommandRejected)
}

func TestSplitHeadingAtEnd(t *testing.T) {
	doc := parse(t, "<h2>Ti</h2>")
	selectRange(t, doc, 3, 3)

	require.NoError(t, doc.Apply(document.SplitBlock()))
	assert.Equal(t, "<h2>Ti</h2><p></p>", doc.HTML())
}

func TestUndoRedo(t *testing.T) {
	doc := parse(t, "<p>abc</p>")
	selectRange(t, doc, 1, 4)

	assert.False(t, doc.Undo())

	require.NoError(t, doc.Apply(document.ToggleMark(document.MarkItalic)))
	require.NoError(t, doc.Apply(document.SetHeading(2)))
	assert.Equal(t, "<h2><em>abc</em></h2>", doc.HTML())

	assert.True(t, doc.Undo())
	assert.Equal(t, "<p><em>abc</em></p>", doc.HTML())
	assert.True(t, doc.Undo())
	assert.Equal(t, "<p>abc</p>", doc.HTML())

	assert.True(t, doc.Redo())
	assert.Equal(t, "<p><em>abc</em></p>", doc.HTML())

	require.NoError(t, doc.Apply(document.ToggleMark(document.MarkItalic)))
	assert.False(t, doc.Redo(), "a new edit clears the redo stack")
}

func TestRejectedCommandLeavesDocument(t *testing.T) {
	doc := parse(t, "<p>abc</p>")
	selectRange(t, doc, 1, 4)

	failing := document.Chain(
		document.ToggleMark(document.MarkBold),
		document.SetHeading(0),
	)
	assert.ErrorIs(t, doc.Apply(failing), document.ErrCommandRejected)
	assert.Equal(t, "<p>abc</p>", doc.HTML())
	assert.False(t, doc.Undo())
	assert.True(t, doc.Can(document.ToggleMark(document.MarkBold)))
	assert.Equal(t, "<p>abc</p>", doc.HTML())
}

func TestUpdateAttrs(t *testing.T) {
	doc := document.New(schema.Default())
	require.NoError(t, doc.Apply(schema.Default().CreateInsertCommand(schema.TypeBookmark, nil)))

	id := doc.Snapshot().Blocks(schema.TypeBookmark)[0]
	sel := doc.Selection()

	t.Run("out of band", func(t *testing.T) {
		require.NoError(t, doc.UpdateAttrs(id, document.Attrs{"url": "https://go.dev", "editing": false}))
		attrs, err := doc.Attrs(id)
		require.NoError(t, err)
		assert.Equal(t, "https://go.dev", attrs.String("url"))
		assert.False(t, attrs.Bool(document.AttrEditing))
		assert.Equal(t, sel, doc.Selection())
	})

	t.Run("undo keeps patched attributes", func(t *testing.T) {
		assert.True(t, doc.Undo())
		assert.Empty(t, doc.Snapshot().Blocks(schema.TypeBookmark))
		assert.True(t, doc.Redo())
		attrs, err := doc.Attrs(id)
		require.NoError(t, err)
		assert.Equal(t, "https://go.dev", attrs.String("url"))
	})

	t.Run("clearing the primary attribute forces editing", func(t *testing.T) {
		require.NoError(t, doc.UpdateAttrs(id, document.Attrs{"url": "", "editing": false}))
		attrs, _ := doc.Attrs(id)
		assert.True(t, attrs.Bool(document.AttrEditing))
	})

	t.Run("detached node", func(t *testing.T) {
		err := doc.UpdateAttrs(9999, document.Attrs{"url": "x"})
		assert.ErrorIs(t, err, document.ErrDetached)
	})
}

func TestNodeIDsAreNeverReused(t *testing.T) {
	reg := schema.Default()

	t.Run("insert after undo", func(t *testing.T) {
		doc := document.New(reg)
		require.NoError(t, doc.Apply(reg.CreateInsertCommand(schema.TypeBookmark, nil)))
		bookmark := doc.Snapshot().Blocks(schema.TypeBookmark)[0]

		require.True(t, doc.Undo())
		require.NoError(t, doc.Apply(reg.CreateInsertCommand(schema.TypeTwitter, nil)))
		tweet := doc.Snapshot().Blocks(schema.TypeTwitter)[0]
		assert.NotEqual(t, bookmark, tweet)

		err := doc.UpdateAttrs(bookmark, document.Attrs{"url": "https://stale.example", "editing": false})
		assert.ErrorIs(t, err, document.ErrDetached)
		attrs, err := doc.Attrs(tweet)
		require.NoError(t, err)
		assert.Empty(t, attrs.String("url"))
		assert.True(t, attrs.Bool(document.AttrEditing))
	})

	t.Run("update after SetContent", func(t *testing.T) {
		doc := parse(t, `<div data-type="bookmark" url="https://go.dev" editing="false"></div>`)
		bookmark := doc.Snapshot().Blocks(schema.TypeBookmark)[0]

		require.NoError(t, doc.SetContent(`<div data-type="twitter" url="" editing="true"></div>`))
		tweet := doc.Snapshot().Blocks(schema.TypeTwitter)[0]
		assert.NotEqual(t, bookmark, tweet)

		require.NoError(t, doc.UpdateAttrs(tweet, document.Attrs{"url": "https://x.com/t/1", "editing": false}))
		require.True(t, doc.Undo())

		attrs, err := doc.Attrs(bookmark)
		require.NoError(t, err)
		assert.Equal(t, "https://go.dev", attrs.String("url"))
	})
}

func TestOnChange(t *testing.T) {
	doc := parse(t, "<p>abc</p>")
	var got []string
	doc.OnChange(func(html string) { got = append(got, html) })

	selectRange(t, doc, 1, 2)
	assert.Empty(t, got, "selection changes are not document changes")

	require.NoError(t, doc.Apply(document.ToggleMark(document.MarkCode)))
	require.NoError(t, doc.SetContent("<p>new</p>"))
	_ = doc.Apply(document.SetHeading(0))

	assert.Equal(t, []string{"<p><code>a</code>bc</p>", "<p>new</p>"}, got)
}

func TestJSON(t *testing.T) {
	doc := parse(t, `<p><a href="https://go.dev">Go</a></p><div data-type="twitter" url="u" editing="false"></div>`)
	tree := doc.Snapshot().JSON()

	assert.Equal(t, "doc", tree.Type)
	require.Len(t, tree.Content, 2)
	assert.Equal(t, "paragraph", tree.Content[0].Type)
	text := tree.Content[0].Content[0]
	assert.Equal(t, "Go", text.Text)
	assert.Equal(t, "link", text.Marks[0].Type)
	assert.Equal(t, "https://go.dev", text.Marks[0].Attrs["href"])
	assert.Equal(t, "twitter", tree.Content[1].Type)
	assert.Equal(t, false, tree.Content[1].Attrs["editing"])
}
