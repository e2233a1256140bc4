package schema

import "github.com/debemdeboas/inkpad/internal/document"

// Custom block type names.
const (
	TypeHTMLBlock  = "htmlBlock"
	TypeImageBlock = "imageBlock"
	TypeBookmark   = "bookmark"
	TypeYouTube    = "youtube"
	TypeUnsplash   = "unsplash"
	TypeTwitter    = "twitter"
	TypeDivider    = "dividerBlock"
)

func str(name string) document.AttrSpec {
	return document.AttrSpec{Name: name, Default: ""}
}

var editing = document.AttrSpec{Name: document.AttrEditing, Default: true}

func atom(name, dataType, primary string, attrs ...document.AttrSpec) document.NodeSpec {
	return document.NodeSpec{
		Name:     name,
		Group:    document.GroupBlock,
		Content:  document.ContentNone,
		Atomic:   true,
		Attrs:    append(attrs, editing),
		Tag:      "div",
		DataType: dataType,
		Primary:  primary,
	}
}

// Default returns a registry holding the structural types, the custom blocks and the
// insertion menu.
func Default() *Registry {
	r := NewRegistry()

	r.MustRegister(document.NodeSpec{Name: document.TypeParagraph, Group: document.GroupBlock, Content: document.ContentInline, Tag: "p"})
	r.MustRegister(document.NodeSpec{
		Name: document.TypeHeading, Group: document.GroupBlock, Content: document.ContentInline,
		Attrs: []document.AttrSpec{{Name: "level", Default: 1}},
	})
	r.MustRegister(document.NodeSpec{Name: document.TypeBulletList, Group: document.GroupBlock, Content: document.ContentListItems, Tag: "ul"})
	r.MustRegister(document.NodeSpec{Name: document.TypeOrderedList, Group: document.GroupBlock, Content: document.ContentListItems, Tag: "ol"})
	r.MustRegister(document.NodeSpec{Name: document.TypeListItem, Content: document.ContentBlocks, Tag: "li"})
	r.MustRegister(document.NodeSpec{Name: document.TypeBlockquote, Group: document.GroupBlock, Content: document.ContentBlocks, Tag: "blockquote"})
	r.MustRegister(document.NodeSpec{
		Name: document.TypeCodeBlock, Group: document.GroupBlock, Content: document.ContentText,
		Attrs: []document.AttrSpec{str("language")},
	})
	r.MustRegister(document.NodeSpec{Name: document.TypeHorizontalRule, Group: document.GroupBlock, Tag: "hr"})
	r.MustRegister(document.NodeSpec{Name: document.TypeHardBreak, Group: document.GroupInline, Tag: "br"})

	r.MustRegister(atom(TypeHTMLBlock, "html-block", "html", str("html")))
	r.MustRegister(atom(TypeImageBlock, "image-block", "src", str("src"), str("caption")), ElementMatch{Tag: "img"})
	r.MustRegister(atom(TypeBookmark, "bookmark", "url", str("url"), str("title"), str("description"), str("image")))
	r.MustRegister(atom(TypeYouTube, "youtube", "src", str("src"), str("url")))
	r.MustRegister(atom(TypeUnsplash, "unsplash", "src", str("src"), str("author")))
	r.MustRegister(atom(TypeTwitter, "twitter", "url", str("url")))
	r.MustRegister(document.NodeSpec{
		Name:     TypeDivider,
		Group:    document.GroupBlock,
		Content:  document.ContentNone,
		Atomic:   true,
		Tag:      "hr",
		DataType: "divider",
	})

	for _, item := range []MenuItem{
		{Key: "image", Label: "Media", Type: TypeImageBlock},
		{Key: "html", Label: "HTML", Type: TypeHTMLBlock},
		{Key: "divider", Label: "Divider", Type: TypeDivider},
		{Key: "bookmark", Label: "Bookmark", Type: TypeBookmark},
		{Key: "youtube", Label: "YouTube", Type: TypeYouTube},
		{Key: "unsplash", Label: "Unsplash", Type: TypeUnsplash},
		{Key: "twitter", Label: "Twitter", Type: TypeTwitter},
	} {
		if err := r.AddMenuItem(item); err != nil {
			panic(err)
		}
	}
	return r
}
