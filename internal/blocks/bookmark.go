package blocks

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"sync/atomic"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/linkpreview"
	"github.com/debemdeboas/inkpad/internal/schema"
)

// Previewer looks up the metadata shown on a bookmark card.
type Previewer interface {
	Fetch(ctx context.Context, url string) (*linkpreview.Preview, error)
}

type Bookmark struct{}

func (Bookmark) Type() string { return schema.TypeBookmark }

func (Bookmark) State(attrs document.Attrs) State {
	return stateFor(attrs, "url")
}

func (b Bookmark) Render(attrs document.Attrs) (template.HTML, error) {
	return renderBookmark(b, attrs, false)
}

func renderBookmark(b Bookmark, attrs document.Attrs, loading bool) (template.HTML, error) {
	return render(b, "bookmark-editing", "bookmark-display", attrs, func(a document.Attrs) any {
		return struct {
			URL         string
			Href        template.URL
			Host        string
			Title       string
			Description string
			Image       template.URL
			Loading     bool
		}{
			URL:         a.String("url"),
			Href:        safeURL(a.String("url")),
			Host:        hostname(a.String("url")),
			Title:       a.String("title"),
			Description: a.String("description"),
			Image:       optionalURL(a.String("image")),
			Loading:     loading,
		}
	})
}

func optionalURL(raw string) template.URL {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return safeURL(raw)
}

// BookmarkBlock is the controller behind a bookmark's URL input.
type BookmarkBlock struct {
	u        *AttrUpdater
	previews Previewer
	loading  atomic.Bool
}

func NewBookmarkBlock(u *AttrUpdater, previews Previewer) *BookmarkBlock {
	return &BookmarkBlock{u: u, previews: previews}
}

// Loading reports whether a lookup is in flight.
func (b *BookmarkBlock) Loading() bool {
	return b.loading.Load()
}

// Render is the adapter view with the loading indicator of this block.
func (b *BookmarkBlock) Render() (template.HTML, error) {
	attrs, ok := b.u.Attrs()
	if !ok {
		return "", fmt.Errorf("%w: node %d", document.ErrDetached, b.u.ID())
	}
	return renderBookmark(Bookmark{}, attrs, b.Loading())
}

// Confirm looks the URL up and commits the card. On failure the block keeps its input form
// and the error is returned for display.
func (b *BookmarkBlock) Confirm(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyURL
	}

	b.loading.Store(true)
	defer b.loading.Store(false)

	preview, err := b.previews.Fetch(ctx, url)
	if err != nil {
		b.u.Update(document.Attrs{"url": url, document.AttrEditing: true})
		return fmt.Errorf("bookmark %s: %w", url, err)
	}

	b.u.Update(document.Attrs{
		"url":                url,
		"title":              preview.Title,
		"description":        preview.Description,
		"image":              preview.Image,
		document.AttrEditing: false,
	})
	return nil
}

// Remove clears the card and returns to the input form.
func (b *BookmarkBlock) Remove() bool {
	return b.u.Update(document.Attrs{
		"url":                "",
		"title":              "",
		"description":        "",
		"image":              "",
		document.AttrEditing: true,
	})
}
