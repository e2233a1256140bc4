package blocks

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/debemdeboas/inkpad/internal/uploads"
)

type Image struct{}

func (Image) Type() string { return schema.TypeImageBlock }

func (Image) State(attrs document.Attrs) State {
	return stateFor(attrs, "src")
}

func (i Image) Render(attrs document.Attrs) (template.HTML, error) {
	return render(i, "image-editing", "image-display", attrs, func(a document.Attrs) any {
		return struct {
			URL     string
			Src     template.URL
			Caption string
		}{a.String("src"), safeURL(a.String("src")), a.String("caption")}
	})
}

// ImageBlock is the controller behind an image block's upload and URL inputs.
type ImageBlock struct {
	u     *AttrUpdater
	store uploads.Store
}

func NewImageBlock(u *AttrUpdater, store uploads.Store) *ImageBlock {
	return &ImageBlock{u: u, store: store}
}

// Upload stores the file and shows it. The returned reference is the new src.
func (b *ImageBlock) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	ref, err := b.store.Put(ctx, filename, contentType, r)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	b.u.Update(document.Attrs{"src": ref, document.AttrEditing: false})
	return ref, nil
}

// SetURL shows the image at url. An empty url clears the block.
func (b *ImageBlock) SetURL(url string) bool {
	url = strings.TrimSpace(url)
	if url == "" {
		return b.Clear()
	}
	return b.u.Update(document.Attrs{"src": url, document.AttrEditing: false})
}

func (b *ImageBlock) SetCaption(caption string) bool {
	return b.u.Update(document.Attrs{"caption": caption})
}

// Clear drops the image and returns to the upload form.
func (b *ImageBlock) Clear() bool {
	return b.u.Update(document.Attrs{"src": "", document.AttrEditing: true})
}
