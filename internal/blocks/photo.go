package blocks

import (
	"context"
	"fmt"
	"html/template"
	"sync"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/photos"
	"github.com/debemdeboas/inkpad/internal/schema"
)

// PhotoSource lists candidate photos, falling back to placeholders when it has to.
type PhotoSource interface {
	ListOrPlaceholders(ctx context.Context, page, limit int) ([]photos.Photo, bool)
}

type Photo struct{}

func (Photo) Type() string { return schema.TypeUnsplash }

func (Photo) State(attrs document.Attrs) State {
	return stateFor(attrs, "src")
}

func (p Photo) Render(attrs document.Attrs) (template.HTML, error) {
	return renderPicker(p, attrs, pickerView{Loading: true})
}

type pickerPhoto struct {
	photos.Photo
	Thumbnail string
}

type pickerView struct {
	Src     template.URL
	Author  string
	Query   string
	Loading bool
	Photos  []pickerPhoto
}

func renderPicker(p Photo, attrs document.Attrs, view pickerView) (template.HTML, error) {
	return render(p, "photo-editing", "photo-display", attrs, func(a document.Attrs) any {
		view.Src = safeURL(a.String("src"))
		view.Author = a.String("author")
		if view.Author == "" {
			view.Author = "Unknown"
		}
		return view
	})
}

// PhotoPicker is the controller behind the photo picker: the candidate list, its filter and
// the selection.
type PhotoPicker struct {
	u        *AttrUpdater
	source   PhotoSource
	pageSize int

	mu     sync.Mutex
	list   []photos.Photo
	query  string
	loaded bool
}

// NewPhotoPicker loads pageSize candidates at a time; zero means photos.DefaultLimit.
func NewPhotoPicker(u *AttrUpdater, source PhotoSource, pageSize int) *PhotoPicker {
	if pageSize <= 0 {
		pageSize = photos.DefaultLimit
	}
	return &PhotoPicker{u: u, source: source, pageSize: pageSize}
}

// Load fetches the first page of candidates. It reports false when placeholders were used.
func (p *PhotoPicker) Load(ctx context.Context) ([]photos.Photo, bool) {
	list, ok := p.source.ListOrPlaceholders(ctx, 1, p.pageSize)

	p.mu.Lock()
	p.list = list
	p.loaded = true
	p.mu.Unlock()
	return list, ok
}

// Filter narrows the candidates to authors matching query.
func (p *PhotoPicker) Filter(query string) []photos.Photo {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query = query
	return photos.Filter(p.list, query)
}

// Select commits the photo with the given download URL, crediting its author.
func (p *PhotoPicker) Select(downloadURL string) error {
	if downloadURL == "" {
		return ErrEmptyURL
	}
	p.mu.Lock()
	author := photos.AuthorOf(p.list, downloadURL)
	p.mu.Unlock()

	p.u.Update(document.Attrs{"src": downloadURL, "author": author, document.AttrEditing: false})
	return nil
}

// Close leaves the picker. A block without a photo stays in its picker.
func (p *PhotoPicker) Close() bool {
	return p.u.Update(document.Attrs{document.AttrEditing: false})
}

func (p *PhotoPicker) Edit() bool {
	return p.u.Edit()
}

// Render shows the picker with the current candidates, or the chosen photo.
func (p *PhotoPicker) Render() (template.HTML, error) {
	attrs, ok := p.u.Attrs()
	if !ok {
		return "", fmt.Errorf("%w: node %d", document.ErrDetached, p.u.ID())
	}

	p.mu.Lock()
	view := pickerView{Query: p.query, Loading: !p.loaded}
	for _, ph := range photos.Filter(p.list, p.query) {
		view.Photos = append(view.Photos, pickerPhoto{Photo: ph, Thumbnail: photos.Thumbnail(ph.DownloadURL)})
	}
	p.mu.Unlock()

	return renderPicker(Photo{}, attrs, view)
}
