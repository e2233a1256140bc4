package blocks

import (
	"html/template"
	"strings"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/schema"
)

type Twitter struct{}

func (Twitter) Type() string { return schema.TypeTwitter }

func (Twitter) State(attrs document.Attrs) State {
	return stateFor(attrs, "url")
}

func (t Twitter) Render(attrs document.Attrs) (template.HTML, error) {
	return render(t, "twitter-editing", "twitter-display", attrs, func(a document.Attrs) any {
		return struct {
			URL  string
			Href template.URL
		}{a.String("url"), safeURL(a.String("url"))}
	})
}

// TwitterBlock is the controller behind a Twitter block's URL input. Any non-blank input is
// accepted.
type TwitterBlock struct {
	u *AttrUpdater
}

func NewTwitterBlock(u *AttrUpdater) *TwitterBlock {
	return &TwitterBlock{u: u}
}

func (b *TwitterBlock) Confirm(url string) error {
	if strings.TrimSpace(url) == "" {
		return ErrEmptyURL
	}
	b.u.Update(document.Attrs{"url": url, document.AttrEditing: false})
	return nil
}

func (b *TwitterBlock) Edit() bool {
	return b.u.Edit()
}
