package blocks

import (
	"html/template"
	"strings"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowElements("iframe")
	p.AllowAttrs("src", "width", "height", "allow", "allowfullscreen", "frameborder", "title").OnElements("iframe")
	p.AllowStyling()
	return p
}()

// SanitizeHTML strips scripts, event handlers and unsafe URLs from user markup.
func SanitizeHTML(markup string) string {
	return htmlPolicy.Sanitize(markup)
}

// HTML renders raw markup. Unless Trusted, the markup is sanitized first.
type HTML struct {
	Trusted bool
}

func (HTML) Type() string { return schema.TypeHTMLBlock }

func (HTML) State(attrs document.Attrs) State {
	return stateFor(attrs, "html")
}

func (h HTML) Render(attrs document.Attrs) (template.HTML, error) {
	return render(h, "html-editing", "html-display", attrs, func(a document.Attrs) any {
		markup := a.String("html")
		if !h.Trusted {
			markup = SanitizeHTML(markup)
		}
		return struct {
			HTML   string
			Markup template.HTML
		}{a.String("html"), template.HTML(markup)}
	})
}

// HTMLBlock is the controller behind an HTML block's textarea.
type HTMLBlock struct {
	u *AttrUpdater
}

func NewHTMLBlock(u *AttrUpdater) *HTMLBlock {
	return &HTMLBlock{u: u}
}

// SetDraft stores the markup as typed; the block stays in its input form.
func (b *HTMLBlock) SetDraft(markup string) bool {
	return b.u.Update(document.Attrs{"html": markup})
}

// Confirm switches to the rendered view. Blank markup is refused.
func (b *HTMLBlock) Confirm() error {
	attrs, ok := b.u.Attrs()
	if !ok {
		return nil
	}
	if strings.TrimSpace(attrs.String("html")) == "" {
		return ErrEmptyHTML
	}
	b.u.Update(document.Attrs{document.AttrEditing: false})
	return nil
}

func (b *HTMLBlock) Edit() bool {
	return b.u.Edit()
}
