// Package render turns stored post HTML into the published page and imports markdown posts.
package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/debemdeboas/inkpad/internal/blocks"
	"github.com/debemdeboas/inkpad/internal/cache"
	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/util"
	"github.com/rs/zerolog"
)

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

// Renderer produces the reader-facing HTML of a post: custom blocks in their display view,
// code blocks highlighted and everything else as stored.
type Renderer struct {
	schema      document.Schema
	blocks      *blocks.Set
	syntaxTheme string

	// mu serialises the check-render-set sequence of RenderCached.
	mu sync.Mutex
}

func NewRenderer(schema document.Schema, set *blocks.Set, syntaxTheme string) *Renderer {
	return &Renderer{schema: schema, blocks: set, syntaxTheme: syntaxTheme}
}

func (r *Renderer) SyntaxTheme() string {
	return r.syntaxTheme
}

// Render renders post content. Blocks still showing their input form are left out.
func (r *Renderer) Render(content string) ([]byte, error) {
	doc, err := document.Parse(r.schema, content)
	if err != nil {
		return nil, fmt.Errorf("parse post content: %w", err)
	}
	state := doc.Snapshot()

	out := state.RenderHTML(func(w io.Writer, n *document.Node) bool {
		if n.Type == document.TypeCodeBlock {
			fmt.Fprintf(w, `<div class="highlight">%s</div>`,
				HighlightCode(state.TextContent(n.ID), n.Attrs.String("language"), r.syntaxTheme))
			return true
		}

		if _, ok := r.blocks.Get(n.Type); !ok {
			return false
		}
		view, err := r.blocks.State(n.Type, n.Attrs)
		if err != nil {
			return false
		}
		if _, editing := view.(blocks.Editing); editing {
			renderLogger.Debug().Str("type", n.Type).Int("node_id", int(n.ID)).Msg("Unfinished block left out")
			return true
		}

		html, err := r.blocks.Render(n.Type, n.Attrs)
		if err != nil {
			renderLogger.Error().Err(err).Str("type", n.Type).Msg("Block render failed")
			return true
		}
		io.WriteString(w, string(html))
		return true
	})
	return []byte(out), nil
}

// RenderCached is Render memoised on the content hash and syntax theme.
func (r *Renderer) RenderCached(content string) ([]byte, error) {
	hash := util.ContentHashString(content)

	if cached, ok := cache.GetRenderedPost(hash, r.syntaxTheme); ok {
		renderLogger.Debug().Str("contentHash", hash).Msg("Cache hit for rendered post")
		return cached, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := cache.GetRenderedPost(hash, r.syntaxTheme); ok {
		return cached, nil
	}
	renderLogger.Debug().Str("contentHash", hash).Msg("Cache miss for rendered post")

	out, err := r.Render(content)
	if err != nil {
		return nil, err
	}
	cache.SetRenderedPost(hash, r.syntaxTheme, out)
	return out, nil
}

// WarmCache renders content in the background so the next page view is a cache hit.
func (r *Renderer) WarmCache(content string) {
	go func() {
		if _, err := r.RenderCached(content); err != nil {
			renderLogger.Warn().Err(err).Msg("Cache warming failed")
		}
	}()
}
