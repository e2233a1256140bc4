package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/debemdeboas/inkpad/internal/config"
	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/debemdeboas/inkpad/internal/render"
	"github.com/debemdeboas/inkpad/internal/util"
	"github.com/go-chi/chi/v5"
)

const excerptRunes = 140

type postCard struct {
	model.Post
	Excerpt string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	pd := model.NewPageData(r)

	var posts []model.Post
	if pd.Query != "" {
		posts = s.Posts.Search(pd.Query)
	} else {
		posts = s.Posts.List()
	}

	cards := make([]postCard, len(posts))
	for i, p := range posts {
		cards[i] = postCard{Post: p, Excerpt: s.excerpt(p.Content)}
	}

	s.render(w, "home.html", struct {
		*model.PageData
		PostsPath string
		Posts     []postCard
	}{
		PageData:  pd,
		PostsPath: config.PostsUrlPath,
		Posts:     cards,
	})
}

func (s *Server) handlePostPage(w http.ResponseWriter, r *http.Request) {
	post, err := s.Posts.Get(model.PostID(chi.URLParam(r, "id")))
	if err != nil {
		http.Error(w, config.HTTPErrPostNotFound, http.StatusNotFound)
		return
	}

	content, err := s.Renderer.RenderCached(post.Content)
	if err != nil {
		serverLogger.Error().Err(err).Str("post_id", string(post.ID)).Msg("Failed to render post")
		http.Error(w, "Render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", `"`+util.ContentHashString(post.Content+post.Title+post.Cover())+`"`)
	s.render(w, "post.html", struct {
		*model.PageData
		Post    *model.Post
		Content template.HTML
	}{
		PageData: model.NewPageData(r),
		Post:     &post,
		Content:  template.HTML(content),
	})
}

func (s *Server) handleSyntaxCSS(w http.ResponseWriter, r *http.Request) {
	theme := syntaxTheme(r, s.Renderer.SyntaxTheme())
	css := []byte(render.SyntaxCSS(theme))

	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HCacheControl, "public, max-age=3600")
	w.Header().Set("ETag", `"`+util.ContentHash(css)+`"`)
	w.Write(css)
}

// syntaxTheme is the theme named in the query, then the cookie, then def.
func syntaxTheme(r *http.Request, def string) string {
	if theme := r.URL.Query().Get("theme"); theme != "" {
		return theme
	}
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return def
}

func (s *Server) handleSyntaxThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, render.SyntaxThemes())
}

// timeAgo is the list view's "last touched" label.
func timeAgo(t, now time.Time) string {
	minutes := max(int(now.Sub(t).Minutes()), 0)
	switch {
	case minutes < 60:
		return fmt.Sprintf("%d minutes ago", minutes)
	case minutes < 24*60:
		hours := minutes / 60
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		return "Published " + t.Format("02 Jan 2006")
	}
}

// excerpt is the start of a post's text, cut at a word boundary.
func (s *Server) excerpt(content string) string {
	doc, err := document.Parse(s.Schema, content)
	if err != nil {
		return ""
	}
	state := doc.Snapshot()

	var parts []string
	for _, tb := range state.Textblocks(0, state.ContentSize()) {
		if text := strings.TrimSpace(state.TextContent(tb)); text != "" {
			parts = append(parts, text)
		}
	}
	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	if utf8.RuneCountInString(text) <= excerptRunes {
		return text
	}

	cut := string([]rune(text)[:excerptRunes])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
