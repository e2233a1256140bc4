// Package server exposes the post list, the published post pages and the editing API.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/debemdeboas/inkpad/internal/blocks"
	"github.com/debemdeboas/inkpad/internal/cache"
	"github.com/debemdeboas/inkpad/internal/config"
	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/inserter"
	"github.com/debemdeboas/inkpad/internal/linkpreview"
	"github.com/debemdeboas/inkpad/internal/render"
	"github.com/debemdeboas/inkpad/internal/repository"
	"github.com/debemdeboas/inkpad/internal/routes"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/debemdeboas/inkpad/internal/session"
	"github.com/debemdeboas/inkpad/internal/sse"
	"github.com/debemdeboas/inkpad/internal/toolbar"
	"github.com/debemdeboas/inkpad/internal/uploads"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templatesFS embed.FS

var serverLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	serverLogger = l
}

// Deps are the collaborators the handlers use.
type Deps struct {
	Posts    repository.PostRepository
	Sessions *session.Registry
	Schema   *schema.Registry
	Blocks   *blocks.Set
	Renderer *render.Renderer
	Events   *sse.SSEClients
	Previews blocks.Previewer
	Photos   blocks.PhotoSource
	Uploads  uploads.Store
	// PhotosPageSize is the default page size of the photo listing.
	PhotosPageSize int
}

type Server struct {
	Deps

	controllers *cache.Cache[controllerKey, any]
	templates   *template.Template
	router      chi.Router
	now         func() time.Time
}

func New(d Deps) (*Server, error) {
	s := &Server{
		Deps:        d,
		controllers: cache.NewCache[controllerKey, any](),
		now:         time.Now,
	}
	if s.PhotosPageSize <= 0 {
		s.PhotosPageSize = 30
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"timeAgo": func(t time.Time) string { return timeAgo(t, s.now()) },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = tmpl

	s.setupRoutes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(secureHeaders)

	r.Get(routes.RobotsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, "text/plain")
		w.Write([]byte("User-agent: *\nDisallow:"))
	})

	r.Get(routes.RootPath, s.handleHome)
	r.Get(routes.HomePath, s.handleHome)
	r.Get(routes.PostPage, s.handlePostPage)
	r.Get(routes.SyntaxCSS, s.handleSyntaxCSS)
	r.Get(routes.EventsPath, s.handleEvents)

	r.Route(routes.APIPrefix, func(r chi.Router) {
		r.Use(noCache)

		r.Get(routes.Posts, s.handleListPosts)
		r.Get(routes.Post, s.handleGetPost)
		r.Delete(routes.Post, s.handleDeletePost)

		r.Get(routes.LinkPreview, s.handleLinkPreview)
		r.Get(routes.Photos, s.handlePhotos)
		r.Get(routes.SyntaxThemes, s.handleSyntaxThemes)
		r.Post(routes.Uploads, s.handleUpload)
		r.Get(routes.Upload, s.handleGetUpload)

		r.Post(routes.Sessions, s.handleCreateSession)
		r.Route(routes.Session, func(r chi.Router) {
			r.Use(s.withSession)

			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCloseSession)
			r.Put(routes.SessionContent, s.handleSetContent)
			r.Put(routes.SessionTitle, s.handleSetTitle)
			r.Put(routes.SessionCover, s.handleSetCover)
			r.Post(routes.SessionPublish, s.handlePublish)
			r.Get(routes.SessionDocument, s.handleDocument)

			r.Put(routes.SessionSelection, s.handleSelection)
			r.Post(routes.SessionText, s.handleInsertText)
			r.Post(routes.SessionSplit, s.handleSplit)
			r.Post(routes.SessionDelete, s.handleDeleteSelection)
			r.Post(routes.SessionUndo, s.handleUndo)
			r.Post(routes.SessionRedo, s.handleRedo)

			r.Post(routes.ToolbarLink, s.handleToolbarLink)
			r.Post(routes.ToolbarEscape, s.handleToolbarEscape)
			r.Post(routes.ToolbarDismiss, s.handleToolbarDismiss)
			r.Post(routes.ToolbarAction, s.handleToolbarAction)

			r.Post(routes.InserterHover, s.handleInserterHover)
			r.Post(routes.InserterRecompute, s.handleInserterRecompute)
			r.Post(routes.InserterOpen, s.handleInserterOpen)
			r.Post(routes.InserterChoose, s.handleInserterChoose)
			r.Post(routes.InserterDismiss, s.handleInserterDismiss)

			r.Get(routes.Block, s.handleRenderBlock)
			r.Post(routes.BlockOp, s.handleBlockOp)
		})
	})

	s.router = r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		serverLogger.Info().Str("addr", addr).Msg("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		serverLogger.Info().Msg("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			serverLogger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("Request")
		}()
		next.ServeHTTP(ww, r)
	})
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set(config.HCType, config.CTypeHTML)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		serverLogger.Error().Err(err).Str("template", name).Msg("Template error")
		http.Error(w, "Render error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		serverLogger.Warn().Err(err).Msg("Failed to write response")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

var errBadRequest = errors.New("invalid request")

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, toolbar.ErrUnknownAction),
		errors.Is(err, inserter.ErrUnknownItem),
		errors.Is(err, errUnknownOp):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, document.ErrDetached),
		errors.Is(err, uploads.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrClosed):
		status = http.StatusGone
	case errors.Is(err, document.ErrCommandRejected),
		errors.Is(err, inserter.ErrMenuClosed):
		status = http.StatusConflict
	case errors.Is(err, blocks.ErrEmptyURL),
		errors.Is(err, blocks.ErrEmptyHTML),
		errors.Is(err, blocks.ErrInvalidYouTubeURL),
		errors.Is(err, linkpreview.ErrInvalidURL),
		errors.Is(err, linkpreview.ErrBlockedAddress),
		errors.Is(err, document.ErrOutOfRange):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, uploads.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, uploads.ErrNotImage):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, linkpreview.ErrFetch):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		serverLogger.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}
