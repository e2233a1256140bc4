package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/inkpad/internal/blocks"
	"github.com/debemdeboas/inkpad/internal/config"
	"github.com/debemdeboas/inkpad/internal/db"
	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/inserter"
	"github.com/debemdeboas/inkpad/internal/linkpreview"
	"github.com/debemdeboas/inkpad/internal/logger"
	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/debemdeboas/inkpad/internal/photos"
	"github.com/debemdeboas/inkpad/internal/render"
	"github.com/debemdeboas/inkpad/internal/repository"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/debemdeboas/inkpad/internal/server"
	"github.com/debemdeboas/inkpad/internal/session"
	"github.com/debemdeboas/inkpad/internal/sse"
	"github.com/debemdeboas/inkpad/internal/storage"
	"github.com/debemdeboas/inkpad/internal/toolbar"
	"github.com/debemdeboas/inkpad/internal/uploads"
)

const sweepInterval = 10 * time.Minute

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	if err := config.LoadConfig(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.AppConfig

	log := logger.New(cfg.Logging.Level)
	setLoggers(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer a.close()

	go a.sessions.RunSweeper(ctx, sweepInterval, cfg.Editor.SessionIdle())

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	if err := a.server.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(l.With().Str("component", "config").Logger())
	db.SetLogger(l.With().Str("component", "db").Logger())
	storage.SetLogger(l.With().Str("component", "storage").Logger())
	repository.SetLogger(l.With().Str("component", "repository").Logger())
	document.SetLogger(l.With().Str("component", "document").Logger())
	schema.SetLogger(l.With().Str("component", "schema").Logger())
	blocks.SetLogger(l.With().Str("component", "blocks").Logger())
	toolbar.SetLogger(l.With().Str("component", "toolbar").Logger())
	inserter.SetLogger(l.With().Str("component", "inserter").Logger())
	session.SetLogger(l.With().Str("component", "session").Logger())
	render.SetLogger(l.With().Str("component", "render").Logger())
	linkpreview.SetLogger(l.With().Str("component", "linkpreview").Logger())
	photos.SetLogger(l.With().Str("component", "photos").Logger())
	uploads.SetLogger(l.With().Str("component", "uploads").Logger())
	server.SetLogger(l.With().Str("component", "server").Logger())
}

type app struct {
	posts    *repository.PostStore
	sessions *session.Registry
	server   *server.Server
	closers  []func() error
}

func (a *app) close() {
	a.sessions.CloseAll()
	for _, c := range a.closers {
		c()
	}
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	var kv storage.KV
	switch cfg.Storage.Backend {
	case "sqlite":
		sqlite, err := storage.OpenSQLite(cfg.Storage.Path, cfg.Storage.Compress)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sqlite.Close)
		kv = sqlite
	default:
		kv = storage.NewMemoryKV()
	}

	a.posts = repository.NewPostStore(kv, cfg.Storage.PostsKey)
	a.posts.Load()

	reg := schema.Default()
	set := blocks.DefaultSet(cfg.Editor.TrustHTMLBlocks)
	renderer := render.NewRenderer(reg, set, cfg.Editor.SyntaxTheme)
	events := sse.NewSSEClients()

	a.posts.SetChangeNotifier(func(id model.PostID) {
		post, err := a.posts.Get(id)
		if err != nil {
			events.Broadcast(id, sse.EventDeleted)
			return
		}
		renderer.WarmCache(post.Content)
		events.Broadcast(id, sse.EventUpdated)
	})

	a.sessions = session.NewRegistry(a.posts, reg, session.Options{
		Delay:         cfg.Editor.AutosaveDelay(),
		ToolbarOffset: cfg.Editor.ToolbarOffsetPx,
	})

	store, err := uploadStore(ctx, cfg.Uploads)
	if err != nil {
		return nil, err
	}

	a.server, err = server.New(server.Deps{
		Posts:    a.posts,
		Sessions: a.sessions,
		Schema:   reg,
		Blocks:   set,
		Renderer: renderer,
		Events:   events,
		Previews: linkpreview.New(linkpreview.Options{
			RetryMax: cfg.Services.RetryMax,
			Timeout:  cfg.Services.LinkPreviewTimeout(),
			CacheTTL: cfg.Services.LinkPreviewCacheTTL(),
		}),
		Photos:         photos.New(cfg.Services.PhotosBaseURL, cfg.Services.RetryMax, cfg.Services.PhotosTimeout()),
		Uploads:        store,
		PhotosPageSize: cfg.Services.PhotosPageSize,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func uploadStore(ctx context.Context, c config.UploadsConfig) (uploads.Store, error) {
	if c.Backend != "s3" {
		return uploads.NewMemoryStore(int64(c.MaxSizeBytes)), nil
	}

	client, err := uploads.NewS3Client(ctx, envOr("S3_ACCESS_KEY_ID", c.AccessKeyID), envOr("S3_ACCESS_KEY_SECRET", c.AccessKeySecret), c.Endpoint)
	if err != nil {
		return nil, err
	}
	return uploads.NewS3Store(client, c.Bucket, c.PublicBaseURL, int64(c.MaxSizeBytes)), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
