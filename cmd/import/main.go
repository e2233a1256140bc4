// Command import loads a directory of markdown files into the post store.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/debemdeboas/inkpad/internal/config"
	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/logger"
	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/debemdeboas/inkpad/internal/render"
	"github.com/debemdeboas/inkpad/internal/repository"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/debemdeboas/inkpad/internal/storage"
	"github.com/debemdeboas/inkpad/internal/util"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	nameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
)

func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	flavour := flag.String("flavour", render.MarkdownMmark, "Markdown flavour: classic or mmark")
	dryRun := flag.Bool("dry-run", false, "Convert the files without writing them")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, errStyle.Render("The --path flag is required"))
		os.Exit(2)
	}

	if err := config.LoadConfig(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("Failed to load config: "+err.Error()))
		os.Exit(1)
	}
	cfg := config.AppConfig
	l := logger.New(cfg.Logging.Level)
	repository.SetLogger(l)
	storage.SetLogger(l)

	kv, err := storage.OpenSQLite(cfg.Storage.Path, cfg.Storage.Compress)
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render(err.Error()))
		os.Exit(1)
	}
	defer kv.Close()

	store := repository.NewPostStore(kv, cfg.Storage.PostsKey)
	store.Load()
	reg := schema.Default()

	files, err := os.ReadDir(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render(fmt.Sprintf("Error reading directory %s: %v", *path, err)))
		os.Exit(1)
	}

	imported := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}
		post, err := processFile(*path, file, reg, *flavour)
		if err != nil {
			fmt.Println(errStyle.Render("✗ ") + nameStyle.Render(file.Name()) + " " + err.Error())
			continue
		}
		if !*dryRun {
			post.ID = store.NewPostID(post.CreatedAt)
			store.Add(post)
		}
		imported++
		fmt.Println(okStyle.Render("✓ ") + nameStyle.Render(file.Name()) + " → " + post.Title)
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("Imported %d post(s)", imported)))
}

func processFile(dir string, file os.DirEntry, reg document.Schema, flavour string) (model.Post, error) {
	data, err := os.ReadFile(filepath.Join(dir, file.Name()))
	if err != nil {
		return model.Post{}, err
	}
	info, err := file.Info()
	if err != nil {
		return model.Post{}, err
	}
	return buildPost(strings.TrimSuffix(file.Name(), ".md"), data, info.ModTime(), reg, flavour)
}

// buildPost converts one markdown file. Front matter wins over the rendered title block,
// which wins over the file name.
func buildPost(name string, data []byte, modTime time.Time, reg document.Schema, flavour string) (model.Post, error) {
	body := data
	fm, rest, err := util.SplitFrontMatter(data)
	if err == nil {
		body = rest
	} else {
		fm = nil
	}

	title, content, err := render.Import(reg, body, flavour)
	if err != nil {
		return model.Post{}, err
	}

	post := model.Post{
		Title:     name,
		Content:   content,
		CreatedAt: modTime.UTC(),
		UpdatedAt: modTime.UTC(),
	}
	if title != "" {
		post.Title = title
	}
	if fm != nil {
		if fm.Title != "" {
			post.Title = fm.Title
		}
		if !fm.Date.IsZero() {
			post.CreatedAt = fm.Date.UTC()
		}
		if !fm.Updated.IsZero() {
			post.UpdatedAt = fm.Updated.UTC()
		}
		if fm.Cover != "" {
			cover := fm.Cover
			post.FeaturedImage = &cover
		}
	}
	return post, nil
}
