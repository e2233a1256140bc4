// Package repository owns the list of posts and its persistence.
package repository

import (
	"errors"
	"time"

	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("post not found")

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

type PostRepository interface {
	// Load replaces the in-memory list with the persisted one.
	Load()
	List() []model.Post
	Search(query string) []model.Post
	Get(id model.PostID) (model.Post, error)

	Add(post model.Post)
	Update(id model.PostID, patch model.PostPatch) error
	Delete(id model.PostID) error

	NewPostID(now time.Time) model.PostID

	// SetChangeNotifier sets a function that will be called after a post is added, updated or deleted.
	SetChangeNotifier(notifier func(model.PostID))
}
