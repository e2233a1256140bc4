// Package session holds one open editor: its document, toolbar and inserter, and the
// debounced autosave that writes the post back to the store.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/inserter"
	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/debemdeboas/inkpad/internal/toolbar"
	"github.com/rs/zerolog"
)

const DefaultDelay = 1000 * time.Millisecond

var ErrClosed = errors.New("editing session is closed")

var sessionLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	sessionLogger = l
}

type Status string

const (
	StatusNew    Status = "New"
	StatusSaving Status = "Saving..."
	StatusSaved  Status = "Saved"
)

// Store is the part of the post store a session writes through.
type Store interface {
	Get(id model.PostID) (model.Post, error)
	Add(post model.Post)
	Update(id model.PostID, patch model.PostPatch) error
	NewPostID(now time.Time) model.PostID
}

type Options struct {
	// Delay is the quiet period after the last change before the post is written.
	Delay         time.Duration
	ToolbarOffset int
}

type Session struct {
	mu    sync.Mutex
	id    ID
	store Store
	delay time.Duration

	doc      *document.Document
	toolbar  *toolbar.Toolbar
	inserter *inserter.Inserter

	postID  model.PostID
	title   string
	content string
	cover   *string
	status  Status

	timer *time.Timer
	// gen invalidates timers that fired while a newer change or a save was in progress.
	gen    uint64
	closed bool

	lastActive time.Time
	now        func() time.Time
}

func newSession(id ID, store Store, reg *schema.Registry, doc *document.Document, opts Options) *Session {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	s := &Session{
		id:       id,
		store:    store,
		delay:    opts.Delay,
		doc:      doc,
		toolbar:  toolbar.New(doc, opts.ToolbarOffset),
		inserter: inserter.New(doc, reg),
		status:   StatusNew,
		now:      time.Now,
	}
	s.content = doc.HTML()
	s.lastActive = s.now()
	doc.OnChange(s.contentChanged)
	return s
}

// New starts a session for a post that does not exist yet. The post is created by the
// first save.
func New(id ID, store Store, reg *schema.Registry, opts Options) *Session {
	return newSession(id, store, reg, document.New(reg), opts)
}

// Open starts a session editing an existing post.
func Open(id ID, store Store, reg *schema.Registry, postID model.PostID, opts Options) (*Session, error) {
	post, err := store.Get(postID)
	if err != nil {
		return nil, err
	}
	doc, err := document.Parse(reg, post.Content)
	if err != nil {
		return nil, fmt.Errorf("parse post %s: %w", postID, err)
	}

	s := newSession(id, store, reg, doc, opts)
	s.postID = post.ID
	s.title = post.Title
	s.content = post.Content
	if post.FeaturedImage != nil {
		cover := *post.FeaturedImage
		s.cover = &cover
	}
	s.status = StatusSaved
	return s, nil
}

func (s *Session) ID() ID {
	return s.id
}

func (s *Session) Document() *document.Document {
	return s.doc
}

func (s *Session) Toolbar() *toolbar.Toolbar {
	return s.toolbar
}

func (s *Session) Inserter() *inserter.Inserter {
	return s.inserter
}

// PostID is empty until the first save of a new post.
func (s *Session) PostID() model.PostID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.postID
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) Cover() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cover == nil {
		return ""
	}
	return *s.cover
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SetContent replaces the whole document. The change reaches the store through the
// debounced autosave like any other edit.
func (s *Session) SetContent(markup string) error {
	if s.isClosed() {
		return ErrClosed
	}
	return s.doc.SetContent(markup)
}

func (s *Session) SetTitle(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.title = title
	s.schedule()
	return nil
}

// SetFeaturedImage sets the cover and saves at once. An empty url clears it.
func (s *Session) SetFeaturedImage(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if url == "" {
		s.cover = nil
	} else {
		s.cover = &url
	}
	s.status = StatusSaving
	return s.saveLocked()
}

// Publish writes the post now, discarding any pending autosave.
func (s *Session) Publish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.status = StatusSaving
	return s.saveLocked()
}

// Close stops the autosave timer. Changes not yet written are dropped and nothing is written
// after Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.stopTimer()
	sessionLogger.Debug().Str("session_id", string(s.id)).Str("post_id", string(s.postID)).Msg("Session closed")
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) contentChanged(html string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.content = html
	s.schedule()
}

// schedule restarts the debounce window. Callers hold s.mu.
func (s *Session) schedule() {
	s.status = StatusSaving
	s.lastActive = s.now()
	s.stopTimer()

	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed || gen != s.gen {
			return
		}
		if err := s.saveLocked(); err != nil {
			sessionLogger.Error().Err(err).Str("session_id", string(s.id)).Msg("Autosave failed")
		}
	})
}

func (s *Session) stopTimer() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// saveLocked writes the session's post, creating it on the first save. Callers hold s.mu.
func (s *Session) saveLocked() error {
	s.stopTimer()
	now := s.now()

	if s.postID == "" {
		post := model.Post{
			ID:        s.store.NewPostID(now),
			Title:     s.title,
			Content:   s.content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if s.cover != nil {
			post.FeaturedImage = model.Ptr(*s.cover)
		}
		s.store.Add(post)
		s.postID = post.ID
		sessionLogger.Info().Str("session_id", string(s.id)).Str("post_id", string(post.ID)).Msg("Post created")
	} else {
		var cover *string
		if s.cover != nil {
			cover = model.Ptr(*s.cover)
		}
		err := s.store.Update(s.postID, model.PostPatch{
			Title:         model.Ptr(s.title),
			Content:       model.Ptr(s.content),
			FeaturedImage: &cover,
			UpdatedAt:     &now,
		})
		if err != nil {
			return fmt.Errorf("save post %s: %w", s.postID, err)
		}
		sessionLogger.Debug().Str("session_id", string(s.id)).Str("post_id", string(s.postID)).Msg("Post saved")
	}

	s.status = StatusSaved
	s.lastActive = now
	return nil
}
