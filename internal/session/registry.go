package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/google/uuid"
)

type ID string

var ErrNotFound = errors.New("editing session not found")

// Registry keeps the open sessions by id.
type Registry struct {
	sessions sync.Map

	store  Store
	schema *schema.Registry
	opts   Options

	now func() time.Time
}

func NewRegistry(store Store, reg *schema.Registry, opts Options) *Registry {
	return &Registry{
		store:  store,
		schema: reg,
		opts:   opts,
		now:    time.Now,
	}
}

// Create opens a session on postID, or on a new post when postID is empty.
func (r *Registry) Create(postID model.PostID) (*Session, error) {
	id := ID(uuid.New().String())

	var s *Session
	if postID == "" {
		s = New(id, r.store, r.schema, r.opts)
	} else {
		var err error
		if s, err = Open(id, r.store, r.schema, postID, r.opts); err != nil {
			return nil, err
		}
	}
	s.now = r.now
	s.lastActive = r.now()

	r.sessions.Store(id, s)
	sessionLogger.Info().Str("session_id", string(id)).Str("post_id", string(postID)).Msg("Session opened")
	return s, nil
}

// Get returns an open session and marks it active.
func (r *Registry) Get(id ID) (*Session, error) {
	if v, ok := r.sessions.Load(id); ok {
		s := v.(*Session)
		s.touch()
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Has reports whether id is open without marking it active.
func (r *Registry) Has(id ID) bool {
	_, ok := r.sessions.Load(id)
	return ok
}

// Delete closes the session and forgets it.
func (r *Registry) Delete(id ID) error {
	v, ok := r.sessions.LoadAndDelete(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	v.(*Session).Close()
	return nil
}

func (r *Registry) Len() int {
	n := 0
	r.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Sweep closes sessions that have seen no activity for longer than idle.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	closed := 0
	r.sessions.Range(func(k, v any) bool {
		s := v.(*Session)
		if s.idleSince().Before(cutoff) {
			r.sessions.Delete(k)
			s.Close()
			closed++
		}
		return true
	})
	if closed > 0 {
		sessionLogger.Info().Int("count", closed).Msg("Idle sessions closed")
	}
	return closed
}

// RunSweeper sweeps idle sessions every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(idle)
		}
	}
}

// CloseAll closes every session, as on shutdown.
func (r *Registry) CloseAll() {
	r.sessions.Range(func(k, v any) bool {
		r.sessions.Delete(k)
		v.(*Session).Close()
		return true
	})
}
