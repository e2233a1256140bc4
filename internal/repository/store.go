package repository

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/debemdeboas/inkpad/internal/storage"
)

const DefaultPostsKey = "blog_posts_v1"

// PostStore keeps the authoritative post list in memory and writes the whole list
// back to a single KV entry after every mutation.
type PostStore struct { // implements PostRepository
	mu    sync.RWMutex
	posts []model.Post

	kv  storage.KV
	key string

	changeNotifier func(model.PostID)

	now func() time.Time
}

func NewPostStore(kv storage.KV, key string) *PostStore {
	if key == "" {
		key = DefaultPostsKey
	}
	return &PostStore{
		kv:  kv,
		key: key,
		now: time.Now,
	}
}

func (s *PostStore) SetChangeNotifier(notifier func(model.PostID)) {
	s.mu.Lock()
	s.changeNotifier = notifier
	s.mu.Unlock()
}

func (s *PostStore) notifyChange(id model.PostID) {
	s.mu.RLock()
	notifier := s.changeNotifier
	s.mu.RUnlock()

	if notifier != nil {
		notifier(id)
	}
}

func (s *PostStore) Load() {
	posts, err := s.read()
	if err != nil {
		repoLogger.Warn().Err(err).Str("key", s.key).Msg("Stored posts unreadable, seeding demo posts")
	}
	if posts == nil {
		posts = DemoPosts(s.now())
		repoLogger.Info().Int("count", len(posts)).Msg("Seeded demo posts")
	}

	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()

	repoLogger.Info().Int("count", len(posts)).Str("key", s.key).Msg("Posts loaded")
}

// read returns nil posts when nothing usable is stored.
func (s *PostStore) read() ([]model.Post, error) {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var posts []model.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

// persist must be called with the write lock held. Failures are logged and swallowed:
// the in-memory list stays authoritative for the running process.
func (s *PostStore) persist() {
	data, err := json.Marshal(s.posts)
	if err != nil {
		repoLogger.Error().Err(err).Msg("Error encoding posts")
		return
	}
	if err := s.kv.Set(s.key, data); err != nil {
		repoLogger.Error().Err(err).Str("key", s.key).Msg("Failed to save posts")
	}
}

func (s *PostStore) List() []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Post, len(s.posts))
	for i := range s.posts {
		out[i] = s.posts[i].Clone()
	}
	return out
}

// Search matches the query case-insensitively against post titles.
func (s *PostStore) Search(query string) []model.Post {
	posts := s.List()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return posts
	}
	return slices.DeleteFunc(posts, func(p model.Post) bool {
		return !strings.Contains(strings.ToLower(p.Title), q)
	})
}

func (s *PostStore) Get(id model.PostID) (model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Post{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.posts[i].Clone(), nil
}

func (s *PostStore) indexOf(id model.PostID) int {
	return slices.IndexFunc(s.posts, func(p model.Post) bool { return p.ID == id })
}

func (s *PostStore) Add(post model.Post) {
	s.mu.Lock()
	s.posts = append(s.posts, post.Clone())
	s.persist()
	s.mu.Unlock()

	repoLogger.Debug().Str("post_id", string(post.ID)).Str("title", post.Title).Msg("Post added")
	s.notifyChange(post.ID)
}

func (s *PostStore) Update(id model.PostID, patch model.PostPatch) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	patch.Apply(&s.posts[i])
	s.persist()
	s.mu.Unlock()

	repoLogger.Debug().Str("post_id", string(id)).Msg("Post updated")
	s.notifyChange(id)
	return nil
}

func (s *PostStore) Delete(id model.PostID) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.posts = slices.Delete(s.posts, i, i+1)
	s.persist()
	s.mu.Unlock()

	repoLogger.Info().Str("post_id", string(id)).Msg("Post deleted")
	s.notifyChange(id)
	return nil
}

// NewPostID derives an id from the millisecond timestamp, bumping it until unused.
func (s *PostStore) NewPostID(now time.Time) model.PostID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ms := now.UnixMilli()
	for {
		id := model.PostID(strconv.FormatInt(ms, 10))
		if s.indexOf(id) < 0 {
			return id
		}
		ms++
	}
}
