package session

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/debemdeboas/inkpad/internal/document"
	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/debemdeboas/inkpad/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 30 * time.Millisecond

var errMissing = errors.New("missing")

type fakeStore struct {
	mu      sync.Mutex
	posts   map[model.PostID]model.Post
	adds    int
	updates int
	nextID  int
}

func newFakeStore(posts ...model.Post) *fakeStore {
	f := &fakeStore{posts: map[model.PostID]model.Post{}, nextID: 100}
	for _, p := range posts {
		f.posts[p.ID] = p
	}
	return f
}

func (f *fakeStore) Get(id model.PostID) (model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return model.Post{}, errMissing
	}
	return p.Clone(), nil
}

func (f *fakeStore) Add(post model.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	f.posts[post.ID] = post.Clone()
}

func (f *fakeStore) Update(id model.PostID, patch model.PostPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return errMissing
	}
	f.updates++
	patch.Apply(&p)
	f.posts[id] = p
	return nil
}

func (f *fakeStore) NewPostID(time.Time) model.PostID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return model.PostID(strconv.Itoa(f.nextID))
}

func (f *fakeStore) writes() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.adds, f.updates
}

func (f *fakeStore) post(id model.PostID) model.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[id]
}

func newTestSession(store *fakeStore) *Session {
	return New("s1", store, schema.Default(), Options{Delay: testDelay})
}

func waitSaved(t *testing.T, s *Session) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Status() == StatusSaved }, time.Second, 5*time.Millisecond)
}

func TestNewSession(t *testing.T) {
	s := newTestSession(newFakeStore())

	assert.Equal(t, StatusNew, s.Status())
	assert.Empty(t, s.PostID())
	assert.Equal(t, "<p></p>", s.Document().HTML())
}

func TestDebouncedAutosaveWritesOnce(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(store)

	for _, ch := range []string{"H", "e", "l", "l", "o"} {
		require.NoError(t, s.Document().Apply(document.InsertText(ch)))
	}
	assert.Equal(t, StatusSaving, s.Status())

	waitSaved(t, s)
	time.Sleep(3 * testDelay)

	adds, updates := store.writes()
	assert.Equal(t, 1, adds)
	assert.Equal(t, 0, updates)
	require.NotEmpty(t, s.PostID())
	assert.Equal(t, "<p>Hello</p>", store.post(s.PostID()).Content)
}

func TestLaterSavesUpdate(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(store)

	require.NoError(t, s.Publish())
	id := s.PostID()
	require.NoError(t, s.SetTitle("Second thoughts"))
	waitSaved(t, s)

	adds, updates := store.writes()
	assert.Equal(t, 1, adds)
	assert.Equal(t, 1, updates)
	assert.Equal(t, id, s.PostID())
	assert.Equal(t, "Second thoughts", store.post(id).Title)
}

func TestPublishCancelsPendingAutosave(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(store)

	require.NoError(t, s.SetTitle("Hello"))
	require.NoError(t, s.Publish())
	assert.Equal(t, StatusSaved, s.Status())

	time.Sleep(3 * testDelay)
	adds, updates := store.writes()
	assert.Equal(t, 1, adds)
	assert.Equal(t, 0, updates)
	assert.Equal(t, "Hello", store.post(s.PostID()).Title)
}

func TestSetFeaturedImageSavesImmediately(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(store)

	require.NoError(t, s.SetFeaturedImage("https://cdn.example.com/cover.png"))
	adds, _ := store.writes()
	require.Equal(t, 1, adds)
	p := store.post(s.PostID())
	assert.Equal(t, "https://cdn.example.com/cover.png", p.Cover())

	require.NoError(t, s.SetFeaturedImage(""))
	assert.Nil(t, store.post(s.PostID()).FeaturedImage)
	assert.Empty(t, s.Cover())
}

func TestSetContent(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(store)

	require.NoError(t, s.SetContent("<h2>Draft</h2><p>Body</p>"))
	waitSaved(t, s)
	assert.Equal(t, "<h2>Draft</h2><p>Body</p>", store.post(s.PostID()).Content)
}

func TestBlockUpdateTriggersAutosave(t *testing.T) {
	store := newFakeStore()
	reg := schema.Default()
	s := New("s1", store, reg, Options{Delay: testDelay})

	require.NoError(t, s.Document().Apply(reg.CreateInsertCommand(schema.TypeTwitter, nil)))
	waitSaved(t, s)

	ids := s.Document().Snapshot().Blocks(schema.TypeTwitter)
	require.Len(t, ids, 1)
	require.NoError(t, s.Document().UpdateAttrs(ids[0], document.Attrs{"url": "https://x.com/a/status/1", "editing": false}))
	assert.Equal(t, StatusSaving, s.Status())
	waitSaved(t, s)

	assert.Contains(t, store.post(s.PostID()).Content, `url="https://x.com/a/status/1" editing="false"`)
}

func TestOpenExistingPost(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	store := newFakeStore(model.Post{
		ID:            "42",
		Title:         "Existing",
		Content:       "<p>Old body</p>",
		FeaturedImage: model.Ptr("https://cdn.example.com/a.png"),
		CreatedAt:     created,
		UpdatedAt:     created,
	})

	s, err := Open("s1", store, schema.Default(), "42", Options{Delay: testDelay})
	require.NoError(t, err)
	assert.Equal(t, StatusSaved, s.Status())
	assert.Equal(t, model.PostID("42"), s.PostID())
	assert.Equal(t, "Existing", s.Title())
	assert.Equal(t, "https://cdn.example.com/a.png", s.Cover())
	assert.Equal(t, "<p>Old body</p>", s.Document().HTML())

	require.NoError(t, s.SetTitle("Renamed"))
	waitSaved(t, s)

	p := store.post("42")
	assert.Equal(t, "Renamed", p.Title)
	assert.Equal(t, "<p>Old body</p>", p.Content)
	assert.Equal(t, "https://cdn.example.com/a.png", p.Cover())
	assert.True(t, p.CreatedAt.Equal(created))
	assert.True(t, p.UpdatedAt.After(created))

	adds, updates := store.writes()
	assert.Equal(t, 0, adds)
	assert.Equal(t, 1, updates)
}

func TestOpenMissingPost(t *testing.T) {
	_, err := Open("s1", newFakeStore(), schema.Default(), "nope", Options{})
	assert.ErrorIs(t, err, errMissing)
}

func TestCloseStopsAutosave(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(store)

	require.NoError(t, s.Document().Apply(document.InsertText("x")))
	s.Close()
	require.NoError(t, s.Document().Apply(document.InsertText("y")))
	time.Sleep(3 * testDelay)

	adds, updates := store.writes()
	assert.Zero(t, adds+updates)
	assert.ErrorIs(t, s.SetTitle("late"), ErrClosed)
	assert.ErrorIs(t, s.Publish(), ErrClosed)
	assert.ErrorIs(t, s.SetContent("<p>late</p>"), ErrClosed)
	assert.ErrorIs(t, s.SetFeaturedImage("x"), ErrClosed)

	s.Close()
}

func TestUpdateOfDeletedPostFails(t *testing.T) {
	store := newFakeStore()
	s := newTestSession(store)
	require.NoError(t, s.Publish())

	store.mu.Lock()
	delete(store.posts, s.PostID())
	store.mu.Unlock()

	assert.ErrorIs(t, s.Publish(), errMissing)
	assert.Equal(t, StatusSaving, s.Status())
}
