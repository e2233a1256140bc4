package repository

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/debemdeboas/inkpad/internal/model"
	"github.com/debemdeboas/inkpad/internal/storage"
)

// Mock KV whose writes always fail
type failingKV struct {
	*storage.MemoryKV
	writes int
}

func (f *failingKV) Set(key string, value []byte) error {
	f.writes++
	return errors.New("disk full")
}

// Mock KV counting writes
type countingKV struct {
	*storage.MemoryKV
	mu     sync.Mutex
	writes int
}

func (c *countingKV) Set(key string, value []byte) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.MemoryKV.Set(key, value)
}

func newPost(id, title string) model.Post {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return model.Post{
		ID:        model.PostID(id),
		Title:     title,
		Content:   "<p>" + title + "</p>",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestLoadSeedsDemoPosts(t *testing.T) {
	t.Run("Absent key", func(t *testing.T) {
		store := NewPostStore(storage.NewMemoryKV(), "")
		store.Load()

		posts := store.List()
		if len(posts) != 5 {
			t.Fatalf("Expected 5 demo posts, got %d", len(posts))
		}
		if posts[0].Title != "Future Projections" {
			t.Errorf("Expected first demo post 'Future Projections', got %s", posts[0].Title)
		}
	})

	t.Run("Unparsable value", func(t *testing.T) {
		kv := storage.NewMemoryKV()
		kv.Set(DefaultPostsKey, []byte("{not json"))
		store := NewPostStore(kv, DefaultPostsKey)
		store.Load()

		if got := len(store.List()); got != 5 {
			t.Errorf("Expected demo posts for corrupt data, got %d", got)
		}
	})

	t.Run("Stored empty list is respected", func(t *testing.T) {
		kv := storage.NewMemoryKV()
		kv.Set(DefaultPostsKey, []byte("[]"))
		store := NewPostStore(kv, DefaultPostsKey)
		store.Load()

		if got := len(store.List()); got != 0 {
			t.Errorf("Expected no posts, got %d", got)
		}
	})
}

func TestRoundTripAfterReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.db")
	kv, err := storage.OpenSQLite(path, true)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}

	store := NewPostStore(kv, DefaultPostsKey)
	store.Load()

	cover := "blob:3b1f"
	added := newPost("1748779200000", "Round trip")
	added.FeaturedImage = &cover
	store.Add(added)
	kv.Close()

	kv, err = storage.OpenSQLite(path, true)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer kv.Close()

	reloaded := NewPostStore(kv, DefaultPostsKey)
	reloaded.Load()

	got, err := reloaded.Get(added.ID)
	if err != nil {
		t.Fatalf("Expected added post after reload: %v", err)
	}
	if got.Title != added.Title || got.Content != added.Content || got.Cover() != cover {
		t.Errorf("Fields differ after reload: %+v", got)
	}
	if !got.CreatedAt.Equal(added.CreatedAt) || !got.UpdatedAt.Equal(added.UpdatedAt) {
		t.Errorf("Timestamps differ after reload: %+v", got)
	}
	if len(reloaded.List()) != 6 {
		t.Errorf("Expected demo posts plus the added one, got %d", len(reloaded.List()))
	}
}

func TestUpdate(t *testing.T) {
	store := NewPostStore(storage.NewMemoryKV(), "")
	store.Load()

	before, _ := store.Get("3")
	later := before.UpdatedAt.Add(time.Hour)

	if err := store.Update("3", model.PostPatch{Title: model.Ptr("X"), UpdatedAt: &later}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	after, _ := store.Get("3")
	if after.Title != "X" {
		t.Errorf("Expected title X, got %s", after.Title)
	}
	if after.ID != before.ID || !after.CreatedAt.Equal(before.CreatedAt) {
		t.Error("Expected id and createdAt untouched")
	}
	if after.Content != before.Content {
		t.Error("Expected content untouched")
	}
	if !after.UpdatedAt.Equal(later) {
		t.Error("Expected updatedAt changed")
	}

	t.Run("Unknown id", func(t *testing.T) {
		err := store.Update("nope", model.PostPatch{Title: model.Ptr("Y")})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	store := NewPostStore(storage.NewMemoryKV(), "")
	store.Load()

	if err := store.Delete("2"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	posts := store.List()
	if len(posts) != 4 {
		t.Fatalf("Expected 4 posts, got %d", len(posts))
	}
	for _, p := range posts {
		if p.ID == "2" {
			t.Error("Expected post 2 to be gone")
		}
	}
	for _, id := range []model.PostID{"1", "3", "4", "5"} {
		if _, err := store.Get(id); err != nil {
			t.Errorf("Expected post %s to remain: %v", id, err)
		}
	}

	if err := store.Delete("2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	store := NewPostStore(storage.NewMemoryKV(), "")
	store.Load()

	tests := []struct {
		query string
		want  int
	}{
		{"", 5},
		{"market", 1},
		{"  MARKET ", 1},
		{"tion", 3},
		{"zzz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := len(store.Search(tt.query)); got != tt.want {
				t.Errorf("Search(%q): expected %d, got %d", tt.query, tt.want, got)
			}
		})
	}
}

func TestEveryMutationPersists(t *testing.T) {
	kv := &countingKV{MemoryKV: storage.NewMemoryKV()}
	store := NewPostStore(kv, "")
	store.Load()

	store.Add(newPost("10", "a"))
	store.Update("10", model.PostPatch{Content: model.Ptr("<p>b</p>")})
	store.Delete("10")

	if kv.writes != 3 {
		t.Errorf("Expected 3 writes, got %d", kv.writes)
	}
}

func TestPersistenceErrorsAreSwallowed(t *testing.T) {
	kv := &failingKV{MemoryKV: storage.NewMemoryKV()}
	store := NewPostStore(kv, "")
	store.Load()

	store.Add(newPost("10", "kept in memory"))

	if kv.writes != 1 {
		t.Errorf("Expected one attempted write, got %d", kv.writes)
	}
	if _, err := store.Get("10"); err != nil {
		t.Errorf("Expected in-memory list to keep the post: %v", err)
	}
}

func TestNewPostID(t *testing.T) {
	store := NewPostStore(storage.NewMemoryKV(), "")
	store.Load()

	now := time.UnixMilli(1700000000000)
	id := store.NewPostID(now)
	if id != "1700000000000" {
		t.Errorf("Expected millisecond id, got %s", id)
	}

	store.Add(newPost(string(id), "taken"))
	store.Add(newPost("1700000000001", "also taken"))
	if next := store.NewPostID(now); next != "1700000000002" {
		t.Errorf("Expected bumped id 1700000000002, got %s", next)
	}
}

func TestChangeNotifier(t *testing.T) {
	store := NewPostStore(storage.NewMemoryKV(), "")
	store.Load()

	var got []model.PostID
	store.SetChangeNotifier(func(id model.PostID) {
		got = append(got, id)
	})

	store.Add(newPost("42", "n"))
	store.Update("42", model.PostPatch{Title: model.Ptr("m")})
	store.Delete("42")
	store.Update("missing", model.PostPatch{})

	if len(got) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(got))
	}
	for _, id := range got {
		if id != "42" {
			t.Errorf("Expected notification for 42, got %s", id)
		}
	}
}

func TestListReturnsCopies(t *testing.T) {
	store := NewPostStore(storage.NewMemoryKV(), "")
	store.Load()

	posts := store.List()
	posts[0].Title = "mutated"

	if p, _ := store.Get(posts[0].ID); p.Title == "mutated" {
		t.Error("Expected List to return copies")
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewPostStore(storage.NewMemoryKV(), "")
	store.Load()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := store.NewPostID(time.UnixMilli(int64(i)))
			store.Add(newPost(string(id)+"-"+string(rune('a'+i)), "c"))
			store.List()
		}(i)
	}
	wg.Wait()

	if got := len(store.List()); got != 25 {
		t.Errorf("Expected 25 posts, got %d", got)
	}
}
