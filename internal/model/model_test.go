package model

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/debemdeboas/inkpad/internal/config"
)

func TestPostJSON(t *testing.T) {
	t.Run("Field names match the stored format", func(t *testing.T) {
		created := time.Date(2025, 2, 6, 0, 0, 0, 0, time.UTC)
		post := Post{
			ID:        "1",
			Title:     "Market Expansion Strategies",
			Content:   "<p>Lorem</p>",
			CreatedAt: created,
			UpdatedAt: created,
		}

		data, err := json.Marshal(post)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}

		s := string(data)
		for _, key := range []string{`"id":"1"`, `"title":`, `"content":`, `"featuredImage":null`, `"createdAt":`, `"updatedAt":`} {
			if !strings.Contains(s, key) {
				t.Errorf("Expected %s in %s", key, s)
			}
		}
	})

	t.Run("Empty cover string decodes as set", func(t *testing.T) {
		var post Post
		if err := json.Unmarshal([]byte(`{"id":"2","featuredImage":""}`), &post); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if post.FeaturedImage == nil || *post.FeaturedImage != "" {
			t.Errorf("Expected empty non-nil cover, got %v", post.FeaturedImage)
		}
		if post.Cover() != "" {
			t.Errorf("Expected empty cover, got %q", post.Cover())
		}
	})
}

func TestPostPatch(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	base := Post{ID: "7", Title: "Old", Content: "<p>a</p>", CreatedAt: created, UpdatedAt: created}

	t.Run("Only set fields change", func(t *testing.T) {
		p := base.Clone()
		now := time.Now()
		PostPatch{Title: Ptr("X"), UpdatedAt: &now}.Apply(&p)

		if p.Title != "X" {
			t.Errorf("Expected title X, got %s", p.Title)
		}
		if p.Content != base.Content {
			t.Errorf("Expected content untouched, got %s", p.Content)
		}
		if !p.CreatedAt.Equal(created) || p.ID != "7" {
			t.Error("Expected id and createdAt untouched")
		}
		if !p.UpdatedAt.Equal(now) {
			t.Error("Expected updatedAt to change")
		}
	})

	t.Run("Clearing the cover", func(t *testing.T) {
		p := base.Clone()
		p.FeaturedImage = Ptr("https://example.com/a.png")
		var none *string
		PostPatch{FeaturedImage: &none}.Apply(&p)
		if p.FeaturedImage != nil {
			t.Errorf("Expected cover cleared, got %v", *p.FeaturedImage)
		}
	})

	t.Run("IsEmpty", func(t *testing.T) {
		if !(PostPatch{}).IsEmpty() {
			t.Error("Expected zero patch to be empty")
		}
		if (PostPatch{Title: Ptr("")}).IsEmpty() {
			t.Error("Expected patch with a title to be non-empty")
		}
	})
}

func TestPostHelpers(t *testing.T) {
	t.Run("GetTitle falls back for blank titles", func(t *testing.T) {
		if got := (&Post{Title: "  "}).GetTitle(); got != "Untitled" {
			t.Errorf("Expected 'Untitled', got %s", got)
		}
		if got := (&Post{Title: "Hello"}).GetTitle(); got != "Hello" {
			t.Errorf("Expected 'Hello', got %s", got)
		}
	})

	t.Run("Clone does not share the cover pointer", func(t *testing.T) {
		p := Post{FeaturedImage: Ptr("a")}
		c := p.Clone()
		*c.FeaturedImage = "b"
		if *p.FeaturedImage != "a" {
			t.Error("Expected clone to own its cover")
		}
	})
}

func TestPageData(t *testing.T) {
	config.AppConfig = &config.Config{}
	config.ApplyDefaults(config.AppConfig)
	defer func() { config.AppConfig = nil }()

	t.Run("List view with search", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/home?q=+market+", nil)
		pd := NewPageData(r)

		if pd.SiteName != "Inkpad" {
			t.Errorf("Expected site name Inkpad, got %s", pd.SiteName)
		}
		if pd.Query != "market" {
			t.Errorf("Expected trimmed query, got %q", pd.Query)
		}
		if pd.IsPost() || pd.IsEditor() {
			t.Error("Expected list view flags to be false")
		}
	})

	t.Run("Post and editor paths", func(t *testing.T) {
		if !NewPageData(httptest.NewRequest("GET", "/posts/1", nil)).IsPost() {
			t.Error("Expected /posts/1 to be a post page")
		}
		if !NewPageData(httptest.NewRequest("GET", "/editor/1", nil)).IsEditor() {
			t.Error("Expected /editor/1 to be an editor page")
		}
		override := false
		pd := NewPageData(httptest.NewRequest("GET", "/editor", nil))
		pd.IsEditorPage = &override
		if pd.IsEditor() {
			t.Error("Expected override to win")
		}
	})
}
