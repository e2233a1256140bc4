package repository

import (
	"time"

	"github.com/debemdeboas/inkpad/internal/model"
)

const demoContent = `<p>Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat.</p>`

// DemoPosts is the dataset used when nothing is stored yet. The first three are
// dated relative to now.
func DemoPosts(now time.Time) []model.Post {
	at := func(t time.Time) (time.Time, time.Time) { return t.UTC(), t.UTC() }
	day := func(s string) time.Time {
		t, _ := time.Parse(time.DateOnly, s)
		return t
	}

	entries := []struct {
		id, title string
		when      time.Time
	}{
		{"1", "Future Projections", now.Add(-5 * time.Minute)},
		{"2", "User Feedback Collection", now.Add(-10 * time.Minute)},
		{"3", "Trends & Cost Reduction", now.Add(-20 * time.Minute)},
		{"4", "Market Expansion Strategies", day("2025-02-06")},
		{"5", "Innovative Product Development", day("2025-03-15")},
	}

	posts := make([]model.Post, 0, len(entries))
	for _, e := range entries {
		created, updated := at(e.when)
		posts = append(posts, model.Post{
			ID:            model.PostID(e.id),
			Title:         e.title,
			Content:       demoContent,
			FeaturedImage: model.Ptr(""),
			CreatedAt:     created,
			UpdatedAt:     updated,
		})
	}
	return posts
}
