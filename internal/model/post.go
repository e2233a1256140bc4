// Package model defines the data structures shared by the store, the editor and the HTTP layer.
package model

import (
	"strings"
	"time"
)

type PostID string

// Post is the persisted record. JSON names match the stored array format.
type Post struct {
	ID            PostID    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	FeaturedImage *string   `json:"featuredImage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PostPatch carries the fields of an update; nil fields are left untouched.
type PostPatch struct {
	Title         *string
	Content       *string
	FeaturedImage **string
	UpdatedAt     *time.Time
}

// Apply merges the set fields of the patch into p.
func (patch PostPatch) Apply(p *Post) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.FeaturedImage != nil {
		p.FeaturedImage = *patch.FeaturedImage
	}
	if patch.UpdatedAt != nil {
		p.UpdatedAt = *patch.UpdatedAt
	}
}

func (patch PostPatch) IsEmpty() bool {
	return patch.Title == nil && patch.Content == nil && patch.FeaturedImage == nil && patch.UpdatedAt == nil
}

func (p *Post) GetTitle() string {
	if strings.TrimSpace(p.Title) == "" {
		return "Untitled"
	}
	return p.Title
}

func (p *Post) Cover() string {
	if p.FeaturedImage == nil {
		return ""
	}
	return *p.FeaturedImage
}

func (p *Post) Clone() Post {
	c := *p
	if p.FeaturedImage != nil {
		img := *p.FeaturedImage
		c.FeaturedImage = &img
	}
	return c
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T {
	return &v
}
