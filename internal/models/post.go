// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a blog post in the Chronicle application.
// A post with a NULL PublishedAt is a draft, visible only to its author.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	ImageRef    string     `json:"image_ref,omitempty"`
	AuthorID    uint       `gorm:"not null;index" json:"author_id"`
	Author      User       `gorm:"foreignKey:AuthorID" json:"author"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
	// LikesCount is not persisted; computed at query time from the likes set
	LikesCount int `gorm:"->" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool           `gorm:"->" json:"liked"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// ImageURL is not persisted; resolved from ImageRef at response time.
	ImageURL string `gorm:"-" json:"image_url,omitempty"`
}

// IsDraft reports whether the post has not been published yet.
func (p *Post) IsDraft() bool {
	return p.PublishedAt == nil
}
