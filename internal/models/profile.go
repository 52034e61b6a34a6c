// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile is the one-to-one companion record of a User. It is created in
// the same transaction as the user and lives for the user's lifetime.
// ImageRef is a content-hash reference at the image host, not a URL.
type Profile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	ImageRef    string         `json:"image_ref,omitempty"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`

	// ImageURL is not persisted; resolved from ImageRef at response time.
	ImageURL string `gorm:"-" json:"image_url,omitempty"`
}
