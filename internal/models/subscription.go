package models

import (
	"time"
)

// Subscription is a follow edge between two users. A single row carries
// both directions of the relation: SubscriberID follows TargetID, and
// TargetID counts SubscriberID among its subscribers. Because there is
// only one row per edge, the two sides cannot exist independently.
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscription_pair" json:"subscriber_id"`
	TargetID     uint      `gorm:"not null;uniqueIndex:idx_subscription_pair" json:"target_id"`
	CreatedAt    time.Time `json:"created_at"`

	// Relationships
	Subscriber User `gorm:"foreignKey:SubscriberID" json:"subscriber,omitempty"`
	Target     User `gorm:"foreignKey:TargetID" json:"target,omitempty"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}
