// Package repository implements the data access layer for the application.
package repository

import (
	"context"

	"chronicle/internal/models"

	"gorm.io/gorm"
)

// SubscriptionCounts aggregates both sides of a user's follow edges.
type SubscriptionCounts struct {
	Subscribers   int64 `json:"subscribers"`
	Subscriptions int64 `json:"subscriptions"`
}

// SubscriptionRepository defines the interface for follow-edge operations.
// Each edge is one row, so the follower list and the followed list are
// two views over the same data and cannot drift apart.
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, subscriberID, targetID uint) error
	Unsubscribe(ctx context.Context, subscriberID, targetID uint) error
	IsSubscribed(ctx context.Context, subscriberID, targetID uint) (bool, error)
	ListSubscriptions(ctx context.Context, subscriberID uint) ([]models.User, error)
	ListSubscribers(ctx context.Context, targetID uint) ([]models.User, error)
	ListSubscriberIDs(ctx context.Context, targetID uint) ([]uint, error)
	Counts(ctx context.Context, userID uint) (*SubscriptionCounts, error)
}

// subscriptionRepository implements SubscriptionRepository
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Subscribe(ctx context.Context, subscriberID, targetID uint) error {
	// Same atomic upsert shape as post likes: concurrent subscribes
	// collapse into one row without surfacing duplicate key errors.
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (subscriber_id, target_id, created_at)
		 VALUES (?, ?, NOW())
		 ON CONFLICT (subscriber_id, target_id) DO NOTHING`,
		subscriberID, targetID,
	)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	return nil
}

func (r *subscriptionRepository) Unsubscribe(ctx context.Context, subscriberID, targetID uint) error {
	if err := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND target_id = ?", subscriberID, targetID).
		Delete(&models.Subscription{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *subscriptionRepository) IsSubscribed(ctx context.Context, subscriberID, targetID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("subscriber_id = ? AND target_id = ?", subscriberID, targetID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *subscriptionRepository) ListSubscriptions(ctx context.Context, subscriberID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN subscriptions s ON users.id = s.target_id").
		Where("s.subscriber_id = ? AND users.deleted_at IS NULL", subscriberID).
		Order("s.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *subscriptionRepository) ListSubscribers(ctx context.Context, targetID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN subscriptions s ON users.id = s.subscriber_id").
		Where("s.target_id = ? AND users.deleted_at IS NULL", targetID).
		Order("s.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *subscriptionRepository) ListSubscriberIDs(ctx context.Context, targetID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("target_id = ?", targetID).
		Pluck("subscriber_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *subscriptionRepository) Counts(ctx context.Context, userID uint) (*SubscriptionCounts, error) {
	var counts SubscriptionCounts
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("target_id = ?", userID).
		Count(&counts.Subscribers).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("subscriber_id = ?", userID).
		Count(&counts.Subscriptions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &counts, nil
}
