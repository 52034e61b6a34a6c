package service

import (
	"context"

	"chronicle/internal/models"
	"chronicle/internal/repository"
)

type SubscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	userRepo         repository.UserRepository
}

func NewSubscriptionService(
	subscriptionRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
	}
}

// Subscribe makes the caller a subscriber of the named user. Subscribing
// twice is a no-op, matching the single-row edge underneath.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID uint, targetUsername string) error {
	target, err := s.target(ctx, targetUsername)
	if err != nil {
		return err
	}
	if target.ID == subscriberID {
		return models.NewValidationError("You cannot subscribe to yourself")
	}
	return s.subscriptionRepo.Subscribe(ctx, subscriberID, target.ID)
}

func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriberID uint, targetUsername string) error {
	target, err := s.target(ctx, targetUsername)
	if err != nil {
		return err
	}
	if target.ID == subscriberID {
		return models.NewValidationError("You cannot unsubscribe from yourself")
	}
	return s.subscriptionRepo.Unsubscribe(ctx, subscriberID, target.ID)
}

func (s *SubscriptionService) ListSubscriptions(ctx context.Context, userID uint) ([]models.User, error) {
	return s.subscriptionRepo.ListSubscriptions(ctx, userID)
}

func (s *SubscriptionService) ListSubscribers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.subscriptionRepo.ListSubscribers(ctx, userID)
}

func (s *SubscriptionService) target(ctx context.Context, username string) (*models.User, error) {
	target, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target == nil || !target.IsActive {
		return nil, models.NewNotFoundError("User", username)
	}
	return target, nil
}
