package service

import (
	"context"

	"chronicle/internal/models"
	"chronicle/internal/repository"
	"chronicle/internal/validation"
)

type ProfileService struct {
	profileRepo      repository.ProfileRepository
	subscriptionRepo repository.SubscriptionRepository
	// deleteImage removes the previous avatar after a replacement is in
	// place. Store first, delete second: a failed update must never
	// leave the profile pointing at a missing file.
	deleteImage func(ref string) error
	resolveURL  func(ref string) string
}

// ProfileView is a profile joined with both subscription counts and, when
// the viewer is authenticated, their relation to the profile's owner.
type ProfileView struct {
	Profile      *models.Profile               `json:"profile"`
	Counts       *repository.SubscriptionCounts `json:"counts"`
	IsSubscribed bool                          `json:"is_subscribed"`
}

type UpdateProfileInput struct {
	UserID      uint
	Description *string
	ImageRef    string
}

func NewProfileService(
	profileRepo repository.ProfileRepository,
	subscriptionRepo repository.SubscriptionRepository,
	deleteImage func(ref string) error,
	resolveURL func(ref string) string,
) *ProfileService {
	return &ProfileService{
		profileRepo:      profileRepo,
		subscriptionRepo: subscriptionRepo,
		deleteImage:      deleteImage,
		resolveURL:       resolveURL,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, username string, viewerID uint) (*ProfileView, error) {
	profile, err := s.profileRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	s.resolveImage(profile)

	counts, err := s.subscriptionRepo.Counts(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{Profile: profile, Counts: counts}
	if viewerID != 0 && viewerID != profile.UserID {
		subscribed, err := s.subscriptionRepo.IsSubscribed(ctx, viewerID, profile.UserID)
		if err != nil {
			return nil, err
		}
		view.IsSubscribed = subscribed
	}
	return view, nil
}

func (s *ProfileService) GetOwnProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.resolveImage(profile)
	return profile, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Description != nil {
		if err := validation.ValidateDescription(*in.Description); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		profile.Description = *in.Description
	}

	oldImageRef := profile.ImageRef
	if in.ImageRef != "" {
		profile.ImageRef = in.ImageRef
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	if in.ImageRef != "" && oldImageRef != "" && oldImageRef != in.ImageRef && s.deleteImage != nil {
		// Best effort; the new image is already live.
		_ = s.deleteImage(oldImageRef)
	}

	s.resolveImage(profile)
	return profile, nil
}

func (s *ProfileService) resolveImage(profile *models.Profile) {
	if s.resolveURL != nil && profile.ImageRef != "" {
		profile.ImageURL = s.resolveURL(profile.ImageRef)
	}
}
