package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"chronicle/internal/mail"
	"chronicle/internal/models"
	"chronicle/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn           func(context.Context, uint) (*models.User, error)
	getByEmailFn        func(context.Context, string) (*models.User, error)
	getByUsernameFn     func(context.Context, string) (*models.User, error)
	createWithProfileFn func(context.Context, *models.User, *models.Profile) error
	updateFn            func(context.Context, *models.User) error
	activateFn          func(context.Context, *models.User, time.Time) error
	stampLastLoginFn    func(context.Context, uint, time.Time) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	return s.createWithProfileFn(ctx, user, profile)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Activate(ctx context.Context, user *models.User, at time.Time) error {
	return s.activateFn(ctx, user, at)
}
func (s *userRepoStub) StampLastLogin(ctx context.Context, id uint, at time.Time) error {
	return s.stampLastLoginFn(ctx, id, at)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createWithProfileFn: func(_ context.Context, user *models.User, profile *models.Profile) error {
			user.ID = 1
			profile.UserID = 1
			return nil
		},
		updateFn:         func(_ context.Context, _ *models.User) error { return nil },
		activateFn:       func(_ context.Context, _ *models.User, _ time.Time) error { return nil },
		stampLastLoginFn: func(_ context.Context, _ uint, _ time.Time) error { return nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn                func(context.Context, *models.Post) error
	getByIDFn               func(context.Context, uint, uint) (*models.Post, error)
	listPublishedFn         func(context.Context, int, int, uint) ([]*models.Post, error)
	listPublishedByAuthorFn func(context.Context, uint, int, int, uint) ([]*models.Post, error)
	listDraftsFn            func(context.Context, uint, int, int) ([]*models.Post, error)
	updateFn                func(context.Context, *models.Post) error
	publishFn               func(context.Context, uint, time.Time) (bool, error)
	deleteFn                func(context.Context, uint) error
	isLikedFn               func(context.Context, uint, uint) (bool, error)
	likeFn                  func(context.Context, uint, uint) error
	unlikeFn                func(context.Context, uint, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) ListPublished(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.listPublishedFn(ctx, limit, offset, currentUserID)
}
func (s *postRepoStub) ListPublishedByAuthor(ctx context.Context, authorID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.listPublishedByAuthorFn(ctx, authorID, limit, offset, currentUserID)
}
func (s *postRepoStub) ListDrafts(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	return s.listDraftsFn(ctx, authorID, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Publish(ctx context.Context, id uint, at time.Time) (bool, error) {
	return s.publishFn(ctx, id, at)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) error {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, _, _ uint) (*models.Post, error) { return &models.Post{}, nil },
		listPublishedFn: func(_ context.Context, _, _ int, _ uint) ([]*models.Post, error) {
			return nil, nil
		},
		listPublishedByAuthorFn: func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, error) {
			return nil, nil
		},
		listDraftsFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		updateFn:     func(_ context.Context, _ *models.Post) error { return nil },
		publishFn:    func(_ context.Context, _ uint, _ time.Time) (bool, error) { return true, nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
		isLikedFn:    func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:       func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:     func(_ context.Context, _, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
	}
}

// profileRepoStub is a stub for repository.ProfileRepository.
type profileRepoStub struct {
	getByUserIDFn   func(context.Context, uint) (*models.Profile, error)
	getByUsernameFn func(context.Context, string) (*models.Profile, error)
	updateFn        func(context.Context, *models.Profile) error
}

func (s *profileRepoStub) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *profileRepoStub) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *profileRepoStub) Update(ctx context.Context, profile *models.Profile) error {
	return s.updateFn(ctx, profile)
}

func noopProfileRepo() *profileRepoStub {
	return &profileRepoStub{
		getByUserIDFn: func(_ context.Context, userID uint) (*models.Profile, error) {
			return &models.Profile{ID: 1, UserID: userID}, nil
		},
		getByUsernameFn: func(_ context.Context, _ string) (*models.Profile, error) {
			return &models.Profile{ID: 1, UserID: 1}, nil
		},
		updateFn: func(_ context.Context, _ *models.Profile) error { return nil },
	}
}

// subscriptionRepoStub is a stub for repository.SubscriptionRepository.
type subscriptionRepoStub struct {
	subscribeFn         func(context.Context, uint, uint) error
	unsubscribeFn       func(context.Context, uint, uint) error
	isSubscribedFn      func(context.Context, uint, uint) (bool, error)
	listSubscriptionsFn func(context.Context, uint) ([]models.User, error)
	listSubscribersFn   func(context.Context, uint) ([]models.User, error)
	listSubscriberIDsFn func(context.Context, uint) ([]uint, error)
	countsFn            func(context.Context, uint) (*repository.SubscriptionCounts, error)
}

func (s *subscriptionRepoStub) Subscribe(ctx context.Context, subscriberID, targetID uint) error {
	return s.subscribeFn(ctx, subscriberID, targetID)
}
func (s *subscriptionRepoStub) Unsubscribe(ctx context.Context, subscriberID, targetID uint) error {
	return s.unsubscribeFn(ctx, subscriberID, targetID)
}
func (s *subscriptionRepoStub) IsSubscribed(ctx context.Context, subscriberID, targetID uint) (bool, error) {
	return s.isSubscribedFn(ctx, subscriberID, targetID)
}
func (s *subscriptionRepoStub) ListSubscriptions(ctx context.Context, subscriberID uint) ([]models.User, error) {
	return s.listSubscriptionsFn(ctx, subscriberID)
}
func (s *subscriptionRepoStub) ListSubscribers(ctx context.Context, targetID uint) ([]models.User, error) {
	return s.listSubscribersFn(ctx, targetID)
}
func (s *subscriptionRepoStub) ListSubscriberIDs(ctx context.Context, targetID uint) ([]uint, error) {
	return s.listSubscriberIDsFn(ctx, targetID)
}
func (s *subscriptionRepoStub) Counts(ctx context.Context, userID uint) (*repository.SubscriptionCounts, error) {
	return s.countsFn(ctx, userID)
}

func noopSubscriptionRepo() *subscriptionRepoStub {
	return &subscriptionRepoStub{
		subscribeFn:         func(_ context.Context, _, _ uint) error { return nil },
		unsubscribeFn:       func(_ context.Context, _, _ uint) error { return nil },
		isSubscribedFn:      func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		listSubscriptionsFn: func(_ context.Context, _ uint) ([]models.User, error) { return nil, nil },
		listSubscribersFn:   func(_ context.Context, _ uint) ([]models.User, error) { return nil, nil },
		listSubscriberIDsFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		countsFn: func(_ context.Context, _ uint) (*repository.SubscriptionCounts, error) {
			return &repository.SubscriptionCounts{}, nil
		},
	}
}

// recordingSender captures outbound mail for assertions.
type recordingSender struct {
	sent []struct {
		To      string
		Subject string
		Body    string
	}
	err error
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, struct {
		To      string
		Subject string
		Body    string
	}{To: msg.To, Subject: msg.Subject, Body: msg.TextBody})
	return nil
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
