package service

import (
	"context"
	"errors"
	"time"

	"chronicle/internal/models"
	"chronicle/internal/repository"

	"gorm.io/gorm"
)

type PostService struct {
	postRepo repository.PostRepository
	// deleteImage removes a stored image when its owning post goes away.
	deleteImage func(ref string) error
}

type CreatePostInput struct {
	AuthorID uint
	Content  string
	ImageRef string
	// Publish makes the post public immediately instead of saving a draft.
	Publish bool
}

type ListPostsInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
}

type UpdatePostInput struct {
	AuthorID uint
	PostID   uint
	Content  string
	ImageRef string
}

type DeletePostInput struct {
	AuthorID uint
	PostID   uint
}

func NewPostService(
	postRepo repository.PostRepository,
	deleteImage func(ref string) error,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		deleteImage: deleteImage,
	}
}

const maxContentLen = 50000 // 50K characters

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	post := &models.Post{
		Content:  in.Content,
		ImageRef: in.ImageRef,
		AuthorID: in.AuthorID,
	}
	if in.Publish {
		now := time.Now()
		post.PublishedAt = &now
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.getPost(ctx, post.ID, in.AuthorID)
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	return s.postRepo.ListPublished(ctx, in.Limit, in.Offset, in.CurrentUserID)
}

func (s *PostService) ListUserPosts(ctx context.Context, authorID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.postRepo.ListPublishedByAuthor(ctx, authorID, limit, offset, currentUserID)
}

// ListDrafts returns the caller's unpublished posts, oldest first.
func (s *PostService) ListDrafts(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.ListDrafts(ctx, authorID, limit, offset)
}

// GetPost returns a post. Drafts exist only for their author; everyone
// else gets the same not-found as for an id that was never used.
func (s *PostService) GetPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	post, err := s.getPost(ctx, id, currentUserID)
	if err != nil {
		return nil, err
	}
	if post.IsDraft() && post.AuthorID != currentUserID {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func (s *PostService) getPost(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetPost(ctx, in.PostID, in.AuthorID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.AuthorID {
		return nil, models.NewUnauthorizedError("You can only update your own posts")
	}

	oldImageRef := post.ImageRef
	if in.Content != "" {
		if len(in.Content) > maxContentLen {
			return nil, models.NewValidationError("Content too long (max 50000 characters)")
		}
		post.Content = in.Content
	}
	if in.ImageRef != "" {
		post.ImageRef = in.ImageRef
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	if in.ImageRef != "" && oldImageRef != "" && oldImageRef != in.ImageRef {
		s.discardImage(oldImageRef)
	}
	return s.getPost(ctx, post.ID, in.AuthorID)
}

// PublishPost makes a draft public. Publishing is one-way; a published
// post silently stays published if the call races another publish.
func (s *PostService) PublishPost(ctx context.Context, authorID, postID uint) (*models.Post, error) {
	post, err := s.GetPost(ctx, postID, authorID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != authorID {
		return nil, models.NewUnauthorizedError("You can only publish your own posts")
	}
	if !post.IsDraft() {
		return nil, models.NewValidationError("Post is already published")
	}

	if _, err := s.postRepo.Publish(ctx, postID, time.Now()); err != nil {
		return nil, err
	}
	return s.getPost(ctx, postID, authorID)
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.GetPost(ctx, in.PostID, in.AuthorID)
	if err != nil {
		return err
	}
	if post.AuthorID != in.AuthorID {
		return models.NewUnauthorizedError("You can only delete your own posts")
	}

	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return err
	}
	if post.ImageRef != "" {
		s.discardImage(post.ImageRef)
	}
	return nil
}

func (s *PostService) discardImage(ref string) {
	if s.deleteImage == nil {
		return
	}
	// Best effort: an orphaned file is not worth failing the request over.
	_ = s.deleteImage(ref)
}

// ToggleLike flips the caller's like on a published post and returns the
// post with fresh counts.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.GetPost(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post.IsDraft() {
		return nil, models.NewValidationError("Drafts cannot be liked")
	}

	isLiked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	if isLiked {
		if err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
			return nil, err
		}
	} else {
		if err := s.postRepo.Like(ctx, userID, postID); err != nil {
			return nil, err
		}
	}

	return s.getPost(ctx, postID, userID)
}
