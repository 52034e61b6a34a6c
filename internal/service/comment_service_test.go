package service

import (
	"context"
	"strings"
	"testing"

	"chronicle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateComment(t *testing.T) {
	t.Run("Creates On Published Post", func(t *testing.T) {
		var created *models.Comment
		commentRepo := noopCommentRepo()
		commentRepo.createFn = func(_ context.Context, comment *models.Comment) error {
			comment.ID = 10
			created = comment
			return nil
		}
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return created, nil
		}
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
			return publishedPost(id, 1), nil
		}
		svc := NewCommentService(commentRepo, postRepo)

		comment, err := svc.CreateComment(context.Background(), CreateCommentInput{
			UserID: 2, PostID: 5, Content: "nice post",
		})

		require.NoError(t, err)
		assert.Equal(t, uint(10), comment.ID)
		assert.Equal(t, uint(2), comment.AuthorID)
		assert.Equal(t, uint(5), comment.PostID)
	})

	t.Run("Rejects Own Draft", func(t *testing.T) {
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
			return draftPost(id, 1), nil
		}
		svc := NewCommentService(noopCommentRepo(), postRepo)

		_, err := svc.CreateComment(context.Background(), CreateCommentInput{
			UserID: 1, PostID: 5, Content: "talking to myself",
		})
		assertValidationError(t, err)
	})

	t.Run("Hidden Draft Looks Unknown", func(t *testing.T) {
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
			return draftPost(id, 1), nil
		}
		svc := NewCommentService(noopCommentRepo(), postRepo)

		_, err := svc.CreateComment(context.Background(), CreateCommentInput{
			UserID: 2, PostID: 5, Content: "sneak preview",
		})
		assertNotFoundError(t, err)
	})

	t.Run("Validates Content", func(t *testing.T) {
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
			return publishedPost(id, 1), nil
		}
		svc := NewCommentService(noopCommentRepo(), postRepo)

		_, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 2, PostID: 5, Content: ""})
		assertValidationError(t, err)

		_, err = svc.CreateComment(context.Background(), CreateCommentInput{
			UserID: 2, PostID: 5, Content: strings.Repeat("x", 10001),
		})
		assertValidationError(t, err)
	})

	t.Run("Unknown Post", func(t *testing.T) {
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
			return nil, gorm.ErrRecordNotFound
		}
		svc := NewCommentService(noopCommentRepo(), postRepo)

		_, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 2, PostID: 99, Content: "hi"})
		assertNotFoundError(t, err)
	})
}

func TestListComments_DraftVisibility(t *testing.T) {
	commentRepo := noopCommentRepo()
	commentRepo.listByPostFn = func(_ context.Context, _ uint) ([]*models.Comment, error) {
		return []*models.Comment{{ID: 1, Content: "first"}}, nil
	}
	postRepo := noopPostRepo()
	postRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return draftPost(id, 1), nil
	}
	svc := NewCommentService(commentRepo, postRepo)

	comments, err := svc.ListComments(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	_, err = svc.ListComments(context.Background(), 5, 2)
	assertNotFoundError(t, err)
}

func TestDeleteComment(t *testing.T) {
	comment := &models.Comment{ID: 10, AuthorID: 2, PostID: 5}

	newSvc := func(deleted *[]uint) *CommentService {
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return comment, nil
		}
		commentRepo.deleteFn = func(_ context.Context, id uint) error {
			*deleted = append(*deleted, id)
			return nil
		}
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
			return publishedPost(id, 1), nil
		}
		return NewCommentService(commentRepo, postRepo)
	}

	t.Run("Comment Author May Delete", func(t *testing.T) {
		var deleted []uint
		_, err := newSvc(&deleted).DeleteComment(context.Background(), DeleteCommentInput{UserID: 2, CommentID: 10})
		require.NoError(t, err)
		assert.Equal(t, []uint{10}, deleted)
	})

	t.Run("Post Author May Delete", func(t *testing.T) {
		var deleted []uint
		_, err := newSvc(&deleted).DeleteComment(context.Background(), DeleteCommentInput{UserID: 1, CommentID: 10})
		require.NoError(t, err)
		assert.Equal(t, []uint{10}, deleted)
	})

	t.Run("Anyone Else May Not", func(t *testing.T) {
		var deleted []uint
		_, err := newSvc(&deleted).DeleteComment(context.Background(), DeleteCommentInput{UserID: 3, CommentID: 10})
		assertUnauthorizedError(t, err)
		assert.Empty(t, deleted)
	})

	t.Run("Unknown Comment", func(t *testing.T) {
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return nil, gorm.ErrRecordNotFound
		}
		svc := NewCommentService(commentRepo, noopPostRepo())

		_, err := svc.DeleteComment(context.Background(), DeleteCommentInput{UserID: 2, CommentID: 99})
		assertNotFoundError(t, err)
	})
}
