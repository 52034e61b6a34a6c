package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"chronicle/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{Content: "Draft content", AuthorID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, post)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID_WithDetails(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	now := time.Now()
	mock.ExpectQuery(`SELECT posts\.\*, \(SELECT COUNT\(\*\) FROM comments.*\(SELECT COUNT\(\*\) FROM likes.*EXISTS\(SELECT 1 FROM likes.*FROM "posts"`).
		WithArgs(2, 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "author_id", "published_at", "comments_count", "likes_count", "liked"}).
			AddRow(1, "Post 1", 10, now, 5, 10, true))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 AND "users"."deleted_at" IS NULL`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(10, "user10"))

	post, err := repo.GetByID(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Post 1", post.Content)
	assert.Equal(t, 5, post.CommentsCount)
	assert.Equal(t, 10, post.LikesCount)
	assert.True(t, post.Liked)
	assert.False(t, post.IsDraft())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListPublished_ExcludesDrafts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT posts\.\*,.*FROM "posts" WHERE published_at IS NOT NULL AND published_at <= .*ORDER BY published_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "author_id", "published_at"}).
			AddRow(2, "Newest", 10, time.Now()).
			AddRow(1, "Older", 10, time.Now().Add(-time.Hour)))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 AND "users"."deleted_at" IS NULL`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(10, "user10"))

	posts, err := repo.ListPublished(ctx, 20, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, uint(2), posts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListDrafts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE .*author_id = .* AND published_at IS NULL.*ORDER BY created_at ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "author_id"}).
			AddRow(3, "First draft", 7).
			AddRow(4, "Second draft", 7))

	posts, err := repo.ListDrafts(ctx, 7, 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.True(t, posts[0].IsDraft())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Publish(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	t.Run("draft is published", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "posts" SET .*published_at.* WHERE .*id = .* AND published_at IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		published, err := repo.Publish(ctx, 1, time.Now())
		require.NoError(t, err)
		assert.True(t, published)
	})

	t.Run("already published is a no-op", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "posts" SET .*published_at.* WHERE .*id = .* AND published_at IS NULL`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		published, err := repo.Publish(ctx, 1, time.Now())
		require.NoError(t, err)
		assert.False(t, published)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Delete_CascadesCommentsAndLikes(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "comments" SET "deleted_at"`)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "deleted_at"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(ctx, 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_LikeUnlike(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO likes (user_id, post_id, created_at)`)).
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Like(ctx, 2, 1)
	assert.NoError(t, err)

	// Duplicate like hits the conflict clause and affects no rows.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO likes (user_id, post_id, created_at)`)).
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Like(ctx, 2, 1)
	assert.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.Unlike(ctx, 2, 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
