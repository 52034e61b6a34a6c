package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionRepository_Subscribe(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO subscriptions (subscriber_id, target_id, created_at)`)).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Subscribe(ctx, 1, 2)
	assert.NoError(t, err)

	// Subscribing twice hits the conflict clause without error.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO subscriptions (subscriber_id, target_id, created_at)`)).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Subscribe(ctx, 1, 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepository_Unsubscribe(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "subscriptions"`)).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Unsubscribe(ctx, 1, 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepository_IsSubscribed(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "subscriptions" WHERE subscriber_id = $1 AND target_id = $2`)).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	subscribed, err := repo.IsSubscribed(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, subscribed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepository_BothSidesSeeTheSameEdge(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .* FROM "users" JOIN subscriptions s ON users\.id = s\.target_id WHERE s\.subscriber_id = .*`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(2, "bob"))

	targets, err := repo.ListSubscriptions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "bob", targets[0].Username)

	mock.ExpectQuery(`SELECT .* FROM "users" JOIN subscriptions s ON users\.id = s\.subscriber_id WHERE s\.target_id = .*`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(1, "alice"))

	subscribers, err := repo.ListSubscribers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, subscribers, 1)
	assert.Equal(t, "alice", subscribers[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepository_Counts(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "subscriptions" WHERE target_id = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "subscriptions" WHERE subscriber_id = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	counts, err := repo.Counts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Subscribers)
	assert.Equal(t, int64(5), counts.Subscriptions)
	assert.NoError(t, mock.ExpectationsWereMet())
}
