package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepository(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewIdempotencyRepository(db)
	user := seedUser(t, db, "ada@example.com")
	now := time.Now().UTC()

	live := &entity.IdempotencyKey{
		Key:          "send-1",
		UserID:       user.ID,
		Endpoint:     "POST /api/v1/invoices/1/send",
		RequestHash:  "abc",
		ResponseCode: 200,
		ResponseBody: `{"success":true}`,
		ExpiresAt:    now.Add(time.Hour),
	}
	expired := &entity.IdempotencyKey{
		Key:          "send-0",
		UserID:       user.ID,
		Endpoint:     "POST /api/v1/invoices/1/send",
		ResponseCode: 200,
		ExpiresAt:    now.Add(-time.Hour),
	}
	require.NoError(t, repo.Save(ctx, live))
	require.NoError(t, repo.Save(ctx, expired))

	got, err := repo.GetLive(ctx, "send-1", user.ID, now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"success":true}`, got.ResponseBody)

	got, err = repo.GetLive(ctx, "send-0", user.ID, now)
	require.NoError(t, err)
	assert.Nil(t, got, "expired keys are not replayed")

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIdempotencyRepository_SaveReplacesExpired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewIdempotencyRepository(db)
	user := seedUser(t, db, "ada@example.com")
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, &entity.IdempotencyKey{
		Key:          "create-1",
		UserID:       user.ID,
		Endpoint:     "POST /api/v1/invoices",
		ResponseCode: 201,
		ResponseBody: "old",
		ExpiresAt:    now.Add(-time.Minute),
	}))
	require.NoError(t, repo.Save(ctx, &entity.IdempotencyKey{
		Key:          "create-1",
		UserID:       user.ID,
		Endpoint:     "POST /api/v1/invoices",
		ResponseCode: 201,
		ResponseBody: "new",
		ExpiresAt:    now.Add(time.Hour),
	}))

	got, err := repo.GetLive(ctx, "create-1", user.ID, now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.ResponseBody)
}

func TestIdempotencyRepository_Reserve(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewIdempotencyRepository(db)
	user := seedUser(t, db, "ada@example.com")
	now := time.Now().UTC()

	pending := func() *entity.IdempotencyKey {
		return &entity.IdempotencyKey{
			Key:         "send-1",
			UserID:      user.ID,
			Endpoint:    "POST /api/v1/invoices/1/send",
			RequestHash: "abc",
			ExpiresAt:   now.Add(time.Minute),
		}
	}

	ok, err := repo.Reserve(ctx, pending(), now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Reserve(ctx, pending(), now)
	require.NoError(t, err)
	assert.False(t, ok, "a live reservation blocks the same key")

	got, err := repo.GetLive(ctx, "send-1", user.ID, now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Pending())

	require.NoError(t, repo.Release(ctx, "send-1", user.ID))
	got, err = repo.GetLive(ctx, "send-1", user.ID, now)
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err = repo.Reserve(ctx, pending(), now)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.Save(ctx, &entity.IdempotencyKey{
		Key:          "send-1",
		UserID:       user.ID,
		Endpoint:     "POST /api/v1/invoices/1/send",
		RequestHash:  "abc",
		ResponseCode: 200,
		ResponseBody: "done",
		ExpiresAt:    now.Add(time.Hour),
	}))

	require.NoError(t, repo.Release(ctx, "send-1", user.ID))
	got, err = repo.GetLive(ctx, "send-1", user.ID, now)
	require.NoError(t, err)
	require.NotNil(t, got, "release leaves completed records alone")
	assert.Equal(t, "done", got.ResponseBody)

	ok, err = repo.Reserve(ctx, pending(), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok, "an expired record gives the key up")
}
