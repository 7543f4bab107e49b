package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRepository_ListSearch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewClientRepository(db)
	user := seedUser(t, db, "ada@example.com")
	other := seedUser(t, db, "grace@example.com")

	seedClient(t, db, user.ID, "Acme Ltd")
	seedClient(t, db, user.ID, "Globex")
	seedClient(t, db, other.ID, "Acme Holdings")

	clients, total, err := repo.List(ctx, user.ID, pagination.DefaultPagination(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme Ltd", clients[0].Name)

	clients, total, err = repo.List(ctx, user.ID, pagination.DefaultPagination(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Acme Ltd", clients[0].Name)
	assert.Equal(t, "Globex", clients[1].Name)
}

func TestClientRepository_SoftDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewClientRepository(db)
	user := seedUser(t, db, "ada@example.com")
	client := seedClient(t, db, user.ID, "Acme Ltd")

	require.NoError(t, repo.Delete(ctx, client.ID))

	got, err := repo.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByIDUnscoped(ctx, client.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme Ltd", got.Name)
}

func TestClientRepository_ListWithCursor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewClientRepository(db)
	user := seedUser(t, db, "ada@example.com")

	for _, name := range []string{"Acme", "Globex", "Initech"} {
		seedClient(t, db, user.ID, name)
	}

	params := &pagination.CursorParams{Limit: 2}
	page, err := repo.ListWithCursor(ctx, user.ID, params, "")
	require.NoError(t, err)
	require.Len(t, page, 3)

	meta, items := pagination.NewCursorPagination(page, 2,
		func(c entity.Client) string { return c.ID.String() },
		func(c entity.Client) time.Time { return c.CreatedAt },
	)
	assert.True(t, meta.HasNext)
	require.Len(t, items, 2)
	require.NotNil(t, meta.NextCursor)

	next, err := repo.ListWithCursor(ctx, user.ID, &pagination.CursorParams{Cursor: *meta.NextCursor, Limit: 2}, "")
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.NotEqual(t, items[0].ID, next[0].ID)
	assert.NotEqual(t, items[1].ID, next[0].ID)
}
