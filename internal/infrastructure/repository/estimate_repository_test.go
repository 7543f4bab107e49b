package repository

import (
	"context"
	"testing"

	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/internal/domain/ledger"
	domainRepo "github.com/sangkips/quickbill-api/internal/domain/repository"
	"github.com/sangkips/quickbill-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEstimate(t *testing.T, repo domainRepo.EstimateRepository, user *entity.User, client *entity.Client, number string) *entity.Estimate {
	t.Helper()
	est := &entity.Estimate{
		UserID:         user.ID,
		ClientID:       client.ID,
		EstimateNumber: number,
		IssueDate:      due.AddDate(0, 0, -30),
		ValidUntil:     due,
	}
	require.NoError(t, ledger.RecomputeEstimate(est, []entity.LineItem{
		item("Design", "2", "50", "10"),
	}, decimal.NewFromInt(10)))
	require.NoError(t, repo.Create(context.Background(), est))
	return est
}

func TestEstimateRepository_CreateGetSave(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEstimateRepository(db)
	user := seedUser(t, db, "ada@example.com")
	client := seedClient(t, db, user.ID, "Acme Ltd")

	est := seedEstimate(t, repo, user, client, "EST-000001")

	got, err := repo.GetByID(ctx, est.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "99", got.TotalAmount.String())
	assert.Equal(t, "10", got.DiscountAmount.String())
	assert.Equal(t, "Acme Ltd", got.ClientName())
	require.Len(t, got.Items, 1)

	require.NoError(t, ledger.FireEstimate(got, ledger.TriggerSend))
	require.NoError(t, repo.Save(ctx, got))
	assert.Equal(t, 2, got.Version)

	stale := *est
	stale.Items = nil
	assert.ErrorIs(t, repo.Save(ctx, &stale), domainRepo.ErrVersionConflict)
}

func TestEstimateRepository_Convert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEstimateRepository(db)
	user := seedUser(t, db, "ada@example.com")
	client := seedClient(t, db, user.ID, "Acme Ltd")
	est := seedEstimate(t, repo, user, client, "EST-000001")

	loaded, err := repo.GetByID(ctx, est.ID)
	require.NoError(t, err)
	require.NoError(t, ledger.FireEstimate(loaded, ledger.TriggerSend))
	require.NoError(t, ledger.FireEstimate(loaded, ledger.TriggerAccept))

	inv, err := ledger.ConvertToInvoice(loaded, "INV-000001", due, due.AddDate(0, 0, 14))
	require.NoError(t, err)
	require.NoError(t, repo.Convert(ctx, loaded, inv))

	storedInv, err := NewInvoiceRepository(db).GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, storedInv)
	assert.Equal(t, enum.InvoiceStatusDraft, storedInv.Status)
	assert.Equal(t, "99", storedInv.TotalAmount.String())
	require.NotNil(t, storedInv.EstimateID)
	assert.Equal(t, est.ID, *storedInv.EstimateID)

	storedEst, err := repo.GetByID(ctx, est.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.EstimateStatusAccepted, storedEst.Status)
	require.NotNil(t, storedEst.InvoiceID)
	assert.Equal(t, inv.ID, *storedEst.InvoiceID)
}

func TestEstimateRepository_ConvertRollsBackOnConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEstimateRepository(db)
	user := seedUser(t, db, "ada@example.com")
	client := seedClient(t, db, user.ID, "Acme Ltd")
	est := seedEstimate(t, repo, user, client, "EST-000001")

	loaded, err := repo.GetByID(ctx, est.ID)
	require.NoError(t, err)
	require.NoError(t, ledger.FireEstimate(loaded, ledger.TriggerSend))
	require.NoError(t, ledger.FireEstimate(loaded, ledger.TriggerAccept))
	loaded.Version = 7

	inv, err := ledger.ConvertToInvoice(loaded, "INV-000001", due, due)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Convert(ctx, loaded, inv), domainRepo.ErrVersionConflict)

	var count int64
	require.NoError(t, db.Model(&entity.Invoice{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEstimateRepository_ListAndNumber(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewEstimateRepository(db)
	user := seedUser(t, db, "ada@example.com")
	client := seedClient(t, db, user.ID, "Acme Ltd")

	seedEstimate(t, repo, user, client, "EST-000001")
	seedEstimate(t, repo, user, client, "EST-000002")

	draft := enum.EstimateStatusDraft
	estimates, total, err := repo.List(ctx, user.ID, &domainRepo.EstimateFilterParams{
		Pagination: pagination.DefaultPagination(),
		Status:     &draft,
		SortBy:     "estimate_number",
		SortOrder:  "asc",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, estimates, 2)
	assert.Equal(t, "EST-000001", estimates[0].EstimateNumber)

	n, err := repo.NextNumber(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
