package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/internal/domain/ledger"
	"github.com/sangkips/quickbill-api/internal/infrastructure/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *entity.User {
	t.Helper()
	user := &entity.User{FirstName: "Ada", LastName: "Lovelace", Email: email, Provider: "local"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func seedClient(t *testing.T, db *gorm.DB, userID uuid.UUID, name string) *entity.Client {
	t.Helper()
	client := &entity.Client{UserID: userID, Name: name, Email: "billing@" + uuid.NewString()[:8] + ".test"}
	require.NoError(t, NewClientRepository(db).Create(context.Background(), client))
	return client
}

func item(desc, qty, price, tax string) entity.LineItem {
	return entity.LineItem{
		Description: desc,
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
		TaxRate:     decimal.RequireFromString(tax),
	}
}

func buildInvoice(t *testing.T, userID, clientID uuid.UUID, number string, status enum.InvoiceStatus, due time.Time, items ...entity.LineItem) *entity.Invoice {
	t.Helper()
	inv := &entity.Invoice{
		ID:            uuid.New(),
		UserID:        userID,
		ClientID:      clientID,
		InvoiceNumber: number,
		IssueDate:     due.AddDate(0, 0, -30),
		DueDate:       due,
	}
	require.NoError(t, ledger.RecomputeOnEdit(inv, items))
	inv.Status = status
	return inv
}

func seedInvoice(t *testing.T, db *gorm.DB, userID, clientID uuid.UUID, number string, status enum.InvoiceStatus, due time.Time, items ...entity.LineItem) *entity.Invoice {
	t.Helper()
	inv := buildInvoice(t, userID, clientID, number, status, due, items...)
	require.NoError(t, NewInvoiceRepository(db).Create(context.Background(), inv))
	return inv
}
