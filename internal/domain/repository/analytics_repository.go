package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// StatusTotalResult aggregates a user's invoices by status
type StatusTotalResult struct {
	Status enum.InvoiceStatus
	Count  int64
	Amount decimal.Decimal
}

// TopClientResult represents a client's billed total
type TopClientResult struct {
	ClientID     uuid.UUID
	ClientName   string
	Total        decimal.Decimal
	InvoiceCount int64
}

// IssuedAmountResult is a single invoice's issue date and total
type IssuedAmountResult struct {
	IssueDate   time.Time
	TotalAmount decimal.Decimal
}

// AnalyticsRepository defines aggregation queries for the dashboard.
// Cancelled invoices are excluded from every amount.
type AnalyticsRepository interface {
	// StatusTotals returns count and amount per status
	StatusTotals(ctx context.Context, userID uuid.UUID) ([]StatusTotalResult, error)
	// CountOverdue counts unsettled invoices due before now
	CountOverdue(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	// TopClients returns clients by billed total, deleted clients named "Unknown Client"
	TopClients(ctx context.Context, userID uuid.UUID, limit int) ([]TopClientResult, error)
	// IssuedSince returns the invoices issued on or after since
	IssuedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]IssuedAmountResult, error)
}
