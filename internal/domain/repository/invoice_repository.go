package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/pkg/pagination"
)

var (
	// ErrVersionConflict is returned by Save when the row changed since it was loaded
	ErrVersionConflict = errors.New("record was modified concurrently")
	// ErrDuplicate is returned by Create when a unique key such as the document number is taken
	ErrDuplicate = errors.New("record already exists")
)

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	// Create inserts the invoice together with its items
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetByID loads the invoice with its items and client; nil when missing
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	// Save writes the header if the stored version still matches, then bumps the version.
	// Items are replaced when invoice.Items is non-nil. Returns ErrVersionConflict on a lost race.
	Save(ctx context.Context, invoice *entity.Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, params *InvoiceFilterParams) ([]entity.Invoice, int64, error)
	// ListPastDue returns sent invoices whose due date is before now, across all users
	ListPastDue(ctx context.Context, now time.Time, limit int) ([]entity.Invoice, error)
	// NextNumber returns the next free sequence number for the user's invoices
	NextNumber(ctx context.Context, userID uuid.UUID) (int, error)
}

// InvoiceFilterParams contains filtering parameters for invoice queries
type InvoiceFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.InvoiceStatus
	ClientID   *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	// OverdueAt restricts to unsettled invoices due before the given time
	OverdueAt *time.Time
	SortBy    string
	SortOrder string
}
