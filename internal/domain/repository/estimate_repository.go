package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/pkg/pagination"
)

// EstimateRepository defines the interface for estimate data operations
type EstimateRepository interface {
	Create(ctx context.Context, estimate *entity.Estimate) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Estimate, error)
	// Save is versioned like InvoiceRepository.Save; nil Items leaves stored items alone
	Save(ctx context.Context, estimate *entity.Estimate) error
	// Convert stores the new invoice and the linked estimate in one transaction
	Convert(ctx context.Context, estimate *entity.Estimate, invoice *entity.Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, params *EstimateFilterParams) ([]entity.Estimate, int64, error)
	NextNumber(ctx context.Context, userID uuid.UUID) (int, error)
}

// EstimateFilterParams contains filtering parameters for estimate queries
type EstimateFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.EstimateStatus
	ClientID   *uuid.UUID
	SortBy     string
	SortOrder  string
}
