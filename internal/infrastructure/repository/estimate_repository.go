package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	domainRepo "github.com/sangkips/quickbill-api/internal/domain/repository"
	"gorm.io/gorm"
)

var estimateSortColumns = map[string]string{
	"issue_date":      "issue_date",
	"valid_until":     "valid_until",
	"total_amount":    "total_amount",
	"estimate_number": "estimate_number",
	"status":          "status",
	"created_at":      "created_at",
}

type estimateRepository struct {
	db *gorm.DB
}

// NewEstimateRepository creates a new estimate repository
func NewEstimateRepository(db *gorm.DB) domainRepo.EstimateRepository {
	return &estimateRepository{db: db}
}

func (r *estimateRepository) Create(ctx context.Context, estimate *entity.Estimate) error {
	if estimate.Version == 0 {
		estimate.Version = 1
	}
	err := r.db.WithContext(ctx).Omit("Client").Create(estimate).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainRepo.ErrDuplicate
	}
	return err
}

func (r *estimateRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Estimate, error) {
	var estimate entity.Estimate
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items", orderByPosition).
		First(&estimate, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &estimate, err
}

func (r *estimateRepository) Save(ctx context.Context, estimate *entity.Estimate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveEstimate(tx, estimate)
	})
	if err != nil {
		return err
	}

	estimate.Version++
	return nil
}

// Convert inserts the invoice and links the estimate to it atomically
func (r *estimateRepository) Convert(ctx context.Context, estimate *entity.Estimate, invoice *entity.Invoice) error {
	if invoice.Version == 0 {
		invoice.Version = 1
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Client").Create(invoice).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domainRepo.ErrDuplicate
			}
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return saveEstimate(tx, estimate)
	})
	if err != nil {
		return err
	}

	estimate.Version++
	return nil
}

func saveEstimate(tx *gorm.DB, estimate *entity.Estimate) error {
	res := tx.Model(&entity.Estimate{}).
		Where("id = ? AND version = ?", estimate.ID, estimate.Version).
		Updates(map[string]interface{}{
			"client_id":       estimate.ClientID,
			"invoice_id":      estimate.InvoiceID,
			"estimate_number": estimate.EstimateNumber,
			"issue_date":      estimate.IssueDate,
			"valid_until":     estimate.ValidUntil,
			"status":          estimate.Status,
			"discount_rate":   estimate.DiscountRate,
			"subtotal":        estimate.Subtotal,
			"discount_amount": estimate.DiscountAmount,
			"total_tax":       estimate.TotalTax,
			"total_amount":    estimate.TotalAmount,
			"notes":           estimate.Notes,
			"version":         estimate.Version + 1,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainRepo.ErrVersionConflict
	}

	if estimate.Items == nil {
		return nil
	}
	if err := tx.Where("estimate_id = ?", estimate.ID).Delete(&entity.EstimateItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear estimate items: %w", err)
	}
	for i := range estimate.Items {
		estimate.Items[i].ID = uuid.New()
		estimate.Items[i].EstimateID = estimate.ID
	}
	if len(estimate.Items) == 0 {
		return nil
	}
	return tx.Create(&estimate.Items).Error
}

func (r *estimateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Estimate{}, "id = ?", id).Error
}

func (r *estimateRepository) List(ctx context.Context, userID uuid.UUID, params *domainRepo.EstimateFilterParams) ([]entity.Estimate, int64, error) {
	var estimates []entity.Estimate
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Estimate{}).
		Scopes(OwnedBy(userID), Search(params.Search, "estimate_number", "notes"))

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.ClientID != nil {
		query = query.Where("client_id = ?", *params.ClientID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Scopes(Sorted(params.SortBy, params.SortOrder, estimateSortColumns, "created_at")).
		Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Client").
		Find(&estimates).Error

	return estimates, total, err
}

func (r *estimateRepository) NextNumber(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&entity.Estimate{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}
