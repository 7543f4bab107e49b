package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	domainRepo "github.com/sangkips/quickbill-api/internal/domain/repository"
	"gorm.io/gorm"
)

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) domainRepo.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) StatusTotals(ctx context.Context, userID uuid.UUID) ([]domainRepo.StatusTotalResult, error) {
	var results []domainRepo.StatusTotalResult

	err := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS amount").
		Scopes(OwnedBy(userID)).
		Group("status").
		Order("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	return results, nil
}

func (r *analyticsRepository) CountOverdue(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Scopes(OwnedBy(userID)).
		Where("status NOT IN ? AND due_date < ?", settledStatuses(), now).
		Count(&count).Error
	return count, err
}

// TopClients joins clients with LEFT JOIN so invoices of deleted clients still count
func (r *analyticsRepository) TopClients(ctx context.Context, userID uuid.UUID, limit int) ([]domainRepo.TopClientResult, error) {
	var results []domainRepo.TopClientResult

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			i.client_id AS client_id,
			COALESCE(c.name, ?) AS client_name,
			COALESCE(SUM(i.total_amount), 0) AS total,
			COUNT(i.id) AS invoice_count
		FROM invoices i
		LEFT JOIN clients c ON c.id = i.client_id AND c.deleted_at IS NULL
		WHERE i.user_id = ? AND i.status <> ? AND i.deleted_at IS NULL
		GROUP BY i.client_id, c.name
		ORDER BY total DESC
		LIMIT ?
	`, entity.UnknownClientName, userID, enum.InvoiceStatusCancelled, limit).Scan(&results).Error

	if err != nil {
		return nil, err
	}

	return results, nil
}

// IssuedSince returns raw rows; month bucketing is done by the caller so the query stays portable
func (r *analyticsRepository) IssuedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]domainRepo.IssuedAmountResult, error) {
	var results []domainRepo.IssuedAmountResult

	err := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Select("issue_date, total_amount").
		Scopes(OwnedBy(userID)).
		Where("issue_date >= ? AND status <> ?", since, enum.InvoiceStatusCancelled).
		Order("issue_date ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	return results, nil
}
