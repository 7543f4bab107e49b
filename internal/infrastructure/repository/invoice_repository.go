package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	domainRepo "github.com/sangkips/quickbill-api/internal/domain/repository"
	"gorm.io/gorm"
)

var invoiceSortColumns = map[string]string{
	"issue_date":     "issue_date",
	"due_date":       "due_date",
	"total_amount":   "total_amount",
	"invoice_number": "invoice_number",
	"status":         "status",
	"created_at":     "created_at",
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.Version == 0 {
		invoice.Version = 1
	}
	err := r.db.WithContext(ctx).Omit("Client").Create(invoice).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainRepo.ErrDuplicate
	}
	return err
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items", orderByPosition).
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

func (r *invoiceRepository) Save(ctx context.Context, invoice *entity.Invoice) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Invoice{}).
			Where("id = ? AND version = ?", invoice.ID, invoice.Version).
			Updates(map[string]interface{}{
				"client_id":      invoice.ClientID,
				"estimate_id":    invoice.EstimateID,
				"invoice_number": invoice.InvoiceNumber,
				"issue_date":     invoice.IssueDate,
				"due_date":       invoice.DueDate,
				"status":         invoice.Status,
				"subtotal":       invoice.Subtotal,
				"total_tax":      invoice.TotalTax,
				"total_amount":   invoice.TotalAmount,
				"notes":          invoice.Notes,
				"payment_terms":  invoice.PaymentTerms,
				"sent_at":        invoice.SentAt,
				"paid_at":        invoice.PaidAt,
				"version":        invoice.Version + 1,
				"updated_at":     time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domainRepo.ErrVersionConflict
		}

		if invoice.Items == nil {
			return nil
		}
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&entity.InvoiceItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear invoice items: %w", err)
		}
		for i := range invoice.Items {
			invoice.Items[i].ID = uuid.New()
			invoice.Items[i].InvoiceID = invoice.ID
		}
		if len(invoice.Items) == 0 {
			return nil
		}
		return tx.Create(&invoice.Items).Error
	})
	if err != nil {
		return err
	}

	invoice.Version++
	return nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Invoice{}, "id = ?", id).Error
}

func (r *invoiceRepository) List(ctx context.Context, userID uuid.UUID, params *domainRepo.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Invoice{}).
		Scopes(OwnedBy(userID), Search(params.Search, "invoice_number", "notes"))

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.ClientID != nil {
		query = query.Where("client_id = ?", *params.ClientID)
	}

	if params.StartDate != nil {
		query = query.Where("issue_date >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("issue_date <= ?", *params.EndDate)
	}

	if params.OverdueAt != nil {
		query = query.Where("status NOT IN ? AND due_date < ?", settledStatuses(), *params.OverdueAt)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Scopes(Sorted(params.SortBy, params.SortOrder, invoiceSortColumns, "created_at")).
		Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Client").
		Find(&invoices).Error

	return invoices, total, err
}

func (r *invoiceRepository) ListPastDue(ctx context.Context, now time.Time, limit int) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", enum.InvoiceStatusSent, now).
		Order("due_date ASC").
		Limit(limit).
		Find(&invoices).Error
	return invoices, err
}

// NextNumber counts soft-deleted rows too so numbers are never reused
func (r *invoiceRepository) NextNumber(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&entity.Invoice{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func settledStatuses() []enum.InvoiceStatus {
	return []enum.InvoiceStatus{enum.InvoiceStatusPaid, enum.InvoiceStatusCancelled}
}
