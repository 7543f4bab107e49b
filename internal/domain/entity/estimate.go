package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Estimate represents a price quote that can later become an invoice
type Estimate struct {
	ID             uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	UserID         uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_estimates_user_number" json:"user_id"`
	ClientID       uuid.UUID           `gorm:"type:uuid;not null;index" json:"client_id"`
	InvoiceID      *uuid.UUID          `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	EstimateNumber string              `gorm:"size:50;not null;uniqueIndex:idx_estimates_user_number" json:"estimate_number"`
	IssueDate      time.Time           `gorm:"not null" json:"issue_date"`
	ValidUntil     time.Time           `gorm:"not null" json:"valid_until"`
	Status         enum.EstimateStatus `gorm:"not null;default:0;index" json:"status"`
	DiscountRate   decimal.Decimal     `gorm:"type:numeric(9,6);not null;default:0" json:"discount_rate"`
	Subtotal       decimal.Decimal     `gorm:"type:numeric(20,6);not null;default:0" json:"subtotal"`
	DiscountAmount decimal.Decimal     `gorm:"type:numeric(20,6);not null;default:0" json:"discount_amount"`
	TotalTax       decimal.Decimal     `gorm:"type:numeric(20,6);not null;default:0" json:"total_tax"`
	TotalAmount    decimal.Decimal     `gorm:"type:numeric(20,6);not null;default:0" json:"total_amount"`
	Notes          *string             `gorm:"type:text" json:"notes,omitempty"`
	Version        int                 `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	DeletedAt      gorm.DeletedAt      `gorm:"index" json:"-"`

	// Relationships
	Client *Client        `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Items  []EstimateItem `gorm:"foreignKey:EstimateID" json:"items"`
}

// BeforeCreate generates a UUID before creating a new estimate
func (e *Estimate) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Estimate model
func (Estimate) TableName() string {
	return "estimates"
}

// ClientName returns the quoted client's name, or UnknownClientName once the client is gone
func (e *Estimate) ClientName() string {
	if e.Client == nil || e.Client.ID == uuid.Nil {
		return UnknownClientName
	}
	return e.Client.Name
}

// LineItems returns the estimate lines in position order
func (e *Estimate) LineItems() []LineItem {
	items := make([]LineItem, len(e.Items))
	for idx, it := range e.Items {
		items[idx] = it.LineItem
	}
	return items
}

// EstimateItem is a persisted estimate line
type EstimateItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	EstimateID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position   int       `gorm:"not null" json:"position"`
	LineItem
	CreatedAt time.Time `json:"-"`
}

// BeforeCreate generates a UUID before creating a new estimate item
func (it *EstimateItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the EstimateItem model
func (EstimateItem) TableName() string {
	return "estimate_items"
}
