package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice represents a bill issued by a user to one of their clients
type Invoice struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	UserID        uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_user_number" json:"user_id"`
	ClientID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"client_id"`
	EstimateID    *uuid.UUID         `gorm:"type:uuid;index" json:"estimate_id,omitempty"`
	InvoiceNumber string             `gorm:"size:50;not null;uniqueIndex:idx_invoices_user_number" json:"invoice_number"`
	IssueDate     time.Time          `gorm:"not null" json:"issue_date"`
	DueDate       time.Time          `gorm:"not null;index" json:"due_date"`
	Status        enum.InvoiceStatus `gorm:"not null;default:0;index" json:"status"`
	Subtotal      decimal.Decimal    `gorm:"type:numeric(20,6);not null;default:0" json:"subtotal"`
	TotalTax      decimal.Decimal    `gorm:"type:numeric(20,6);not null;default:0" json:"total_tax"`
	TotalAmount   decimal.Decimal    `gorm:"type:numeric(20,6);not null;default:0" json:"total_amount"`
	Notes         *string            `gorm:"type:text" json:"notes,omitempty"`
	PaymentTerms  *string            `gorm:"size:255" json:"payment_terms,omitempty"`
	SentAt        *time.Time         `json:"sent_at,omitempty"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	Version       int                `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	DeletedAt     gorm.DeletedAt     `gorm:"index" json:"-"`

	// Relationships
	Client *Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Items  []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// ClientName returns the billed client's name, or UnknownClientName once the client is gone
func (i *Invoice) ClientName() string {
	if i.Client == nil || i.Client.ID == uuid.Nil {
		return UnknownClientName
	}
	return i.Client.Name
}

// LineItems returns the invoice lines in position order
func (i *Invoice) LineItems() []LineItem {
	items := make([]LineItem, len(i.Items))
	for idx, it := range i.Items {
		items[idx] = it.LineItem
	}
	return items
}

// InvoiceItem is a persisted invoice line
type InvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position  int       `gorm:"not null" json:"position"`
	LineItem
	CreatedAt time.Time `json:"-"`
}

// BeforeCreate generates a UUID before creating a new invoice item
func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceItem model
func (InvoiceItem) TableName() string {
	return "invoice_items"
}
