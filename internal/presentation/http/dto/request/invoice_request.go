package request

import (
	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LineItemRequest is a single billable line. Amount rules are enforced by the ledger.
type LineItemRequest struct {
	Description string          `json:"description" binding:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// LineItems converts the request lines into domain line items
func LineItems(items []LineItemRequest) []entity.LineItem {
	if items == nil {
		return nil
	}
	out := make([]entity.LineItem, len(items))
	for i, it := range items {
		out[i] = entity.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		}
	}
	return out
}

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	ClientID     uuid.UUID         `json:"client_id" binding:"required"`
	IssueDate    *Date             `json:"issue_date" binding:"required"`
	DueDate      *Date             `json:"due_date" binding:"required"`
	Items        []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes        *string           `json:"notes"`
	PaymentTerms *string           `json:"payment_terms" binding:"omitempty,max=255"`
}

// UpdateInvoiceRequest represents a partial invoice edit. Status is not editable.
type UpdateInvoiceRequest struct {
	ClientID     *uuid.UUID        `json:"client_id"`
	IssueDate    *Date             `json:"issue_date"`
	DueDate      *Date             `json:"due_date"`
	Items        []LineItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	Notes        *string           `json:"notes"`
	PaymentTerms *string           `json:"payment_terms" binding:"omitempty,max=255"`
	Version      *int              `json:"version"`
}

// SendRequest represents a request to email a document
type SendRequest struct {
	RecipientEmail string `json:"recipient_email" binding:"omitempty,email"`
}
