package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/internal/domain/ledger"
	"github.com/sangkips/quickbill-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// LineItemResponse is a single invoice or estimate line
type LineItemResponse struct {
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Amount      decimal.Decimal `json:"amount"`
}

func newLineItem(position int, it entity.LineItem) LineItemResponse {
	return LineItemResponse{
		Position:    position,
		Description: it.Description,
		Quantity:    it.Quantity,
		UnitPrice:   it.UnitPrice,
		TaxRate:     it.TaxRate,
		Amount:      it.Amount(),
	}
}

// InvoiceResponse is the API view of an invoice.
// Money fields carry full precision; Display holds the same totals rounded to cents.
type InvoiceResponse struct {
	ID            uuid.UUID          `json:"id"`
	InvoiceNumber string             `json:"invoice_number"`
	ClientID      uuid.UUID          `json:"client_id"`
	ClientName    string             `json:"client_name"`
	EstimateID    *uuid.UUID         `json:"estimate_id,omitempty"`
	IssueDate     string             `json:"issue_date"`
	DueDate       string             `json:"due_date"`
	Status        enum.InvoiceStatus `json:"status"`
	IsOverdue     bool               `json:"is_overdue"`
	DaysOverdue   int                `json:"days_overdue"`
	Items         []LineItemResponse `json:"items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	TotalTax      decimal.Decimal    `json:"total_tax"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Display       ledger.Totals      `json:"display"`
	Notes         *string            `json:"notes,omitempty"`
	PaymentTerms  *string            `json:"payment_terms,omitempty"`
	SentAt        *time.Time         `json:"sent_at,omitempty"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	Version       int                `json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NewInvoiceResponse builds the view of inv with overdue-ness derived at now
func NewInvoiceResponse(inv *entity.Invoice, now time.Time) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		ClientID:      inv.ClientID,
		ClientName:    inv.ClientName(),
		EstimateID:    inv.EstimateID,
		IssueDate:     inv.IssueDate.Format(DateLayout),
		DueDate:       inv.DueDate.Format(DateLayout),
		Status:        inv.Status,
		IsOverdue:     ledger.IsOverdue(inv, now),
		DaysOverdue:   ledger.DaysOverdue(inv, now),
		Items:         make([]LineItemResponse, 0, len(inv.Items)),
		Subtotal:      inv.Subtotal,
		TotalTax:      inv.TotalTax,
		TotalAmount:   inv.TotalAmount,
		Display:       ledger.TotalsOf(inv).Rounded(),
		Notes:         inv.Notes,
		PaymentTerms:  inv.PaymentTerms,
		SentAt:        inv.SentAt,
		PaidAt:        inv.PaidAt,
		Version:       inv.Version,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	for _, it := range inv.Items {
		resp.Items = append(resp.Items, newLineItem(it.Position, it.LineItem))
	}
	return resp
}

// NewInvoiceList maps a page of invoices
func NewInvoiceList(result *pagination.PaginatedResult[entity.Invoice], now time.Time) *pagination.PaginatedResult[InvoiceResponse] {
	items := make([]InvoiceResponse, len(result.Items))
	for i := range result.Items {
		items[i] = NewInvoiceResponse(&result.Items[i], now)
	}
	return pagination.NewPaginatedResult(items, result.Pagination)
}

// EstimateResponse is the API view of an estimate
type EstimateResponse struct {
	ID             uuid.UUID             `json:"id"`
	EstimateNumber string                `json:"estimate_number"`
	ClientID       uuid.UUID             `json:"client_id"`
	ClientName     string                `json:"client_name"`
	InvoiceID      *uuid.UUID            `json:"invoice_id,omitempty"`
	IssueDate      string                `json:"issue_date"`
	ValidUntil     string                `json:"valid_until"`
	Status         enum.EstimateStatus   `json:"status"`
	Items          []LineItemResponse    `json:"items"`
	DiscountRate   decimal.Decimal       `json:"discount_rate"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	TotalTax       decimal.Decimal       `json:"total_tax"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	Display        ledger.EstimateTotals `json:"display"`
	Notes          *string               `json:"notes,omitempty"`
	Version        int                   `json:"version"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// NewEstimateResponse builds the view of est
func NewEstimateResponse(est *entity.Estimate) EstimateResponse {
	resp := EstimateResponse{
		ID:             est.ID,
		EstimateNumber: est.EstimateNumber,
		ClientID:       est.ClientID,
		ClientName:     est.ClientName(),
		InvoiceID:      est.InvoiceID,
		IssueDate:      est.IssueDate.Format(DateLayout),
		ValidUntil:     est.ValidUntil.Format(DateLayout),
		Status:         est.Status,
		Items:          make([]LineItemResponse, 0, len(est.Items)),
		DiscountRate:   est.DiscountRate,
		Subtotal:       est.Subtotal,
		DiscountAmount: est.DiscountAmount,
		TotalTax:       est.TotalTax,
		TotalAmount:    est.TotalAmount,
		Display:        ledger.EstimateTotalsOf(est).Rounded(),
		Notes:          est.Notes,
		Version:        est.Version,
		CreatedAt:      est.CreatedAt,
		UpdatedAt:      est.UpdatedAt,
	}
	for _, it := range est.Items {
		resp.Items = append(resp.Items, newLineItem(it.Position, it.LineItem))
	}
	return resp
}

// NewEstimateList maps a page of estimates
func NewEstimateList(result *pagination.PaginatedResult[entity.Estimate]) *pagination.PaginatedResult[EstimateResponse] {
	items := make([]EstimateResponse, len(result.Items))
	for i := range result.Items {
		items[i] = NewEstimateResponse(&result.Items[i])
	}
	return pagination.NewPaginatedResult(items, result.Pagination)
}
