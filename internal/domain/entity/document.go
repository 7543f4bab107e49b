package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocumentHeader holds the issuer block printed at the top of an invoice.
type DocumentHeader struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// DocumentLine represents a single printed line item.
type DocumentLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceDocument is a value object for rendering an invoice as PDF or email.
// It is not persisted; it is composed from a stored invoice and never recomputes totals.
type InvoiceDocument struct {
	Header        DocumentHeader  `json:"header"`
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Status        string          `json:"status"`
	ClientName    string          `json:"client_name"`
	ClientEmail   string          `json:"client_email,omitempty"`
	ClientAddress []string        `json:"client_address,omitempty"`
	Items         []DocumentLine  `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Notes         string          `json:"notes,omitempty"`
	PaymentTerms  string          `json:"payment_terms,omitempty"`
}

// NewInvoiceDocument composes the printable view of inv as issued by issuer.
// Money values are rounded to cents here and nowhere earlier.
func NewInvoiceDocument(inv *Invoice, issuer *User) *InvoiceDocument {
	doc := &InvoiceDocument{
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Status:        inv.Status.String(),
		ClientName:    inv.ClientName(),
		Items:         make([]DocumentLine, 0, len(inv.Items)),
		Subtotal:      inv.Subtotal.Round(2),
		TotalTax:      inv.TotalTax.Round(2),
		TotalAmount:   inv.TotalAmount.Round(2),
	}

	if issuer != nil {
		doc.Header = DocumentHeader{
			Name:  issuer.IssuerName(),
			Email: issuer.ReplyToEmail(),
		}
		if issuer.CompanyAddress != nil {
			doc.Header.Address = strings.TrimSpace(*issuer.CompanyAddress)
		}
		if issuer.CompanyPhone != nil {
			doc.Header.Phone = *issuer.CompanyPhone
		}
	}

	if inv.Client != nil && inv.Client.ID == inv.ClientID {
		doc.ClientEmail = inv.Client.Email
		doc.ClientAddress = inv.Client.Address.Lines()
	}

	for _, it := range inv.Items {
		doc.Items = append(doc.Items, DocumentLine{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.Round(2),
			TaxRate:     it.TaxRate,
			Amount:      it.Amount().Round(2),
		})
	}

	if inv.Notes != nil {
		doc.Notes = *inv.Notes
	}
	if inv.PaymentTerms != nil {
		doc.PaymentTerms = *inv.PaymentTerms
	}

	return doc
}
