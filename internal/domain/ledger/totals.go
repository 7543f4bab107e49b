// Package ledger holds the invoice arithmetic and status rules.
//
// Everything here is free of I/O: callers load an invoice, apply a ledger
// operation to it and persist the result.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

var (
	hundred    = decimal.NewFromInt(100)
	maxTaxRate = hundred
)

// Totals are the derived money fields of an invoice
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TotalTax    decimal.Decimal `json:"total_tax"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Rounded returns the totals rounded half away from zero to cents for display
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:    t.Subtotal.Round(2),
		TotalTax:    t.TotalTax.Round(2),
		TotalAmount: t.TotalAmount.Round(2),
	}
}

// ComputeTotals sums the line items. It does not round and does not validate;
// call ValidateItems first.
func ComputeTotals(items []entity.LineItem) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Amount())
		tax = tax.Add(it.Tax())
	}
	return Totals{
		Subtotal:    subtotal,
		TotalTax:    tax,
		TotalAmount: subtotal.Add(tax),
	}
}

// TotalsOf reads the stored totals of an invoice
func TotalsOf(inv *entity.Invoice) Totals {
	return Totals{
		Subtotal:    inv.Subtotal,
		TotalTax:    inv.TotalTax,
		TotalAmount: inv.TotalAmount,
	}
}

// ValidateItems checks every line and reports all failing fields at once
func ValidateItems(items []entity.LineItem) error {
	if len(items) == 0 {
		return apperror.NewFieldError("items", "at least one line item is required")
	}

	var fieldErrors []apperror.FieldError
	for i, it := range items {
		prefix := fmt.Sprintf("items[%d].", i)
		if strings.TrimSpace(it.Description) == "" {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: prefix + "description", Message: "description is required"})
		}
		if !it.Quantity.IsPositive() {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: prefix + "quantity", Message: "quantity must be greater than 0"})
		}
		if it.UnitPrice.IsNegative() {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: prefix + "unit_price", Message: "unit price must not be negative"})
		}
		if it.TaxRate.IsNegative() || it.TaxRate.GreaterThan(maxTaxRate) {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: prefix + "tax_rate", Message: "tax rate must be between 0 and 100"})
		}
	}

	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

// ValidateSchedule checks that an invoice is not due before it is issued
func ValidateSchedule(issueDate, dueDate time.Time) error {
	if issueDate.IsZero() {
		return apperror.NewFieldError("issue_date", "issue date is required")
	}
	if dueDate.IsZero() {
		return apperror.NewFieldError("due_date", "due date is required")
	}
	if dueDate.Before(issueDate) {
		return apperror.NewFieldError("due_date", "due date must not be before issue date")
	}
	return nil
}

// RecomputeOnEdit replaces the items of inv and rewrites its totals.
// Paid and cancelled invoices are frozen. Nothing is changed on error.
func RecomputeOnEdit(inv *entity.Invoice, items []entity.LineItem) error {
	if inv.Status.IsTerminal() {
		return apperror.NewTransitionError(
			fmt.Sprintf("cannot edit an invoice that is %s", inv.Status),
			ErrNotEditable,
		)
	}
	if err := ValidateItems(items); err != nil {
		return err
	}

	rows := make([]entity.InvoiceItem, len(items))
	for i, it := range items {
		rows[i] = entity.InvoiceItem{
			InvoiceID: inv.ID,
			Position:  i,
			LineItem:  it,
		}
	}

	totals := ComputeTotals(items)
	inv.Items = rows
	inv.Subtotal = totals.Subtotal
	inv.TotalTax = totals.TotalTax
	inv.TotalAmount = totals.TotalAmount
	return nil
}
