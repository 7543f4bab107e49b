package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

var ErrAlreadyConverted = errors.New("estimate already converted")

const (
	TriggerAccept Trigger = "accept"
	TriggerReject Trigger = "reject"
)

// EstimateTotals are the derived money fields of an estimate
type EstimateTotals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalTax       decimal.Decimal `json:"total_tax"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// Rounded returns the totals rounded half away from zero to cents for display
func (t EstimateTotals) Rounded() EstimateTotals {
	return EstimateTotals{
		Subtotal:       t.Subtotal.Round(2),
		DiscountAmount: t.DiscountAmount.Round(2),
		TotalTax:       t.TotalTax.Round(2),
		TotalAmount:    t.TotalAmount.Round(2),
	}
}

// EstimateTotalsOf reads the stored totals of an estimate
func EstimateTotalsOf(est *entity.Estimate) EstimateTotals {
	return EstimateTotals{
		Subtotal:       est.Subtotal,
		DiscountAmount: est.DiscountAmount,
		TotalTax:       est.TotalTax,
		TotalAmount:    est.TotalAmount,
	}
}

// ComputeEstimateTotals applies a percentage discount to the subtotal and
// charges tax on the discounted base.
func ComputeEstimateTotals(items []entity.LineItem, discountRate decimal.Decimal) EstimateTotals {
	base := ComputeTotals(items)
	keep := decimal.NewFromInt(1).Sub(discountRate.Div(hundred))
	discount := base.Subtotal.Mul(discountRate).Div(hundred)
	tax := base.TotalTax.Mul(keep)
	return EstimateTotals{
		Subtotal:       base.Subtotal,
		DiscountAmount: discount,
		TotalTax:       tax,
		TotalAmount:    base.Subtotal.Sub(discount).Add(tax),
	}
}

// ValidateDiscount checks the discount percentage
func ValidateDiscount(discountRate decimal.Decimal) error {
	if discountRate.IsNegative() || discountRate.GreaterThan(hundred) {
		return apperror.NewFieldError("discount_rate", "discount rate must be between 0 and 100")
	}
	return nil
}

// RecomputeEstimate replaces the items and discount of est and rewrites its totals.
// Accepted and rejected estimates are frozen.
func RecomputeEstimate(est *entity.Estimate, items []entity.LineItem, discountRate decimal.Decimal) error {
	if est.Status == enum.EstimateStatusAccepted || est.Status == enum.EstimateStatusRejected {
		return apperror.NewTransitionError(
			fmt.Sprintf("cannot edit an estimate that is %s", est.Status),
			ErrNotEditable,
		)
	}
	if err := ValidateItems(items); err != nil {
		return err
	}
	if err := ValidateDiscount(discountRate); err != nil {
		return err
	}

	rows := make([]entity.EstimateItem, len(items))
	for i, it := range items {
		rows[i] = entity.EstimateItem{
			EstimateID: est.ID,
			Position:   i,
			LineItem:   it,
		}
	}

	totals := ComputeEstimateTotals(items, discountRate)
	est.Items = rows
	est.DiscountRate = discountRate
	est.Subtotal = totals.Subtotal
	est.DiscountAmount = totals.DiscountAmount
	est.TotalTax = totals.TotalTax
	est.TotalAmount = totals.TotalAmount
	return nil
}

func newEstimateMachine(status enum.EstimateStatus) *stateless.StateMachine {
	machine := stateless.NewStateMachine(status)

	machine.Configure(enum.EstimateStatusDraft).
		Permit(TriggerSend, enum.EstimateStatusSent)

	machine.Configure(enum.EstimateStatusSent).
		PermitReentry(TriggerSend).
		Permit(TriggerAccept, enum.EstimateStatusAccepted).
		Permit(TriggerReject, enum.EstimateStatusRejected)

	machine.Configure(enum.EstimateStatusAccepted)
	machine.Configure(enum.EstimateStatusRejected)

	return machine
}

// FireEstimate applies trigger to the estimate status
func FireEstimate(est *entity.Estimate, trigger Trigger) error {
	machine := newEstimateMachine(est.Status)
	if err := machine.Fire(trigger); err != nil {
		return apperror.NewTransitionError(
			fmt.Sprintf("cannot %s an estimate that is %s", trigger, est.Status),
			fmt.Errorf("%w: %v", ErrInvalidTransition, err),
		)
	}
	est.Status = machine.MustState().(enum.EstimateStatus)
	return nil
}

// CanFireEstimate reports whether trigger is allowed from status
func CanFireEstimate(status enum.EstimateStatus, trigger Trigger) bool {
	ok, err := newEstimateMachine(status).CanFire(trigger)
	return err == nil && ok
}

// ConvertToInvoice builds a draft invoice from an accepted estimate.
// Unit prices absorb the discount so that the invoice totals equal the estimate totals.
// The estimate is linked to the new invoice; persisting both is the caller's job.
func ConvertToInvoice(est *entity.Estimate, invoiceNumber string, issueDate, dueDate time.Time) (*entity.Invoice, error) {
	if est.Status != enum.EstimateStatusAccepted {
		return nil, apperror.NewTransitionError(
			fmt.Sprintf("cannot convert an estimate that is %s", est.Status),
			ErrInvalidTransition,
		)
	}
	if est.InvoiceID != nil {
		return nil, apperror.NewTransitionError("estimate has already been converted", ErrAlreadyConverted)
	}
	if err := ValidateSchedule(issueDate, dueDate); err != nil {
		return nil, err
	}

	keep := decimal.NewFromInt(1).Sub(est.DiscountRate.Div(hundred))
	items := make([]entity.LineItem, len(est.Items))
	for i, it := range est.Items {
		line := it.LineItem
		line.UnitPrice = line.UnitPrice.Mul(keep)
		items[i] = line
	}

	estimateID := est.ID
	inv := &entity.Invoice{
		ID:            uuid.New(),
		UserID:        est.UserID,
		ClientID:      est.ClientID,
		EstimateID:    &estimateID,
		InvoiceNumber: invoiceNumber,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Status:        enum.InvoiceStatusDraft,
		Notes:         est.Notes,
		Version:       1,
	}
	if err := RecomputeOnEdit(inv, items); err != nil {
		return nil, err
	}

	est.InvoiceID = &inv.ID
	return inv, nil
}
