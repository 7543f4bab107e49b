package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/qmuntal/stateless"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/pkg/apperror"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotEditable       = errors.New("invoice is not editable")
)

// Trigger is an event that moves an invoice between statuses
type Trigger string

const (
	TriggerSend        Trigger = "send"
	TriggerPay         Trigger = "pay"
	TriggerCancel      Trigger = "cancel"
	TriggerMarkOverdue Trigger = "mark_overdue"
)

var triggerVerbs = map[Trigger]string{
	TriggerSend:        "send",
	TriggerPay:         "mark as paid",
	TriggerCancel:      "cancel",
	TriggerMarkOverdue: "mark as overdue",
}

func newInvoiceMachine(status enum.InvoiceStatus) *stateless.StateMachine {
	machine := stateless.NewStateMachine(status)

	machine.Configure(enum.InvoiceStatusDraft).
		Permit(TriggerSend, enum.InvoiceStatusSent).
		Permit(TriggerPay, enum.InvoiceStatusPaid).
		Permit(TriggerCancel, enum.InvoiceStatusCancelled)

	machine.Configure(enum.InvoiceStatusSent).
		PermitReentry(TriggerSend).
		Permit(TriggerPay, enum.InvoiceStatusPaid).
		Permit(TriggerCancel, enum.InvoiceStatusCancelled).
		Permit(TriggerMarkOverdue, enum.InvoiceStatusOverdue)

	// re-sending restarts the sent state; IsOverdue and the sweep still see the due date
	machine.Configure(enum.InvoiceStatusOverdue).
		Permit(TriggerSend, enum.InvoiceStatusSent).
		PermitReentry(TriggerMarkOverdue).
		Permit(TriggerPay, enum.InvoiceStatusPaid)

	// paid and cancelled are terminal; paying twice is a no-op
	machine.Configure(enum.InvoiceStatusPaid).
		PermitReentry(TriggerPay)

	machine.Configure(enum.InvoiceStatusCancelled)

	return machine
}

// CanFire reports whether trigger is allowed from status
func CanFire(status enum.InvoiceStatus, trigger Trigger) bool {
	ok, err := newInvoiceMachine(status).CanFire(trigger)
	return err == nil && ok
}

// CheckTransition returns the TransitionError that firing trigger would produce, or nil
func CheckTransition(inv *entity.Invoice, trigger Trigger) error {
	if CanFire(inv.Status, trigger) {
		return nil
	}
	return transitionError(inv.Status, trigger, ErrInvalidTransition)
}

func fire(inv *entity.Invoice, trigger Trigger) error {
	machine := newInvoiceMachine(inv.Status)
	if err := machine.Fire(trigger); err != nil {
		return transitionError(inv.Status, trigger, fmt.Errorf("%w: %v", ErrInvalidTransition, err))
	}
	inv.Status = machine.MustState().(enum.InvoiceStatus)
	return nil
}

func transitionError(status enum.InvoiceStatus, trigger Trigger, err error) error {
	return apperror.NewTransitionError(
		fmt.Sprintf("cannot %s an invoice that is %s", triggerVerbs[trigger], status),
		err,
	)
}

// MarkSent records that the invoice email was confirmed delivered at now.
// Callers must only invoke it after the dispatch succeeded.
func MarkSent(inv *entity.Invoice, now time.Time) error {
	if err := fire(inv, TriggerSend); err != nil {
		return err
	}
	inv.SentAt = &now
	return nil
}

// MarkPaid moves the invoice to paid. Paying an already paid invoice keeps the original PaidAt.
func MarkPaid(inv *entity.Invoice, now time.Time) error {
	alreadyPaid := inv.Status == enum.InvoiceStatusPaid
	if err := fire(inv, TriggerPay); err != nil {
		return err
	}
	if !alreadyPaid {
		inv.PaidAt = &now
	}
	return nil
}

// Cancel voids a draft or sent invoice
func Cancel(inv *entity.Invoice) error {
	return fire(inv, TriggerCancel)
}

// MarkOverdue persists the overdue status of a sent invoice past its due date
func MarkOverdue(inv *entity.Invoice, now time.Time) error {
	if !now.After(inv.DueDate) {
		return apperror.NewTransitionError("invoice is not past its due date", ErrInvalidTransition)
	}
	return fire(inv, TriggerMarkOverdue)
}

// IsOverdue derives overdue-ness at read time from status and due date
func IsOverdue(inv *entity.Invoice, now time.Time) bool {
	return !inv.Status.IsTerminal() && now.After(inv.DueDate)
}

// DaysOverdue is the number of whole days since the due date, zero if not overdue
func DaysOverdue(inv *entity.Invoice, now time.Time) int {
	if !IsOverdue(inv, now) {
		return 0
	}
	return int(now.Sub(inv.DueDate).Hours() / 24)
}
