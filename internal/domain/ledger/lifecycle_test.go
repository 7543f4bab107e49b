package ledger

import (
	"testing"
	"time"

	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    enum.InvoiceStatus
		trigger Trigger
		want    enum.InvoiceStatus
		wantErr bool
	}{
		{name: "draft send", from: enum.InvoiceStatusDraft, trigger: TriggerSend, want: enum.InvoiceStatusSent},
		{name: "draft pay", from: enum.InvoiceStatusDraft, trigger: TriggerPay, want: enum.InvoiceStatusPaid},
		{name: "draft cancel", from: enum.InvoiceStatusDraft, trigger: TriggerCancel, want: enum.InvoiceStatusCancelled},
		{name: "draft overdue", from: enum.InvoiceStatusDraft, trigger: TriggerMarkOverdue, wantErr: true},
		{name: "sent resend", from: enum.InvoiceStatusSent, trigger: TriggerSend, want: enum.InvoiceStatusSent},
		{name: "sent pay", from: enum.InvoiceStatusSent, trigger: TriggerPay, want: enum.InvoiceStatusPaid},
		{name: "sent cancel", from: enum.InvoiceStatusSent, trigger: TriggerCancel, want: enum.InvoiceStatusCancelled},
		{name: "sent overdue", from: enum.InvoiceStatusSent, trigger: TriggerMarkOverdue, want: enum.InvoiceStatusOverdue},
		{name: "overdue resend", from: enum.InvoiceStatusOverdue, trigger: TriggerSend, want: enum.InvoiceStatusSent},
		{name: "overdue pay", from: enum.InvoiceStatusOverdue, trigger: TriggerPay, want: enum.InvoiceStatusPaid},
		{name: "overdue cancel", from: enum.InvoiceStatusOverdue, trigger: TriggerCancel, wantErr: true},
		{name: "paid pay again", from: enum.InvoiceStatusPaid, trigger: TriggerPay, want: enum.InvoiceStatusPaid},
		{name: "paid send", from: enum.InvoiceStatusPaid, trigger: TriggerSend, wantErr: true},
		{name: "paid cancel", from: enum.InvoiceStatusPaid, trigger: TriggerCancel, wantErr: true},
		{name: "cancelled send", from: enum.InvoiceStatusCancelled, trigger: TriggerSend, wantErr: true},
		{name: "cancelled pay", from: enum.InvoiceStatusCancelled, trigger: TriggerPay, wantErr: true},
		{name: "cancelled cancel", from: enum.InvoiceStatusCancelled, trigger: TriggerCancel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &entity.Invoice{Status: tt.from}

			err := fire(inv, tt.trigger)
			assert.Equal(t, !tt.wantErr, CanFire(tt.from, tt.trigger))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsType(err, apperror.TypeTransition))
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, inv.Status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, inv.Status)
		})
	}
}

func TestMarkPaid_Idempotent(t *testing.T) {
	first := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{Status: enum.InvoiceStatusSent}

	require.NoError(t, MarkPaid(inv, first))
	require.NoError(t, MarkPaid(inv, first.Add(time.Hour)))

	assert.Equal(t, enum.InvoiceStatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)
	assert.Equal(t, first, *inv.PaidAt)
}

func TestCancel_AfterPaidFails(t *testing.T) {
	inv := &entity.Invoice{Status: enum.InvoiceStatusDraft}
	require.NoError(t, MarkPaid(inv, time.Now()))

	err := Cancel(inv)
	require.Error(t, err)
	assert.True(t, apperror.IsType(err, apperror.TypeTransition))
	assert.Equal(t, enum.InvoiceStatusPaid, inv.Status)
}

func TestMarkSent_SetsSentAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{Status: enum.InvoiceStatusDraft}

	require.NoError(t, MarkSent(inv, now))
	assert.Equal(t, enum.InvoiceStatusSent, inv.Status)
	require.NotNil(t, inv.SentAt)
	assert.Equal(t, now, *inv.SentAt)
}

func TestCheckTransition(t *testing.T) {
	assert.NoError(t, CheckTransition(&entity.Invoice{Status: enum.InvoiceStatusDraft}, TriggerSend))

	err := CheckTransition(&entity.Invoice{Status: enum.InvoiceStatusCancelled}, TriggerSend)
	require.Error(t, err)
	assert.Equal(t, "cannot send an invoice that is cancelled", apperror.GetAppError(err).Message)
}

func TestMarkSent_FromOverdue(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{Status: enum.InvoiceStatusOverdue, DueDate: now.Add(-48 * time.Hour)}

	require.NoError(t, MarkSent(inv, now))
	assert.Equal(t, enum.InvoiceStatusSent, inv.Status)
	require.NotNil(t, inv.SentAt)
	assert.Equal(t, now, *inv.SentAt)
	assert.True(t, IsOverdue(inv, now))

	require.NoError(t, MarkOverdue(inv, now))
	assert.Equal(t, enum.InvoiceStatusOverdue, inv.Status)
}

func TestMarkOverdue(t *testing.T) {
	due := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	inv := &entity.Invoice{Status: enum.InvoiceStatusSent, DueDate: due}
	assert.Error(t, MarkOverdue(inv, due))
	assert.Equal(t, enum.InvoiceStatusSent, inv.Status)

	require.NoError(t, MarkOverdue(inv, due.Add(24*time.Hour)))
	assert.Equal(t, enum.InvoiceStatusOverdue, inv.Status)
}

func TestIsOverdue(t *testing.T) {
	due := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	after := due.AddDate(0, 0, 5)

	tests := []struct {
		name   string
		status enum.InvoiceStatus
		now    time.Time
		want   bool
	}{
		{name: "sent past due", status: enum.InvoiceStatusSent, now: after, want: true},
		{name: "draft past due", status: enum.InvoiceStatusDraft, now: after, want: true},
		{name: "overdue past due", status: enum.InvoiceStatusOverdue, now: after, want: true},
		{name: "paid past due", status: enum.InvoiceStatusPaid, now: after, want: false},
		{name: "cancelled past due", status: enum.InvoiceStatusCancelled, now: after, want: false},
		{name: "sent on due date", status: enum.InvoiceStatusSent, now: due, want: false},
		{name: "sent before due", status: enum.InvoiceStatusSent, now: due.AddDate(0, 0, -1), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &entity.Invoice{Status: tt.status, DueDate: due}
			assert.Equal(t, tt.want, IsOverdue(inv, tt.now))
		})
	}
}

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{Status: enum.InvoiceStatusSent, DueDate: due}

	assert.Equal(t, 0, DaysOverdue(inv, due))
	assert.Equal(t, 5, DaysOverdue(inv, due.AddDate(0, 0, 5).Add(3*time.Hour)))

	inv.Status = enum.InvoiceStatusPaid
	assert.Equal(t, 0, DaysOverdue(inv, due.AddDate(0, 0, 5)))
}
