package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEstimateTotals(t *testing.T) {
	tests := []struct {
		name         string
		items        []entity.LineItem
		discount     string
		wantSubtotal string
		wantDiscount string
		wantTax      string
		wantTotal    string
	}{
		{
			name:         "no discount matches invoice totals",
			items:        []entity.LineItem{line("Design", "2", "50", "10")},
			discount:     "0",
			wantSubtotal: "100",
			wantDiscount: "0",
			wantTax:      "10",
			wantTotal:    "110",
		},
		{
			name:         "tax on discounted base",
			items:        []entity.LineItem{line("Design", "2", "50", "10")},
			discount:     "10",
			wantSubtotal: "100",
			wantDiscount: "10",
			wantTax:      "9",
			wantTotal:    "99",
		},
		{
			name:         "full discount",
			items:        []entity.LineItem{line("Design", "2", "50", "10")},
			discount:     "100",
			wantSubtotal: "100",
			wantDiscount: "100",
			wantTax:      "0",
			wantTotal:    "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeEstimateTotals(tt.items, decimal.RequireFromString(tt.discount))
			assertDecimal(t, tt.wantSubtotal, got.Subtotal)
			assertDecimal(t, tt.wantDiscount, got.DiscountAmount)
			assertDecimal(t, tt.wantTax, got.TotalTax)
			assertDecimal(t, tt.wantTotal, got.TotalAmount)
		})
	}
}

func TestRecomputeEstimate(t *testing.T) {
	est := &entity.Estimate{Status: enum.EstimateStatusDraft}

	require.NoError(t, RecomputeEstimate(est, []entity.LineItem{line("Design", "2", "50", "10")}, decimal.NewFromInt(10)))
	assertDecimal(t, "99", est.TotalAmount)
	assertDecimal(t, "10", est.DiscountRate)

	err := RecomputeEstimate(est, []entity.LineItem{line("Design", "2", "50", "10")}, decimal.NewFromInt(120))
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))
	assertDecimal(t, "99", est.TotalAmount)

	est.Status = enum.EstimateStatusAccepted
	err = RecomputeEstimate(est, []entity.LineItem{line("Design", "1", "50", "10")}, decimal.Zero)
	assert.True(t, apperror.IsType(err, apperror.TypeTransition))
}

func TestEstimateTotalsOf_Rounded(t *testing.T) {
	est := &entity.Estimate{Status: enum.EstimateStatusDraft}
	require.NoError(t, RecomputeEstimate(est, []entity.LineItem{line("Widget", "3", "19.99", "18")}, decimal.RequireFromString("12.5")))

	display := EstimateTotalsOf(est).Rounded()
	assertDecimal(t, "59.97", display.Subtotal)
	assertDecimal(t, "7.50", display.DiscountAmount)
	assertDecimal(t, "9.45", display.TotalTax)
	assertDecimal(t, "61.92", display.TotalAmount)
	assert.True(t, EstimateTotalsOf(est).TotalAmount.Equal(est.TotalAmount))
}

func TestEstimateTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    enum.EstimateStatus
		trigger Trigger
		want    enum.EstimateStatus
		wantErr bool
	}{
		{name: "draft send", from: enum.EstimateStatusDraft, trigger: TriggerSend, want: enum.EstimateStatusSent},
		{name: "draft accept", from: enum.EstimateStatusDraft, trigger: TriggerAccept, wantErr: true},
		{name: "sent resend", from: enum.EstimateStatusSent, trigger: TriggerSend, want: enum.EstimateStatusSent},
		{name: "sent accept", from: enum.EstimateStatusSent, trigger: TriggerAccept, want: enum.EstimateStatusAccepted},
		{name: "sent reject", from: enum.EstimateStatusSent, trigger: TriggerReject, want: enum.EstimateStatusRejected},
		{name: "accepted reject", from: enum.EstimateStatusAccepted, trigger: TriggerReject, wantErr: true},
		{name: "rejected accept", from: enum.EstimateStatusRejected, trigger: TriggerAccept, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := &entity.Estimate{Status: tt.from}
			err := FireEstimate(est, tt.trigger)
			assert.Equal(t, !tt.wantErr, CanFireEstimate(tt.from, tt.trigger))
			if tt.wantErr {
				assert.True(t, apperror.IsType(err, apperror.TypeTransition))
				assert.Equal(t, tt.from, est.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, est.Status)
		})
	}
}

func TestConvertToInvoice(t *testing.T) {
	issue := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	due := issue.AddDate(0, 0, 30)
	notes := "Thanks for your business"

	est := &entity.Estimate{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		ClientID: uuid.New(),
		Status:   enum.EstimateStatusDraft,
		Notes:    &notes,
	}
	require.NoError(t, RecomputeEstimate(est, []entity.LineItem{
		line("Widget", "3", "19.99", "18"),
		line("Shipping", "1", "5", "0"),
	}, decimal.RequireFromString("12.5")))

	_, err := ConvertToInvoice(est, "INV-000001", issue, due)
	assert.True(t, apperror.IsType(err, apperror.TypeTransition))

	require.NoError(t, FireEstimate(est, TriggerSend))
	require.NoError(t, FireEstimate(est, TriggerAccept))

	inv, err := ConvertToInvoice(est, "INV-000001", issue, due)
	require.NoError(t, err)

	assert.Equal(t, enum.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, est.UserID, inv.UserID)
	assert.Equal(t, est.ClientID, inv.ClientID)
	require.NotNil(t, inv.EstimateID)
	assert.Equal(t, est.ID, *inv.EstimateID)
	require.NotNil(t, est.InvoiceID)
	assert.Equal(t, inv.ID, *est.InvoiceID)
	assert.Len(t, inv.Items, 2)

	assert.True(t, inv.Subtotal.Equal(est.Subtotal.Sub(est.DiscountAmount)))
	assert.True(t, inv.TotalTax.Equal(est.TotalTax))
	assert.True(t, inv.TotalAmount.Equal(est.TotalAmount))

	_, err = ConvertToInvoice(est, "INV-000002", issue, due)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyConverted)
}
