package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/pkg/apperror"
	"github.com/sangkips/quickbill-api/pkg/email"
	"github.com/sangkips/quickbill-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (h *harness) createEstimate(t *testing.T, discount string) *entity.Estimate {
	t.Helper()
	est, err := h.estimates.CreateEstimate(context.Background(), &CreateEstimateInput{
		UserID:       h.user.ID,
		ClientID:     h.client.ID,
		IssueDate:    testNow,
		ValidUntil:   testNow.AddDate(0, 0, 14),
		Items:        []entity.LineItem{line("Design", "2", "50", "10")},
		DiscountRate: decimal.RequireFromString(discount),
	})
	require.NoError(t, err)
	return est
}

func TestCreateEstimate(t *testing.T) {
	h := newHarness(t)

	est := h.createEstimate(t, "10")
	assert.Equal(t, "EST-000001", est.EstimateNumber)
	assert.Equal(t, enum.EstimateStatusDraft, est.Status)
	assertDecimal(t, "10", est.DiscountAmount)
	assertDecimal(t, "99", est.TotalAmount)

	_, err := h.estimates.CreateEstimate(context.Background(), &CreateEstimateInput{
		UserID:       h.user.ID,
		ClientID:     h.client.ID,
		IssueDate:    testNow,
		ValidUntil:   testNow.AddDate(0, 0, -1),
		Items:        []entity.LineItem{line("Design", "1", "1", "0")},
		DiscountRate: decimal.Zero,
	})
	assert.True(t, apperror.IsType(err, apperror.TypeValidation))
}

func TestEstimateLifecycle_ConvertOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	est := h.createEstimate(t, "10")

	h.sender.On("Send", mock.Anything, mock.MatchedBy(func(msg *email.Message) bool {
		return msg.To == "accounts@babbage.test" && msg.ReplyTo == "ada@example.test"
	})).Return(nil).Once()

	sent, err := h.estimates.SendEstimate(ctx, &SendEstimateInput{UserID: h.user.ID, EstimateID: est.ID})
	require.NoError(t, err)
	assert.Equal(t, enum.EstimateStatusSent, sent.Status)

	_, err = h.estimates.ConvertEstimate(ctx, &ConvertEstimateInput{UserID: h.user.ID, EstimateID: est.ID})
	assert.True(t, apperror.IsType(err, apperror.TypeTransition), "only accepted estimates convert")

	accepted, err := h.estimates.AcceptEstimate(ctx, h.user.ID, est.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.EstimateStatusAccepted, accepted.Status)

	inv, err := h.estimates.ConvertEstimate(ctx, &ConvertEstimateInput{UserID: h.user.ID, EstimateID: est.ID})
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", inv.InvoiceNumber)
	assert.Equal(t, enum.InvoiceStatusDraft, inv.Status)
	assertDecimal(t, "99", inv.TotalAmount)
	assertDecimal(t, "90", inv.Subtotal)
	assertDecimal(t, "9", inv.TotalTax)

	stored, err := h.invoices.GetInvoice(ctx, h.user.ID, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EstimateID)
	assert.Equal(t, est.ID, *stored.EstimateID)
	assert.Len(t, stored.Items, 1)

	reloaded, err := h.estimates.GetEstimate(ctx, h.user.ID, est.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.InvoiceID)
	assert.Equal(t, inv.ID, *reloaded.InvoiceID)
	assert.Len(t, reloaded.Items, 1)

	_, err = h.estimates.ConvertEstimate(ctx, &ConvertEstimateInput{UserID: h.user.ID, EstimateID: est.ID})
	assert.True(t, apperror.IsType(err, apperror.TypeTransition))

	err = h.estimates.DeleteEstimate(ctx, h.user.ID, est.ID)
	assert.True(t, apperror.IsType(err, apperror.TypeTransition))
}

func TestSendEstimate_DispatchFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	est := h.createEstimate(t, "0")

	h.sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp: 550 mailbox unavailable")).Once()

	_, err := h.estimates.SendEstimate(ctx, &SendEstimateInput{UserID: h.user.ID, EstimateID: est.ID})
	assert.True(t, apperror.IsType(err, apperror.TypeDispatch))

	stored, err := h.estimates.GetEstimate(ctx, h.user.ID, est.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.EstimateStatusDraft, stored.Status)
}

func TestRejectEstimate_FromDraftFails(t *testing.T) {
	h := newHarness(t)
	est := h.createEstimate(t, "0")

	_, err := h.estimates.RejectEstimate(context.Background(), h.user.ID, est.ID)
	assert.True(t, apperror.IsType(err, apperror.TypeTransition))
}

func TestUpdateEstimate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	est := h.createEstimate(t, "0")

	discount := decimal.NewFromInt(50)
	updated, err := h.estimates.UpdateEstimate(ctx, est.ID, &UpdateEstimateInput{
		UserID:       h.user.ID,
		DiscountRate: &discount,
	})
	require.NoError(t, err)
	assertDecimal(t, "55", updated.TotalAmount)

	list, err := h.estimates.ListEstimates(ctx, &ListEstimatesInput{UserID: h.user.ID, Pagination: pagination.DefaultPagination()})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assertDecimal(t, "55", list.Items[0].TotalAmount)
}

func TestCreateEstimate_OtherUsersClient(t *testing.T) {
	h := newHarness(t)
	foreign := h.otherClient(t)

	_, err := h.estimates.CreateEstimate(context.Background(), &CreateEstimateInput{
		UserID:       h.user.ID,
		ClientID:     foreign.ID,
		IssueDate:    testNow,
		ValidUntil:   testNow.AddDate(0, 0, 14),
		Items:        []entity.LineItem{line("Design", "1", "1", "0")},
		DiscountRate: decimal.Zero,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsType(err, apperror.TypeAuthorization))
}
