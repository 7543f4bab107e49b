package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/pkg/apperror"
	"github.com/sangkips/quickbill-api/pkg/email"
	"github.com/sangkips/quickbill-api/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fakePDF = []byte("%PDF-1.3 test")

func TestCreateInvoice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.createInvoice(t, testNow.AddDate(0, 0, 30),
		line("Widget", "3", "19.99", "18"),
		line("Shipping", "1", "5", "0"),
	)
	assert.Equal(t, "INV-000001", first.InvoiceNumber)
	assert.Equal(t, enum.InvoiceStatusDraft, first.Status)
	assertDecimal(t, "64.97", first.Subtotal)
	assertDecimal(t, "10.7946", first.TotalTax)
	assertDecimal(t, "75.7646", first.TotalAmount)

	second := h.createInvoice(t, testNow.AddDate(0, 0, 30))
	assert.Equal(t, "INV-000002", second.InvoiceNumber)

	stored, err := h.invoices.GetInvoice(ctx, h.user.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Babbage Engines", stored.ClientName())
	assert.Len(t, stored.Items, 2)
}

func TestCreateInvoice_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input *CreateInvoiceInput
		field string
	}{
		{
			name: "due before issue",
			input: &CreateInvoiceInput{
				UserID: h.user.ID, ClientID: h.client.ID,
				IssueDate: testNow, DueDate: testNow.AddDate(0, 0, -1),
				Items: []entity.LineItem{line("Design", "1", "1", "0")},
			},
			field: "due_date",
		},
		{
			name: "no items",
			input: &CreateInvoiceInput{
				UserID: h.user.ID, ClientID: h.client.ID,
				IssueDate: testNow, DueDate: testNow,
			},
			field: "items",
		},
		{
			name: "unknown client",
			input: &CreateInvoiceInput{
				UserID: h.user.ID, ClientID: uuid.New(),
				IssueDate: testNow, DueDate: testNow,
				Items: []entity.LineItem{line("Design", "1", "1", "0")},
			},
			field: "client_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.invoices.CreateInvoice(ctx, tt.input)
			require.Error(t, err)
			appErr := apperror.GetAppError(err)
			assert.Equal(t, apperror.TypeValidation, appErr.Type)
			require.NotEmpty(t, appErr.Errors)
			assert.Equal(t, tt.field, appErr.Errors[0].Field)
		})
	}
}

func TestCreateInvoice_OtherUsersClient(t *testing.T) {
	h := newHarness(t)
	foreign := h.otherClient(t)

	_, err := h.invoices.CreateInvoice(context.Background(), &CreateInvoiceInput{
		UserID: h.user.ID, ClientID: foreign.ID,
		IssueDate: testNow, DueDate: testNow.AddDate(0, 0, 30),
		Items: []entity.LineItem{line("Design", "1", "1", "0")},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsType(err, apperror.TypeAuthorization))
	assert.Equal(t, 401, apperror.GetAppError(err).Code)

	inv := h.createInvoice(t, testNow.AddDate(0, 0, 30))
	_, err = h.invoices.UpdateInvoice(context.Background(), inv.ID, &UpdateInvoiceInput{
		UserID:   h.user.ID,
		ClientID: &foreign.ID,
	})
	assert.True(t, apperror.IsType(err, apperror.TypeAuthorization))
}

func TestGetInvoice_OtherUser(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(t, testNow.AddDate(0, 0, 30))

	_, err := h.invoices.GetInvoice(context.Background(), uuid.New(), inv.ID)
	assert.True(t, apperror.IsType(err, apperror.TypeAuthorization))

	_, err = h.invoices.GetInvoice(context.Background(), h.user.ID, uuid.New())
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))
}

func TestUpdateInvoice_RecomputesTotals(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.createInvoice(t, testNow.AddDate(0, 0, 30))

	notes := "Net 30"
	updated, err := h.invoices.UpdateInvoice(ctx, inv.ID, &UpdateInvoiceInput{
		UserID: h.user.ID,
		Items:  []entity.LineItem{line("Consulting hours", "1.5", "80", "7.5")},
		Notes:  &notes,
	})
	require.NoError(t, err)
	assertDecimal(t, "129", updated.TotalAmount)
	assert.Equal(t, 2, updated.Version)

	stored, err := h.invoices.GetInvoice(ctx, h.user.ID, inv.ID)
	require.NoError(t, err)
	assertDecimal(t, "120", stored.Subtotal)
	assertDecimal(t, "9", stored.TotalTax)
	assertDecimal(t, "129", stored.TotalAmount)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Net 30", *stored.Notes)

	stale := 1
	_, err = h.invoices.UpdateInvoice(ctx, inv.ID, &UpdateInvoiceInput{UserID: h.user.ID, Version: &stale})
	assert.True(t, apperror.IsType(err, apperror.TypeConflict))
}

func TestUpdateInvoice_PaidIsFrozen(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.createInvoice(t, testNow.AddDate(0, 0, 30))

	_, err := h.invoices.MarkPaid(ctx, h.user.ID, inv.ID)
	require.NoError(t, err)

	_, err = h.invoices.UpdateInvoice(ctx, inv.ID, &UpdateInvoiceInput{
		UserID: h.user.ID,
		Items:  []entity.LineItem{line("Design", "1", "1", "0")},
	})
	assert.True(t, apperror.IsType(err, apperror.TypeTransition))

	stored, err := h.invoices.GetInvoice(ctx, h.user.ID, inv.ID)
	require.NoError(t, err)
	assertDecimal(t, "110", stored.TotalAmount)
}

func TestSendInvoice_Success(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.createInvoice(t, testNow.AddDate(0, 0, 30))

	h.renderer.On("Render", mock.MatchedBy(func(doc *entity.InvoiceDocument) bool {
		return doc.InvoiceNumber == inv.InvoiceNumber && doc.Header.Name == "Lovelace Analytics"
	})).Return(fakePDF, nil).Once()
	h.sender.On("Send", mock.Anything, mock.MatchedBy(func(msg *email.Message) bool {
		return msg.To == "accounts@babbage.test" &&
			len(msg.Attachments) == 1 &&
			msg.Attachments[0].Filename == "INV-000001.pdf"
	})).Return(nil).Once()

	sent, err := h.invoices.SendInvoice(ctx, &SendInvoiceInput{UserID: h.user.ID, InvoiceID: inv.ID})
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)
	assert.Equal(t, testNow, *sent.SentAt)

	stored, err := h.invoices.GetInvoice(ctx, h.user.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusSent, stored.Status)
	assert.Len(t, stored.Items, 1)

	h.renderer.AssertExpectations(t)
	h.sender.AssertExpectations(t)
}

func TestSendInvoice_RecipientOverride(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(t, testNow.AddDate(0, 0, 30))

	h.renderer.On("Render", mock.Anything).Return(fakePDF, nil)
	h.sender.On("Send", mock.Anything, mock.MatchedBy(func(msg *email.Message) bool {
		return msg.To == "ap@elsewhere.test"
	})).Return(nil).Once()

	_, err := h.invoices.SendInvoice(context.Background(), &SendInvoiceInput{
		UserID:         h.user.ID,
		InvoiceID:      inv.ID,
		RecipientEmail: " ap@elsewhere.test ",
	})
	require.NoError(t, err)
	h.sender.AssertExpectations(t)
}

func TestSendInvoice_DispatchFailureLeavesStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.createInvoice(t, testNow.AddDate(0, 0, 30))

	h.renderer.On("Render", mock.Anything).Return(fakePDF, nil)
	h.sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

	_, err := h.invoices.SendInvoice(ctx, &SendInvoiceInput{UserID: h.user.ID, InvoiceID: inv.ID})
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, apperror.TypeDispatch, appErr.Type)
	assert.Equal(t, 502, appErr.Code)

	stored, err := h.invoices.GetInvoice(ctx, h.user.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusDraft, stored.Status)
	assert.Nil(t, stored.SentAt)
	assert.Equal(t, 1, stored.Version)
}

func TestSendInvoice_Timeout(t *testing.T) {
	h := newHarness(t)
	h.invoices.timeout = 10 * time.Millisecond
	inv := h.createInvoice(t, testNow.AddDate(0, 0, 30))

	h.renderer.On("Render", mock.Anything).Return(fakePDF, nil)
	h.sender.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(context.DeadlineExceeded).Once()

	_, err := h.invoices.SendInvoice(context.Background(), &SendInvoiceInput{UserID: h.user.ID, InvoiceID: inv.ID})
	require.Error(t, err)
	assert.True(t, apperror.IsType(err, apperror.TypeDispatch))
	assert.Contains(t, apperror.GetAppError(err).Message, "timed out")
}

func TestSendInvoice_CancelledSendsNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.createInvoice(t, testNow.AddDate(0, 0, 30))

	_, err := h.invoices.CancelInvoice(ctx, h.user.ID, inv.ID)
	require.NoError(t, err)

	_, err = h.invoices.SendInvoice(ctx, &SendInvoiceInput{UserID: h.user.ID, InvoiceID: inv.ID})
	assert.True(t, apperror.IsType(err, apperror.TypeTransition))
	h.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	h.renderer.AssertNotCalled(t, "Render", mock.Anything)
}

func TestMarkPaid_Twice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.createInvoice(t, testNow.AddDate(0, 0, 30))

	paid, err := h.invoices.MarkPaid(ctx, h.user.ID, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)
	firstPaidAt := *paid.PaidAt

	again, err := h.invoices.MarkPaid(ctx, h.user.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPaid, again.Status)
	assert.True(t, firstPaidAt.Equal(*again.PaidAt))

	_, err = h.invoices.CancelInvoice(ctx, h.user.ID, inv.ID)
	assert.True(t, apperror.IsType(err, apperror.TypeTransition))
}

func TestDeleteInvoice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	draft := h.createInvoice(t, testNow.AddDate(0, 0, 30))
	require.NoError(t, h.invoices.DeleteInvoice(ctx, h.user.ID, draft.ID))
	_, err := h.invoices.GetInvoice(ctx, h.user.ID, draft.ID)
	assert.True(t, apperror.IsType(err, apperror.TypeNotFound))

	paid := h.createInvoice(t, testNow.AddDate(0, 0, 30))
	_, err = h.invoices.MarkPaid(ctx, h.user.ID, paid.ID)
	require.NoError(t, err)
	err = h.invoices.DeleteInvoice(ctx, h.user.ID, paid.ID)
	assert.True(t, apperror.IsType(err, apperror.TypeTransition))

	next := h.createInvoice(t, testNow.AddDate(0, 0, 30))
	assert.Equal(t, "INV-000003", next.InvoiceNumber)
}

func TestSweepOverdue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.renderer.On("Render", mock.Anything).Return(fakePDF, nil)
	h.sender.On("Send", mock.Anything, mock.Anything).Return(nil)

	pastDue := h.createInvoice(t, testNow.AddDate(0, 0, -5))
	_, err := h.invoices.SendInvoice(ctx, &SendInvoiceInput{UserID: h.user.ID, InvoiceID: pastDue.ID})
	require.NoError(t, err)

	notDue := h.createInvoice(t, testNow.AddDate(0, 0, 5))
	_, err = h.invoices.SendInvoice(ctx, &SendInvoiceInput{UserID: h.user.ID, InvoiceID: notDue.ID})
	require.NoError(t, err)

	draft := h.createInvoice(t, testNow.AddDate(0, 0, -5))

	result, err := h.invoices.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)

	stored, err := h.invoices.GetInvoice(ctx, h.user.ID, pastDue.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusOverdue, stored.Status)
	assert.Len(t, stored.Items, 1)

	stored, err = h.invoices.GetInvoice(ctx, h.user.ID, notDue.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusSent, stored.Status)

	stored, err = h.invoices.GetInvoice(ctx, h.user.ID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusDraft, stored.Status)

	result, err = h.invoices.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Marked)

	resent, err := h.invoices.SendInvoice(ctx, &SendInvoiceInput{UserID: h.user.ID, InvoiceID: pastDue.ID})
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusSent, resent.Status)

	result, err = h.invoices.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)
}

func TestSendReminder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	inv := h.createInvoice(t, testNow.AddDate(0, 0, -5))

	_, err := h.invoices.SendReminder(ctx, &RemindInput{UserID: h.user.ID, InvoiceID: inv.ID})
	assert.True(t, apperror.IsType(err, apperror.TypeTransition), "drafts are not reminded")

	h.renderer.On("Render", mock.Anything).Return(fakePDF, nil)
	h.sender.On("Send", mock.Anything, mock.MatchedBy(func(msg *email.Message) bool {
		return msg.Subject != "" && len(msg.Attachments) == 1
	})).Return(nil)

	_, err = h.invoices.SendInvoice(ctx, &SendInvoiceInput{UserID: h.user.ID, InvoiceID: inv.ID})
	require.NoError(t, err)

	reminded, err := h.invoices.SendReminder(ctx, &RemindInput{UserID: h.user.ID, InvoiceID: inv.ID})
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusSent, reminded.Status)

	last := h.sender.Calls[len(h.sender.Calls)-1].Arguments.Get(1).(*email.Message)
	assert.Contains(t, last.Subject, "5 days overdue")
}

func TestRenderPDF(t *testing.T) {
	h := newHarness(t)
	inv := h.createInvoice(t, testNow.AddDate(0, 0, 30))

	h.renderer.On("Render", mock.MatchedBy(func(doc *entity.InvoiceDocument) bool {
		return doc.TotalAmount.StringFixed(2) == "110.00"
	})).Return(fakePDF, nil).Once()

	data, name, err := h.invoices.RenderPDF(context.Background(), h.user.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, fakePDF, data)
	assert.Equal(t, "INV-000001.pdf", name)
}

func TestListInvoices_OverdueOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.createInvoice(t, testNow.AddDate(0, 0, -3))
	h.createInvoice(t, testNow.AddDate(0, 0, 3))

	params := pagination.DefaultPagination()
	all, err := h.invoices.ListInvoices(ctx, &ListInvoicesInput{UserID: h.user.ID, Pagination: params})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, int64(2), all.Pagination.Total)

	overdue, err := h.invoices.ListInvoices(ctx, &ListInvoicesInput{UserID: h.user.ID, Pagination: params, OverdueOnly: true})
	require.NoError(t, err)
	assert.Len(t, overdue.Items, 1)
}
