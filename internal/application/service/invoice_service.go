package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/internal/domain/ledger"
	"github.com/sangkips/quickbill-api/internal/domain/repository"
	"github.com/sangkips/quickbill-api/pkg/apperror"
	"github.com/sangkips/quickbill-api/pkg/email"
	"github.com/sangkips/quickbill-api/pkg/pagination"
	"github.com/sangkips/quickbill-api/pkg/pdf"
	"github.com/sangkips/quickbill-api/pkg/utils"
)

const (
	numberAttempts         = 3
	defaultDispatchTimeout = 30 * time.Second
	defaultSweepBatch      = 500
)

// InvoiceService handles invoice-related operations
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	userRepo    repository.UserRepository
	sender      email.Sender
	renderer    pdf.Renderer
	timeout     time.Duration
	sweepBatch  int
	now         func() time.Time
}

// InvoiceServiceOption customises an InvoiceService
type InvoiceServiceOption func(*InvoiceService)

// WithDispatchTimeout bounds PDF rendering plus email delivery
func WithDispatchTimeout(d time.Duration) InvoiceServiceOption {
	return func(s *InvoiceService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithSweepBatch caps how many invoices one overdue sweep loads
func WithSweepBatch(n int) InvoiceServiceOption {
	return func(s *InvoiceService) {
		if n > 0 {
			s.sweepBatch = n
		}
	}
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.now = now
	}
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	userRepo repository.UserRepository,
	sender email.Sender,
	renderer pdf.Renderer,
	opts ...InvoiceServiceOption,
) *InvoiceService {
	s := &InvoiceService{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		userRepo:    userRepo,
		sender:      sender,
		renderer:    renderer,
		timeout:     defaultDispatchTimeout,
		sweepBatch:  defaultSweepBatch,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInvoiceInput represents the input for creating an invoice
type CreateInvoiceInput struct {
	UserID       uuid.UUID
	ClientID     uuid.UUID
	IssueDate    time.Time
	DueDate      time.Time
	Items        []entity.LineItem
	Notes        *string
	PaymentTerms *string
}

// CreateInvoice creates a draft invoice with computed totals and the next free number
func (s *InvoiceService) CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*entity.Invoice, error) {
	if err := ledger.ValidateSchedule(input.IssueDate, input.DueDate); err != nil {
		return nil, err
	}

	client, err := s.ownedClient(ctx, input.UserID, input.ClientID)
	if err != nil {
		return nil, err
	}

	invoice := &entity.Invoice{
		ID:           uuid.New(),
		UserID:       input.UserID,
		ClientID:     client.ID,
		IssueDate:    input.IssueDate,
		DueDate:      input.DueDate,
		Status:       enum.InvoiceStatusDraft,
		Notes:        input.Notes,
		PaymentTerms: input.PaymentTerms,
		Version:      1,
	}
	if err := ledger.RecomputeOnEdit(invoice, input.Items); err != nil {
		return nil, err
	}

	if err := s.createNumbered(ctx, invoice); err != nil {
		return nil, err
	}

	invoice.Client = client
	return invoice, nil
}

// createNumbered assigns the next invoice number and inserts, retrying when a concurrent
// request took the same number
func (s *InvoiceService) createNumbered(ctx context.Context, invoice *entity.Invoice) error {
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		var seq int
		seq, err = s.invoiceRepo.NextNumber(ctx, invoice.UserID)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = utils.DocumentNumber(utils.InvoicePrefix, seq)

		err = s.invoiceRepo.Create(ctx, invoice)
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}
	return translateRepoError(err, "Invoice number")
}

// GetInvoice retrieves an invoice owned by userID
func (s *InvoiceService) GetInvoice(ctx context.Context, userID, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if err := checkOwner(invoice.UserID, userID, "invoice"); err != nil {
		return nil, err
	}
	return invoice, nil
}

// ListInvoicesInput represents the input for listing invoices
type ListInvoicesInput struct {
	UserID      uuid.UUID
	Pagination  *pagination.PaginationParams
	Search      string
	Status      *enum.InvoiceStatus
	ClientID    *uuid.UUID
	StartDate   *time.Time
	EndDate     *time.Time
	OverdueOnly bool
	SortBy      string
	SortOrder   string
}

// ListInvoices lists the user's invoices
func (s *InvoiceService) ListInvoices(ctx context.Context, input *ListInvoicesInput) (*pagination.PaginatedResult[entity.Invoice], error) {
	params := &repository.InvoiceFilterParams{
		Pagination: input.Pagination,
		Search:     input.Search,
		Status:     input.Status,
		ClientID:   input.ClientID,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		SortBy:     input.SortBy,
		SortOrder:  input.SortOrder,
	}
	if input.OverdueOnly {
		now := s.now()
		params.OverdueAt = &now
	}

	invoices, total, err := s.invoiceRepo.List(ctx, input.UserID, params)
	if err != nil {
		return nil, err
	}

	return pagination.NewPaginatedResult(invoices, pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)), nil
}

// UpdateInvoiceInput represents the input for editing an invoice.
// Nil fields are left unchanged. Status is never editable here.
type UpdateInvoiceInput struct {
	UserID       uuid.UUID
	ClientID     *uuid.UUID
	IssueDate    *time.Time
	DueDate      *time.Time
	Items        []entity.LineItem
	Notes        *string
	PaymentTerms *string
	// Version, when set, must match the stored version
	Version *int
}

// UpdateInvoice edits a draft, sent or overdue invoice and recomputes its totals
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id uuid.UUID, input *UpdateInvoiceInput) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, input.UserID, id)
	if err != nil {
		return nil, err
	}
	if input.Version != nil && *input.Version != invoice.Version {
		return nil, translateRepoError(repository.ErrVersionConflict, "Invoice")
	}

	items := input.Items
	if items == nil {
		items = invoice.LineItems()
	}
	if err := ledger.RecomputeOnEdit(invoice, items); err != nil {
		return nil, err
	}

	if input.ClientID != nil && *input.ClientID != invoice.ClientID {
		client, err := s.ownedClient(ctx, input.UserID, *input.ClientID)
		if err != nil {
			return nil, err
		}
		invoice.ClientID = client.ID
		invoice.Client = client
	}
	if input.IssueDate != nil {
		invoice.IssueDate = *input.IssueDate
	}
	if input.DueDate != nil {
		invoice.DueDate = *input.DueDate
	}
	if err := ledger.ValidateSchedule(invoice.IssueDate, invoice.DueDate); err != nil {
		return nil, err
	}
	if input.Notes != nil {
		invoice.Notes = input.Notes
	}
	if input.PaymentTerms != nil {
		invoice.PaymentTerms = input.PaymentTerms
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, translateRepoError(err, "Invoice")
	}

	return invoice, nil
}

// DeleteInvoice removes a draft or cancelled invoice. Issued invoices must be cancelled first.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, userID, id uuid.UUID) error {
	invoice, err := s.GetInvoice(ctx, userID, id)
	if err != nil {
		return err
	}
	if invoice.Status != enum.InvoiceStatusDraft && invoice.Status != enum.InvoiceStatusCancelled {
		return apperror.NewTransitionError(
			fmt.Sprintf("cannot delete an invoice that is %s", invoice.Status),
			ledger.ErrInvalidTransition,
		)
	}
	return s.invoiceRepo.Delete(ctx, id)
}

// SendInvoiceInput represents the input for emailing an invoice
type SendInvoiceInput struct {
	UserID         uuid.UUID
	InvoiceID      uuid.UUID
	RecipientEmail string
}

// SendInvoice emails the invoice PDF to the client and marks it sent once delivery is confirmed.
// When delivery fails the status is left unchanged and a DispatchError is returned.
func (s *InvoiceService) SendInvoice(ctx context.Context, input *SendInvoiceInput) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, input.UserID, input.InvoiceID)
	if err != nil {
		return nil, err
	}
	if err := ledger.CheckTransition(invoice, ledger.TriggerSend); err != nil {
		return nil, err
	}

	recipient, err := s.recipient(invoice, input.RecipientEmail)
	if err != nil {
		return nil, err
	}

	doc, err := s.document(ctx, invoice)
	if err != nil {
		return nil, err
	}

	err = s.dispatch(ctx, doc, func(pdfBytes []byte) (*email.Message, error) {
		return email.NewInvoiceMessage(doc, recipient, pdfBytes)
	})
	if err != nil {
		return nil, err
	}

	if err := ledger.MarkSent(invoice, s.now()); err != nil {
		return nil, err
	}
	if err := s.saveHeader(ctx, invoice); err != nil {
		log.Printf("invoice %s emailed to %s but status save failed: %v", invoice.InvoiceNumber, recipient, err)
		return nil, apperror.NewInternalError("Invoice email was sent but its status could not be saved", err)
	}

	return invoice, nil
}

// RemindInput represents the input for a payment reminder
type RemindInput struct {
	UserID         uuid.UUID
	InvoiceID      uuid.UUID
	RecipientEmail string
}

// SendReminder emails a payment reminder for a past-due sent or overdue invoice.
// The status is not changed.
func (s *InvoiceService) SendReminder(ctx context.Context, input *RemindInput) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, input.UserID, input.InvoiceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if invoice.Status != enum.InvoiceStatusSent && invoice.Status != enum.InvoiceStatusOverdue {
		return nil, apperror.NewTransitionError(
			fmt.Sprintf("cannot remind about an invoice that is %s", invoice.Status),
			ledger.ErrInvalidTransition,
		)
	}
	if !ledger.IsOverdue(invoice, now) {
		return nil, apperror.NewTransitionError("invoice is not past its due date", ledger.ErrInvalidTransition)
	}

	recipient, err := s.recipient(invoice, input.RecipientEmail)
	if err != nil {
		return nil, err
	}

	doc, err := s.document(ctx, invoice)
	if err != nil {
		return nil, err
	}

	days := ledger.DaysOverdue(invoice, now)
	err = s.dispatch(ctx, doc, func(pdfBytes []byte) (*email.Message, error) {
		return email.NewReminderMessage(doc, recipient, days, pdfBytes)
	})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

// RenderPDF returns the invoice PDF and its file name
func (s *InvoiceService) RenderPDF(ctx context.Context, userID, id uuid.UUID) ([]byte, string, error) {
	invoice, err := s.GetInvoice(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}

	doc, err := s.document(ctx, invoice)
	if err != nil {
		return nil, "", err
	}

	data, err := s.renderer.Render(doc)
	if err != nil {
		return nil, "", apperror.NewInternalError("Failed to render invoice PDF", err)
	}

	return data, invoice.InvoiceNumber + ".pdf", nil
}

// MarkPaid records payment. Paying a paid invoice is a no-op.
func (s *InvoiceService) MarkPaid(ctx context.Context, userID, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == enum.InvoiceStatusPaid {
		return invoice, nil
	}

	if err := ledger.MarkPaid(invoice, s.now()); err != nil {
		return nil, err
	}
	if err := s.saveHeader(ctx, invoice); err != nil {
		return nil, translateRepoError(err, "Invoice")
	}

	return invoice, nil
}

// CancelInvoice voids a draft or sent invoice
func (s *InvoiceService) CancelInvoice(ctx context.Context, userID, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := ledger.Cancel(invoice); err != nil {
		return nil, err
	}
	if err := s.saveHeader(ctx, invoice); err != nil {
		return nil, translateRepoError(err, "Invoice")
	}

	return invoice, nil
}

// SweepResult summarises one overdue sweep
type SweepResult struct {
	Scanned int `json:"scanned"`
	Marked  int `json:"marked"`
	Skipped int `json:"skipped"`
}

// SweepOverdue persists the overdue status of sent invoices past their due date.
// Rows that lost a version race are skipped and picked up by the next sweep.
func (s *InvoiceService) SweepOverdue(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	invoices, err := s.invoiceRepo.ListPastDue(ctx, now, s.sweepBatch)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Scanned: len(invoices)}
	for i := range invoices {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		invoice := &invoices[i]
		if err := ledger.MarkOverdue(invoice, now); err != nil {
			result.Skipped++
			continue
		}
		if err := s.saveHeader(ctx, invoice); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				result.Skipped++
				continue
			}
			return result, err
		}
		result.Marked++
	}

	log.Printf("overdue sweep: scanned=%d marked=%d skipped=%d", result.Scanned, result.Marked, result.Skipped)
	return result, nil
}

// saveHeader persists a status change without rewriting the stored items
func (s *InvoiceService) saveHeader(ctx context.Context, invoice *entity.Invoice) error {
	items := invoice.Items
	invoice.Items = nil
	err := s.invoiceRepo.Save(ctx, invoice)
	invoice.Items = items
	return err
}

// dispatch renders the PDF and sends the message built from it, bounded by the dispatch timeout
func (s *InvoiceService) dispatch(ctx context.Context, doc *entity.InvoiceDocument, build func(pdf []byte) (*email.Message, error)) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pdfBytes, err := s.renderer.Render(doc)
	if err != nil {
		return apperror.NewInternalError("Failed to render invoice PDF", err)
	}

	msg, err := build(pdfBytes)
	if err != nil {
		return apperror.NewInternalError("Failed to build invoice email", err)
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apperror.NewDispatchError("Email delivery timed out; the invoice was not sent", err)
		}
		return apperror.NewDispatchError("Email delivery failed; the invoice was not sent", err)
	}
	return nil
}

// document builds the printable view from the stored invoice, its issuer and its client
func (s *InvoiceService) document(ctx context.Context, invoice *entity.Invoice) (*entity.InvoiceDocument, error) {
	issuer, err := s.userRepo.GetByID(ctx, invoice.UserID)
	if err != nil {
		return nil, err
	}
	return entity.NewInvoiceDocument(invoice, issuer), nil
}

func (s *InvoiceService) recipient(invoice *entity.Invoice, override string) (string, error) {
	if to := strings.TrimSpace(override); to != "" {
		return to, nil
	}
	if invoice.Client != nil && invoice.Client.ID == invoice.ClientID && invoice.Client.Email != "" {
		return invoice.Client.Email, nil
	}
	return "", apperror.NewFieldError("recipient_email", "recipient email is required when the client has no email")
}

func (s *InvoiceService) ownedClient(ctx context.Context, userID, clientID uuid.UUID) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, apperror.NewFieldError("client_id", "client not found")
	}
	if err := checkOwner(client.UserID, userID, "client"); err != nil {
		return nil, err
	}
	return client, nil
}
