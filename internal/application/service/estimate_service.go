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
	"github.com/sangkips/quickbill-api/pkg/utils"
	"github.com/shopspring/decimal"
)

const defaultPaymentDays = 30

// EstimateService handles estimate-related operations
type EstimateService struct {
	estimateRepo repository.EstimateRepository
	invoiceRepo  repository.InvoiceRepository
	clientRepo   repository.ClientRepository
	userRepo     repository.UserRepository
	sender       email.Sender
	timeout      time.Duration
	now          func() time.Time
}

// NewEstimateService creates a new estimate service
func NewEstimateService(
	estimateRepo repository.EstimateRepository,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	userRepo repository.UserRepository,
	sender email.Sender,
	timeout time.Duration,
) *EstimateService {
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &EstimateService{
		estimateRepo: estimateRepo,
		invoiceRepo:  invoiceRepo,
		clientRepo:   clientRepo,
		userRepo:     userRepo,
		sender:       sender,
		timeout:      timeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateEstimateInput represents the input for creating an estimate
type CreateEstimateInput struct {
	UserID       uuid.UUID
	ClientID     uuid.UUID
	IssueDate    time.Time
	ValidUntil   time.Time
	Items        []entity.LineItem
	DiscountRate decimal.Decimal
	Notes        *string
}

// CreateEstimate creates a draft estimate
func (s *EstimateService) CreateEstimate(ctx context.Context, input *CreateEstimateInput) (*entity.Estimate, error) {
	if err := validateValidity(input.IssueDate, input.ValidUntil); err != nil {
		return nil, err
	}

	client, err := s.ownedClient(ctx, input.UserID, input.ClientID)
	if err != nil {
		return nil, err
	}

	estimate := &entity.Estimate{
		ID:         uuid.New(),
		UserID:     input.UserID,
		ClientID:   client.ID,
		IssueDate:  input.IssueDate,
		ValidUntil: input.ValidUntil,
		Status:     enum.EstimateStatusDraft,
		Notes:      input.Notes,
		Version:    1,
	}
	if err := ledger.RecomputeEstimate(estimate, input.Items, input.DiscountRate); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		seq, err := s.estimateRepo.NextNumber(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		estimate.EstimateNumber = utils.DocumentNumber(utils.EstimatePrefix, seq)

		err = s.estimateRepo.Create(ctx, estimate)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt == numberAttempts-1 {
			return nil, translateRepoError(err, "Estimate number")
		}
	}

	estimate.Client = client
	return estimate, nil
}

// GetEstimate retrieves an estimate owned by userID
func (s *EstimateService) GetEstimate(ctx context.Context, userID, id uuid.UUID) (*entity.Estimate, error) {
	estimate, err := s.estimateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if estimate == nil {
		return nil, apperror.NewNotFoundError("Estimate")
	}
	if err := checkOwner(estimate.UserID, userID, "estimate"); err != nil {
		return nil, err
	}
	return estimate, nil
}

// ListEstimatesInput represents the input for listing estimates
type ListEstimatesInput struct {
	UserID     uuid.UUID
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.EstimateStatus
	ClientID   *uuid.UUID
	SortBy     string
	SortOrder  string
}

// ListEstimates lists the user's estimates
func (s *EstimateService) ListEstimates(ctx context.Context, input *ListEstimatesInput) (*pagination.PaginatedResult[entity.Estimate], error) {
	estimates, total, err := s.estimateRepo.List(ctx, input.UserID, &repository.EstimateFilterParams{
		Pagination: input.Pagination,
		Search:     input.Search,
		Status:     input.Status,
		ClientID:   input.ClientID,
		SortBy:     input.SortBy,
		SortOrder:  input.SortOrder,
	})
	if err != nil {
		return nil, err
	}

	return pagination.NewPaginatedResult(estimates, pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total)), nil
}

// UpdateEstimateInput represents the input for editing an estimate. Nil fields are left unchanged.
type UpdateEstimateInput struct {
	UserID       uuid.UUID
	ClientID     *uuid.UUID
	IssueDate    *time.Time
	ValidUntil   *time.Time
	Items        []entity.LineItem
	DiscountRate *decimal.Decimal
	Notes        *string
	Version      *int
}

// UpdateEstimate edits a draft or sent estimate
func (s *EstimateService) UpdateEstimate(ctx context.Context, id uuid.UUID, input *UpdateEstimateInput) (*entity.Estimate, error) {
	estimate, err := s.GetEstimate(ctx, input.UserID, id)
	if err != nil {
		return nil, err
	}
	if input.Version != nil && *input.Version != estimate.Version {
		return nil, translateRepoError(repository.ErrVersionConflict, "Estimate")
	}

	items := input.Items
	if items == nil {
		items = estimate.LineItems()
	}
	discount := estimate.DiscountRate
	if input.DiscountRate != nil {
		discount = *input.DiscountRate
	}
	if err := ledger.RecomputeEstimate(estimate, items, discount); err != nil {
		return nil, err
	}

	if input.ClientID != nil && *input.ClientID != estimate.ClientID {
		client, err := s.ownedClient(ctx, input.UserID, *input.ClientID)
		if err != nil {
			return nil, err
		}
		estimate.ClientID = client.ID
		estimate.Client = client
	}
	if input.IssueDate != nil {
		estimate.IssueDate = *input.IssueDate
	}
	if input.ValidUntil != nil {
		estimate.ValidUntil = *input.ValidUntil
	}
	if err := validateValidity(estimate.IssueDate, estimate.ValidUntil); err != nil {
		return nil, err
	}
	if input.Notes != nil {
		estimate.Notes = input.Notes
	}

	if err := s.estimateRepo.Save(ctx, estimate); err != nil {
		return nil, translateRepoError(err, "Estimate")
	}

	return estimate, nil
}

// DeleteEstimate removes an estimate that has not been converted
func (s *EstimateService) DeleteEstimate(ctx context.Context, userID, id uuid.UUID) error {
	estimate, err := s.GetEstimate(ctx, userID, id)
	if err != nil {
		return err
	}
	if estimate.InvoiceID != nil {
		return apperror.NewTransitionError("cannot delete an estimate that has been converted", ledger.ErrAlreadyConverted)
	}
	return s.estimateRepo.Delete(ctx, id)
}

// SendEstimateInput represents the input for emailing an estimate
type SendEstimateInput struct {
	UserID         uuid.UUID
	EstimateID     uuid.UUID
	RecipientEmail string
}

// SendEstimate emails the estimate to the client and marks it sent once delivery is confirmed
func (s *EstimateService) SendEstimate(ctx context.Context, input *SendEstimateInput) (*entity.Estimate, error) {
	estimate, err := s.GetEstimate(ctx, input.UserID, input.EstimateID)
	if err != nil {
		return nil, err
	}
	if !ledger.CanFireEstimate(estimate.Status, ledger.TriggerSend) {
		return nil, apperror.NewTransitionError(
			fmt.Sprintf("cannot send an estimate that is %s", estimate.Status),
			ledger.ErrInvalidTransition,
		)
	}

	recipient := strings.TrimSpace(input.RecipientEmail)
	if recipient == "" && estimate.Client != nil && estimate.Client.ID == estimate.ClientID {
		recipient = estimate.Client.Email
	}
	if recipient == "" {
		return nil, apperror.NewFieldError("recipient_email", "recipient email is required when the client has no email")
	}

	issuer, err := s.userRepo.GetByID(ctx, estimate.UserID)
	if err != nil {
		return nil, err
	}
	if issuer == nil {
		return nil, apperror.NewNotFoundError("User")
	}

	msg, err := email.NewEstimateMessage(summarize(estimate, issuer), recipient, issuer.ReplyToEmail())
	if err != nil {
		return nil, apperror.NewInternalError("Failed to build estimate email", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.sender.Send(sendCtx, msg); err != nil {
		return nil, apperror.NewDispatchError("Email delivery failed; the estimate was not sent", err)
	}

	if err := ledger.FireEstimate(estimate, ledger.TriggerSend); err != nil {
		return nil, err
	}
	if err := s.saveHeader(ctx, estimate); err != nil {
		log.Printf("estimate %s emailed to %s but status save failed: %v", estimate.EstimateNumber, recipient, err)
		return nil, apperror.NewInternalError("Estimate email was sent but its status could not be saved", err)
	}

	return estimate, nil
}

// AcceptEstimate records the client's acceptance
func (s *EstimateService) AcceptEstimate(ctx context.Context, userID, id uuid.UUID) (*entity.Estimate, error) {
	return s.transition(ctx, userID, id, ledger.TriggerAccept)
}

// RejectEstimate records the client's rejection
func (s *EstimateService) RejectEstimate(ctx context.Context, userID, id uuid.UUID) (*entity.Estimate, error) {
	return s.transition(ctx, userID, id, ledger.TriggerReject)
}

func (s *EstimateService) transition(ctx context.Context, userID, id uuid.UUID, trigger ledger.Trigger) (*entity.Estimate, error) {
	estimate, err := s.GetEstimate(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := ledger.FireEstimate(estimate, trigger); err != nil {
		return nil, err
	}
	if err := s.saveHeader(ctx, estimate); err != nil {
		return nil, translateRepoError(err, "Estimate")
	}
	return estimate, nil
}

// ConvertEstimateInput represents the input for turning an accepted estimate into an invoice
type ConvertEstimateInput struct {
	UserID     uuid.UUID
	EstimateID uuid.UUID
	IssueDate  *time.Time
	DueDate    *time.Time
}

// ConvertEstimate creates a draft invoice from an accepted estimate, once
func (s *EstimateService) ConvertEstimate(ctx context.Context, input *ConvertEstimateInput) (*entity.Invoice, error) {
	estimate, err := s.GetEstimate(ctx, input.UserID, input.EstimateID)
	if err != nil {
		return nil, err
	}

	issueDate := s.now().Truncate(24 * time.Hour)
	if input.IssueDate != nil {
		issueDate = *input.IssueDate
	}
	dueDate := issueDate.AddDate(0, 0, defaultPaymentDays)
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}

	for attempt := 0; ; attempt++ {
		seq, err := s.invoiceRepo.NextNumber(ctx, input.UserID)
		if err != nil {
			return nil, err
		}

		invoice, err := ledger.ConvertToInvoice(estimate, utils.DocumentNumber(utils.InvoicePrefix, seq), issueDate, dueDate)
		if err != nil {
			return nil, err
		}

		items := estimate.Items
		estimate.Items = nil
		err = s.estimateRepo.Convert(ctx, estimate, invoice)
		estimate.Items = items
		if err == nil {
			invoice.Client = estimate.Client
			return invoice, nil
		}
		estimate.InvoiceID = nil
		if !errors.Is(err, repository.ErrDuplicate) || attempt == numberAttempts-1 {
			return nil, translateRepoError(err, "Invoice")
		}
	}
}

func (s *EstimateService) saveHeader(ctx context.Context, estimate *entity.Estimate) error {
	items := estimate.Items
	estimate.Items = nil
	err := s.estimateRepo.Save(ctx, estimate)
	estimate.Items = items
	return err
}

func (s *EstimateService) ownedClient(ctx context.Context, userID, clientID uuid.UUID) (*entity.Client, error) {
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

func validateValidity(issueDate, validUntil time.Time) error {
	if issueDate.IsZero() {
		return apperror.NewFieldError("issue_date", "issue date is required")
	}
	if validUntil.IsZero() {
		return apperror.NewFieldError("valid_until", "valid until is required")
	}
	if validUntil.Before(issueDate) {
		return apperror.NewFieldError("valid_until", "valid until must not be before issue date")
	}
	return nil
}

func summarize(estimate *entity.Estimate, issuer *entity.User) *email.EstimateSummary {
	summary := &email.EstimateSummary{
		Number:         estimate.EstimateNumber,
		IssuerName:     issuer.IssuerName(),
		ClientName:     estimate.ClientName(),
		ValidUntil:     estimate.ValidUntil,
		Items:          make([]entity.DocumentLine, 0, len(estimate.Items)),
		Subtotal:       estimate.Subtotal.Round(2),
		DiscountAmount: estimate.DiscountAmount.Round(2),
		TotalTax:       estimate.TotalTax.Round(2),
		TotalAmount:    estimate.TotalAmount.Round(2),
	}
	for _, it := range estimate.Items {
		summary.Items = append(summary.Items, entity.DocumentLine{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.Round(2),
			TaxRate:     it.TaxRate,
			Amount:      it.Amount().Round(2),
		})
	}
	if estimate.Notes != nil {
		summary.Notes = *estimate.Notes
	}
	return summary
}
