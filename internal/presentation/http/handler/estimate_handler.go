package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/application/service"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/internal/presentation/http/dto/request"
	"github.com/sangkips/quickbill-api/internal/presentation/http/dto/response"
	"github.com/sangkips/quickbill-api/pkg/apperror"
)

// EstimateHandler handles estimate-related HTTP requests
type EstimateHandler struct {
	estimateService *service.EstimateService
	now             func() time.Time
}

// NewEstimateHandler creates a new estimate handler
func NewEstimateHandler(estimateService *service.EstimateService) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// List handles listing estimates
func (h *EstimateHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	input := &service.ListEstimatesInput{
		UserID:     userID,
		Pagination: pageParams(c),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status, err := enum.ParseEstimateStatus(statusStr)
		if err != nil {
			response.Error(c, apperror.NewFieldError("status", "unknown estimate status"))
			return
		}
		input.Status = &status
	}

	var err error
	if input.ClientID, err = queryUUID(c, "client_id"); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.estimateService.ListEstimates(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Estimates retrieved successfully", response.NewEstimateList(result))
}

// Create handles creating a draft estimate
func (h *EstimateHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.CreateEstimateRequest
	if !bindJSON(c, &req) {
		return
	}

	estimate, err := h.estimateService.CreateEstimate(c.Request.Context(), &service.CreateEstimateInput{
		UserID:       userID,
		ClientID:     req.ClientID,
		IssueDate:    req.IssueDate.Time,
		ValidUntil:   req.ValidUntil.Time,
		Items:        request.LineItems(req.Items),
		DiscountRate: req.DiscountRate,
		Notes:        req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Estimate created successfully", response.NewEstimateResponse(estimate))
}

// Get handles getting an estimate by ID
func (h *EstimateHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "estimate")
	if !ok {
		return
	}

	estimate, err := h.estimateService.GetEstimate(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Estimate retrieved successfully", response.NewEstimateResponse(estimate))
}

// Update handles editing a draft or sent estimate
func (h *EstimateHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "estimate")
	if !ok {
		return
	}

	var req request.UpdateEstimateRequest
	if !bindJSON(c, &req) {
		return
	}

	estimate, err := h.estimateService.UpdateEstimate(c.Request.Context(), id, &service.UpdateEstimateInput{
		UserID:       userID,
		ClientID:     req.ClientID,
		IssueDate:    req.IssueDate.TimePtr(),
		ValidUntil:   req.ValidUntil.TimePtr(),
		Items:        request.LineItems(req.Items),
		DiscountRate: req.DiscountRate,
		Notes:        req.Notes,
		Version:      req.Version,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Estimate updated successfully", response.NewEstimateResponse(estimate))
}

// Delete handles deleting an estimate that has not been converted
func (h *EstimateHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "estimate")
	if !ok {
		return
	}

	if err := h.estimateService.DeleteEstimate(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Send handles emailing an estimate to its client
func (h *EstimateHandler) Send(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "estimate")
	if !ok {
		return
	}

	var req request.SendRequest
	if !bindJSON(c, &req, true) {
		return
	}

	estimate, err := h.estimateService.SendEstimate(c.Request.Context(), &service.SendEstimateInput{
		UserID:         userID,
		EstimateID:     id,
		RecipientEmail: req.RecipientEmail,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Estimate sent successfully", response.NewEstimateResponse(estimate))
}

// Accept handles recording the client's acceptance
func (h *EstimateHandler) Accept(c *gin.Context) {
	h.decide(c, h.estimateService.AcceptEstimate, "Estimate accepted")
}

// Reject handles recording the client's rejection
func (h *EstimateHandler) Reject(c *gin.Context) {
	h.decide(c, h.estimateService.RejectEstimate, "Estimate rejected")
}

func (h *EstimateHandler) decide(c *gin.Context, apply func(ctx context.Context, userID, id uuid.UUID) (*entity.Estimate, error), message string) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "estimate")
	if !ok {
		return
	}

	estimate, err := apply(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, message, response.NewEstimateResponse(estimate))
}

// Convert handles turning an accepted estimate into a draft invoice
func (h *EstimateHandler) Convert(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "estimate")
	if !ok {
		return
	}

	var req request.ConvertEstimateRequest
	if !bindJSON(c, &req, true) {
		return
	}

	invoice, err := h.estimateService.ConvertEstimate(c.Request.Context(), &service.ConvertEstimateInput{
		UserID:     userID,
		EstimateID: id,
		IssueDate:  req.IssueDate.TimePtr(),
		DueDate:    req.DueDate.TimePtr(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Estimate converted to invoice", response.NewInvoiceResponse(invoice, h.now()))
}
