package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/quickbill-api/internal/application/service"
	"github.com/sangkips/quickbill-api/internal/domain/enum"
	"github.com/sangkips/quickbill-api/internal/presentation/http/dto/request"
	"github.com/sangkips/quickbill-api/internal/presentation/http/dto/response"
	"github.com/sangkips/quickbill-api/pkg/apperror"
)

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	now            func() time.Time
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// List handles listing invoices with optional filters
func (h *InvoiceHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	input := &service.ListInvoicesInput{
		UserID:      userID,
		Pagination:  pageParams(c),
		Search:      c.Query("search"),
		OverdueOnly: c.Query("overdue") == "true",
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status, err := enum.ParseInvoiceStatus(statusStr)
		if err != nil {
			response.Error(c, apperror.NewFieldError("status", "unknown invoice status"))
			return
		}
		input.Status = &status
	}

	var err error
	if input.ClientID, err = queryUUID(c, "client_id"); err != nil {
		response.Error(c, err)
		return
	}
	if input.StartDate, err = queryDate(c, "start_date"); err != nil {
		response.Error(c, err)
		return
	}
	if input.EndDate, err = queryDate(c, "end_date"); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Invoices retrieved successfully", response.NewInvoiceList(result, h.now()))
}

// Create handles creating a draft invoice
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), &service.CreateInvoiceInput{
		UserID:       userID,
		ClientID:     req.ClientID,
		IssueDate:    req.IssueDate.Time,
		DueDate:      req.DueDate.Time,
		Items:        request.LineItems(req.Items),
		Notes:        req.Notes,
		PaymentTerms: req.PaymentTerms,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Invoice created successfully", response.NewInvoiceResponse(invoice, h.now()))
}

// Get handles getting an invoice by ID
func (h *InvoiceHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved successfully", response.NewInvoiceResponse(invoice, h.now()))
}

// Update handles editing an invoice's details and items
func (h *InvoiceHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "invoice")
	if !ok {
		return
	}

	var req request.UpdateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), id, &service.UpdateInvoiceInput{
		UserID:       userID,
		ClientID:     req.ClientID,
		IssueDate:    req.IssueDate.TimePtr(),
		DueDate:      req.DueDate.TimePtr(),
		Items:        request.LineItems(req.Items),
		Notes:        req.Notes,
		PaymentTerms: req.PaymentTerms,
		Version:      req.Version,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice updated successfully", response.NewInvoiceResponse(invoice, h.now()))
}

// Delete handles deleting a draft or cancelled invoice
func (h *InvoiceHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "invoice")
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Send handles emailing an invoice to its client
func (h *InvoiceHandler) Send(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "invoice")
	if !ok {
		return
	}

	var req request.SendRequest
	if !bindJSON(c, &req, true) {
		return
	}

	invoice, err := h.invoiceService.SendInvoice(c.Request.Context(), &service.SendInvoiceInput{
		UserID:         userID,
		InvoiceID:      id,
		RecipientEmail: req.RecipientEmail,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice sent successfully", response.NewInvoiceResponse(invoice, h.now()))
}

// Remind handles emailing a payment reminder for a past-due invoice
func (h *InvoiceHandler) Remind(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "invoice")
	if !ok {
		return
	}

	var req request.SendRequest
	if !bindJSON(c, &req, true) {
		return
	}

	invoice, err := h.invoiceService.SendReminder(c.Request.Context(), &service.RemindInput{
		UserID:         userID,
		InvoiceID:      id,
		RecipientEmail: req.RecipientEmail,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment reminder sent successfully", response.NewInvoiceResponse(invoice, h.now()))
}

// Pay handles marking an invoice as paid
func (h *InvoiceHandler) Pay(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.MarkPaid(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice marked as paid", response.NewInvoiceResponse(invoice, h.now()))
}

// Cancel handles voiding an invoice
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice cancelled successfully", response.NewInvoiceResponse(invoice, h.now()))
}

// PDF handles downloading the invoice as a PDF
func (h *InvoiceHandler) PDF(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "invoice")
	if !ok {
		return
	}

	data, filename, err := h.invoiceService.RenderPDF(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(200, "application/pdf", data)
}
