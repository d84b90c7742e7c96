package handlers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sacco-returns/internal/adapters/http/middleware"
	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/config"
	"sacco-returns/internal/core/domain"
	"sacco-returns/internal/core/services"
	"sacco-returns/internal/pkg/pagination"
	"sacco-returns/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ReturnHandler handles monthly return endpoints
type ReturnHandler struct {
	returnService *services.ReturnService
	upload        config.UploadConfig
}

// NewReturnHandler creates a new return handler
func NewReturnHandler(returnService *services.ReturnService, upload config.UploadConfig) *ReturnHandler {
	return &ReturnHandler{
		returnService: returnService,
		upload:        upload,
	}
}

// CreateReturnRequest represents create draft request body
type CreateReturnRequest struct {
	SaccoID        uint   `json:"sacco_id"`
	ReportingMonth string `json:"reporting_month" example:"2024-03"`
}

// DocumentRequest represents JSON document metadata
type DocumentRequest struct {
	DocumentType string `json:"document_type" example:"Audited_Accounts"`
	FileName     string `json:"file_name"`
	FilePath     string `json:"file_path"`
	FileSize     int64  `json:"file_size"`
}

// DecideRequest represents a review decision
type DecideRequest struct {
	Decision string `json:"decision" example:"Approved"`
	Notes    string `json:"notes"`
}

// List lists returns visible to the caller
// @Summary List monthly returns
// @Tags Returns
// @Produce json
// @Security BearerAuth
// @Param sacco_id query int false "SACCO ID"
// @Param status query string false "Return status"
// @Param from query string false "First reporting month (YYYY-MM)"
// @Param to query string false "Last reporting month (YYYY-MM)"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /returns [get]
func (h *ReturnHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.FromQuery(c)
	input := &services.ListReturnsInput{
		Offset: params.Offset(),
		Limit:  params.Limit,
	}

	if id := c.QueryInt("sacco_id"); id > 0 {
		saccoID := uint(id)
		input.SaccoID = &saccoID
	}
	if s := c.Query("status"); s != "" {
		status, ok := domain.ParseReturnStatus(s)
		if !ok {
			return response.ValidationFailed(c, "status", "status: is not a recognised return status")
		}
		input.Status = status
	}
	for _, q := range []struct {
		name string
		dest **time.Time
	}{{"from", &input.FromMonth}, {"to", &input.ToMonth}} {
		if v := c.Query(q.name); v != "" {
			month, err := domain.ParseMonth(v)
			if err != nil {
				return respondError(c, err, "Failed to list returns")
			}
			*q.dest = &month
		}
	}

	returns, total, err := h.returnService.List(c.Context(), actor, input)
	if err != nil {
		return respondError(c, err, "Failed to list returns")
	}
	return response.Success(c, "Returns retrieved successfully", pagination.New(returns, params, total))
}

// Create opens a Draft return
// @Summary Create draft return
// @Description SACCO staff may omit sacco_id to file for their own SACCO
// @Tags Returns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateReturnRequest true "Draft data"
// @Success 201 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /returns [post]
func (h *ReturnHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CreateReturnRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	month, err := domain.ParseMonth(req.ReportingMonth)
	if err != nil {
		return respondError(c, err, "Failed to create return")
	}
	saccoID := req.SaccoID
	if saccoID == 0 {
		if own, ok := actor.SaccoID(); ok {
			saccoID = own
		}
	}

	ret, err := h.returnService.CreateDraft(requestContext(c), actor, saccoID, month)
	if err != nil {
		return respondError(c, err, "Failed to create return")
	}
	return response.Created(c, "Draft return created successfully", ret)
}

// Get gets a return with its financial data and documents
// @Summary Get return
// @Tags Returns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Return ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /returns/{id} [get]
func (h *ReturnHandler) Get(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid return ID")
	}

	ret, err := h.returnService.Get(c.Context(), actor, id)
	if err != nil {
		return respondError(c, err, "Failed to get return")
	}
	return response.Success(c, "Return retrieved successfully", ret)
}

// AttachFinancialData sets the financial figures of a Draft
// @Summary Attach financial data
// @Tags Returns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Return ID"
// @Param body body models.FinancialData true "Financial figures"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /returns/{id}/financial-data [put]
func (h *ReturnHandler) AttachFinancialData(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid return ID")
	}

	var data models.FinancialData
	if err := c.BodyParser(&data); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	saved, err := h.returnService.AttachFinancialData(requestContext(c), actor, id, &data)
	if err != nil {
		return respondError(c, err, "Failed to save financial data")
	}
	return response.Success(c, "Financial data saved successfully", saved)
}

// AttachDocument stores a supporting document on a Draft.
// Accepts a multipart upload (field "file") or JSON metadata.
// @Summary Attach document
// @Tags Returns
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Return ID"
// @Param document_type formData string false "Document type (multipart)"
// @Param file formData file false "Document (multipart)"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /returns/{id}/documents [post]
func (h *ReturnHandler) AttachDocument(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid return ID")
	}

	var input *services.DocumentInput
	var stored string
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			return response.ValidationFailed(c, "file", "file: is required")
		}
		if h.upload.MaxBytes > 0 && file.Size > int64(h.upload.MaxBytes) {
			return response.ValidationFailed(c, "file", "file: exceeds the upload size limit")
		}
		docType := domain.DocumentType(strings.TrimSpace(c.FormValue("document_type")))
		if err := h.returnService.CheckDocumentUpload(requestContext(c), actor, id, docType); err != nil {
			return respondError(c, err, "Failed to attach document")
		}
		if err := os.MkdirAll(h.upload.Dir, 0o755); err != nil {
			return respondError(c, err, "Failed to store document")
		}
		stored = filepath.Join(h.upload.Dir, uuid.New().String()+strings.ToLower(filepath.Ext(file.Filename)))
		if err := c.SaveFile(file, stored); err != nil {
			return respondError(c, err, "Failed to store document")
		}
		input = &services.DocumentInput{
			DocumentType: docType,
			FileName:     filepath.Base(file.Filename),
			FilePath:     stored,
			FileSize:     file.Size,
		}
	} else {
		var req DocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
		input = &services.DocumentInput{
			DocumentType: domain.DocumentType(strings.TrimSpace(req.DocumentType)),
			FileName:     req.FileName,
			FilePath:     req.FilePath,
			FileSize:     req.FileSize,
		}
	}

	doc, err := h.returnService.AttachDocument(requestContext(c), actor, id, input)
	if err != nil {
		// the return can leave Draft between the check and the insert
		if stored != "" {
			_ = os.Remove(stored)
		}
		return respondError(c, err, "Failed to attach document")
	}
	return response.Created(c, "Document attached successfully", doc)
}

// Submit submits a Draft
// @Summary Submit return
// @Tags Returns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Return ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /returns/{id}/submit [post]
func (h *ReturnHandler) Submit(c *fiber.Ctx) error {
	return h.transition(c, "Return submitted successfully", "Failed to submit return", h.returnService.Submit)
}

// BeginReview starts the review of a Submitted return
// @Summary Begin review
// @Tags Returns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Return ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /returns/{id}/begin-review [post]
func (h *ReturnHandler) BeginReview(c *fiber.Ctx) error {
	return h.transition(c, "Review started", "Failed to begin review", h.returnService.BeginReview)
}

// Reopen returns a Rejected or Flagged return to Draft
// @Summary Reopen for resubmission
// @Tags Returns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Return ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /returns/{id}/reopen [post]
func (h *ReturnHandler) Reopen(c *fiber.Ctx) error {
	return h.transition(c, "Return reopened for resubmission", "Failed to reopen return", h.returnService.ReopenForResubmission)
}

// Decide records a review decision
// @Summary Decide return
// @Tags Returns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Return ID"
// @Param body body DecideRequest true "Decision"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /returns/{id}/decide [post]
func (h *ReturnHandler) Decide(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid return ID")
	}

	var req DecideRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	ret, err := h.returnService.Decide(requestContext(c), actor, id, domain.Decision(req.Decision), req.Notes)
	if err != nil {
		return respondError(c, err, "Failed to record decision")
	}
	return response.Success(c, "Return "+string(ret.Status), ret)
}

type transitionFunc func(ctx context.Context, actor domain.Actor, id uint) (*models.MonthlyReturn, error)

func (h *ReturnHandler) transition(c *fiber.Ctx, okMessage, failMessage string, fn transitionFunc) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid return ID")
	}

	ret, err := fn(requestContext(c), actor, id)
	if err != nil {
		return respondError(c, err, failMessage)
	}
	return response.Success(c, okMessage, ret)
}
