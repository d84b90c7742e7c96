package handlers

import (
	"fmt"
	"time"

	"sacco-returns/internal/adapters/http/middleware"
	"sacco-returns/internal/core/services"
	"sacco-returns/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ComplianceHandler handles compliance read endpoints
type ComplianceHandler struct {
	complianceService *services.ComplianceService
	reportService     *services.ReportService
}

// NewComplianceHandler creates a new compliance handler
func NewComplianceHandler(complianceService *services.ComplianceService, reportService *services.ReportService) *ComplianceHandler {
	return &ComplianceHandler{
		complianceService: complianceService,
		reportService:     reportService,
	}
}

// Rate returns a SACCO's compliance rate
// @Summary SACCO compliance rate
// @Description Percentage of the last window months with a non-Draft return, capped at 100
// @Tags Compliance
// @Produce json
// @Security BearerAuth
// @Param id path int true "SACCO ID"
// @Param window query int false "Window in months (default 3)"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /compliance/saccos/{id}/rate [get]
func (h *ComplianceHandler) Rate(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid SACCO ID")
	}

	window := c.QueryInt("window", services.ComplianceWindowMonths)
	rate, err := h.complianceService.ComplianceRate(c.Context(), actor, id, window)
	if err != nil {
		return respondError(c, err, "Failed to compute compliance rate")
	}
	return response.Success(c, "Compliance rate computed", fiber.Map{
		"sacco_id":        id,
		"window_months":   window,
		"compliance_rate": rate,
	})
}

// SaccoSummary returns dashboard figures for a SACCO
// @Summary SACCO compliance summary
// @Tags Compliance
// @Produce json
// @Security BearerAuth
// @Param id path int true "SACCO ID"
// @Success 200 {object} response.Response
// @Router /compliance/saccos/{id}/summary [get]
func (h *ComplianceHandler) SaccoSummary(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid SACCO ID")
	}

	summary, err := h.complianceService.SaccoSummary(c.Context(), actor, id)
	if err != nil {
		return respondError(c, err, "Failed to build SACCO summary")
	}
	return response.Success(c, "SACCO summary retrieved successfully", summary)
}

// LowCompliance lists active SACCOs below the filing threshold
// @Summary Low-compliance SACCOs
// @Tags Compliance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /compliance/low [get]
func (h *ComplianceHandler) LowCompliance(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	low, err := h.complianceService.LowComplianceSaccos(c.Context(), actor)
	if err != nil {
		return respondError(c, err, "Failed to list low-compliance SACCOs")
	}
	return response.Success(c, "Low-compliance SACCOs retrieved successfully", low)
}

// PendingCount counts returns awaiting review
// @Summary Pending review count
// @Tags Compliance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /compliance/pending-count [get]
func (h *ComplianceHandler) PendingCount(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	count, err := h.complianceService.PendingReviewCount(c.Context(), actor)
	if err != nil {
		return respondError(c, err, "Failed to count pending returns")
	}
	return response.Success(c, "Pending review count retrieved", fiber.Map{"pending_review": count})
}

// MinistrySummary returns regulator-wide figures
// @Summary Ministry summary
// @Tags Compliance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /compliance/summary [get]
func (h *ComplianceHandler) MinistrySummary(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	summary, err := h.complianceService.MinistrySummary(c.Context(), actor)
	if err != nil {
		return respondError(c, err, "Failed to build ministry summary")
	}
	return response.Success(c, "Ministry summary retrieved successfully", summary)
}

// Report downloads the compliance workbook
// @Summary Compliance report (XLSX)
// @Tags Compliance
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Router /compliance/report.xlsx [get]
func (h *ComplianceHandler) Report(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.reportService.ComplianceWorkbook(c.Context(), actor)
	if err != nil {
		return respondError(c, err, "Failed to build compliance report")
	}

	filename := fmt.Sprintf("compliance-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}
