package handlers

import (
	"strings"
	"time"

	"sacco-returns/internal/adapters/http/middleware"
	"sacco-returns/internal/core/domain"
	"sacco-returns/internal/core/services"
	"sacco-returns/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SaccoHandler handles SACCO registry endpoints
type SaccoHandler struct {
	saccoService *services.SaccoService
}

// NewSaccoHandler creates a new SACCO handler
func NewSaccoHandler(saccoService *services.SaccoService) *SaccoHandler {
	return &SaccoHandler{saccoService: saccoService}
}

// SaccoRequest represents create/update SACCO request body
type SaccoRequest struct {
	RegistrationNumber string `json:"registration_number"`
	Name               string `json:"name"`
	County             string `json:"county"`
	SubCounty          string `json:"sub_county"`
	RegistrationDate   string `json:"registration_date" example:"2019-06-01"`
	SaccoType          string `json:"sacco_type" example:"Deposit_Taking"`
	ContactPerson      string `json:"contact_person"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	Address            string `json:"address"`
	Status             string `json:"status" example:"Active"`
}

func (r *SaccoRequest) toInput() (*services.SaccoInput, error) {
	input := &services.SaccoInput{
		RegistrationNumber: r.RegistrationNumber,
		Name:               r.Name,
		County:             r.County,
		SubCounty:          r.SubCounty,
		SaccoType:          domain.SaccoType(strings.TrimSpace(r.SaccoType)),
		ContactPerson:      r.ContactPerson,
		Phone:              r.Phone,
		Email:              r.Email,
		Address:            r.Address,
		Status:             domain.SaccoStatus(strings.TrimSpace(r.Status)),
	}
	if date := strings.TrimSpace(r.RegistrationDate); date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, domain.NewValidationError("registration_date", "must be formatted YYYY-MM-DD")
		}
		input.RegistrationDate = t
	}
	return input, nil
}

// List lists SACCOs visible to the caller
// @Summary List SACCOs
// @Description Regulators see every SACCO; SACCO staff see their own
// @Tags SACCOs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /saccos [get]
func (h *SaccoHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	saccos, err := h.saccoService.ListVisibleTo(c.Context(), actor)
	if err != nil {
		return respondError(c, err, "Failed to list SACCOs")
	}
	return response.Success(c, "SACCOs retrieved successfully", saccos)
}

// Search searches visible SACCOs
// @Summary Search SACCOs
// @Description Case-insensitive match on name, registration number or county
// @Tags SACCOs
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search term"
// @Success 200 {object} response.Response
// @Router /saccos/search [get]
func (h *SaccoHandler) Search(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	saccos, err := h.saccoService.Search(c.Context(), actor, c.Query("q"))
	if err != nil {
		return respondError(c, err, "Failed to search SACCOs")
	}
	return response.Success(c, "SACCOs retrieved successfully", saccos)
}

// Get gets a SACCO by ID
// @Summary Get SACCO
// @Tags SACCOs
// @Produce json
// @Security BearerAuth
// @Param id path int true "SACCO ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /saccos/{id} [get]
func (h *SaccoHandler) Get(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid SACCO ID")
	}

	sacco, err := h.saccoService.GetByID(c.Context(), actor, id)
	if err != nil {
		return respondError(c, err, "Failed to get SACCO")
	}
	return response.Success(c, "SACCO retrieved successfully", sacco)
}

// Create registers a SACCO
// @Summary Create SACCO
// @Tags SACCOs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SaccoRequest true "SACCO data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /saccos [post]
func (h *SaccoHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req SaccoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	input, err := req.toInput()
	if err != nil {
		return respondError(c, err, "Failed to create SACCO")
	}

	sacco, err := h.saccoService.Create(requestContext(c), actor, input)
	if err != nil {
		return respondError(c, err, "Failed to create SACCO")
	}
	return response.Created(c, "SACCO created successfully", sacco)
}

// Update updates a SACCO
// @Summary Update SACCO
// @Tags SACCOs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "SACCO ID"
// @Param body body SaccoRequest true "SACCO data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /saccos/{id} [put]
func (h *SaccoHandler) Update(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid SACCO ID")
	}

	var req SaccoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	input, err := req.toInput()
	if err != nil {
		return respondError(c, err, "Failed to update SACCO")
	}

	sacco, err := h.saccoService.Update(requestContext(c), actor, id, input)
	if err != nil {
		return respondError(c, err, "Failed to update SACCO")
	}
	return response.Success(c, "SACCO updated successfully", sacco)
}

// Delete deletes a SACCO without dependents
// @Summary Delete SACCO
// @Tags SACCOs
// @Produce json
// @Security BearerAuth
// @Param id path int true "SACCO ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /saccos/{id} [delete]
func (h *SaccoHandler) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid SACCO ID")
	}

	if err := h.saccoService.Delete(requestContext(c), actor, id); err != nil {
		return respondError(c, err, "Failed to delete SACCO")
	}
	return response.Success(c, "SACCO deleted successfully", nil)
}

// ToggleStatus flips a SACCO between Active and Inactive
// @Summary Toggle SACCO status
// @Tags SACCOs
// @Produce json
// @Security BearerAuth
// @Param id path int true "SACCO ID"
// @Success 200 {object} response.Response
// @Router /saccos/{id}/toggle-status [post]
func (h *SaccoHandler) ToggleStatus(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid SACCO ID")
	}

	sacco, err := h.saccoService.ToggleStatus(requestContext(c), actor, id)
	if err != nil {
		return respondError(c, err, "Failed to change SACCO status")
	}
	return response.Success(c, "SACCO status changed to "+string(sacco.Status), sacco)
}
