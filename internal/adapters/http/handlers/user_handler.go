package handlers

import (
	"strings"

	"sacco-returns/internal/adapters/http/middleware"
	"sacco-returns/internal/core/domain"
	"sacco-returns/internal/core/services"
	"sacco-returns/internal/pkg/pagination"
	"sacco-returns/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ChangePasswordRequest represents change password request body
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ListUsers handles listing users (System_Admin only)
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter"
// @Param sacco_id query int false "SACCO filter"
// @Param search query string false "Username, email or name"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.FromQuery(c)
	input := &services.ListUsersInput{
		Search: c.Query("search"),
		Offset: params.Offset(),
		Limit:  params.Limit,
	}
	if r := c.Query("role"); r != "" {
		role, ok := domain.ParseRole(r)
		if !ok {
			return response.ValidationFailed(c, "role", "role: is not a recognised role")
		}
		input.Role = role
	}
	if id := c.QueryInt("sacco_id"); id > 0 {
		saccoID := uint(id)
		input.SaccoID = &saccoID
	}

	result, err := h.userService.List(c.Context(), actor, input)
	if err != nil {
		return respondError(c, err, "Failed to list users")
	}
	return response.Success(c, "Users retrieved successfully", pagination.New(result.Users, params, result.Total))
}

// CreateUser handles account creation (System_Admin only)
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.RegisterUserInput true "Account data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users [post]
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.RegisterUserInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	input.Role = domain.Role(strings.TrimSpace(string(input.Role)))

	user, err := h.userService.Register(requestContext(c), actor, &input)
	if err != nil {
		return respondError(c, err, "Failed to create user")
	}
	return response.Created(c, "User created successfully", user)
}

// GetUser handles getting a user by ID
// @Summary Get user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.Get(c.Context(), actor, id)
	if err != nil {
		return respondError(c, err, "Failed to get user")
	}
	return response.Success(c, "User retrieved successfully", user)
}

// UpdateUser handles updating a user (System_Admin only)
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body services.UpdateUserInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	var input services.UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.Update(requestContext(c), actor, id, &input)
	if err != nil {
		return respondError(c, err, "Failed to update user")
	}
	return response.Success(c, "User updated successfully", user)
}

// DeactivateUser handles deactivating a user (System_Admin only)
// @Summary Deactivate user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/deactivate [post]
func (h *UserHandler) DeactivateUser(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.Deactivate(requestContext(c), actor, id); err != nil {
		return respondError(c, err, "Failed to deactivate user")
	}
	return response.Success(c, "User deactivated successfully", nil)
}

// GetProfile handles getting current user's profile
// @Summary Get my profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /profile [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.userService.Get(c.Context(), actor, actor.ID)
	if err != nil {
		return respondError(c, err, "Failed to get profile")
	}
	return response.Success(c, "Profile retrieved successfully", user)
}

// UpdateProfile handles updating current user's profile
// @Summary Update my profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateProfileInput true "Profile fields"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /profile [put]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.UpdateProfile(c.Context(), actor, &input)
	if err != nil {
		return respondError(c, err, "Failed to update profile")
	}
	return response.Success(c, "Profile updated successfully", user)
}

// ChangePassword handles password change; all sessions are signed out
// @Summary Change my password
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChangePasswordRequest true "Passwords"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /profile/password [put]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Old and new password are required")
	}

	if err := h.userService.ChangePassword(c.Context(), actor, req.OldPassword, req.NewPassword); err != nil {
		return respondError(c, err, "Failed to change password")
	}
	return response.Success(c, "Password changed successfully, please login again", nil)
}
