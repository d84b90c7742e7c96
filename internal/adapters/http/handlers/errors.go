package handlers

import (
	"context"
	"errors"
	"log"

	"sacco-returns/internal/core/domain"
	"sacco-returns/internal/core/services"
	"sacco-returns/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// respondError maps core error kinds onto HTTP statuses; anything unknown is a 500
func respondError(c *fiber.Ctx, err error, fallback string) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return response.ValidationFailed(c, verr.Field, verr.Error())
	case errors.Is(err, domain.ErrValidation):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidState):
		return response.Conflict(c, err.Error())
	default:
		log.Printf("❌ %s: %v", fallback, err)
		return response.InternalServerError(c, fallback)
	}
}

// requestContext carries the caller IP into audit rows
func requestContext(c *fiber.Ctx) context.Context {
	return services.WithClientIP(c.Context(), c.IP())
}

// paramID parses a positive numeric route parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
