package services

import (
	"strings"
	"time"

	"sacco-returns/internal/adapters/persistence/repositories"
	"sacco-returns/internal/core/domain"
)

// clock is overridden in tests
type clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// authorize refuses inactive actors and denied permissions alike
func authorize(actor domain.Actor, allowed bool, action string) error {
	if !actor.Active {
		return domain.Forbiddenf("account is inactive")
	}
	if !allowed {
		return domain.Forbiddenf("not permitted to %s", action)
	}
	return nil
}

// conflictOr maps unique-index violations to a conflict carrying msg
func conflictOr(err error, msg string) error {
	if repositories.IsDuplicateKey(err) {
		return domain.Conflictf("%s", msg)
	}
	return err
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewValidationError(field, "is required")
	}
	return nil
}
