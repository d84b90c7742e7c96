package services

import (
	"context"
	"encoding/json"
	"time"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/adapters/persistence/repositories"
	"sacco-returns/internal/core/domain"

	"gorm.io/datatypes"
)

// auditEntry describes one change to persist alongside the mutation it records
type auditEntry struct {
	Action     string
	EntityType string
	EntityID   uint
	Old        interface{}
	New        interface{}
}

// Entity types recorded in audit_logs
const (
	entitySacco  = "SACCO"
	entityReturn = "MonthlyReturn"
	entityUser   = "User"
)

// writeAudit appends an audit row using repo, which should be bound to the caller's tx
func writeAudit(ctx context.Context, repo repositories.AuditRepository, actor domain.Actor, e auditEntry) error {
	entry := &models.AuditLog{
		Action:     e.Action,
		EntityType: e.EntityType,
		Timestamp:  time.Now().UTC(),
		IPAddress:  ClientIP(ctx),
	}
	if actor.ID != 0 {
		id := actor.ID
		entry.UserID = &id
	}
	if e.EntityID != 0 {
		id := e.EntityID
		entry.EntityID = &id
	}

	var err error
	if entry.OldValues, err = toJSON(e.Old); err != nil {
		return err
	}
	if entry.NewValues, err = toJSON(e.New); err != nil {
		return err
	}
	return repo.Create(ctx, entry)
}

func toJSON(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

type clientIPKey struct{}

// WithClientIP attaches the caller's IP for audit rows
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the IP attached by WithClientIP, if any
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
