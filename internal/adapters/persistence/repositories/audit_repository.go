package repositories

import (
	"context"

	"sacco-returns/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// auditRepository implements AuditRepository interface
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *auditRepository) WithTx(tx *gorm.DB) AuditRepository {
	return &auditRepository{db: tx}
}

// Create appends an audit entry
func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByEntity lists audit entries for one entity, oldest first
func (r *auditRepository) ListByEntity(ctx context.Context, entityType string, entityID uint) ([]*models.AuditLog, error) {
	var entries []*models.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("timestamp ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
