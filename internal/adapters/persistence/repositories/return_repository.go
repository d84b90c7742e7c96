package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/core/domain"

	"gorm.io/gorm"
)

// returnRepository implements ReturnRepository interface
type returnRepository struct {
	db *gorm.DB
}

// NewReturnRepository creates a new monthly return repository
func NewReturnRepository(db *gorm.DB) ReturnRepository {
	return &returnRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *returnRepository) WithTx(tx *gorm.DB) ReturnRepository {
	return &returnRepository{db: tx}
}

// Create inserts a new return; (sacco_id, reporting_month) is unique
func (r *returnRepository) Create(ctx context.Context, ret *models.MonthlyReturn) error {
	return r.db.WithContext(ctx).Omit("Sacco", "FinancialData", "Documents").Create(ret).Error
}

// GetByID gets a return without relations
func (r *returnRepository) GetByID(ctx context.Context, id uint) (*models.MonthlyReturn, error) {
	var ret models.MonthlyReturn
	err := r.db.WithContext(ctx).First(&ret, id).Error
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// GetWithDetails gets a return with SACCO, financial data and documents
func (r *returnRepository) GetWithDetails(ctx context.Context, id uint) (*models.MonthlyReturn, error) {
	var ret models.MonthlyReturn
	err := r.db.WithContext(ctx).
		Preload("Sacco").
		Preload("FinancialData").
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("upload_date ASC, id ASC")
		}).
		First(&ret, id).Error
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// List lists returns newest period first
func (r *returnRepository) List(ctx context.Context, filter ReturnFilter, offset, limit int) ([]*models.MonthlyReturn, int64, error) {
	var returns []*models.MonthlyReturn
	var total int64

	query := r.db.WithContext(ctx).Model(&models.MonthlyReturn{})
	if filter.SaccoID != nil {
		query = query.Where("sacco_id = ?", *filter.SaccoID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.FromMonth != nil {
		query = query.Where("reporting_month >= ?", *filter.FromMonth)
	}
	if filter.ToMonth != nil {
		query = query.Where("reporting_month <= ?", *filter.ToMonth)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Sacco").
		Order("reporting_month DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&returns).Error

	return returns, total, err
}

// CompareAndSetStatus applies updates only while the row still has status from.
// Returns false when the row was missing or its status had moved on.
func (r *returnRepository) CompareAndSetStatus(ctx context.Context, id uint, from domain.ReturnStatus, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MonthlyReturn{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Touch bumps updated_at while the return is in status; used to guard edits
func (r *returnRepository) Touch(ctx context.Context, id uint, status domain.ReturnStatus) (bool, error) {
	return r.CompareAndSetStatus(ctx, id, status, map[string]interface{}{
		"updated_at": time.Now().UTC(),
	})
}

// ReplaceFinancialData swaps the 1:1 financial record of a return
func (r *returnRepository) ReplaceFinancialData(ctx context.Context, data *models.FinancialData) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("return_id = ?", data.ReturnID).Delete(&models.FinancialData{}).Error; err != nil {
		return err
	}
	data.ID = 0
	return db.Create(data).Error
}

// HasFinancialData checks whether a return has its financial record
func (r *returnRepository) HasFinancialData(ctx context.Context, returnID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FinancialData{}).Where("return_id = ?", returnID).Count(&count).Error
	return count > 0, err
}

// AddDocument attaches document metadata to a return
func (r *returnRepository) AddDocument(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// IsDuplicateKey reports unique-index violations across drivers
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}

// IsNotFound reports a missing record
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
