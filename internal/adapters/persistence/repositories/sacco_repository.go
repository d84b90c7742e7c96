package repositories

import (
	"context"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/core/domain"

	"gorm.io/gorm"
)

// saccoRepository implements SaccoRepository interface
type saccoRepository struct {
	db *gorm.DB
}

// NewSaccoRepository creates a new SACCO repository
func NewSaccoRepository(db *gorm.DB) SaccoRepository {
	return &saccoRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *saccoRepository) WithTx(tx *gorm.DB) SaccoRepository {
	return &saccoRepository{db: tx}
}

// Create creates a new SACCO
func (r *saccoRepository) Create(ctx context.Context, sacco *models.Sacco) error {
	return r.db.WithContext(ctx).Create(sacco).Error
}

// GetByID gets a SACCO by ID
func (r *saccoRepository) GetByID(ctx context.Context, id uint) (*models.Sacco, error) {
	var sacco models.Sacco
	err := r.db.WithContext(ctx).First(&sacco, id).Error
	if err != nil {
		return nil, err
	}
	return &sacco, nil
}

// Update updates a SACCO
func (r *saccoRepository) Update(ctx context.Context, sacco *models.Sacco) error {
	return r.db.WithContext(ctx).Save(sacco).Error
}

// Delete hard deletes a SACCO
func (r *saccoRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Sacco{}, id).Error
}

// List lists all SACCOs ordered by name
func (r *saccoRepository) List(ctx context.Context) ([]*models.Sacco, error) {
	var saccos []*models.Sacco
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&saccos).Error
	return saccos, err
}

// ListActive lists active SACCOs ordered by name
func (r *saccoRepository) ListActive(ctx context.Context) ([]*models.Sacco, error) {
	var saccos []*models.Sacco
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.SaccoActive).
		Order("name ASC").
		Find(&saccos).Error
	return saccos, err
}

// ExistsByRegistrationNumber checks whether another SACCO holds regNo
func (r *saccoRepository) ExistsByRegistrationNumber(ctx context.Context, regNo string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Sacco{}).Where("registration_number = ?", regNo)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// CountUsers counts users affiliated with the SACCO
func (r *saccoRepository) CountUsers(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("sacco_id = ?", id).Count(&count).Error
	return count, err
}

// CountReturns counts monthly returns filed by the SACCO
func (r *saccoRepository) CountReturns(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MonthlyReturn{}).Where("sacco_id = ?", id).Count(&count).Error
	return count, err
}
