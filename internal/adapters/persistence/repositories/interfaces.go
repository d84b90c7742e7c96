package repositories

import (
	"context"
	"time"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/core/domain"

	"gorm.io/gorm"
)

// UserRepository defines user repository interface
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// UserFilter narrows user listings
type UserFilter struct {
	SaccoID *uint
	Role    domain.Role
	Search  string
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	WithTx(tx *gorm.DB) RefreshTokenRepository
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
	CountActiveByUserID(ctx context.Context, userID uint) (int64, error)
}

// SaccoRepository defines SACCO repository interface
type SaccoRepository interface {
	WithTx(tx *gorm.DB) SaccoRepository
	Create(ctx context.Context, sacco *models.Sacco) error
	GetByID(ctx context.Context, id uint) (*models.Sacco, error)
	Update(ctx context.Context, sacco *models.Sacco) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]*models.Sacco, error)
	ListActive(ctx context.Context) ([]*models.Sacco, error)
	ExistsByRegistrationNumber(ctx context.Context, regNo string, excludeID uint) (bool, error)
	CountUsers(ctx context.Context, id uint) (int64, error)
	CountReturns(ctx context.Context, id uint) (int64, error)
}

// ReturnRepository defines monthly return repository interface
type ReturnRepository interface {
	WithTx(tx *gorm.DB) ReturnRepository
	Create(ctx context.Context, ret *models.MonthlyReturn) error
	GetByID(ctx context.Context, id uint) (*models.MonthlyReturn, error)
	GetWithDetails(ctx context.Context, id uint) (*models.MonthlyReturn, error)
	List(ctx context.Context, filter ReturnFilter, offset, limit int) ([]*models.MonthlyReturn, int64, error)
	CompareAndSetStatus(ctx context.Context, id uint, from domain.ReturnStatus, updates map[string]interface{}) (bool, error)
	ReplaceFinancialData(ctx context.Context, data *models.FinancialData) error
	HasFinancialData(ctx context.Context, returnID uint) (bool, error)
	AddDocument(ctx context.Context, doc *models.Document) error
	Touch(ctx context.Context, id uint, status domain.ReturnStatus) (bool, error)
}

// ReturnFilter narrows return listings
type ReturnFilter struct {
	SaccoID   *uint
	Status    domain.ReturnStatus
	FromMonth *time.Time
	ToMonth   *time.Time
}

// AuditRepository defines audit log repository interface
type AuditRepository interface {
	WithTx(tx *gorm.DB) AuditRepository
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType string, entityID uint) ([]*models.AuditLog, error)
}
