package services

import (
	"context"
	"net/mail"
	"strings"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/adapters/persistence/repositories"
	"sacco-returns/internal/core/domain"
	"sacco-returns/internal/pkg/password"

	"gorm.io/gorm"
)

// UserService handles portal account management
type UserService struct {
	db               *gorm.DB
	userRepo         repositories.UserRepository
	saccoRepo        repositories.SaccoRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	auditRepo        repositories.AuditRepository
}

// NewUserService creates a new user service
func NewUserService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	saccoRepo repositories.SaccoRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	auditRepo repositories.AuditRepository,
) *UserService {
	return &UserService{
		db:               db,
		userRepo:         userRepo,
		saccoRepo:        saccoRepo,
		refreshTokenRepo: refreshTokenRepo,
		auditRepo:        auditRepo,
	}
}

// RegisterUserInput represents admin-created account input
type RegisterUserInput struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      domain.Role `json:"role"`
	SaccoID   *uint       `json:"sacco_id"`
}

// UpdateUserInput represents admin edits; nil fields are left unchanged
type UpdateUserInput struct {
	Email     *string      `json:"email"`
	FirstName *string      `json:"first_name"`
	LastName  *string      `json:"last_name"`
	Role      *domain.Role `json:"role"`
	SaccoID   *uint        `json:"sacco_id"`
	IsActive  *bool        `json:"is_active"`
}

// UpdateProfileInput represents self-service profile edits
type UpdateProfileInput struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// ListUsersInput represents list users filters
type ListUsersInput struct {
	SaccoID *uint
	Role    domain.Role
	Search  string
	Offset  int
	Limit   int
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users []*models.UserResponse `json:"users"`
	Total int64                  `json:"total"`
}

// Register creates an account; System_Admin only
func (s *UserService) Register(ctx context.Context, actor domain.Actor, input *RegisterUserInput) (*models.UserResponse, error) {
	if err := authorize(actor, actor.IsSuperAdmin(), "manage users"); err != nil {
		return nil, err
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	switch {
	case len(input.Username) < 3 || len(input.Username) > 50:
		return nil, domain.NewValidationError("username", "must be 3-50 characters")
	case !validEmail(input.Email):
		return nil, domain.NewValidationError("email", "is not a valid email address")
	case !password.ValidatePassword(input.Password):
		return nil, domain.NewValidationError("password", "must be 8-72 characters")
	}
	if err := s.checkAffiliation(ctx, s.saccoRepo, input.Role, input.SaccoID); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.Conflictf("username %s is taken", input.Username)
	}
	exists, err = s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.Conflictf("email %s is already registered", input.Email)
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  hashedPassword,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      input.Role,
		SaccoID:   input.SaccoID,
		IsActive:  true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		return writeAudit(ctx, s.auditRepo.WithTx(tx), actor, auditEntry{
			Action:     models.AuditUserCreate,
			EntityType: entityUser,
			EntityID:   user.ID,
			New:        user.ToResponse(),
		})
	})
	if err != nil {
		return nil, conflictOr(err, "username or email is already registered")
	}

	return user.ToResponse(), nil
}

// List lists users; System_Admin only
func (s *UserService) List(ctx context.Context, actor domain.Actor, input *ListUsersInput) (*ListUsersOutput, error) {
	if err := authorize(actor, actor.IsSuperAdmin(), "manage users"); err != nil {
		return nil, err
	}

	users, total, err := s.userRepo.List(ctx, repositories.UserFilter{
		SaccoID: input.SaccoID,
		Role:    input.Role,
		Search:  strings.TrimSpace(input.Search),
	}, input.Offset, input.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return &ListUsersOutput{Users: responses, Total: total}, nil
}

// Get returns one user to an admin or to the user themself
func (s *UserService) Get(ctx context.Context, actor domain.Actor, id uint) (*models.UserResponse, error) {
	if err := authorize(actor, actor.IsSuperAdmin() || actor.ID == id, "view this user"); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, s.userRepo, id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// Update edits an account; admins cannot change their own role or deactivate themselves
func (s *UserService) Update(ctx context.Context, actor domain.Actor, id uint, input *UpdateUserInput) (*models.UserResponse, error) {
	if err := authorize(actor, actor.IsSuperAdmin(), "manage users"); err != nil {
		return nil, err
	}
	if id == actor.ID {
		if input.Role != nil && *input.Role != actor.Role {
			return nil, domain.NewValidationError("role", "cannot change your own role")
		}
		if input.IsActive != nil && !*input.IsActive {
			return nil, domain.NewValidationError("is_active", "cannot deactivate your own account")
		}
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.userRepo.WithTx(tx)

		var err error
		user, err = s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		old := user.ToResponse()

		if input.Email != nil {
			if err := s.applyEmail(ctx, repo, user, *input.Email); err != nil {
				return err
			}
		}
		if input.FirstName != nil {
			user.FirstName = strings.TrimSpace(*input.FirstName)
		}
		if input.LastName != nil {
			user.LastName = strings.TrimSpace(*input.LastName)
		}
		if input.Role != nil {
			user.Role = *input.Role
			if user.Role.IsMinistry() {
				user.SaccoID = nil
			}
		}
		if input.SaccoID != nil {
			user.SaccoID = input.SaccoID
		}
		if err := s.checkAffiliation(ctx, s.saccoRepo.WithTx(tx), user.Role, user.SaccoID); err != nil {
			return err
		}

		deactivated := false
		if input.IsActive != nil {
			deactivated = user.IsActive && !*input.IsActive
			user.IsActive = *input.IsActive
		}

		if err := repo.Update(ctx, user); err != nil {
			return err
		}
		if deactivated {
			if err := s.refreshTokenRepo.WithTx(tx).RevokeAllByUserID(ctx, user.ID); err != nil {
				return err
			}
		}
		return writeAudit(ctx, s.auditRepo.WithTx(tx), actor, auditEntry{
			Action:     models.AuditUserUpdate,
			EntityType: entityUser,
			EntityID:   user.ID,
			Old:        old,
			New:        user.ToResponse(),
		})
	})
	if err != nil {
		return nil, conflictOr(err, "email is already registered")
	}
	return user.ToResponse(), nil
}

// Deactivate disables an account and revokes its sessions; users are never deleted
func (s *UserService) Deactivate(ctx context.Context, actor domain.Actor, id uint) error {
	if err := authorize(actor, actor.IsSuperAdmin(), "manage users"); err != nil {
		return err
	}
	if id == actor.ID {
		return domain.NewValidationError("id", "cannot deactivate your own account")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.userRepo.WithTx(tx)
		user, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}

		user.IsActive = false
		if err := repo.Update(ctx, user); err != nil {
			return err
		}
		if err := s.refreshTokenRepo.WithTx(tx).RevokeAllByUserID(ctx, id); err != nil {
			return err
		}
		return writeAudit(ctx, s.auditRepo.WithTx(tx), actor, auditEntry{
			Action:     models.AuditUserDeactivate,
			EntityType: entityUser,
			EntityID:   id,
			New:        map[string]interface{}{"is_active": false},
		})
	})
}

// UpdateProfile lets any active user edit their own name and email
func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Actor, input *UpdateProfileInput) (*models.UserResponse, error) {
	if err := authorize(actor, true, "update profile"); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.userRepo.WithTx(tx)

		var err error
		user, err = s.load(ctx, repo, actor.ID)
		if err != nil {
			return err
		}
		if input.Email != nil {
			if err := s.applyEmail(ctx, repo, user, *input.Email); err != nil {
				return err
			}
		}
		if input.FirstName != nil {
			user.FirstName = strings.TrimSpace(*input.FirstName)
		}
		if input.LastName != nil {
			user.LastName = strings.TrimSpace(*input.LastName)
		}
		return repo.Update(ctx, user)
	})
	if err != nil {
		return nil, conflictOr(err, "email is already registered")
	}
	return user.ToResponse(), nil
}

// ChangePassword replaces the caller's password and signs out every session
func (s *UserService) ChangePassword(ctx context.Context, actor domain.Actor, oldPassword, newPassword string) error {
	if err := authorize(actor, true, "change password"); err != nil {
		return err
	}

	user, err := s.load(ctx, s.userRepo, actor.ID)
	if err != nil {
		return err
	}
	if !password.Verify(oldPassword, user.Password) {
		return domain.NewValidationError("old_password", "is incorrect")
	}
	if !password.ValidatePassword(newPassword) {
		return domain.NewValidationError("new_password", "must be 8-72 characters")
	}

	hashedPassword, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashedPassword

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Update(ctx, user); err != nil {
			return err
		}
		return s.refreshTokenRepo.WithTx(tx).RevokeAllByUserID(ctx, user.ID)
	})
}

// checkAffiliation enforces that SACCO-side roles have an existing SACCO and ministry roles have none
func (s *UserService) checkAffiliation(ctx context.Context, saccoRepo repositories.SaccoRepository, role domain.Role, saccoID *uint) error {
	if !role.Valid() {
		return domain.NewValidationError("role", "is not a recognised role")
	}
	if role.IsMinistry() {
		if saccoID != nil {
			return domain.NewValidationError("sacco_id", "must be empty for ministry roles")
		}
		return nil
	}
	if saccoID == nil {
		return domain.NewValidationError("sacco_id", "is required for SACCO roles")
	}
	if _, err := saccoRepo.GetByID(ctx, *saccoID); err != nil {
		if repositories.IsNotFound(err) {
			return domain.NewValidationError("sacco_id", "does not exist")
		}
		return err
	}
	return nil
}

func (s *UserService) applyEmail(ctx context.Context, repo repositories.UserRepository, user *models.User, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == user.Email {
		return nil
	}
	if !validEmail(email) {
		return domain.NewValidationError("email", "is not a valid email address")
	}
	other, err := repo.GetByEmail(ctx, email)
	if err == nil && other.ID != user.ID {
		return domain.Conflictf("email %s is already registered", email)
	}
	if err != nil && !repositories.IsNotFound(err) {
		return err
	}
	user.Email = email
	return nil
}

func (s *UserService) load(ctx context.Context, repo repositories.UserRepository, id uint) (*models.User, error) {
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.NotFoundf("user %d", id)
		}
		return nil, err
	}
	return user, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
