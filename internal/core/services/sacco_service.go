package services

import (
	"context"
	"strings"
	"time"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/adapters/persistence/repositories"
	"sacco-returns/internal/core/domain"

	"gorm.io/gorm"
)

// SaccoService handles the SACCO registry
type SaccoService struct {
	db        *gorm.DB
	saccoRepo repositories.SaccoRepository
	auditRepo repositories.AuditRepository
	now       clock
}

// NewSaccoService creates a new SACCO service
func NewSaccoService(
	db *gorm.DB,
	saccoRepo repositories.SaccoRepository,
	auditRepo repositories.AuditRepository,
) *SaccoService {
	return &SaccoService{
		db:        db,
		saccoRepo: saccoRepo,
		auditRepo: auditRepo,
		now:       systemClock,
	}
}

// SaccoInput represents create/update SACCO input
type SaccoInput struct {
	RegistrationNumber string
	Name               string
	County             string
	SubCounty          string
	RegistrationDate   time.Time
	SaccoType          domain.SaccoType
	ContactPerson      string
	Phone              string
	Email              string
	Address            string
	// Status is honoured on update only; empty keeps the current value
	Status domain.SaccoStatus
}

func (in *SaccoInput) trim() {
	in.RegistrationNumber = strings.TrimSpace(in.RegistrationNumber)
	in.Name = strings.TrimSpace(in.Name)
	in.County = strings.TrimSpace(in.County)
	in.SubCounty = strings.TrimSpace(in.SubCounty)
	in.ContactPerson = strings.TrimSpace(in.ContactPerson)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
}

// validate reports the first violated field
func (in *SaccoInput) validate(today time.Time) error {
	checks := []struct{ field, value string }{
		{"registration_number", in.RegistrationNumber},
		{"name", in.Name},
		{"county", in.County},
		{"contact_person", in.ContactPerson},
		{"phone", in.Phone},
	}
	for _, c := range checks {
		if err := required(c.field, c.value); err != nil {
			return err
		}
	}
	if in.RegistrationDate.IsZero() {
		return domain.NewValidationError("registration_date", "is required")
	}
	if domain.NormalizeDate(in.RegistrationDate).After(domain.NormalizeDate(today)) {
		return domain.NewValidationError("registration_date", "cannot be in the future")
	}
	if !in.SaccoType.Valid() {
		return domain.NewValidationError("sacco_type", "must be Deposit_Taking or Non_DT")
	}
	if in.Status != "" && in.Status != domain.SaccoActive && in.Status != domain.SaccoInactive {
		return domain.NewValidationError("status", "must be Active or Inactive")
	}
	return nil
}

func (in *SaccoInput) applyTo(sacco *models.Sacco) {
	sacco.RegistrationNumber = in.RegistrationNumber
	sacco.Name = in.Name
	sacco.County = in.County
	sacco.SubCounty = in.SubCounty
	sacco.RegistrationDate = domain.NormalizeDate(in.RegistrationDate)
	sacco.SaccoType = in.SaccoType
	sacco.ContactPerson = in.ContactPerson
	sacco.Phone = in.Phone
	sacco.Email = in.Email
	sacco.Address = in.Address
	if in.Status != "" {
		sacco.Status = in.Status
	}
}

// Create registers a new SACCO; System_Admin only
func (s *SaccoService) Create(ctx context.Context, actor domain.Actor, input *SaccoInput) (*models.Sacco, error) {
	if err := authorize(actor, actor.IsSuperAdmin(), "create SACCOs"); err != nil {
		return nil, err
	}

	input.trim()
	now := s.now()
	if err := input.validate(now); err != nil {
		return nil, err
	}

	exists, err := s.saccoRepo.ExistsByRegistrationNumber(ctx, input.RegistrationNumber, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.Conflictf("registration number %s is already registered", input.RegistrationNumber)
	}

	sacco := &models.Sacco{
		Status:    domain.SaccoActive,
		CreatedBy: actor.DisplayName(),
		UpdatedBy: actor.DisplayName(),
	}
	input.Status = ""
	input.applyTo(sacco)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.saccoRepo.WithTx(tx).Create(ctx, sacco); err != nil {
			return err
		}
		return writeAudit(ctx, s.auditRepo.WithTx(tx), actor, auditEntry{
			Action:     models.AuditSaccoCreate,
			EntityType: entitySacco,
			EntityID:   sacco.ID,
			New:        sacco,
		})
	})
	if err != nil {
		return nil, conflictOr(err, "registration number "+input.RegistrationNumber+" is already registered")
	}

	return sacco, nil
}

// GetByID gets a SACCO visible to actor
func (s *SaccoService) GetByID(ctx context.Context, actor domain.Actor, id uint) (*models.Sacco, error) {
	if err := authorize(actor, actor.CanViewSacco(id), "view this SACCO"); err != nil {
		return nil, err
	}

	sacco, err := s.saccoRepo.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.NotFoundf("SACCO %d", id)
		}
		return nil, err
	}
	return sacco, nil
}

// Update replaces the editable SACCO fields
func (s *SaccoService) Update(ctx context.Context, actor domain.Actor, id uint, input *SaccoInput) (*models.Sacco, error) {
	if err := authorize(actor, actor.CanEditSacco(), "edit SACCOs"); err != nil {
		return nil, err
	}

	input.trim()
	if err := input.validate(s.now()); err != nil {
		return nil, err
	}

	var sacco *models.Sacco
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.saccoRepo.WithTx(tx)

		var err error
		sacco, err = repo.GetByID(ctx, id)
		if err != nil {
			if repositories.IsNotFound(err) {
				return domain.NotFoundf("SACCO %d", id)
			}
			return err
		}

		if input.RegistrationNumber != sacco.RegistrationNumber {
			exists, err := repo.ExistsByRegistrationNumber(ctx, input.RegistrationNumber, id)
			if err != nil {
				return err
			}
			if exists {
				return domain.Conflictf("registration number %s is already registered", input.RegistrationNumber)
			}
		}

		old := *sacco
		input.applyTo(sacco)
		sacco.UpdatedBy = actor.DisplayName()
		if err := repo.Update(ctx, sacco); err != nil {
			return err
		}
		return writeAudit(ctx, s.auditRepo.WithTx(tx), actor, auditEntry{
			Action:     models.AuditSaccoUpdate,
			EntityType: entitySacco,
			EntityID:   id,
			Old:        &old,
			New:        sacco,
		})
	})
	if err != nil {
		return nil, conflictOr(err, "registration number "+input.RegistrationNumber+" is already registered")
	}

	return sacco, nil
}

// Delete removes a SACCO that has no users and no returns
func (s *SaccoService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	if err := authorize(actor, actor.IsSuperAdmin(), "delete SACCOs"); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.saccoRepo.WithTx(tx)

		sacco, err := repo.GetByID(ctx, id)
		if err != nil {
			if repositories.IsNotFound(err) {
				return domain.NotFoundf("SACCO %d", id)
			}
			return err
		}

		users, err := repo.CountUsers(ctx, id)
		if err != nil {
			return err
		}
		if users > 0 {
			return domain.Conflictf("SACCO %s has dependent users", sacco.RegistrationNumber)
		}

		returns, err := repo.CountReturns(ctx, id)
		if err != nil {
			return err
		}
		if returns > 0 {
			return domain.Conflictf("SACCO %s has dependent returns", sacco.RegistrationNumber)
		}

		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return writeAudit(ctx, s.auditRepo.WithTx(tx), actor, auditEntry{
			Action:     models.AuditSaccoDelete,
			EntityType: entitySacco,
			EntityID:   id,
			Old:        sacco,
		})
	})
}

// ToggleStatus flips a SACCO between Active and Inactive
func (s *SaccoService) ToggleStatus(ctx context.Context, actor domain.Actor, id uint) (*models.Sacco, error) {
	if err := authorize(actor, actor.CanEditSacco(), "change SACCO status"); err != nil {
		return nil, err
	}

	var sacco *models.Sacco
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.saccoRepo.WithTx(tx)

		var err error
		sacco, err = repo.GetByID(ctx, id)
		if err != nil {
			if repositories.IsNotFound(err) {
				return domain.NotFoundf("SACCO %d", id)
			}
			return err
		}

		previous := sacco.Status
		sacco.Status = previous.Toggle()
		sacco.UpdatedBy = actor.DisplayName()
		if err := repo.Update(ctx, sacco); err != nil {
			return err
		}
		return writeAudit(ctx, s.auditRepo.WithTx(tx), actor, auditEntry{
			Action:     models.AuditSaccoToggle,
			EntityType: entitySacco,
			EntityID:   id,
			Old:        map[string]interface{}{"status": previous},
			New:        map[string]interface{}{"status": sacco.Status},
		})
	})
	if err != nil {
		return nil, err
	}
	return sacco, nil
}

// ListVisibleTo lists every SACCO for regulators and the own SACCO otherwise.
// Actors with neither get an empty list.
func (s *SaccoService) ListVisibleTo(ctx context.Context, actor domain.Actor) ([]*models.Sacco, error) {
	if !actor.Active {
		return []*models.Sacco{}, nil
	}
	if actor.IsRegulator() {
		return s.saccoRepo.List(ctx)
	}

	id, ok := actor.SaccoID()
	if !ok {
		return []*models.Sacco{}, nil
	}
	sacco, err := s.saccoRepo.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return []*models.Sacco{}, nil
		}
		return nil, err
	}
	return []*models.Sacco{sacco}, nil
}

// Search filters the visible SACCOs by a case-insensitive substring of
// registration number, name, county or contact person. A blank term returns
// everything visible.
func (s *SaccoService) Search(ctx context.Context, actor domain.Actor, term string) ([]*models.Sacco, error) {
	saccos, err := s.ListVisibleTo(ctx, actor)
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return saccos, nil
	}

	matches := make([]*models.Sacco, 0, len(saccos))
	for _, sacco := range saccos {
		if strings.Contains(strings.ToLower(sacco.Name), term) ||
			strings.Contains(strings.ToLower(sacco.RegistrationNumber), term) ||
			strings.Contains(strings.ToLower(sacco.County), term) ||
			strings.Contains(strings.ToLower(sacco.ContactPerson), term) {
			matches = append(matches, sacco)
		}
	}
	return matches, nil
}
