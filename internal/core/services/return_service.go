package services

import (
	"context"
	"strings"
	"time"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/adapters/persistence/repositories"
	"sacco-returns/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxMoney is the first value that no longer fits decimal(18,2)
var maxMoney = decimal.New(1, 16)

// ReturnService drives the monthly return workflow
type ReturnService struct {
	db         *gorm.DB
	returnRepo repositories.ReturnRepository
	saccoRepo  repositories.SaccoRepository
	auditRepo  repositories.AuditRepository
	now        clock
}

// NewReturnService creates a new return workflow service
func NewReturnService(
	db *gorm.DB,
	returnRepo repositories.ReturnRepository,
	saccoRepo repositories.SaccoRepository,
	auditRepo repositories.AuditRepository,
) *ReturnService {
	return &ReturnService{
		db:         db,
		returnRepo: returnRepo,
		saccoRepo:  saccoRepo,
		auditRepo:  auditRepo,
		now:        systemClock,
	}
}

// ListReturnsInput represents list returns filters
type ListReturnsInput struct {
	SaccoID   *uint
	Status    domain.ReturnStatus
	FromMonth *time.Time
	ToMonth   *time.Time
	Offset    int
	Limit     int
}

// DocumentInput represents document metadata to attach
type DocumentInput struct {
	DocumentType domain.DocumentType
	FileName     string
	FilePath     string
	FileSize     int64
}

// CreateDraft opens a Draft return for (saccoID, month)
func (s *ReturnService) CreateDraft(ctx context.Context, actor domain.Actor, saccoID uint, reportingMonth time.Time) (*models.MonthlyReturn, error) {
	if err := authorize(actor, actor.CanSubmitReturn(saccoID), "file returns for this SACCO"); err != nil {
		return nil, err
	}
	if reportingMonth.IsZero() {
		return nil, domain.NewValidationError("reporting_month", "is required")
	}
	month := domain.NormalizeMonth(reportingMonth)

	if _, err := s.saccoRepo.GetByID(ctx, saccoID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.NotFoundf("SACCO %d", saccoID)
		}
		return nil, err
	}

	ret := &models.MonthlyReturn{
		SaccoID:        saccoID,
		ReportingMonth: month,
		Status:         domain.StatusDraft,
		CreatedBy:      actor.ID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.returnRepo.WithTx(tx).Create(ctx, ret); err != nil {
			return err
		}
		return writeAudit(ctx, s.auditRepo.WithTx(tx), actor, auditEntry{
			Action:     models.AuditReturnCreate,
			EntityType: entityReturn,
			EntityID:   ret.ID,
			New:        ret,
		})
	})
	if err != nil {
		return nil, conflictOr(err, "a return for "+month.Format("2006-01")+" already exists")
	}

	return ret, nil
}

// Get returns a visible return with its SACCO, financial data and documents
func (s *ReturnService) Get(ctx context.Context, actor domain.Actor, id uint) (*models.MonthlyReturn, error) {
	if _, err := s.loadVisible(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.returnRepo.GetWithDetails(ctx, id)
}

// List lists returns; non-regulators only ever see their own SACCO
func (s *ReturnService) List(ctx context.Context, actor domain.Actor, input *ListReturnsInput) ([]*models.MonthlyReturn, int64, error) {
	if !actor.Active {
		return nil, 0, domain.Forbiddenf("account is inactive")
	}

	filter := repositories.ReturnFilter{
		SaccoID: input.SaccoID,
		Status:  input.Status,
	}
	if input.FromMonth != nil {
		from := domain.NormalizeMonth(*input.FromMonth)
		filter.FromMonth = &from
	}
	if input.ToMonth != nil {
		to := domain.NormalizeMonth(*input.ToMonth)
		filter.ToMonth = &to
	}

	if !actor.IsRegulator() {
		own, ok := actor.SaccoID()
		if !ok {
			return []*models.MonthlyReturn{}, 0, nil
		}
		if input.SaccoID != nil && *input.SaccoID != own {
			return nil, 0, domain.Forbiddenf("not permitted to view returns of this SACCO")
		}
		filter.SaccoID = &own
	}

	return s.returnRepo.List(ctx, filter, input.Offset, input.Limit)
}

// AttachFinancialData sets or replaces the financial figures of a Draft return
func (s *ReturnService) AttachFinancialData(ctx context.Context, actor domain.Actor, returnID uint, data *models.FinancialData) (*models.FinancialData, error) {
	ret, err := s.loadForFiling(ctx, actor, returnID, domain.OpAttachFinancialData)
	if err != nil {
		return nil, err
	}
	if err := validateFinancialData(data); err != nil {
		return nil, err
	}

	data.ReturnID = ret.ID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.returnRepo.WithTx(tx)
		if err := s.guardDraft(ctx, repo, ret.ID, domain.OpAttachFinancialData); err != nil {
			return err
		}
		if err := repo.ReplaceFinancialData(ctx, data); err != nil {
			return err
		}
		return writeAudit(ctx, s.auditRepo.WithTx(tx), actor, auditEntry{
			Action:     models.AuditReturnFinance,
			EntityType: entityReturn,
			EntityID:   ret.ID,
			New:        data,
		})
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// CheckDocumentUpload reports whether actor may attach a document of docType
// to the return right now, so an upload can be refused before it is stored
func (s *ReturnService) CheckDocumentUpload(ctx context.Context, actor domain.Actor, returnID uint, docType domain.DocumentType) error {
	if _, err := s.loadForFiling(ctx, actor, returnID, domain.OpAttachDocument); err != nil {
		return err
	}
	if !docType.Valid() {
		return domain.NewValidationError("document_type", "is not a recognised document type")
	}
	return nil
}

// AttachDocument records supporting document metadata on a Draft return
func (s *ReturnService) AttachDocument(ctx context.Context, actor domain.Actor, returnID uint, input *DocumentInput) (*models.Document, error) {
	ret, err := s.loadForFiling(ctx, actor, returnID, domain.OpAttachDocument)
	if err != nil {
		return nil, err
	}

	switch {
	case !input.DocumentType.Valid():
		return nil, domain.NewValidationError("document_type", "is not a recognised document type")
	case strings.TrimSpace(input.FileName) == "":
		return nil, domain.NewValidationError("file_name", "is required")
	case strings.TrimSpace(input.FilePath) == "":
		return nil, domain.NewValidationError("file_path", "is required")
	case input.FileSize < 0:
		return nil, domain.NewValidationError("file_size", "must be >= 0")
	}

	doc := &models.Document{
		ReturnID:     ret.ID,
		DocumentType: input.DocumentType,
		FileName:     strings.TrimSpace(input.FileName),
		FilePath:     strings.TrimSpace(input.FilePath),
		FileSize:     input.FileSize,
		UploadedBy:   actor.ID,
		UploadDate:   s.now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.returnRepo.WithTx(tx)
		if err := s.guardDraft(ctx, repo, ret.ID, domain.OpAttachDocument); err != nil {
			return err
		}
		if err := repo.AddDocument(ctx, doc); err != nil {
			return err
		}
		return writeAudit(ctx, s.auditRepo.WithTx(tx), actor, auditEntry{
			Action:     models.AuditReturnDocument,
			EntityType: entityReturn,
			EntityID:   ret.ID,
			New:        doc,
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Submit moves a Draft with financial data to Submitted
func (s *ReturnService) Submit(ctx context.Context, actor domain.Actor, returnID uint) (*models.MonthlyReturn, error) {
	ret, err := s.loadForFiling(ctx, actor, returnID, domain.OpSubmit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	submitter := actor.ID
	updates := map[string]interface{}{
		"status":          domain.StatusSubmitted,
		"submitted_by":    &submitter,
		"submission_date": &now,
	}

	return s.transition(ctx, actor, ret, domain.OpSubmit, updates, models.AuditReturnSubmit, func(repo repositories.ReturnRepository) error {
		ok, err := repo.HasFinancialData(ctx, ret.ID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewValidationError("financial_data", "must be attached before submission")
		}
		return nil
	})
}

// BeginReview moves a Submitted return to Under_Review
func (s *ReturnService) BeginReview(ctx context.Context, actor domain.Actor, returnID uint) (*models.MonthlyReturn, error) {
	if err := authorize(actor, actor.CanReviewReturn(), "review returns"); err != nil {
		return nil, err
	}
	ret, err := s.loadVisible(ctx, actor, returnID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(ret.Status, domain.OpBeginReview); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status": domain.StatusUnderReview,
	}
	return s.transition(ctx, actor, ret, domain.OpBeginReview, updates, models.AuditReturnReview, nil)
}

// Decide records the reviewer's decision on an Under_Review return
func (s *ReturnService) Decide(ctx context.Context, actor domain.Actor, returnID uint, decision domain.Decision, notes string) (*models.MonthlyReturn, error) {
	if err := authorize(actor, actor.CanReviewReturn(), "review returns"); err != nil {
		return nil, err
	}
	decision, ok := domain.ParseDecision(string(decision))
	if !ok {
		return nil, domain.NewValidationError("decision", "must be Approved, Rejected or Flagged")
	}
	ret, err := s.loadVisible(ctx, actor, returnID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(ret.Status, domain.OpDecide); err != nil {
		return nil, err
	}

	now := s.now()
	reviewer := actor.ID
	updates := map[string]interface{}{
		"status":       decision.Status(),
		"reviewed_by":  &reviewer,
		"review_date":  &now,
		"review_notes": strings.TrimSpace(notes),
	}
	return s.transition(ctx, actor, ret, domain.OpDecide, updates, models.AuditReturnDecide, nil)
}

// ReopenForResubmission returns a Rejected or Flagged return to Draft.
// Financial data and documents are kept; review fields are cleared.
func (s *ReturnService) ReopenForResubmission(ctx context.Context, actor domain.Actor, returnID uint) (*models.MonthlyReturn, error) {
	ret, err := s.loadForFiling(ctx, actor, returnID, domain.OpReopen)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":       domain.StatusDraft,
		"reviewed_by":  nil,
		"review_date":  nil,
		"review_notes": "",
	}
	return s.transition(ctx, actor, ret, domain.OpReopen, updates, models.AuditReturnReopen, nil)
}

// loadVisible loads a return the actor may see. Non-regulators get Forbidden
// for both missing and foreign returns so ids of other SACCOs are not probed.
func (s *ReturnService) loadVisible(ctx context.Context, actor domain.Actor, id uint) (*models.MonthlyReturn, error) {
	if !actor.Active {
		return nil, domain.Forbiddenf("account is inactive")
	}

	ret, err := s.returnRepo.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			if actor.IsRegulator() {
				return nil, domain.NotFoundf("return %d", id)
			}
			return nil, domain.Forbiddenf("return %d is not accessible", id)
		}
		return nil, err
	}
	if !actor.CanViewSacco(ret.SaccoID) {
		return nil, domain.Forbiddenf("return %d is not accessible", id)
	}
	return ret, nil
}

// loadForFiling loads a return for a SACCO-side operation and checks op against its status
func (s *ReturnService) loadForFiling(ctx context.Context, actor domain.Actor, id uint, op domain.Operation) (*models.MonthlyReturn, error) {
	ret, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanSubmitReturn(ret.SaccoID) {
		return nil, domain.Forbiddenf("not permitted to file returns for this SACCO")
	}
	if err := domain.CheckTransition(ret.Status, op); err != nil {
		return nil, err
	}
	return ret, nil
}

// guardDraft re-asserts Draft inside the tx so edits cannot race a submission
func (s *ReturnService) guardDraft(ctx context.Context, repo repositories.ReturnRepository, id uint, op domain.Operation) error {
	ok, err := repo.Touch(ctx, id, domain.StatusDraft)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return currentStateError(ctx, repo, id, op)
}

// transition applies updates if the return is still in the status it was read
// with, runs check inside the same tx, then writes the audit row
func (s *ReturnService) transition(
	ctx context.Context,
	actor domain.Actor,
	ret *models.MonthlyReturn,
	op domain.Operation,
	updates map[string]interface{},
	action string,
	check func(repo repositories.ReturnRepository) error,
) (*models.MonthlyReturn, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.returnRepo.WithTx(tx)

		ok, err := repo.CompareAndSetStatus(ctx, ret.ID, ret.Status, updates)
		if err != nil {
			return err
		}
		if !ok {
			return currentStateError(ctx, repo, ret.ID, op)
		}
		if check != nil {
			if err := check(repo); err != nil {
				return err
			}
		}

		return writeAudit(ctx, s.auditRepo.WithTx(tx), actor, auditEntry{
			Action:     action,
			EntityType: entityReturn,
			EntityID:   ret.ID,
			Old:        map[string]interface{}{"status": ret.Status},
			New:        updates,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.returnRepo.GetWithDetails(ctx, ret.ID)
}

func currentStateError(ctx context.Context, repo repositories.ReturnRepository, id uint, op domain.Operation) error {
	current, err := repo.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.NotFoundf("return %d", id)
		}
		return err
	}
	return &domain.StateError{Operation: string(op), Current: current.Status}
}

// validateFinancialData rejects negative or over-precise figures instead of rounding them
func validateFinancialData(data *models.FinancialData) error {
	if data == nil {
		return domain.NewValidationError("financial_data", "is required")
	}
	for _, f := range data.MonetaryFields() {
		switch {
		case f.Value.IsNegative():
			return domain.NewValidationError(f.Name, "must be >= 0")
		case !f.Value.Equal(f.Value.Round(2)):
			return domain.NewValidationError(f.Name, "must have at most 2 decimal places")
		case f.Value.GreaterThanOrEqual(maxMoney):
			return domain.NewValidationError(f.Name, "is too large")
		}
	}
	for _, f := range data.CountFields() {
		if f.Value < 0 {
			return domain.NewValidationError(f.Name, "must be >= 0")
		}
	}
	for _, f := range data.RatioFields() {
		switch {
		case f.Value.IsNegative() || f.Value.GreaterThan(decimal.NewFromInt(100)):
			return domain.NewValidationError(f.Name, "must be between 0 and 100")
		case !f.Value.Equal(f.Value.Round(2)):
			return domain.NewValidationError(f.Name, "must have at most 2 decimal places")
		}
	}
	return nil
}
