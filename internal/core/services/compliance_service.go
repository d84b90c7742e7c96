package services

import (
	"context"
	"encoding/json"
	"time"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/adapters/persistence/repositories"
	"sacco-returns/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// ComplianceWindowMonths is the look-back used for the compliance rate
	ComplianceWindowMonths = 3
	// LowComplianceThreshold is the number of returns below which a SACCO is flagged
	LowComplianceThreshold = 2

	ministrySummaryTTL = 60 * time.Second
)

// ComplianceService answers read-only compliance questions
type ComplianceService struct {
	db        *gorm.DB
	saccoRepo repositories.SaccoRepository
	rdb       *redis.Client
	now       clock
}

// NewComplianceService creates a new compliance service; rdb may be nil
func NewComplianceService(db *gorm.DB, saccoRepo repositories.SaccoRepository, rdb *redis.Client) *ComplianceService {
	return &ComplianceService{
		db:        db,
		saccoRepo: saccoRepo,
		rdb:       rdb,
		now:       systemClock,
	}
}

// ComplianceStanding is one SACCO's filing record over the window
type ComplianceStanding struct {
	Sacco       *models.Sacco   `json:"sacco"`
	Submissions int64           `json:"submissions"`
	Rate        decimal.Decimal `json:"compliance_rate"`
}

// SaccoSummary represents the dashboard figures of one SACCO
type SaccoSummary struct {
	Sacco          *models.Sacco         `json:"sacco"`
	TotalReturns   int64                 `json:"total_returns"`
	ApprovedCount  int64                 `json:"approved_returns"`
	PendingCount   int64                 `json:"pending_returns"`
	DraftCount     int64                 `json:"draft_returns"`
	ComplianceRate decimal.Decimal       `json:"compliance_rate"`
	LatestReturn   *models.MonthlyReturn `json:"latest_return"`
}

// MinistrySummary represents the regulator-wide dashboard figures
type MinistrySummary struct {
	TotalSaccos        int64           `json:"total_saccos"`
	ActiveSaccos       int64           `json:"active_saccos"`
	TotalReturns       int64           `json:"total_returns"`
	ApprovedReturns    int64           `json:"approved_returns"`
	PendingReview      int64           `json:"pending_review"`
	SubmittedThisMonth int64           `json:"submitted_this_month"`
	CurrentMonth       string          `json:"current_month"`
	MonthlyRate        decimal.Decimal `json:"monthly_compliance_rate"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// RateFor converts a submission count into a percentage of the window, capped at 100
func RateFor(submissions int64) decimal.Decimal {
	if submissions <= 0 {
		return decimal.Zero
	}
	rate := decimal.NewFromInt(submissions).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(ComplianceWindowMonths)).
		Round(2)
	hundred := decimal.NewFromInt(100)
	if rate.GreaterThan(hundred) {
		return hundred
	}
	return rate
}

// windowStart is the first reporting month counted for a window ending at
// now; the current month is the last of the window's months
func windowStart(now time.Time, months int) time.Time {
	if months <= 0 {
		months = ComplianceWindowMonths
	}
	return domain.NormalizeMonth(now).AddDate(0, -(months - 1), 0)
}

// ComplianceRate returns the SACCO's percentage of non-Draft returns over the
// last windowMonths reporting months; windowMonths <= 0 uses the default window
func (s *ComplianceService) ComplianceRate(ctx context.Context, actor domain.Actor, saccoID uint, windowMonths int) (decimal.Decimal, error) {
	if _, err := s.visibleSacco(ctx, actor, saccoID); err != nil {
		return decimal.Zero, err
	}

	submissions, err := s.countFiled(ctx, saccoID, windowStart(s.now(), windowMonths))
	if err != nil {
		return decimal.Zero, err
	}
	return RateFor(submissions), nil
}

// LowComplianceSaccos lists active SACCOs with fewer than LowComplianceThreshold
// non-Draft returns in the window; regulators only
func (s *ComplianceService) LowComplianceSaccos(ctx context.Context, actor domain.Actor) ([]*ComplianceStanding, error) {
	if err := authorize(actor, actor.IsRegulator(), "view ministry compliance"); err != nil {
		return nil, err
	}

	standings, err := s.standings(ctx, true)
	if err != nil {
		return nil, err
	}

	low := make([]*ComplianceStanding, 0, len(standings))
	for _, st := range standings {
		if st.Submissions < LowComplianceThreshold {
			low = append(low, st)
		}
	}
	return low, nil
}

// Standings returns every SACCO's filing record over the window; regulators only
func (s *ComplianceService) Standings(ctx context.Context, actor domain.Actor) ([]*ComplianceStanding, error) {
	if err := authorize(actor, actor.IsRegulator(), "view ministry compliance"); err != nil {
		return nil, err
	}
	return s.standings(ctx, false)
}

// PendingReviewCount counts Submitted and Under_Review returns; regulators only
func (s *ComplianceService) PendingReviewCount(ctx context.Context, actor domain.Actor) (int64, error) {
	if err := authorize(actor, actor.IsRegulator(), "view ministry compliance"); err != nil {
		return 0, err
	}
	return s.countPending(ctx)
}

// OverdueSaccos lists active SACCOs with no non-Draft return for month; regulators only
func (s *ComplianceService) OverdueSaccos(ctx context.Context, actor domain.Actor, month time.Time) ([]*models.Sacco, error) {
	if err := authorize(actor, actor.IsRegulator(), "view ministry compliance"); err != nil {
		return nil, err
	}

	month = domain.NormalizeMonth(month)
	var filed []uint
	err := s.db.WithContext(ctx).
		Model(&models.MonthlyReturn{}).
		Where("reporting_month = ? AND status <> ?", month, domain.StatusDraft).
		Pluck("sacco_id", &filed).Error
	if err != nil {
		return nil, err
	}
	done := make(map[uint]bool, len(filed))
	for _, id := range filed {
		done[id] = true
	}

	saccos, err := s.saccoRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	overdue := make([]*models.Sacco, 0)
	for _, sacco := range saccos {
		if !done[sacco.ID] {
			overdue = append(overdue, sacco)
		}
	}
	return overdue, nil
}

// SaccoSummary returns dashboard figures for one visible SACCO
func (s *ComplianceService) SaccoSummary(ctx context.Context, actor domain.Actor, saccoID uint) (*SaccoSummary, error) {
	sacco, err := s.visibleSacco(ctx, actor, saccoID)
	if err != nil {
		return nil, err
	}

	summary := &SaccoSummary{Sacco: sacco}
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.MonthlyReturn{}).Where("sacco_id = ?", saccoID)
	}
	if err := base().Count(&summary.TotalReturns).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", domain.StatusApproved).Count(&summary.ApprovedCount).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status IN ?", domain.PendingReviewStatuses).Count(&summary.PendingCount).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", domain.StatusDraft).Count(&summary.DraftCount).Error; err != nil {
		return nil, err
	}

	var latest models.MonthlyReturn
	err = base().Order("reporting_month DESC").Limit(1).Find(&latest).Error
	if err != nil {
		return nil, err
	}
	if latest.ID != 0 {
		summary.LatestReturn = &latest
	}

	submissions, err := s.countFiled(ctx, saccoID, windowStart(s.now(), ComplianceWindowMonths))
	if err != nil {
		return nil, err
	}
	summary.ComplianceRate = RateFor(submissions)

	return summary, nil
}

// MinistrySummary returns regulator-wide figures, cached in Redis when configured
func (s *ComplianceService) MinistrySummary(ctx context.Context, actor domain.Actor) (*MinistrySummary, error) {
	if err := authorize(actor, actor.IsRegulator(), "view ministry compliance"); err != nil {
		return nil, err
	}

	now := s.now()
	month := domain.NormalizeMonth(now)
	cacheKey := "compliance:ministry:" + month.Format("2006-01")

	if s.rdb != nil {
		// a miss (redis.Nil) or a Redis outage both fall through to the database
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var summary MinistrySummary
			if json.Unmarshal(cached, &summary) == nil {
				return &summary, nil
			}
		}
	}

	summary := &MinistrySummary{
		CurrentMonth: month.Format("2006-01"),
		GeneratedAt:  now,
	}
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Sacco{}).Count(&summary.TotalSaccos).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Sacco{}).Where("status = ?", domain.SaccoActive).Count(&summary.ActiveSaccos).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.MonthlyReturn{}).Count(&summary.TotalReturns).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.MonthlyReturn{}).Where("status = ?", domain.StatusApproved).Count(&summary.ApprovedReturns).Error; err != nil {
		return nil, err
	}
	pending, err := s.countPending(ctx)
	if err != nil {
		return nil, err
	}
	summary.PendingReview = pending

	err = db.Model(&models.MonthlyReturn{}).
		Where("reporting_month = ? AND status <> ?", month, domain.StatusDraft).
		Count(&summary.SubmittedThisMonth).Error
	if err != nil {
		return nil, err
	}

	summary.MonthlyRate = decimal.Zero
	if summary.ActiveSaccos > 0 {
		summary.MonthlyRate = decimal.NewFromInt(summary.SubmittedThisMonth).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(summary.ActiveSaccos)).
			Round(2)
		if hundred := decimal.NewFromInt(100); summary.MonthlyRate.GreaterThan(hundred) {
			summary.MonthlyRate = hundred
		}
	}

	if s.rdb != nil {
		if data, err := json.Marshal(summary); err == nil {
			s.rdb.Set(ctx, cacheKey, data, ministrySummaryTTL)
		}
	}

	return summary, nil
}

// visibleSacco loads a SACCO after the visibility check; regulators see NotFound for missing ids
func (s *ComplianceService) visibleSacco(ctx context.Context, actor domain.Actor, saccoID uint) (*models.Sacco, error) {
	if err := authorize(actor, actor.CanViewSacco(saccoID), "view this SACCO"); err != nil {
		return nil, err
	}
	sacco, err := s.saccoRepo.GetByID(ctx, saccoID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, domain.NotFoundf("SACCO %d", saccoID)
		}
		return nil, err
	}
	return sacco, nil
}

// countFiled counts distinct reporting months with a non-Draft return since from
func (s *ComplianceService) countFiled(ctx context.Context, saccoID uint, from time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.MonthlyReturn{}).
		Where("sacco_id = ? AND status <> ? AND reporting_month >= ?", saccoID, domain.StatusDraft, from).
		Count(&count).Error
	return count, err
}

func (s *ComplianceService) countPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.MonthlyReturn{}).
		Where("status IN ?", domain.PendingReviewStatuses).
		Count(&count).Error
	return count, err
}

// standings computes every (or every active) SACCO's window record in two queries
func (s *ComplianceService) standings(ctx context.Context, activeOnly bool) ([]*ComplianceStanding, error) {
	var rows []struct {
		SaccoID     uint
		Submissions int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.MonthlyReturn{}).
		Select("sacco_id, COUNT(*) AS submissions").
		Where("status <> ? AND reporting_month >= ?", domain.StatusDraft, windowStart(s.now(), ComplianceWindowMonths)).
		Group("sacco_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.SaccoID] = r.Submissions
	}

	var saccos []*models.Sacco
	if activeOnly {
		saccos, err = s.saccoRepo.ListActive(ctx)
	} else {
		saccos, err = s.saccoRepo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	standings := make([]*ComplianceStanding, 0, len(saccos))
	for _, sacco := range saccos {
		n := counts[sacco.ID]
		standings = append(standings, &ComplianceStanding{
			Sacco:       sacco,
			Submissions: n,
			Rate:        RateFor(n),
		})
	}
	return standings, nil
}
