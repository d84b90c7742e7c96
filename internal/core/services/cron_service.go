package services

import (
	"context"
	"log"
	"time"

	"sacco-returns/internal/core/domain"

	"github.com/robfig/cron/v3"
)

// returnDueDay is the day of month by which the previous month's return is due
const returnDueDay = 10

// CronService runs the daily compliance sweep
type CronService struct {
	cron       *cron.Cron
	spec       string
	compliance *ComplianceService
	auth       *AuthService
	now        clock
}

// SweepResult summarises one daily sweep
type SweepResult struct {
	PendingReview int64
	LowCompliance []*ComplianceStanding
	Overdue       []string
	PurgedTokens  int64
}

// NewCronService creates the scheduler; spec uses the standard 5-field cron format
func NewCronService(spec string, compliance *ComplianceService, auth *AuthService) *CronService {
	return &CronService{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		spec:       spec,
		compliance: compliance,
		auth:       auth,
		now:        systemClock,
	}
}

// Start registers the sweep and starts the scheduler
func (s *CronService) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.RunDailySweep(ctx); err != nil {
			log.Printf("❌ Daily compliance sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("⏰ Cron scheduler started [%s]", s.spec)
	return nil
}

// Stop waits for a running sweep to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("⏰ Cron scheduler stopped")
}

// RunDailySweep reports pending reviews, low compliance and overdue SACCOs, then purges expired refresh tokens
func (s *CronService) RunDailySweep(ctx context.Context) (*SweepResult, error) {
	actor := domain.SystemActor()
	now := s.now()
	result := &SweepResult{}

	log.Println("🔄 Running daily compliance sweep...")

	pending, err := s.compliance.PendingReviewCount(ctx, actor)
	if err != nil {
		return nil, err
	}
	result.PendingReview = pending
	log.Printf("📋 Returns awaiting review: %d", pending)

	low, err := s.compliance.LowComplianceSaccos(ctx, actor)
	if err != nil {
		return nil, err
	}
	result.LowCompliance = low
	for _, st := range low {
		log.Printf("⚠️ Low compliance: %s (%s) %d/%d returns, rate %s%%",
			st.Sacco.Name, st.Sacco.RegistrationNumber, st.Submissions, ComplianceWindowMonths, st.Rate.StringFixed(2))
	}

	if now.Day() > returnDueDay {
		month := domain.NormalizeMonth(now).AddDate(0, -1, 0)
		overdue, err := s.compliance.OverdueSaccos(ctx, actor, month)
		if err != nil {
			return nil, err
		}
		for _, sacco := range overdue {
			result.Overdue = append(result.Overdue, sacco.Name)
			log.Printf("⏳ Overdue %s return: %s (%s)", month.Format("2006-01"), sacco.Name, sacco.RegistrationNumber)
		}
	}

	purged, err := s.auth.PurgeExpiredTokens(ctx)
	if err != nil {
		return nil, err
	}
	result.PurgedTokens = purged

	log.Printf("✅ Daily sweep done: %d pending, %d low compliance, %d overdue, %d tokens purged",
		result.PendingReview, len(result.LowCompliance), len(result.Overdue), result.PurgedTokens)
	return result, nil
}
