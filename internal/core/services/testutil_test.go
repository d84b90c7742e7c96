package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/adapters/persistence/repositories"
	"sacco-returns/internal/config"
	"sacco-returns/internal/core/domain"
	"sacco-returns/internal/pkg/password"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq int64

// fixedNow is the clock used by every fixture: mid-June 2024
var fixedNow = time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db         *gorm.DB
	saccos     *SaccoService
	returns    *ReturnService
	compliance *ComplianceService
	users      *UserService
	auth       *AuthService
	reports    *ReportService
	auditRepo  repositories.AuditRepository
	userRepo   repositories.UserRepository

	admin      domain.Actor
	analyst    domain.Actor
	supervisor domain.Actor
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("%s_%d", strings.ReplaceAll(t.Name(), "/", "_"), atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	password.Cost = bcrypt.MinCost

	db := newTestDB(t)
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewRefreshTokenRepository(db)
	saccoRepo := repositories.NewSaccoRepository(db)
	returnRepo := repositories.NewReturnRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	f := &fixture{
		db:         db,
		saccos:     NewSaccoService(db, saccoRepo, auditRepo),
		returns:    NewReturnService(db, returnRepo, saccoRepo, auditRepo),
		compliance: NewComplianceService(db, saccoRepo, nil),
		users:      NewUserService(db, userRepo, saccoRepo, tokenRepo, auditRepo),
		auth: NewAuthService(db, userRepo, tokenRepo, config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		}),
		auditRepo: auditRepo,
		userRepo:  userRepo,
	}
	f.reports = NewReportService(db, f.compliance)

	stopped := func() time.Time { return fixedNow }
	f.saccos.now = stopped
	f.returns.now = stopped
	f.compliance.now = stopped

	f.admin = f.seedUser(t, "admin", domain.RoleSystemAdmin, nil)
	f.analyst = f.seedUser(t, "analyst", domain.RoleAnalyst, nil)
	f.supervisor = f.seedUser(t, "supervisor", domain.RoleSupervisor, nil)
	return f
}

// seedUser inserts a user directly, bypassing registration rules
func (f *fixture) seedUser(t *testing.T, username string, role domain.Role, saccoID *uint) domain.Actor {
	t.Helper()
	hash, err := password.Hash("password123")
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		Email:    username + "@example.org",
		Password: hash,
		Role:     role,
		SaccoID:  saccoID,
		IsActive: true,
	}
	require.NoError(t, f.userRepo.Create(context.Background(), user))
	return user.Actor()
}

func (f *fixture) createSacco(t *testing.T, regNo, name string) *models.Sacco {
	t.Helper()
	sacco, err := f.saccos.Create(context.Background(), f.admin, saccoInput(regNo, name))
	require.NoError(t, err)
	return sacco
}

// staff creates a SACCO-scoped actor for saccoID
func (f *fixture) staff(t *testing.T, username string, role domain.Role, saccoID uint) domain.Actor {
	t.Helper()
	id := saccoID
	return f.seedUser(t, username, role, &id)
}

// filedReturn drives a return to Submitted for month
func (f *fixture) filedReturn(t *testing.T, clerk domain.Actor, saccoID uint, month time.Time) *models.MonthlyReturn {
	t.Helper()
	ctx := context.Background()

	ret, err := f.returns.CreateDraft(ctx, clerk, saccoID, month)
	require.NoError(t, err)
	_, err = f.returns.AttachFinancialData(ctx, clerk, ret.ID, sampleFinancials())
	require.NoError(t, err)
	ret, err = f.returns.Submit(ctx, clerk, ret.ID)
	require.NoError(t, err)
	return ret
}

// underReview drives a return to Under_Review for month
func (f *fixture) underReview(t *testing.T, clerk domain.Actor, saccoID uint, month time.Time) *models.MonthlyReturn {
	t.Helper()
	ret := f.filedReturn(t, clerk, saccoID, month)
	ret, err := f.returns.BeginReview(context.Background(), f.analyst, ret.ID)
	require.NoError(t, err)
	return ret
}

func saccoInput(regNo, name string) *SaccoInput {
	return &SaccoInput{
		RegistrationNumber: regNo,
		Name:               name,
		County:             "Nairobi",
		SubCounty:          "Westlands",
		RegistrationDate:   time.Date(2010, time.May, 4, 0, 0, 0, 0, time.UTC),
		SaccoType:          domain.SaccoDepositTaking,
		ContactPerson:      "Jane Wanjiku",
		Phone:              "+254700000000",
		Email:              "info@" + strings.ToLower(name) + ".co.ke",
	}
}

func money(s string) models.Money {
	return models.NewMoney(decimal.RequireFromString(s))
}

func sampleFinancials() *models.FinancialData {
	d := money
	return &models.FinancialData{
		ShareCapital:           d("1500000.00"),
		MemberDeposits:         d("4200000.50"),
		TotalAssets:            d("9800000.00"),
		TotalLiabilities:       d("3100000.00"),
		TotalMembers:           1200,
		NewMembers:             35,
		ExitedMembers:          4,
		TotalLoansCumulative:   d("22000000.00"),
		LoansIssuedMonthly:     d("650000.00"),
		LoansRepaidMonthly:     d("480000.00"),
		OutstandingLoanBalance: d("5400000.00"),
		NumberOfLoanees:        410,
		InterestEarnedMonthly:  d("12345.67"),
		PAR30:                  d("4.50"),
		PAR60:                  d("2.25"),
		PAR90:                  d("1.10"),
		TotalIncomeMonthly:     d("98000.00"),
		TotalExpensesMonthly:   d("61000.00"),
	}
}

func ym(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func auditActions(t *testing.T, f *fixture, entityType string, id uint) []string {
	t.Helper()
	entries, err := f.auditRepo.ListByEntity(context.Background(), entityType, id)
	require.NoError(t, err)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}
