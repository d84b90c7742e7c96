package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireStateError(t *testing.T, err error, current domain.ReturnStatus) {
	t.Helper()
	var se *domain.StateError
	require.True(t, errors.As(err, &se), "want StateError, got %v", err)
	assert.Equal(t, current, se.Current)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func requireValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
	assert.Equal(t, field, ve.Field)
}

func TestReturnLifecycleToApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)

	ret, err := f.returns.CreateDraft(ctx, clerk, alpha.ID, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, ret.Status)
	assert.Equal(t, clerk.ID, ret.CreatedBy)

	_, err = f.returns.AttachFinancialData(ctx, clerk, ret.ID, sampleFinancials())
	require.NoError(t, err)

	ret, err = f.returns.Submit(ctx, clerk, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, ret.Status)
	require.NotNil(t, ret.SubmittedBy)
	assert.Equal(t, clerk.ID, *ret.SubmittedBy)
	require.NotNil(t, ret.SubmissionDate)
	assert.True(t, fixedNow.Equal(*ret.SubmissionDate))

	ret, err = f.returns.BeginReview(ctx, f.analyst, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnderReview, ret.Status)

	ret, err = f.returns.Decide(ctx, f.supervisor, ret.ID, domain.DecisionApproved, " ok ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, ret.Status)
	require.NotNil(t, ret.ReviewedBy)
	assert.Equal(t, f.supervisor.ID, *ret.ReviewedBy)
	assert.Equal(t, "ok", ret.ReviewNotes)
	require.NotNil(t, ret.ReviewDate)

	// the (sacco, month) slot stays taken whoever asks
	manager := f.staff(t, "manager", domain.RoleSaccoManager, alpha.ID)
	_, err = f.returns.CreateDraft(ctx, manager, alpha.ID, time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.Equal(t, []string{
		"RETURN_CREATE_DRAFT",
		"RETURN_ATTACH_FINANCIAL_DATA",
		"RETURN_SUBMIT",
		"RETURN_BEGIN_REVIEW",
		"RETURN_DECIDE",
	}, auditActions(t, f, entityReturn, ret.ID))
}

func TestCreateDraftNormalizesMonth(t *testing.T) {
	f := newFixture(t)
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleAccountsOfficer, alpha.ID)

	ret, err := f.returns.CreateDraft(context.Background(), clerk, alpha.ID, time.Date(2024, time.April, 27, 16, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ym(2024, time.April).Equal(ret.ReportingMonth))
}

func TestCreateDraftRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	beta := f.createSacco(t, "REG-002", "Beta")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)

	_, err := f.returns.CreateDraft(ctx, clerk, beta.ID, ym(2024, time.March))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.returns.CreateDraft(ctx, f.admin, alpha.ID, ym(2024, time.March))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.returns.CreateDraft(ctx, clerk, alpha.ID, time.Time{})
	requireValidationField(t, err, "reporting_month")

	// an affiliation that outlived its SACCO
	missing := uint(9999)
	ghost := domain.Actor{ID: clerk.ID, Username: "ghost", Role: domain.RoleSaccoManager, AffiliatedSaccoID: &missing, Active: true}
	_, err = f.returns.CreateDraft(ctx, ghost, 9999, ym(2024, time.March))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	inactive := clerk
	inactive.Active = false
	_, err = f.returns.CreateDraft(ctx, inactive, alpha.ID, ym(2024, time.March))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestConcurrentCreateDraftSingleWinner(t *testing.T) {
	f := newFixture(t)
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.returns.CreateDraft(context.Background(), clerk, alpha.ID, ym(2024, time.May))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, wins)
}

func TestConcurrentDecisionsSingleWinner(t *testing.T) {
	f := newFixture(t)
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)
	ret := f.underReview(t, clerk, alpha.ID, ym(2024, time.May))

	decisions := []domain.Decision{domain.DecisionApproved, domain.DecisionRejected, domain.DecisionFlagged}
	const n = 6
	results := make([]*models.MonthlyReturn, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.returns.Decide(context.Background(), f.supervisor, ret.ID, decisions[i%len(decisions)], "")
		}(i)
	}
	wg.Wait()

	var winner *models.MonthlyReturn
	for i, err := range errs {
		if err == nil {
			require.Nil(t, winner, "more than one decision committed")
			winner = results[i]
		}
	}
	require.NotNil(t, winner)
	for _, err := range errs {
		if err != nil {
			requireStateError(t, err, winner.Status)
		}
	}

	got, err := f.returns.Get(context.Background(), f.supervisor, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, winner.Status, got.Status)
}

func TestConcurrentBeginReviewAndDecide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)
	ret := f.filedReturn(t, clerk, alpha.ID, ym(2024, time.May))

	const n = 4
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.returns.BeginReview(ctx, f.analyst, ret.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		requireStateError(t, err, domain.StatusUnderReview)
	}
	assert.Equal(t, 1, wins)

	// once a decision commits, a later one sees the new status
	_, err := f.returns.Decide(ctx, f.supervisor, ret.ID, domain.DecisionRejected, "missing schedule")
	require.NoError(t, err)
	_, err = f.returns.Decide(ctx, f.supervisor, ret.ID, domain.DecisionApproved, "")
	requireStateError(t, err, domain.StatusRejected)
}

func TestSubmitRequiresFinancialData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)

	ret, err := f.returns.CreateDraft(ctx, clerk, alpha.ID, ym(2024, time.March))
	require.NoError(t, err)

	_, err = f.returns.Submit(ctx, clerk, ret.ID)
	requireValidationField(t, err, "financial_data")

	got, err := f.returns.Get(ctx, clerk, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, got.Status)
	assert.Nil(t, got.SubmittedBy)
}

func TestIllegalTransitionsReportCurrentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)

	ret := f.filedReturn(t, clerk, alpha.ID, ym(2024, time.March))

	_, err := f.returns.Submit(ctx, clerk, ret.ID)
	requireStateError(t, err, domain.StatusSubmitted)

	_, err = f.returns.AttachFinancialData(ctx, clerk, ret.ID, sampleFinancials())
	requireStateError(t, err, domain.StatusSubmitted)

	_, err = f.returns.AttachDocument(ctx, clerk, ret.ID, &DocumentInput{
		DocumentType: domain.DocAuditedAccounts, FileName: "a.pdf", FilePath: "uploads/a.pdf", FileSize: 10,
	})
	requireStateError(t, err, domain.StatusSubmitted)

	_, err = f.returns.Decide(ctx, f.supervisor, ret.ID, domain.DecisionApproved, "")
	requireStateError(t, err, domain.StatusSubmitted)

	_, err = f.returns.ReopenForResubmission(ctx, clerk, ret.ID)
	requireStateError(t, err, domain.StatusSubmitted)

	_, err = f.returns.BeginReview(ctx, f.analyst, ret.ID)
	require.NoError(t, err)
	_, err = f.returns.BeginReview(ctx, f.supervisor, ret.ID)
	requireStateError(t, err, domain.StatusUnderReview)

	_, err = f.returns.Decide(ctx, f.supervisor, ret.ID, domain.DecisionApproved, "")
	require.NoError(t, err)
	_, err = f.returns.ReopenForResubmission(ctx, clerk, ret.ID)
	requireStateError(t, err, domain.StatusApproved)
	_, err = f.returns.Decide(ctx, f.supervisor, ret.ID, domain.DecisionRejected, "")
	requireStateError(t, err, domain.StatusApproved)
}

func TestReopenKeepsFiguresAndClearsReview(t *testing.T) {
	for _, decision := range []domain.Decision{domain.DecisionRejected, domain.DecisionFlagged} {
		t.Run(string(decision), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			alpha := f.createSacco(t, "REG-001", "Alpha")
			clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)

			ret := f.underReview(t, clerk, alpha.ID, ym(2024, time.March))
			ret, err := f.returns.Decide(ctx, f.supervisor, ret.ID, decision, "PAR figures do not reconcile")
			require.NoError(t, err)
			assert.Equal(t, decision.Status(), ret.Status)

			ret, err = f.returns.ReopenForResubmission(ctx, clerk, ret.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusDraft, ret.Status)
			assert.Nil(t, ret.ReviewedBy)
			assert.Nil(t, ret.ReviewDate)
			assert.Empty(t, ret.ReviewNotes)
			require.NotNil(t, ret.FinancialData)

			// resubmission reuses the same row
			ret, err = f.returns.Submit(ctx, clerk, ret.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusSubmitted, ret.Status)
		})
	}
}

func TestDecideRejectsUnknownDecision(t *testing.T) {
	f := newFixture(t)
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)
	ret := f.underReview(t, clerk, alpha.ID, ym(2024, time.March))

	_, err := f.returns.Decide(context.Background(), f.supervisor, ret.ID, domain.Decision("Draft"), "")
	requireValidationField(t, err, "decision")
}

func TestReviewRequiresRegulator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)
	manager := f.staff(t, "manager", domain.RoleSaccoManager, alpha.ID)
	ret := f.filedReturn(t, clerk, alpha.ID, ym(2024, time.March))

	_, err := f.returns.BeginReview(ctx, manager, ret.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// role check comes before the lookup
	_, err = f.returns.BeginReview(ctx, manager, 424242)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.returns.Decide(ctx, clerk, ret.ID, domain.DecisionApproved, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// regulators cannot file on behalf of a SACCO
	_, err = f.returns.Submit(ctx, f.admin, ret.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReturnVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	beta := f.createSacco(t, "REG-002", "Beta")
	alphaClerk := f.staff(t, "alpha-clerk", domain.RoleDataEntryOfficer, alpha.ID)
	betaClerk := f.staff(t, "beta-clerk", domain.RoleDataEntryOfficer, beta.ID)

	ret, err := f.returns.CreateDraft(ctx, alphaClerk, alpha.ID, ym(2024, time.March))
	require.NoError(t, err)

	_, err = f.returns.Get(ctx, betaClerk, ret.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.returns.AttachFinancialData(ctx, betaClerk, ret.ID, sampleFinancials())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// missing ids look the same as foreign ones to SACCO staff
	_, err = f.returns.Get(ctx, betaClerk, 424242)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.returns.Get(ctx, f.analyst, 424242)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.returns.Get(ctx, f.analyst, ret.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Sacco)
	assert.Equal(t, "Alpha", got.Sacco.Name)
}

func TestListReturnsScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	beta := f.createSacco(t, "REG-002", "Beta")
	alphaClerk := f.staff(t, "alpha-clerk", domain.RoleDataEntryOfficer, alpha.ID)
	betaClerk := f.staff(t, "beta-clerk", domain.RoleDataEntryOfficer, beta.ID)

	for _, m := range []time.Month{time.January, time.February, time.March} {
		_, err := f.returns.CreateDraft(ctx, alphaClerk, alpha.ID, ym(2024, m))
		require.NoError(t, err)
	}
	f.filedReturn(t, betaClerk, beta.ID, ym(2024, time.March))

	list, total, err := f.returns.List(ctx, alphaClerk, &ListReturnsInput{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 3)
	assert.True(t, ym(2024, time.March).Equal(list[0].ReportingMonth), "newest first")
	for _, r := range list {
		assert.Equal(t, alpha.ID, r.SaccoID)
	}

	_, _, err = f.returns.List(ctx, alphaClerk, &ListReturnsInput{SaccoID: &beta.ID, Limit: 10})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, total, err = f.returns.List(ctx, f.analyst, &ListReturnsInput{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)

	_, total, err = f.returns.List(ctx, f.analyst, &ListReturnsInput{Status: domain.StatusSubmitted, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	from, to := ym(2024, time.February), ym(2024, time.February)
	list, total, err = f.returns.List(ctx, f.analyst, &ListReturnsInput{SaccoID: &alpha.ID, FromMonth: &from, ToMonth: &to, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)

	unaffiliated := f.seedUser(t, "drifter", domain.RoleSaccoManager, nil)
	list, total, err = f.returns.List(ctx, unaffiliated, &ListReturnsInput{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestFinancialDataRoundTripsExactly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)

	ret, err := f.returns.CreateDraft(ctx, clerk, alpha.ID, ym(2024, time.March))
	require.NoError(t, err)

	_, err = f.returns.AttachFinancialData(ctx, clerk, ret.ID, sampleFinancials())
	require.NoError(t, err)

	// replacing keeps a single 1:1 record
	updated := sampleFinancials()
	updated.TotalMembers = 1250
	_, err = f.returns.AttachFinancialData(ctx, clerk, ret.ID, updated)
	require.NoError(t, err)

	got, err := f.returns.Get(ctx, clerk, ret.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FinancialData)
	assert.True(t, decimal.RequireFromString("12345.67").Equal(got.FinancialData.InterestEarnedMonthly.Decimal),
		"got %s", got.FinancialData.InterestEarnedMonthly)
	assert.True(t, decimal.RequireFromString("4200000.50").Equal(got.FinancialData.MemberDeposits.Decimal))
	assert.True(t, decimal.RequireFromString("2.25").Equal(got.FinancialData.PAR60.Decimal))
	assert.Equal(t, 1250, got.FinancialData.TotalMembers)
}

func TestFinancialDataLargestAmountsRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)
	ret, err := f.returns.CreateDraft(ctx, clerk, alpha.ID, ym(2024, time.March))
	require.NoError(t, err)

	data := sampleFinancials()
	data.TotalAssets = money("9999999999999999.99")
	data.TotalLoansCumulative = money("1234567890123456.78")
	data.PAR90 = money("99.99")
	_, err = f.returns.AttachFinancialData(ctx, clerk, ret.ID, data)
	require.NoError(t, err)

	got, err := f.returns.Get(ctx, clerk, ret.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FinancialData)
	assert.Equal(t, "9999999999999999.99", got.FinancialData.TotalAssets.StringFixed(2))
	assert.Equal(t, "1234567890123456.78", got.FinancialData.TotalLoansCumulative.StringFixed(2))
	assert.Equal(t, "99.99", got.FinancialData.PAR90.StringFixed(2))
}

func TestFinancialDataValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)
	ret, err := f.returns.CreateDraft(ctx, clerk, alpha.ID, ym(2024, time.March))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(d *models.FinancialData)
		field  string
	}{
		{"negative money", func(d *models.FinancialData) { d.ShareCapital = money("-1") }, "share_capital"},
		{"three decimals", func(d *models.FinancialData) { d.TotalAssets = money("10.005") }, "total_assets"},
		{"too large", func(d *models.FinancialData) { d.TotalLiabilities = models.NewMoney(decimal.New(1, 16)) }, "total_liabilities"},
		{"negative count", func(d *models.FinancialData) { d.ExitedMembers = -1 }, "exited_members"},
		{"ratio over 100", func(d *models.FinancialData) { d.PAR90 = money("100.01") }, "par90"},
		{"negative ratio", func(d *models.FinancialData) { d.PAR30 = money("-0.5") }, "par30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := sampleFinancials()
			tt.mutate(data)
			_, err := f.returns.AttachFinancialData(ctx, clerk, ret.ID, data)
			requireValidationField(t, err, tt.field)
		})
	}

	edge := sampleFinancials()
	edge.PAR30 = money("100")
	edge.ShareCapital = models.Money{}
	_, err = f.returns.AttachFinancialData(ctx, clerk, ret.ID, edge)
	assert.NoError(t, err)
}

func TestAttachDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)
	ret, err := f.returns.CreateDraft(ctx, clerk, alpha.ID, ym(2024, time.March))
	require.NoError(t, err)

	_, err = f.returns.AttachDocument(ctx, clerk, ret.ID, &DocumentInput{DocumentType: "Selfie", FileName: "x.png", FilePath: "x.png"})
	requireValidationField(t, err, "document_type")

	doc, err := f.returns.AttachDocument(ctx, clerk, ret.ID, &DocumentInput{
		DocumentType: domain.DocManagementReport,
		FileName:     " march-report.pdf ",
		FilePath:     "uploads/5e1c.pdf",
		FileSize:     2048,
	})
	require.NoError(t, err)
	assert.Equal(t, "march-report.pdf", doc.FileName)
	assert.Equal(t, clerk.ID, doc.UploadedBy)
	assert.True(t, fixedNow.Equal(doc.UploadDate))

	got, err := f.returns.Get(ctx, clerk, ret.ID)
	require.NoError(t, err)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, domain.DocManagementReport, got.Documents[0].DocumentType)
}

func TestCheckDocumentUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	beta := f.createSacco(t, "REG-002", "Beta")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)
	betaClerk := f.staff(t, "beta-clerk", domain.RoleDataEntryOfficer, beta.ID)

	draft, err := f.returns.CreateDraft(ctx, clerk, alpha.ID, ym(2024, time.May))
	require.NoError(t, err)
	filed := f.filedReturn(t, clerk, alpha.ID, ym(2024, time.April))

	assert.NoError(t, f.returns.CheckDocumentUpload(ctx, clerk, draft.ID, domain.DocAuditedAccounts))

	err = f.returns.CheckDocumentUpload(ctx, betaClerk, draft.ID, domain.DocAuditedAccounts)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.returns.CheckDocumentUpload(ctx, f.analyst, draft.ID, domain.DocAuditedAccounts)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.returns.CheckDocumentUpload(ctx, clerk, filed.ID, domain.DocAuditedAccounts)
	requireStateError(t, err, domain.StatusSubmitted)

	err = f.returns.CheckDocumentUpload(ctx, clerk, draft.ID, "Selfie")
	requireValidationField(t, err, "document_type")
}
