package services

import (
	"context"
	"time"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/core/domain"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ComplianceSheet is the worksheet name of the compliance export
const ComplianceSheet = "Compliance"

var complianceHeader = []interface{}{
	"Registration No", "SACCO", "County", "Status",
	"Returns (window)", "Compliance Rate %", "Latest Month", "Latest Status",
}

// ReportService builds downloadable reports
type ReportService struct {
	db         *gorm.DB
	compliance *ComplianceService
}

// NewReportService creates a new report service
func NewReportService(db *gorm.DB, compliance *ComplianceService) *ReportService {
	return &ReportService{db: db, compliance: compliance}
}

// ComplianceWorkbook renders every SACCO's standing as an XLSX file; regulators only
func (s *ReportService) ComplianceWorkbook(ctx context.Context, actor domain.Actor) ([]byte, error) {
	standings, err := s.compliance.Standings(ctx, actor)
	if err != nil {
		return nil, err
	}

	latest, err := s.latestReturns(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ComplianceSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(ComplianceSheet, "A1", &complianceHeader); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(ComplianceSheet, "A1", "H1", bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(ComplianceSheet, "A", "H", 18); err != nil {
		return nil, err
	}

	for i, st := range standings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		rate, _ := st.Rate.Float64()
		row := []interface{}{
			st.Sacco.RegistrationNumber,
			st.Sacco.Name,
			st.Sacco.County,
			string(st.Sacco.Status),
			st.Submissions,
			rate,
			"",
			"",
		}
		if ret, ok := latest[st.Sacco.ID]; ok {
			row[6] = ret.ReportingMonth.Format("2006-01")
			row[7] = string(ret.Status)
		}
		if err := f.SetSheetRow(ComplianceSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type latestReturn struct {
	ReportingMonth time.Time
	Status         domain.ReturnStatus
}

// latestReturns maps each SACCO to its most recent reporting month
func (s *ReportService) latestReturns(ctx context.Context) (map[uint]latestReturn, error) {
	var rows []struct {
		SaccoID        uint
		ReportingMonth time.Time
		Status         domain.ReturnStatus
	}
	err := s.db.WithContext(ctx).
		Model(&models.MonthlyReturn{}).
		Select("sacco_id, reporting_month, status").
		Order("sacco_id ASC, reporting_month DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	latest := make(map[uint]latestReturn)
	for _, r := range rows {
		if _, seen := latest[r.SaccoID]; !seen {
			latest[r.SaccoID] = latestReturn{ReportingMonth: r.ReportingMonth, Status: r.Status}
		}
	}
	return latest, nil
}
