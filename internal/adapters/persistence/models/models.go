package models

import (
	"time"

	"sacco-returns/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Identity: Users & Tokens
// ============================================================

// User represents users table
type User struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Username  string      `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string      `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string      `gorm:"size:255;not null" json:"-"`
	FirstName string      `gorm:"size:100" json:"first_name"`
	LastName  string      `gorm:"size:100" json:"last_name"`
	Role      domain.Role `gorm:"size:30;not null;index" json:"role"`
	SaccoID   *uint       `gorm:"index" json:"sacco_id"`
	IsActive  bool        `gorm:"not null" json:"is_active"`
	LastLogin *time.Time  `json:"last_login"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// FullName joins first and last name
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Actor converts a stored user into the core's caller identity
func (u *User) Actor() domain.Actor {
	return domain.Actor{
		ID:                u.ID,
		Username:          u.Username,
		Role:              u.Role,
		AffiliatedSaccoID: u.SaccoID,
		Active:            u.IsActive,
	}
}

// UserResponse DTO
type UserResponse struct {
	ID        uint        `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	FullName  string      `json:"full_name"`
	Role      domain.Role `json:"role"`
	SaccoID   *uint       `json:"sacco_id"`
	IsActive  bool        `json:"is_active"`
	LastLogin *time.Time  `json:"last_login"`
	CreatedAt time.Time   `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Role:      u.Role,
		SaccoID:   u.SaccoID,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Regulated entity
// ============================================================

// Sacco represents saccos table
type Sacco struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	RegistrationNumber string             `gorm:"size:50;uniqueIndex;not null" json:"registration_number"`
	Name               string             `gorm:"size:200;not null;index" json:"name"`
	County             string             `gorm:"size:100;not null" json:"county"`
	SubCounty          string             `gorm:"size:100" json:"sub_county"`
	RegistrationDate   time.Time          `gorm:"not null" json:"registration_date"`
	SaccoType          domain.SaccoType   `gorm:"size:20" json:"sacco_type"`
	ContactPerson      string             `gorm:"size:100;not null" json:"contact_person"`
	Phone              string             `gorm:"size:30;not null" json:"phone"`
	Email              string             `gorm:"size:100" json:"email"`
	Address            string             `gorm:"size:255" json:"address"`
	Status             domain.SaccoStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedBy          string             `gorm:"size:50" json:"created_by"`
	CreatedAt          time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy          string             `gorm:"size:50" json:"updated_by"`
	UpdatedAt          time.Time          `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Users          []User          `gorm:"foreignKey:SaccoID;constraint:OnDelete:RESTRICT" json:"-"`
	MonthlyReturns []MonthlyReturn `gorm:"foreignKey:SaccoID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Sacco) TableName() string {
	return "saccos"
}

// IsActive reports whether the SACCO is currently active
func (s *Sacco) IsActive() bool {
	return s.Status == domain.SaccoActive
}

// ============================================================
// Monthly returns
// ============================================================

// MonthlyReturn represents monthly_returns table.
// One row per (sacco_id, reporting_month); resubmission reuses the row.
type MonthlyReturn struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	SaccoID        uint                `gorm:"not null;uniqueIndex:idx_returns_sacco_month,priority:1" json:"sacco_id"`
	ReportingMonth time.Time           `gorm:"not null;uniqueIndex:idx_returns_sacco_month,priority:2;index" json:"reporting_month"`
	Status         domain.ReturnStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedBy      uint                `gorm:"not null" json:"created_by"`
	SubmittedBy    *uint               `json:"submitted_by"`
	SubmissionDate *time.Time          `json:"submission_date"`
	ReviewedBy     *uint               `json:"reviewed_by"`
	ReviewDate     *time.Time          `json:"review_date"`
	ReviewNotes    string              `gorm:"type:text" json:"review_notes"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Sacco         *Sacco         `gorm:"foreignKey:SaccoID" json:"sacco,omitempty"`
	FinancialData *FinancialData `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE" json:"financial_data,omitempty"`
	Documents     []Document     `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

func (MonthlyReturn) TableName() string {
	return "monthly_returns"
}

// FinancialData represents financial_data table (1:1 with MonthlyReturn)
type FinancialData struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	ReturnID uint `gorm:"uniqueIndex;not null" json:"return_id"`

	// Capital & deposits
	ShareCapital     Money `gorm:"precision:18;scale:2;not null" json:"share_capital"`
	MemberDeposits   Money `gorm:"precision:18;scale:2;not null" json:"member_deposits"`
	TotalAssets      Money `gorm:"precision:18;scale:2;not null" json:"total_assets"`
	TotalLiabilities Money `gorm:"precision:18;scale:2;not null" json:"total_liabilities"`

	// Membership
	TotalMembers  int `gorm:"not null" json:"total_members"`
	NewMembers    int `gorm:"not null" json:"new_members"`
	ExitedMembers int `gorm:"not null" json:"exited_members"`

	// Loan portfolio
	TotalLoansCumulative   Money `gorm:"precision:18;scale:2;not null" json:"total_loans_cumulative"`
	LoansIssuedMonthly     Money `gorm:"precision:18;scale:2;not null" json:"loans_issued_monthly"`
	LoansRepaidMonthly     Money `gorm:"precision:18;scale:2;not null" json:"loans_repaid_monthly"`
	OutstandingLoanBalance Money `gorm:"precision:18;scale:2;not null" json:"outstanding_loan_balance"`
	NumberOfLoanees        int   `gorm:"not null" json:"number_of_loanees"`
	InterestEarnedMonthly  Money `gorm:"precision:18;scale:2;not null" json:"interest_earned_monthly"`

	// Portfolio quality (percent)
	PAR30 Money `gorm:"column:par30;precision:5;scale:2;not null" json:"par30"`
	PAR60 Money `gorm:"column:par60;precision:5;scale:2;not null" json:"par60"`
	PAR90 Money `gorm:"column:par90;precision:5;scale:2;not null" json:"par90"`

	// Income & expenses
	TotalIncomeMonthly   Money `gorm:"precision:18;scale:2;not null" json:"total_income_monthly"`
	TotalExpensesMonthly Money `gorm:"precision:18;scale:2;not null" json:"total_expenses_monthly"`

	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FinancialData) TableName() string {
	return "financial_data"
}

// Amount is a named decimal column of FinancialData
type Amount struct {
	Name  string
	Value decimal.Decimal
}

// Count is a named integer column of FinancialData
type Count struct {
	Name  string
	Value int
}

// MonetaryFields returns the 2-dp money columns in declaration order
func (f *FinancialData) MonetaryFields() []Amount {
	return []Amount{
		{"share_capital", f.ShareCapital.Decimal},
		{"member_deposits", f.MemberDeposits.Decimal},
		{"total_assets", f.TotalAssets.Decimal},
		{"total_liabilities", f.TotalLiabilities.Decimal},
		{"total_loans_cumulative", f.TotalLoansCumulative.Decimal},
		{"loans_issued_monthly", f.LoansIssuedMonthly.Decimal},
		{"loans_repaid_monthly", f.LoansRepaidMonthly.Decimal},
		{"outstanding_loan_balance", f.OutstandingLoanBalance.Decimal},
		{"interest_earned_monthly", f.InterestEarnedMonthly.Decimal},
		{"total_income_monthly", f.TotalIncomeMonthly.Decimal},
		{"total_expenses_monthly", f.TotalExpensesMonthly.Decimal},
	}
}

// RatioFields returns the portfolio-at-risk percentages
func (f *FinancialData) RatioFields() []Amount {
	return []Amount{
		{"par30", f.PAR30.Decimal},
		{"par60", f.PAR60.Decimal},
		{"par90", f.PAR90.Decimal},
	}
}

// CountFields returns the membership and loanee counters
func (f *FinancialData) CountFields() []Count {
	return []Count{
		{"total_members", f.TotalMembers},
		{"new_members", f.NewMembers},
		{"exited_members", f.ExitedMembers},
		{"number_of_loanees", f.NumberOfLoanees},
	}
}

// Document represents documents table
type Document struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	ReturnID     uint                `gorm:"not null;index" json:"return_id"`
	DocumentType domain.DocumentType `gorm:"size:50;not null" json:"document_type"`
	FileName     string              `gorm:"size:255;not null" json:"file_name"`
	FilePath     string              `gorm:"size:500;not null" json:"file_path"`
	FileSize     int64               `gorm:"not null" json:"file_size"`
	UploadedBy   uint                `gorm:"not null" json:"uploaded_by"`
	UploadDate   time.Time           `gorm:"not null" json:"upload_date"`
}

func (Document) TableName() string {
	return "documents"
}

// ============================================================
// Audit trail
// ============================================================

// AuditLog represents audit_logs table
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     *uint          `gorm:"index" json:"user_id"`
	Action     string         `gorm:"size:100;not null" json:"action"`
	EntityType string         `gorm:"size:50;index:idx_audit_entity,priority:1" json:"entity_type"`
	EntityID   *uint          `gorm:"index:idx_audit_entity,priority:2" json:"entity_id"`
	OldValues  datatypes.JSON `json:"old_values"`
	NewValues  datatypes.JSON `json:"new_values"`
	Timestamp  time.Time      `gorm:"not null;index" json:"timestamp"`
	IPAddress  string         `gorm:"size:45" json:"ip_address"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit actions
const (
	AuditSaccoCreate    = "SACCO_CREATE"
	AuditSaccoUpdate    = "SACCO_UPDATE"
	AuditSaccoDelete    = "SACCO_DELETE"
	AuditSaccoToggle    = "SACCO_TOGGLE_STATUS"
	AuditReturnCreate   = "RETURN_CREATE_DRAFT"
	AuditReturnFinance  = "RETURN_ATTACH_FINANCIAL_DATA"
	AuditReturnDocument = "RETURN_ATTACH_DOCUMENT"
	AuditReturnSubmit   = "RETURN_SUBMIT"
	AuditReturnReview   = "RETURN_BEGIN_REVIEW"
	AuditReturnDecide   = "RETURN_DECIDE"
	AuditReturnReopen   = "RETURN_REOPEN"
	AuditUserCreate     = "USER_CREATE"
	AuditUserUpdate     = "USER_UPDATE"
	AuditUserDeactivate = "USER_DEACTIVATE"
)

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Sacco{},
		&User{},
		&RefreshToken{},
		&MonthlyReturn{},
		&FinancialData{},
		&Document{},
		&AuditLog{},
	)
}
