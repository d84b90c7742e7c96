package domain

import (
	"strings"
	"time"
)

// Role represents an actor role in the system
type Role string

const (
	RoleSaccoManager     Role = "SACCO_Manager"
	RoleAccountsOfficer  Role = "Accounts_Officer"
	RoleDataEntryOfficer Role = "Data_Entry_Officer"
	RoleAnalyst          Role = "Analyst"
	RoleSupervisor       Role = "Supervisor"
	RoleSystemAdmin      Role = "System_Admin"
)

// Roles lists every known role, SACCO roles first
var Roles = []Role{
	RoleSaccoManager,
	RoleAccountsOfficer,
	RoleDataEntryOfficer,
	RoleAnalyst,
	RoleSupervisor,
	RoleSystemAdmin,
}

// ParseRole converts a raw string into a Role
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleSaccoManager, RoleAccountsOfficer, RoleDataEntryOfficer,
		RoleAnalyst, RoleSupervisor, RoleSystemAdmin:
		return true
	}
	return false
}

// IsSaccoScoped reports whether the role belongs to SACCO staff.
// SACCO-scoped roles must carry a SACCO affiliation; ministry roles must not.
func (r Role) IsSaccoScoped() bool {
	switch r {
	case RoleSaccoManager, RoleAccountsOfficer, RoleDataEntryOfficer:
		return true
	case RoleAnalyst, RoleSupervisor, RoleSystemAdmin:
		return false
	}
	return false
}

// IsMinistry reports whether the role is a ministry (regulator) role
func (r Role) IsMinistry() bool {
	switch r {
	case RoleAnalyst, RoleSupervisor, RoleSystemAdmin:
		return true
	case RoleSaccoManager, RoleAccountsOfficer, RoleDataEntryOfficer:
		return false
	}
	return false
}

// Actor is the authenticated caller of a core operation
type Actor struct {
	ID                uint
	Username          string
	Role              Role
	AffiliatedSaccoID *uint
	Active            bool
}

// SaccoID returns the affiliated SACCO id and whether one is set
func (a Actor) SaccoID() (uint, bool) {
	if a.AffiliatedSaccoID == nil {
		return 0, false
	}
	return *a.AffiliatedSaccoID, true
}

// DisplayName is used for created_by / updated_by audit fields
func (a Actor) DisplayName() string {
	if a.Username != "" {
		return a.Username
	}
	return "System"
}

// SystemActor is used by scheduled jobs that need ministry-wide reads
func SystemActor() Actor {
	return Actor{Username: "system", Role: RoleSystemAdmin, Active: true}
}

// SaccoStatus represents the registration status of a SACCO
type SaccoStatus string

const (
	SaccoActive   SaccoStatus = "Active"
	SaccoInactive SaccoStatus = "Inactive"
)

// Toggle returns the opposite status
func (s SaccoStatus) Toggle() SaccoStatus {
	switch s {
	case SaccoActive:
		return SaccoInactive
	case SaccoInactive:
		return SaccoActive
	}
	return SaccoActive
}

// SaccoType is the licensing category of a SACCO
type SaccoType string

const (
	SaccoDepositTaking SaccoType = "Deposit_Taking"
	SaccoNonDT         SaccoType = "Non_DT"
)

// Valid reports whether t is empty or a known type
func (t SaccoType) Valid() bool {
	switch t {
	case "", SaccoDepositTaking, SaccoNonDT:
		return true
	}
	return false
}

// DocumentType tags an uploaded supporting document
type DocumentType string

const (
	DocAuditedAccounts  DocumentType = "Audited_Accounts"
	DocManagementReport DocumentType = "Management_Report"
	DocBoardResolution  DocumentType = "Board_Resolution"
	DocOtherSupporting  DocumentType = "Other_Supporting"
)

// Valid reports whether t is a known document type
func (t DocumentType) Valid() bool {
	switch t {
	case DocAuditedAccounts, DocManagementReport, DocBoardResolution, DocOtherSupporting:
		return true
	}
	return false
}

// NormalizeMonth returns day 1 of t's month at UTC midnight
func NormalizeMonth(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NormalizeDate returns t truncated to UTC midnight
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseMonth accepts "2006-01" or "2006-01-02" and returns the normalized month
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01", "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return NormalizeMonth(t), nil
		}
	}
	return time.Time{}, NewValidationError("reporting_month", "must be YYYY-MM or YYYY-MM-DD")
}
