package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func saccoActor(role Role, saccoID uint) Actor {
	return Actor{ID: 1, Username: "u", Role: role, AffiliatedSaccoID: &saccoID, Active: true}
}

func TestRoleScopes(t *testing.T) {
	for _, r := range Roles {
		assert.True(t, r.Valid(), r)
		assert.NotEqual(t, r.IsSaccoScoped(), r.IsMinistry(), "role %s must be exactly one scope", r)
	}
	assert.False(t, Role("Auditor").Valid())
	assert.False(t, Role("Auditor").IsSaccoScoped())
	assert.False(t, Role("Auditor").IsMinistry())

	r, ok := ParseRole(" Analyst ")
	assert.True(t, ok)
	assert.Equal(t, RoleAnalyst, r)
	_, ok = ParseRole("analyst")
	assert.False(t, ok)
}

func TestGuardMatrix(t *testing.T) {
	const own, other = uint(1), uint(2)

	tests := []struct {
		name       string
		actor      Actor
		viewOwn    bool
		viewOther  bool
		edit       bool
		submitOwn  bool
		submitOthr bool
		review     bool
	}{
		{"manager", saccoActor(RoleSaccoManager, own), true, false, false, true, false, false},
		{"accounts officer", saccoActor(RoleAccountsOfficer, own), true, false, false, true, false, false},
		{"data entry", saccoActor(RoleDataEntryOfficer, own), true, false, false, true, false, false},
		{"analyst", Actor{Role: RoleAnalyst, Active: true}, true, true, false, false, false, true},
		{"supervisor", Actor{Role: RoleSupervisor, Active: true}, true, true, false, false, false, true},
		{"admin", Actor{Role: RoleSystemAdmin, Active: true}, true, true, true, false, false, true},
		{"unaffiliated manager", Actor{Role: RoleSaccoManager, Active: true}, false, false, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.viewOwn, tt.actor.CanViewSacco(own))
			assert.Equal(t, tt.viewOther, tt.actor.CanViewSacco(other))
			assert.Equal(t, tt.edit, tt.actor.CanEditSacco())
			assert.Equal(t, tt.submitOwn, tt.actor.CanSubmitReturn(own))
			assert.Equal(t, tt.submitOthr, tt.actor.CanSubmitReturn(other))
			assert.Equal(t, tt.review, tt.actor.CanReviewReturn())
		})
	}
}

func TestMinistryRoleWithStraySaccoCannotSubmit(t *testing.T) {
	a := saccoActor(RoleAnalyst, 1)
	assert.False(t, a.CanSubmitReturn(1))
	assert.True(t, a.CanViewSacco(99))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "System", Actor{}.DisplayName())
	assert.Equal(t, "jdoe", Actor{Username: "jdoe"}.DisplayName())
	assert.Equal(t, "system", SystemActor().DisplayName())
	assert.True(t, SystemActor().IsRegulator())
}
