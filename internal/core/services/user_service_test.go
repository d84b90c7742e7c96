package services

import (
	"context"
	"testing"

	"sacco-returns/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRegisterUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")

	user, err := f.users.Register(ctx, f.admin, &RegisterUserInput{
		Username:  " wanjiru ",
		Email:     "Wanjiru@Alpha.co.ke",
		Password:  "s3cretpass",
		FirstName: "Wanjiru",
		LastName:  "Kamau",
		Role:      domain.RoleAccountsOfficer,
		SaccoID:   &alpha.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "wanjiru", user.Username)
	assert.Equal(t, "wanjiru@alpha.co.ke", user.Email)
	assert.Equal(t, "Wanjiru Kamau", user.FullName)
	assert.True(t, user.IsActive)
	assert.Equal(t, []string{"USER_CREATE"}, auditActions(t, f, entityUser, user.ID))

	_, err = f.users.Register(ctx, f.admin, &RegisterUserInput{
		Username: "wanjiru", Email: "other@alpha.co.ke", Password: "s3cretpass",
		Role: domain.RoleAccountsOfficer, SaccoID: &alpha.ID,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.users.Register(ctx, f.admin, &RegisterUserInput{
		Username: "someone", Email: "WANJIRU@alpha.co.ke", Password: "s3cretpass",
		Role: domain.RoleAccountsOfficer, SaccoID: &alpha.ID,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegisterUserAffiliationRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	missing := uint(424242)

	tests := []struct {
		name    string
		role    domain.Role
		saccoID *uint
		field   string
	}{
		{"unknown role", "Auditor", nil, "role"},
		{"sacco role without sacco", domain.RoleSaccoManager, nil, "sacco_id"},
		{"sacco role with missing sacco", domain.RoleDataEntryOfficer, &missing, "sacco_id"},
		{"ministry role with sacco", domain.RoleAnalyst, &alpha.ID, "sacco_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(ctx, f.admin, &RegisterUserInput{
				Username: "newuser", Email: "new@example.org", Password: "s3cretpass",
				Role: tt.role, SaccoID: tt.saccoID,
			})
			requireValidationField(t, err, tt.field)
		})
	}
}

func TestRegisterUserFieldRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterUserInput
		field string
	}{
		{"short username", RegisterUserInput{Username: "ab", Email: "a@b.org", Password: "s3cretpass"}, "username"},
		{"bad email", RegisterUserInput{Username: "abc", Email: "not-an-email", Password: "s3cretpass"}, "email"},
		{"display-name email", RegisterUserInput{Username: "abc", Email: "Bob <bob@x.org>", Password: "s3cretpass"}, "email"},
		{"short password", RegisterUserInput{Username: "abc", Email: "a@b.org", Password: "short"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			in.Role = domain.RoleAnalyst
			_, err := f.users.Register(ctx, f.admin, &in)
			requireValidationField(t, err, tt.field)
		})
	}

	_, err := f.users.Register(ctx, f.analyst, &RegisterUserInput{
		Username: "abc", Email: "a@b.org", Password: "s3cretpass", Role: domain.RoleAnalyst,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	officer := f.staff(t, "officer", domain.RoleAccountsOfficer, alpha.ID)

	// promoting to a ministry role drops the SACCO
	user, err := f.users.Update(ctx, f.admin, officer.ID, &UpdateUserInput{Role: ptr(domain.RoleAnalyst)})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAnalyst, user.Role)
	assert.Nil(t, user.SaccoID)

	// going back needs a SACCO again
	_, err = f.users.Update(ctx, f.admin, officer.ID, &UpdateUserInput{Role: ptr(domain.RoleSaccoManager)})
	requireValidationField(t, err, "sacco_id")

	user, err = f.users.Update(ctx, f.admin, officer.ID, &UpdateUserInput{Role: ptr(domain.RoleSaccoManager), SaccoID: &alpha.ID})
	require.NoError(t, err)
	require.NotNil(t, user.SaccoID)
	assert.Equal(t, alpha.ID, *user.SaccoID)

	_, err = f.users.Update(ctx, f.admin, officer.ID, &UpdateUserInput{Email: ptr("analyst@example.org")})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.users.Update(ctx, f.admin, f.admin.ID, &UpdateUserInput{Role: ptr(domain.RoleAnalyst)})
	requireValidationField(t, err, "role")
	_, err = f.users.Update(ctx, f.admin, f.admin.ID, &UpdateUserInput{IsActive: ptr(false)})
	requireValidationField(t, err, "is_active")

	_, err = f.users.Update(ctx, f.admin, 424242, &UpdateUserInput{FirstName: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeactivateUserRevokesSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Login(ctx, &LoginInput{Username: "analyst", Password: "password123"})
	require.NoError(t, err)
	n, err := f.auth.ActiveSessions(ctx, f.analyst.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, f.users.Deactivate(ctx, f.admin, f.analyst.ID))

	n, err = f.auth.ActiveSessions(ctx, f.analyst.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	user, err := f.users.Get(ctx, f.admin, f.analyst.ID)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	err = f.users.Deactivate(ctx, f.admin, f.admin.ID)
	requireValidationField(t, err, "id")
	err = f.users.Deactivate(ctx, f.supervisor, f.admin.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGetUserSelfOrAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	me, err := f.users.Get(ctx, f.analyst, f.analyst.ID)
	require.NoError(t, err)
	assert.Equal(t, "analyst", me.Username)

	_, err = f.users.Get(ctx, f.analyst, f.supervisor.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	f.staff(t, "alpha-manager", domain.RoleSaccoManager, alpha.ID)
	f.staff(t, "alpha-clerk", domain.RoleDataEntryOfficer, alpha.ID)

	out, err := f.users.List(ctx, f.admin, &ListUsersInput{Limit: 50})
	require.NoError(t, err)
	assert.EqualValues(t, 5, out.Total)

	out, err = f.users.List(ctx, f.admin, &ListUsersInput{SaccoID: &alpha.ID, Limit: 50})
	require.NoError(t, err)
	assert.EqualValues(t, 2, out.Total)

	out, err = f.users.List(ctx, f.admin, &ListUsersInput{Role: domain.RoleSupervisor, Limit: 50})
	require.NoError(t, err)
	require.Len(t, out.Users, 1)
	assert.Equal(t, "supervisor", out.Users[0].Username)

	_, err = f.users.List(ctx, f.analyst, &ListUsersInput{Limit: 50})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.UpdateProfile(ctx, f.analyst, &UpdateProfileInput{
		FirstName: ptr(" Amina "),
		Email:     ptr("Amina@Treasury.go.ke"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Amina", user.FirstName)
	assert.Equal(t, "amina@treasury.go.ke", user.Email)
	assert.Equal(t, domain.RoleAnalyst, user.Role)

	_, err = f.users.UpdateProfile(ctx, f.analyst, &UpdateProfileInput{Email: ptr("supervisor@example.org")})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Login(ctx, &LoginInput{Username: "analyst", Password: "password123"})
	require.NoError(t, err)

	err = f.users.ChangePassword(ctx, f.analyst, "wrong-password", "newpassword1")
	requireValidationField(t, err, "old_password")
	err = f.users.ChangePassword(ctx, f.analyst, "password123", "short")
	requireValidationField(t, err, "new_password")

	require.NoError(t, f.users.ChangePassword(ctx, f.analyst, "password123", "newpassword1"))

	n, err := f.auth.ActiveSessions(ctx, f.analyst.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.auth.Login(ctx, &LoginInput{Username: "analyst", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, &LoginInput{Username: "analyst", Password: "newpassword1"})
	assert.NoError(t, err)
}
