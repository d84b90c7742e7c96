package services

import (
	"context"
	"testing"
	"time"

	"sacco-returns/internal/adapters/persistence/models"
	"sacco-returns/internal/adapters/persistence/repositories"
	"sacco-returns/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Login(ctx, &LoginInput{Username: " analyst ", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, domain.RoleAnalyst, resp.User.Role)
	require.NotNil(t, resp.User.LastLogin)

	_, err = f.auth.Login(ctx, &LoginInput{Username: "analyst", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, &LoginInput{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.NoError(t, f.users.Deactivate(ctx, f.admin, f.supervisor.ID))
	_, err = f.auth.Login(ctx, &LoginInput{Username: "supervisor", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestAuthenticateReloadsUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alpha := f.createSacco(t, "REG-001", "Alpha")
	clerk := f.staff(t, "clerk", domain.RoleDataEntryOfficer, alpha.ID)

	resp, err := f.auth.Login(ctx, &LoginInput{Username: "clerk", Password: "password123"})
	require.NoError(t, err)

	actor, err := f.auth.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, clerk.ID, actor.ID)
	assert.True(t, actor.Active)
	id, ok := actor.SaccoID()
	require.True(t, ok)
	assert.Equal(t, alpha.ID, id)

	// a role change applies to an access token that is still valid
	_, err = f.users.Update(ctx, f.admin, clerk.ID, &UpdateUserInput{Role: ptr(domain.RoleSaccoManager)})
	require.NoError(t, err)
	actor, err = f.auth.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSaccoManager, actor.Role)

	require.NoError(t, f.users.Deactivate(ctx, f.admin, clerk.ID))
	_, err = f.auth.Authenticate(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUserInactive)

	_, err = f.auth.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestRefreshTokenRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.Login(ctx, &LoginInput{Username: "analyst", Password: "password123"})
	require.NoError(t, err)

	second, err := f.auth.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.auth.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	n, err := f.auth.ActiveSessions(ctx, f.analyst.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, f.auth.Logout(ctx, second.RefreshToken))
	_, err = f.auth.RefreshToken(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)

	_, err = f.auth.RefreshToken(ctx, first.AccessToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestLogoutAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.auth.Login(ctx, &LoginInput{Username: "analyst", Password: "password123"})
		require.NoError(t, err)
	}
	n, err := f.auth.ActiveSessions(ctx, f.analyst.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	require.NoError(t, f.auth.LogoutAll(ctx, f.analyst.ID))
	n, err = f.auth.ActiveSessions(ctx, f.analyst.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurgeExpiredTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Login(ctx, &LoginInput{Username: "analyst", Password: "password123"})
	require.NoError(t, err)

	tokens := repositories.NewRefreshTokenRepository(f.db)
	require.NoError(t, tokens.Create(ctx, &models.RefreshToken{
		UserID:    f.analyst.ID,
		TokenHash: "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}))

	purged, err := f.auth.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	n, err := f.auth.ActiveSessions(ctx, f.analyst.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
