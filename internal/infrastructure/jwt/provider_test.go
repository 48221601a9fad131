package jwtinfra

import (
	"strings"
	"testing"
	"time"

	"github.com/growwelltax/intake-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider("test-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	return p
}

func TestNewProvider_RequiresSecret(t *testing.T) {
	_, err := NewProvider("", time.Hour, 24*time.Hour)
	assert.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	p := newTestProvider(t)
	u := &domain.User{
		UserID:    "u1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+15551234567",
		Role:      domain.RoleTaxpayer,
	}

	token, err := p.SignAccess(u)
	require.NoError(t, err)

	claims, err := p.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Ada", claims.FirstName)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, domain.RoleTaxpayer, claims.Role)
}

func TestAccessToken_TamperedSignatureRejected(t *testing.T) {
	p := newTestProvider(t)
	token, err := p.SignAccess(&domain.User{UserID: "u1"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = p.VerifyAccess(tampered)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAccessToken_DifferentSecretRejected(t *testing.T) {
	p := newTestProvider(t)
	other, err := NewProvider("other-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	token, err := other.SignAccess(&domain.User{UserID: "u1"})
	require.NoError(t, err)

	_, err = p.VerifyAccess(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefreshToken_TypeEnforced(t *testing.T) {
	p := newTestProvider(t)

	refresh, err := p.SignRefresh("u1")
	require.NoError(t, err)
	claims, err := p.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	// An access token is not accepted where a refresh token is expected.
	access, err := p.SignAccess(&domain.User{UserID: "u1"})
	require.NoError(t, err)
	_, err = p.VerifyRefresh(access)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefreshToken_NotValidAsAccessToken(t *testing.T) {
	p := newTestProvider(t)

	refresh, err := p.SignRefresh("u1")
	require.NoError(t, err)
	_, err = p.VerifyAccess(refresh)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	adminRefresh, err := p.SignAdminRefresh("a1")
	require.NoError(t, err)
	_, err = p.VerifyAdmin(adminRefresh)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAdminToken_RoundTrip(t *testing.T) {
	p := newTestProvider(t)
	a := &domain.AdminUser{
		AdminID:     "a1",
		Email:       "admin@example.com",
		Name:        "Admin",
		Role:        domain.RoleAdmin,
		Pages:       []string{"applications", "users"},
		Permissions: []string{"view_applications"},
	}

	token, err := p.SignAdmin(a)
	require.NoError(t, err)

	claims, err := p.VerifyAdmin(token)
	require.NoError(t, err)
	assert.Equal(t, "a1", claims.AdminID)
	assert.Equal(t, []string{"applications", "users"}, claims.Pages)
	assert.Equal(t, []string{"view_applications"}, claims.Permissions)
}

func TestAdminToken_NotValidAsUserToken(t *testing.T) {
	p := newTestProvider(t)

	adminRefresh, err := p.SignAdminRefresh("a1")
	require.NoError(t, err)
	_, err = p.VerifyRefresh(adminRefresh)
	assert.Error(t, err)
}

func TestExpiredToken_Rejected(t *testing.T) {
	p, err := NewProvider("test-secret", -time.Minute, 24*time.Hour)
	require.NoError(t, err)

	token, err := p.SignAccess(&domain.User{UserID: "u1"})
	require.NoError(t, err)

	_, err = p.VerifyAccess(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
