package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/growwelltax/intake-api/internal/domain"
	jwtinfra "github.com/growwelltax/intake-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	p, err := jwtinfra.NewProvider("test-secret", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	return p
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuth_MissingHeader(t *testing.T) {
	p := newTestProvider(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	Auth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_BadToken(t *testing.T) {
	p := newTestProvider(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rr := httptest.NewRecorder()
	Auth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_ValidToken_InjectsClaims(t *testing.T) {
	p := newTestProvider(t)
	token, err := p.SignAccess(&domain.User{UserID: "u1", Role: domain.RoleTaxpayer})
	require.NoError(t, err)

	var gotUserID string
	inner := func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		gotUserID = claims.UserID
		w.WriteHeader(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	Auth(p)(http.HandlerFunc(inner)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", gotUserID)
}

func TestAuth_AdminTokenRejected(t *testing.T) {
	p := newTestProvider(t)
	token, err := p.SignAdmin(&domain.AdminUser{AdminID: "a1", Role: domain.RoleSuperAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	Auth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminAuth_HeaderToken(t *testing.T) {
	p := newTestProvider(t)
	token, err := p.SignAdmin(&domain.AdminUser{AdminID: "a1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	var gotAdminID string
	inner := func(w http.ResponseWriter, r *http.Request) {
		claims, ok := AdminClaimsFromContext(r.Context())
		require.True(t, ok)
		gotAdminID = claims.AdminID
		w.WriteHeader(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	AdminAuth(p)(http.HandlerFunc(inner)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "a1", gotAdminID)
}

func TestAdminAuth_QueryToken(t *testing.T) {
	p := newTestProvider(t)
	token, err := p.SignAdmin(&domain.AdminUser{AdminID: "a1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/files/w2-forms/u1/x.pdf?token="+token, nil)
	rr := httptest.NewRecorder()
	AdminAuth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminAuth_MissingToken(t *testing.T) {
	p := newTestProvider(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	AdminAuth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminAuth_UserTokenRejected(t *testing.T) {
	p := newTestProvider(t)
	token, err := p.SignAccess(&domain.User{UserID: "u1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	AdminAuth(p)(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func adminRequest(t *testing.T, p *jwtinfra.Provider, a *domain.AdminUser) *http.Request {
	t.Helper()
	token, err := p.SignAdmin(a)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRequireCapability(t *testing.T) {
	p := newTestProvider(t)
	handler := AdminAuth(p)(RequireCapability("delete_applications")(http.HandlerFunc(okHandler)))

	// Viewer role never holds delete capabilities.
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, adminRequest(t, p, &domain.AdminUser{AdminID: "a1", Role: domain.RoleViewer}))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Super admin does.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, adminRequest(t, p, &domain.AdminUser{AdminID: "a1", Role: domain.RoleSuperAdmin}))
	assert.Equal(t, http.StatusOK, rr.Code)

	// Page grant expands to the page's capabilities regardless of role.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, adminRequest(t, p, &domain.AdminUser{
		AdminID: "a1", Role: domain.RoleViewer, Pages: []string{"applications"},
	}))
	assert.Equal(t, http.StatusOK, rr.Code)

	// Explicit permissions override the page grant.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, adminRequest(t, p, &domain.AdminUser{
		AdminID: "a1", Role: domain.RoleSuperAdmin,
		Pages: []string{"applications"}, Permissions: []string{"view_applications"},
	}))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireCapability_NoClaims(t *testing.T) {
	handler := RequireCapability("view_applications")(http.HandlerFunc(okHandler))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
