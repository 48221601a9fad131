package permission

import (
	"testing"

	"github.com/growwelltax/intake-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestResolveGrants_PermissionsWinOverEverything(t *testing.T) {
	caps := ResolveGrants(domain.RoleSuperAdmin, []string{"users", "applications"}, []string{CapViewPayments})
	assert.True(t, caps.Has(CapViewPayments))
	assert.False(t, caps.Has(CapViewUsers))
	assert.False(t, caps.Has(CapManageAdmins))
}

func TestResolveGrants_PagesExpandToCapabilities(t *testing.T) {
	caps := ResolveGrants(domain.RoleViewer, []string{"users", "payments"}, nil)
	assert.True(t, caps.Has(CapViewUsers))
	assert.True(t, caps.Has(CapEditUsers))
	assert.True(t, caps.Has(CapDeleteUsers))
	assert.True(t, caps.Has(CapEditPayments))
	assert.False(t, caps.Has(CapViewApplications))
}

func TestResolveGrants_RoleFallback(t *testing.T) {
	caps := ResolveGrants(domain.RoleViewer, nil, nil)
	assert.True(t, caps.Has(CapViewApplications))
	assert.False(t, caps.Has(CapEditApplications))
	assert.False(t, caps.Has(CapManageAdmins))

	caps = ResolveGrants(domain.RoleAdmin, nil, nil)
	assert.True(t, caps.Has(CapEditApplications))
	assert.False(t, caps.Has(CapDeleteApplications))

	caps = ResolveGrants(domain.RoleSuperAdmin, nil, nil)
	assert.True(t, caps.Has(CapDeleteApplications))
	assert.True(t, caps.Has(CapManageAdmins))
}

func TestResolveGrants_LegacyRecordDefaultsToSuperAdmin(t *testing.T) {
	caps := ResolveGrants("", nil, nil)
	assert.True(t, caps.Has(CapManageAdmins))
}

func TestResolve_NilAdmin(t *testing.T) {
	caps := Resolve(nil)
	assert.Empty(t, caps)
}

func TestIsSuperAdmin(t *testing.T) {
	assert.False(t, IsSuperAdmin(nil))

	// Pages take precedence over the role.
	withPage := &domain.AdminUser{Role: domain.RoleViewer, Pages: []string{"users", PageAdminUsers}}
	assert.True(t, IsSuperAdmin(withPage))

	withoutPage := &domain.AdminUser{Role: domain.RoleSuperAdmin, Pages: []string{"users"}}
	assert.False(t, IsSuperAdmin(withoutPage))

	roleOnly := &domain.AdminUser{Role: domain.RoleSuperAdmin}
	assert.True(t, IsSuperAdmin(roleOnly))
}

func TestHasPageAccess(t *testing.T) {
	scoped := &domain.AdminUser{Role: domain.RoleSuperAdmin, Pages: []string{"users", PageAdminUsers}}
	assert.True(t, HasPageAccess(scoped, "users"))
	assert.False(t, HasPageAccess(scoped, "payments"))

	superAdmin := &domain.AdminUser{Role: domain.RoleSuperAdmin}
	assert.True(t, HasPageAccess(superAdmin, "payments"))
	assert.True(t, HasPageAccess(superAdmin, PageAdminUsers))

	viewer := &domain.AdminUser{Role: domain.RoleViewer}
	assert.True(t, HasPageAccess(viewer, "payments"))
	assert.False(t, HasPageAccess(viewer, PageAdminUsers))

	admin := &domain.AdminUser{Role: domain.RoleAdmin}
	assert.True(t, HasPageAccess(admin, "payments"))
	assert.False(t, HasPageAccess(admin, PageAdminUsers))
}
