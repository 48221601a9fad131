// Package permission computes an admin principal's effective capability set.
// Admin records come in three historical shapes: an explicit permission
// list, explicit page grants, or just a legacy role. Resolution is a
// pure function with a fixed precedence: permissions, then pages, then role.
// A record carrying none of the three is treated as super_admin so that
// legacy admin sessions created before the grants migration keep working.
package permission

import "github.com/growwelltax/intake-api/internal/domain"

// Capability names. These gate individual admin actions and must stay in
// sync with the admin panel's permission constants.
const (
	CapManageAdmins       = "manage_admins"
	CapViewUsers          = "view_users"
	CapEditUsers          = "edit_users"
	CapDeleteUsers        = "delete_users"
	CapViewApplications   = "view_applications"
	CapEditApplications   = "edit_applications"
	CapDeleteApplications = "delete_applications"
	CapViewPayments       = "view_payments"
	CapEditPayments       = "edit_payments"
	CapViewAppointments   = "view_appointments"
	CapEditAppointments   = "edit_appointments"
	CapViewFeedback       = "view_feedback"
	CapEditFeedback       = "edit_feedback"
	CapViewSupport        = "view_support"
	CapEditSupport        = "edit_support"
	CapViewDashboard      = "view_dashboard"
)

// PageAdminUsers is the sentinel page: holding it marks a super admin.
const PageAdminUsers = "admin-users"

// Set is an effective capability set.
type Set map[string]bool

// Has reports whether the set grants the capability.
func (s Set) Has(capability string) bool { return s[capability] }

var adminCaps = []string{
	CapViewUsers, CapEditUsers,
	CapViewApplications, CapEditApplications,
	CapViewPayments, CapEditPayments,
	CapViewAppointments, CapEditAppointments,
	CapViewFeedback, CapEditFeedback,
	CapViewSupport, CapEditSupport,
	CapViewDashboard,
}

var viewerCaps = []string{
	CapViewUsers, CapViewApplications, CapViewPayments,
	CapViewAppointments, CapViewFeedback, CapViewSupport,
	CapViewDashboard,
}

// roleCapabilities: super_admin ⊇ admin ⊇ viewer.
var roleCapabilities = map[string][]string{
	domain.RoleSuperAdmin: append([]string{CapManageAdmins, CapDeleteUsers, CapDeleteApplications}, adminCaps...),
	domain.RoleAdmin:      adminCaps,
	domain.RoleViewer:     viewerCaps,
}

// pageCapabilities expands a page grant to the capabilities it bundles.
var pageCapabilities = map[string][]string{
	"dashboard":        {CapViewDashboard},
	"users":            {CapViewUsers, CapEditUsers, CapDeleteUsers},
	"applications":     {CapViewApplications, CapEditApplications, CapDeleteApplications},
	"payments":         {CapViewPayments, CapEditPayments},
	"scheduled-calls":  {CapViewAppointments, CapEditAppointments},
	"feedbacks":        {CapViewFeedback, CapEditFeedback},
	"support-requests": {CapViewSupport, CapEditSupport},
	PageAdminUsers:     {CapManageAdmins},
}

// Resolve computes the capability set for an admin record. A nil record
// resolves to the empty set.
func Resolve(a *domain.AdminUser) Set {
	if a == nil {
		return Set{}
	}
	return ResolveGrants(a.Role, a.Pages, a.Permissions)
}

// ResolveGrants is Resolve over the raw grant fields, for callers that carry
// them in token claims rather than a store record.
func ResolveGrants(role string, pages, permissions []string) Set {
	if len(permissions) > 0 {
		return setOf(permissions)
	}
	if len(pages) > 0 {
		s := Set{}
		for _, page := range pages {
			for _, c := range pageCapabilities[page] {
				s[c] = true
			}
		}
		return s
	}
	if role != "" {
		return setOf(roleCapabilities[role])
	}
	// Legacy record with no grants at all: treat as super_admin so sessions
	// issued before the grants migration aren't locked out.
	return setOf(roleCapabilities[domain.RoleSuperAdmin])
}

// IsSuperAdmin reports whether the principal holds the admin-users page, or
// the super_admin role when no page grants exist.
func IsSuperAdmin(a *domain.AdminUser) bool {
	if a == nil {
		return false
	}
	if len(a.Pages) > 0 {
		return contains(a.Pages, PageAdminUsers)
	}
	return a.Role == domain.RoleSuperAdmin
}

// HasPageAccess reports whether the principal may open the given page.
func HasPageAccess(a *domain.AdminUser, page string) bool {
	if a == nil {
		return false
	}
	if len(a.Pages) > 0 {
		return contains(a.Pages, page)
	}
	if a.Role == domain.RoleSuperAdmin {
		return true
	}
	if a.Role == domain.RoleViewer && page == PageAdminUsers {
		return false
	}
	return page != PageAdminUsers
}

func setOf(caps []string) Set {
	s := Set{}
	for _, c := range caps {
		s[c] = true
	}
	return s
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
