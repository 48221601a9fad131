package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/growwelltax/intake-api/internal/application/permission"
	jwtinfra "github.com/growwelltax/intake-api/internal/infrastructure/jwt"
)

const AdminClaimsKey contextKey = "admin_claims"

// adminToken pulls the admin JWT from the Authorization header or, for
// browser-navigated file links, from the token query parameter.
func adminToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// AdminAuth returns middleware that validates the admin JWT and injects the
// admin claims into context.
func AdminAuth(provider *jwtinfra.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := adminToken(r)
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing admin token")
				return
			}
			claims, err := provider.VerifyAdmin(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), AdminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaimsFromContext extracts admin JWT claims from the request context.
func AdminClaimsFromContext(ctx context.Context) (*jwtinfra.AdminClaims, bool) {
	c, ok := ctx.Value(AdminClaimsKey).(*jwtinfra.AdminClaims)
	return c, ok
}

// RequireCapability returns middleware that allows access only when the
// admin's resolved capability set grants it.
func RequireCapability(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := AdminClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			caps := permission.ResolveGrants(claims.Role, claims.Pages, claims.Permissions)
			if !caps.Has(capability) {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
