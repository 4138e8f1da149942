package middleware

import (
	"context"
	"net/http"

	"github.com/tranqh/tripflow/pkg/response"
)

// Role discriminates the identity union. Authentication itself happens at the
// gateway (Azure AD); by the time a request reaches this service the gateway
// has stamped the identity headers, and we only shape them into a typed value.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AdminType narrows admin identities.
type AdminType string

const (
	AdminTypeSuper    AdminType = "super_admin"
	AdminTypeLocation AdminType = "location_admin"
)

// Identity is the tagged identity attached to every request. LocationID is
// set only for location admins.
type Identity struct {
	Role       Role
	AdminType  AdminType
	LocationID string
	UserID     string
	Email      string
	Name       string
}

// IsAdmin reports whether the identity carries admin privileges.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const identityKey ContextKey = "identity"

// Gateway header names. These are stripped and re-set at the edge, so their
// presence here is trusted.
const (
	headerUserID    = "X-User-Id"
	headerUserEmail = "X-User-Email"
	headerUserName  = "X-User-Name"
	headerRole      = "X-User-Role"
	headerAdminType = "X-Admin-Type"
	headerLocation  = "X-Admin-Location"
)

// IdentityMiddleware builds the request identity from gateway headers and
// rejects requests with no user attached.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Identity{
			Role:   RoleUser,
			UserID: r.Header.Get(headerUserID),
			Email:  r.Header.Get(headerUserEmail),
			Name:   r.Header.Get(headerUserName),
		}
		if id.UserID == "" || id.Email == "" {
			response.Unauthorized(w, "Missing identity headers")
			return
		}
		if r.Header.Get(headerRole) == string(RoleAdmin) {
			id.Role = RoleAdmin
			switch AdminType(r.Header.Get(headerAdminType)) {
			case AdminTypeSuper:
				id.AdminType = AdminTypeSuper
			case AdminTypeLocation:
				id.AdminType = AdminTypeLocation
				id.LocationID = r.Header.Get(headerLocation)
			default:
				response.Forbidden(w, "Unknown admin type")
				return
			}
		}
		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin guards admin-only routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIdentity(r.Context())
		if !ok || !id.IsAdmin() {
			response.Forbidden(w, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetIdentity extracts the identity from the request context.
func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
