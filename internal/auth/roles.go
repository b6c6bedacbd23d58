package auth

import (
	"net/http"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/pkg/logger"
)

// RequireRoles admits callers whose role is in roles. It must run after
// AuthMiddleware.
func (h *Handler) RequireRoles(roles ...internal.Role) func(http.Handler) http.Handler {
	allowed := internal.NewRoleSet(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := internal.UserFromContext(r.Context())
			if !ok {
				h.HandleError(w, r, internal.ErrNotAuthenticated)
				return
			}
			if !allowed.Allows(u.Role) {
				logger.From(r.Context()).Warn("access denied", "user_id", u.ID, "role", u.Role)
				h.HandleError(w, r, internal.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
