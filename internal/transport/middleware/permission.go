package middleware

import (
	"net/http"
	"slices"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

// RequireRoles lets the request through only when the actor holds one of
// roles. It must run after the auth middleware.
func RequireRoles(roles ...actor.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := actor.FromContext(r.Context())
			if !ok {
				writeAppError(w, internal.ErrUnauthorizedAccess)
				return
			}

			if !slices.Contains(roles, a.Role) {
				logger.From(r.Context()).Warn("access denied: role not allowed",
					"user_id", a.UserID,
					"role", a.Role,
					"allowed_roles", roles)
				writeAppError(w, internal.NewAuthorizationError("role not allowed for this operation", internal.ErrCodeUnauthorizedAccess))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Approvers are the roles that sit on approval chains.
var Approvers = []actor.Role{actor.RoleManager, actor.RoleHR, actor.RoleAdmin}
