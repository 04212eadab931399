package auth

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Tokens TokenGenerator
}

func NewHandler(tokens TokenGenerator) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Tokens:      tokens,
	}
}

// ExtractTokenFromHeader returns the bearer token or an empty string.
func ExtractTokenFromHeader(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware verifies the bearer token and stores the actor in the
// request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.Debug("auth middleware: missing authorization token", "path", r.URL.Path)
			h.HandleServiceError(w, internal.ErrUnauthorizedAccess)
			return
		}

		claims, err := h.Tokens.ValidateToken(token)
		if err != nil {
			h.Logger.Warn("token validation failed", "error", err, "path", r.URL.Path)
			h.HandleServiceError(w, err)
			return
		}

		a := claims.Actor()
		ctx := actor.WithActor(r.Context(), a)
		ctx = logger.With(ctx, "user_id", a.UserID, "company_id", a.CompanyID, "role", a.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Me echoes the authenticated actor.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    a.UserID,
		"company_id": a.CompanyID,
		"role":       a.Role,
	})
}
