package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/leave-management/internal/approval"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/ledger"
	"github.com/frahmantamala/leave-management/internal/policy"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/frahmantamala/leave-management/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
)

// Handlers groups every HTTP surface the router mounts. Nil handlers are
// skipped.
type Handlers struct {
	Auth     *auth.Handler
	Leave    *leave.Handler
	Approval *approval.Handler
	Ledger   *ledger.Handler
	Policy   *policy.Handler
	Calendar *calendar.Handler
}

type RouterOptions struct {
	AllowedOrigins []string
	OpenAPIPath    string
	// Validator checks requests against the OpenAPI document when set.
	Validator      func(http.Handler) http.Handler
	MetricsPath    string
	MetricsHandler http.Handler
	Health         map[string]Pinger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts RouterOptions, logger *slog.Logger) {
	healthHandler := NewHealthHandler(opts.Health)

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.TraceHeader},
			ExposedHeaders: []string{middleware.TraceHeader},
			MaxAge:         300,
		}))
	}

	if opts.MetricsHandler != nil && opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, opts.MetricsHandler)
	}

	if opts.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			if opts.Validator != nil {
				pr.Use(opts.Validator)
			}

			pr.Get("/me", h.Auth.Me)

			if h.Leave != nil {
				pr.Route("/leaves", func(lr chi.Router) {
					lr.Post("/", h.Leave.SubmitLeave)
					lr.Get("/", h.Leave.ListLeaves)
					lr.Get("/{id}", h.Leave.GetLeave)
				})
			}

			if h.Ledger != nil {
				pr.Route("/balances/{leaveTypeId}", func(br chi.Router) {
					br.Get("/", h.Ledger.GetBalance)
					br.Get("/statement", h.Ledger.GetStatement)
					br.Post("/encash", h.Ledger.Encash)
				})
			}

			if h.Approval != nil {
				pr.Route("/approvals", func(ar chi.Router) {
					ar.Use(middleware.RequireRoles(middleware.Approvers...))
					ar.Get("/", h.Approval.ListPending)
					ar.Get("/{id}", h.Approval.GetApproval)
					ar.Post("/{id}/approve", h.Approval.Approve)
					ar.Post("/{id}/reject", h.Approval.Reject)
					ar.Post("/{id}/partial-approve", h.Approval.PartialApprove)
					ar.Post("/{id}/partial-reject", h.Approval.PartialReject)
				})
			}

			if h.Calendar != nil {
				pr.Get("/calendar", h.Calendar.GetProfile)
				pr.Group(func(cr chi.Router) {
					cr.Use(middleware.RequireRoles(actor.RoleHR, actor.RoleAdmin))
					cr.Post("/calendars/{id}/holidays", h.Calendar.ImportHolidays)
				})
			}

			if h.Policy != nil {
				pr.Get("/leave-types", h.Policy.ListLeaveTypes)
				pr.With(middleware.RequireRoles(actor.RoleHR, actor.RoleAdmin)).Post("/leave-types", h.Policy.CreateLeaveType)
				pr.Route("/policies", func(pr chi.Router) {
					pr.Use(middleware.RequireRoles(actor.RoleHR, actor.RoleAdmin))
					pr.Post("/", h.Policy.CreatePolicy)
					pr.Post("/mappings", h.Policy.CreateMapping)
				})
			}
		})
	})
}
