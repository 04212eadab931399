package rest_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/internal/policy"
	"github.com/frahmantamala/leave-management/internal/transport/rest"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubPolicyService struct{}

func (stubPolicyService) ListLeaveTypes(_ context.Context, companyID int64) ([]policy.LeaveType, error) {
	return []policy.LeaveType{{ID: 1, CompanyID: companyID, Code: "AL", Name: "Annual", IsActive: true}}, nil
}

func (stubPolicyService) CreateLeaveType(_ context.Context, companyID int64, dto policy.CreateLeaveTypeDTO) (*policy.LeaveType, error) {
	return &policy.LeaveType{ID: 2, CompanyID: companyID, Code: dto.Code, Name: dto.Name, IsActive: true}, nil
}

func (stubPolicyService) CreatePolicy(_ context.Context, companyID int64, dto policy.CreatePolicyDTO) (*policy.Policy, error) {
	return &policy.Policy{ID: 1, CompanyID: companyID, Name: dto.Name}, nil
}

func (stubPolicyService) CreateMapping(_ context.Context, companyID int64, dto policy.CreateMappingDTO) (*policy.Mapping, error) {
	return &policy.Mapping{ID: 1, CompanyID: companyID}, nil
}

var _ = Describe("Router", func() {
	var (
		key    *rsa.PrivateKey
		tokens *auth.JWTTokenGenerator
		health map[string]rest.Pinger
		router *chi.Mux
	)

	BeforeEach(func() {
		var err error
		key, err = rsa.GenerateKey(rand.Reader, 2048)
		Expect(err).NotTo(HaveOccurred())
		tokens = auth.NewJWTTokenGenerator(key, &key.PublicKey, time.Minute)
		health = map[string]rest.Pinger{
			"database": rest.PingFunc(func(context.Context) error { return nil }),
		}
	})

	JustBeforeEach(func() {
		router = chi.NewRouter()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		rest.RegisterAllRoutes(router, rest.Handlers{
			Auth:   auth.NewHandler(tokens),
			Policy: policy.NewHandler(stubPolicyService{}),
		}, rest.RouterOptions{
			Health:         health,
			MetricsPath:    "/metrics",
			MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		}, lg)
	})

	do := func(method, target, body string, role actor.Role) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if role != "" {
			token, err := tokens.GenerateAccessToken(actor.Actor{UserID: 4, CompanyID: 1, Role: role})
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("should answer ping without a token", func() {
		rec := do(http.MethodGet, "/api/v1/ping", "", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("OK"))
	})

	Context("when a dependency is down", func() {
		BeforeEach(func() {
			health["redis"] = rest.PingFunc(func(context.Context) error { return errors.New("connection refused") })
		})

		It("should report the service unhealthy", func() {
			rec := do(http.MethodGet, "/api/v1/health", "", "")
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))

			var resp rest.HealthResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Components["database"].Status).To(Equal(rest.HealthHealthy))
			Expect(resp.Components["redis"].Status).To(Equal(rest.HealthUnhealthy))
			Expect(resp.Components["redis"].Message).To(Equal("connection refused"))
		})
	})

	It("should serve metrics outside the API prefix", func() {
		rec := do(http.MethodGet, "/metrics", "", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("# metrics"))
	})

	It("should require a token for API routes", func() {
		Expect(do(http.MethodGet, "/api/v1/me", "", "").Code).To(Equal(http.StatusUnauthorized))
		Expect(do(http.MethodGet, "/api/v1/me", "", actor.RoleEmployee).Code).To(Equal(http.StatusOK))
	})

	It("should let any role read leave types but only HR or ADMIN create them", func() {
		Expect(do(http.MethodGet, "/api/v1/leave-types", "", actor.RoleEmployee).Code).To(Equal(http.StatusOK))

		body := `{"code":"CL","name":"Casual"}`
		Expect(do(http.MethodPost, "/api/v1/leave-types", body, actor.RoleEmployee).Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodPost, "/api/v1/leave-types", body, actor.RoleManager).Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodPost, "/api/v1/leave-types", body, actor.RoleHR).Code).To(Equal(http.StatusCreated))
	})

	It("should keep policy administration away from managers", func() {
		rec := do(http.MethodPost, "/api/v1/policies/", `{"name":"X","effective_from":"2024-01-01"}`, actor.RoleManager)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("should not mount handlers that were not provided", func() {
		Expect(do(http.MethodGet, "/api/v1/leaves", "", actor.RoleEmployee).Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodGet, "/openapi.yml", "", "").Code).To(Equal(http.StatusNotFound))
	})
})
