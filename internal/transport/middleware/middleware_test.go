package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
})

func withActor(req *http.Request, role actor.Role) *http.Request {
	return req.WithContext(actor.WithActor(req.Context(), actor.Actor{UserID: 9, CompanyID: 1, Role: role}))
}

var _ = Describe("RequireRoles", func() {
	gate := middleware.RequireRoles(actor.RoleHR, actor.RoleAdmin)(okHandler)

	It("returns 401 when no actor is present", func() {
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/policies", nil))
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("returns 403 for roles outside the list", func() {
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, withActor(httptest.NewRequest(http.MethodPost, "/api/v1/policies", nil), actor.RoleManager))
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(rec.Body.String()).To(ContainSubstring("role not allowed"))
	})

	It("lets listed roles through", func() {
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, withActor(httptest.NewRequest(http.MethodPost, "/api/v1/policies", nil), actor.RoleAdmin))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("treats every non-employee role as an approver", func() {
		Expect(middleware.Approvers).To(ConsistOf(actor.RoleManager, actor.RoleHR, actor.RoleAdmin))
	})
})

var _ = Describe("RequestID", func() {
	It("keeps a well formed trace id", func() {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceHeader, id)
		rec := httptest.NewRecorder()

		middleware.RequestID(okHandler).ServeHTTP(rec, req)
		Expect(rec.Header().Get(middleware.TraceHeader)).To(Equal(id))
	})

	It("replaces a malformed trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceHeader, "<script>")
		rec := httptest.NewRecorder()

		middleware.RequestID(okHandler).ServeHTTP(rec, req)
		traceID := rec.Header().Get(middleware.TraceHeader)
		Expect(traceID).NotTo(Equal("<script>"))
		_, err := uuid.Parse(traceID)
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("turns a panic into a 500 without leaking the value", func() {
		lg := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("ledger exploded")
		})
		rec := httptest.NewRecorder()

		middleware.RecoveryMiddleware(lg)(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).NotTo(ContainSubstring("ledger exploded"))
	})

	It("re-panics on ErrAbortHandler", func() {
		lg := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		abort := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		})

		Expect(func() {
			middleware.RecoveryMiddleware(lg)(abort).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		}).To(PanicWith(http.ErrAbortHandler))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	var (
		buf *bytes.Buffer
		lg  *slog.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		lg = slog.New(slog.NewJSONHandler(buf, nil))
	})

	entries := func() []map[string]interface{} {
		var out []map[string]interface{}
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			var entry map[string]interface{}
			Expect(json.Unmarshal([]byte(line), &entry)).To(Succeed())
			out = append(out, entry)
		}
		return out
	}

	It("redacts credentials and free text in requests", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/approvals/1/reject",
			strings.NewReader(`{"remarks":"medical appointment","upto":"2024-07-05"}`))
		req.Header.Set("Authorization", "Bearer secret-token")

		middleware.LoggingMiddleware(lg)(okHandler).ServeHTTP(httptest.NewRecorder(), req)

		logged := buf.String()
		Expect(logged).NotTo(ContainSubstring("secret-token"))
		Expect(logged).NotTo(ContainSubstring("medical appointment"))
		Expect(logged).To(ContainSubstring("2024-07-05"))
		Expect(logged).To(ContainSubstring("[FILTERED]"))
	})

	It("keeps the body readable for the next handler", func() {
		var seen string
		echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b := new(bytes.Buffer)
			_, _ = b.ReadFrom(r.Body)
			seen = b.String()
		})
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"leave_type_id":7}`))

		middleware.LoggingMiddleware(lg)(echo).ServeHTTP(httptest.NewRecorder(), req)
		Expect(seen).To(Equal(`{"leave_type_id":7}`))
	})

	It("logs response bodies only for errors", func() {
		middleware.LoggingMiddleware(lg)(okHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		logged := entries()
		Expect(logged).To(HaveLen(2))
		Expect(logged[1]).To(HaveKeyWithValue("msg", "response"))
		Expect(logged[1]).NotTo(HaveKey("body"))

		buf.Reset()
		failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":{"code":"CONCURRENT_UPDATE"}}`))
		})
		middleware.LoggingMiddleware(lg)(failing).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		logged = entries()
		Expect(logged[1]).To(HaveKeyWithValue("level", "WARN"))
		Expect(logged[1]).To(HaveKeyWithValue("status_code", BeEquivalentTo(409)))
		Expect(logged[1]["body"]).To(ContainSubstring("CONCURRENT_UPDATE"))
	})
})
