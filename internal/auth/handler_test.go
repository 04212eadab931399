package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractTokenFromHeader", func() {
	DescribeTable("header parsing",
		func(header, expected string) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			Expect(auth.ExtractTokenFromHeader(req)).To(Equal(expected))
		},
		Entry("missing", "", ""),
		Entry("bearer", "Bearer abc.def", "abc.def"),
		Entry("lower case scheme", "bearer abc.def", "abc.def"),
		Entry("basic scheme", "Basic dXNlcjpwYXNz", ""),
		Entry("no token", "Bearer", ""),
	)
})

var _ = Describe("Handler", func() {
	var (
		tokens  *auth.JWTTokenGenerator
		handler *auth.Handler
		seen    *actor.Actor
		next    http.Handler
	)

	BeforeEach(func() {
		key := newKey()
		tokens = auth.NewJWTTokenGenerator(key, &key.PublicKey, time.Minute)
		handler = auth.NewHandler(tokens)
		seen = nil
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := actor.FromContext(r.Context())
			if ok {
				seen = &a
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	serve := func(h http.Handler, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	Describe("AuthMiddleware", func() {
		It("returns 401 without a token", func() {
			rec := serve(handler.AuthMiddleware(next), "")
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(seen).To(BeNil())
		})

		It("returns 401 for an invalid token", func() {
			rec := serve(handler.AuthMiddleware(next), "Bearer nope")
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Body.String()).To(ContainSubstring("INVALID_TOKEN"))
			Expect(seen).To(BeNil())
		})

		It("puts the actor on the request context", func() {
			token, err := tokens.GenerateAccessToken(actor.Actor{UserID: 2, CompanyID: 1, Role: actor.RoleManager})
			Expect(err).NotTo(HaveOccurred())

			rec := serve(handler.AuthMiddleware(next), "Bearer "+token)
			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(seen).NotTo(BeNil())
			Expect(*seen).To(Equal(actor.Actor{UserID: 2, CompanyID: 1, Role: actor.RoleManager}))
		})
	})

	Describe("Me", func() {
		It("echoes the authenticated actor", func() {
			token, err := tokens.GenerateAccessToken(actor.Actor{UserID: 42, CompanyID: 1, Role: actor.RoleEmployee})
			Expect(err).NotTo(HaveOccurred())

			rec := serve(handler.AuthMiddleware(http.HandlerFunc(handler.Me)), "Bearer "+token)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var body map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("user_id", BeEquivalentTo(42)))
			Expect(body).To(HaveKeyWithValue("role", "EMPLOYEE"))
		})
	})
})
