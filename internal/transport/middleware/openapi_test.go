package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/leave-management/internal/transport/middleware"
	"github.com/getkin/kin-openapi/openapi3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const leaveDoc = `
openapi: 3.0.3
info:
  title: leaves
  version: "1"
paths:
  /api/v1/leaves:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [leave_type_id, from_date, to_date]
              properties:
                leave_type_id:
                  type: integer
                  minimum: 1
                from_date:
                  type: string
                to_date:
                  type: string
      responses:
        "201":
          description: created
  /api/v1/leaves/{id}:
    get:
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: integer
            minimum: 1
      responses:
        "200":
          description: ok
`

var _ = Describe("OpenAPIValidator", func() {
	var handler http.Handler

	BeforeEach(func() {
		doc, err := openapi3.NewLoader().LoadFromData([]byte(leaveDoc))
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Validate(context.Background())).To(Succeed())

		validate, err := middleware.OpenAPIValidator(doc)
		Expect(err).NotTo(HaveOccurred())
		handler = validate(okHandler)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	It("passes a conforming body", func() {
		rec := post(`{"leave_type_id":7,"from_date":"2024-07-01","to_date":"2024-07-10"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("rejects a body missing required fields", func() {
		rec := post(`{"leave_type_id":7}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("request body does not match the schema"))
	})

	It("rejects a badly typed path parameter", func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leaves/abc", nil))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring(`parameter \"id\"`))
	})

	It("ignores routes the document does not describe", func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/calendar", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})
