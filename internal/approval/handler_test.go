package approval_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/approval"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockApprovalService struct {
	err         error
	lastID      int64
	lastActor   actor.Actor
	lastUpto    time.Time
	lastRemarks string
	splitCalls  []string
}

func (m *mockApprovalService) Get(_ context.Context, companyID, id int64) (*approval.Request, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &approval.Request{ID: id, CompanyID: companyID, Status: approval.StatusPending}, nil
}

func (m *mockApprovalService) ListPending(_ context.Context, a actor.Actor) ([]*approval.Request, error) {
	m.lastActor = a
	return []*approval.Request{{ID: 1}, {ID: 2}}, nil
}

func (m *mockApprovalService) Approve(_ context.Context, id int64, a actor.Actor) (*approval.Outcome, error) {
	m.lastID, m.lastActor = id, a
	if m.err != nil {
		return nil, m.err
	}
	return &approval.Outcome{ApprovalID: id, Status: approval.StatusApproved, CurrentStep: 2}, nil
}

func (m *mockApprovalService) Reject(_ context.Context, id int64, a actor.Actor, remarks string) (*approval.Outcome, error) {
	m.lastID, m.lastActor, m.lastRemarks = id, a, remarks
	if m.err != nil {
		return nil, m.err
	}
	return &approval.Outcome{ApprovalID: id, Status: approval.StatusRejected, CurrentStep: 3}, nil
}

func (m *mockApprovalService) PartialApprove(_ context.Context, id int64, a actor.Actor, upto time.Time, remarks string) (*approval.SplitResult, error) {
	m.splitCalls = append(m.splitCalls, "approve")
	m.lastID, m.lastActor, m.lastUpto, m.lastRemarks = id, a, upto, remarks
	if m.err != nil {
		return nil, m.err
	}
	return &approval.SplitResult{ApprovalID: id, Status: approval.StatusPartiallyApproved, ApprovedID: 10, RemainderID: 11, RemainderApprovalID: 12}, nil
}

func (m *mockApprovalService) PartialReject(_ context.Context, id int64, a actor.Actor, upto time.Time, remarks string) (*approval.SplitResult, error) {
	m.splitCalls = append(m.splitCalls, "reject")
	m.lastID, m.lastActor, m.lastUpto, m.lastRemarks = id, a, upto, remarks
	if m.err != nil {
		return nil, m.err
	}
	return &approval.SplitResult{ApprovalID: id, Status: approval.StatusPartiallyRejected, ApprovedID: 10, RemainderID: 11}, nil
}

var _ = Describe("Approval Handler", func() {
	var (
		svc    *mockApprovalService
		router chi.Router
	)

	do := func(method, target, body string, a *actor.Actor) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if a != nil {
			req = req.WithContext(actor.WithActor(req.Context(), *a))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		svc = &mockApprovalService{}
		h := approval.NewHandler(svc)
		router = chi.NewRouter()
		router.Get("/approvals", h.ListPending)
		router.Get("/approvals/{id}", h.GetApproval)
		router.Post("/approvals/{id}/approve", h.Approve)
		router.Post("/approvals/{id}/reject", h.Reject)
		router.Post("/approvals/{id}/partial-approve", h.PartialApprove)
		router.Post("/approvals/{id}/partial-reject", h.PartialReject)
	})

	It("should require an authenticated actor", func() {
		rec := do(http.MethodPost, "/approvals/1/approve", "", nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should list the requests pending on the caller's role", func() {
		rec := do(http.MethodGet, "/approvals", "", &hr)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastActor).To(Equal(hr))

		var resp []approval.Request
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp).To(HaveLen(2))
	})

	It("should approve with the caller as actor", func() {
		rec := do(http.MethodPost, "/approvals/5/approve", "", &manager)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastID).To(Equal(int64(5)))
		Expect(svc.lastActor).To(Equal(manager))
	})

	It("should accept a reject without a body", func() {
		rec := do(http.MethodPost, "/approvals/5/reject", "", &manager)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastRemarks).To(BeEmpty())

		rec = do(http.MethodPost, "/approvals/5/reject", `{"remarks":"no cover"}`, &manager)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastRemarks).To(Equal("no cover"))
	})

	It("should parse the split date", func() {
		rec := do(http.MethodPost, "/approvals/5/partial-approve", `{"approved_upto":"2024-07-05","remarks":"half"}`, &hr)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastUpto).To(Equal(time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC)))
		Expect(svc.lastRemarks).To(Equal("half"))

		var resp approval.SplitResult
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.RemainderApprovalID).To(Equal(int64(12)))

		rec = do(http.MethodPost, "/approvals/5/partial-reject", `{"approved_upto":"2024-07-05"}`, &hr)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.splitCalls).To(Equal([]string{"approve", "reject"}))
	})

	It("should reject a malformed split date before calling the service", func() {
		rec := do(http.MethodPost, "/approvals/5/partial-approve", `{"approved_upto":"05/07/2024"}`, &hr)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(svc.splitCalls).To(BeEmpty())
	})

	DescribeTable("should map workflow errors to status codes",
		func(err error, want int) {
			svc.err = err
			rec := do(http.MethodPost, "/approvals/5/approve", "", &manager)
			Expect(rec.Code).To(Equal(want))
		},
		Entry("wrong role", approval.ErrNotYourStep, http.StatusForbidden),
		Entry("no pending step", approval.ErrNoPendingStep, http.StatusForbidden),
		Entry("already decided", approval.ErrRequestNotPending, http.StatusConflict),
		Entry("lost race", internal.ErrConcurrentUpdate, http.StatusConflict),
		Entry("unknown id", approval.ErrApprovalNotFound, http.StatusNotFound),
	)

	It("should reject a malformed id", func() {
		rec := do(http.MethodGet, "/approvals/abc", "", &hr)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
