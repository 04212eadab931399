package leave_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockLeaveService struct {
	err          error
	lastDTO      leave.SubmitDTO
	lastEmployee int64
}

func (m *mockLeaveService) Submit(_ context.Context, a actor.Actor, dto leave.SubmitDTO) (*leave.SubmitResult, error) {
	m.lastDTO = dto
	if m.err != nil {
		return nil, m.err
	}
	return &leave.SubmitResult{
		Leave:      &leave.Request{ID: 9, EmployeeID: a.UserID, Status: leave.StatusPending},
		ApprovalID: 3,
	}, nil
}

func (m *mockLeaveService) Get(_ context.Context, _ actor.Actor, id int64) (*leave.Request, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &leave.Request{ID: id}, nil
}

func (m *mockLeaveService) ListForEmployee(_ context.Context, _ actor.Actor, employeeID int64) ([]*leave.Request, error) {
	m.lastEmployee = employeeID
	if m.err != nil {
		return nil, m.err
	}
	return []*leave.Request{{ID: 1, EmployeeID: employeeID}}, nil
}

var _ = Describe("Leave Handler", func() {
	var (
		svc    *mockLeaveService
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
		svc = &mockLeaveService{}
		h := leave.NewHandler(svc)
		router = chi.NewRouter()
		router.Post("/leaves", h.SubmitLeave)
		router.Get("/leaves", h.ListLeaves)
		router.Get("/leaves/{id}", h.GetLeave)
	})

	It("should submit for the caller and return 201", func() {
		rec := do(http.MethodPost, "/leaves", `{"leave_type_id":7,"from_date":"2024-07-01","to_date":"2024-07-05"}`, &employeeActor)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(svc.lastDTO.LeaveTypeID).To(Equal(int64(7)))

		var resp leave.SubmitResult
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.ApprovalID).To(Equal(int64(3)))
		Expect(resp.Leave.EmployeeID).To(Equal(employeeID))
	})

	It("should reject a malformed body", func() {
		rec := do(http.MethodPost, "/leaves", `{"leave_type_id":`, &employeeActor)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should surface validation errors as 400", func() {
		svc.err = leave.ErrZeroUnits
		rec := do(http.MethodPost, "/leaves", `{"leave_type_id":7,"from_date":"2024-07-06","to_date":"2024-07-07"}`, &employeeActor)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should list the caller's own requests by default", func() {
		rec := do(http.MethodGet, "/leaves", "", &employeeActor)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastEmployee).To(Equal(employeeID))

		rec = do(http.MethodGet, "/leaves?employee_id=77", "", &managerActor)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastEmployee).To(Equal(int64(77)))
	})

	It("should reject a malformed employee id", func() {
		rec := do(http.MethodGet, "/leaves?employee_id=x", "", &managerActor)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should map forbidden listings to 403", func() {
		svc.err = internal.NewAuthorizationError("cannot list another employee's leave", internal.ErrCodeUnauthorizedAccess)
		rec := do(http.MethodGet, "/leaves?employee_id=77", "", &employeeActor)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("should return 404 for a hidden request", func() {
		svc.err = leave.ErrLeaveNotFound
		rec := do(http.MethodGet, "/leaves/9", "", &employeeActor)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})
})
