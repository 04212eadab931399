package policy_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/internal/policy"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockPolicyService struct {
	err         error
	lastCompany int64
	lastType    policy.CreateLeaveTypeDTO
	lastMapping policy.CreateMappingDTO
}

func (m *mockPolicyService) ListLeaveTypes(_ context.Context, companyID int64) ([]policy.LeaveType, error) {
	m.lastCompany = companyID
	if m.err != nil {
		return nil, m.err
	}
	return []policy.LeaveType{{ID: 7, CompanyID: companyID, Code: "AL", Name: "Annual", IsActive: true}}, nil
}

func (m *mockPolicyService) CreateLeaveType(_ context.Context, companyID int64, dto policy.CreateLeaveTypeDTO) (*policy.LeaveType, error) {
	m.lastCompany = companyID
	m.lastType = dto
	if m.err != nil {
		return nil, m.err
	}
	return &policy.LeaveType{ID: 8, CompanyID: companyID, Code: dto.Code, Name: dto.Name, IsActive: true}, nil
}

func (m *mockPolicyService) CreatePolicy(_ context.Context, companyID int64, dto policy.CreatePolicyDTO) (*policy.Policy, error) {
	m.lastCompany = companyID
	if m.err != nil {
		return nil, m.err
	}
	return &policy.Policy{ID: 3, CompanyID: companyID, Name: dto.Name}, nil
}

func (m *mockPolicyService) CreateMapping(_ context.Context, companyID int64, dto policy.CreateMappingDTO) (*policy.Mapping, error) {
	m.lastCompany = companyID
	m.lastMapping = dto
	if m.err != nil {
		return nil, m.err
	}
	return &policy.Mapping{ID: 11, CompanyID: companyID, PolicyID: dto.PolicyID, LeaveTypeID: dto.LeaveTypeID, Unit: policy.UnitDay}, nil
}

var _ = Describe("Policy Handler", func() {
	hr := actor.Actor{UserID: 3, CompanyID: 5, Role: actor.RoleHR}

	var (
		svc    *mockPolicyService
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
		svc = &mockPolicyService{}
		h := policy.NewHandler(svc)
		router = chi.NewRouter()
		router.Get("/leave-types", h.ListLeaveTypes)
		router.Post("/leave-types", h.CreateLeaveType)
		router.Post("/policies", h.CreatePolicy)
		router.Post("/policies/mappings", h.CreateMapping)
	})

	It("should list the caller's company leave types", func() {
		rec := do(http.MethodGet, "/leave-types", "", &hr)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.lastCompany).To(Equal(int64(5)))

		var resp policy.LeaveTypesResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.LeaveTypes).To(HaveLen(1))
		Expect(resp.LeaveTypes[0].Code).To(Equal("AL"))
	})

	It("should require an actor", func() {
		rec := do(http.MethodGet, "/leave-types", "", nil)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should create a leave type and return 201", func() {
		rec := do(http.MethodPost, "/leave-types", `{"code":"CL","name":"Casual"}`, &hr)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(svc.lastType.Code).To(Equal("CL"))
	})

	It("should map a taken code to 409", func() {
		svc.err = policy.ErrLeaveTypeCodeTaken
		rec := do(http.MethodPost, "/leave-types", `{"code":"AL","name":"Annual"}`, &hr)
		Expect(rec.Code).To(Equal(http.StatusConflict))
		Expect(rec.Body.String()).To(ContainSubstring("LEAVE_TYPE_EXISTS"))
	})

	It("should create a mapping in the caller's company", func() {
		rec := do(http.MethodPost, "/policies/mappings", `{"policy_id":3,"leave_type_id":7,"annual_allocation":12}`, &hr)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(svc.lastCompany).To(Equal(int64(5)))
		Expect(svc.lastMapping.AnnualAllocation).To(Equal(12.0))
	})

	It("should return 404 for an unknown policy", func() {
		svc.err = policy.ErrPolicyNotFound
		rec := do(http.MethodPost, "/policies/mappings", `{"policy_id":99,"leave_type_id":7,"annual_allocation":12}`, &hr)
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should reject a malformed policy body", func() {
		rec := do(http.MethodPost, "/policies", `{"name":`, &hr)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
