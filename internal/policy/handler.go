package policy

import (
	"context"
	"net/http"

	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	ListLeaveTypes(ctx context.Context, companyID int64) ([]LeaveType, error)
	CreateLeaveType(ctx context.Context, companyID int64, dto CreateLeaveTypeDTO) (*LeaveType, error)
	CreatePolicy(ctx context.Context, companyID int64, dto CreatePolicyDTO) (*Policy, error)
	CreateMapping(ctx context.Context, companyID int64, dto CreateMappingDTO) (*Mapping, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     service,
	}
}

type LeaveTypesResponse struct {
	LeaveTypes []LeaveType `json:"leave_types"`
}

func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}

	types, err := h.Service.ListLeaveTypes(r.Context(), a.CompanyID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, LeaveTypesResponse{LeaveTypes: types})
}

func (h *Handler) CreateLeaveType(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}

	var dto CreateLeaveTypeDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	lt, err := h.Service.CreateLeaveType(r.Context(), a.CompanyID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, lt)
}

func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}

	var dto CreatePolicyDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	p, err := h.Service.CreatePolicy(r.Context(), a.CompanyID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}

	var dto CreateMappingDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	m, err := h.Service.CreateMapping(r.Context(), a.CompanyID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
}
