package leave

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	Submit(ctx context.Context, a actor.Actor, dto SubmitDTO) (*SubmitResult, error)
	Get(ctx context.Context, a actor.Actor, id int64) (*Request, error)
	ListForEmployee(ctx context.Context, a actor.Actor, employeeID int64) ([]*Request, error)
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

func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}

	var dto SubmitDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	result, err := h.Service.Submit(r.Context(), a, dto)
	if err != nil {
		h.Logger.Error("SubmitLeave: service error", "error", err, "employee_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SubmitLeave: leave submitted",
		"leave_id", result.Leave.ID,
		"approval_id", result.ApprovalID,
		"employee_id", a.UserID)
	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	req, err := h.Service.Get(r.Context(), a, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}

	employeeID := a.UserID
	if raw := r.URL.Query().Get("employee_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.WriteError(w, http.StatusBadRequest, "invalid employee_id")
			return
		}
		employeeID = id
	}

	requests, err := h.Service.ListForEmployee(r.Context(), a, employeeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, requests)
}
