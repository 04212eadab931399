package approval

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	Get(ctx context.Context, companyID, id int64) (*Request, error)
	ListPending(ctx context.Context, a actor.Actor) ([]*Request, error)
	Approve(ctx context.Context, approvalID int64, a actor.Actor) (*Outcome, error)
	Reject(ctx context.Context, approvalID int64, a actor.Actor, remarks string) (*Outcome, error)
	PartialApprove(ctx context.Context, approvalID int64, a actor.Actor, upto time.Time, remarks string) (*SplitResult, error)
	PartialReject(ctx context.Context, approvalID int64, a actor.Actor, upto time.Time, remarks string) (*SplitResult, error)
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

type DecisionDTO struct {
	Remarks string `json:"remarks"`
}

type SplitDTO struct {
	ApprovedUpto string `json:"approved_upto"`
	Remarks      string `json:"remarks"`
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}

	requests, err := h.Service.ListPending(r.Context(), a)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, requests)
}

func (h *Handler) GetApproval(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	req, err := h.Service.Get(r.Context(), a.CompanyID, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	outcome, err := h.Service.Approve(r.Context(), id, a)
	if err != nil {
		h.Logger.Error("Approve: service error", "error", err, "approval_id", id, "actor_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, outcome)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	var dto DecisionDTO
	if r.ContentLength != 0 && !h.DecodeJSON(w, r, &dto) {
		return
	}

	outcome, err := h.Service.Reject(r.Context(), id, a, dto.Remarks)
	if err != nil {
		h.Logger.Error("Reject: service error", "error", err, "approval_id", id, "actor_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, outcome)
}

func (h *Handler) PartialApprove(w http.ResponseWriter, r *http.Request) {
	h.split(w, r, h.Service.PartialApprove)
}

func (h *Handler) PartialReject(w http.ResponseWriter, r *http.Request) {
	h.split(w, r, h.Service.PartialReject)
}

type splitFunc func(ctx context.Context, approvalID int64, a actor.Actor, upto time.Time, remarks string) (*SplitResult, error)

func (h *Handler) split(w http.ResponseWriter, r *http.Request, fn splitFunc) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	var dto SplitDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	upto, vErr := validation.ParseDate("approved_upto", dto.ApprovedUpto)
	if vErr != nil {
		h.HandleServiceError(w, vErr)
		return
	}

	result, err := fn(r.Context(), id, a, upto, dto.Remarks)
	if err != nil {
		h.Logger.Error("split: service error", "error", err, "approval_id", id, "actor_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}
