package ledger

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	Balance(ctx context.Context, companyID, employeeID, leaveTypeID int64) (float64, error)
	Statement(ctx context.Context, companyID, employeeID, leaveTypeID int64) ([]Entry, error)
	Encash(ctx context.Context, p EncashParams) (*Encashment, error)
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

type BalanceResponse struct {
	EmployeeID  int64   `json:"employee_id"`
	LeaveTypeID int64   `json:"leave_type_id"`
	Balance     float64 `json:"balance"`
}

type StatementResponse struct {
	BalanceResponse
	Entries []Entry `json:"entries"`
}

type EncashDTO struct {
	EmployeeID *int64  `json:"employee_id,omitempty"`
	Units      float64 `json:"units"`
	Note       string  `json:"note"`
}

// subject resolves whose balance is addressed. HR and ADMIN may name
// another employee; everyone else reads their own.
func (h *Handler) subject(w http.ResponseWriter, a actor.Actor, requested *int64) (int64, bool) {
	if requested == nil || *requested == a.UserID {
		return a.UserID, true
	}
	if a.Role != actor.RoleHR && a.Role != actor.RoleAdmin {
		h.WriteError(w, http.StatusForbidden, "cannot access another employee's balance")
		return 0, false
	}
	return *requested, true
}

func (h *Handler) employeeQuery(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	raw := r.URL.Query().Get("employee_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid employee_id")
		return nil, false
	}
	return &id, true
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}
	leaveTypeID, ok := h.PathID(w, r, "leaveTypeId")
	if !ok {
		return
	}
	requested, ok := h.employeeQuery(w, r)
	if !ok {
		return
	}
	employeeID, ok := h.subject(w, a, requested)
	if !ok {
		return
	}

	balance, err := h.Service.Balance(r.Context(), a.CompanyID, employeeID, leaveTypeID)
	if err != nil {
		h.Logger.Error("GetBalance: service error", "error", err, "employee_id", employeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, BalanceResponse{
		EmployeeID:  employeeID,
		LeaveTypeID: leaveTypeID,
		Balance:     balance,
	})
}

func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}
	leaveTypeID, ok := h.PathID(w, r, "leaveTypeId")
	if !ok {
		return
	}
	requested, ok := h.employeeQuery(w, r)
	if !ok {
		return
	}
	employeeID, ok := h.subject(w, a, requested)
	if !ok {
		return
	}

	entries, err := h.Service.Statement(r.Context(), a.CompanyID, employeeID, leaveTypeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, StatementResponse{
		BalanceResponse: BalanceResponse{
			EmployeeID:  employeeID,
			LeaveTypeID: leaveTypeID,
			Balance:     Balance(entries),
		},
		Entries: entries,
	})
}

func (h *Handler) Encash(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}
	leaveTypeID, ok := h.PathID(w, r, "leaveTypeId")
	if !ok {
		return
	}

	var dto EncashDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	employeeID, ok := h.subject(w, a, dto.EmployeeID)
	if !ok {
		return
	}

	result, err := h.Service.Encash(r.Context(), EncashParams{
		CompanyID:   a.CompanyID,
		EmployeeID:  employeeID,
		LeaveTypeID: leaveTypeID,
		Units:       dto.Units,
		Note:        dto.Note,
	})
	if err != nil {
		h.Logger.Error("Encash: service error", "error", err, "employee_id", employeeID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Encash: leave encashed",
		"employee_id", employeeID,
		"leave_type_id", leaveTypeID,
		"units", dto.Units,
		"actor_id", a.UserID)
	h.WriteJSON(w, http.StatusCreated, result)
}
