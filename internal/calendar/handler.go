package calendar

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	"github.com/frahmantamala/leave-management/internal/transport"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type ServiceAPI interface {
	Profile(ctx context.Context, companyID, employeeID int64) (*Profile, error)
	ImportHolidays(ctx context.Context, companyID, calendarID int64, inputs []HolidayInput) (int, error)
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

type HolidayDTO struct {
	Date       string `json:"date"`
	Name       string `json:"name"`
	IsOptional bool   `json:"is_optional"`
}

type ImportResponse struct {
	CalendarID int64 `json:"calendar_id"`
	Received   int   `json:"received"`
	Inserted   int   `json:"inserted"`
}

// GetProfile returns the caller's resolved working calendar.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}

	profile, err := h.Service.Profile(r.Context(), a.CompanyID, a.UserID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, profile)
}

// ImportHolidays accepts either an iCalendar feed (text/calendar) or a
// JSON list of holidays.
func (h *Handler) ImportHolidays(w http.ResponseWriter, r *http.Request) {
	a, ok := h.RequireActor(w, r)
	if !ok {
		return
	}
	calendarID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	var inputs []HolidayInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/calendar") {
		parsed, err := ParseICS(r.Body)
		if err != nil {
			h.Logger.Warn("ImportHolidays: invalid ics feed", "error", err, "calendar_id", calendarID)
			h.HandleServiceError(w, internal.NewValidationError("invalid iCalendar feed", internal.ErrCodeValidationFailed).WithCause(err))
			return
		}
		inputs = parsed
	} else {
		var dtos []HolidayDTO
		if !h.DecodeJSON(w, r, &dtos) {
			return
		}
		for i, dto := range dtos {
			date, vErr := validation.ParseDate(fmt.Sprintf("holidays[%d].date", i), dto.Date)
			if vErr != nil {
				h.HandleServiceError(w, vErr)
				return
			}
			inputs = append(inputs, HolidayInput{Date: date, Name: dto.Name, IsOptional: dto.IsOptional})
		}
	}

	inserted, err := h.Service.ImportHolidays(r.Context(), a.CompanyID, calendarID, inputs)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ImportHolidays: holidays imported",
		"calendar_id", calendarID,
		"received", len(inputs),
		"inserted", inserted,
		"actor_id", a.UserID)
	h.WriteJSON(w, http.StatusOK, ImportResponse{CalendarID: calendarID, Received: len(inputs), Inserted: inserted})
}
