package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/employee"
	"github.com/frahmantamala/leave-management/internal/ledger"
	"github.com/frahmantamala/leave-management/internal/policy"
)

type CalendarResolver interface {
	Resolve(ctx context.Context, companyID, employeeID int64, from, to time.Time) (*calendar.Resolved, error)
}

type PolicyResolver interface {
	Resolve(ctx context.Context, companyID int64, emp *employee.Employee, leaveTypeID int64) (*policy.Mapping, error)
}

type Accruer interface {
	Accrue(ctx context.Context, p ledger.AccrualParams) (*ledger.Entry, error)
}

type Service struct {
	calendars CalendarResolver
	policies  PolicyResolver
	ledger    Accruer
	logger    *slog.Logger
}

func NewService(calendars CalendarResolver, policies PolicyResolver, accruer Accruer, logger *slog.Logger) *Service {
	return &Service{
		calendars: calendars,
		policies:  policies,
		ledger:    accruer,
		logger:    logger,
	}
}

// ComputeUnits resolves the employee's calendar for the range and charges it
// against the mapping.
func (s *Service) ComputeUnits(ctx context.Context, companyID int64, emp *employee.Employee, m *policy.Mapping, from, to time.Time) (*Units, error) {
	resolved, err := s.calendars.Resolve(ctx, companyID, emp.ID, from, to)
	if err != nil {
		return nil, err
	}
	units, err := ComputeUnits(m, resolved, from, to)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("leave units computed",
		"employee_id", emp.ID,
		"mapping_id", m.ID,
		"units", units.Value,
		"working_days", units.Meta.WorkingDays,
		"sandwich", units.Meta.SandwichCounted)
	return units, nil
}

type GrantStatus string

const (
	GrantGranted      GrantStatus = "granted"
	GrantSkipped      GrantStatus = "skipped"
	GrantUnconfigured GrantStatus = "unconfigured"
)

type GrantResult struct {
	EmployeeID  int64         `json:"employee_id"`
	LeaveTypeID int64         `json:"leave_type_id"`
	Period      string        `json:"period"`
	Allocation  float64       `json:"allocation"`
	Status      GrantStatus   `json:"status"`
	Entry       *ledger.Entry `json:"entry,omitempty"`
}

func grantNote(p Period) string {
	return "annual grant " + p.String()
}

// Grant credits the employee's allocation for the period. A second grant for
// the same period is a no-op.
func (s *Service) Grant(ctx context.Context, companyID int64, emp *employee.Employee, leaveTypeID int64, period Period) (*GrantResult, error) {
	result := &GrantResult{
		EmployeeID:  emp.ID,
		LeaveTypeID: leaveTypeID,
		Period:      period.String(),
	}

	m, err := s.policies.Resolve(ctx, companyID, emp, leaveTypeID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		result.Status = GrantUnconfigured
		return result, nil
	}

	result.Allocation = Allocation(m, emp.DateOfJoining, period)
	if result.Allocation <= 0 {
		result.Status = GrantSkipped
		return result, nil
	}

	entry, err := s.ledger.Accrue(ctx, ledger.AccrualParams{
		CompanyID:   companyID,
		EmployeeID:  emp.ID,
		LeaveTypeID: leaveTypeID,
		Units:       result.Allocation,
		Note:        grantNote(period),
		MaxBalance:  m.MaxBalance,
	})
	if err != nil {
		s.logger.Error("failed to grant allocation",
			"employee_id", emp.ID,
			"leave_type_id", leaveTypeID,
			"period", result.Period,
			"error", err)
		return nil, err
	}
	if entry == nil {
		result.Status = GrantSkipped
		return result, nil
	}

	result.Status = GrantGranted
	result.Entry = entry
	s.logger.Info("allocation granted",
		"employee_id", emp.ID,
		"leave_type_id", leaveTypeID,
		"period", result.Period,
		"units", entry.Units)
	return result, nil
}
