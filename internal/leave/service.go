package leave

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/approval"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/core/employee"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/core/metrics"
	"github.com/frahmantamala/leave-management/internal/entitlement"
	"github.com/frahmantamala/leave-management/internal/ledger"
	"github.com/frahmantamala/leave-management/internal/policy"
)

type PolicyResolver interface {
	Resolve(ctx context.Context, companyID int64, emp *employee.Employee, leaveTypeID int64) (*policy.Mapping, error)
	GetMapping(ctx context.Context, companyID, mappingID int64) (*policy.Mapping, error)
	LeaveTypeExists(ctx context.Context, companyID, leaveTypeID int64) (bool, error)
}

type UnitsCalculator interface {
	ComputeUnits(ctx context.Context, companyID int64, emp *employee.Employee, m *policy.Mapping, from, to time.Time) (*entitlement.Units, error)
}

type BalanceReader interface {
	Balance(ctx context.Context, companyID, employeeID, leaveTypeID int64) (float64, error)
}

type ApprovalCreator interface {
	Create(ctx context.Context, p approval.CreateParams) (int64, error)
}

type Service struct {
	repo           Repository
	directory      employee.Directory
	policies       PolicyResolver
	units          UnitsCalculator
	balances       BalanceReader
	approvals      ApprovalCreator
	tx             Transactor
	recorder       *events.Recorder
	enforceBalance bool
	logger         *slog.Logger
}

type Deps struct {
	Repo      Repository
	Directory employee.Directory
	Policies  PolicyResolver
	Units     UnitsCalculator
	Balances  BalanceReader
	Approvals ApprovalCreator
	Tx        Transactor
	Recorder  *events.Recorder
}

func NewService(deps Deps, enforceBalance bool, logger *slog.Logger) *Service {
	return &Service{
		repo:           deps.Repo,
		directory:      deps.Directory,
		policies:       deps.Policies,
		units:          deps.Units,
		balances:       deps.Balances,
		approvals:      deps.Approvals,
		tx:             deps.Tx,
		recorder:       deps.Recorder,
		enforceBalance: enforceBalance,
		logger:         logger,
	}
}

type SubmitResult struct {
	Leave      *Request              `json:"leave"`
	ApprovalID int64                 `json:"approval_id"`
	Meta       entitlement.UnitsMeta `json:"meta"`
}

// Submit files a leave request for the actor and opens its approval chain.
func (s *Service) Submit(ctx context.Context, a actor.Actor, dto SubmitDTO) (*SubmitResult, error) {
	result, err := s.submit(ctx, a, dto)
	if err != nil {
		metrics.RecordLeaveSubmission("rejected")
		return nil, err
	}
	metrics.RecordLeaveSubmission("accepted")
	return result, nil
}

func (s *Service) submit(ctx context.Context, a actor.Actor, dto SubmitDTO) (*SubmitResult, error) {
	if vErr := dto.Validate(); vErr != nil {
		s.logger.Info("leave submission validation failed", "error", vErr, "employee_id", a.UserID)
		return nil, vErr
	}
	from, to := dto.Range()

	exists, err := s.policies.LeaveTypeExists(ctx, a.CompanyID, dto.LeaveTypeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, policy.ErrLeaveTypeNotFound
	}

	emp, err := s.directory.Get(ctx, a.CompanyID, a.UserID)
	if err != nil {
		return nil, err
	}

	m, err := s.policies.Resolve(ctx, a.CompanyID, emp, dto.LeaveTypeID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, policy.ErrLeaveTypeNotConfigured
	}

	units, err := s.units.ComputeUnits(ctx, a.CompanyID, emp, m, from, to)
	if err != nil {
		return nil, err
	}
	if units.Value <= 0 {
		return nil, ErrZeroUnits
	}

	if s.enforceBalance {
		balance, err := s.balances.Balance(ctx, a.CompanyID, emp.ID, dto.LeaveTypeID)
		if err != nil {
			return nil, err
		}
		if units.Value > balance {
			return nil, ledger.ErrInsufficientBalance.WithDetails(map[string]float64{
				"balance":   balance,
				"requested": units.Value,
			})
		}
	}

	row := &leaveDatamodel.LeaveRequest{
		CompanyID:   a.CompanyID,
		EmployeeID:  emp.ID,
		LeaveTypeID: dto.LeaveTypeID,
		MappingID:   m.ID,
		FromDate:    from,
		ToDate:      to,
		TotalDays:   units.Meta.SpanDays,
		Status:      string(StatusPending),
		SegmentType: string(SegmentFull),
		Reason:      dto.Reason,
		Detail: &leaveDatamodel.LeaveRequestDetail{
			UnitType:        string(m.Unit),
			Units:           units.Value,
			SandwichCounted: units.Meta.SandwichCounted,
		},
	}

	var approvalID int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, row); err != nil {
			s.logger.Error("failed to create leave request", "employee_id", emp.ID, "error", err)
			return internal.NewInternalError("failed to create leave request", err)
		}

		var err error
		approvalID, err = s.approvals.Create(ctx, approval.CreateParams{
			RequestType:    approval.RequestTypeLeave,
			ReferenceID:    row.ID,
			RequestedBy:    a.UserID,
			CompanyID:      a.CompanyID,
			RequireManager: policy.RequiresManager(m.Policy.Config),
			RequireAdmin:   policy.RequiresAdmin(m.Policy.Config),
		})
		if err != nil {
			return err
		}

		evt := events.NewLeaveSubmittedEvent(a.CompanyID, row.ID, approvalID, emp.ID, dto.LeaveTypeID, units.Value)
		if err := s.recorder.Record(ctx, a.CompanyID, events.AggregateLeave, evt); err != nil {
			return internal.NewInternalError("failed to record leave event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave request submitted",
		"leave_id", row.ID,
		"approval_id", approvalID,
		"employee_id", emp.ID,
		"leave_type_id", dto.LeaveTypeID,
		"units", units.Value)

	return &SubmitResult{
		Leave:      FromDataModel(row),
		ApprovalID: approvalID,
		Meta:       units.Meta,
	}, nil
}

func canReadOthers(a actor.Actor) bool {
	switch a.Role {
	case actor.RoleManager, actor.RoleHR, actor.RoleAdmin:
		return true
	}
	return false
}

// Get returns a leave request. Employees only see their own.
func (s *Service) Get(ctx context.Context, a actor.Actor, id int64) (*Request, error) {
	row, err := s.repo.Get(ctx, a.CompanyID, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load leave request", err)
	}
	if row == nil || (row.EmployeeID != a.UserID && !canReadOthers(a)) {
		return nil, ErrLeaveNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) ListForEmployee(ctx context.Context, a actor.Actor, employeeID int64) ([]*Request, error) {
	if employeeID != a.UserID && !canReadOthers(a) {
		return nil, internal.NewAuthorizationError("cannot list another employee's leave", internal.ErrCodeUnauthorizedAccess)
	}

	rows, err := s.repo.ListForEmployee(ctx, a.CompanyID, employeeID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list leave requests", err)
	}
	out := make([]*Request, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}
