package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/approval"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/core/employee"
	"github.com/frahmantamala/leave-management/internal/entitlement"
	"github.com/frahmantamala/leave-management/internal/ledger"
	"github.com/frahmantamala/leave-management/internal/policy"
)

type Debiter interface {
	Debit(ctx context.Context, e ledger.Entry, enforce bool) (*ledger.Entry, error)
}

// Segments applies approval decisions to leave requests: status changes,
// date splits and the ledger debit for approved days.
type Segments struct {
	repo           Repository
	directory      employee.Directory
	policies       PolicyResolver
	units          UnitsCalculator
	ledger         Debiter
	enforceBalance bool
	logger         *slog.Logger
}

var _ approval.Segments = (*Segments)(nil)

func NewSegments(deps Deps, debiter Debiter, enforceBalance bool, logger *slog.Logger) *Segments {
	return &Segments{
		repo:           deps.Repo,
		directory:      deps.Directory,
		policies:       deps.Policies,
		units:          deps.Units,
		ledger:         debiter,
		enforceBalance: enforceBalance,
		logger:         logger,
	}
}

func (s *Segments) loadPending(ctx context.Context, companyID, leaveID int64) (*leaveDatamodel.LeaveRequest, error) {
	row, err := s.repo.GetForUpdate(ctx, companyID, leaveID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load leave request", err)
	}
	if row == nil {
		return nil, ErrLeaveNotFound
	}
	if Status(row.Status) != StatusPending {
		return nil, ErrLeaveNotPending
	}
	return row, nil
}

func (s *Segments) setStatus(ctx context.Context, id int64, status Status) error {
	ok, err := s.repo.UpdateStatus(ctx, id, StatusPending, status)
	if err != nil {
		return internal.NewInternalError("failed to update leave request", err)
	}
	if !ok {
		return internal.ErrConcurrentUpdate
	}
	return nil
}

func (s *Segments) debit(ctx context.Context, row *leaveDatamodel.LeaveRequest, units float64) error {
	if units <= 0 {
		return nil
	}
	id := row.ID
	_, err := s.ledger.Debit(ctx, ledger.Entry{
		CompanyID:   row.CompanyID,
		EmployeeID:  row.EmployeeID,
		LeaveTypeID: row.LeaveTypeID,
		Units:       units,
		Note: fmt.Sprintf("leave %s..%s",
			row.FromDate.Format(validation.DateLayout),
			row.ToDate.Format(validation.DateLayout)),
		RequestID: &id,
	}, s.enforceBalance)
	return err
}

// Approve marks the leave approved and debits its units.
func (s *Segments) Approve(ctx context.Context, companyID, leaveID int64) error {
	row, err := s.loadPending(ctx, companyID, leaveID)
	if err != nil {
		return err
	}
	if err := s.setStatus(ctx, row.ID, StatusApproved); err != nil {
		return err
	}

	var units float64
	if row.Detail != nil {
		units = row.Detail.Units
	}
	if err := s.debit(ctx, row, units); err != nil {
		return err
	}

	s.logger.Info("leave request approved", "leave_id", row.ID, "units", units)
	return nil
}

func (s *Segments) Reject(ctx context.Context, companyID, leaveID int64) error {
	row, err := s.loadPending(ctx, companyID, leaveID)
	if err != nil {
		return err
	}
	if err := s.setStatus(ctx, row.ID, StatusRejected); err != nil {
		return err
	}

	s.logger.Info("leave request rejected", "leave_id", row.ID)
	return nil
}

// Split approves [from, upto] on the original request and moves
// [upto+1, to] into a new child request that is either pending escalation
// or rejected. Together the two segments cover the original range exactly.
func (s *Segments) Split(ctx context.Context, companyID, leaveID int64, upto time.Time, outcome approval.SplitOutcome) (*approval.Segment, error) {
	row, err := s.loadPending(ctx, companyID, leaveID)
	if err != nil {
		return nil, err
	}

	upto = validation.Truncate(upto)
	from, to := validation.Truncate(row.FromDate), validation.Truncate(row.ToDate)
	switch {
	case upto.Before(from) || upto.After(to):
		return nil, approval.ErrInvalidSplitDate
	case upto.Equal(to):
		return nil, approval.ErrSplitCoversWholeRange
	}
	restFrom := upto.AddDate(0, 0, 1)

	emp, err := s.directory.Get(ctx, companyID, row.EmployeeID)
	if err != nil {
		return nil, err
	}
	m, err := s.policies.GetMapping(ctx, companyID, row.MappingID)
	if err != nil {
		return nil, err
	}

	head, err := s.units.ComputeUnits(ctx, companyID, emp, m, from, upto)
	if err != nil {
		return nil, err
	}
	tail, err := s.units.ComputeUnits(ctx, companyID, emp, m, restFrom, to)
	if err != nil {
		return nil, err
	}

	row.ToDate = upto
	row.TotalDays = entitlement.SpanDays(from, upto)
	row.Status = string(StatusApproved)
	row.SegmentType = string(SegmentApprovedPart)
	row.Detail = detailFor(row.Detail, m.Unit, head)
	ok, err := s.repo.Truncate(ctx, row)
	if err != nil {
		return nil, internal.NewInternalError("failed to truncate leave request", err)
	}
	if !ok {
		return nil, internal.ErrConcurrentUpdate
	}

	status, segment := StatusPending, SegmentEscalatedPart
	if outcome == approval.SplitReject {
		status, segment = StatusRejected, SegmentRejectedPart
	}
	parentID := row.ID
	rest := &leaveDatamodel.LeaveRequest{
		CompanyID:     row.CompanyID,
		EmployeeID:    row.EmployeeID,
		LeaveTypeID:   row.LeaveTypeID,
		MappingID:     row.MappingID,
		FromDate:      restFrom,
		ToDate:        to,
		TotalDays:     entitlement.SpanDays(restFrom, to),
		Status:        string(status),
		ParentLeaveID: &parentID,
		SegmentType:   string(segment),
		Reason:        row.Reason,
		Detail:        detailFor(nil, m.Unit, tail),
	}
	if err := s.repo.Create(ctx, rest); err != nil {
		return nil, internal.NewInternalError("failed to create remainder leave request", err)
	}

	if err := s.debit(ctx, row, head.Value); err != nil {
		return nil, err
	}

	s.logger.Info("leave request split",
		"leave_id", row.ID,
		"remainder_id", rest.ID,
		"approved_upto", upto.Format(validation.DateLayout),
		"approved_units", head.Value,
		"remainder_units", tail.Value,
		"remainder_status", status)

	return &approval.Segment{ApprovedID: row.ID, RemainderID: rest.ID}, nil
}

func detailFor(existing *leaveDatamodel.LeaveRequestDetail, unit policy.Unit, u *entitlement.Units) *leaveDatamodel.LeaveRequestDetail {
	d := &leaveDatamodel.LeaveRequestDetail{}
	if existing != nil {
		*d = *existing
	}
	d.UnitType = string(unit)
	d.Units = u.Value
	d.SandwichCounted = u.Meta.SandwichCounted
	return d
}
