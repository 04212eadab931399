package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	approvalDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/approval"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/core/metrics"
	"github.com/frahmantamala/leave-management/pkg/logger"
)

type Service struct {
	repo     Repository
	tx       Transactor
	recorder *events.Recorder
	segments map[RequestType]Segments
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, tx Transactor, recorder *events.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		tx:       tx,
		recorder: recorder,
		segments: make(map[RequestType]Segments),
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterSegments routes decisions on requestType to seg. Request types
// without segments only move through the chain.
func (s *Service) RegisterSegments(requestType RequestType, seg Segments) {
	s.segments[requestType] = seg
}

type CreateParams struct {
	RequestType    RequestType
	ReferenceID    int64
	RequestedBy    int64
	CompanyID      int64
	RequireManager bool
	RequireAdmin   bool
}

func (p CreateParams) Validate() *internal.AppError {
	validator := validation.NewValidator()
	validator.Field("request_type", string(p.RequestType)).Required()
	validator.Field("reference_id", p.ReferenceID).Required()
	validator.Field("requested_by", p.RequestedBy).Required()
	validator.Field("company_id", p.CompanyID).Required()
	return validator.Validate()
}

// Chain returns the approver roles for a new request: MANAGER when asked,
// always HR, then ADMIN when asked.
func Chain(requireManager, requireAdmin bool) []actor.Role {
	roles := make([]actor.Role, 0, 3)
	if requireManager {
		roles = append(roles, actor.RoleManager)
	}
	roles = append(roles, actor.RoleHR)
	if requireAdmin {
		roles = append(roles, actor.RoleAdmin)
	}
	return roles
}

// Create opens an approval request with its step chain and returns its id.
func (s *Service) Create(ctx context.Context, p CreateParams) (int64, error) {
	if vErr := p.Validate(); vErr != nil {
		return 0, vErr
	}
	return s.create(ctx, p, Chain(p.RequireManager, p.RequireAdmin))
}

func (s *Service) create(ctx context.Context, p CreateParams, roles []actor.Role) (int64, error) {
	row := &approvalDatamodel.ApprovalRequest{
		CompanyID:   p.CompanyID,
		RequestType: string(p.RequestType),
		ReferenceID: p.ReferenceID,
		RequestedBy: p.RequestedBy,
		Status:      string(StatusPending),
		CurrentStep: 1,
		Version:     1,
	}
	for i, role := range roles {
		row.Steps = append(row.Steps, approvalDatamodel.ApprovalStep{
			StepOrder:    i + 1,
			ApproverRole: string(role),
			Status:       string(StepPending),
		})
	}

	if err := s.repo.Create(ctx, row); err != nil {
		s.log(ctx).Error("failed to create approval request",
			"request_type", p.RequestType,
			"reference_id", p.ReferenceID,
			"error", err)
		return 0, internal.NewInternalError("failed to create approval request", err)
	}

	s.log(ctx).Info("approval request created",
		"approval_id", row.ID,
		"request_type", p.RequestType,
		"reference_id", p.ReferenceID,
		"steps", len(roles))
	return row.ID, nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*Request, error) {
	row, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load approval request", err)
	}
	if row == nil {
		return nil, ErrApprovalNotFound
	}
	return FromDataModel(row), nil
}

// ListPending returns the requests waiting on the actor's role.
func (s *Service) ListPending(ctx context.Context, a actor.Actor) ([]*Request, error) {
	rows, err := s.repo.ListPending(ctx, a.CompanyID, a.Role)
	if err != nil {
		return nil, internal.NewInternalError("failed to list pending approvals", err)
	}
	out := make([]*Request, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

// log returns the request logger when ctx carries one.
func (s *Service) log(ctx context.Context) *slog.Logger {
	return logger.Or(ctx, s.logger)
}

// load fetches and locks the request, then checks the actor may act on the
// current step.
func (s *Service) load(ctx context.Context, id int64, a actor.Actor) (*approvalDatamodel.ApprovalRequest, *approvalDatamodel.ApprovalStep, error) {
	req, err := s.repo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to load approval request", err)
	}
	if req == nil {
		return nil, nil, ErrApprovalNotFound
	}
	if req.CompanyID != a.CompanyID {
		s.log(ctx).Warn("approval action from another company",
			"approval_id", id,
			"actor_id", a.UserID,
			"actor_company_id", a.CompanyID)
		return nil, nil, ErrNotYourStep.WithMessage("approval request belongs to another company")
	}
	if Status(req.Status) != StatusPending {
		return nil, nil, ErrRequestNotPending
	}

	var step *approvalDatamodel.ApprovalStep
	for i := range req.Steps {
		if req.Steps[i].StepOrder == req.CurrentStep {
			step = &req.Steps[i]
			break
		}
	}
	if step == nil || StepStatus(step.Status) != StepPending {
		return nil, nil, ErrNoPendingStep
	}
	if actor.Role(step.ApproverRole) != a.Role {
		s.log(ctx).Warn("approval action by wrong role",
			"approval_id", id,
			"actor_id", a.UserID,
			"actor_role", a.Role,
			"step_role", step.ApproverRole)
		return nil, nil, ErrNotYourStep
	}
	return req, step, nil
}

// commit consumes the step and advances the request under the version the
// caller read. Any lost race aborts the transaction.
func (s *Service) commit(ctx context.Context, req *approvalDatamodel.ApprovalRequest, step *approvalDatamodel.ApprovalStep, stepStatus StepStatus, status Status, currentStep int) error {
	ok, err := s.repo.CompleteStep(ctx, step.ID, stepStatus)
	if err != nil {
		return internal.NewInternalError("failed to update approval step", err)
	}
	if !ok {
		return internal.ErrConcurrentUpdate
	}

	ok, err = s.repo.UpdateRequest(ctx, req.ID, req.Version, status, currentStep)
	if err != nil {
		return internal.NewInternalError("failed to update approval request", err)
	}
	if !ok {
		return internal.ErrConcurrentUpdate
	}
	return nil
}

func (s *Service) logAction(ctx context.Context, req *approvalDatamodel.ApprovalRequest, step *approvalDatamodel.ApprovalStep, a actor.Actor, action ActionType, remarks string) error {
	row := &approvalDatamodel.ApprovalAction{
		RequestID:   req.ID,
		StepOrder:   step.StepOrder,
		ActorID:     a.UserID,
		ActorRole:   string(a.Role),
		Action:      string(action),
		Remarks:     remarks,
		PerformedAt: s.now(),
	}
	if err := s.repo.InsertAction(ctx, row); err != nil {
		return internal.NewInternalError("failed to record approval action", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, evt *events.ApprovalDecidedEvent) error {
	if err := s.recorder.Record(ctx, evt.CompanyID, events.AggregateApproval, evt); err != nil {
		return internal.NewInternalError("failed to record approval event", err)
	}
	return nil
}

func (s *Service) observe(action ActionType, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		var appErr *internal.AppError
		if errors.As(err, &appErr) {
			switch appErr.Type {
			case internal.ErrorTypeForbidden:
				result = "forbidden"
			case internal.ErrorTypeConflict:
				result = "conflict"
			case internal.ErrorTypeValidation, internal.ErrorTypeNotFound:
				result = "invalid"
			}
		}
	}
	metrics.RecordApprovalAction(string(action), result)
}

// Approve completes the current step. The request is approved once no step
// follows.
func (s *Service) Approve(ctx context.Context, approvalID int64, a actor.Actor) (*Outcome, error) {
	var out *Outcome
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, step, err := s.load(ctx, approvalID, a)
		if err != nil {
			return err
		}

		next := step.StepOrder + 1
		var nextRole *actor.Role
		for _, st := range req.Steps {
			if st.StepOrder == next {
				role := actor.Role(st.ApproverRole)
				nextRole = &role
			}
		}
		status := StatusPending
		if nextRole == nil {
			status = StatusApproved
		}

		if err := s.commit(ctx, req, step, StepApproved, status, next); err != nil {
			return err
		}
		if err := s.logAction(ctx, req, step, a, ActionApproved, ""); err != nil {
			return err
		}
		if status == StatusApproved {
			if seg, ok := s.segments[RequestType(req.RequestType)]; ok {
				if err := seg.Approve(ctx, req.CompanyID, req.ReferenceID); err != nil {
					return err
				}
			}
		}

		evt := events.NewApprovalDecidedEvent(req.CompanyID, req.ID, req.ReferenceID, string(ActionApproved), string(status), a.UserID, string(a.Role))
		if err := s.publish(ctx, evt); err != nil {
			return err
		}

		out = &Outcome{
			ApprovalID:  req.ID,
			ReferenceID: req.ReferenceID,
			Status:      status,
			CurrentStep: next,
			NextRole:    nextRole,
		}
		return nil
	})
	s.observe(ActionApproved, err)
	if err != nil {
		s.log(ctx).Warn("approve failed", "approval_id", approvalID, "actor_id", a.UserID, "error", err)
		return nil, err
	}

	s.log(ctx).Info("approval step approved",
		"approval_id", approvalID,
		"actor_id", a.UserID,
		"status", out.Status,
		"current_step", out.CurrentStep)
	return out, nil
}

// Reject ends the request at the current step. The rejected step is marked
// REJECTED, later steps stay PENDING, and current_step moves past the chain
// like any other terminal decision.
func (s *Service) Reject(ctx context.Context, approvalID int64, a actor.Actor, remarks string) (*Outcome, error) {
	var out *Outcome
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, step, err := s.load(ctx, approvalID, a)
		if err != nil {
			return err
		}

		done := len(req.Steps) + 1
		if err := s.commit(ctx, req, step, StepRejected, StatusRejected, done); err != nil {
			return err
		}
		if err := s.logAction(ctx, req, step, a, ActionRejected, remarks); err != nil {
			return err
		}
		if seg, ok := s.segments[RequestType(req.RequestType)]; ok {
			if err := seg.Reject(ctx, req.CompanyID, req.ReferenceID); err != nil {
				return err
			}
		}

		evt := events.NewApprovalDecidedEvent(req.CompanyID, req.ID, req.ReferenceID, string(ActionRejected), string(StatusRejected), a.UserID, string(a.Role))
		if err := s.publish(ctx, evt); err != nil {
			return err
		}

		out = &Outcome{
			ApprovalID:  req.ID,
			ReferenceID: req.ReferenceID,
			Status:      StatusRejected,
			CurrentStep: done,
		}
		return nil
	})
	s.observe(ActionRejected, err)
	if err != nil {
		s.log(ctx).Warn("reject failed", "approval_id", approvalID, "actor_id", a.UserID, "error", err)
		return nil, err
	}

	s.log(ctx).Info("approval request rejected",
		"approval_id", approvalID,
		"actor_id", a.UserID,
		"remarks", remarks)
	return out, nil
}

// PartialApprove approves the leave up to and including upto and sends the
// rest through a fresh MANAGER then ADMIN chain.
func (s *Service) PartialApprove(ctx context.Context, approvalID int64, a actor.Actor, upto time.Time, remarks string) (*SplitResult, error) {
	return s.split(ctx, approvalID, a, upto, remarks, SplitEscalate)
}

// PartialReject approves the leave up to and including upto and rejects
// the rest outright.
func (s *Service) PartialReject(ctx context.Context, approvalID int64, a actor.Actor, upto time.Time, remarks string) (*SplitResult, error) {
	return s.split(ctx, approvalID, a, upto, remarks, SplitReject)
}

func (s *Service) split(ctx context.Context, approvalID int64, a actor.Actor, upto time.Time, remarks string, outcome SplitOutcome) (*SplitResult, error) {
	action, status := ActionPartiallyApproved, StatusPartiallyApproved
	if outcome == SplitReject {
		action, status = ActionPartiallyRejected, StatusPartiallyRejected
	}

	var out *SplitResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		req, step, err := s.load(ctx, approvalID, a)
		if err != nil {
			return err
		}
		if a.Role != actor.RoleHR {
			return ErrHROnly
		}
		seg, ok := s.segments[RequestType(req.RequestType)]
		if !ok || RequestType(req.RequestType) != RequestTypeLeave {
			return ErrSplitNotSupported
		}

		// The acting HR step is recorded as APPROVED in both variants: HR
		// accepted the leading segment. The split outcome lives on the
		// request status and the action.
		if err := s.commit(ctx, req, step, StepApproved, status, len(req.Steps)+1); err != nil {
			return err
		}

		segment, err := seg.Split(ctx, req.CompanyID, req.ReferenceID, upto, outcome)
		if err != nil {
			return err
		}

		out = &SplitResult{
			ApprovalID:  req.ID,
			Status:      status,
			ApprovedID:  segment.ApprovedID,
			RemainderID: segment.RemainderID,
		}
		if outcome == SplitEscalate {
			out.RemainderApprovalID, err = s.create(ctx, CreateParams{
				RequestType: RequestTypeLeave,
				ReferenceID: segment.RemainderID,
				RequestedBy: req.RequestedBy,
				CompanyID:   req.CompanyID,
			}, RemainderChain)
			if err != nil {
				return err
			}
		}

		note := fmt.Sprintf("approved up to %s", upto.Format(validation.DateLayout))
		if remarks != "" {
			note += "; " + remarks
		}
		if err := s.logAction(ctx, req, step, a, action, note); err != nil {
			return err
		}

		evt := events.NewApprovalDecidedEvent(req.CompanyID, req.ID, req.ReferenceID, string(action), string(status), a.UserID, string(a.Role)).
			WithRemainder(out.RemainderID, out.RemainderApprovalID)
		return s.publish(ctx, evt)
	})
	s.observe(action, err)
	if err != nil {
		s.log(ctx).Warn("split failed",
			"approval_id", approvalID,
			"actor_id", a.UserID,
			"outcome", outcome,
			"error", err)
		return nil, err
	}

	s.log(ctx).Info("approval request split",
		"approval_id", approvalID,
		"actor_id", a.UserID,
		"outcome", outcome,
		"approved_id", out.ApprovedID,
		"remainder_id", out.RemainderID,
		"remainder_approval_id", out.RemainderApprovalID)
	return out, nil
}
