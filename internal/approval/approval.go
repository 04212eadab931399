package approval

import (
	"context"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	approvalDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/approval"
)

type RequestType string

const RequestTypeLeave RequestType = "LEAVE"

type Status string

const (
	StatusPending           Status = "PENDING"
	StatusApproved          Status = "APPROVED"
	StatusRejected          Status = "REJECTED"
	StatusPartiallyApproved Status = "PARTIALLY_APPROVED"
	StatusPartiallyRejected Status = "PARTIALLY_REJECTED"
)

type StepStatus string

const (
	StepPending  StepStatus = "PENDING"
	StepApproved StepStatus = "APPROVED"
	StepRejected StepStatus = "REJECTED"
)

// ActionType names the verb recorded on the action log.
type ActionType string

const (
	ActionApproved          ActionType = "APPROVED"
	ActionRejected          ActionType = "REJECTED"
	ActionPartiallyApproved ActionType = "PARTIALLY_APPROVED"
	ActionPartiallyRejected ActionType = "PARTIALLY_REJECTED"
)

// RemainderChain is the fixed chain given to an escalated remainder.
var RemainderChain = []actor.Role{actor.RoleManager, actor.RoleAdmin}

var (
	ErrApprovalNotFound      = internal.NewNotFoundError("approval request not found", internal.ErrCodeApprovalNotFound)
	ErrNotYourStep           = internal.NewAuthorizationError("current step is assigned to another role", internal.ErrCodeNotYourStep)
	ErrNoPendingStep         = internal.NewAuthorizationError("no pending step to act on", internal.ErrCodeNoPendingStep)
	ErrRequestNotPending     = internal.NewConsistencyError("approval request is no longer pending", internal.ErrCodeRequestNotPending)
	ErrHROnly                = internal.NewAuthorizationError("only HR can split a request", internal.ErrCodeNotYourStep)
	ErrSplitNotSupported     = internal.NewValidationError("only leave requests can be split", internal.ErrCodeSplitNotSupported)
	ErrInvalidSplitDate      = internal.NewValidationError("approved_upto must fall within the leave range", internal.ErrCodeInvalidSplitDate)
	ErrSplitCoversWholeRange = internal.NewValidationError("approved_upto covers the whole range, approve the request instead", internal.ErrCodeSplitCoversWholeRange)
)

type Step struct {
	ID           int64      `json:"id"`
	StepOrder    int        `json:"step_order"`
	ApproverRole actor.Role `json:"approver_role"`
	Status       StepStatus `json:"status"`
}

type Action struct {
	ID          int64      `json:"id"`
	StepOrder   int        `json:"step_order"`
	ActorID     int64      `json:"actor_id"`
	ActorRole   actor.Role `json:"actor_role"`
	Action      ActionType `json:"action"`
	Remarks     string     `json:"remarks,omitempty"`
	PerformedAt time.Time  `json:"performed_at"`
}

type Request struct {
	ID          int64       `json:"id"`
	CompanyID   int64       `json:"company_id"`
	RequestType RequestType `json:"request_type"`
	ReferenceID int64       `json:"reference_id"`
	RequestedBy int64       `json:"requested_by"`
	Status      Status      `json:"status"`
	CurrentStep int         `json:"current_step"`
	Version     int         `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	Steps       []Step      `json:"steps"`
	Actions     []Action    `json:"actions,omitempty"`
}

// PendingRole returns the role awaited at the current step, if any.
func (r *Request) PendingRole() (actor.Role, bool) {
	if r.Status != StatusPending {
		return "", false
	}
	for _, s := range r.Steps {
		if s.StepOrder == r.CurrentStep && s.Status == StepPending {
			return s.ApproverRole, true
		}
	}
	return "", false
}

// Outcome reports the state of a request after a full approve or reject.
type Outcome struct {
	ApprovalID  int64       `json:"approval_id"`
	ReferenceID int64       `json:"reference_id"`
	Status      Status      `json:"status"`
	CurrentStep int         `json:"current_step"`
	NextRole    *actor.Role `json:"next_role,omitempty"`
}

// SplitResult reports both segments of a partial decision.
// RemainderApprovalID is zero when the remainder was rejected.
type SplitResult struct {
	ApprovalID          int64  `json:"approval_id"`
	Status              Status `json:"status"`
	ApprovedID          int64  `json:"approved_id"`
	RemainderID         int64  `json:"remainder_id"`
	RemainderApprovalID int64  `json:"remainder_approval_id,omitempty"`
}

// SplitOutcome decides what happens to the tail of a split request.
type SplitOutcome string

const (
	SplitEscalate SplitOutcome = "ESCALATE"
	SplitReject   SplitOutcome = "REJECT"
)

// Segment is the pair of referenced records produced by a split.
type Segment struct {
	ApprovedID  int64
	RemainderID int64
}

// Segments applies workflow decisions to the referenced record. Every
// call runs inside the workflow transaction.
type Segments interface {
	Approve(ctx context.Context, companyID, referenceID int64) error
	Reject(ctx context.Context, companyID, referenceID int64) error
	Split(ctx context.Context, companyID, referenceID int64, upto time.Time, outcome SplitOutcome) (*Segment, error)
}

type Repository interface {
	Create(ctx context.Context, req *approvalDatamodel.ApprovalRequest) error
	// GetForUpdate loads the request with its steps and locks the row. It
	// returns nil when the id is unknown.
	GetForUpdate(ctx context.Context, id int64) (*approvalDatamodel.ApprovalRequest, error)
	// Get loads the request with its steps and actions, scoped to the company.
	Get(ctx context.Context, companyID, id int64) (*approvalDatamodel.ApprovalRequest, error)
	ListPending(ctx context.Context, companyID int64, role actor.Role) ([]*approvalDatamodel.ApprovalRequest, error)
	// CompleteStep moves a PENDING step to status. It reports false when the
	// step was no longer pending.
	CompleteStep(ctx context.Context, stepID int64, status StepStatus) (bool, error)
	// UpdateRequest writes status and current step when version still
	// matches, bumping the version. It reports false on a stale version.
	UpdateRequest(ctx context.Context, id int64, version int, status Status, currentStep int) (bool, error)
	InsertAction(ctx context.Context, row *approvalDatamodel.ApprovalAction) error
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

func FromDataModel(row *approvalDatamodel.ApprovalRequest) *Request {
	req := &Request{
		ID:          row.ID,
		CompanyID:   row.CompanyID,
		RequestType: RequestType(row.RequestType),
		ReferenceID: row.ReferenceID,
		RequestedBy: row.RequestedBy,
		Status:      Status(row.Status),
		CurrentStep: row.CurrentStep,
		Version:     row.Version,
		CreatedAt:   row.CreatedAt,
		Steps:       make([]Step, 0, len(row.Steps)),
	}
	for _, s := range row.Steps {
		req.Steps = append(req.Steps, Step{
			ID:           s.ID,
			StepOrder:    s.StepOrder,
			ApproverRole: actor.Role(s.ApproverRole),
			Status:       StepStatus(s.Status),
		})
	}
	for _, a := range row.Actions {
		req.Actions = append(req.Actions, Action{
			ID:          a.ID,
			StepOrder:   a.StepOrder,
			ActorID:     a.ActorID,
			ActorRole:   actor.Role(a.ActorRole),
			Action:      ActionType(a.Action),
			Remarks:     a.Remarks,
			PerformedAt: a.PerformedAt,
		})
	}
	return req
}
