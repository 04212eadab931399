package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLeaveSubmitted  = "leave.submitted"
	EventTypeApprovalDecided = "approval.decided"
	EventTypeLedgerPosted    = "ledger.posted"
)

const (
	AggregateLeave    = "leave_request"
	AggregateApproval = "approval_request"
	AggregateLedger   = "leave_ledger"
)

type LeaveSubmittedEvent struct {
	BaseEvent
	CompanyID   int64   `json:"company_id"`
	LeaveID     int64   `json:"leave_id"`
	ApprovalID  int64   `json:"approval_id"`
	EmployeeID  int64   `json:"employee_id"`
	LeaveTypeID int64   `json:"leave_type_id"`
	Units       float64 `json:"units"`
}

func NewLeaveSubmittedEvent(companyID, leaveID, approvalID, employeeID, leaveTypeID int64, units float64) *LeaveSubmittedEvent {
	return &LeaveSubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLeaveSubmitted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"company_id":    companyID,
				"leave_id":      leaveID,
				"approval_id":   approvalID,
				"employee_id":   employeeID,
				"leave_type_id": leaveTypeID,
				"units":         units,
			},
		},
		CompanyID:   companyID,
		LeaveID:     leaveID,
		ApprovalID:  approvalID,
		EmployeeID:  employeeID,
		LeaveTypeID: leaveTypeID,
		Units:       units,
	}
}

func (e *LeaveSubmittedEvent) AggregateID() string {
	return strconv.FormatInt(e.LeaveID, 10)
}

// ApprovalDecidedEvent is emitted once per workflow action.
type ApprovalDecidedEvent struct {
	BaseEvent
	CompanyID   int64  `json:"company_id"`
	ApprovalID  int64  `json:"approval_id"`
	ReferenceID int64  `json:"reference_id"`
	Action      string `json:"action"`
	Status      string `json:"status"`
	ActorID     int64  `json:"actor_id"`
	ActorRole   string `json:"actor_role"`
	// set only when the action split the request
	RemainderID         int64 `json:"remainder_id,omitempty"`
	RemainderApprovalID int64 `json:"remainder_approval_id,omitempty"`
}

func NewApprovalDecidedEvent(companyID, approvalID, referenceID int64, action, status string, actorID int64, actorRole string) *ApprovalDecidedEvent {
	return &ApprovalDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeApprovalDecided,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"company_id":   companyID,
				"approval_id":  approvalID,
				"reference_id": referenceID,
				"action":       action,
				"status":       status,
				"actor_id":     actorID,
				"actor_role":   actorRole,
			},
		},
		CompanyID:   companyID,
		ApprovalID:  approvalID,
		ReferenceID: referenceID,
		Action:      action,
		Status:      status,
		ActorID:     actorID,
		ActorRole:   actorRole,
	}
}

// WithRemainder records the segment spawned by a partial decision.
func (e *ApprovalDecidedEvent) WithRemainder(leaveID, approvalID int64) *ApprovalDecidedEvent {
	e.RemainderID = leaveID
	e.RemainderApprovalID = approvalID
	e.Data["remainder_id"] = leaveID
	if approvalID != 0 {
		e.Data["remainder_approval_id"] = approvalID
	}
	return e
}

func (e *ApprovalDecidedEvent) AggregateID() string {
	return strconv.FormatInt(e.ApprovalID, 10)
}

type LedgerPostedEvent struct {
	BaseEvent
	CompanyID   int64   `json:"company_id"`
	EntryID     int64   `json:"entry_id"`
	EmployeeID  int64   `json:"employee_id"`
	LeaveTypeID int64   `json:"leave_type_id"`
	TxnType     string  `json:"txn_type"`
	Units       float64 `json:"units"`
}

func NewLedgerPostedEvent(companyID, entryID, employeeID, leaveTypeID int64, txnType string, units float64) *LedgerPostedEvent {
	return &LedgerPostedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLedgerPosted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"company_id":    companyID,
				"entry_id":      entryID,
				"employee_id":   employeeID,
				"leave_type_id": leaveTypeID,
				"txn_type":      txnType,
				"units":         units,
			},
		},
		CompanyID:   companyID,
		EntryID:     entryID,
		EmployeeID:  employeeID,
		LeaveTypeID: leaveTypeID,
		TxnType:     txnType,
		Units:       units,
	}
}

func (e *LedgerPostedEvent) AggregateID() string {
	return strconv.FormatInt(e.EntryID, 10)
}
