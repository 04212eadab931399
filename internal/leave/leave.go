package leave

import (
	"context"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/policy"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

type SegmentType string

const (
	SegmentFull          SegmentType = "FULL"
	SegmentApprovedPart  SegmentType = "APPROVED_PART"
	SegmentEscalatedPart SegmentType = "ESCALATED_PART"
	SegmentRejectedPart  SegmentType = "REJECTED_PART"
)

var (
	ErrLeaveNotFound   = internal.NewNotFoundError("leave request not found", internal.ErrCodeLeaveNotFound)
	ErrZeroUnits       = internal.NewValidationError("requested range contains no chargeable days", internal.ErrCodeZeroUnits)
	ErrLeaveNotPending = internal.NewConsistencyError("leave request is no longer pending", internal.ErrCodeRequestNotPending)
)

type Detail struct {
	UnitType        policy.Unit `json:"unit_type"`
	Units           float64     `json:"units"`
	SandwichCounted bool        `json:"sandwich_counted"`
}

type Request struct {
	ID            int64       `json:"id"`
	CompanyID     int64       `json:"company_id"`
	EmployeeID    int64       `json:"employee_id"`
	LeaveTypeID   int64       `json:"leave_type_id"`
	MappingID     int64       `json:"mapping_id"`
	FromDate      string      `json:"from_date"`
	ToDate        string      `json:"to_date"`
	TotalDays     int         `json:"total_days"`
	Status        Status      `json:"status"`
	ParentLeaveID *int64      `json:"parent_leave_id,omitempty"`
	SegmentType   SegmentType `json:"segment_type"`
	Reason        string      `json:"reason,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	Detail        *Detail     `json:"detail,omitempty"`
}

type Repository interface {
	// Create inserts the request together with its detail row.
	Create(ctx context.Context, row *leaveDatamodel.LeaveRequest) error
	// Get returns nil when the id is unknown within the company.
	Get(ctx context.Context, companyID, id int64) (*leaveDatamodel.LeaveRequest, error)
	GetForUpdate(ctx context.Context, companyID, id int64) (*leaveDatamodel.LeaveRequest, error)
	ListForEmployee(ctx context.Context, companyID, employeeID int64) ([]*leaveDatamodel.LeaveRequest, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) (bool, error)
	// Truncate rewrites the range, status and segment of a pending request
	// and its detail.
	Truncate(ctx context.Context, row *leaveDatamodel.LeaveRequest) (bool, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

func FromDataModel(row *leaveDatamodel.LeaveRequest) *Request {
	req := &Request{
		ID:            row.ID,
		CompanyID:     row.CompanyID,
		EmployeeID:    row.EmployeeID,
		LeaveTypeID:   row.LeaveTypeID,
		MappingID:     row.MappingID,
		FromDate:      row.FromDate.Format(validation.DateLayout),
		ToDate:        row.ToDate.Format(validation.DateLayout),
		TotalDays:     row.TotalDays,
		Status:        Status(row.Status),
		ParentLeaveID: row.ParentLeaveID,
		SegmentType:   SegmentType(row.SegmentType),
		Reason:        row.Reason,
		CreatedAt:     row.CreatedAt,
	}
	if row.Detail != nil {
		req.Detail = &Detail{
			UnitType:        policy.Unit(row.Detail.UnitType),
			Units:           row.Detail.Units,
			SandwichCounted: row.Detail.SandwichCounted,
		}
	}
	return req
}
