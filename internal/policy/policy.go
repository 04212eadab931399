package policy

import (
	"context"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	policyDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/policy"
)

type Unit string

const (
	UnitDay  Unit = "DAY"
	UnitHour Unit = "HOUR"
)

func (u Unit) Valid() bool {
	return u == UnitDay || u == UnitHour
}

// Config is decoded once when the policy row is loaded.
type Config = policyDatamodel.Config

// RequiresManager reports whether the chain opens with a MANAGER step.
func RequiresManager(c Config) bool {
	return hasRole(c, actor.RoleManager)
}

// RequiresAdmin reports whether the chain ends with an ADMIN step.
func RequiresAdmin(c Config) bool {
	return hasRole(c, actor.RoleAdmin)
}

func hasRole(c Config, role actor.Role) bool {
	for _, r := range c.WorkflowRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Policy struct {
	ID            int64      `json:"id"`
	CompanyID     int64      `json:"company_id"`
	Name          string     `json:"name"`
	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	Config        Config     `json:"config"`
}

type LeaveType struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func LeaveTypeFromDataModel(lt *policyDatamodel.LeaveType) LeaveType {
	return LeaveType{
		ID:        lt.ID,
		CompanyID: lt.CompanyID,
		Code:      lt.Code,
		Name:      lt.Name,
		IsActive:  lt.IsActive,
		CreatedAt: lt.CreatedAt,
	}
}

type Mapping struct {
	ID                int64     `json:"id"`
	CompanyID         int64     `json:"company_id"`
	PolicyID          int64     `json:"policy_id"`
	LeaveTypeID       int64     `json:"leave_type_id"`
	EmployeeID        *int64    `json:"employee_id,omitempty"`
	Department        *string   `json:"department,omitempty"`
	Designation       *string   `json:"designation,omitempty"`
	Unit              Unit      `json:"unit"`
	AnnualAllocation  float64   `json:"annual_allocation"`
	MaxBalance        *float64  `json:"max_balance,omitempty"`
	CarryForwardLimit *float64  `json:"carry_forward_limit,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	Policy            Policy    `json:"policy"`
}

// Scope selects one specificity tier. Nil fields must be NULL on the row.
type Scope struct {
	EmployeeID  *int64
	Department  *string
	Designation *string
}

type Tier string

const (
	TierEmployee              Tier = "employee"
	TierDepartmentDesignation Tier = "department_designation"
	TierDepartment            Tier = "department"
	TierDefault               Tier = "default"
)

var (
	ErrPolicyNotFound         = internal.NewNotFoundError("leave policy not found", internal.ErrCodePolicyNotFound)
	ErrMappingNotFound        = internal.NewNotFoundError("policy mapping not found", internal.ErrCodePolicyNotFound)
	ErrLeaveTypeNotFound      = internal.NewNotFoundError("leave type not found", internal.ErrCodeLeaveTypeNotFound)
	ErrLeaveTypeNotConfigured = internal.NewValidationError("leave type not configured for this employee", internal.ErrCodeLeaveTypeNotConfigured)
	ErrLeaveTypeCodeTaken     = internal.NewConsistencyError("a leave type with this code already exists", internal.ErrCodeLeaveTypeExists)
)

type Repository interface {
	// FindMapping returns the newest active mapping matching scope exactly, or nil.
	FindMapping(ctx context.Context, companyID, leaveTypeID int64, scope Scope) (*policyDatamodel.LeavePolicyMapping, error)
	// GetMapping loads a mapping with its policy regardless of is_active.
	GetMapping(ctx context.Context, companyID, mappingID int64) (*policyDatamodel.LeavePolicyMapping, error)
	GetPolicy(ctx context.Context, companyID, policyID int64) (*policyDatamodel.LeavePolicy, error)
	CreatePolicy(ctx context.Context, p *policyDatamodel.LeavePolicy) error
	CreateMapping(ctx context.Context, m *policyDatamodel.LeavePolicyMapping) error
	LeaveTypeExists(ctx context.Context, companyID, leaveTypeID int64) (bool, error)
	ListLeaveTypes(ctx context.Context, companyID int64) ([]*policyDatamodel.LeaveType, error)
	// GetLeaveTypeByCode matches the code regardless of is_active, or returns nil.
	GetLeaveTypeByCode(ctx context.Context, companyID int64, code string) (*policyDatamodel.LeaveType, error)
	CreateLeaveType(ctx context.Context, lt *policyDatamodel.LeaveType) error
}

func PolicyFromDataModel(p *policyDatamodel.LeavePolicy) Policy {
	return Policy{
		ID:            p.ID,
		CompanyID:     p.CompanyID,
		Name:          p.Name,
		EffectiveFrom: p.EffectiveFrom,
		EffectiveTo:   p.EffectiveTo,
		Config:        p.Config.Data(),
	}
}

func FromDataModel(m *policyDatamodel.LeavePolicyMapping) *Mapping {
	return &Mapping{
		ID:                m.ID,
		CompanyID:         m.CompanyID,
		PolicyID:          m.PolicyID,
		LeaveTypeID:       m.LeaveTypeID,
		EmployeeID:        m.EmployeeID,
		Department:        m.Department,
		Designation:       m.Designation,
		Unit:              Unit(m.Unit),
		AnnualAllocation:  m.AnnualAllocation,
		MaxBalance:        m.MaxBalance,
		CarryForwardLimit: m.CarryForwardLimit,
		IsActive:          m.IsActive,
		CreatedAt:         m.CreatedAt,
		Policy:            PolicyFromDataModel(&m.Policy),
	}
}
