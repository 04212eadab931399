package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/leave-management/internal/core/database"
	policyDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/policy"
	"github.com/frahmantamala/leave-management/internal/policy"
	"gorm.io/gorm"
)

type PolicyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) policy.Repository {
	return &PolicyRepository{db: db}
}

func (r *PolicyRepository) FindMapping(ctx context.Context, companyID, leaveTypeID int64, scope policy.Scope) (*policyDatamodel.LeavePolicyMapping, error) {
	q := database.Conn(ctx, r.db).
		Preload("Policy").
		Where("company_id = ? AND leave_type_id = ? AND is_active = ?", companyID, leaveTypeID, true)

	if scope.EmployeeID != nil {
		q = q.Where("employee_id = ?", *scope.EmployeeID)
	} else {
		q = q.Where("employee_id IS NULL")
	}
	q = eqOrNull(q, "department", scope.Department)
	q = eqOrNull(q, "designation", scope.Designation)

	var m policyDatamodel.LeavePolicyMapping
	if err := q.Order("id DESC").First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func eqOrNull(q *gorm.DB, column string, value *string) *gorm.DB {
	if value == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *value)
}

func (r *PolicyRepository) GetMapping(ctx context.Context, companyID, mappingID int64) (*policyDatamodel.LeavePolicyMapping, error) {
	var m policyDatamodel.LeavePolicyMapping
	err := database.Conn(ctx, r.db).
		Preload("Policy").
		Where("id = ? AND company_id = ?", mappingID, companyID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *PolicyRepository) GetPolicy(ctx context.Context, companyID, policyID int64) (*policyDatamodel.LeavePolicy, error) {
	var p policyDatamodel.LeavePolicy
	err := database.Conn(ctx, r.db).Where("id = ? AND company_id = ?", policyID, companyID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PolicyRepository) CreatePolicy(ctx context.Context, p *policyDatamodel.LeavePolicy) error {
	return database.Conn(ctx, r.db).Create(p).Error
}

func (r *PolicyRepository) CreateMapping(ctx context.Context, m *policyDatamodel.LeavePolicyMapping) error {
	return database.Conn(ctx, r.db).Omit("Policy").Create(m).Error
}

func (r *PolicyRepository) LeaveTypeExists(ctx context.Context, companyID, leaveTypeID int64) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&policyDatamodel.LeaveType{}).
		Where("id = ? AND company_id = ? AND is_active = ?", leaveTypeID, companyID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *PolicyRepository) ListLeaveTypes(ctx context.Context, companyID int64) ([]*policyDatamodel.LeaveType, error) {
	var types []*policyDatamodel.LeaveType
	err := database.Conn(ctx, r.db).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("id ASC").
		Find(&types).Error
	return types, err
}

func (r *PolicyRepository) GetLeaveTypeByCode(ctx context.Context, companyID int64, code string) (*policyDatamodel.LeaveType, error) {
	var lt policyDatamodel.LeaveType
	err := database.Conn(ctx, r.db).Where("company_id = ? AND code = ?", companyID, code).First(&lt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lt, nil
}

func (r *PolicyRepository) CreateLeaveType(ctx context.Context, lt *policyDatamodel.LeaveType) error {
	return database.Conn(ctx, r.db).Create(lt).Error
}
