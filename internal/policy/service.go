package policy

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	policyDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/policy"
	"github.com/frahmantamala/leave-management/internal/core/employee"
	"gorm.io/datatypes"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

type tierQuery struct {
	tier  Tier
	scope Scope
}

// tiers lists the scopes to try, most specific first. Tiers the employee
// cannot match are left out.
func tiers(emp *employee.Employee) []tierQuery {
	id := emp.ID
	out := []tierQuery{{tier: TierEmployee, scope: Scope{EmployeeID: &id}}}
	if emp.Department != nil && emp.Designation != nil {
		out = append(out, tierQuery{
			tier:  TierDepartmentDesignation,
			scope: Scope{Department: emp.Department, Designation: emp.Designation},
		})
	}
	if emp.Department != nil {
		out = append(out, tierQuery{tier: TierDepartment, scope: Scope{Department: emp.Department}})
	}
	return append(out, tierQuery{tier: TierDefault})
}

// Resolve picks the single mapping that applies to the employee for the
// leave type. It returns nil when no tier matches.
func (s *Service) Resolve(ctx context.Context, companyID int64, emp *employee.Employee, leaveTypeID int64) (*Mapping, error) {
	for _, q := range tiers(emp) {
		row, err := s.repo.FindMapping(ctx, companyID, leaveTypeID, q.scope)
		if err != nil {
			s.logger.Error("failed to query policy mapping",
				"company_id", companyID,
				"employee_id", emp.ID,
				"leave_type_id", leaveTypeID,
				"tier", q.tier,
				"error", err)
			return nil, internal.NewInternalError("failed to resolve leave policy", err)
		}
		if row != nil {
			s.logger.Debug("policy mapping resolved",
				"employee_id", emp.ID,
				"leave_type_id", leaveTypeID,
				"mapping_id", row.ID,
				"tier", q.tier)
			return FromDataModel(row), nil
		}
	}

	s.logger.Info("no policy mapping for leave type",
		"company_id", companyID,
		"employee_id", emp.ID,
		"leave_type_id", leaveTypeID)
	return nil, nil
}

// GetMapping reloads the mapping a request was charged against, even if it
// has since been deactivated.
func (s *Service) GetMapping(ctx context.Context, companyID, mappingID int64) (*Mapping, error) {
	row, err := s.repo.GetMapping(ctx, companyID, mappingID)
	if err != nil {
		s.logger.Error("failed to load policy mapping", "mapping_id", mappingID, "error", err)
		return nil, internal.NewInternalError("failed to load policy mapping", err)
	}
	if row == nil {
		return nil, ErrMappingNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) LeaveTypeExists(ctx context.Context, companyID, leaveTypeID int64) (bool, error) {
	ok, err := s.repo.LeaveTypeExists(ctx, companyID, leaveTypeID)
	if err != nil {
		s.logger.Error("failed to check leave type", "leave_type_id", leaveTypeID, "error", err)
		return false, internal.NewInternalError("failed to check leave type", err)
	}
	return ok, nil
}

// LeaveTypeIDs lists the active leave types of the company.
func (s *Service) LeaveTypeIDs(ctx context.Context, companyID int64) ([]int64, error) {
	types, err := s.repo.ListLeaveTypes(ctx, companyID)
	if err != nil {
		s.logger.Error("failed to list leave types", "company_id", companyID, "error", err)
		return nil, internal.NewInternalError("failed to list leave types", err)
	}
	ids := make([]int64, 0, len(types))
	for _, t := range types {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (s *Service) ListLeaveTypes(ctx context.Context, companyID int64) ([]LeaveType, error) {
	rows, err := s.repo.ListLeaveTypes(ctx, companyID)
	if err != nil {
		s.logger.Error("failed to list leave types", "company_id", companyID, "error", err)
		return nil, internal.NewInternalError("failed to list leave types", err)
	}
	out := make([]LeaveType, 0, len(rows))
	for _, row := range rows {
		out = append(out, LeaveTypeFromDataModel(row))
	}
	return out, nil
}

func (s *Service) CreateLeaveType(ctx context.Context, companyID int64, dto CreateLeaveTypeDTO) (*LeaveType, error) {
	dto.Normalize()
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}

	existing, err := s.repo.GetLeaveTypeByCode(ctx, companyID, dto.Code)
	if err != nil {
		s.logger.Error("failed to look up leave type", "company_id", companyID, "code", dto.Code, "error", err)
		return nil, internal.NewInternalError("failed to create leave type", err)
	}
	if existing != nil {
		return nil, ErrLeaveTypeCodeTaken
	}

	row := &policyDatamodel.LeaveType{
		CompanyID: companyID,
		Code:      dto.Code,
		Name:      dto.Name,
		IsActive:  true,
	}
	if err := s.repo.CreateLeaveType(ctx, row); err != nil {
		s.logger.Error("failed to create leave type", "company_id", companyID, "code", dto.Code, "error", err)
		return nil, internal.NewInternalError("failed to create leave type", err)
	}

	s.logger.Info("leave type created", "leave_type_id", row.ID, "company_id", companyID, "code", row.Code)
	lt := LeaveTypeFromDataModel(row)
	return &lt, nil
}

func (s *Service) CreatePolicy(ctx context.Context, companyID int64, dto CreatePolicyDTO) (*Policy, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}

	from, _ := validation.ParseDate("effective_from", dto.EffectiveFrom)
	row := &policyDatamodel.LeavePolicy{
		CompanyID:     companyID,
		Name:          dto.Name,
		EffectiveFrom: from,
		Config:        datatypes.NewJSONType(dto.Config),
	}
	if dto.EffectiveTo != nil {
		to, _ := validation.ParseDate("effective_to", *dto.EffectiveTo)
		row.EffectiveTo = &to
	}

	if err := s.repo.CreatePolicy(ctx, row); err != nil {
		s.logger.Error("failed to create leave policy", "company_id", companyID, "error", err)
		return nil, internal.NewInternalError("failed to create leave policy", err)
	}

	s.logger.Info("leave policy created", "policy_id", row.ID, "company_id", companyID)
	p := PolicyFromDataModel(row)
	return &p, nil
}

func (s *Service) CreateMapping(ctx context.Context, companyID int64, dto CreateMappingDTO) (*Mapping, error) {
	if vErr := dto.Validate(); vErr != nil {
		return nil, vErr
	}

	pol, err := s.repo.GetPolicy(ctx, companyID, dto.PolicyID)
	if err != nil {
		s.logger.Error("failed to load leave policy", "policy_id", dto.PolicyID, "error", err)
		return nil, internal.NewInternalError("failed to load leave policy", err)
	}
	if pol == nil {
		return nil, ErrPolicyNotFound
	}

	exists, err := s.LeaveTypeExists(ctx, companyID, dto.LeaveTypeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrLeaveTypeNotFound
	}

	unit := dto.Unit
	if unit == "" {
		unit = UnitDay
	}
	row := &policyDatamodel.LeavePolicyMapping{
		CompanyID:         companyID,
		PolicyID:          pol.ID,
		LeaveTypeID:       dto.LeaveTypeID,
		EmployeeID:        dto.EmployeeID,
		Department:        dto.Department,
		Designation:       dto.Designation,
		Unit:              string(unit),
		AnnualAllocation:  dto.AnnualAllocation,
		MaxBalance:        dto.MaxBalance,
		CarryForwardLimit: dto.CarryForwardLimit,
		IsActive:          true,
	}
	if err := s.repo.CreateMapping(ctx, row); err != nil {
		s.logger.Error("failed to create policy mapping", "policy_id", pol.ID, "error", err)
		return nil, internal.NewInternalError("failed to create policy mapping", err)
	}
	row.Policy = *pol

	s.logger.Info("policy mapping created",
		"mapping_id", row.ID,
		"policy_id", pol.ID,
		"leave_type_id", dto.LeaveTypeID)
	return FromDataModel(row), nil
}
