package policy

import (
	"strings"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
)

type CreatePolicyDTO struct {
	Name          string  `json:"name"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to,omitempty"`
	Config        Config  `json:"config"`
}

func (dto CreatePolicyDTO) Validate() *internal.AppError {
	validator := validation.NewValidator()
	validator.Field("name", dto.Name).Required().MaxLength(255)
	validator.Field("effective_from", dto.EffectiveFrom).Required().Date()
	if dto.EffectiveTo != nil {
		validator.Field("effective_to", *dto.EffectiveTo).Required().Date()
	}
	validator.Field("config.workflow_roles", dto.Config.WorkflowRoles).Custom(validateWorkflowRoles)
	if vErr := validator.Validate(); vErr != nil {
		return vErr
	}

	if dto.EffectiveTo != nil {
		from, _ := validation.ParseDate("effective_from", dto.EffectiveFrom)
		to, _ := validation.ParseDate("effective_to", *dto.EffectiveTo)
		if to.Before(from) {
			return internal.NewValidationFieldError("effective_to", "effective_to must not be before effective_from", internal.ErrCodeInvalidDateRange)
		}
	}
	return nil
}

func validateWorkflowRoles(value interface{}) *internal.AppError {
	roles, _ := value.([]actor.Role)
	for _, r := range roles {
		switch r {
		case actor.RoleManager, actor.RoleHR, actor.RoleAdmin:
		default:
			return internal.NewValidationFieldError("config.workflow_roles", "workflow roles must be MANAGER, HR or ADMIN", internal.ErrCodeInvalidRole)
		}
	}
	return nil
}

type CreateMappingDTO struct {
	PolicyID          int64    `json:"policy_id"`
	LeaveTypeID       int64    `json:"leave_type_id"`
	EmployeeID        *int64   `json:"employee_id,omitempty"`
	Department        *string  `json:"department,omitempty"`
	Designation       *string  `json:"designation,omitempty"`
	Unit              Unit     `json:"unit"`
	AnnualAllocation  float64  `json:"annual_allocation"`
	MaxBalance        *float64 `json:"max_balance,omitempty"`
	CarryForwardLimit *float64 `json:"carry_forward_limit,omitempty"`
}

func (dto CreateMappingDTO) Validate() *internal.AppError {
	validator := validation.NewValidator()
	validator.Field("policy_id", dto.PolicyID).Required()
	validator.Field("leave_type_id", dto.LeaveTypeID).Required()
	validator.Field("annual_allocation", dto.AnnualAllocation).Positive(internal.ErrCodeInvalidUnits)
	if dto.MaxBalance != nil {
		validator.Field("max_balance", *dto.MaxBalance).NonNegative(internal.ErrCodeInvalidUnits)
	}
	if dto.CarryForwardLimit != nil {
		validator.Field("carry_forward_limit", *dto.CarryForwardLimit).NonNegative(internal.ErrCodeInvalidUnits)
	}
	validator.Field("unit", string(dto.Unit)).Custom(func(interface{}) *internal.AppError {
		if dto.Unit != "" && !dto.Unit.Valid() {
			return internal.NewValidationFieldError("unit", "unit must be DAY or HOUR", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	validator.Field("scope", nil).Custom(func(interface{}) *internal.AppError {
		return validateScope(dto.EmployeeID, dto.Department, dto.Designation)
	})
	return validator.Validate()
}

// validateScope allows one specific dimension: an employee, a department
// with designation, a department, or nothing.
func validateScope(employeeID *int64, department, designation *string) *internal.AppError {
	if department != nil && strings.TrimSpace(*department) == "" {
		return internal.NewValidationFieldError("department", "department must not be blank", internal.ErrCodeValidationFailed)
	}
	if designation != nil && strings.TrimSpace(*designation) == "" {
		return internal.NewValidationFieldError("designation", "designation must not be blank", internal.ErrCodeValidationFailed)
	}
	if employeeID != nil && (department != nil || designation != nil) {
		return internal.NewValidationFieldError("employee_id", "an employee scoped mapping cannot also carry department or designation", internal.ErrCodeValidationFailed)
	}
	if designation != nil && department == nil {
		return internal.NewValidationFieldError("designation", "designation requires a department", internal.ErrCodeValidationFailed)
	}
	return nil
}

type CreateLeaveTypeDTO struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Normalize trims both fields and upper-cases the code.
func (dto *CreateLeaveTypeDTO) Normalize() {
	dto.Code = strings.ToUpper(strings.TrimSpace(dto.Code))
	dto.Name = strings.TrimSpace(dto.Name)
}

func (dto CreateLeaveTypeDTO) Validate() *internal.AppError {
	validator := validation.NewValidator()
	validator.Field("code", dto.Code).Required().MaxLength(16).Custom(func(value interface{}) *internal.AppError {
		code, _ := value.(string)
		for _, c := range code {
			if (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '_' {
				return internal.NewValidationFieldError("code", "code may only contain letters, digits and underscores", internal.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	validator.Field("name", dto.Name).Required().MaxLength(255)
	return validator.Validate()
}
