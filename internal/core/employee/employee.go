package employee

import (
	"context"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	employeeDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/employee"
)

// Employee is the directory record the engine consumes.
type Employee struct {
	ID            int64
	CompanyID     int64
	Name          string
	Department    *string
	Designation   *string
	DateOfJoining time.Time
}

var ErrEmployeeNotFound = internal.NewNotFoundError("employee not found", internal.ErrCodeEmployeeNotFound)

type Directory interface {
	Get(ctx context.Context, companyID, employeeID int64) (*Employee, error)
	ListActive(ctx context.Context, companyID int64) ([]*Employee, error)
}

func FromDataModel(e *employeeDatamodel.Employee) *Employee {
	return &Employee{
		ID:            e.ID,
		CompanyID:     e.CompanyID,
		Name:          e.Name,
		Department:    e.Department,
		Designation:   e.Designation,
		DateOfJoining: e.DateOfJoining,
	}
}
