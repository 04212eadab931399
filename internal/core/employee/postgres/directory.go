package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/leave-management/internal/core/database"
	employeeDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/employee"
	"github.com/frahmantamala/leave-management/internal/core/employee"
	"gorm.io/gorm"
)

type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) employee.Directory {
	return &Directory{db: db}
}

func (d *Directory) Get(ctx context.Context, companyID, employeeID int64) (*employee.Employee, error) {
	var row employeeDatamodel.Employee
	err := database.Conn(ctx, d.db).
		Where("company_id = ? AND id = ?", companyID, employeeID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}
	return employee.FromDataModel(&row), nil
}

func (d *Directory) ListActive(ctx context.Context, companyID int64) ([]*employee.Employee, error) {
	var rows []*employeeDatamodel.Employee
	err := database.Conn(ctx, d.db).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]*employee.Employee, len(rows))
	for i, r := range rows {
		result[i] = employee.FromDataModel(r)
	}
	return result, nil
}
