package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/leave-management/internal/core/database"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/frahmantamala/leave-management/internal/leave"
	"gorm.io/gorm"
)

type LeaveRepository struct {
	db *gorm.DB
}

func NewLeaveRepository(db *gorm.DB) leave.Repository {
	return &LeaveRepository{db: db}
}

func (r *LeaveRepository) Create(ctx context.Context, row *leaveDatamodel.LeaveRequest) error {
	return database.Conn(ctx, r.db).Create(row).Error
}

func (r *LeaveRepository) Get(ctx context.Context, companyID, id int64) (*leaveDatamodel.LeaveRequest, error) {
	return r.first(database.Conn(ctx, r.db), companyID, id)
}

func (r *LeaveRepository) GetForUpdate(ctx context.Context, companyID, id int64) (*leaveDatamodel.LeaveRequest, error) {
	return r.first(database.ForUpdate(database.Conn(ctx, r.db)), companyID, id)
}

func (r *LeaveRepository) first(q *gorm.DB, companyID, id int64) (*leaveDatamodel.LeaveRequest, error) {
	var row leaveDatamodel.LeaveRequest
	err := q.Preload("Detail").
		Where("id = ? AND company_id = ?", id, companyID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *LeaveRepository) ListForEmployee(ctx context.Context, companyID, employeeID int64) ([]*leaveDatamodel.LeaveRequest, error) {
	var rows []*leaveDatamodel.LeaveRequest
	err := database.Conn(ctx, r.db).
		Preload("Detail").
		Where("company_id = ? AND employee_id = ?", companyID, employeeID).
		Order("from_date DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *LeaveRepository) UpdateStatus(ctx context.Context, id int64, from, to leave.Status) (bool, error) {
	res := database.Conn(ctx, r.db).
		Model(&leaveDatamodel.LeaveRequest{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	return res.RowsAffected == 1, res.Error
}

func (r *LeaveRepository) Truncate(ctx context.Context, row *leaveDatamodel.LeaveRequest) (bool, error) {
	conn := database.Conn(ctx, r.db)
	res := conn.Model(&leaveDatamodel.LeaveRequest{}).
		Where("id = ? AND status = ?", row.ID, string(leave.StatusPending)).
		Updates(map[string]interface{}{
			"to_date":      row.ToDate,
			"total_days":   row.TotalDays,
			"status":       row.Status,
			"segment_type": row.SegmentType,
		})
	if res.Error != nil || res.RowsAffected != 1 {
		return false, res.Error
	}

	if row.Detail == nil {
		return true, nil
	}
	err := conn.Model(&leaveDatamodel.LeaveRequestDetail{}).
		Where("leave_request_id = ?", row.ID).
		Updates(map[string]interface{}{
			"unit_type":        row.Detail.UnitType,
			"units":            row.Detail.Units,
			"sandwich_counted": row.Detail.SandwichCounted,
		}).Error
	return err == nil, err
}
