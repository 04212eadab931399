package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/leave-management/internal/approval"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/internal/core/database"
	approvalDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/approval"
	"gorm.io/gorm"
)

type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) approval.Repository {
	return &ApprovalRepository{db: db}
}

func (r *ApprovalRepository) Create(ctx context.Context, req *approvalDatamodel.ApprovalRequest) error {
	return database.Conn(ctx, r.db).Create(req).Error
}

func orderedSteps(db *gorm.DB) *gorm.DB {
	return db.Order("step_order ASC")
}

func orderedActions(db *gorm.DB) *gorm.DB {
	return db.Order("performed_at ASC, id ASC")
}

func (r *ApprovalRepository) GetForUpdate(ctx context.Context, id int64) (*approvalDatamodel.ApprovalRequest, error) {
	var req approvalDatamodel.ApprovalRequest
	err := database.ForUpdate(database.Conn(ctx, r.db)).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	err = database.Conn(ctx, r.db).
		Where("request_id = ?", id).
		Order("step_order ASC").
		Find(&req.Steps).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *ApprovalRepository) Get(ctx context.Context, companyID, id int64) (*approvalDatamodel.ApprovalRequest, error) {
	var req approvalDatamodel.ApprovalRequest
	err := database.Conn(ctx, r.db).
		Preload("Steps", orderedSteps).
		Preload("Actions", orderedActions).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *ApprovalRepository) ListPending(ctx context.Context, companyID int64, role actor.Role) ([]*approvalDatamodel.ApprovalRequest, error) {
	var rows []*approvalDatamodel.ApprovalRequest
	err := database.Conn(ctx, r.db).
		Preload("Steps", orderedSteps).
		Joins("JOIN approval_steps s ON s.request_id = approval_requests.id AND s.step_order = approval_requests.current_step").
		Where("approval_requests.company_id = ? AND approval_requests.status = ?", companyID, string(approval.StatusPending)).
		Where("s.status = ? AND s.approver_role = ?", string(approval.StepPending), string(role)).
		Order("approval_requests.id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *ApprovalRepository) CompleteStep(ctx context.Context, stepID int64, status approval.StepStatus) (bool, error) {
	res := database.Conn(ctx, r.db).
		Model(&approvalDatamodel.ApprovalStep{}).
		Where("id = ? AND status = ?", stepID, string(approval.StepPending)).
		Update("status", string(status))
	return res.RowsAffected == 1, res.Error
}

func (r *ApprovalRepository) UpdateRequest(ctx context.Context, id int64, version int, status approval.Status, currentStep int) (bool, error) {
	res := database.Conn(ctx, r.db).
		Model(&approvalDatamodel.ApprovalRequest{}).
		Where("id = ? AND version = ? AND status = ?", id, version, string(approval.StatusPending)).
		Updates(map[string]interface{}{
			"status":       string(status),
			"current_step": currentStep,
			"version":      gorm.Expr("version + 1"),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *ApprovalRepository) InsertAction(ctx context.Context, row *approvalDatamodel.ApprovalAction) error {
	return database.Conn(ctx, r.db).Create(row).Error
}
