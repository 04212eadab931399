package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/leave-management/internal/core/database"
	ledgerDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/ledger"
	"github.com/frahmantamala/leave-management/internal/ledger"
	"gorm.io/gorm"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) ledger.Repository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Lock(ctx context.Context, companyID, employeeID, leaveTypeID int64) error {
	key := fmt.Sprintf("leave_ledger:%d:%d:%d", companyID, employeeID, leaveTypeID)
	return database.AdvisoryXactLock(database.Conn(ctx, r.db), key)
}

type typeTotal struct {
	TxnType string
	Total   float64
}

func (r *LedgerRepository) Totals(ctx context.Context, companyID, employeeID, leaveTypeID int64) (ledger.Totals, error) {
	var rows []typeTotal
	err := database.Conn(ctx, r.db).
		Model(&ledgerDatamodel.LeaveLedger{}).
		Select("txn_type, COALESCE(SUM(units), 0) AS total").
		Where("company_id = ? AND employee_id = ? AND leave_type_id = ?", companyID, employeeID, leaveTypeID).
		Group("txn_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(ledger.Totals, len(rows))
	for _, row := range rows {
		totals[ledger.TxnType(row.TxnType)] = row.Total
	}
	return totals, nil
}

func (r *LedgerRepository) Insert(ctx context.Context, row *ledgerDatamodel.LeaveLedger) error {
	return database.Conn(ctx, r.db).Create(row).Error
}

func (r *LedgerRepository) InsertEncashment(ctx context.Context, row *ledgerDatamodel.LeaveEncashment) error {
	return database.Conn(ctx, r.db).Create(row).Error
}

func (r *LedgerRepository) List(ctx context.Context, companyID, employeeID, leaveTypeID int64) ([]*ledgerDatamodel.LeaveLedger, error) {
	var rows []*ledgerDatamodel.LeaveLedger
	err := database.Conn(ctx, r.db).
		Where("company_id = ? AND employee_id = ? AND leave_type_id = ?", companyID, employeeID, leaveTypeID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *LedgerRepository) ExistsWithNote(ctx context.Context, companyID, employeeID, leaveTypeID int64, txnType ledger.TxnType, note string) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&ledgerDatamodel.LeaveLedger{}).
		Where("company_id = ? AND employee_id = ? AND leave_type_id = ? AND txn_type = ? AND note = ?",
			companyID, employeeID, leaveTypeID, string(txnType), note).
		Count(&count).Error
	return count > 0, err
}
