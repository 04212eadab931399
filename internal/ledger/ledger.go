package ledger

import (
	"context"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/rounding"
	ledgerDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/ledger"
	"github.com/shopspring/decimal"
)

type TxnType string

const (
	TxnAccrual TxnType = "ACCRUAL"
	TxnDebit   TxnType = "DEBIT"
	TxnCredit  TxnType = "CREDIT"
	TxnEncash  TxnType = "ENCASH"
)

func (t TxnType) Valid() bool {
	switch t {
	case TxnAccrual, TxnDebit, TxnCredit, TxnEncash:
		return true
	}
	return false
}

// Credits reports whether the type adds to the balance.
func (t TxnType) Credits() bool {
	return t == TxnAccrual || t == TxnCredit
}

type Entry struct {
	ID          int64     `json:"id"`
	CompanyID   int64     `json:"company_id"`
	EmployeeID  int64     `json:"employee_id"`
	LeaveTypeID int64     `json:"leave_type_id"`
	TxnType     TxnType   `json:"txn_type"`
	Units       float64   `json:"units"`
	Note        string    `json:"note,omitempty"`
	RequestID   *int64    `json:"request_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Encashment struct {
	ID          int64     `json:"id"`
	LedgerID    int64     `json:"ledger_id"`
	EmployeeID  int64     `json:"employee_id"`
	LeaveTypeID int64     `json:"leave_type_id"`
	Units       float64   `json:"units"`
	Balance     float64   `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrInsufficientBalance = internal.NewValidationError("insufficient leave balance", internal.ErrCodeInsufficientBalance)
	ErrInvalidTxnType      = internal.NewValidationFieldError("txn_type", "txn_type must be ACCRUAL, DEBIT, CREDIT or ENCASH", internal.ErrCodeInvalidTxnType)
	ErrNegativeUnits       = internal.NewValidationFieldError("units", "units must not be negative", internal.ErrCodeInvalidUnits)
)

// Totals holds the summed units per transaction type for one pair.
type Totals map[TxnType]float64

// Balance is round2(ACCRUAL + CREDIT - DEBIT - ENCASH).
func (t Totals) Balance() float64 {
	credit := rounding.Sum(t[TxnAccrual], t[TxnCredit])
	debit := rounding.Sum(t[TxnDebit], t[TxnEncash])
	f, _ := credit.Sub(debit).Round(2).Float64()
	return f
}

// Balance computes the balance of a set of rows. The result does not depend
// on row order.
func Balance(entries []Entry) float64 {
	total := decimal.Zero
	for _, e := range entries {
		units := decimal.NewFromFloat(e.Units)
		if e.TxnType.Credits() {
			total = total.Add(units)
		} else {
			total = total.Sub(units)
		}
	}
	f, _ := total.Round(2).Float64()
	return f
}

type Repository interface {
	// Lock serializes writers of one (employee, leave type) pair until the
	// surrounding transaction ends.
	Lock(ctx context.Context, companyID, employeeID, leaveTypeID int64) error
	Totals(ctx context.Context, companyID, employeeID, leaveTypeID int64) (Totals, error)
	Insert(ctx context.Context, row *ledgerDatamodel.LeaveLedger) error
	InsertEncashment(ctx context.Context, row *ledgerDatamodel.LeaveEncashment) error
	List(ctx context.Context, companyID, employeeID, leaveTypeID int64) ([]*ledgerDatamodel.LeaveLedger, error)
	ExistsWithNote(ctx context.Context, companyID, employeeID, leaveTypeID int64, txnType TxnType, note string) (bool, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

func FromDataModel(row *ledgerDatamodel.LeaveLedger) Entry {
	return Entry{
		ID:          row.ID,
		CompanyID:   row.CompanyID,
		EmployeeID:  row.EmployeeID,
		LeaveTypeID: row.LeaveTypeID,
		TxnType:     TxnType(row.TxnType),
		Units:       row.Units,
		Note:        row.Note,
		RequestID:   row.RequestID,
		CreatedAt:   row.CreatedAt,
	}
}

func (e Entry) ToDataModel() *ledgerDatamodel.LeaveLedger {
	return &ledgerDatamodel.LeaveLedger{
		CompanyID:   e.CompanyID,
		EmployeeID:  e.EmployeeID,
		LeaveTypeID: e.LeaveTypeID,
		TxnType:     string(e.TxnType),
		Units:       e.Units,
		Note:        e.Note,
		RequestID:   e.RequestID,
	}
}
