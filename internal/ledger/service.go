package ledger

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/common/rounding"
	"github.com/frahmantamala/leave-management/internal/core/database"
	ledgerDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/ledger"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/core/metrics"
)

type Service struct {
	repo     Repository
	tx       Transactor
	recorder *events.Recorder
	logger   *slog.Logger
}

func NewService(repo Repository, tx Transactor, recorder *events.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		tx:       tx,
		recorder: recorder,
		logger:   logger,
	}
}

func (s *Service) Balance(ctx context.Context, companyID, employeeID, leaveTypeID int64) (float64, error) {
	totals, err := s.repo.Totals(ctx, companyID, employeeID, leaveTypeID)
	if err != nil {
		s.logger.Error("failed to sum ledger",
			"employee_id", employeeID,
			"leave_type_id", leaveTypeID,
			"error", err)
		return 0, internal.NewInternalError("failed to compute balance", err)
	}
	return totals.Balance(), nil
}

// Statement lists the pair's rows in insertion order.
func (s *Service) Statement(ctx context.Context, companyID, employeeID, leaveTypeID int64) ([]Entry, error) {
	rows, err := s.repo.List(ctx, companyID, employeeID, leaveTypeID)
	if err != nil {
		s.logger.Error("failed to list ledger", "employee_id", employeeID, "error", err)
		return nil, internal.NewInternalError("failed to list ledger", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, FromDataModel(row))
	}
	return entries, nil
}

func validateEntry(e Entry) *internal.AppError {
	if !e.TxnType.Valid() {
		return ErrInvalidTxnType
	}
	if e.Units < 0 {
		return ErrNegativeUnits
	}
	return nil
}

// Append writes one row. Rows are never updated; corrections are new rows.
func (s *Service) Append(ctx context.Context, e Entry) (*Entry, error) {
	if vErr := validateEntry(e); vErr != nil {
		return nil, vErr
	}

	var out *Entry
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Lock(ctx, e.CompanyID, e.EmployeeID, e.LeaveTypeID); err != nil {
			return internal.NewInternalError("failed to lock balance", err)
		}
		entry, err := s.insert(ctx, e)
		out = entry
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Debit appends a DEBIT row. With enforce set the balance is read under the
// pair lock and the debit is refused when it would go negative.
func (s *Service) Debit(ctx context.Context, e Entry, enforce bool) (*Entry, error) {
	e.TxnType = TxnDebit
	if vErr := validateEntry(e); vErr != nil {
		return nil, vErr
	}

	var out *Entry
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Lock(ctx, e.CompanyID, e.EmployeeID, e.LeaveTypeID); err != nil {
			return internal.NewInternalError("failed to lock balance", err)
		}
		if enforce {
			if err := s.ensureAvailable(ctx, e.CompanyID, e.EmployeeID, e.LeaveTypeID, e.Units); err != nil {
				return err
			}
		}
		entry, err := s.insert(ctx, e)
		out = entry
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type EncashParams struct {
	CompanyID   int64
	EmployeeID  int64
	LeaveTypeID int64
	Units       float64
	Note        string
}

// Encash writes the ENCASH row and its encashment record in one transaction.
func (s *Service) Encash(ctx context.Context, p EncashParams) (*Encashment, error) {
	if p.Units <= 0 {
		return nil, internal.NewValidationFieldError("units", "units must be positive", internal.ErrCodeInvalidUnits)
	}

	var out *Encashment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Lock(ctx, p.CompanyID, p.EmployeeID, p.LeaveTypeID); err != nil {
			return internal.NewInternalError("failed to lock balance", err)
		}
		if err := s.ensureAvailable(ctx, p.CompanyID, p.EmployeeID, p.LeaveTypeID, p.Units); err != nil {
			return err
		}

		entry, err := s.insert(ctx, Entry{
			CompanyID:   p.CompanyID,
			EmployeeID:  p.EmployeeID,
			LeaveTypeID: p.LeaveTypeID,
			TxnType:     TxnEncash,
			Units:       p.Units,
			Note:        p.Note,
		})
		if err != nil {
			return err
		}

		record := &ledgerDatamodel.LeaveEncashment{
			CompanyID:   p.CompanyID,
			EmployeeID:  p.EmployeeID,
			LeaveTypeID: p.LeaveTypeID,
			Units:       p.Units,
			LedgerID:    entry.ID,
		}
		if err := s.repo.InsertEncashment(ctx, record); err != nil {
			s.logger.Error("failed to record encashment", "ledger_id", entry.ID, "error", err)
			return internal.NewInternalError("failed to record encashment", err)
		}

		balance, err := s.Balance(ctx, p.CompanyID, p.EmployeeID, p.LeaveTypeID)
		if err != nil {
			return err
		}
		out = &Encashment{
			ID:          record.ID,
			LedgerID:    entry.ID,
			EmployeeID:  p.EmployeeID,
			LeaveTypeID: p.LeaveTypeID,
			Units:       p.Units,
			Balance:     balance,
			CreatedAt:   record.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("leave encashed",
		"employee_id", p.EmployeeID,
		"leave_type_id", p.LeaveTypeID,
		"units", p.Units)
	return out, nil
}

type AccrualParams struct {
	CompanyID   int64
	EmployeeID  int64
	LeaveTypeID int64
	Units       float64
	// Note identifies the grant; a second grant with the same note is skipped.
	Note       string
	MaxBalance *float64
}

// Accrue appends an ACCRUAL row capped so the balance stays within
// MaxBalance. It returns nil when the grant already exists or the cap
// leaves nothing to add.
func (s *Service) Accrue(ctx context.Context, p AccrualParams) (*Entry, error) {
	if p.Units < 0 {
		return nil, ErrNegativeUnits
	}

	var out *Entry
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Lock(ctx, p.CompanyID, p.EmployeeID, p.LeaveTypeID); err != nil {
			return internal.NewInternalError("failed to lock balance", err)
		}

		exists, err := s.repo.ExistsWithNote(ctx, p.CompanyID, p.EmployeeID, p.LeaveTypeID, TxnAccrual, p.Note)
		if err != nil {
			return internal.NewInternalError("failed to check accrual", err)
		}
		if exists {
			s.logger.Debug("accrual already granted", "employee_id", p.EmployeeID, "note", p.Note)
			return nil
		}

		units := p.Units
		if p.MaxBalance != nil {
			balance, err := s.Balance(ctx, p.CompanyID, p.EmployeeID, p.LeaveTypeID)
			if err != nil {
				return err
			}
			headroom, _ := rounding.Sum(*p.MaxBalance, -balance).Round(2).Float64()
			if headroom < units {
				units = headroom
			}
		}
		if units <= 0 {
			return nil
		}

		entry, err := s.insert(ctx, Entry{
			CompanyID:   p.CompanyID,
			EmployeeID:  p.EmployeeID,
			LeaveTypeID: p.LeaveTypeID,
			TxnType:     TxnAccrual,
			Units:       units,
			Note:        p.Note,
		})
		out = entry
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ensureAvailable(ctx context.Context, companyID, employeeID, leaveTypeID int64, units float64) error {
	balance, err := s.Balance(ctx, companyID, employeeID, leaveTypeID)
	if err != nil {
		return err
	}
	if units > balance {
		s.logger.Info("insufficient balance",
			"employee_id", employeeID,
			"leave_type_id", leaveTypeID,
			"balance", balance,
			"requested", units)
		return ErrInsufficientBalance.WithDetails(map[string]float64{
			"balance":   balance,
			"requested": units,
		})
	}
	return nil
}

func (s *Service) insert(ctx context.Context, e Entry) (*Entry, error) {
	e.Units = rounding.Round2(e.Units)
	row := e.ToDataModel()
	if err := s.repo.Insert(ctx, row); err != nil {
		s.logger.Error("failed to append ledger row",
			"employee_id", e.EmployeeID,
			"leave_type_id", e.LeaveTypeID,
			"txn_type", e.TxnType,
			"error", err)
		return nil, internal.NewInternalError("failed to append ledger entry", err)
	}

	evt := events.NewLedgerPostedEvent(row.CompanyID, row.ID, row.EmployeeID, row.LeaveTypeID, row.TxnType, row.Units)
	if err := s.recorder.Record(ctx, row.CompanyID, events.AggregateLedger, evt); err != nil {
		return nil, internal.NewInternalError("failed to record ledger event", err)
	}

	txnType, units := row.TxnType, row.Units
	database.AfterCommit(ctx, func() {
		metrics.RecordLedgerEntry(txnType, units)
	})

	entry := FromDataModel(row)
	return &entry, nil
}
