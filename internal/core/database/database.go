package database

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type txKey struct{}

type txState struct {
	tx          *gorm.DB
	afterCommit []func()
}

// Open builds a gorm handle. For postgres it wraps the existing sql.DB so
// sqlx and gorm share one pool.
func Open(cfg internal.DatabaseConfig, sqlDB *sql.DB) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	switch cfg.Driver {
	case DriverPostgres:
		if sqlDB == nil {
			return nil, fmt.Errorf("postgres driver requires an open connection")
		}
		return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gcfg)
	case DriverSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.Source), gcfg)
		if err != nil {
			return nil, err
		}
		raw, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer
		raw.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Transactor runs a function inside one database transaction carried by ctx.
type Transactor struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewTransactor(db *gorm.DB, logger *slog.Logger) *Transactor {
	return &Transactor{db: db, logger: logger}
}

// WithinTx joins an outer transaction if ctx already carries one.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	state := &txState{}
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state.tx = tx
		return fn(context.WithValue(ctx, txKey{}, state))
	})
	if err != nil {
		if t.logger != nil {
			t.logger.Debug("transaction rolled back", "error", err)
		}
		return err
	}

	for _, hook := range state.afterCommit {
		hook()
	}
	return nil
}

// AfterCommit defers fn until the outermost transaction in ctx commits.
// Without a transaction fn runs immediately. Hooks are dropped on rollback.
func AfterCommit(ctx context.Context, fn func()) {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		state.afterCommit = append(state.afterCommit, fn)
		return
	}
	fn()
}

// Conn returns the transaction bound to ctx, or db scoped to ctx.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		return state.tx
	}
	return db.WithContext(ctx)
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*txState)
	return ok
}

// ForUpdate adds a row lock on dialects that support it. SQLite serialises
// writers already.
func ForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == DriverPostgres {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// AdvisoryXactLock takes a transaction scoped advisory lock on postgres.
// The lock is released on commit or rollback.
func AdvisoryXactLock(db *gorm.DB, key string) error {
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return db.Exec("SELECT pg_advisory_xact_lock(?)", int64(h.Sum64())).Error
}
