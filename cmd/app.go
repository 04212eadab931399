package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/approval"
	approvalPostgres "github.com/frahmantamala/leave-management/internal/approval/postgres"
	"github.com/frahmantamala/leave-management/internal/calendar"
	calendarPostgres "github.com/frahmantamala/leave-management/internal/calendar/postgres"
	"github.com/frahmantamala/leave-management/internal/core/database"
	"github.com/frahmantamala/leave-management/internal/core/datamodel"
	"github.com/frahmantamala/leave-management/internal/core/employee"
	employeePostgres "github.com/frahmantamala/leave-management/internal/core/employee/postgres"
	"github.com/frahmantamala/leave-management/internal/core/events"
	eventsPostgres "github.com/frahmantamala/leave-management/internal/core/events/postgres"
	"github.com/frahmantamala/leave-management/internal/entitlement"
	"github.com/frahmantamala/leave-management/internal/leave"
	leavePostgres "github.com/frahmantamala/leave-management/internal/leave/postgres"
	"github.com/frahmantamala/leave-management/internal/ledger"
	ledgerPostgres "github.com/frahmantamala/leave-management/internal/ledger/postgres"
	"github.com/frahmantamala/leave-management/internal/policy"
	policyPostgres "github.com/frahmantamala/leave-management/internal/policy/postgres"
	"github.com/frahmantamala/leave-management/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies holds the wired services shared by every command.
type Dependencies struct {
	Config *internal.Config
	SQL    *sql.DB
	DB     *gorm.DB
	Redis  *redis.Client
	Memory *calendar.MemoryCache
	Bus    *events.EventBus
	Logger *slog.Logger

	Directory   employee.Directory
	Outbox      events.OutboxRepository
	Calendar    *calendar.Service
	Policy      *policy.Service
	Ledger      *ledger.Service
	Entitlement *entitlement.Service
	Approval    *approval.Service
	Leave       *leave.Service
}

func initializeDependencies(cfg *internal.Config) (*Dependencies, error) {
	lg := logger.LoggerWrapper()

	sqlDB, db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := &Dependencies{
		Config: cfg,
		SQL:    sqlDB,
		DB:     db,
		Bus:    events.NewEventBus(lg),
		Logger: lg,
	}

	var cache calendar.Cache
	if cfg.Cache.RedisAddr == "" {
		deps.Memory = calendar.NewMemoryCache()
		cache = deps.Memory
	} else {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		cache = calendar.NewRedisCache(deps.Redis)
	}

	tx := database.NewTransactor(db, lg)
	deps.Outbox = eventsPostgres.NewOutboxRepository(db)
	recorder := events.NewRecorder(events.NewOutbox(deps.Outbox), deps.Bus)

	deps.Directory = employeePostgres.NewDirectory(db)
	deps.Ledger = ledger.NewService(ledgerPostgres.NewLedgerRepository(db), tx, recorder, lg)
	deps.Policy = policy.NewService(policyPostgres.NewPolicyRepository(db), lg)
	deps.Calendar = calendar.NewService(calendarPostgres.NewCalendarRepository(db), cache, cfg.Cache.CalendarTTL, lg)
	deps.Entitlement = entitlement.NewService(deps.Calendar, deps.Policy, deps.Ledger, lg)
	deps.Approval = approval.NewService(approvalPostgres.NewApprovalRepository(db), tx, recorder, lg)

	leaveDeps := leave.Deps{
		Repo:      leavePostgres.NewLeaveRepository(db),
		Directory: deps.Directory,
		Policies:  deps.Policy,
		Units:     deps.Entitlement,
		Balances:  deps.Ledger,
		Approvals: deps.Approval,
		Tx:        tx,
		Recorder:  recorder,
	}
	deps.Approval.RegisterSegments(approval.RequestTypeLeave,
		leave.NewSegments(leaveDeps, deps.Ledger, cfg.Leave.EnforceBalance, lg))
	deps.Leave = leave.NewService(leaveDeps, cfg.Leave.EnforceBalance, lg)

	return deps, nil
}

// initDB opens the pool. Postgres goes through sqlx on the pgx stdlib driver
// and gorm reuses that pool; sqlite is migrated in place.
func initDB(cfg internal.DatabaseConfig) (*sql.DB, *gorm.DB, error) {
	if cfg.Driver == database.DriverSQLite {
		db, err := database.Open(cfg, nil)
		if err != nil {
			return nil, nil, err
		}
		if err := datamodel.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return sqlDB, db, nil
	}

	conn, err := sqlx.Connect("pgx", cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	db, err := database.Open(cfg, conn.DB)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return conn.DB, db, nil
}

func (d *Dependencies) Close(ctx context.Context) {
	ctx, cancel := internal.ShutdownContext(ctx)
	defer cancel()

	if err := d.Bus.Drain(ctx); err != nil {
		d.Logger.Warn("event bus drain interrupted", "error", err)
	}
	if d.Memory != nil {
		d.Memory.Stop()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.SQL.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

// subscribeAudit logs every domain event handed to the in-process bus.
func subscribeAudit(bus *events.EventBus, lg *slog.Logger) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) error {
		lg.Info("domain event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	}, events.EventTypeLeaveSubmitted, events.EventTypeApprovalDecided, events.EventTypeLedgerPosted)
}
