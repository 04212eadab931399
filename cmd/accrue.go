package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	"github.com/frahmantamala/leave-management/internal/entitlement"
	"github.com/spf13/cobra"
)

var (
	accrueCompanyID int64
	accrueAsOf      string
	maxWorkers      int
	jobQueueSize    int
)

var accrueCmd = &cobra.Command{
	Use:   "accrue",
	Short: "Grant annual allocations for a fiscal period",
	Long:  `Credit every active employee's allocation for each leave type through the accrual worker pool. Re-running for the same period is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAccrual()
	},
}

func runAccrual() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	asOf := time.Now().UTC()
	if accrueAsOf != "" {
		parsed, vErr := validation.ParseDate("as-of", accrueAsOf)
		if vErr != nil {
			return vErr
		}
		asOf = parsed
	}

	deps, err := initializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer deps.Close(context.Background())

	period := entitlement.FiscalPeriod(asOf, time.Month(cfg.Leave.FiscalYearStartMonth))

	employees, err := deps.Directory.ListActive(ctx, accrueCompanyID)
	if err != nil {
		return fmt.Errorf("failed to list employees: %w", err)
	}
	leaveTypeIDs, err := deps.Policy.LeaveTypeIDs(ctx, accrueCompanyID)
	if err != nil {
		return fmt.Errorf("failed to list leave types: %w", err)
	}

	jobs := make([]entitlement.GrantJob, 0, len(employees)*len(leaveTypeIDs))
	for _, emp := range employees {
		for _, leaveTypeID := range leaveTypeIDs {
			jobs = append(jobs, entitlement.GrantJob{
				CompanyID:   accrueCompanyID,
				Employee:    emp,
				LeaveTypeID: leaveTypeID,
				Period:      period,
			})
		}
	}

	runner := entitlement.NewAccrualRunner(deps.Entitlement, entitlement.RunnerConfig{
		MaxWorkers:   getIntFlag(maxWorkers, cfg.Leave.AccrualWorkers),
		JobQueueSize: getIntFlag(jobQueueSize, cfg.Leave.AccrualQueueSize),
	}, deps.Logger)
	defer runner.Shutdown()

	summary := runner.Run(ctx, jobs)
	fmt.Printf("period %s: granted=%d skipped=%d unconfigured=%d failed=%d\n",
		period, summary.Granted, summary.Skipped, summary.Unconfigured, summary.Failed)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d grants failed", summary.Failed, len(jobs))
	}
	return nil
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	accrueCmd.Flags().Int64Var(&accrueCompanyID, "company", 1, "company id to accrue for")
	accrueCmd.Flags().StringVar(&accrueAsOf, "as-of", "", "date inside the fiscal period, YYYY-MM-DD (default today)")
	accrueCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	accrueCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
}
