package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/frahmantamala/leave-management/internal/core/employee"
	"github.com/frahmantamala/leave-management/internal/core/metrics"
)

var ErrAccrualQueueFull = errors.New("accrual queue full, please try again later")

type GrantJob struct {
	CompanyID   int64
	Employee    *employee.Employee
	LeaveTypeID int64
	Period      Period

	reply chan<- GrantOutcome
}

type GrantOutcome struct {
	Job    GrantJob
	Result *GrantResult
	Err    error
}

type Granter interface {
	Grant(ctx context.Context, companyID int64, emp *employee.Employee, leaveTypeID int64, period Period) (*GrantResult, error)
}

type Worker struct {
	ID         int
	WorkerPool chan chan GrantJob
	JobChannel chan GrantJob
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan GrantJob, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan GrantJob),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(GrantJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				w.Logger.Debug("accrual worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("accrual worker processing job",
					"worker_id", w.ID,
					"employee_id", job.Employee.ID,
					"leave_type_id", job.LeaveTypeID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("accrual worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type RunnerConfig struct {
	MaxWorkers   int
	JobQueueSize int
}

// AccrualRunner grants allocations over a bounded pool of workers. Each
// (employee, leave type) pair is independent, so jobs run in parallel.
type AccrualRunner struct {
	granter Granter
	logger  *slog.Logger

	jobQueue   chan GrantJob
	workerPool chan chan GrantJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewAccrualRunner(granter Granter, config RunnerConfig, logger *slog.Logger) *AccrualRunner {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	runner := &AccrualRunner{
		granter: granter,
		logger:  logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan GrantJob, jobQueueSize),
		workerPool: make(chan chan GrantJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	runner.startWorkerPool()

	return runner
}

func (r *AccrualRunner) startWorkerPool() {
	r.once.Do(func() {
		for i := 0; i < r.maxWorkers; i++ {
			worker := NewWorker(i, r.workerPool, r.logger)
			worker.Start(r.ctx, &r.wg, r.process)
		}

		r.wg.Add(1)
		go r.dispatch()

		r.logger.Info("accrual worker pool started",
			"max_workers", r.maxWorkers,
			"queue_size", cap(r.jobQueue))
	})
}

func (r *AccrualRunner) dispatch() {
	defer r.wg.Done()

	for {
		select {
		case job := <-r.jobQueue:
			select {
			case jobChannel := <-r.workerPool:
				select {
				case jobChannel <- job:
				case <-r.ctx.Done():
					r.cancelJob(job)
					return
				}
			case <-r.ctx.Done():
				r.cancelJob(job)
				return
			}
		case <-r.ctx.Done():
			r.logger.Info("accrual dispatcher shutting down")
			return
		}
	}
}

func (r *AccrualRunner) cancelJob(job GrantJob) {
	if job.reply != nil {
		job.reply <- GrantOutcome{Job: job, Err: context.Canceled}
	}
}

func (r *AccrualRunner) process(job GrantJob) {
	result, err := r.granter.Grant(r.ctx, job.CompanyID, job.Employee, job.LeaveTypeID, job.Period)

	switch {
	case err != nil:
		metrics.RecordAccrualGrant("error")
		r.logger.Error("accrual grant failed",
			"employee_id", job.Employee.ID,
			"leave_type_id", job.LeaveTypeID,
			"error", err)
	default:
		metrics.RecordAccrualGrant(string(result.Status))
	}

	if job.reply != nil {
		job.reply <- GrantOutcome{Job: job, Result: result, Err: err}
	}
}

// Submit queues one job without waiting for it. It fails fast when the
// queue is full.
func (r *AccrualRunner) Submit(job GrantJob) error {
	select {
	case r.jobQueue <- job:
		return nil
	default:
		r.logger.Warn("accrual queue full, rejecting job",
			"employee_id", job.Employee.ID,
			"queue_capacity", cap(r.jobQueue))
		return ErrAccrualQueueFull
	}
}

type RunSummary struct {
	Granted      int
	Skipped      int
	Unconfigured int
	Failed       int
	Outcomes     []GrantOutcome
}

func (s *RunSummary) add(o GrantOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch {
	case o.Err != nil:
		s.Failed++
	case o.Result.Status == GrantGranted:
		s.Granted++
	case o.Result.Status == GrantUnconfigured:
		s.Unconfigured++
	default:
		s.Skipped++
	}
}

// Run pushes every job through the pool and waits for all outcomes. Jobs
// not yet queued when ctx ends are reported as failed.
func (r *AccrualRunner) Run(ctx context.Context, jobs []GrantJob) *RunSummary {
	replies := make(chan GrantOutcome, len(jobs))
	summary := &RunSummary{}

	queued := 0
	for _, job := range jobs {
		job.reply = replies
		select {
		case r.jobQueue <- job:
			queued++
			continue
		case <-ctx.Done():
		case <-r.ctx.Done():
		}
		summary.add(GrantOutcome{Job: job, Err: context.Canceled})
	}

	for i := 0; i < queued; i++ {
		select {
		case o := <-replies:
			summary.add(o)
		case <-r.ctx.Done():
			for ; i < queued; i++ {
				summary.add(GrantOutcome{Err: context.Canceled})
			}
		}
	}

	r.logger.Info("accrual run finished",
		"jobs", len(jobs),
		"granted", summary.Granted,
		"skipped", summary.Skipped,
		"unconfigured", summary.Unconfigured,
		"failed", summary.Failed)
	return summary
}

func (r *AccrualRunner) Shutdown() {
	r.logger.Info("shutting down accrual runner")
	r.cancel()
	r.wg.Wait()
	r.logger.Info("accrual runner shutdown complete")
}
