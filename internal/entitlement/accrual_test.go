package entitlement_test

import (
	"context"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/employee"
	"github.com/frahmantamala/leave-management/internal/entitlement"
	"github.com/frahmantamala/leave-management/internal/policy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AccrualRunner", func() {
	var (
		accruer *memoryAccruer
		runner  *entitlement.AccrualRunner
		period  entitlement.Period
	)

	jobsFor := func(n int) []entitlement.GrantJob {
		jobs := make([]entitlement.GrantJob, 0, n)
		for i := 1; i <= n; i++ {
			jobs = append(jobs, entitlement.GrantJob{
				CompanyID:   1,
				Employee:    &employee.Employee{ID: int64(i), CompanyID: 1, DateOfJoining: day("2020-01-01")},
				LeaveTypeID: 7,
				Period:      period,
			})
		}
		return jobs
	}

	BeforeEach(func() {
		accruer = newMemoryAccruer()
		policies := &stubPolicies{mappings: map[int64]*policy.Mapping{
			7: {ID: 3, LeaveTypeID: 7, Unit: policy.UnitDay, AnnualAllocation: 12},
		}}
		service := entitlement.NewService(&stubCalendars{}, policies, accruer, quietLogger())
		runner = entitlement.NewAccrualRunner(service, entitlement.RunnerConfig{MaxWorkers: 3, JobQueueSize: 4}, quietLogger())
		period = entitlement.FiscalPeriod(day("2024-05-01"), time.January)
	})

	AfterEach(func() {
		runner.Shutdown()
	})

	It("should grant every job across the pool", func() {
		summary := runner.Run(context.Background(), jobsFor(25))
		Expect(summary.Granted).To(Equal(25))
		Expect(summary.Failed).To(BeZero())
		Expect(summary.Outcomes).To(HaveLen(25))
		Expect(accruer.calls).To(HaveLen(25))
	})

	It("should count skips on a repeated run", func() {
		runner.Run(context.Background(), jobsFor(5))
		summary := runner.Run(context.Background(), jobsFor(5))
		Expect(summary.Skipped).To(Equal(5))
		Expect(summary.Granted).To(BeZero())
	})

	It("should report failures per job", func() {
		accruer.fail[2] = true
		summary := runner.Run(context.Background(), jobsFor(4))
		Expect(summary.Granted).To(Equal(3))
		Expect(summary.Failed).To(Equal(1))
	})

	It("should not queue jobs once the context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		summary := runner.Run(ctx, jobsFor(10))
		Expect(summary.Failed + summary.Granted).To(Equal(10))
	})
})
