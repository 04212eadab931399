package entitlement_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/employee"
	"github.com/frahmantamala/leave-management/internal/entitlement"
	"github.com/frahmantamala/leave-management/internal/ledger"
	"github.com/frahmantamala/leave-management/internal/policy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubCalendars struct {
	resolved *calendar.Resolved
}

func (s *stubCalendars) Resolve(_ context.Context, _, _ int64, _, _ time.Time) (*calendar.Resolved, error) {
	return s.resolved, nil
}

type stubPolicies struct {
	mappings map[int64]*policy.Mapping
	err      error
}

func (s *stubPolicies) Resolve(_ context.Context, _ int64, _ *employee.Employee, leaveTypeID int64) (*policy.Mapping, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.mappings[leaveTypeID], nil
}

// memoryAccruer mimics the ledger's once-per-note accrual.
type memoryAccruer struct {
	mu    sync.Mutex
	notes map[string]bool
	calls []ledger.AccrualParams
	fail  map[int64]bool
}

func newMemoryAccruer() *memoryAccruer {
	return &memoryAccruer{notes: map[string]bool{}, fail: map[int64]bool{}}
}

func (a *memoryAccruer) Accrue(_ context.Context, p ledger.AccrualParams) (*ledger.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, p)
	if a.fail[p.EmployeeID] {
		return nil, errors.New("connection reset")
	}
	key := fmt.Sprintf("%s/%d/%d", p.Note, p.EmployeeID, p.LeaveTypeID)
	if a.notes[key] {
		return nil, nil
	}
	a.notes[key] = true
	return &ledger.Entry{
		ID:          int64(len(a.calls)),
		CompanyID:   p.CompanyID,
		EmployeeID:  p.EmployeeID,
		LeaveTypeID: p.LeaveTypeID,
		TxnType:     ledger.TxnAccrual,
		Units:       p.Units,
		Note:        p.Note,
	}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = Describe("Entitlement Service", func() {
	const companyID int64 = 1

	var (
		ctx      context.Context
		policies *stubPolicies
		accruer  *memoryAccruer
		service  *entitlement.Service
		emp      *employee.Employee
		period   entitlement.Period
	)

	BeforeEach(func() {
		ctx = context.Background()
		maxBalance := 20.0
		policies = &stubPolicies{mappings: map[int64]*policy.Mapping{
			7: {
				ID:               3,
				LeaveTypeID:      7,
				Unit:             policy.UnitDay,
				AnnualAllocation: 12,
				MaxBalance:       &maxBalance,
				Policy:           policy.Policy{Config: policy.Config{Proration: true}},
			},
		}}
		accruer = newMemoryAccruer()
		calendars := &stubCalendars{resolved: &calendar.Resolved{
			Weekend:  calendar.NewWeekdaySet(calendar.DefaultWeekend...),
			Holidays: calendar.NewDateSet(day("2024-06-05")),
		}}
		service = entitlement.NewService(calendars, policies, accruer, quietLogger())
		emp = &employee.Employee{ID: 42, CompanyID: companyID, DateOfJoining: day("2024-07-10")}
		period = entitlement.FiscalPeriod(day("2024-03-01"), time.January)
	})

	It("should compute units against the resolved calendar", func() {
		units, err := service.ComputeUnits(ctx, companyID, emp, policies.mappings[7], day("2024-06-03"), day("2024-06-07"))
		Expect(err).NotTo(HaveOccurred())
		Expect(units.Value).To(Equal(4.0))
		Expect(units.Meta.WeekendDays).To(Equal([]int{5, 6}))
	})

	It("should grant the prorated allocation with the mapping cap", func() {
		result, err := service.Grant(ctx, companyID, emp, 7, period)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).To(Equal(entitlement.GrantGranted))
		Expect(result.Allocation).To(Equal(6.0))
		Expect(accruer.calls).To(HaveLen(1))
		Expect(*accruer.calls[0].MaxBalance).To(Equal(20.0))
		Expect(accruer.calls[0].Note).To(ContainSubstring("2024-01-01..2024-12-31"))
	})

	It("should skip a second grant for the same period", func() {
		_, err := service.Grant(ctx, companyID, emp, 7, period)
		Expect(err).NotTo(HaveOccurred())

		result, err := service.Grant(ctx, companyID, emp, 7, period)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).To(Equal(entitlement.GrantSkipped))
	})

	It("should report unconfigured leave types without touching the ledger", func() {
		result, err := service.Grant(ctx, companyID, emp, 99, period)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).To(Equal(entitlement.GrantUnconfigured))
		Expect(accruer.calls).To(BeEmpty())
	})

	It("should skip employees who join after the period", func() {
		emp.DateOfJoining = day("2025-02-01")
		result, err := service.Grant(ctx, companyID, emp, 7, period)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Status).To(Equal(entitlement.GrantSkipped))
		Expect(accruer.calls).To(BeEmpty())
	})

	It("should surface resolver failures", func() {
		policies.err = errors.New("db down")
		_, err := service.Grant(ctx, companyID, emp, 7, period)
		Expect(err).To(MatchError("db down"))
	})
})
