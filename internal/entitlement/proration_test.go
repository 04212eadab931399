package entitlement_test

import (
	"time"

	"github.com/frahmantamala/leave-management/internal/entitlement"
	"github.com/frahmantamala/leave-management/internal/policy"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Proration", func() {
	start, end := day("2024-01-01"), day("2024-12-31")

	DescribeTable("ProrationFactor",
		func(join string, want float64) {
			Expect(entitlement.ProrationFactor(day(join), start, end)).To(BeNumerically("~", want, 1e-9))
		},
		Entry("joined before the period", "2023-05-10", 1.0),
		Entry("joined on the first day", "2024-01-01", 1.0),
		Entry("joined mid January", "2024-01-15", 1.0),
		Entry("joined in July", "2024-07-01", 0.5),
		Entry("joined in December", "2024-12-31", 1.0/12),
		Entry("joined after the period", "2025-01-01", 0.0),
	)

	It("should never grow as the join date moves later", func() {
		prev := 1.0
		for join := day("2023-11-01"); join.Before(day("2025-03-01")); join = join.AddDate(0, 0, 5) {
			f := entitlement.ProrationFactor(join, start, end)
			Expect(f).To(BeNumerically("<=", prev))
			Expect(f).To(BeNumerically(">=", 0))
			Expect(f).To(BeNumerically("<=", 1))
			prev = f
		}
	})

	Describe("Allocation", func() {
		period := entitlement.Period{Start: start, End: end}

		prorated := func(annual float64) *policy.Mapping {
			return &policy.Mapping{
				AnnualAllocation: annual,
				Policy:           policy.Policy{Config: policy.Config{Proration: true}},
			}
		}

		It("should return the annual allocation when proration is off", func() {
			m := prorated(15)
			m.Policy.Config.Proration = false
			Expect(entitlement.Allocation(m, day("2024-10-01"), period)).To(Equal(15.0))
		})

		It("should prorate by remaining months", func() {
			Expect(entitlement.Allocation(prorated(12), day("2024-07-20"), period)).To(Equal(6.0))
		})

		It("should round to two decimals", func() {
			// 10 * 5/12 = 4.1666...
			Expect(entitlement.Allocation(prorated(10), day("2024-08-02"), period)).To(Equal(4.17))
		})

		It("should give nothing to future joiners", func() {
			Expect(entitlement.Allocation(prorated(12), day("2025-02-01"), period)).To(BeZero())
		})
	})

	DescribeTable("FiscalPeriod",
		func(at string, startMonth time.Month, wantStart, wantEnd string) {
			p := entitlement.FiscalPeriod(day(at), startMonth)
			Expect(p.Start).To(Equal(day(wantStart)))
			Expect(p.End).To(Equal(day(wantEnd)))
		},
		Entry("calendar year", "2024-06-15", time.January, "2024-01-01", "2024-12-31"),
		Entry("april year, after start", "2024-06-15", time.April, "2024-04-01", "2025-03-31"),
		Entry("april year, before start", "2024-02-15", time.April, "2023-04-01", "2024-03-31"),
	)
})
