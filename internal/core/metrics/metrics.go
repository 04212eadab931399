package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leave"

var (
	approvalActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "approval",
			Name:      "actions_total",
			Help:      "Workflow actions by verb and result.",
		},
		[]string{"action", "result"},
	)
	leaveSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "request",
			Name:      "submissions_total",
			Help:      "Leave submissions by result.",
		},
		[]string{"result"},
	)
	ledgerEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "entries_total",
			Help:      "Ledger rows appended by transaction type.",
		},
		[]string{"txn_type"},
	)
	ledgerUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "units_total",
			Help:      "Units posted to the ledger by transaction type.",
		},
		[]string{"txn_type"},
	)
	calendarCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calendar",
			Name:      "cache_lookups_total",
			Help:      "Calendar cache lookups by outcome.",
		},
		[]string{"outcome"},
	)
	accrualGrants = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accrual",
			Name:      "grants_total",
			Help:      "Accrual jobs by result.",
		},
		[]string{"result"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

var registerMetrics sync.Once

// Register adds every collector to reg. Safe to call more than once.
func Register(reg prometheus.Registerer) {
	registerMetrics.Do(func() {
		reg.MustRegister(approvalActions)
		reg.MustRegister(leaveSubmissions)
		reg.MustRegister(ledgerEntries)
		reg.MustRegister(ledgerUnits)
		reg.MustRegister(calendarCache)
		reg.MustRegister(accrualGrants)
		reg.MustRegister(httpDuration)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordApprovalAction(action, result string) {
	approvalActions.WithLabelValues(action, result).Inc()
}

func RecordLeaveSubmission(result string) {
	leaveSubmissions.WithLabelValues(result).Inc()
}

func RecordLedgerEntry(txnType string, units float64) {
	ledgerEntries.WithLabelValues(txnType).Inc()
	ledgerUnits.WithLabelValues(txnType).Add(units)
}

func RecordCalendarCache(outcome string) {
	calendarCache.WithLabelValues(outcome).Inc()
}

func RecordAccrualGrant(result string) {
	accrualGrants.WithLabelValues(result).Inc()
}

func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
