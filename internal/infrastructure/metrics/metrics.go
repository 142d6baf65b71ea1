package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clinic"

// Metrics exposes counters for the booking path, the read-through cache,
// admin notifications and the reconcile sweep.
type Metrics struct {
	bookingsTotal      *prometheus.CounterVec
	cacheLookupsTotal  *prometheus.CounterVec
	retriesTotal       *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	orphansCancelled   prometheus.Counter
	overbookedSlots    prometheus.Gauge
	jobDuration        *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		cacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Read-through cache lookups by result",
		}, []string{"result"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "retries_total",
			Help:      "Retried store reads by operation",
		}, []string{"operation"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Admin notification emails by status",
		}, []string{"status"}),
		orphansCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "orphans_cancelled_total",
			Help:      "Pending appointments cancelled because their slot was never claimed",
		}),
		overbookedSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "overbooked_slots",
			Help:      "Slots held by more than one active appointment at the last sweep",
		}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled jobs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.bookingsTotal,
		m.cacheLookupsTotal,
		m.retriesTotal,
		m.notificationsTotal,
		m.orphansCancelled,
		m.overbookedSlots,
		m.jobDuration,
	)
	return m
}

func (m *Metrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRetry(operation string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveNotification(status string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.notificationsTotal.WithLabelValues(status).Add(float64(count))
}

func (m *Metrics) ObserveReconcile(orphansCancelled, overbookedSlots int) {
	if m == nil {
		return
	}
	m.orphansCancelled.Add(float64(orphansCancelled))
	m.overbookedSlots.Set(float64(overbookedSlots))
}

func (m *Metrics) ObserveJob(job string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.jobDuration.WithLabelValues(job, status).Observe(elapsed.Seconds())
}
