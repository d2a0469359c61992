package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking lifecycle. A nil
// receiver is a no-op so wiring stays optional in tests.
type BookingMetrics struct {
	createdTotal   *prometheus.CounterVec
	conflictsTotal *prometheus.CounterVec
	reserveLatency prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		createdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glowdesk",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Total bookings created",
		}, []string{"salon_id"}),
		conflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glowdesk",
			Subsystem: "bookings",
			Name:      "conflicts_total",
			Help:      "Booking attempts rejected by a capacity or duplicate conflict",
		}, []string{"reason"}),
		reserveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "glowdesk",
			Subsystem: "bookings",
			Name:      "create_latency_seconds",
			Help:      "Latency of the booking create transaction",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createdTotal, m.conflictsTotal, m.reserveLatency)
	return m
}

func (m *BookingMetrics) ObserveCreated(salonID string) {
	if m == nil {
		return
	}
	m.createdTotal.WithLabelValues(salonID).Inc()
}

func (m *BookingMetrics) ObserveConflict(reason string) {
	if m == nil {
		return
	}
	m.conflictsTotal.WithLabelValues(reason).Inc()
}

func (m *BookingMetrics) ObserveCreateLatency(seconds float64) {
	if m == nil {
		return
	}
	m.reserveLatency.Observe(seconds)
}

// SlotMetrics counts slot generation runs.
type SlotMetrics struct {
	generatedTotal *prometheus.CounterVec
}

func NewSlotMetrics(reg prometheus.Registerer) *SlotMetrics {
	m := &SlotMetrics{
		generatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "glowdesk",
			Subsystem: "slots",
			Name:      "generated_total",
			Help:      "Slots created and skipped by generation runs",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.generatedTotal)
	return m
}

func (m *SlotMetrics) ObserveGenerated(created, skipped int) {
	if m == nil {
		return
	}
	m.generatedTotal.WithLabelValues("created").Add(float64(created))
	m.generatedTotal.WithLabelValues("skipped").Add(float64(skipped))
}
