package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PunchoutMetrics records the protocol-level counters exposed on /metrics.
type PunchoutMetrics struct {
	setupDuration *prometheus.HistogramVec
	setupOutcomes *prometheus.CounterVec
	orderMessages *prometheus.CounterVec
	itemsAdded    *prometheus.CounterVec
	itemsFailed   *prometheus.CounterVec
}

// NewPunchoutMetrics registers the punchout metrics on the provided registerer.
func NewPunchoutMetrics(reg prometheus.Registerer) *PunchoutMetrics {
	if reg == nil {
		return &PunchoutMetrics{}
	}
	setupDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "punchout_setup_duration_seconds",
		Help:    "Duration of PunchOutSetupRequest processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"partner"})
	setupOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "punchout_setup_total",
		Help: "PunchOutSetupRequest outcomes by partner and result.",
	}, []string{"partner", "outcome"})
	orderMessages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "punchout_order_messages_total",
		Help: "Outbound PunchOutOrderMessage documents generated.",
	}, []string{"partner"})
	itemsAdded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "punchout_items_added_total",
		Help: "Pending quick-punchout items fulfilled into carts.",
	}, []string{"partner"})
	itemsFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "punchout_items_failed_total",
		Help: "Pending quick-punchout items that could not be fulfilled.",
	}, []string{"partner"})
	reg.MustRegister(setupDuration, setupOutcomes, orderMessages, itemsAdded, itemsFailed)
	return &PunchoutMetrics{
		setupDuration: setupDuration,
		setupOutcomes: setupOutcomes,
		orderMessages: orderMessages,
		itemsAdded:    itemsAdded,
		itemsFailed:   itemsFailed,
	}
}

// ObserveSetupDuration records the processing time of a setup request.
func (p *PunchoutMetrics) ObserveSetupDuration(partner string, duration time.Duration) {
	if p == nil || p.setupDuration == nil {
		return
	}
	p.setupDuration.WithLabelValues(normalizeLabel(partner)).Observe(duration.Seconds())
}

// IncSetup counts one setup request outcome ("success", "error", ...).
func (p *PunchoutMetrics) IncSetup(partner, outcome string) {
	if p == nil || p.setupOutcomes == nil {
		return
	}
	p.setupOutcomes.WithLabelValues(normalizeLabel(partner), normalizeLabel(outcome)).Inc()
}

// IncOrderMessage counts one generated order message.
func (p *PunchoutMetrics) IncOrderMessage(partner string) {
	if p == nil || p.orderMessages == nil {
		return
	}
	p.orderMessages.WithLabelValues(normalizeLabel(partner)).Inc()
}

// AddItemsFulfilled counts pending items pulled into a cart.
func (p *PunchoutMetrics) AddItemsFulfilled(partner string, n int) {
	if p == nil || p.itemsAdded == nil || n <= 0 {
		return
	}
	p.itemsAdded.WithLabelValues(normalizeLabel(partner)).Add(float64(n))
}

// AddItemsFailed counts pending items that could not be fulfilled.
func (p *PunchoutMetrics) AddItemsFailed(partner string, n int) {
	if p == nil || p.itemsFailed == nil || n <= 0 {
		return
	}
	p.itemsFailed.WithLabelValues(normalizeLabel(partner)).Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
