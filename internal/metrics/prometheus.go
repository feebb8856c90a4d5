package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yasuyuky/gh-chk/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing
// a PrometheusCollector never panics even when the registerer is shared.
type PrometheusCollector struct {
	*NopMetrics

	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	// Tracker metrics
	itemTransitions *prometheus.CounterVec
	itemResults     *prometheus.CounterVec
	itemDuration    *prometheus.HistogramVec
	assigneeChanges *prometheus.CounterVec
	baselines       prometheus.Counter

	// Fetch metrics
	requests      *prometheus.CounterVec
	requestLat    prometheus.Histogram
	limiterWait   prometheus.Histogram
	eventsDropped *prometheus.CounterVec

	// Store metrics
	snapshotOps     *prometheus.CounterVec
	snapshotLatency *prometheus.HistogramVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "ghchk" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "ghchk"
	}

	return &PrometheusCollector{NopMetrics: NewNop(), reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.itemTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "tracker",
			Name:      "item_state_transitions_total",
			Help:      "Total per-item pipeline state transitions.",
		}, []string{"from", "to"})

		p.itemResults = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "tracker",
			Name:      "items_total",
			Help:      "Total tracked items by terminal state and failure kind.",
		}, []string{"state", "kind"})

		p.itemDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "tracker",
			Name:      "item_duration_seconds",
			Help:      "Wall time spent tracking one item in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}, []string{"state"})

		p.assigneeChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "tracker",
			Name:      "assignee_changes_total",
			Help:      "Total assignee changes detected by direction (added/removed).",
		}, []string{"direction"})

		p.baselines = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "tracker",
			Name:      "baselines_total",
			Help:      "Total items tracked for the first time.",
		})

		p.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "Total timeline page requests by outcome.",
		}, []string{"outcome"})

		p.requestLat = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "fetch",
			Name:      "request_duration_seconds",
			Help:      "Round-trip time of timeline page requests in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms .. ~20s
		})

		p.limiterWait = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "fetch",
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting on the shared request limiter in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		})

		p.eventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "fetch",
			Name:      "events_dropped_total",
			Help:      "Total timeline events dropped during normalization by reason.",
		}, []string{"reason"})

		p.snapshotOps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "snapshot_operations_total",
			Help:      "Total snapshot operations by op (load/save) and result.",
		}, []string{"op", "result"})

		p.snapshotLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "snapshot_operation_duration_seconds",
			Help:      "Latency of snapshot operations in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}, []string{"op"})

		p.reg.MustRegister(p.itemTransitions)
		p.reg.MustRegister(p.itemResults)
		p.reg.MustRegister(p.itemDuration)
		p.reg.MustRegister(p.assigneeChanges)
		p.reg.MustRegister(p.baselines)
		p.reg.MustRegister(p.requests)
		p.reg.MustRegister(p.requestLat)
		p.reg.MustRegister(p.limiterWait)
		p.reg.MustRegister(p.eventsDropped)
		p.reg.MustRegister(p.snapshotOps)
		p.reg.MustRegister(p.snapshotLatency)
	})
}

// TrackerMetrics implementation

// RecordItemStateTransition counts one per-item state transition.
func (p *PrometheusCollector) RecordItemStateTransition(from, to types.ItemState) {
	p.ensureRegistered()
	p.itemTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// RecordItemResult counts a terminal item outcome and observes its duration.
func (p *PrometheusCollector) RecordItemResult(state types.ItemState, kind types.ErrorKind, duration float64) {
	p.ensureRegistered()

	kindLabel := ""
	if state == types.ItemFailed {
		kindLabel = kind.String()
	}
	p.itemResults.WithLabelValues(state.String(), kindLabel).Inc()
	p.itemDuration.WithLabelValues(state.String()).Observe(duration)
}

// RecordAssigneeChanges counts added and removed logins.
func (p *PrometheusCollector) RecordAssigneeChanges(added, removed int, baseline bool) {
	p.ensureRegistered()
	if baseline {
		p.baselines.Inc()
	}
	if added > 0 {
		p.assigneeChanges.WithLabelValues("added").Add(float64(added))
	}
	if removed > 0 {
		p.assigneeChanges.WithLabelValues("removed").Add(float64(removed))
	}
}

// FetchMetrics implementation

// RecordRequest counts a page request and observes its latency.
func (p *PrometheusCollector) RecordRequest(outcome string, duration float64) {
	p.ensureRegistered()
	p.requests.WithLabelValues(outcome).Inc()
	p.requestLat.Observe(duration)
}

// RecordRateLimitWait observes time spent waiting on the request limiter.
func (p *PrometheusCollector) RecordRateLimitWait(duration float64) {
	p.ensureRegistered()
	p.limiterWait.Observe(duration)
}

// RecordEventsDropped counts events dropped during normalization.
func (p *PrometheusCollector) RecordEventsDropped(reason string, count int) {
	if count <= 0 {
		return
	}
	p.ensureRegistered()
	p.eventsDropped.WithLabelValues(reason).Add(float64(count))
}

// StoreMetrics implementation

// RecordSnapshotOperation counts a snapshot operation and observes its latency.
func (p *PrometheusCollector) RecordSnapshotOperation(op string, success bool, duration float64) {
	p.ensureRegistered()

	result := "success"
	if !success {
		result = "failure"
	}
	p.snapshotOps.WithLabelValues(op, result).Inc()
	p.snapshotLatency.WithLabelValues(op).Observe(duration)
}
