// Package observability wires Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the game's Prometheus metrics. It satisfies the recorder
// interfaces of the oracle client and the session package.
type Collector struct {
	gatherer prometheus.Gatherer

	OracleRequests  *prometheus.CounterVec
	OracleDurations *prometheus.HistogramVec
	Collected       prometheus.Counter
	Wishes          *prometheus.CounterVec
	SaveFailures    prometheus.Counter
	StaleResponses  prometheus.Counter
	ActiveSessions  prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_requests_total",
		Help: "Location oracle requests, labeled by kind and outcome (ok or fallback).",
	}, []string{"kind", "outcome"}), "oracle_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oracle_request_duration_seconds",
		Help:    "Location oracle latency in seconds, including fallback synthesis.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"kind"}), "oracle_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	collected, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "targets_collected_total",
		Help: "Targets marked found by the collection engine.",
	}), "targets_collected_total")
	if err != nil {
		return nil, err
	}

	wishes, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wishes_granted_total",
		Help: "Granted wishes, labeled by node id and whether the target set was spent.",
	}, []string{"node", "consumed"}), "wishes_granted_total")
	if err != nil {
		return nil, err
	}

	saveFailures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_save_failures_total",
		Help: "Snapshot writes that failed. In-memory state stays authoritative.",
	}), "snapshot_save_failures_total")
	if err != nil {
		return nil, err
	}

	stale, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "oracle_stale_responses_total",
		Help: "Oracle results dropped because the target set moved on.",
	}), "oracle_stale_responses_total")
	if err != nil {
		return nil, err
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sessions_active",
		Help: "Game sessions currently running.",
	}), "sessions_active")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		OracleRequests:  requests,
		OracleDurations: durations,
		Collected:       collected,
		Wishes:          wishes,
		SaveFailures:    saveFailures,
		StaleResponses:  stale,
		ActiveSessions:  active,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveOracle records one oracle request.
func (c *Collector) ObserveOracle(kind string, fallback bool, elapsed time.Duration) {
	if c == nil {
		return
	}
	outcome := "ok"
	if fallback {
		outcome = "fallback"
	}
	c.OracleRequests.WithLabelValues(kind, outcome).Inc()
	c.OracleDurations.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// TargetsCollected adds n newly found targets.
func (c *Collector) TargetsCollected(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.Collected.Add(float64(n))
}

// WishGranted records a granted wish.
func (c *Collector) WishGranted(node string, consumed bool) {
	if c == nil {
		return
	}
	label := "false"
	if consumed {
		label = "true"
	}
	c.Wishes.WithLabelValues(node, label).Inc()
}

// SnapshotSaveFailed records a failed write.
func (c *Collector) SnapshotSaveFailed() {
	if c == nil {
		return
	}
	c.SaveFailures.Inc()
}

// StaleResponseDropped records a discarded oracle result.
func (c *Collector) StaleResponseDropped() {
	if c == nil {
		return
	}
	c.StaleResponses.Inc()
}

// SetActiveSessions sets the running session gauge.
func (c *Collector) SetActiveSessions(n int) {
	if c == nil {
		return
	}
	c.ActiveSessions.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
