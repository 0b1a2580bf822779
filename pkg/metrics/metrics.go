package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "position_manager"

// Indicators records deposit flow activity
type Indicators interface {
	IncrementApprovalsTotal(symbol string, state string)
	IncrementCommitsTotal(state string)
	ObserveCommitLatencyMs(latencyMs int64)
	IncrementInFlight()
	DecrementInFlight()
}

// PromIndicators exports flow activity to prometheus
type PromIndicators struct {
	approvalsTotal  *prometheus.CounterVec
	commitsTotal    *prometheus.CounterVec
	commitLatencyMs prometheus.Summary
	inFlight        prometheus.Gauge
}

var _ Indicators = (*PromIndicators)(nil)

// NewPromIndicators registers the flow collectors on reg
func NewPromIndicators(reg prometheus.Registerer, subsystem string) *PromIndicators {
	return &PromIndicators{
		approvalsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "approvals_total",
				Help:      "number of token approval requests by token and result",
			},
			[]string{"symbol", "state"},
		),
		commitsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "commits_total",
				Help:      "number of deposit transactions by result",
			},
			[]string{"state"},
		),
		commitLatencyMs: promauto.With(reg).NewSummary(
			prometheus.SummaryOpts{
				Namespace:  namespace,
				Subsystem:  subsystem,
				Name:       "commit_latency_ms",
				Help:       "deposit submission to confirmation latency in milliseconds",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
		),
		inFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "in_flight_requests",
				Help:      "number of approval or deposit transactions awaiting confirmation",
			},
		),
	}
}

func (p *PromIndicators) IncrementApprovalsTotal(symbol string, state string) {
	p.approvalsTotal.WithLabelValues(symbol, state).Inc()
}

func (p *PromIndicators) IncrementCommitsTotal(state string) {
	p.commitsTotal.WithLabelValues(state).Inc()
}

func (p *PromIndicators) ObserveCommitLatencyMs(latencyMs int64) {
	p.commitLatencyMs.Observe(float64(latencyMs))
}

func (p *PromIndicators) IncrementInFlight() {
	p.inFlight.Inc()
}

func (p *PromIndicators) DecrementInFlight() {
	p.inFlight.Dec()
}

// NoopIndicators discards everything
type NoopIndicators struct{}

var _ Indicators = NoopIndicators{}

func (NoopIndicators) IncrementApprovalsTotal(string, string) {}
func (NoopIndicators) IncrementCommitsTotal(string)           {}
func (NoopIndicators) ObserveCommitLatencyMs(int64)           {}
func (NoopIndicators) IncrementInFlight()                     {}
func (NoopIndicators) DecrementInFlight()                     {}
