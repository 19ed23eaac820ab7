package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the record engine.
type Metrics struct {
	UsersRegistered   prometheus.Counter
	LotsProduced      prometheus.Counter
	TokensMinted      *prometheus.CounterVec
	StateTransitions  *prometheus.CounterVec
	SettlementsTotal  *prometheus.CounterVec
	RequestDurationMs *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hilo_users_registered_total",
			Help: "Total number of accounts registered",
		}),
		LotsProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hilo_raw_material_lots_total",
			Help: "Total number of raw material lots minted",
		}),
		TokensMinted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hilo_tokens_minted_total",
			Help: "Total number of tokens minted, by registry",
		}, []string{"registry"}),
		StateTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hilo_state_transitions_total",
			Help: "Committed lifecycle transitions, by registry and target state",
		}, []string{"registry", "to"}),
		SettlementsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hilo_settlements_total",
			Help: "Marketplace settlement attempts, by outcome",
		}, []string{"outcome"}),
		RequestDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hilo_http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"method", "path", "status"}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(method, path, status string, d time.Duration) {
	m.RequestDurationMs.WithLabelValues(method, path, status).
		Observe(float64(d.Milliseconds()))
}
