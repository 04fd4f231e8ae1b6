package backend

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	BreakerState       *prometheus.GaugeVec   // Состояние breaker (0=closed, 1=half-open, 2=open)
	BreakerTransitions *prometheus.CounterVec // Переходы между состояниями
	RequestsTotal      *prometheus.CounterVec // Вызовы внешних сервисов по результату
}

// NewMetrics создает метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "idocgw_backend_breaker_state",
				Help: "Current state of a circuit breaker (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		BreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idocgw_backend_breaker_transitions_total",
				Help: "Total number of circuit breaker state transitions",
			},
			[]string{"name", "from", "to"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idocgw_backend_requests_total",
				Help: "Total number of calls to external services",
			},
			[]string{"client", "operation", "result"},
		),
	}
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

// DefaultMetrics возвращает метрики из default registry
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}
