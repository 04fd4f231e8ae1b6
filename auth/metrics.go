package auth

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Стадии конвейера для меток метрик
const (
	StagePrimary  = "primary"
	StageFallback = "fallback"
)

type Metrics struct {
	DecisionsTotal *prometheus.CounterVec   // Итоговые решения по причинам
	AttemptsTotal  *prometheus.CounterVec   // Попытки аутентификации по стадиям
	StageLatency   *prometheus.HistogramVec // Латентность стадий
}

// NewMetrics создает метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DecisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idocgw_auth_decisions_total",
				Help: "Total number of authorization decisions",
			},
			[]string{"effect", "reason"}, // allow/deny, primary/fallback/<failure kind>
		),
		AttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idocgw_auth_attempts_total",
				Help: "Total number of authentication attempts per stage",
			},
			[]string{"stage", "result"},
		),
		StageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "idocgw_auth_stage_latency_seconds",
				Help:    "Latency of authentication stages in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"stage"},
		),
	}
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

// DefaultMetrics возвращает метрики, зарегистрированные в default registry.
// Создаются один раз на процесс.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}
