package apigw

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Общие метрики запросов
	RequestsTotal  *prometheus.CounterVec   // Общее количество обработанных запросов
	RequestLatency *prometheus.HistogramVec // Латентность запросов
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idocgw_apigw_requests_total",
				Help: "Total number of processed gateway requests",
			},
			[]string{"route", "code"},
		),
		RequestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "idocgw_apigw_request_latency_seconds",
				Help:    "Latency of gateway requests in seconds",
				Buckets: prometheus.DefBuckets, // Стандартные бакеты времени
			},
			[]string{"route"},
		),
	}
}

var (
	defaultMetricsOnce sync.Once
	defaultMetrics     *Metrics
)

func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}
