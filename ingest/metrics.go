package ingest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsTotal *prometheus.CounterVec // Ответы обработчика по коду
	BytesTotal    prometheus.Counter     // Записанные в хранилище байты
	WriteLatency  prometheus.Histogram   // Латентность записи
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idocgw_ingest_requests_total",
				Help: "Total number of ingestion responses by status code",
			},
			[]string{"code"},
		),
		BytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "idocgw_ingest_bytes_total",
				Help: "Total number of bytes written to storage",
			},
		),
		WriteLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "idocgw_ingest_write_latency_seconds",
				Help:    "Latency of storage writes in seconds",
				Buckets: prometheus.DefBuckets,
			},
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
