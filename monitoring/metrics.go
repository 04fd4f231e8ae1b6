package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics - метрики процесса и готовности. Метрики предметных модулей
// определяются в самих модулях.
type Metrics struct {
	// Системные метрики
	Goroutines  prometheus.Gauge // Количество горутин
	MemoryUsage prometheus.Gauge // Использование памяти (heap)

	// Ready - 1, если сервис готов принимать запросы
	Ready prometheus.Gauge
}

// NewMetrics создает метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Goroutines: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "idocgw_goroutines",
				Help: "Number of goroutines",
			},
		),
		MemoryUsage: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "idocgw_memory_usage_bytes",
				Help: "Current heap memory usage in bytes",
			},
		),
		Ready: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "idocgw_ready",
				Help: "Whether the service reports ready (1) or not (0)",
			},
		),
	}
}
