package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"idocgw/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker сообщает, может ли сервис обслуживать запросы.
// Ошибка означает "не готов".
type ReadinessChecker interface {
	Ready() error
}

// ReadinessFunc позволяет использовать функцию как ReadinessChecker
type ReadinessFunc func() error

func (f ReadinessFunc) Ready() error {
	return f()
}

// Server представляет HTTP сервер для экспорта метрик Prometheus
type Server struct {
	config       *Config
	server       *http.Server
	gatherer     prometheus.Gatherer
	readiness    ReadinessChecker
	metrics      *Metrics
	shuttingDown atomic.Bool

	// Канал для остановки сбора системных метрик
	stopSystemMetrics chan struct{}
	stopOnce          sync.Once
}

// NewServer создает новый сервер метрик. readiness может быть nil.
func NewServer(config *Config, gatherer prometheus.Gatherer, readiness ReadinessChecker, metrics *Metrics) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	return &Server{
		config:            config,
		gatherer:          gatherer,
		readiness:         readiness,
		metrics:           metrics,
		stopSystemMetrics: make(chan struct{}),
	}
}

// Handler возвращает мультиплексор с метриками и health check эндпоинтами
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health/live", s.liveHealthHandler)
	mux.HandleFunc("/health/ready", s.readyHealthHandler)
	return mux
}

// Start запускает HTTP сервер для метрик
func (s *Server) Start() error {
	if !s.config.Enabled {
		logger.Info("Monitoring is disabled, skipping metrics server start")
		return nil
	}

	logger.Info("Starting metrics server on %s", s.config.ListenAddress)

	s.server = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	if s.config.EnableSystemMetrics {
		go s.collectSystemMetrics()
	}

	// Запускаем сервер в отдельной горутине
	go func() {
		logger.Info("Metrics server listening on %s%s", s.config.ListenAddress, s.config.MetricsPath)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed: %v", err)
		}
	}()

	return nil
}

// SetShuttingDown переводит /health/ready в 503 до остановки процесса
func (s *Server) SetShuttingDown() {
	s.shuttingDown.Store(true)
	s.metrics.Ready.Set(0)
}

// Stop останавливает HTTP сервер метрик
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopSystemMetrics)
	})

	if !s.config.Enabled || s.server == nil {
		return nil
	}

	logger.Info("Stopping metrics server...")
	return s.server.Shutdown(ctx)
}

// collectSystemMetrics периодически обновляет метрики процесса
func (s *Server) collectSystemMetrics() {
	ticker := time.NewTicker(s.config.SystemMetricsInterval)
	defer ticker.Stop()

	s.sampleSystemMetrics()
	for {
		select {
		case <-ticker.C:
			s.sampleSystemMetrics()
		case <-s.stopSystemMetrics:
			logger.Debug("System metrics collection stopped")
			return
		}
	}
}

func (s *Server) sampleSystemMetrics() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	s.metrics.MemoryUsage.Set(float64(mem.HeapAlloc))
	s.metrics.Goroutines.Set(float64(runtime.NumGoroutine()))
}

// liveHealthHandler обрабатывает запросы /health/live
func (s *Server) liveHealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok"}`)
}

// readyHealthHandler обрабатывает запросы /health/ready
func (s *Server) readyHealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Проверяем, не находимся ли мы в состоянии graceful shutdown
	if s.shuttingDown.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, `{"status":"shutting down"}`)
		return
	}

	// Разомкнутый breaker означает, что авторизатор сейчас только отказывает
	if s.readiness != nil {
		if err := s.readiness.Ready(); err != nil {
			logger.Debug("Readiness check failed: %v", err)
			s.metrics.Ready.Set(0)
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"not ready"}`)
			return
		}
	}

	s.metrics.Ready.Set(1)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok"}`)
}
