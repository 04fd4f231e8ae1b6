package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"idocgw/apigw"
	"idocgw/auth"
	"idocgw/backend"
	"idocgw/ingest"
	"idocgw/logger"
	"idocgw/monitoring"
)

func main() {
	// Парсим аргументы командной строки
	var (
		configFile      = flag.String("config", "", "Configuration file path (YAML)")
		listenAddr      = flag.String("listen", "", "Listen address (overrides config)")
		tlsCert         = flag.String("tls-cert", "", "TLS certificate file (overrides config)")
		tlsKey          = flag.String("tls-key", "", "TLS key file (overrides config)")
		readTimeout     = flag.Duration("read-timeout", 0, "Read timeout (overrides config)")
		writeTimeout    = flag.Duration("write-timeout", 0, "Write timeout (overrides config)")
		useMock         = flag.Bool("mock", false, "Store documents in memory instead of S3 (overrides config)")
		logLevel        = flag.String("log-level", "", "Log level (debug, info, warn, error) (overrides config)")
		metricsAddr     = flag.String("metrics-listen", "", "Metrics server listen address (overrides config)")
		disableMetrics  = flag.Bool("disable-metrics", false, "Disable metrics collection (overrides config)")
		disableFallback = flag.Bool("disable-fallback", false, "Disable storage probe fallback (overrides config)")
		printConfig     = flag.String("write-default-config", "", "Write default configuration to file and exit")
	)
	flag.Parse()

	if *printConfig != "" {
		if err := DefaultAppConfig().SaveConfig(*printConfig); err != nil {
			log.Fatalf("Failed to write default configuration: %v", err)
		}
		return
	}

	if *configFile == "" {
		logger.Error("Config file not provided or incorrect. Exiting.")
		os.Exit(1)
	}

	logger.Info("Loading configuration from file: %s", *configFile)
	config, err := LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Info("Configuration loaded successfully")

	applyCommandLineOverrides(config, overrides{
		listenAddr:      *listenAddr,
		tlsCert:         *tlsCert,
		tlsKey:          *tlsKey,
		readTimeout:     *readTimeout,
		writeTimeout:    *writeTimeout,
		useMock:         *useMock,
		logLevel:        *logLevel,
		metricsAddr:     *metricsAddr,
		disableMetrics:  *disableMetrics,
		disableFallback: *disableFallback,
	})
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration after overrides: %v", err)
	}

	level := logger.ParseLogLevel(config.Logging.Level)
	logger.SetGlobalLevel(level)

	logger.Info("IDoc gateway starting...")
	logger.Info("Log level: %s", level.String())

	app, err := buildApp(context.Background(), config)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	if err := app.monitor.Start(); err != nil {
		log.Fatalf("Failed to start monitoring module: %v", err)
	}

	gatewayConfig := config.ToAPIGatewayConfig()
	logger.Info("Configuration:")
	logger.Info("  Listen Address: %s", gatewayConfig.ListenAddress)
	logger.Info("  Authorize Path: %s", gatewayConfig.AuthorizePath)
	logger.Info("  Upload Path: %s", gatewayConfig.UploadPath)
	logger.Info("  Fallback Enabled: %v", config.Auth.FallbackEnabled)
	if gatewayConfig.TLSCertFile != "" {
		logger.Info("  TLS Enabled: Yes")
		logger.Info("  TLS Cert: %s", gatewayConfig.TLSCertFile)
		logger.Info("  TLS Key: %s", gatewayConfig.TLSKeyFile)
	} else {
		logger.Info("  TLS Enabled: No")
	}

	// Настраиваем graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := app.gateway.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	logger.Info("IDoc gateway started successfully")
	if app.monitor.IsEnabled() {
		logger.Info("Metrics available at: %s%s", config.Monitoring.ListenAddress, config.Monitoring.MetricsPath)
	}

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, shutting down...", sig)
	case err := <-serverErr:
		logger.Error("API Gateway failed: %v", err)
	}

	// Сначала readiness уходит в 503, чтобы балансировщик перестал слать запросы
	app.monitor.SetShuttingDown()
	if drain := config.Monitoring.ShutdownDrainPeriod; drain > 0 && app.monitor.IsEnabled() {
		logger.Info("Draining for %v before stopping gateway", drain)
		time.Sleep(drain)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.gateway.Stop(ctx); err != nil {
		logger.Error("Error stopping API Gateway: %v", err)
	}

	if err := app.monitor.Stop(ctx); err != nil {
		logger.Error("Error stopping monitoring: %v", err)
	}

	logger.Info("IDoc gateway stopped")
}

// app - собранные компоненты процесса
type app struct {
	breakers   *backend.Breakers
	authorizer *auth.Authorizer
	ingest     *ingest.Handler
	gateway    *apigw.Gateway
	monitor    *monitoring.Monitor
}

// buildApp создает клиенты и компоненты один раз при старте процесса
func buildApp(ctx context.Context, config *AppConfig) (*app, error) {
	awsConfig, err := backend.NewAWSConfig(ctx, &config.Backend)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	breakers, err := backend.NewBreakers(config.Backend.Breaker, backend.DefaultMetrics())
	if err != nil {
		return nil, fmt.Errorf("circuit breakers: %w", err)
	}

	identity, err := auth.NewCognitoAuthenticator(
		breakers.IdentityProvider(backend.NewIdentityProviderClient(awsConfig, &config.Backend)))
	if err != nil {
		return nil, fmt.Errorf("identity authenticator: %w", err)
	}

	var probe auth.CredentialProbe
	if config.Auth.FallbackEnabled {
		s3Probe, err := auth.NewS3Probe(
			breakers.ProbeFactory(backend.NewProbeClientFactory(awsConfig, &config.Backend)))
		if err != nil {
			return nil, fmt.Errorf("storage probe: %w", err)
		}
		probe = s3Probe
	}

	authorizer, err := auth.NewAuthorizer(identity, probe, &config.Auth)
	if err != nil {
		return nil, fmt.Errorf("authorizer: %w", err)
	}

	var store ingest.ObjectStore
	if config.Server.UseMock {
		logger.Warn("Using in-memory object store, documents are not persisted")
		store = ingest.NewMemoryStore()
	} else {
		s3Store, err := ingest.NewS3Store(backend.NewStorageClient(awsConfig, &config.Backend), &config.Ingest)
		if err != nil {
			return nil, fmt.Errorf("object store: %w", err)
		}
		store = s3Store
	}

	handler, err := ingest.NewHandler(store, &config.Ingest)
	if err != nil {
		return nil, fmt.Errorf("ingest handler: %w", err)
	}

	gateway, err := apigw.New(config.ToAPIGatewayConfig(), authorizer, handler)
	if err != nil {
		return nil, fmt.Errorf("api gateway: %w", err)
	}

	monitor, err := monitoring.New(&config.Monitoring, breakers)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}

	return &app{
		breakers:   breakers,
		authorizer: authorizer,
		ingest:     handler,
		gateway:    gateway,
		monitor:    monitor,
	}, nil
}

// overrides - значения флагов командной строки
type overrides struct {
	listenAddr, tlsCert, tlsKey string
	readTimeout, writeTimeout   time.Duration
	useMock                     bool
	logLevel, metricsAddr       string
	disableMetrics              bool
	disableFallback             bool
}

// applyCommandLineOverrides применяет переопределения из командной строки
func applyCommandLineOverrides(config *AppConfig, o overrides) {
	// Переопределения сервера
	if o.listenAddr != "" {
		config.Server.ListenAddress = o.listenAddr
		logger.Debug("Override: server.listen_address = %s", o.listenAddr)
	}

	if o.tlsCert != "" {
		config.Server.TLSCertFile = o.tlsCert
		logger.Debug("Override: server.tls_cert_file = %s", o.tlsCert)
	}

	if o.tlsKey != "" {
		config.Server.TLSKeyFile = o.tlsKey
		logger.Debug("Override: server.tls_key_file = %s", o.tlsKey)
	}

	if o.readTimeout > 0 {
		config.Server.ReadTimeout = o.readTimeout
		logger.Debug("Override: server.read_timeout = %v", o.readTimeout)
	}

	if o.writeTimeout > 0 {
		config.Server.WriteTimeout = o.writeTimeout
		logger.Debug("Override: server.write_timeout = %v", o.writeTimeout)
	}

	if o.useMock {
		config.Server.UseMock = true
		logger.Debug("Override: server.use_mock = true")
	}

	// Переопределения логирования
	if o.logLevel != "" {
		config.Logging.Level = o.logLevel
		logger.Debug("Override: logging.level = %s", o.logLevel)
	}

	// Переопределения мониторинга
	if o.metricsAddr != "" {
		config.Monitoring.ListenAddress = o.metricsAddr
		logger.Debug("Override: monitoring.listen_address = %s", o.metricsAddr)
	}

	if o.disableMetrics {
		config.Monitoring.Enabled = false
		logger.Debug("Override: monitoring.enabled = false")
	}

	if o.disableFallback {
		config.Auth.FallbackEnabled = false
		logger.Debug("Override: auth.fallback_enabled = false")
	}
}
