package apigw

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"idocgw/auth"
	"idocgw/ingest"
	"idocgw/logger"
)

// Gateway представляет модуль API Gateway: авторизатор перед загрузкой документов
type Gateway struct {
	config         Config
	authorizer     Authorizer
	ingest         IngestHandler
	parser         *RequestParser
	responseWriter *ResponseWriter
	server         *http.Server
	metrics        *Metrics
}

// Option настраивает Gateway
type Option func(*Gateway)

// WithMetrics задает метрики шлюза
func WithMetrics(m *Metrics) Option {
	return func(gw *Gateway) {
		gw.metrics = m
	}
}

// New создает новый экземпляр API Gateway
func New(config Config, authorizer Authorizer, handler IngestHandler, opts ...Option) (*Gateway, error) {
	if authorizer == nil {
		return nil, fmt.Errorf("authorizer cannot be nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("ingest handler cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}

	gw := &Gateway{
		config:         config,
		authorizer:     authorizer,
		ingest:         handler,
		parser:         NewRequestParser(config),
		responseWriter: NewResponseWriter(),
	}
	for _, opt := range opts {
		opt(gw)
	}
	if gw.metrics == nil {
		gw.metrics = DefaultMetrics()
	}
	return gw, nil
}

// ServeHTTP реализует интерфейс http.Handler
func (gw *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.Info("Incoming request: %s %s", r.Method, r.URL.Path)

	route := UnsupportedRoute
	var resp *GatewayResponse

	greq, err := gw.parser.Parse(r)
	if err != nil {
		logger.Warn("Failed to parse request: %v", err)
		resp = ErrorResponse(err)
	} else {
		route = greq.Route
		switch greq.Route {
		case AuthorizeRoute:
			resp = gw.handleAuthorize(greq)
		case UploadRoute:
			resp = gw.handleUpload(greq)
		}
		if resp.Headers == nil {
			resp.Headers = http.Header{}
		}
		resp.Headers.Set(HeaderRequestID, greq.RequestID)
	}

	if err := gw.responseWriter.WriteResponse(w, resp); err != nil {
		logger.Error("Failed to write response: %v", err)
	}

	logger.Info("Response sent: %d, %.3f ms", resp.StatusCode, float64(time.Since(start).Microseconds())/1000.0)
	gw.metrics.RequestsTotal.WithLabelValues(route.String(), strconv.Itoa(resp.StatusCode)).Inc()
	gw.metrics.RequestLatency.WithLabelValues(route.String()).Observe(time.Since(start).Seconds())
}

// handleAuthorize принимает событие авторизатора и возвращает решение или 401
func (gw *Gateway) handleAuthorize(greq *GatewayRequest) *GatewayResponse {
	var event auth.Request
	if err := json.Unmarshal(greq.Body, &event); err != nil {
		logger.Warn("Request %s: invalid authorizer event: %v", greq.RequestID, err)
		return unauthorized()
	}

	decision, err := gw.authorizer.Authorize(greq.Context, &event)
	if err != nil || decision == nil {
		return unauthorized()
	}
	return JSONResponse(http.StatusOK, decision)
}

// handleUpload авторизует вызов и передает тело обработчику загрузки.
// Решение должно явно разрешать ARN этого вызова.
func (gw *Gateway) handleUpload(greq *GatewayRequest) *GatewayResponse {
	resource := gw.config.ResourceFor(greq.Method, greq.Path)

	decision, err := gw.authorizer.Authorize(greq.Context, &auth.Request{
		Headers:   greq.Headers,
		Query:     greq.Query,
		MethodArn: resource,
	})
	if err != nil || !decision.Allows(resource) {
		logger.Info("Request %s denied for %s", greq.RequestID, resource)
		return unauthorized()
	}

	resp := gw.ingest.Handle(greq.Context, &ingest.Request{
		Query:     greq.Query,
		RequestID: greq.RequestID,
		Body:      greq.Body,
	})
	return &GatewayResponse{StatusCode: resp.StatusCode, Body: []byte(resp.Body)}
}

func unauthorized() *GatewayResponse {
	return MessageResponse(http.StatusUnauthorized, auth.ErrUnauthorized.Error())
}

// Start запускает сервер
func (gw *Gateway) Start() error {
	gw.server = &http.Server{
		Addr:         gw.config.ListenAddress,
		Handler:      gw,
		ReadTimeout:  gw.config.ReadTimeout,
		WriteTimeout: gw.config.WriteTimeout,
	}

	logger.Info("Starting API Gateway on %s", gw.config.ListenAddress)

	// Проверяем, нужно ли использовать TLS
	if gw.config.TLSCertFile != "" && gw.config.TLSKeyFile != "" {
		logger.Info("Starting HTTPS server with TLS")
		return gw.server.ListenAndServeTLS(gw.config.TLSCertFile, gw.config.TLSKeyFile)
	}

	logger.Info("Starting HTTP server")
	return gw.server.ListenAndServe()
}

// Stop останавливает сервер
func (gw *Gateway) Stop(ctx context.Context) error {
	if gw.server == nil {
		return nil
	}

	logger.Info("Stopping API Gateway...")
	return gw.server.Shutdown(ctx)
}
