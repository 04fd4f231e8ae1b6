package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Handler - обработчик загрузки: проверка параметров -> запись -> ответ.
// На каждый вызов возвращается ровно один ответ.
type Handler struct {
	store   ObjectStore
	config  *Config
	metrics *Metrics
}

// Option настраивает Handler
type Option func(*Handler)

// WithMetrics задает метрики обработчика
func WithMetrics(m *Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// NewHandler создает обработчик загрузки
func NewHandler(store ObjectStore, config *Config, opts ...Option) (*Handler, error) {
	if store == nil {
		return nil, fmt.Errorf("object store cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	h := &Handler{store: store, config: config}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = DefaultMetrics()
	}
	return h, nil
}

// Handle сохраняет тело запроса в бакет bn под ключом-идентификатором запроса
func (h *Handler) Handle(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Execution error: %v", r)
			resp = newResponse(http.StatusBadRequest, fmt.Sprint(r))
		}
		h.metrics.RequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	}()

	if req == nil {
		log.Warn("Request context is empty")
		return newResponse(http.StatusBadRequest, MessageMissingContext)
	}

	bucket := req.Query[QueryBucket]
	if bucket == "" {
		log.Warn("S3 bucket not provided in the request: %v", req.Query)
		return newResponse(http.StatusBadRequest, MessageMissingBucket)
	}

	if req.RequestID == "" {
		log.Warn("Request id for the file name is empty")
		return newResponse(http.StatusBadRequest, MessageMissingRequestID)
	}

	obj := StorageObject{
		Bucket:      bucket,
		Key:         req.RequestID,
		Body:        req.Body,
		ContentType: h.config.ContentType,
	}

	result, err := h.put(ctx, obj)
	if err != nil {
		log.Error("Error in uploading data to bucket %s: %v", bucket, err)
		return newResponse(http.StatusBadRequest, marshalMessage(NewProviderError(unwrapStorageError(err))))
	}

	log.Info("File %s successfully stored in bucket %s (%d bytes)", obj.Key, obj.Bucket, len(obj.Body))
	h.metrics.BytesTotal.Add(float64(len(obj.Body)))
	return newResponse(http.StatusOK, marshalMessage(result))
}

func (h *Handler) put(ctx context.Context, obj StorageObject) (*UploadResult, error) {
	start := time.Now()
	writeCtx, cancel := context.WithTimeout(ctx, h.config.WriteTimeout)
	defer cancel()
	defer func() {
		h.metrics.WriteLatency.Observe(time.Since(start).Seconds())
	}()

	result, err := h.store.Put(writeCtx, obj)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: empty result", ErrStorageWriteFailed)
	}
	return result, nil
}

// unwrapStorageError снимает обертку ErrStorageWriteFailed, чтобы в ответ
// попала ошибка провайдера
func unwrapStorageError(err error) error {
	if !errors.Is(err, ErrStorageWriteFailed) {
		return err
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if e != ErrStorageWriteFailed {
				return e
			}
		}
	}
	return err
}

// marshalMessage сериализует значение в JSON строку для поля message
func marshalMessage(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func newResponse(status int, message string) *Response {
	body, _ := json.Marshal(struct {
		Message string `json:"message"`
	}{Message: message})
	return &Response{StatusCode: status, Body: string(body)}
}
