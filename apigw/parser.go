package apigw

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"idocgw/logger"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedRoute = errors.New("unsupported route")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrBodyTooLarge     = errors.New("request body too large")
)

// RequestParser отвечает за парсинг HTTP запросов в GatewayRequest
type RequestParser struct {
	authorizePath string
	uploadPath    string
	maxBodyBytes  int64
}

// NewRequestParser создает новый экземпляр парсера
func NewRequestParser(config Config) *RequestParser {
	return &RequestParser{
		authorizePath: config.AuthorizePath,
		uploadPath:    config.UploadPath,
		maxBodyBytes:  config.MaxBodyBytes,
	}
}

// Parse анализирует HTTP запрос и создает GatewayRequest
func (p *RequestParser) Parse(r *http.Request) (*GatewayRequest, error) {
	logger.Debug("Parsing HTTP request: %s %s", r.Method, r.URL.Path)

	route, err := p.determineRoute(r.Method, r.URL.Path)
	if err != nil {
		return nil, err
	}

	requestID, err := newRequestID()
	if err != nil {
		return nil, fmt.Errorf("failed to issue request id: %w", err)
	}

	greq := &GatewayRequest{
		Route:     route,
		Method:    r.Method,
		Path:      r.URL.Path,
		RequestID: requestID,
		Headers:   flattenHeaders(r.Header),
		Query:     flattenQuery(r.URL.Query()),
		Context:   r.Context(),
	}

	body, err := p.readBody(r.Body)
	if err != nil {
		return nil, err
	}
	greq.Body = body

	logger.Debug("Parsed request %s: route=%s, body=%d bytes", greq.RequestID, greq.Route, len(greq.Body))
	return greq, nil
}

// determineRoute определяет маршрут по методу и пути
func (p *RequestParser) determineRoute(method, path string) (Route, error) {
	switch path {
	case p.authorizePath:
		if method != http.MethodPost {
			return UnsupportedRoute, fmt.Errorf("%w: %s %s", ErrMethodNotAllowed, method, path)
		}
		return AuthorizeRoute, nil
	case p.uploadPath:
		if method != http.MethodPost && method != http.MethodPut {
			return UnsupportedRoute, fmt.Errorf("%w: %s %s", ErrMethodNotAllowed, method, path)
		}
		return UploadRoute, nil
	default:
		return UnsupportedRoute, fmt.Errorf("%w: %s", ErrUnsupportedRoute, path)
	}
}

// readBody читает тело не больше maxBodyBytes
func (p *RequestParser) readBody(body io.ReadCloser) ([]byte, error) {
	if body == nil || body == http.NoBody {
		return nil, nil
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, p.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if int64(len(data)) > p.maxBodyBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, p.maxBodyBytes)
	}
	return data, nil
}

// newRequestID выдает идентификатор корреляции. UUIDv7 упорядочен по времени,
// поэтому ключи объектов в бакете сортируются по времени поступления.
func newRequestID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func flattenHeaders(header http.Header) map[string]string {
	headers := make(map[string]string, len(header)*2)
	for key, values := range header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
		lower := strings.ToLower(key)
		if _, exists := headers[lower]; !exists || lower == key {
			headers[lower] = values[0]
		}
	}
	return headers
}

func flattenQuery(query map[string][]string) map[string]string {
	params := make(map[string]string, len(query))
	for key, values := range query {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}
