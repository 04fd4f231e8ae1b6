package apigw

import (
	"context"
	"net/http"

	"idocgw/auth"
	"idocgw/ingest"
)

// Route определяет маршрут шлюза
type Route int

const (
	UnsupportedRoute Route = iota
	// AuthorizeRoute - прямой вызов авторизатора событием вида REQUEST authorizer
	AuthorizeRoute
	// UploadRoute - защищенная загрузка документа
	UploadRoute
)

// String возвращает строковое представление маршрута
func (r Route) String() string {
	switch r {
	case AuthorizeRoute:
		return "authorize"
	case UploadRoute:
		return "upload"
	default:
		return "unsupported"
	}
}

// GatewayRequest - внутреннее представление входящего запроса.
// Создается RequestParser из http.Request.
type GatewayRequest struct {
	Route  Route
	Method string
	Path   string

	// RequestID - идентификатор корреляции, выданный шлюзом
	RequestID string

	// Headers - первое значение каждого заголовка. Ключ хранится как пришел
	// и дополнительно в нижнем регистре.
	Headers map[string]string

	// Query - первое значение каждого query-параметра
	Query map[string]string

	// Body - тело запроса, прочитанное с ограничением размера
	Body []byte

	// Context - контекст исходного запроса для таймаутов и отмены
	Context context.Context
}

// GatewayResponse - ответ, который шлюз отправляет клиенту
type GatewayResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Authorizer принимает решение по запросу. Любая ошибка означает отказ.
type Authorizer interface {
	Authorize(ctx context.Context, req *auth.Request) (*auth.Decision, error)
}

// IngestHandler сохраняет документ и формирует ответ
type IngestHandler interface {
	Handle(ctx context.Context, req *ingest.Request) *ingest.Response
}
