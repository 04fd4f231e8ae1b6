package apigw

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"idocgw/logger"
)

// HeaderRequestID - заголовок с идентификатором корреляции
const HeaderRequestID = "X-Request-Id"

const contentTypeJSON = "application/json"

// ResponseWriter отвечает за формирование HTTP ответов из GatewayResponse
type ResponseWriter struct{}

// NewResponseWriter создает новый экземпляр writer'а ответов
func NewResponseWriter() *ResponseWriter {
	return &ResponseWriter{}
}

// WriteResponse записывает GatewayResponse в http.ResponseWriter
func (rw *ResponseWriter) WriteResponse(w http.ResponseWriter, resp *GatewayResponse) error {
	logger.Debug("Writing response: status=%d, body=%d bytes", resp.StatusCode, len(resp.Body))

	for key, values := range resp.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", contentTypeJSON)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))

	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) == 0 {
		return nil
	}

	_, err := w.Write(resp.Body)
	if err != nil {
		logger.Debug("Error writing response body: %v", err)
	}
	return err
}

// JSONResponse сериализует v в тело ответа
func JSONResponse(status int, v any) *GatewayResponse {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal response: %v", err)
		return MessageResponse(http.StatusInternalServerError, "Internal server error")
	}
	return &GatewayResponse{StatusCode: status, Body: body}
}

// MessageResponse формирует ответ вида {"message": "..."}
func MessageResponse(status int, message string) *GatewayResponse {
	return JSONResponse(status, struct {
		Message string `json:"message"`
	}{Message: message})
}

// ErrorResponse сопоставляет ошибку парсинга с HTTP статусом
func ErrorResponse(err error) *GatewayResponse {
	switch {
	case errors.Is(err, ErrUnsupportedRoute):
		return MessageResponse(http.StatusNotFound, "Not Found")
	case errors.Is(err, ErrMethodNotAllowed):
		return MessageResponse(http.StatusMethodNotAllowed, "Method Not Allowed")
	case errors.Is(err, ErrBodyTooLarge):
		return MessageResponse(http.StatusRequestEntityTooLarge, "Request Entity Too Large")
	default:
		return MessageResponse(http.StatusBadRequest, "Bad Request")
	}
}
