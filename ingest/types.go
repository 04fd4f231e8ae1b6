package ingest

import (
	"context"
	"errors"

	"idocgw/logger"
)

var log = logger.Global().Named("ingest")

// QueryBucket - query-параметр с именем бакета
const QueryBucket = "bn"

// ContentTypeXML - тип содержимого документов
const ContentTypeXML = "text/xml"

// Тексты ответов об ошибках валидации
const (
	MessageMissingBucket    = "S3 bucket not provided in the request. Hence can't store the data to S3"
	MessageMissingContext   = "Request Context cannot be empty. Need the request ID for the file name"
	MessageMissingRequestID = "File name cannot be empty. File name is obtained from the request id. Hence can't store the data to S3"
)

var (
	ErrMissingBucket      = errors.New("bucket not provided")
	ErrMissingRequestID   = errors.New("request id is empty")
	ErrStorageWriteFailed = errors.New("storage write failed")
)

// StorageObject - один документ для записи. Ключ - идентификатор запроса,
// повторный запрос с тем же идентификатором перезаписывает объект.
type StorageObject struct {
	Bucket      string
	Key         string
	Body        []byte
	ContentType string
}

// Request - вход обработчика: query-параметры, идентификатор запроса от шлюза и тело
type Request struct {
	Query     map[string]string
	RequestID string
	Body      []byte
}

// Response - HTTP-ответ обработчика. Body всегда JSON вида {"message": "..."}.
type Response struct {
	StatusCode int
	Body       string
}

// UploadResult - ответ хранилища на успешную запись
type UploadResult struct {
	Location  string `json:"Location"`
	ETag      string `json:"ETag,omitempty"`
	Bucket    string `json:"Bucket"`
	Key       string `json:"Key"`
	VersionID string `json:"VersionId,omitempty"`
}

// ObjectStore записывает документ в хранилище
type ObjectStore interface {
	Put(ctx context.Context, obj StorageObject) (*UploadResult, error)
}
