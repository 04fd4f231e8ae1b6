package apigw

import (
	"fmt"
	"strings"
	"time"
)

// Config содержит конфигурацию для API Gateway
type Config struct {
	// ListenAddress - адрес и порт для прослушивания (например, ":9000")
	ListenAddress string

	// TLSCertFile - путь к файлу SSL-сертификата (опционально, для включения HTTPS)
	TLSCertFile string

	// TLSKeyFile - путь к файлу приватного ключа SSL (опционально)
	TLSKeyFile string

	// ReadTimeout - таймаут на чтение всего запроса, включая тело
	ReadTimeout time.Duration

	// WriteTimeout - таймаут на запись всего ответа
	WriteTimeout time.Duration

	// AuthorizePath - путь прямого вызова авторизатора
	AuthorizePath string

	// UploadPath - путь загрузки документов
	UploadPath string

	// ResourcePrefix - начало ARN ресурса: arn:aws:execute-api:<region>:<account>:<api>/<stage>
	ResourcePrefix string

	// MaxBodyBytes - максимальный размер тела запроса
	MaxBodyBytes int64
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		ListenAddress:  ":9000",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		AuthorizePath:  "/authorize",
		UploadPath:     "/idoc",
		ResourcePrefix: "arn:aws:execute-api:eu-central-1:000000000000:idocgw/prod",
		MaxBodyBytes:   10 * 1024 * 1024,
	}
}

// Validate проверяет маршруты и ограничения
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.AuthorizePath, "/") {
		return fmt.Errorf("authorize_path must start with '/'")
	}

	if !strings.HasPrefix(c.UploadPath, "/") {
		return fmt.Errorf("upload_path must start with '/'")
	}

	if c.AuthorizePath == c.UploadPath {
		return fmt.Errorf("authorize_path and upload_path must differ")
	}

	if c.ResourcePrefix == "" {
		return fmt.Errorf("resource_prefix cannot be empty")
	}

	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}

	return nil
}

// ResourceFor строит ARN вызываемого метода: <prefix>/<METHOD><path>
func (c *Config) ResourceFor(method, path string) string {
	return strings.TrimSuffix(c.ResourcePrefix, "/") + "/" + strings.ToUpper(method) + path
}
