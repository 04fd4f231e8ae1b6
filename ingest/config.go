package ingest

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
)

// Config содержит конфигурацию обработчика загрузки документов
type Config struct {
	// WriteTimeout - ограничение на одну запись в хранилище
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxBodyBytes - максимальный размер тела запроса (проверяется шлюзом)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// PartSize - размер части при multipart загрузке
	PartSize int64 `yaml:"part_size"`

	// ContentType - тип содержимого записываемых объектов
	ContentType string `yaml:"content_type"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		WriteTimeout: 30 * time.Second,
		MaxBodyBytes: 10 * 1024 * 1024,
		PartSize:     manager.DefaultUploadPartSize,
		ContentType:  ContentTypeXML,
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive")
	}

	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}

	if c.PartSize < manager.MinUploadPartSize {
		return fmt.Errorf("part_size must be at least %d bytes", manager.MinUploadPartSize)
	}

	if c.ContentType == "" {
		return fmt.Errorf("content_type cannot be empty")
	}

	return nil
}
