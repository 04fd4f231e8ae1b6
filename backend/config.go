package backend

import (
	"fmt"
	"strings"
	"time"
)

// BreakerConfig содержит настройки circuit breaker для внешних сервисов
type BreakerConfig struct {
	// MaxRequests - количество пробных запросов в состоянии half-open
	MaxRequests uint32 `yaml:"max_requests"`

	// Interval - период сброса счетчиков в состоянии closed
	Interval time.Duration `yaml:"interval"`

	// Timeout - время в состоянии open до перехода в half-open
	Timeout time.Duration `yaml:"timeout"`

	// FailureThreshold - количество последовательных отказов провайдера для размыкания
	FailureThreshold uint32 `yaml:"failure_threshold"`
}

// Config содержит конфигурацию клиентов внешних сервисов
type Config struct {
	Region string `yaml:"region"`

	// CognitoEndpoint - переопределение адреса провайдера идентификации (локальные эмуляторы)
	CognitoEndpoint string `yaml:"cognito_endpoint"`

	// S3Endpoint - адрес S3-совместимого хранилища (например MinIO)
	S3Endpoint     string `yaml:"s3_endpoint"`
	S3UsePathStyle bool   `yaml:"s3_use_path_style"`

	// AccessKey/SecretKey - учетные данные сервиса. Если не заданы,
	// используется стандартная цепочка SDK (env, profile, role).
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// DefaultBreakerConfig возвращает настройки circuit breaker по умолчанию
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Region:  "eu-central-1",
		Breaker: DefaultBreakerConfig(),
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region cannot be empty")
	}

	if (c.AccessKey == "") != (c.SecretKey == "") {
		return fmt.Errorf("access_key and secret_key must be set together")
	}

	for name, endpoint := range map[string]string{"cognito_endpoint": c.CognitoEndpoint, "s3_endpoint": c.S3Endpoint} {
		if endpoint != "" && !isHTTPEndpoint(endpoint) {
			return fmt.Errorf("%s must start with http:// or https://", name)
		}
	}

	if err := c.Breaker.Validate(); err != nil {
		return fmt.Errorf("invalid breaker config: %w", err)
	}

	return nil
}

// Validate проверяет корректность настроек circuit breaker
func (bc *BreakerConfig) Validate() error {
	if bc.MaxRequests == 0 {
		return fmt.Errorf("max_requests must be positive")
	}

	if bc.Interval < 0 {
		return fmt.Errorf("interval cannot be negative")
	}

	if bc.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if bc.FailureThreshold == 0 {
		return fmt.Errorf("failure_threshold must be positive")
	}

	return nil
}

func isHTTPEndpoint(endpoint string) bool {
	lower := strings.ToLower(endpoint)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
