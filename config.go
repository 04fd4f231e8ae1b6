package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"idocgw/apigw"
	"idocgw/auth"
	"idocgw/backend"
	"idocgw/ingest"
	"idocgw/logger"
	"idocgw/monitoring"
)

// AppConfig содержит полную конфигурацию приложения
type AppConfig struct {
	// Конфигурация HTTP сервера шлюза
	Server ServerConfig `yaml:"server"`

	// Маршруты и ARN ресурса
	Gateway GatewayConfig `yaml:"gateway"`

	// Конфигурация логирования
	Logging LoggingConfig `yaml:"logging"`

	// Конфигурация авторизатора
	Auth auth.Config `yaml:"auth"`

	// Клиенты провайдера идентификации и хранилища
	Backend backend.Config `yaml:"backend"`

	// Конфигурация загрузки документов
	Ingest ingest.Config `yaml:"ingest"`

	// Конфигурация мониторинга
	Monitoring monitoring.Config `yaml:"monitoring"`
}

// ServerConfig содержит конфигурацию HTTP сервера
type ServerConfig struct {
	ListenAddress string        `yaml:"listen_address"`
	TLSCertFile   string        `yaml:"tls_cert_file"`
	TLSKeyFile    string        `yaml:"tls_key_file"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`

	// UseMock - документы сохраняются в памяти процесса вместо хранилища
	UseMock bool `yaml:"use_mock"`
}

// GatewayConfig описывает маршруты шлюза
type GatewayConfig struct {
	AuthorizePath  string `yaml:"authorize_path"`
	UploadPath     string `yaml:"upload_path"`
	ResourcePrefix string `yaml:"resource_prefix"`
}

// LoggingConfig содержит конфигурацию логирования
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultAppConfig возвращает конфигурацию по умолчанию
func DefaultAppConfig() *AppConfig {
	gw := apigw.DefaultConfig()
	return &AppConfig{
		Server: ServerConfig{
			ListenAddress: gw.ListenAddress,
			ReadTimeout:   gw.ReadTimeout,
			WriteTimeout:  gw.WriteTimeout,
		},
		Gateway: GatewayConfig{
			AuthorizePath:  gw.AuthorizePath,
			UploadPath:     gw.UploadPath,
			ResourcePrefix: gw.ResourcePrefix,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Auth:       *auth.DefaultConfig(),
		Backend:    *backend.DefaultConfig(),
		Ingest:     *ingest.DefaultConfig(),
		Monitoring: *monitoring.DefaultConfig(),
	}
}

// LoadConfig загружает конфигурацию из файла
func LoadConfig(filename string) (*AppConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", filename, err)
	}
	return config, nil
}

// ParseConfig разбирает YAML поверх конфигурации по умолчанию и валидирует результат
func ParseConfig(data []byte) (*AppConfig, error) {
	config := DefaultAppConfig()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate проверяет корректность конфигурации
func (c *AppConfig) Validate() error {
	if c.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address cannot be empty")
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	// Сертификат и ключ задаются только вместе
	if (c.Server.TLSCertFile != "") != (c.Server.TLSKeyFile != "") {
		return fmt.Errorf("both tls_cert_file and tls_key_file must be specified for TLS")
	}

	if !logger.IsValidLogLevel(c.Logging.Level) {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	gw := c.ToAPIGatewayConfig()
	if err := gw.Validate(); err != nil {
		return fmt.Errorf("gateway config: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend config: %w", err)
	}

	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest config: %w", err)
	}

	if err := c.Monitoring.Validate(); err != nil {
		return fmt.Errorf("monitoring config: %w", err)
	}

	return nil
}

// ToAPIGatewayConfig собирает конфигурацию шлюза из секций server, gateway и ingest
func (c *AppConfig) ToAPIGatewayConfig() apigw.Config {
	return apigw.Config{
		ListenAddress:  c.Server.ListenAddress,
		TLSCertFile:    c.Server.TLSCertFile,
		TLSKeyFile:     c.Server.TLSKeyFile,
		ReadTimeout:    c.Server.ReadTimeout,
		WriteTimeout:   c.Server.WriteTimeout,
		AuthorizePath:  c.Gateway.AuthorizePath,
		UploadPath:     c.Gateway.UploadPath,
		ResourcePrefix: c.Gateway.ResourcePrefix,
		MaxBodyBytes:   c.Ingest.MaxBodyBytes,
	}
}

// SaveConfig сохраняет конфигурацию в файл (для генерации примера)
func (c *AppConfig) SaveConfig(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}

	return nil
}
