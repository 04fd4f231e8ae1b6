package auth

import (
	"fmt"
	"time"
)

// Config содержит конфигурацию модуля авторизации
type Config struct {
	// PrincipalID - principal, который попадает в решение
	PrincipalID string `yaml:"principal_id" json:"principal_id"`

	// PrimaryTimeout - таймаут одной попытки у провайдера идентификации
	PrimaryTimeout time.Duration `yaml:"primary_timeout" json:"primary_timeout"`

	// FallbackTimeout - таймаут пробного чтения из бакета
	FallbackTimeout time.Duration `yaml:"fallback_timeout" json:"fallback_timeout"`

	// FallbackEnabled включает резервную проверку через хранилище
	FallbackEnabled bool `yaml:"fallback_enabled" json:"fallback_enabled"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		PrincipalID:     PrincipalPlaceholder,
		PrimaryTimeout:  5 * time.Second,
		FallbackTimeout: 5 * time.Second,
		FallbackEnabled: true,
	}
}

// Validate проверяет корректность конфигурации авторизации
func (c *Config) Validate() error {
	if c.PrincipalID == "" {
		return fmt.Errorf("principal_id cannot be empty")
	}

	if c.PrimaryTimeout <= 0 {
		return fmt.Errorf("primary_timeout must be positive")
	}

	if c.FallbackEnabled && c.FallbackTimeout <= 0 {
		return fmt.Errorf("fallback_timeout must be positive when fallback is enabled")
	}

	return nil
}
