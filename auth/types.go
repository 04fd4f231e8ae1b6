package auth

import (
	"context"
	"errors"
	"fmt"
)

// Имена query-параметров, которые шлюз передает в авторизатор
const (
	QueryTenantID = "upid" // идентификатор пула пользователей (tenant)
	QueryClientID = "cid"  // идентификатор клиента приложения
	QueryBucket   = "bn"   // имя бакета для документов
)

// PrincipalPlaceholder - единственный principal, который попадает в решение.
// Реальная личность в политику не передается, только факт аутентификации.
const PrincipalPlaceholder = "me"

// Ошибки модуля авторизации. Наружу уходит только ErrUnauthorized,
// остальные используются внутри для логов и метрик.
var (
	// ErrMissingCredentials - в запросе нет заголовка authorization.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrMalformedCredentials - заголовок есть, но его нельзя разобрать.
	ErrMalformedCredentials = errors.New("malformed credentials")
	// ErrAuthenticationFailed - провайдер отверг учетные данные.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrProviderUnavailable - провайдер недоступен или вернул транспортную ошибку.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrUnauthorized - единственный внешний сигнал отказа.
	ErrUnauthorized = errors.New("Unauthorized")
)

// CredentialRecord - нормализованные учетные данные одного запроса.
// Создается экстрактором один раз и больше не изменяется.
type CredentialRecord struct {
	Username string
	Password string
	TenantID string // пул пользователей провайдера идентификации
	ClientID string // клиент приложения в пуле
	Bucket   string // бакет для резервной проверки
}

// String не выводит пароль, чтобы запись можно было безопасно логировать.
func (c CredentialRecord) String() string {
	return fmt.Sprintf("CredentialRecord{Username: %q, TenantID: %q, ClientID: %q, Bucket: %q}",
		c.Username, c.TenantID, c.ClientID, c.Bucket)
}

// FailureKind - фиксированная таксономия причин отказа.
// Все ошибки провайдеров сводятся к ней на границе компонента.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureMissingCredentials
	FailureMalformedCredentials
	FailureAuthenticationFailed
	FailureProviderUnavailable
	// FailureInternal - непредвиденная паника внутри конвейера
	FailureInternal
)

// String возвращает метку для логов и метрик
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureMissingCredentials:
		return "missing_credentials"
	case FailureMalformedCredentials:
		return "malformed_credentials"
	case FailureAuthenticationFailed:
		return "authentication_failed"
	case FailureProviderUnavailable:
		return "provider_unavailable"
	case FailureInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Err возвращает внутреннюю sentinel-ошибку для вида отказа
func (k FailureKind) Err() error {
	switch k {
	case FailureNone:
		return nil
	case FailureMissingCredentials:
		return ErrMissingCredentials
	case FailureMalformedCredentials:
		return ErrMalformedCredentials
	case FailureAuthenticationFailed:
		return ErrAuthenticationFailed
	case FailureProviderUnavailable:
		return ErrProviderUnavailable
	default:
		return ErrUnauthorized
	}
}

// AuthOutcome - результат одной попытки аутентификации.
// Authenticated == true только вместе с Failure == FailureNone.
type AuthOutcome struct {
	Authenticated bool
	Failure       FailureKind
	// Detail - краткая нейтральная сводка ответа провайдера (может быть nil)
	Detail any
}

// Succeeded создает успешный результат
func Succeeded(detail any) AuthOutcome {
	return AuthOutcome{Authenticated: true, Failure: FailureNone, Detail: detail}
}

// Failed создает неуспешный результат
func Failed(kind FailureKind) AuthOutcome {
	if kind == FailureNone {
		kind = FailureAuthenticationFailed
	}
	return AuthOutcome{Authenticated: false, Failure: kind}
}

// Request - вход авторизатора: заголовки, query-параметры и ресурс вызова.
type Request struct {
	Headers   map[string]string `json:"headers"`
	Query     map[string]string `json:"queryStringParameters"`
	MethodArn string            `json:"methodArn"`
}

// IdentityAuthenticator - основная проверка через провайдера идентификации.
// Реализации никогда не возвращают ошибку и не паникуют наружу.
type IdentityAuthenticator interface {
	Authenticate(ctx context.Context, creds CredentialRecord) AuthOutcome
}

// CredentialProbe - резервная проверка: username/password как пара
// access key / secret key и пробное чтение из бакета.
type CredentialProbe interface {
	Probe(ctx context.Context, creds CredentialRecord) AuthOutcome
}
