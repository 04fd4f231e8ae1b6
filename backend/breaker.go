package backend

import (
	"context"
	"errors"
	"fmt"

	"idocgw/auth"
	"idocgw/logger"

	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sony/gobreaker"
)

// Имена circuit breaker (метка name в метриках)
const (
	BreakerIdentityProvider = "identity-provider"
	BreakerStorageProbe     = "storage-probe"
)

// Breakers держит circuit breaker для каждого внешнего сервиса авторизатора.
// Отказом считается только недоступность провайдера: неверный пароль или
// закрытый бакет - нормальный ответ работающего сервиса.
type Breakers struct {
	identity *gobreaker.CircuitBreaker
	probe    *gobreaker.CircuitBreaker
	metrics  *Metrics
}

// NewBreakers создает circuit breaker по конфигурации
func NewBreakers(cfg BreakerConfig, metrics *Metrics) (*Breakers, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = DefaultMetrics()
	}

	b := &Breakers{metrics: metrics}
	b.identity = b.newBreaker(BreakerIdentityProvider, cfg)
	b.probe = b.newBreaker(BreakerStorageProbe, cfg)
	return b, nil
}

func (b *Breakers) newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	threshold := cfg.FailureThreshold
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isProviderHealthy,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker '%s' state changed: %s -> %s", name, from, to)
			b.metrics.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			b.metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	}
	b.metrics.BreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(settings)
}

// isProviderHealthy - ответ сервиса, даже отрицательный, не размыкает breaker
func isProviderHealthy(err error) bool {
	return err == nil || auth.ClassifyProviderError(err) != auth.FailureProviderUnavailable
}

// Ready возвращает ошибку, пока хотя бы один breaker разомкнут
func (b *Breakers) Ready() error {
	for _, cb := range []*gobreaker.CircuitBreaker{b.identity, b.probe} {
		if cb.State() == gobreaker.StateOpen {
			return fmt.Errorf("circuit breaker '%s' is open", cb.Name())
		}
	}
	return nil
}

// State возвращает состояние breaker по имени
func (b *Breakers) State(name string) (gobreaker.State, bool) {
	switch name {
	case BreakerIdentityProvider:
		return b.identity.State(), true
	case BreakerStorageProbe:
		return b.probe.State(), true
	default:
		return gobreaker.StateClosed, false
	}
}

// IdentityProvider оборачивает клиента Cognito
func (b *Breakers) IdentityProvider(client auth.IdentityProviderAPI) auth.IdentityProviderAPI {
	return &breakerIdentityProvider{client: client, breakers: b}
}

// ProbeFactory оборачивает каждый созданный фабрикой клиент в общий breaker хранилища
func (b *Breakers) ProbeFactory(factory auth.ProbeClientFactory) auth.ProbeClientFactory {
	return func(accessKeyID, secretAccessKey string) (auth.ListObjectsAPI, error) {
		client, err := factory(accessKeyID, secretAccessKey)
		if err != nil {
			return nil, err
		}
		return &breakerLister{client: client, breakers: b}, nil
	}
}

// execute выполняет вызов через breaker и учитывает результат в метриках.
// Разомкнутый breaker превращается в auth.ErrProviderUnavailable.
func (b *Breakers) execute(cb *gobreaker.CircuitBreaker, operation string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.metrics.RequestsTotal.WithLabelValues(cb.Name(), operation, "rejected").Inc()
		logger.Debug("Circuit breaker '%s' rejected %s: %v", cb.Name(), operation, err)
		return nil, fmt.Errorf("%w: %s: %v", auth.ErrProviderUnavailable, cb.Name(), err)
	}

	label := "success"
	if err != nil {
		label = auth.ClassifyProviderError(err).String()
	}
	b.metrics.RequestsTotal.WithLabelValues(cb.Name(), operation, label).Inc()
	return result, err
}

type breakerIdentityProvider struct {
	client   auth.IdentityProviderAPI
	breakers *Breakers
}

func (p *breakerIdentityProvider) AdminInitiateAuth(ctx context.Context, params *cip.AdminInitiateAuthInput, optFns ...func(*cip.Options)) (*cip.AdminInitiateAuthOutput, error) {
	result, err := p.breakers.execute(p.breakers.identity, "AdminInitiateAuth", func() (interface{}, error) {
		return p.client.AdminInitiateAuth(ctx, params, optFns...)
	})
	if err != nil {
		return nil, err
	}
	output, _ := result.(*cip.AdminInitiateAuthOutput)
	return output, nil
}

type breakerLister struct {
	client   auth.ListObjectsAPI
	breakers *Breakers
}

func (l *breakerLister) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	result, err := l.breakers.execute(l.breakers.probe, "ListObjectsV2", func() (interface{}, error) {
		return l.client.ListObjectsV2(ctx, params, optFns...)
	})
	if err != nil {
		return nil, err
	}
	output, _ := result.(*s3.ListObjectsV2Output)
	return output, nil
}
