package auth

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// State - состояние конвейера авторизации
type State int

const (
	StateStart State = iota
	StateExtracting
	StateAuthPrimary
	StateAuthFallback
	StateDeciding
	StateDone
	StateFailed
)

// String возвращает строковое представление состояния
func (s State) String() string {
	switch s {
	case StateStart:
		return "START"
	case StateExtracting:
		return "EXTRACTING"
	case StateAuthPrimary:
		return "AUTH_PRIMARY"
	case StateAuthFallback:
		return "AUTH_FALLBACK"
	case StateDeciding:
		return "DECIDING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Result - терминальный результат одного прогона конвейера.
// Decision != nil только при State == StateDone.
type Result struct {
	Decision *Decision
	State    State
	// Failure - внутренняя причина отказа (или последней неудачной стадии)
	Failure FailureKind
	// FailedAt - состояние, в котором произошел отказ
	FailedAt State
	// AuthenticatedBy - стадия, подтвердившая учетные данные
	AuthenticatedBy   string
	PrimaryAttempted  bool
	FallbackAttempted bool
}

// Err возвращает ErrUnauthorized для любого исхода, кроме разрешающего
func (r Result) Err() error {
	if r.State != StateDone || r.Decision == nil {
		return ErrUnauthorized
	}
	return nil
}

// Option настраивает Authorizer
type Option func(*Authorizer)

// WithMetrics задает метрики (в тестах - с собственным registry)
func WithMetrics(m *Metrics) Option {
	return func(a *Authorizer) {
		a.metrics = m
	}
}

// WithRegisterer создает метрики в указанном registry
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *Authorizer) {
		a.metrics = NewMetrics(reg)
	}
}

// Authorizer - оркестратор: извлечение -> основная проверка ->
// (резервная, если основная не прошла) -> решение.
// Любой путь, кроме успешной аутентификации, заканчивается отказом.
type Authorizer struct {
	primary  IdentityAuthenticator
	fallback CredentialProbe
	config   *Config
	metrics  *Metrics
}

// NewAuthorizer создает оркестратор. Аутентификаторы создаются один раз при
// старте процесса и внедряются сюда; fallback может быть nil.
func NewAuthorizer(primary IdentityAuthenticator, fallback CredentialProbe, config *Config, opts ...Option) (*Authorizer, error) {
	if primary == nil {
		return nil, errors.New("primary authenticator cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &Authorizer{
		primary:  primary,
		fallback: fallback,
		config:   config,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = DefaultMetrics()
	}
	return a, nil
}

// Authorize возвращает разрешающее решение или ErrUnauthorized.
// Других ошибок метод не возвращает.
func (a *Authorizer) Authorize(ctx context.Context, req *Request) (*Decision, error) {
	res := a.Evaluate(ctx, req)
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res.Decision, nil
}

// Evaluate прогоняет конечный автомат и возвращает ровно один терминальный результат.
func (a *Authorizer) Evaluate(ctx context.Context, req *Request) (res Result) {
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Exception in authorizing the call (state %s): %v", res.State, r)
			res = Result{
				State:             StateFailed,
				Failure:           FailureInternal,
				FailedAt:          res.State,
				PrimaryAttempted:  res.PrimaryAttempted,
				FallbackAttempted: res.FallbackAttempted,
			}
		}
		a.observeDecision(res)
	}()

	var creds CredentialRecord
	res.State = StateExtracting

	for {
		switch res.State {
		case StateExtracting:
			if req == nil {
				return fail(res, FailureMissingCredentials)
			}
			c, err := ExtractCredentials(req.Headers, req.Query)
			if err != nil {
				kind := FailureMalformedCredentials
				if errors.Is(err, ErrMissingCredentials) {
					kind = FailureMissingCredentials
				}
				return fail(res, kind)
			}
			creds = c
			res.State = StateAuthPrimary

		case StateAuthPrimary:
			res.PrimaryAttempted = true
			outcome := a.runStage(ctx, StagePrimary, a.config.PrimaryTimeout, func(ctx context.Context) AuthOutcome {
				return a.primary.Authenticate(ctx, creds)
			})
			if outcome.Authenticated {
				res.AuthenticatedBy = StagePrimary
				res.State = StateDeciding
				continue
			}

			res.Failure = outcome.Failure
			if !a.config.FallbackEnabled || a.fallback == nil {
				return fail(res, outcome.Failure)
			}
			log.Debug("Primary authentication failed (%s), trying storage credentials", outcome.Failure)
			res.State = StateAuthFallback

		case StateAuthFallback:
			res.FallbackAttempted = true
			outcome := a.runStage(ctx, StageFallback, a.config.FallbackTimeout, func(ctx context.Context) AuthOutcome {
				return a.fallback.Probe(ctx, creds)
			})
			if !outcome.Authenticated {
				return fail(res, outcome.Failure)
			}
			res.AuthenticatedBy = StageFallback
			res.State = StateDeciding

		case StateDeciding:
			res.Decision = RenderDecision(a.config.PrincipalID, req.MethodArn)
			res.Failure = FailureNone
			res.State = StateDone
			return res

		default:
			return fail(res, FailureInternal)
		}
	}
}

// fail переводит результат в поглощающее состояние FAILED
func fail(res Result, kind FailureKind) Result {
	if kind == FailureNone {
		kind = FailureAuthenticationFailed
	}
	res.FailedAt = res.State
	res.State = StateFailed
	res.Failure = kind
	res.Decision = nil
	return res
}

// runStage выполняет одну стадию с ограниченным таймаутом.
// Паника внутри аутентификатора превращается в неуспешный результат.
func (a *Authorizer) runStage(ctx context.Context, stage string, timeout time.Duration, fn func(context.Context) AuthOutcome) (outcome AuthOutcome) {
	start := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic in %s authentication stage: %v", stage, r)
			outcome = Failed(FailureInternal)
		}
		// Authenticated без FailureNone невозможен: не доверяем реализации
		if outcome.Authenticated && outcome.Failure != FailureNone {
			outcome = Failed(outcome.Failure)
		}

		result := "success"
		if !outcome.Authenticated {
			result = outcome.Failure.String()
		}
		a.metrics.AttemptsTotal.WithLabelValues(stage, result).Inc()
		a.metrics.StageLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}()

	return fn(stageCtx)
}

func (a *Authorizer) observeDecision(res Result) {
	if res.State == StateDone {
		log.Debug("Request authorized by %s stage", res.AuthenticatedBy)
		a.metrics.DecisionsTotal.WithLabelValues(string(EffectAllow), res.AuthenticatedBy).Inc()
		return
	}
	log.Info("Request denied at %s: %s", res.FailedAt, res.Failure)
	a.metrics.DecisionsTotal.WithLabelValues(string(EffectDeny), res.Failure.String()).Inc()
}
