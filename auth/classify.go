package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/smithy-go"
)

// ClassifyProviderError сводит ошибку SDK провайдера к FailureKind.
//
// Ошибки клиента (4xx, smithy.FaultClient) означают, что провайдер ответил и
// отверг данные - это AuthenticationFailed. Все остальное (сеть, 5xx, таймауты,
// открытый circuit breaker) - ProviderUnavailable.
func ClassifyProviderError(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	if errors.Is(err, ErrAuthenticationFailed) {
		return FailureAuthenticationFailed
	}
	if errors.Is(err, ErrProviderUnavailable) {
		return FailureProviderUnavailable
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return FailureProviderUnavailable
	}

	// Код ответа надежнее, чем fault: у S3 generic-ошибки часто FaultUnknown
	var httpErr interface{ HTTPStatusCode() int }
	if errors.As(err, &httpErr) {
		status := httpErr.HTTPStatusCode()
		if status >= http.StatusBadRequest && status < http.StatusInternalServerError &&
			status != http.StatusTooManyRequests {
			return FailureAuthenticationFailed
		}
		if status != 0 {
			return FailureProviderUnavailable
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorFault() == smithy.FaultClient {
			return FailureAuthenticationFailed
		}
		return FailureProviderUnavailable
	}

	return FailureProviderUnavailable
}
