package resumeapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/resume-tailor/internal/core/domain"
	"github.com/kirillkom/resume-tailor/internal/infrastructure/resilience"
)

// classifyRemoteError decides retry and breaker accounting. Only idempotent
// calls are retried, and auth or client errors never count against the
// breaker.
func classifyRemoteError(idempotent bool) resilience.ErrorClassifier {
	return func(err error) resilience.ErrorClassification {
		if err == nil {
			return resilience.ErrorClassification{}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
		if domain.IsKind(err, domain.ErrUnauthorized) {
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}

		var svcErr *domain.ServiceError
		if errors.As(err, &svcErr) {
			if isRetryableHTTPStatus(svcErr.StatusCode) {
				return resilience.ErrorClassification{Retryable: idempotent, RecordFailure: true}
			}
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}

		if domain.IsKind(err, domain.ErrNetwork) {
			return resilience.ErrorClassification{Retryable: idempotent, RecordFailure: true}
		}

		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// wrapCircuitOpen marks a short-circuited call as a temporary failure.
func wrapCircuitOpen(operation string, err error) error {
	if err != nil && resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, &domain.NetworkError{Operation: operation, Err: err})
	}
	return err
}
