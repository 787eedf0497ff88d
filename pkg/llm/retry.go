package llm

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jingkaihe/skillrunner/pkg/logger"
	llmtypes "github.com/jingkaihe/skillrunner/pkg/types/llm"
	"github.com/pkg/errors"
)

// withRetry runs call until it succeeds, fails with an error isRetryable
// rejects, or the configured attempts are used up.
func withRetry(ctx context.Context, provider string, retryConfig llmtypes.RetryConfig, isRetryable func(error) bool, call func() error) error {
	var originalErrors []error

	initialDelay := time.Duration(retryConfig.InitialDelay) * time.Millisecond
	maxDelay := time.Duration(retryConfig.MaxDelay) * time.Millisecond

	var delayType retry.DelayTypeFunc
	switch retryConfig.BackoffType {
	case "fixed":
		delayType = retry.FixedDelay
	case "exponential":
		fallthrough
	default:
		delayType = retry.BackOffDelay
	}

	attempts := retryConfig.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error {
			apiErr := call()
			if apiErr != nil {
				originalErrors = append(originalErrors, apiErr)
			}
			return apiErr
		},
		retry.RetryIf(isRetryable),
		retry.Attempts(uint(attempts)),
		retry.Delay(initialDelay),
		retry.DelayType(delayType),
		retry.MaxDelay(maxDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).
				WithField("provider", provider).
				WithField("attempt", n+1).
				WithField("max_attempts", attempts).
				Warn("retrying model API call")
		}),
	)

	if err != nil && len(originalErrors) > 1 {
		return errors.Wrapf(err, "all %d attempts failed", len(originalErrors))
	}
	return err
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
