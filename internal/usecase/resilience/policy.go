package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/domain"
	"github.com/kailas-cloud/evidex/internal/logger"
	"github.com/kailas-cloud/evidex/internal/metrics"
)

// Policy defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 250 * time.Millisecond
	DefaultMaxDelay    = 4 * time.Second
	DefaultMultiplier  = 2.0
)

// Policy retries a collaborator call with exponential backoff.
// Each attempt gets its own Timeout when it is positive.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	Timeout     time.Duration
	// Retryable overrides the default error classification.
	Retryable func(error) bool
}

// DefaultPolicy returns a three-attempt policy without a per-attempt timeout.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Multiplier:  DefaultMultiplier,
	}
}

// WithTimeout returns a copy of p with a per-attempt timeout.
func (p Policy) WithTimeout(d time.Duration) Policy {
	p.Timeout = d
	return p
}

// Do runs op until it succeeds, fails with a permanent error, attempts run out
// or ctx is done. The last attempt's error is returned.
func (p Policy) Do(ctx context.Context, collaborator string, log *zap.Logger, op func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	log = logger.FromContext(ctx, log)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return fmt.Errorf("%s: %w", collaborator, err)
		}

		lastErr = p.attempt(ctx, op)
		if lastErr == nil {
			if attempt > 1 {
				log.Debug("Call succeeded after retry",
					zap.String("collaborator", collaborator),
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}
		if attempt == attempts || ctx.Err() != nil || !retryable(lastErr) {
			return lastErr
		}

		delay := p.backoff(attempt)
		log.Warn("Call failed, retrying",
			zap.String("collaborator", collaborator),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("backoff", delay),
			zap.Error(lastErr),
		)
		metrics.RetryAttemptsTotal.WithLabelValues(collaborator).Inc()

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

func (p Policy) attempt(ctx context.Context, op func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return op(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return op(actx)
}

// backoff returns BaseDelay * Multiplier^(attempt-1), capped at MaxDelay.
func (p Policy) backoff(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = DefaultMultiplier
	}
	delay := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= mult
	}
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// IsRetryable reports whether err is worth another attempt. Validation and
// configuration errors and caller cancellation are permanent; per-attempt
// timeouts and provider failures are not.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled),
		errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrInvalidProfile),
		errors.Is(err, domain.ErrEmptyKeywordSet),
		errors.Is(err, domain.ErrVectorDimMismatch),
		errors.Is(err, domain.ErrNotConfigured):
		return false
	default:
		return true
	}
}
