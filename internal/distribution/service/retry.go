package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	distributiondomain "github.com/smallbiznis/leadflow/internal/distribution/domain"
	providerdomain "github.com/smallbiznis/leadflow/internal/provider/domain"
)

// isRetryable reports whether a charge failure is worth another attempt.
// Business outcomes are final: a provider who cannot afford the lead now will
// not afford it 200ms from now, and a duplicate assignment stays a duplicate.
// Everything else (lock timeouts, serialization failures, transient I/O) is
// retried.
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, distributiondomain.ErrInsufficientBalance),
		errors.Is(err, distributiondomain.ErrDuplicateAssignment),
		errors.Is(err, providerdomain.ErrProviderNotFound):
		return false
	}
	return true
}

// withRetry runs op up to cfg.MaxAttempts times with exponential backoff
// (base * 2^attempt) plus jitter. Non-retryable errors return immediately.
func (s *Service) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !isRetryable(err) || attempt == s.cfg.MaxAttempts-1 {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := time.Duration(1<<uint(attempt)) * s.cfg.RetryBaseDelay
		if s.cfg.RetryMaxJitter > 0 {
			delay += time.Duration(rand.Int63n(int64(s.cfg.RetryMaxJitter)))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
