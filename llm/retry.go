package llm

import (
	"context"
	"errors"
	"time"
)

// Permanent wraps an error that must not be retried, such as a rejected
// credential or a malformed request.
type Permanent struct {
	Err error
}

func (p Permanent) Error() string { return p.Err.Error() }
func (p Permanent) Unwrap() error { return p.Err }

// Retry runs fn up to attempts times, sleeping with a doubling backoff
// between attempts. It stops early on context cancellation or a Permanent
// error and returns the last error observed.
func Retry(ctx context.Context, attempts int, initialBackoff time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	backoff := initialBackoff
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		err = fn()
		if err == nil {
			return nil
		}

		var perm Permanent
		if errors.As(err, &perm) {
			return perm.Err
		}
	}
	return err
}
