package apiclient

import (
	"context"
	"net/http"
	"time"
)

// RetryPolicy bounds transient-failure retries for one logical request.
type RetryPolicy struct {
	// Max is the number of retries after the first attempt.
	Max int
	// BaseDelay is multiplied by 2^attempt before each retry.
	BaseDelay time.Duration
	// MaxDelay caps a single wait. Zero means DefaultMaxDelay.
	MaxDelay time.Duration
	// RetryNetwork retries idempotent requests that got no response.
	RetryNetwork bool
}

// DefaultRetryPolicy retries twice, 300ms then 600ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Max: 2, BaseDelay: 300 * time.Millisecond}
}

// DefaultMaxDelay caps a wait when the policy sets no MaxDelay.
const DefaultMaxDelay = 30 * time.Second

func (p RetryPolicy) backoff(attempt int) time.Duration {
	ceiling := p.MaxDelay
	if ceiling <= 0 {
		ceiling = DefaultMaxDelay
	}
	if p.BaseDelay <= 0 || attempt < 0 {
		return 0
	}
	// Shifting past the ceiling would overflow or wrap to zero.
	if attempt >= 63 || p.BaseDelay > ceiling>>uint(attempt) {
		return ceiling
	}
	return p.BaseDelay << uint(attempt)
}

func isServerError(status int) bool { return status >= 500 && status <= 599 }

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
