package bytesource

import (
	"context"
	"time"

	"github.com/flywave/acog/cogerr"
)

// retryBackoff is the fixed backoff schedule used for TransportError:
// three retries after the first attempt.
var retryBackoff = []time.Duration{100 * time.Millisecond, 400 * time.Millisecond, 1600 * time.Millisecond}

// withRetry runs fn up to len(retryBackoff)+1 times, retrying only on
// TransportError; OutOfRange and Truncated are fatal for the read and
// returned immediately.
func withRetry(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		b, err := fn()
		if err == nil {
			return b, nil
		}
		if !cogerr.Is(err, cogerr.TransportError) || attempt >= len(retryBackoff) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff[attempt]):
		}
	}
}
