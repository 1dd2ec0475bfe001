package listener

import (
	"context"
	"math"
	"time"

	"nearListener/internal/chain"
)

// Verdict is the action taken after a failed block fetch.
type Verdict int

const (
	// VerdictFatal stops the loop and returns the error.
	VerdictFatal Verdict = iota
	// VerdictAdvance skips the missing height: the cursor moves by one.
	VerdictAdvance
	// VerdictRetry waits and requests the same reference again.
	VerdictRetry
)

func (v Verdict) String() string {
	switch v {
	case VerdictFatal:
		return "fatal"
	case VerdictAdvance:
		return "advance"
	case VerdictRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Classify maps a block fetch error to a verdict. An unknown block wins over
// the HTTP status that carried it.
func Classify(err error) Verdict {
	switch {
	case err == nil:
		return VerdictFatal
	case chain.IsUnknownBlock(err):
		return VerdictAdvance
	case chain.IsStatusError(err):
		return VerdictRetry
	default:
		return VerdictFatal
	}
}

// Backoff returns the delay before the attempt-th consecutive retry,
// starting at 1. ok is false once the retry ceiling is exceeded.
type Backoff interface {
	Next(attempt int) (delay time.Duration, ok bool)
}

// FixedBackoff waits Delay before every retry. MaxRetries 0 retries forever.
type FixedBackoff struct {
	Delay      time.Duration
	MaxRetries int
}

func (b FixedBackoff) Next(attempt int) (time.Duration, bool) {
	if b.MaxRetries > 0 && attempt > b.MaxRetries {
		return 0, false
	}
	return b.Delay, true
}

// ExponentialBackoff doubles Base on every attempt, capped at Max when Max
// is positive. MaxRetries 0 retries forever.
type ExponentialBackoff struct {
	Base       time.Duration
	Max        time.Duration
	MaxRetries int
}

func (b ExponentialBackoff) Next(attempt int) (time.Duration, bool) {
	if b.MaxRetries > 0 && attempt > b.MaxRetries {
		return 0, false
	}

	delay := b.Base
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		if delay > math.MaxInt64/2 {
			break
		}
		delay *= 2
		if b.Max > 0 && delay >= b.Max {
			break
		}
	}
	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}
	return delay, true
}

// DefaultBackoff waits DefaultServerErrorDelay between retries, forever.
func DefaultBackoff() Backoff {
	return FixedBackoff{Delay: DefaultServerErrorDelay}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
