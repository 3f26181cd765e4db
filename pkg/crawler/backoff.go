package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"book-crawler/pkg/utils"
)

// outcome is the scheduling decision for one pipeline attempt. Classification
// is separated from scheduling so the failure policy is testable without a
// network or a clock.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetryImmediate  // First transient failure: a blip, try again now
	outcomeRetryAfterDelay // Consecutive transient failures: assume an outage
	outcomeAbandon         // Permanent for this operation; caller decides what that means
	outcomeFatal           // Cancellation; stop scheduling entirely
)

// classify maps an attempt error to an outcome given how many consecutive
// transient failures this operation has already seen. Pure function.
func classify(err error, consecutiveTransient int) outcome {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeFatal
	case errors.Is(err, utils.ErrTransient):
		if consecutiveTransient == 0 {
			return outcomeRetryImmediate
		}
		return outcomeRetryAfterDelay
	default:
		// NotFound, HTTP, malformed page: retrying will not change the answer
		return outcomeAbandon
	}
}

// retry runs op until it succeeds or fails permanently, applying the two-tier
// connection backoff policy: the first transient failure retries immediately
// with a one-time notice, every further consecutive one waits the fixed delay.
// There is no retry cap; a dead network stalls the crawl rather than aborting
// it. The consecutive-failure count is local to this call, so each logical
// operation gets its own immediate-retry tier and a success implicitly resets
// the state for whatever the caller tries next.
//
// Returns nil on success, the context error on cancellation, and the
// operation's own error when it fails permanently.
func retry(ctx context.Context, delay time.Duration, opLog *logrus.Entry, onRetry func(), op func() error) error {
	consecutive := 0
	for {
		err := op()
		switch classify(err, consecutive) {
		case outcomeSuccess:
			return nil
		case outcomeRetryImmediate:
			consecutive++
			if onRetry != nil {
				onRetry()
			}
			opLog.Warnf("Network connection lost, retrying immediately: %v", err)
		case outcomeRetryAfterDelay:
			consecutive++
			if onRetry != nil {
				onRetry()
			}
			opLog.Warnf("Still no network connection, retrying in %v: %v", delay, err)
			if sleepErr := sleepCtx(ctx, delay); sleepErr != nil {
				return sleepErr
			}
		case outcomeFatal:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		case outcomeAbandon:
			return err
		}
	}
}

// sleepCtx waits for d or until the context is cancelled, whichever comes
// first. The backoff sleep must never make shutdown wait out a full interval.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
