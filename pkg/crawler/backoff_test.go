package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-crawler/pkg/utils"
)

func testEntry() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log.WithField("test", true)
}

func TestClassify(t *testing.T) {
	transient := fmt.Errorf("%w: dial tcp: connection refused", utils.ErrTransient)
	tests := []struct {
		name        string
		err         error
		consecutive int
		want        outcome
	}{
		{"nil is success", nil, 0, outcomeSuccess},
		{"first transient retries immediately", transient, 0, outcomeRetryImmediate},
		{"second transient waits", transient, 1, outcomeRetryAfterDelay},
		{"tenth transient still waits", transient, 10, outcomeRetryAfterDelay},
		{"not found abandons", utils.ErrNotFound, 0, outcomeAbandon},
		{"http error abandons", fmt.Errorf("%w: status 404", utils.ErrHTTP), 0, outcomeAbandon},
		{"malformed page abandons", utils.ErrMalformedPage, 2, outcomeAbandon},
		{"filesystem error abandons", utils.ErrFilesystem, 0, outcomeAbandon},
		{"cancellation is fatal", context.Canceled, 0, outcomeFatal},
		{"deadline is fatal", context.DeadlineExceeded, 5, outcomeFatal},
		{"wrapped cancellation is fatal", fmt.Errorf("fetching: %w", context.Canceled), 0, outcomeFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err, tt.consecutive))
		})
	}
}

func TestRetry_FirstTransientFailureRetriesImmediately(t *testing.T) {
	attempts := 0
	start := time.Now()
	err := retry(context.Background(), time.Minute, testEntry(), nil, func() error {
		attempts++
		if attempts == 1 {
			return fmt.Errorf("%w: connection reset", utils.ErrTransient)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	// A one-minute delay would be unmistakable; the immediate tier must not wait
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRetry_ConsecutiveTransientFailuresWaitFixedDelay(t *testing.T) {
	const delay = 20 * time.Millisecond
	attempts := 0
	start := time.Now()
	err := retry(context.Background(), delay, testEntry(), nil, func() error {
		attempts++
		if attempts <= 3 {
			return fmt.Errorf("%w: no route to host", utils.ErrTransient)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
	// Attempt 1 retries immediately, attempts 2 and 3 each wait the delay
	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestRetry_PermanentErrorReturnsWithoutRetrying(t *testing.T) {
	attempts := 0
	wantErr := fmt.Errorf("%w: '/b1/' redirected away", utils.ErrNotFound)
	err := retry(context.Background(), time.Minute, testEntry(), nil, func() error {
		attempts++
		return wantErr
	})
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.Equal(t, 1, attempts)
}

func TestRetry_OnRetryCallbackCountsEveryRetry(t *testing.T) {
	retries := 0
	attempts := 0
	err := retry(context.Background(), time.Millisecond, testEntry(), func() { retries++ }, func() error {
		attempts++
		if attempts <= 3 {
			return fmt.Errorf("%w: timeout", utils.ErrTransient)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, retries)
}

func TestRetry_CancellationDuringSleepReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- retry(ctx, time.Hour, testEntry(), nil, func() error {
			return fmt.Errorf("%w: network is down", utils.ErrTransient)
		})
	}()

	// Let the op fail twice so retry is parked in the delay sleep
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not return after cancellation")
	}
}

func TestRetry_CancelledOperationIsFatal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts := 0
	err := retry(ctx, time.Minute, testEntry(), nil, func() error {
		attempts++
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestSleepCtx(t *testing.T) {
	t.Run("returns nil after the duration", func(t *testing.T) {
		require.NoError(t, sleepCtx(context.Background(), time.Millisecond))
	})
	t.Run("returns the context error on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		err := sleepCtx(ctx, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClassify_ErrorChainsStayClassifiable(t *testing.T) {
	// Errors cross package boundaries wrapped several layers deep; the policy
	// must still see the sentinel.
	deep := fmt.Errorf("processing book: %w", fmt.Errorf("downloading text: %w",
		fmt.Errorf("%w: write: broken pipe", utils.ErrTransient)))
	assert.Equal(t, outcomeRetryImmediate, classify(deep, 0))
	assert.True(t, errors.Is(deep, utils.ErrTransient))
}
