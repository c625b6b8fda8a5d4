package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrier_Backoff(t *testing.T) {
	r := NewRetrier(time.Second, nil)

	assert.Equal(t, time.Duration(0), r.Backoff(0))
	assert.Equal(t, time.Second, r.Backoff(1))
	assert.Equal(t, 2*time.Second, r.Backoff(2))
	assert.Equal(t, 4*time.Second, r.Backoff(3))
}

func TestRetrier_Do_SucceedsAfterFailures(t *testing.T) {
	r := NewRetrier(time.Millisecond, nil)
	calls := 0

	err := r.Do(context.Background(), "submit", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_Do_Exhausted(t *testing.T) {
	r := NewRetrier(time.Millisecond, nil)
	boom := errors.New("boom")
	calls := 0

	err := r.Do(context.Background(), "publish", func(context.Context) error {
		calls++
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "publish")
	assert.Equal(t, DefaultAttempts, calls)
}

func TestRetrier_Do_Cancelled(t *testing.T) {
	r := NewRetrier(time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := r.Do(ctx, "ask", func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCall(t *testing.T) {
	r := NewRetrier(time.Millisecond, nil)
	calls := 0

	out, err := Call(context.Background(), r, "branch", func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("once")
		}
		return "main", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "main", out)
}
