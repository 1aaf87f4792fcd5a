package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLocker(t *testing.T) (Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Locker{R: client, RetryBackoff: 5 * time.Millisecond}, mr
}

func TestWithLock(t *testing.T) {
	l, mr := newLocker(t)

	ran := false
	err := l.WithLock(context.Background(), "k", time.Minute, func(context.Context) error {
		ran = true
		require.True(t, mr.Exists("k"))
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
	require.False(t, mr.Exists("k"))
}

func TestWithLockWaitsForHolder(t *testing.T) {
	l, mr := newLocker(t)
	mr.Set("k", "someone-else")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := l.WithLock(ctx, "k", time.Minute, func(context.Context) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTryWithLock(t *testing.T) {
	l, mr := newLocker(t)

	t.Run("acquires when free", func(t *testing.T) {
		require.NoError(t, l.TryWithLock(context.Background(), "job", time.Minute, func(context.Context) error {
			return nil
		}))
	})

	t.Run("skips when held", func(t *testing.T) {
		mr.Set("job", "someone-else")
		err := l.TryWithLock(context.Background(), "job", time.Minute, func(context.Context) error {
			t.Fatal("callback must not run")
			return nil
		})
		require.ErrorIs(t, err, ErrNotAcquired)
	})
}
