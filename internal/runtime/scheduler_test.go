package runtime

import (
	"context"
	"errors"
	"mika/internal/util/future"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAfterFiresOnce(t *testing.T) {
	s := NewScheduler(context.Background())
	var calls atomic.Int32

	timer := s.After(time.Millisecond, func(ctx context.Context, tick int) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, s.Wait())
	ticks, err := timer.Result().Await()
	require.NoError(t, err)
	require.Equal(t, 1, ticks)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, 0, s.Pending())
}

func TestCancelBeforeFire(t *testing.T) {
	s := NewScheduler(context.Background())
	var calls atomic.Int32

	timer := s.After(time.Hour, func(ctx context.Context, tick int) error {
		calls.Add(1)
		return nil
	})
	require.Equal(t, 1, s.Pending())
	require.True(t, s.Cancel(timer.ID))
	require.Equal(t, 0, s.Pending())
	require.False(t, s.Cancel(timer.ID))

	require.NoError(t, s.Wait())
	_, err := timer.Result().Await()
	require.ErrorIs(t, err, future.ErrCancelled)
	require.Equal(t, int32(0), calls.Load())
}

func TestEveryUntilCancelled(t *testing.T) {
	s := NewScheduler(context.Background())
	var id atomic.Int64
	done := make(chan struct{})

	timer := s.Every(time.Millisecond, func(ctx context.Context, tick int) error {
		if tick == 3 {
			s.Cancel(int(id.Load()))
			close(done)
		}
		return nil
	})
	id.Store(int64(timer.ID))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("interval never reached third tick")
	}
	require.NoError(t, s.Wait())
}

func TestWaitReturnsFirstError(t *testing.T) {
	s := NewScheduler(context.Background())
	boom := errors.New("boom")

	s.After(time.Millisecond, func(ctx context.Context, tick int) error { return boom })
	slow := s.After(time.Hour, func(ctx context.Context, tick int) error { return nil })

	require.ErrorIs(t, s.Wait(), boom)
	_, err := slow.Result().Await()
	require.ErrorIs(t, err, context.Canceled)
}
