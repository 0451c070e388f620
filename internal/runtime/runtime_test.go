package runtime

import (
	"context"
	"testing"
	"time"

	"mika/internal/util"

	"github.com/stretchr/testify/require"
)

func TestSleepLetsTimersRun(t *testing.T) {
	rt := NewRuntime(context.Background(), util.DefaultConfiguration())
	require.NoError(t, rt.Acquire())

	fired := false
	rt.Scheduler.After(time.Millisecond, func(ctx context.Context, tick int) error {
		return rt.Dispatch(func() error {
			fired = true
			return nil
		})
	})

	require.NoError(t, rt.Sleep(50*time.Millisecond))
	require.True(t, fired)
	rt.Release()
	require.NoError(t, rt.Scheduler.Wait())
}

func TestSleepEndsOnShutdown(t *testing.T) {
	rt := NewRuntime(context.Background(), util.DefaultConfiguration())
	require.NoError(t, rt.Acquire())

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = rt.Scheduler.Shutdown()
	}()

	start := time.Now()
	require.NoError(t, rt.Sleep(time.Hour))
	require.Less(t, time.Since(start), time.Minute)
	rt.Release()
}
