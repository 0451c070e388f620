package future

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstSettlementWins(t *testing.T) {
	failure := errors.New("failure")

	resolved := Pending[int]()
	resolved.Resolve(1)
	resolved.Resolve(2)
	resolved.Reject(failure)
	v, err := resolved.Await()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	rejected := Pending[int]()
	rejected.Reject(failure)
	rejected.Resolve(3)
	v, err = rejected.Await()
	require.ErrorIs(t, err, failure)
	require.Zero(t, v)
}

func TestAwaitFromManyGoroutines(t *testing.T) {
	f := Pending[string]()
	var wg sync.WaitGroup
	got := make([]string, 4)
	for i := range got {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], _ = f.Await()
		}()
	}
	f.Resolve("ok")
	wg.Wait()
	require.Equal(t, []string{"ok", "ok", "ok", "ok"}, got)
}
