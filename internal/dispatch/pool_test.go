package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	t.Run("processes everything", func(t *testing.T) {
		const workers = 4

		q := NewQueue[int](workers)
		var (
			sum     atomic.Int64
			mu      sync.Mutex
			touched = map[int]bool{}
		)

		pool := NewPool(q, workers, func(worker int, item int) {
			require.Less(t, worker, workers)
			sum.Add(int64(item))
			mu.Lock()
			touched[worker] = true
			mu.Unlock()
		})
		pool.Start()

		for i := 1; i <= 1000; i++ {
			require.NoError(t, q.Enqueue(i))
		}

		q.Close()
		pool.Wait()
		require.Equal(t, int64(1000*1001/2), sum.Load())
		require.NotEmpty(t, touched)
	})

	t.Run("survives panics", func(t *testing.T) {
		q := NewQueue[int](1)
		var (
			panics    atomic.Int32
			processed atomic.Int32
		)

		pool := NewPool(q, 1, func(_ int, item int) {
			if item%2 == 0 {
				panic("even")
			}

			processed.Add(1)
		}).OnPanic(func(_ int, item int, recovered any) {
			require.Equal(t, "even", recovered)
			require.Zero(t, item%2)
			panics.Add(1)
		})
		pool.Start()

		for i := range 10 {
			require.NoError(t, q.Enqueue(i))
		}

		q.Close()
		pool.Wait()
		require.Equal(t, int32(5), panics.Load())
		require.Equal(t, int32(5), processed.Load())
	})
}
