package pool_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/lestrrat-go/dtd/internal/pool"
	"github.com/stretchr/testify/require"
)

func TestByteSlice(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		bs := pool.ByteSlice()
		b := bs.Get()
		require.Empty(t, b)
		require.GreaterOrEqual(t, cap(b), 64)

		// scanners append past the initial capacity and hand the grown
		// slice back; whatever comes out next must still be empty
		b = append(b, bytes.Repeat([]byte("x"), 200)...)
		bs.Put(b)

		b = bs.Get()
		require.Empty(t, b)
		bs.Put(b)
	})
	t.Run("GetCapacity", func(t *testing.T) {
		bs := pool.ByteSlice()
		b := bs.GetCapacity(4096)
		require.Empty(t, b)
		require.GreaterOrEqual(t, cap(b), 4096)
		bs.Put(b)
	})
	t.Run("Concurrent", func(t *testing.T) {
		const n = 16
		const size = 256
		bs := pool.ByteSlice()
		results := make([]string, n)

		var wg sync.WaitGroup
		wg.Add(n)
		for i := range n {
			go func() {
				defer wg.Done()
				b := bs.GetCapacity(size)
				defer bs.Put(b)
				for range size {
					b = append(b, byte('A'+i))
				}
				results[i] = string(b)
			}()
		}
		wg.Wait()

		for i, s := range results {
			require.Equal(t, string(bytes.Repeat([]byte{byte('A' + i)}, size)), s, "goroutine %d", i)
		}
	})
}
