package keylock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKeyLock_SerializesSameKey は同じキーのクリティカルセクションが重ならないことを検証します。
func TestKeyLock_SerializesSameKey(t *testing.T) {
	l := New()
	var inside int32
	var maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "user-1")
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, l.size(), "entries must be cleaned up after release")
}

// TestKeyLock_DifferentKeysIndependent は異なるキーが互いにブロックしないことを検証します。
func TestKeyLock_DifferentKeysIndependent(t *testing.T) {
	l := New()

	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

// TestKeyLock_ContextTimeout は保持中のキーを待つ呼び出しがタイムアウトで打ち切られることを検証します。
func TestKeyLock_ContextTimeout(t *testing.T) {
	l := New()

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	unlock()
	unlock() // 二重解放は無視される
	assert.Equal(t, 0, l.size())
}
