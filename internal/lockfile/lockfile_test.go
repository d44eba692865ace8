package lockfile

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "repo.lock")

	l, err := Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	assert.Equal(t, path, l.Path())
	assert.FileExists(t, path)
	require.NoError(t, l.Unlock())
	require.NoError(t, l.Unlock())
}

func TestAcquire_TimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.lock")

	held, err := Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	defer held.Unlock()

	start := time.Now()
	_, err = Acquire(context.Background(), path, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	_, err = Acquire(context.Background(), path, 0)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAcquire_ContextCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.lock")

	held, err := Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)
	defer held.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = Acquire(ctx, path, time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquire_WaitsForRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.lock")

	held, err := Acquire(context.Background(), path, time.Second)
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		held.Unlock()
	}()

	l, err := Acquire(context.Background(), path, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, l.Unlock())
}

func TestAcquire_MutualExclusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.lock")

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := Acquire(context.Background(), path, 10*time.Second)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, l.Unlock())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}
