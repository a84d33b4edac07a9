package erp

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCache_LazyAcquisitionAndReuse(t *testing.T) {
	var fetches int32
	cache := newTokenCache(func(ctx context.Context) (string, time.Time, error) {
		n := atomic.AddInt32(&fetches, 1)
		return fmt.Sprintf("token-%d", n), time.Now().Add(time.Hour), nil
	}, time.Minute)

	tok, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	// Cached until the skew margin; no second fetch.
	tok, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}

func TestTokenCache_RefreshesWithinSkewMargin(t *testing.T) {
	var fetches int32
	cache := newTokenCache(func(ctx context.Context) (string, time.Time, error) {
		n := atomic.AddInt32(&fetches, 1)
		// Expires 30s out, inside the 60s skew margin, so every call refreshes.
		return fmt.Sprintf("token-%d", n), time.Now().Add(30 * time.Second), nil
	}, time.Minute)

	tok, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	tok, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
}

func TestTokenCache_Invalidate(t *testing.T) {
	var fetches int32
	cache := newTokenCache(func(ctx context.Context) (string, time.Time, error) {
		n := atomic.AddInt32(&fetches, 1)
		return fmt.Sprintf("token-%d", n), time.Now().Add(time.Hour), nil
	}, time.Minute)

	_, err := cache.Token(context.Background())
	require.NoError(t, err)

	cache.Invalidate()

	tok, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
}

func TestTokenCache_ConcurrentCallersShareOneFetch(t *testing.T) {
	var fetches int32
	started := make(chan struct{})
	cache := newTokenCache(func(ctx context.Context) (string, time.Time, error) {
		atomic.AddInt32(&fetches, 1)
		<-started
		return "shared-token", time.Now().Add(time.Hour), nil
	}, time.Minute)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Token(context.Background())
		}(i)
	}
	// Let the goroutines pile up on the in-flight fetch, then release it.
	time.Sleep(50 * time.Millisecond)
	close(started)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared-token", results[i])
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}

func TestTokenCache_FailedFetchDoesNotPoisonCache(t *testing.T) {
	var fetches int32
	cache := newTokenCache(func(ctx context.Context) (string, time.Time, error) {
		if atomic.AddInt32(&fetches, 1) == 1 {
			return "", time.Time{}, fmt.Errorf("identity provider unavailable")
		}
		return "recovered-token", time.Now().Add(time.Hour), nil
	}, time.Minute)

	_, err := cache.Token(context.Background())
	require.Error(t, err)

	tok, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "recovered-token", tok)
}
