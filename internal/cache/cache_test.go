package cache

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

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T) (*Cache[string], *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](Config{StaleFor: time.Hour}, nil, nil)
	c.now = clock.Now
	return c, clock
}

func constLoader(v string, ttl time.Duration, calls *int32) Loader[string] {
	return func(context.Context) (string, time.Duration, error) {
		atomic.AddInt32(calls, 1)
		return v, ttl, nil
	}
}

func TestCache_MissThenHit(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	var calls int32

	v, err := c.Get(context.Background(), Key("acme", "docs", "intro"), constLoader("page", 10*time.Second, &calls))
	require.NoError(t, err)
	assert.Equal(t, "page", v)

	v, err = c.Get(context.Background(), Key("acme", "docs", "intro"), constLoader("other", 10*time.Second, &calls))
	require.NoError(t, err)
	assert.Equal(t, "page", v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCache_StaleServedWhileRefreshing(t *testing.T) {
	t.Parallel()
	c, clock := newTestCache(t)
	key := Key("acme", "docs", "intro")
	c.Set(key, "old", 10*time.Second)
	clock.Advance(11 * time.Second)

	done := make(chan struct{})
	load := func(context.Context) (string, time.Duration, error) {
		defer close(done)
		return "new", 10 * time.Second, nil
	}

	v, err := c.Get(context.Background(), key, load)
	require.NoError(t, err)
	assert.Equal(t, "old", v, "stale value is served immediately")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background refresh did not run")
	}
	require.Eventually(t, func() bool {
		got, _ := c.Peek(key)
		return got == "new"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCache_ConcurrentMissesShareBuild(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	var calls int32
	release := make(chan struct{})
	load := func(context.Context) (string, time.Duration, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "page", time.Minute, nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Get(context.Background(), "acme/docs/x", load)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "page", r)
	}
}

func TestCache_CanceledWaiterDoesNotAbortSharedBuild(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	key := Key("acme", "docs", "intro")
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (string, time.Duration, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			return "", 0, ctx.Err()
		}
		return "page", time.Minute, nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Get(ctxA, key, load)
		errA <- err
	}()
	<-started

	type got struct {
		v   string
		err error
	}
	resB := make(chan got, 1)
	go func() {
		v, err := c.Get(context.Background(), key, load)
		resB <- got{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(release)
	select {
	case r := <-resB:
		require.NoError(t, r.err)
		assert.Equal(t, "page", r.v)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not receive the shared build")
	}
	v, ok := c.Peek(key)
	assert.True(t, ok)
	assert.Equal(t, "page", v)
}

func TestCache_InlineBuildBoundedByRefreshTimeout(t *testing.T) {
	t.Parallel()
	c := New[string](Config{RefreshTimeout: 20 * time.Millisecond}, nil, nil)
	load := func(ctx context.Context) (string, time.Duration, error) {
		<-ctx.Done()
		return "", 0, ctx.Err()
	}

	_, err := c.Get(context.Background(), "acme/docs/slow", load)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ZeroTTLNotStored(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	var calls int32
	key := "acme/docs/missing"

	for i := 0; i < 2; i++ {
		v, err := c.Get(context.Background(), key, constLoader("404", 0, &calls))
		require.NoError(t, err)
		assert.Equal(t, "404", v)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, c.Len())
}

func TestCache_LoaderErrorNotCached(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	boom := errors.New("boom")

	_, err := c.Get(context.Background(), "k/v", func(context.Context) (string, time.Duration, error) {
		return "", time.Minute, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestCache_PurgeSite(t *testing.T) {
	t.Parallel()
	c, _ := newTestCache(t)
	c.Set(Key("acme", "docs", "a"), "a", time.Minute)
	c.Set(Key("acme", "index"), "i", time.Minute)
	c.Set(Key("acme-two", "docs", "a"), "b", time.Minute)

	assert.Equal(t, 2, c.PurgeSite("acme"))
	_, ok := c.Peek(Key("acme-two", "docs", "a"))
	assert.True(t, ok, "purge must not touch sites sharing a name prefix")
	assert.Equal(t, 1, c.Len())
}

func TestCache_Sweep(t *testing.T) {
	t.Parallel()
	c, clock := newTestCache(t)
	c.Set("a/1", "fresh", 2*time.Hour)
	c.Set("a/2", "old", time.Second)

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 0, c.Sweep(), "entries within the stale window are kept")

	clock.Advance(time.Hour)
	assert.Equal(t, 1, c.Sweep())
	_, ok := c.Peek("a/1")
	assert.True(t, ok)
}

func TestCache_StartStop(t *testing.T) {
	t.Parallel()
	c := New[string](Config{JanitorInterval: 10 * time.Millisecond}, nil, nil)
	require.NoError(t, c.Start())
	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())
}
