package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestBucket(t *testing.T, rate, capacity float64) (*TokenBucket, *time.Time) {
	t.Helper()
	tb := NewTokenBucket(rate, capacity)
	t.Cleanup(tb.Close)

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tb.now = func() time.Time { return clock }
	return tb, &clock
}

func TestTokenBucket_AllowsUpToCapacity(t *testing.T) {
	tb, _ := newTestBucket(t, 1, 3)

	for i := range 3 {
		assert.True(t, tb.Allow("test-key"), "request %d should be allowed", i+1)
	}
	assert.False(t, tb.Allow("test-key"), "4th request should be denied (bucket empty)")
}

func TestTokenBucket_DifferentKeysAreIndependent(t *testing.T) {
	tb, _ := newTestBucket(t, 1, 1)

	assert.True(t, tb.Allow("ip-a"))
	assert.False(t, tb.Allow("ip-a"))
	assert.True(t, tb.Allow("ip-b"), "ip-b has its own bucket")
}

func TestTokenBucket_Refills(t *testing.T) {
	tb, clock := newTestBucket(t, 1, 1)

	assert.True(t, tb.Allow("k"))
	assert.False(t, tb.Allow("k"))

	*clock = clock.Add(1500 * time.Millisecond)
	assert.True(t, tb.Allow("k"))
}

func TestTokenBucket_ZeroRateNeverRefills(t *testing.T) {
	tb, clock := newTestBucket(t, 0, 2)

	assert.True(t, tb.Allow("k"))
	assert.True(t, tb.Allow("k"))
	*clock = clock.Add(time.Hour)
	assert.False(t, tb.Allow("k"), "third request should be denied (no refill)")
}

func TestTokenBucket_EvictIdle(t *testing.T) {
	tb, clock := newTestBucket(t, 1, 1)

	tb.Allow("old")
	*clock = clock.Add(20 * time.Minute)
	tb.Allow("fresh")
	tb.evictIdle(10 * time.Minute)

	tb.mu.Lock()
	defer tb.mu.Unlock()
	assert.NotContains(t, tb.buckets, "old")
	assert.Contains(t, tb.buckets, "fresh")
}
