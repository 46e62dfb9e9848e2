package http

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(perSecond float64, burst int) (*limiterPool, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := newLimiterPool(perSecond, burst)
	p.now = func() time.Time { return now }
	return p, &now
}

func TestLimiterPool_EvictsIdleBuckets(t *testing.T) {
	p, now := newTestPool(1, 2)
	require.Equal(t, time.Minute, p.idle)

	assert.True(t, p.allow("a"))
	assert.Equal(t, 1, p.size())

	*now = now.Add(2 * time.Minute)
	assert.True(t, p.allow("b"))
	assert.Equal(t, 1, p.size())
	_, kept := p.entries["a"]
	assert.False(t, kept)
}

func TestLimiterPool_KeepsBucketsStillRefilling(t *testing.T) {
	p, now := newTestPool(0.001, 2)
	require.Equal(t, 2000*time.Second, p.idle)

	assert.True(t, p.allow("a"))
	assert.True(t, p.allow("a"))
	assert.False(t, p.allow("a"))

	*now = now.Add(5 * time.Minute)
	assert.True(t, p.allow("b"))
	assert.False(t, p.allow("a"), "bucket must survive the sweep while empty")
}

func TestLimiterPool_BoundedUnderRandomIDs(t *testing.T) {
	p, now := newTestPool(1, 1)
	p.max = 100

	for i := 0; i < 1000; i++ {
		*now = now.Add(time.Millisecond)
		p.allow(fmt.Sprintf("session-%d", i))
	}
	assert.Equal(t, 100, p.size())
	_, oldest := p.entries["session-0"]
	assert.False(t, oldest)
	_, newest := p.entries["session-999"]
	assert.True(t, newest)
}

func TestLimiterPool_Forget(t *testing.T) {
	p, _ := newTestPool(1, 1)
	p.allow("a")
	p.forget("a")
	assert.Equal(t, 0, p.size())
}

func TestLimiterPool_UnlimitedHoldsNothing(t *testing.T) {
	p, _ := newTestPool(0, 0)
	for i := 0; i < 10; i++ {
		assert.True(t, p.allow("a"))
	}
	assert.Equal(t, 0, p.size())
}
