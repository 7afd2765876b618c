package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLimiterEvictsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	k := newKeyedLimiter(1, 1)
	k.now = func() time.Time { return now }
	k.lastSweep = now

	require.True(t, k.allow("10.0.0.1"))
	require.True(t, k.allow("10.0.0.2"))
	assert.False(t, k.allow("10.0.0.1"), "burst of one is spent")
	assert.Len(t, k.limiters, 2)

	now = now.Add(limiterIdle / 2)
	require.True(t, k.allow("10.0.0.2"))

	now = now.Add(limiterIdle/2 + time.Second)
	require.True(t, k.allow("10.0.0.3"))
	assert.NotContains(t, k.limiters, "10.0.0.1", "idle client is swept")
	assert.Contains(t, k.limiters, "10.0.0.2")
	assert.Contains(t, k.limiters, "10.0.0.3")

	now = now.Add(2 * limiterIdle)
	require.True(t, k.allow("10.0.0.3"))
	assert.Len(t, k.limiters, 1)
}
