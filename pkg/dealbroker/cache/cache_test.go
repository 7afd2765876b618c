package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "dealbroker:listings:deals", Key(dal.KindDeal))
	assert.Equal(t, "dealbroker:listings:demos", Key(dal.KindDemo))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	_, ok, err := m.Listings(ctx, dal.KindDeal)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.StoreListings(ctx, dal.KindDeal, 0, []byte(`[]`)))
	body, ok, _ := m.Listings(ctx, dal.KindDeal)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(body))

	_, ok, _ = m.Listings(ctx, dal.KindDemo)
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Listings(ctx, dal.KindDeal)
	assert.False(t, ok, "entry should expire")

	require.NoError(t, m.StoreListings(ctx, dal.KindDeal, 0, []byte(`[1]`)))
	require.NoError(t, m.Invalidate(ctx, dal.KindDeal))
	_, ok, _ = m.Listings(ctx, dal.KindDeal)
	assert.False(t, ok)
}

func TestMemoryDropsStaleStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	gen, err := m.Generation(ctx, dal.KindDeal)
	require.NoError(t, err)
	require.NoError(t, m.Invalidate(ctx, dal.KindDeal))

	require.NoError(t, m.StoreListings(ctx, dal.KindDeal, gen, []byte(`["stale"]`)))
	_, ok, _ := m.Listings(ctx, dal.KindDeal)
	assert.False(t, ok, "a body read before the write must not be cached")

	fresh, err := m.Generation(ctx, dal.KindDeal)
	require.NoError(t, err)
	assert.Equal(t, gen+1, fresh)
	require.NoError(t, m.StoreListings(ctx, dal.KindDeal, fresh, []byte(`["fresh"]`)))
	body, ok, _ := m.Listings(ctx, dal.KindDeal)
	require.True(t, ok)
	assert.Equal(t, `["fresh"]`, string(body))

	demoGen, _ := m.Generation(ctx, dal.KindDemo)
	assert.Zero(t, demoGen, "generations are per kind")
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	require.NoError(t, c.StoreListings(context.Background(), dal.KindDeal, 0, []byte(`[]`)))
	_, ok, err := c.Listings(context.Background(), dal.KindDeal)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis("http://not-redis", time.Minute)
	assert.Error(t, err)
}
