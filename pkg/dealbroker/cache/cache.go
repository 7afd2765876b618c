// Package cache keeps the encoded listing collections between writes.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

// Cache stores the JSON body of GET /<kind>s/.
//
// Every Invalidate bumps the kind's generation. A reader takes the
// generation before querying the database and passes it to StoreListings,
// which drops the body when a write happened in between.
type Cache interface {
	Listings(ctx context.Context, kind dal.Kind) ([]byte, bool, error)
	Generation(ctx context.Context, kind dal.Kind) (int64, error)
	StoreListings(ctx context.Context, kind dal.Kind, gen int64, body []byte) error
	Invalidate(ctx context.Context, kind dal.Kind) error
}

// Key is the storage key of a kind's collection.
func Key(kind dal.Kind) string {
	return "dealbroker:listings:" + kind.Collection()
}

// GenerationKey holds the write counter of a kind.
func GenerationKey(kind dal.Kind) string {
	return Key(kind) + ":gen"
}

// Noop never hits.
type Noop struct{}

func (Noop) Listings(context.Context, dal.Kind) ([]byte, bool, error)     { return nil, false, nil }
func (Noop) Generation(context.Context, dal.Kind) (int64, error)          { return 0, nil }
func (Noop) StoreListings(context.Context, dal.Kind, int64, []byte) error { return nil }
func (Noop) Invalidate(context.Context, dal.Kind) error                   { return nil }

// Redis keeps collections in redis with a TTL.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis connects using a redis:// URL.
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisWithClient(redis.NewClient(opts), ttl), nil
}

func NewRedisWithClient(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Listings(ctx context.Context, kind dal.Kind) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, Key(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Generation(ctx context.Context, kind dal.Kind) (int64, error) {
	gen, err := r.client.Get(ctx, GenerationKey(kind)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// StoreListings sets the body only while the generation still equals gen.
// The check and the write run in one WATCH transaction.
func (r *Redis) StoreListings(ctx context.Context, kind dal.Kind, gen int64, body []byte) error {
	genKey := GenerationKey(kind)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, Key(kind), body, r.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (r *Redis) Invalidate(ctx context.Context, kind dal.Kind) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey(kind))
		pipe.Del(ctx, Key(kind))
		return nil
	})
	return err
}

// Close releases the redis connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Memory is an in-process cache for single instance deployments.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[dal.Kind]memoryEntry
	gens    map[dal.Kind]int64
}

type memoryEntry struct {
	body    []byte
	expires time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[dal.Kind]memoryEntry), gens: make(map[dal.Kind]int64)}
}

func (m *Memory) Listings(_ context.Context, kind dal.Kind) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[kind]
	if !ok || (m.ttl > 0 && m.now().After(e.expires)) {
		return nil, false, nil
	}
	return e.body, true, nil
}

func (m *Memory) Generation(_ context.Context, kind dal.Kind) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gens[kind], nil
}

// StoreListings is a no-op when kind was invalidated after gen was read.
func (m *Memory) StoreListings(_ context.Context, kind dal.Kind, gen int64, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[kind] != gen {
		return nil
	}
	m.entries[kind] = memoryEntry{body: append([]byte(nil), body...), expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, kind dal.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, kind)
	m.gens[kind]++
	return nil
}
