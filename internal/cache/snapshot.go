package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/bizlens/internal/models"
	"github.com/mmynk/bizlens/internal/storage"
)

// KV is the subset of RedisClient the snapshot cache needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

var _ KV = (*RedisClient)(nil)

const (
	keyBills     = "bills"
	keyProducts  = "products"
	keyCustomers = "customers"
)

// SnapshotCache is a storage.Provider that serves collections from the
// cache when present and fills it from next otherwise. Cache errors are
// logged and fall through to next; they never fail a fetch.
type SnapshotCache struct {
	next   storage.Provider
	kv     KV
	ttl    time.Duration
	prefix string
}

var _ storage.Provider = (*SnapshotCache)(nil)

// NewSnapshotCache wraps next. Keys are namespaced by prefix.
func NewSnapshotCache(next storage.Provider, kv KV, ttl time.Duration, prefix string) *SnapshotCache {
	return &SnapshotCache{next: next, kv: kv, ttl: ttl, prefix: prefix}
}

func (c *SnapshotCache) FetchBills(ctx context.Context) ([]models.Bill, error) {
	return cached(ctx, c, keyBills, c.next.FetchBills)
}

func (c *SnapshotCache) FetchProducts(ctx context.Context) ([]models.Product, error) {
	return cached(ctx, c, keyProducts, c.next.FetchProducts)
}

func (c *SnapshotCache) FetchCustomers(ctx context.Context) ([]models.Customer, error) {
	return cached(ctx, c, keyCustomers, c.next.FetchCustomers)
}

// Invalidate drops all cached collections, e.g. after an import.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	return c.kv.Delete(ctx, c.key(keyBills), c.key(keyProducts), c.key(keyCustomers))
}

func (c *SnapshotCache) key(name string) string {
	return c.prefix + ":" + name
}

func cached[T any](ctx context.Context, c *SnapshotCache, name string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	key := c.key(name)

	raw, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		var out []T
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			if out == nil {
				out = []T{}
			}
			return out, nil
		}
		slog.Warn("discarding corrupt cache entry", "key", key, "error", err)
	case !errors.Is(err, ErrMiss):
		slog.Warn("cache read failed", "key", key, "error", err)
	}

	out, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(out)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return out, nil
	}
	if err := c.kv.Set(ctx, key, string(data), c.ttl); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
	return out, nil
}
