package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/bizlens/internal/models"
)

type memoryKV struct {
	mu      sync.Mutex
	data    map[string]string
	failGet bool
	ttls    map[string]time.Duration
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", errors.New("redis: connection pool timeout")
	}
	v, ok := m.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) FetchBills(context.Context) ([]models.Bill, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return []models.Bill{{
		ID:        "b1",
		CreatedAt: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
		Total:     120,
		Items:     []models.BillItem{{ProductRef: "p1", Quantity: 2}},
	}}, nil
}

func (p *countingProvider) FetchProducts(context.Context) ([]models.Product, error) {
	p.calls++
	return []models.Product{}, p.err
}

func (p *countingProvider) FetchCustomers(context.Context) ([]models.Customer, error) {
	p.calls++
	return []models.Customer{{ID: "c1"}}, p.err
}

func TestSnapshotCacheHit(t *testing.T) {
	src := &countingProvider{}
	kv := newMemoryKV()
	c := NewSnapshotCache(src, kv, time.Minute, "shop1")
	ctx := context.Background()

	first, err := c.FetchBills(ctx)
	require.NoError(t, err)
	second, err := c.FetchBills(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, time.Minute, kv.ttls["shop1:bills"])
}

func TestSnapshotCacheEmptyCollectionStaysNonNil(t *testing.T) {
	c := NewSnapshotCache(&countingProvider{}, newMemoryKV(), time.Minute, "shop1")
	ctx := context.Background()

	_, err := c.FetchProducts(ctx)
	require.NoError(t, err)
	products, err := c.FetchProducts(ctx)
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	src := &countingProvider{}
	c := NewSnapshotCache(src, newMemoryKV(), time.Minute, "shop1")
	ctx := context.Background()

	_, err := c.FetchCustomers(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))
	_, err = c.FetchCustomers(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls)
}

func TestSnapshotCacheFallsThroughOnCacheErrors(t *testing.T) {
	src := &countingProvider{}
	kv := newMemoryKV()
	kv.failGet = true
	c := NewSnapshotCache(src, kv, time.Minute, "shop1")

	bills, err := c.FetchBills(context.Background())
	require.NoError(t, err)
	assert.Len(t, bills, 1)

	kv.failGet = false
	kv.data["shop1:customers"] = "{not json"
	customers, err := c.FetchCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Customer{{ID: "c1"}}, customers)
	assert.Equal(t, 2, src.calls)
}

func TestSnapshotCachePropagatesSourceErrors(t *testing.T) {
	boom := errors.New("pos offline")
	kv := newMemoryKV()
	c := NewSnapshotCache(&countingProvider{err: boom}, kv, time.Minute, "shop1")

	_, err := c.FetchBills(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, kv.data, "failed fetches are not cached")
}
