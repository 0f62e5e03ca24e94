package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/bizlens/internal/models"
)

type flakyProvider struct {
	err   error
	calls int
}

func (f *flakyProvider) FetchBills(context.Context) ([]models.Bill, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []models.Bill{{ID: "b1"}}, nil
}

func (f *flakyProvider) FetchProducts(context.Context) ([]models.Product, error) {
	f.calls++
	return []models.Product{}, f.err
}

func (f *flakyProvider) FetchCustomers(context.Context) ([]models.Customer, error) {
	f.calls++
	return []models.Customer{}, f.err
}

func TestBreakerProviderPassesThrough(t *testing.T) {
	src := &flakyProvider{}
	p := NewBreakerProvider(src, BreakerConfig{Name: "test", MaxFailures: 2, OpenTimeout: time.Minute})

	bills, err := p.FetchBills(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Bill{{ID: "b1"}}, bills)
	assert.Equal(t, "closed", p.State())
}

func TestBreakerProviderOpensAfterFailures(t *testing.T) {
	boom := errors.New("connection refused")
	src := &flakyProvider{err: boom}
	p := NewBreakerProvider(src, BreakerConfig{Name: "test", MaxFailures: 2, OpenTimeout: time.Minute})
	ctx := context.Background()

	_, err := p.FetchBills(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = p.FetchProducts(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "open", p.State())

	_, err = p.FetchCustomers(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, src.calls, "open breaker must not reach the source")
}

func TestBreakerProviderIgnoresCancellation(t *testing.T) {
	src := &flakyProvider{err: context.Canceled}
	p := NewBreakerProvider(src, BreakerConfig{Name: "test", MaxFailures: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := p.FetchBills(context.Background())
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", p.State())
	assert.Equal(t, 3, src.calls)
}
