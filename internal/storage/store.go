// Package storage provides abstractions for reading and persisting snapshots.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/bizlens/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Provider supplies the three input collections the analytics engine reads.
// Implementations return an empty slice, never nil, when there is no data.
// Each fetch is independent so callers can run them concurrently.
type Provider interface {
	FetchBills(ctx context.Context) ([]models.Bill, error)
	FetchProducts(ctx context.Context) ([]models.Product, error)
	FetchCustomers(ctx context.Context) ([]models.Customer, error)
}

// Store is a Provider that can also persist normalized records.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	Provider

	// SaveBills inserts or replaces bills by ID, including their items.
	SaveBills(ctx context.Context, bills []models.Bill) error

	// SaveProducts inserts or replaces products by ID.
	SaveProducts(ctx context.Context, products []models.Product) error

	// SaveCustomers inserts or replaces customers by ID.
	SaveCustomers(ctx context.Context, customers []models.Customer) error

	// GetBill retrieves a bill by its ID.
	// Returns ErrNotFound if the bill does not exist.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// Close releases any resources held by the store.
	Close() error
}
