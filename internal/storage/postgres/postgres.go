// Package postgres reads snapshots straight from a point-of-sale PostgreSQL
// database. It never writes: the POS owns that schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/mmynk/bizlens/internal/ingest"
	"github.com/mmynk/bizlens/internal/models"
	"github.com/mmynk/bizlens/internal/storage"
)

var _ storage.Provider = (*Provider)(nil)

// Queries are the SELECTs run against the POS. Column names may use any
// alias the ingest package understands. ItemsQuery rows must carry a
// bill_id column.
type Queries struct {
	Bills     string
	Items     string
	Products  string
	Customers string
}

// DefaultQueries fits the common POS layout of one table per collection.
func DefaultQueries() Queries {
	return Queries{
		Bills:     "SELECT * FROM bills",
		Items:     "SELECT * FROM bill_items",
		Products:  "SELECT * FROM products",
		Customers: "SELECT * FROM customers",
	}
}

// Provider implements storage.Provider over a POS database.
type Provider struct {
	db      *sqlx.DB
	queries Queries
}

// New wraps an open connection.
func New(db *sqlx.DB, queries Queries) *Provider {
	return &Provider{db: db, queries: queries}
}

// Connect opens the POS database, retrying while it comes up, and pings it.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	const (
		maxAttempts = 5
		baseDelay   = 500 * time.Millisecond
	)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, err := sqlx.Open("postgres", dsn)
		if err != nil {
			lastErr = err
		} else {
			setPool(db.DB)
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			lastErr = db.PingContext(pingCtx)
			cancel()
			if lastErr == nil {
				return db, nil
			}
			_ = db.Close()
		}

		slog.Warn("pos database not ready", "attempt", attempt, "error", lastErr)
		if err := sleepWithBackoff(ctx, attempt, baseDelay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed to connect to pos database after %d attempts: %w", maxAttempts, lastErr)
}

// setPool configures a small pool; the provider only runs four queries per refresh.
func setPool(db *sql.DB) {
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)
}

func sleepWithBackoff(ctx context.Context, attempt int, base time.Duration) error {
	d := base << (attempt - 1)
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchBills reads bills and their items and normalizes them.
// Rows that fail normalization are logged and skipped.
func (p *Provider) FetchBills(ctx context.Context) ([]models.Bill, error) {
	rows, err := p.scan(ctx, p.queries.Bills)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	items, err := p.scan(ctx, p.queries.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill items: %w", err)
	}
	attachItems(rows, items)

	bills := make([]models.Bill, 0, len(rows))
	for i, r := range rows {
		b, err := ingest.Bill(r)
		if err != nil {
			slog.Debug("skipping pos bill", "row", i, "error", err)
			continue
		}
		bills = append(bills, b)
	}
	return bills, nil
}

func (p *Provider) FetchProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := p.scan(ctx, p.queries.Products)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	products := make([]models.Product, 0, len(rows))
	for i, r := range rows {
		prod, err := ingest.Product(r)
		if err != nil {
			slog.Debug("skipping pos product", "row", i, "error", err)
			continue
		}
		products = append(products, prod)
	}
	return products, nil
}

func (p *Provider) FetchCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := p.scan(ctx, p.queries.Customers)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	customers := make([]models.Customer, 0, len(rows))
	for i, r := range rows {
		c, err := ingest.Customer(r)
		if err != nil {
			slog.Debug("skipping pos customer", "row", i, "error", err)
			continue
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// scan runs query and returns each row keyed by column name.
func (p *Provider) scan(ctx context.Context, query string) ([]ingest.Record, error) {
	rows, err := p.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ingest.Record
	for rows.Next() {
		m := make(map[string]interface{})
		if err := rows.MapScan(m); err != nil {
			return nil, err
		}
		out = append(out, ingest.Record(m))
	}
	return out, rows.Err()
}

// attachItems groups item rows under their bill's "items" key.
func attachItems(bills, items []ingest.Record) {
	byBill := make(map[string][]ingest.Record)
	for _, it := range items {
		id := recordID(it, "bill_id", "billId")
		if id == "" {
			continue
		}
		byBill[id] = append(byBill[id], it)
	}
	for _, b := range bills {
		id := recordID(b, "id", "bill_id")
		if lines, ok := byBill[id]; ok {
			b["items"] = lines
		}
	}
}

func recordID(r ingest.Record, keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case []byte:
			if len(v) > 0 {
				return string(v)
			}
		case int64:
			return fmt.Sprint(v)
		}
	}
	return ""
}
