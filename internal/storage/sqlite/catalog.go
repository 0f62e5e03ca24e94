package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/bizlens/internal/models"
)

const birthdayLayout = "2006-01-02"

// SaveProducts upserts products by ID.
func (s *SQLiteStore) SaveProducts(ctx context.Context, products []models.Product) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range products {
			p := &products[i]
			if p.ID == "" {
				p.ID = uuid.New().String()
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO products (id, name, category, price, cost_price, cost_price_estimated, stock, min_stock_threshold)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET
				   name = excluded.name,
				   category = excluded.category,
				   price = excluded.price,
				   cost_price = excluded.cost_price,
				   cost_price_estimated = excluded.cost_price_estimated,
				   stock = excluded.stock,
				   min_stock_threshold = excluded.min_stock_threshold`,
				p.ID, p.Name, p.Category, p.Price, p.CostPrice, p.CostPriceEstimated, p.Stock, p.MinStockThreshold,
			)
			if err != nil {
				return fmt.Errorf("failed to insert product: %w", err)
			}
		}
		return nil
	})
}

// FetchProducts returns every stored product ordered by name.
func (s *SQLiteStore) FetchProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, price, cost_price, cost_price_estimated, stock, min_stock_threshold
		 FROM products ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.CostPrice, &p.CostPriceEstimated, &p.Stock, &p.MinStockThreshold); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// SaveCustomers upserts customers by ID.
func (s *SQLiteStore) SaveCustomers(ctx context.Context, customers []models.Customer) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range customers {
			c := &customers[i]
			if c.ID == "" {
				c.ID = uuid.New().String()
			}
			var birthday sql.NullString
			if c.Birthday != nil {
				birthday = sql.NullString{String: c.Birthday.Format(birthdayLayout), Valid: true}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO customers (id, name, phone, loyalty_points, credit_outstanding, visit_count, created_at, birthday)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET
				   name = excluded.name,
				   phone = excluded.phone,
				   loyalty_points = excluded.loyalty_points,
				   credit_outstanding = excluded.credit_outstanding,
				   visit_count = excluded.visit_count,
				   created_at = excluded.created_at,
				   birthday = excluded.birthday`,
				c.ID, c.Name, c.Phone, c.LoyaltyPoints, c.CreditOutstanding, c.VisitCount, toMillis(c.CreatedAt), birthday,
			)
			if err != nil {
				return fmt.Errorf("failed to insert customer: %w", err)
			}
		}
		return nil
	})
}

// FetchCustomers returns every stored customer ordered by name.
func (s *SQLiteStore) FetchCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, phone, loyalty_points, credit_outstanding, visit_count, created_at, birthday
		 FROM customers ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		var (
			c         models.Customer
			createdAt int64
			birthday  sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.LoyaltyPoints, &c.CreditOutstanding, &c.VisitCount, &createdAt, &birthday); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		c.CreatedAt = fromMillis(createdAt)
		if birthday.Valid {
			b, err := time.Parse(birthdayLayout, birthday.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse birthday for customer %s: %w", c.ID, err)
			}
			c.Birthday = &b
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return customers, nil
}
