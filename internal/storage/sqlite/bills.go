package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/bizlens/internal/models"
	"github.com/mmynk/bizlens/internal/storage"
)

// SaveBills upserts bills and replaces their items.
func (s *SQLiteStore) SaveBills(ctx context.Context, bills []models.Bill) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range bills {
			bill := &bills[i]
			if bill.ID == "" {
				bill.ID = uuid.New().String()
			}

			_, err := tx.ExecContext(ctx,
				`INSERT INTO bills (id, created_at, total, payment_mode, customer_id, customer_phone)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET
				   created_at = excluded.created_at,
				   total = excluded.total,
				   payment_mode = excluded.payment_mode,
				   customer_id = excluded.customer_id,
				   customer_phone = excluded.customer_phone`,
				bill.ID, toMillis(bill.CreatedAt), bill.Total, string(bill.PaymentMode), bill.CustomerID, bill.CustomerPhone,
			)
			if err != nil {
				return fmt.Errorf("failed to insert bill: %w", err)
			}

			if _, err := tx.ExecContext(ctx, "DELETE FROM bill_items WHERE bill_id = ?", bill.ID); err != nil {
				return fmt.Errorf("failed to clear bill items: %w", err)
			}
			for pos, item := range bill.Items {
				_, err = tx.ExecContext(ctx,
					`INSERT INTO bill_items (bill_id, position, product_ref, product_name, quantity, unit_price)
					 VALUES (?, ?, ?, ?, ?, ?)`,
					bill.ID, pos, item.ProductRef, item.ProductName, item.Quantity, item.UnitPrice,
				)
				if err != nil {
					return fmt.Errorf("failed to insert bill item: %w", err)
				}
			}
		}
		return nil
	})
}

// FetchBills returns every stored bill with its items, oldest first.
func (s *SQLiteStore) FetchBills(ctx context.Context) ([]models.Bill, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, created_at, total, payment_mode, customer_id, customer_phone FROM bills ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	bills := []models.Bill{}
	index := make(map[string]int)
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		index[bill.ID] = len(bills)
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}

	itemRows, err := s.db.QueryContext(ctx,
		"SELECT bill_id, product_ref, product_name, quantity, unit_price FROM bill_items ORDER BY bill_id, position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bill items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var billID string
		var item models.BillItem
		if err := itemRows.Scan(&billID, &item.ProductRef, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan bill item: %w", err)
		}
		if i, ok := index[billID]; ok {
			bills[i].Items = append(bills[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bill items: %w", err)
	}

	return bills, nil
}

// GetBill retrieves a bill by ID, including its items.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, created_at, total, payment_mode, customer_id, customer_phone FROM bills WHERE id = ?",
		billID,
	)
	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT product_ref, product_name, quantity, unit_price FROM bill_items WHERE bill_id = ? ORDER BY position",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.BillItem
		if err := rows.Scan(&item.ProductRef, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan bill item: %w", err)
		}
		bill.Items = append(bill.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bill items: %w", err)
	}

	return &bill, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(sc scanner) (models.Bill, error) {
	var (
		bill      models.Bill
		createdAt int64
		mode      string
	)
	err := sc.Scan(&bill.ID, &createdAt, &bill.Total, &mode, &bill.CustomerID, &bill.CustomerPhone)
	if errors.Is(err, sql.ErrNoRows) {
		return bill, err
	}
	if err != nil {
		return bill, fmt.Errorf("failed to scan bill: %w", err)
	}
	bill.CreatedAt = fromMillis(createdAt)
	bill.PaymentMode = models.PaymentMode(mode)
	bill.Items = []models.BillItem{}
	return bill, nil
}
