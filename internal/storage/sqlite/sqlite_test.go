package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/bizlens/internal/models"
	"github.com/mmynk/bizlens/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "bizlens-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreBills(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	issued := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	t.Run("FetchBills on empty store returns empty slice", func(t *testing.T) {
		bills, err := store.FetchBills(ctx)
		if err != nil {
			t.Fatalf("FetchBills failed: %v", err)
		}
		if bills == nil || len(bills) != 0 {
			t.Errorf("Expected empty non-nil slice, got %#v", bills)
		}
	})

	t.Run("SaveBills generates missing IDs", func(t *testing.T) {
		bills := []models.Bill{{CreatedAt: issued, Total: 10, PaymentMode: models.PaymentCash}}
		if err := store.SaveBills(ctx, bills); err != nil {
			t.Fatalf("SaveBills failed: %v", err)
		}
		if bills[0].ID == "" {
			t.Error("Expected bill ID to be generated")
		}
	})

	t.Run("GetBill retrieves complete bill", func(t *testing.T) {
		original := models.Bill{
			ID:            "b-100",
			CreatedAt:     issued,
			Total:         275.5,
			PaymentMode:   models.PaymentUPI,
			CustomerID:    "c1",
			CustomerPhone: "9000000001",
			Items: []models.BillItem{
				{ProductRef: "p1", ProductName: "Rice", Quantity: 2, UnitPrice: 60},
				{ProductRef: "p2", ProductName: "Oil", Quantity: 1, UnitPrice: 155.5},
			},
		}
		if err := store.SaveBills(ctx, []models.Bill{original}); err != nil {
			t.Fatalf("SaveBills failed: %v", err)
		}

		got, err := store.GetBill(ctx, "b-100")
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if !got.CreatedAt.Equal(issued) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, issued)
		}
		if got.Total != 275.5 || got.PaymentMode != models.PaymentUPI {
			t.Errorf("Got total=%v mode=%v", got.Total, got.PaymentMode)
		}
		if got.CustomerID != "c1" || got.CustomerPhone != "9000000001" {
			t.Errorf("Customer keys not preserved: %+v", got)
		}
		if len(got.Items) != 2 || got.Items[1].ProductName != "Oil" || got.Items[0].Quantity != 2 {
			t.Errorf("Items not preserved in order: %+v", got.Items)
		}
	})

	t.Run("SaveBills replaces items of an existing bill", func(t *testing.T) {
		updated := models.Bill{
			ID:          "b-100",
			CreatedAt:   issued,
			Total:       60,
			PaymentMode: models.PaymentCash,
			Items:       []models.BillItem{{ProductRef: "p1", Quantity: 1, UnitPrice: 60}},
		}
		if err := store.SaveBills(ctx, []models.Bill{updated}); err != nil {
			t.Fatalf("SaveBills failed: %v", err)
		}

		got, err := store.GetBill(ctx, "b-100")
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if got.Total != 60 || len(got.Items) != 1 {
			t.Errorf("Expected replaced bill, got total=%v items=%d", got.Total, len(got.Items))
		}
	})

	t.Run("GetBill returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetBill(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("FetchBills returns bills oldest first with items", func(t *testing.T) {
		older := models.Bill{ID: "b-001", CreatedAt: issued.AddDate(0, 0, -3), Total: 5, PaymentMode: models.PaymentCredit}
		if err := store.SaveBills(ctx, []models.Bill{older}); err != nil {
			t.Fatalf("SaveBills failed: %v", err)
		}

		bills, err := store.FetchBills(ctx)
		if err != nil {
			t.Fatalf("FetchBills failed: %v", err)
		}
		if len(bills) != 3 {
			t.Fatalf("Expected 3 bills, got %d", len(bills))
		}
		if bills[0].ID != "b-001" {
			t.Errorf("Expected oldest bill first, got %s", bills[0].ID)
		}
		for _, b := range bills {
			if b.ID == "b-100" && len(b.Items) != 1 {
				t.Errorf("Expected items attached to b-100, got %d", len(b.Items))
			}
			if b.Items == nil {
				t.Errorf("Bill %s has nil items", b.ID)
			}
		}
	})
}

func TestSQLiteStoreCatalog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	products := []models.Product{
		{ID: "p2", Name: "Sugar", Price: 45, CostPrice: 31.5, CostPriceEstimated: true, Stock: -1, MinStockThreshold: 5},
		{ID: "p1", Name: "Atta", Category: "Staples", Price: 480, CostPrice: 400, Stock: 12, MinStockThreshold: 8},
	}
	if err := store.SaveProducts(ctx, products); err != nil {
		t.Fatalf("SaveProducts failed: %v", err)
	}

	gotProducts, err := store.FetchProducts(ctx)
	if err != nil {
		t.Fatalf("FetchProducts failed: %v", err)
	}
	if len(gotProducts) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(gotProducts))
	}
	if gotProducts[0] != products[1] {
		t.Errorf("Products[0] = %+v, want %+v", gotProducts[0], products[1])
	}
	if gotProducts[1] != products[0] {
		t.Errorf("Products[1] = %+v, want %+v", gotProducts[1], products[0])
	}

	birthday := time.Date(1990, 6, 21, 0, 0, 0, 0, time.UTC)
	joined := time.Date(2023, 11, 2, 9, 0, 0, 0, time.UTC)
	customers := []models.Customer{
		{ID: "c1", Name: "Lakshmi", Phone: "9000000007", LoyaltyPoints: 1200, CreditOutstanding: 350.75, VisitCount: 14, CreatedAt: joined, Birthday: &birthday},
		{ID: "c2", Name: "Arun"},
	}
	if err := store.SaveCustomers(ctx, customers); err != nil {
		t.Fatalf("SaveCustomers failed: %v", err)
	}

	gotCustomers, err := store.FetchCustomers(ctx)
	if err != nil {
		t.Fatalf("FetchCustomers failed: %v", err)
	}
	if len(gotCustomers) != 2 {
		t.Fatalf("Expected 2 customers, got %d", len(gotCustomers))
	}
	arun, lakshmi := gotCustomers[0], gotCustomers[1]
	if arun.Birthday != nil || !arun.CreatedAt.IsZero() {
		t.Errorf("Expected zero optional fields for Arun, got %+v", arun)
	}
	if lakshmi.Birthday == nil || !lakshmi.Birthday.Equal(birthday) {
		t.Errorf("Birthday = %v, want %v", lakshmi.Birthday, birthday)
	}
	if !lakshmi.CreatedAt.Equal(joined) || lakshmi.CreditOutstanding != 350.75 || lakshmi.VisitCount != 14 {
		t.Errorf("Customer not preserved: %+v", lakshmi)
	}
}
