package ingest

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/bizlens/internal/models"
)

func TestBillAliases(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   models.Bill
	}{
		{
			name: "camel case",
			record: Record{
				"id": "b1", "createdAt": "2024-03-15T10:30:00Z", "total": 450.5,
				"paymentMode": "UPI", "customerId": "c1",
			},
			want: models.Bill{
				ID: "b1", CreatedAt: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), Total: 450.5,
				PaymentMode: models.PaymentUPI, CustomerID: "c1", Items: []models.BillItem{},
			},
		},
		{
			name: "snake case with string amounts",
			record: Record{
				"bill_no": "INV-7", "bill_date": "2024-03-15 18:05:00", "net_payable": "₹1,250.456",
				"payment_method": "khata", "customer_phone": "9876543210",
			},
			want: models.Bill{
				ID: "INV-7", CreatedAt: time.Date(2024, 3, 15, 18, 5, 0, 0, time.UTC), Total: 1250.46,
				PaymentMode: models.PaymentCredit, CustomerPhone: "9876543210", Items: []models.BillItem{},
			},
		},
		{
			name: "driver bytes and unix millis",
			record: Record{
				"_id": []byte("b9"), "created_at": int64(1710498600000), "amount": []byte("99.90"),
			},
			want: models.Bill{
				ID: "b9", CreatedAt: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), Total: 99.9,
				PaymentMode: models.PaymentCash, Items: []models.BillItem{},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Bill(tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.want.ID, got.ID)
			assert.True(t, tt.want.CreatedAt.Equal(got.CreatedAt), "createdAt = %v", got.CreatedAt)
			assert.Equal(t, tt.want.Total, got.Total)
			assert.Equal(t, tt.want.PaymentMode, got.PaymentMode)
			assert.Equal(t, tt.want.CustomerID, got.CustomerID)
			assert.Equal(t, tt.want.CustomerPhone, got.CustomerPhone)
			assert.Equal(t, tt.want.Items, got.Items)
		})
	}
}

func TestBillItemsFromJSON(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"date": "2024-03-15",
		"line_items": [
			{"product_id": "p1", "qty": 3, "unit_price": "20"},
			{"product": "Sugar", "quantity": 0, "price": 45.5}
		]
	}`), &r))

	b, err := Bill(r)
	require.NoError(t, err)

	_, err = uuid.Parse(b.ID)
	assert.NoError(t, err, "missing id gets a uuid")
	require.Len(t, b.Items, 2)
	assert.Equal(t, models.BillItem{ProductRef: "p1", Quantity: 3, UnitPrice: 20}, b.Items[0])
	assert.Equal(t, 1, b.Items[1].Quantity, "quantity is at least one")
	assert.Equal(t, 105.5, b.Total, "total falls back to the item sum")
}

func TestBillRejects(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr error
	}{
		{"no timestamp", Record{"id": "b1", "total": 10}, ErrInvalidRecord},
		{"bad timestamp", Record{"id": "b1", "date": "yesterday", "total": 10}, ErrInvalidRecord},
		{"negative total", Record{"id": "b1", "date": "2024-03-15", "total": -5}, ErrInvalidRecord},
		{"items not a list", Record{"id": "b1", "date": "2024-03-15", "items": "rice"}, ErrInvalidRecord},
		{"cancelled", Record{"id": "b1", "date": "2024-03-15", "status": "Cancelled"}, ErrCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bill(tt.record)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Bill() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProductDefaults(t *testing.T) {
	p, err := Product(Record{"product_name": "Atta 10kg", "mrp": "Rs. 480", "current_stock": "12"})
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 480.0, p.Price)
	assert.Equal(t, 336.0, p.CostPrice)
	assert.True(t, p.CostPriceEstimated)
	assert.Equal(t, 12, p.Stock)
	assert.Equal(t, models.DefaultMinStockThreshold, p.MinStockThreshold)

	p, err = Product(Record{"id": "p2", "name": "Ghee", "price": 650, "cost_price": 540, "stock": -2, "reorder_level": 8})
	require.NoError(t, err)
	assert.Equal(t, 540.0, p.CostPrice)
	assert.False(t, p.CostPriceEstimated)
	assert.Equal(t, -2, p.Stock, "negative stock is kept for anomaly detection")
	assert.Equal(t, 8, p.MinStockThreshold)

	_, err = Product(Record{"price": 10})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestProductExplicitZeros(t *testing.T) {
	p, err := Product(Record{"id": "free", "name": "Sample sachet", "price": 5, "cost_price": 0, "min_stock_threshold": 0})
	require.NoError(t, err)

	assert.Equal(t, 0.0, p.CostPrice)
	assert.False(t, p.CostPriceEstimated, "an explicit zero cost is not estimated")
	assert.Equal(t, 0, p.MinStockThreshold)

	p, err = Product(Record{"id": "bad", "name": "Bad", "price": 5, "cost_price": "n/a", "reorder_level": -3})
	require.NoError(t, err)
	assert.Equal(t, 3.5, p.CostPrice)
	assert.True(t, p.CostPriceEstimated)
	assert.Equal(t, models.DefaultMinStockThreshold, p.MinStockThreshold)
}

func TestCustomerAliases(t *testing.T) {
	c, err := Customer(Record{
		"customer_id":    "c7",
		"name":           "Lakshmi",
		"mobile":         "9000000007",
		"points":         "1,200",
		"credit_balance": 350.75,
		"total_visits":   json.Number("14"),
		"joined_at":      "2023-11-02",
		"dob":            "1990-06-21",
	})
	require.NoError(t, err)

	assert.Equal(t, "c7", c.ID)
	assert.Equal(t, "9000000007", c.Phone)
	assert.Equal(t, 1200, c.LoyaltyPoints)
	assert.Equal(t, 350.75, c.CreditOutstanding)
	assert.Equal(t, 14, c.VisitCount)
	assert.Equal(t, time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC), c.CreatedAt)
	require.NotNil(t, c.Birthday)
	assert.Equal(t, time.June, c.Birthday.Month())

	c, err = Customer(Record{"phone": "9000000008", "visits": -3, "outstanding": "-10"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Zero(t, c.VisitCount)
	assert.Zero(t, c.CreditOutstanding)
	assert.Nil(t, c.Birthday)

	_, err = Customer(Record{"name": "Nobody"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestPaymentMode(t *testing.T) {
	tests := map[string]models.PaymentMode{
		"cash":        models.PaymentCash,
		"GPay":        models.PaymentUPI,
		"phonepe":     models.PaymentUPI,
		"credit_card": models.PaymentCard,
		"Udhaar":      models.PaymentCredit,
		"credit":      models.PaymentCredit,
		"":            models.PaymentCash,
		"barter":      models.PaymentCash,
	}
	for in, want := range tests {
		if got := PaymentMode(in); got != want {
			t.Errorf("PaymentMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	products := []Record{
		{"id": "p1", "name": "Toor Dal", "price": 140, "stock": 30},
		{"name": ""},
	}
	bills := []Record{
		{"id": "b1", "date": "2024-03-15", "total": 280, "items": []any{
			map[string]any{"product": "toor dal", "qty": 2},
			map[string]any{"product_id": "p1", "qty": 1},
			map[string]any{"product_id": "gone", "qty": 1},
		}},
		{"id": "b2", "total": 10},
		{"id": "b3", "date": "2024-03-14", "status": "void"},
	}
	customers := []Record{{"id": "c1", "name": "Ravi"}}

	snap, report := Normalize(bills, products, customers)

	assert.Equal(t, 1, report.Bills)
	assert.Equal(t, 1, report.Products)
	assert.Equal(t, 1, report.Customers)
	require.Len(t, report.Skipped, 3)
	assert.Equal(t, Skipped{Kind: KindProduct, Index: 1, Reason: report.Skipped[0].Reason}, report.Skipped[0])
	assert.Equal(t, KindBill, report.Skipped[1].Kind)
	assert.Equal(t, 1, report.Skipped[1].Index)
	assert.Equal(t, ErrCancelled.Error(), report.Skipped[2].Reason)

	require.Len(t, snap.Bills, 1)
	refs := []string{}
	for _, it := range snap.Bills[0].Items {
		refs = append(refs, it.ProductRef)
	}
	assert.Equal(t, []string{"p1", "p1", "gone"}, refs)
}
