// Package ingest maps upstream records into the canonical models.
//
// Billing systems and POS exports disagree on field names and number
// formats. Every alias is resolved here so analyzers only ever see
// models.Bill, models.Product and models.Customer.
package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/bizlens/internal/models"
)

// ErrInvalidRecord is returned for records that cannot be normalized.
var ErrInvalidRecord = errors.New("invalid record")

// ErrCancelled is returned for bills voided upstream.
var ErrCancelled = errors.New("bill cancelled")

// Field aliases, first non-empty wins.
var (
	billID        = []string{"id", "_id", "bill_id", "bill_no"}
	billCreatedAt = []string{"createdAt", "created_at", "date", "bill_date"}
	billTotal     = []string{"total", "total_amount", "net_payable", "amount", "grand_total"}
	billPayment   = []string{"paymentMode", "payment_mode", "payment_method"}
	billCustomer  = []string{"customerId", "customer_id"}
	billPhone     = []string{"customerPhone", "customer_phone", "phone", "mobile"}
	billItems     = []string{"items", "line_items"}
	billStatus    = []string{"status", "bill_status"}

	itemProduct  = []string{"productRef", "product_id", "productId", "product"}
	itemName     = []string{"name", "product_name"}
	itemQuantity = []string{"quantity", "qty"}
	itemPrice    = []string{"unitPrice", "unit_price", "price"}

	productID       = []string{"id", "_id", "product_id"}
	productName     = []string{"name", "product_name"}
	productPrice    = []string{"price", "unit_price", "selling_price", "mrp"}
	productCost     = []string{"costPrice", "cost_price", "purchase_price", "cost"}
	productStock    = []string{"stock", "current_stock", "quantity", "qty"}
	productMinStock = []string{"minStockThreshold", "min_stock_threshold", "low_stock_threshold", "reorder_level"}
	productCategory = []string{"category"}

	customerID        = []string{"id", "_id", "customer_id"}
	customerName      = []string{"name"}
	customerPhone     = []string{"phone", "mobile", "phone_number"}
	customerPoints    = []string{"loyaltyPoints", "loyalty_points", "points"}
	customerCredit    = []string{"creditOutstanding", "credit", "outstanding", "credit_balance"}
	customerVisits    = []string{"visitCount", "visit_count", "visits", "total_visits"}
	customerCreatedAt = []string{"createdAt", "created_at", "joined_at"}
	customerBirthday  = []string{"birthday", "dob", "date_of_birth"}
)

// Kind names the collection a record came from.
type Kind string

const (
	KindBill     Kind = "bill"
	KindProduct  Kind = "product"
	KindCustomer Kind = "customer"
)

// Skipped describes a record that was left out of the snapshot.
type Skipped struct {
	Kind   Kind   `json:"kind"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Report counts what Normalize accepted and why anything was dropped.
type Report struct {
	Bills     int       `json:"bills"`
	Products  int       `json:"products"`
	Customers int       `json:"customers"`
	Skipped   []Skipped `json:"skipped"`
}

// Normalize converts raw collections into a snapshot. Bad records are
// skipped and listed in the report; they never fail the whole batch.
// Bill item product references are resolved against the products by ID,
// then by case-insensitive name.
func Normalize(bills, products, customers []Record) (models.Snapshot, Report) {
	snap := models.Snapshot{
		Bills:     make([]models.Bill, 0, len(bills)),
		Products:  make([]models.Product, 0, len(products)),
		Customers: make([]models.Customer, 0, len(customers)),
	}
	report := Report{Skipped: []Skipped{}}

	for i, r := range products {
		p, err := Product(r)
		if err != nil {
			report.Skipped = append(report.Skipped, Skipped{Kind: KindProduct, Index: i, Reason: err.Error()})
			continue
		}
		snap.Products = append(snap.Products, p)
	}
	resolve := newProductResolver(snap.Products)

	for i, r := range bills {
		b, err := Bill(r)
		if err != nil {
			report.Skipped = append(report.Skipped, Skipped{Kind: KindBill, Index: i, Reason: err.Error()})
			continue
		}
		for j := range b.Items {
			b.Items[j].ProductRef = resolve(b.Items[j].ProductRef, b.Items[j].ProductName)
		}
		snap.Bills = append(snap.Bills, b)
	}

	for i, r := range customers {
		c, err := Customer(r)
		if err != nil {
			report.Skipped = append(report.Skipped, Skipped{Kind: KindCustomer, Index: i, Reason: err.Error()})
			continue
		}
		snap.Customers = append(snap.Customers, c)
	}

	report.Bills = len(snap.Bills)
	report.Products = len(snap.Products)
	report.Customers = len(snap.Customers)
	return snap, report
}

// Bill normalizes one bill record.
func Bill(r Record) (models.Bill, error) {
	switch strings.ToLower(r.str(billStatus...)) {
	case "cancelled", "canceled", "void", "voided":
		return models.Bill{}, ErrCancelled
	}

	createdAt, ok := r.timestamp(billCreatedAt...)
	if !ok {
		return models.Bill{}, fmt.Errorf("%w: bill has no valid timestamp", ErrInvalidRecord)
	}

	b := models.Bill{
		ID:            r.str(billID...),
		CreatedAt:     createdAt,
		PaymentMode:   PaymentMode(r.str(billPayment...)),
		CustomerID:    r.str(billCustomer...),
		CustomerPhone: r.str(billPhone...),
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	items, err := billItemsOf(r)
	if err != nil {
		return models.Bill{}, err
	}
	b.Items = items

	total, ok := r.money(billTotal...)
	if !ok {
		// Only when the source has no total at all do item prices stand in.
		for _, it := range items {
			total += float64(it.Quantity) * it.UnitPrice
		}
		total = roundMoney(total)
	}
	if total < 0 {
		return models.Bill{}, fmt.Errorf("%w: negative bill total %.2f", ErrInvalidRecord, total)
	}
	b.Total = total
	return b, nil
}

func billItemsOf(r Record) ([]models.BillItem, error) {
	raw, ok := r.lookup(billItems...)
	if !ok {
		return []models.BillItem{}, nil
	}
	var rows []Record
	switch t := raw.(type) {
	case []Record:
		rows = t
	case []map[string]any:
		for _, m := range t {
			rows = append(rows, Record(m))
		}
	case []any:
		for _, v := range t {
			m, isMap := v.(map[string]any)
			if !isMap {
				return nil, fmt.Errorf("%w: bill item is %T, want object", ErrInvalidRecord, v)
			}
			rows = append(rows, Record(m))
		}
	default:
		return nil, fmt.Errorf("%w: bill items are %T, want list", ErrInvalidRecord, raw)
	}

	items := make([]models.BillItem, 0, len(rows))
	for _, row := range rows {
		qty, _ := row.integer(itemQuantity...)
		if qty < 1 {
			qty = 1
		}
		price, _ := row.money(itemPrice...)
		items = append(items, models.BillItem{
			ProductRef:  row.str(itemProduct...),
			ProductName: row.str(itemName...),
			Quantity:    qty,
			UnitPrice:   price,
		})
	}
	return items, nil
}

// Product normalizes one inventory record. A missing cost price is
// estimated from the selling price and flagged; an explicit zero is kept.
func Product(r Record) (models.Product, error) {
	p := models.Product{
		ID:       r.str(productID...),
		Name:     r.str(productName...),
		Category: r.str(productCategory...),
	}
	if p.ID == "" && p.Name == "" {
		return models.Product{}, fmt.Errorf("%w: product has neither id nor name", ErrInvalidRecord)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	p.Price, _ = r.money(productPrice...)
	cost, ok := r.money(productCost...)
	if !ok {
		cost = roundMoney(p.Price * models.CostPriceRatio)
		p.CostPriceEstimated = true
	}
	p.CostPrice = cost

	p.Stock, _ = r.integer(productStock...)
	minStock, ok := r.integer(productMinStock...)
	if !ok || minStock < 0 {
		minStock = models.DefaultMinStockThreshold
	}
	p.MinStockThreshold = minStock
	return p, nil
}

// Customer normalizes one customer record. Negative counters are clamped
// to zero.
func Customer(r Record) (models.Customer, error) {
	c := models.Customer{
		ID:    r.str(customerID...),
		Name:  r.str(customerName...),
		Phone: r.str(customerPhone...),
	}
	if c.ID == "" && c.Phone == "" {
		return models.Customer{}, fmt.Errorf("%w: customer has neither id nor phone", ErrInvalidRecord)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	c.LoyaltyPoints, _ = r.integer(customerPoints...)
	c.VisitCount, _ = r.integer(customerVisits...)
	c.CreditOutstanding, _ = r.money(customerCredit...)
	c.LoyaltyPoints = max(c.LoyaltyPoints, 0)
	c.VisitCount = max(c.VisitCount, 0)
	c.CreditOutstanding = max(c.CreditOutstanding, 0)

	c.CreatedAt, _ = r.timestamp(customerCreatedAt...)
	if bday, ok := r.timestamp(customerBirthday...); ok {
		c.Birthday = &bday
	}
	return c, nil
}

// PaymentMode maps the many upstream spellings onto the four modes.
// Anything unrecognized counts as cash.
func PaymentMode(s string) models.PaymentMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upi", "online", "gpay", "googlepay", "phonepe", "paytm":
		return models.PaymentUPI
	case "card", "debit", "debit_card", "credit_card":
		return models.PaymentCard
	case "credit", "khata", "udhaar", "udhar":
		return models.PaymentCredit
	default:
		return models.PaymentCash
	}
}

func newProductResolver(products []models.Product) func(ref, name string) string {
	byID := make(map[string]bool, len(products))
	byName := make(map[string]string, len(products))
	for _, p := range products {
		byID[p.ID] = true
		key := strings.ToLower(p.Name)
		if _, dup := byName[key]; !dup && key != "" {
			byName[key] = p.ID
		}
	}
	return func(ref, name string) string {
		if byID[ref] {
			return ref
		}
		if id, ok := byName[strings.ToLower(ref)]; ok {
			return id
		}
		if id, ok := byName[strings.ToLower(name)]; ok {
			return id
		}
		return ref
	}
}
