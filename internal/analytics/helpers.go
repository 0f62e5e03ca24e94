package analytics

import (
	"math"
	"time"

	"github.com/mmynk/bizlens/internal/models"
)

// safeDiv returns a/b, or 0 when b is zero or the result is not finite.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	r := a / b
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round2 rounds to two decimals, the precision of every currency output.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// customerIndex joins bills to customers. Sources are inconsistent about
// which key they populate, so a bill matches a customer by ID or by phone.
type customerIndex struct {
	byID    map[string][]models.Bill
	byPhone map[string][]models.Bill
}

func newCustomerIndex(bills []models.Bill) customerIndex {
	idx := customerIndex{
		byID:    make(map[string][]models.Bill),
		byPhone: make(map[string][]models.Bill),
	}
	for _, b := range bills {
		if b.CustomerID != "" {
			idx.byID[b.CustomerID] = append(idx.byID[b.CustomerID], b)
		}
		if b.CustomerPhone != "" {
			idx.byPhone[b.CustomerPhone] = append(idx.byPhone[b.CustomerPhone], b)
		}
	}
	return idx
}

// billsFor returns the customer's bills, each at most once, in input order
// of the ID matches followed by phone-only matches.
func (idx customerIndex) billsFor(c models.Customer) []models.Bill {
	var out []models.Bill
	seen := make(map[string]bool)
	add := func(bills []models.Bill) {
		for _, b := range bills {
			if b.ID != "" && seen[b.ID] {
				continue
			}
			seen[b.ID] = true
			out = append(out, b)
		}
	}
	if c.ID != "" {
		add(idx.byID[c.ID])
	}
	if c.Phone != "" {
		add(idx.byPhone[c.Phone])
	}
	return out
}

// lastPurchase returns the latest bill time, or the zero time for no bills.
func lastPurchase(bills []models.Bill) time.Time {
	var last time.Time
	for _, b := range bills {
		if b.CreatedAt.After(last) {
			last = b.CreatedAt
		}
	}
	return last
}

// unitsSold sums item quantities per product ref for bills in w.
func unitsSold(bills []models.Bill, w Window) map[string]int {
	out := make(map[string]int)
	for _, b := range bills {
		if !w.Contains(b.CreatedAt) {
			continue
		}
		for _, it := range b.Items {
			out[it.ProductRef] += it.Quantity
		}
	}
	return out
}
