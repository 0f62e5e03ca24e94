package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/mmynk/bizlens/internal/models"
)

// Urgency is a restock priority tier.
type Urgency string

const (
	UrgencyCritical Urgency = "CRITICAL"
	UrgencyUrgent   Urgency = "URGENT"
	UrgencySoon     Urgency = "SOON"
	UrgencyHealthy  Urgency = "HEALTHY"
)

var urgencyRank = map[Urgency]int{
	UrgencyCritical: 0,
	UrgencyUrgent:   1,
	UrgencySoon:     2,
	UrgencyHealthy:  3,
}

// RestockItem is the plan for a single product.
type RestockItem struct {
	ProductID         string  `json:"productId"`
	Name              string  `json:"name"`
	Stock             int     `json:"stock"`
	MinStockThreshold int     `json:"minStockThreshold"`
	DailyVelocity     float64 `json:"dailyVelocity"`
	DaysUntilStockout int     `json:"daysUntilStockout"`
	RecommendedOrder  int     `json:"recommendedOrder"`
	Urgency           Urgency `json:"urgency"`
	EstimatedCost     float64 `json:"estimatedCost"`
}

// RestockPlan lists products needing attention, most urgent first.
type RestockPlan struct {
	Items            []RestockItem   `json:"items"`
	Counts           map[Urgency]int `json:"counts"`
	TotalReorderCost float64         `json:"totalReorderCost"`
}

// PlanRestock estimates stockout dates and reorder quantities.
func PlanRestock(products []models.Product, bills []models.Bill, now time.Time, cfg RestockConfig) RestockPlan {
	short := unitsSold(bills, TrailingWindow(now, cfg.ShortWindowDays))
	long := unitsSold(bills, TrailingWindow(now, cfg.LongWindowDays))

	plan := RestockPlan{
		Items:  []RestockItem{},
		Counts: make(map[Urgency]int),
	}
	for _, p := range products {
		item := restockItem(p, short[p.ID], long[p.ID], cfg)
		if item.Urgency == UrgencyHealthy && item.RecommendedOrder == 0 {
			continue
		}
		plan.Items = append(plan.Items, item)
		plan.Counts[item.Urgency]++
		plan.TotalReorderCost += item.EstimatedCost
	}
	plan.TotalReorderCost = round2(plan.TotalReorderCost)

	sort.SliceStable(plan.Items, func(i, j int) bool {
		a, b := plan.Items[i], plan.Items[j]
		if urgencyRank[a.Urgency] != urgencyRank[b.Urgency] {
			return urgencyRank[a.Urgency] < urgencyRank[b.Urgency]
		}
		if a.DaysUntilStockout != b.DaysUntilStockout {
			return a.DaysUntilStockout < b.DaysUntilStockout
		}
		return a.Name < b.Name
	})
	return plan
}

// Velocity is units per day over the short window, or over the long
// window when nothing sold recently.
func Velocity(shortQty, longQty, shortDays, longDays int) float64 {
	if v := safeDiv(float64(shortQty), float64(shortDays)); v > 0 {
		return v
	}
	return safeDiv(float64(longQty), float64(longDays))
}

func restockItem(p models.Product, shortQty, longQty int, cfg RestockConfig) RestockItem {
	// Absent thresholds are defaulted during ingest; zero means no buffer.
	minStock := p.MinStockThreshold
	if minStock < 0 {
		minStock = models.DefaultMinStockThreshold
	}
	v := Velocity(shortQty, longQty, cfg.ShortWindowDays, cfg.LongWindowDays)

	days := cfg.NoSignalDays
	switch {
	case p.Stock <= 0:
		days = 0
	case v > 0:
		days = int(math.Floor(float64(p.Stock) / v))
	}

	order := int(math.Ceil(v*float64(cfg.CoverDays))) + minStock - p.Stock
	if order < 0 {
		order = 0
	}

	var u Urgency
	switch {
	case p.Stock <= 0:
		u = UrgencyCritical
	case days <= cfg.UrgentDays:
		u = UrgencyUrgent
	case days <= cfg.SoonDays, days < cfg.CoverDays:
		// Due within soon_days, or before the cover_days horizon a reorder must span.
		u = UrgencySoon
	default:
		u = UrgencyHealthy
	}

	return RestockItem{
		ProductID:         p.ID,
		Name:              p.Name,
		Stock:             p.Stock,
		MinStockThreshold: minStock,
		DailyVelocity:     round2(v),
		DaysUntilStockout: days,
		RecommendedOrder:  order,
		Urgency:           u,
		EstimatedCost:     round2(float64(order) * p.CostPrice),
	}
}
