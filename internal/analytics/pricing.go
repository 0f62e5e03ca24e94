package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/mmynk/bizlens/internal/models"
)

// Strategy is the pricing action suggested for a product.
type Strategy string

const (
	StrategyIncrease Strategy = "increase"
	StrategyDecrease Strategy = "decrease"
	StrategyOptimize Strategy = "optimize"
)

// PriceAdvice is the recommendation for one product.
type PriceAdvice struct {
	ProductID      string   `json:"productId"`
	Name           string   `json:"name"`
	CurrentPrice   float64  `json:"currentPrice"`
	CostPrice      float64  `json:"costPrice"`
	MarginPercent  float64  `json:"marginPercent"`
	MonthlySold    int      `json:"monthlySold"`
	Stock          int      `json:"stock"`
	Strategy       Strategy `json:"strategy"`
	SuggestedPrice float64  `json:"suggestedPrice"`
	Reason         string   `json:"reason"`

	// AnnualImpact is only set for increases.
	AnnualImpact float64 `json:"potentialAnnualImpact"`
}

// PricingReport is the output of AdvisePricing.
type PricingReport struct {
	Products             []PriceAdvice    `json:"products"`
	AverageMarginPercent float64          `json:"averageMarginPercent"`
	TotalAnnualImpact    float64          `json:"totalPotentialAnnualImpact"`
	StrategyCounts       map[Strategy]int `json:"strategyCounts"`
}

// AdvisePricing classifies every product by margin and sales speed.
// Products sort by annual impact, then by name.
func AdvisePricing(products []models.Product, bills []models.Bill, now time.Time, cfg PricingConfig) PricingReport {
	sold := unitsSold(bills, TrailingWindow(now, cfg.WindowDays))

	report := PricingReport{
		Products:       []PriceAdvice{},
		StrategyCounts: make(map[Strategy]int),
	}
	var marginSum float64
	for _, p := range products {
		a := AdviseProduct(p, sold[p.ID], cfg)
		report.Products = append(report.Products, a)
		report.StrategyCounts[a.Strategy]++
		report.TotalAnnualImpact += a.AnnualImpact
		marginSum += a.MarginPercent
	}
	report.AverageMarginPercent = round2(safeDiv(marginSum, float64(len(products))))
	report.TotalAnnualImpact = round2(report.TotalAnnualImpact)

	sort.SliceStable(report.Products, func(i, j int) bool {
		a, b := report.Products[i], report.Products[j]
		if a.AnnualImpact != b.AnnualImpact {
			return a.AnnualImpact > b.AnnualImpact
		}
		return a.Name < b.Name
	})
	return report
}

// AdviseProduct applies the pricing rules in order; the first match wins.
func AdviseProduct(p models.Product, monthlySold int, cfg PricingConfig) PriceAdvice {
	m := p.Margin()
	a := PriceAdvice{
		ProductID:     p.ID,
		Name:          p.Name,
		CurrentPrice:  p.Price,
		CostPrice:     p.CostPrice,
		MarginPercent: round2(m * 100),
		MonthlySold:   monthlySold,
		Stock:         p.Stock,
		Strategy:      StrategyOptimize,
	}
	suggested := p.Price

	switch {
	case m < cfg.LowMargin:
		a.Strategy = StrategyIncrease
		suggested = math.Ceil(safeDiv(p.CostPrice, 1-cfg.TargetMargin))
		a.Reason = "Margin is below the minimum; raise price to reach the target margin"
	case p.Stock > cfg.SlowStockAbove && monthlySold < cfg.SlowSoldBelow && m > cfg.SlowMarginAbove:
		a.Strategy = StrategyDecrease
		suggested = p.Price * cfg.SlowDiscount
		a.Reason = "Slow moving with high stock; a small discount can clear inventory"
	case monthlySold > cfg.FastSoldAbove && m > cfg.FastMarginMin && m < cfg.FastMarginMax:
		a.Strategy = StrategyIncrease
		suggested = p.Price * cfg.FastIncrease
		a.Reason = "Selling fast at a moderate margin; demand can absorb a small increase"
	case m > cfg.HighMargin && monthlySold < cfg.HighMarginSoldLT:
		a.Strategy = StrategyDecrease
		suggested = p.Price * cfg.HighDiscount
		a.Reason = "Very high margin but few sales; a lower price may lift volume"
	case m > cfg.HighMargin:
		a.Reason = "Very high margin with steady sales; keep price and watch competitors"
	case m <= cfg.HealthyMarginMax:
		a.Reason = "Margin is healthy; keep current price"
	default:
		a.Reason = "No adjustment indicated; keep current price"
	}

	a.SuggestedPrice = round2(suggested)
	if a.Strategy == StrategyIncrease {
		if delta := a.SuggestedPrice - p.Price; delta > 0 {
			a.AnnualImpact = round2(delta * float64(monthlySold) * 12)
		}
	}
	return a
}
