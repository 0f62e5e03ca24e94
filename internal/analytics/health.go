package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/mmynk/bizlens/internal/models"
)

// Health metric keys.
const (
	MetricGrowth      = "growth"
	MetricInventory   = "inventory_health"
	MetricRetention   = "customer_retention"
	MetricAvgBill     = "avg_bill_value"
	MetricFrequency   = "transaction_frequency"
	MetricCollection  = "payment_collection"
	MetricDiversity   = "product_diversity"
	MetricCredit      = "credit_health"
	MetricConsistency = "sales_consistency"
)

// GradeNoData is returned instead of a letter grade when there are no bills.
const GradeNoData = "N/A"

// MetricStatus is a presentation label for a sub-metric.
type MetricStatus string

const (
	StatusExcellent      MetricStatus = "excellent"
	StatusGood           MetricStatus = "good"
	StatusNeedsAttention MetricStatus = "needs_attention"
)

// HealthMetric is one weighted component of the health score.
type HealthMetric struct {
	Key    string       `json:"key"`
	Name   string       `json:"name"`
	Score  float64      `json:"score"`
	Cap    float64      `json:"cap"`
	Value  float64      `json:"value"`
	Detail string       `json:"detail"`
	Status MetricStatus `json:"status"`
}

// HealthScore is the output of ScoreHealth.
type HealthScore struct {
	Score          int            `json:"score"`
	Grade          string         `json:"grade"`
	Recommendation string         `json:"recommendation"`
	Metrics        []HealthMetric `json:"metrics"`
}

var gradeBands = []struct {
	min            int
	grade          string
	recommendation string
}{
	{90, "A+", "Excellent! Your business is thriving. Keep up the great work."},
	{80, "A", "Great performance. Focus on the few metrics that need attention."},
	{70, "B", "Good health. There is room to grow sales and retention."},
	{60, "C", "Average performance. Review inventory and customer engagement."},
	{50, "D", "Below average. Act on the metrics marked needs attention."},
	{0, "F", "Critical. Immediate action is needed across several areas."},
}

// GradeFor maps a 0-100 score to its letter grade and recommendation.
func GradeFor(score int) (string, string) {
	for _, b := range gradeBands {
		if score >= b.min {
			return b.grade, b.recommendation
		}
	}
	last := gradeBands[len(gradeBands)-1]
	return last.grade, last.recommendation
}

// ScoreHealth aggregates nine weighted sub-metrics into a 0-100 score.
func ScoreHealth(snap models.Snapshot, now time.Time, cfg HealthConfig) HealthScore {
	if len(snap.Bills) == 0 {
		return HealthScore{
			Score:          0,
			Grade:          GradeNoData,
			Recommendation: "No sales recorded yet. Start billing to see your business health.",
			Metrics:        []HealthMetric{},
		}
	}

	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 30
	}
	window := TrailingWindow(now, windowDays)
	recent := InWindow(snap.Bills, window)

	metrics := []HealthMetric{
		growthMetric(snap.Bills, now),
		inventoryMetric(snap.Products),
		retentionMetric(snap.Bills, snap.Customers),
		avgBillMetric(recent, cfg.AvgBillDivisor),
		frequencyMetric(recent, windowDays),
		collectionMetric(recent),
		diversityMetric(recent, snap.Products),
		creditMetric(snap.Customers),
		consistencyMetric(recent, now.Location(), windowDays),
	}

	var total, caps float64
	for i := range metrics {
		m := &metrics[i]
		m.Score = round2(m.Score)
		m.Value = round2(m.Value)
		m.Status = metricStatus(m.Key, m.Score, m.Cap, cfg)
		total += m.Score
		caps += m.Cap
	}

	score := int(math.Round(100 * safeDiv(total, caps)))
	score = int(clamp(float64(score), 0, 100))
	grade, rec := GradeFor(score)
	return HealthScore{
		Score:          score,
		Grade:          grade,
		Recommendation: rec,
		Metrics:        metrics,
	}
}

func growthMetric(bills []models.Bill, now time.Time) HealthMetric {
	weekly := WeeklyTotals(bills, now, 2)
	pct := GrowthRate(weekly[0], weekly[1]) * 100
	return HealthMetric{
		Key:    MetricGrowth,
		Name:   "Growth",
		Cap:    15,
		Value:  pct,
		Score:  clamp(7.5+pct*0.5, 0, 15),
		Detail: fmt.Sprintf("%.1f%% week over week", pct),
	}
}

func inventoryMetric(products []models.Product) HealthMetric {
	var low, out int
	for _, p := range products {
		switch {
		case p.Stock <= 0:
			out++
		case p.Stock <= p.MinStockThreshold:
			low++
		}
	}
	return HealthMetric{
		Key:    MetricInventory,
		Name:   "Inventory health",
		Cap:    15,
		Value:  float64(low + out),
		Score:  clamp(15-2*float64(low)-5*float64(out), 0, 15),
		Detail: fmt.Sprintf("%d low stock, %d out of stock", low, out),
	}
}

func retentionMetric(bills []models.Bill, customers []models.Customer) HealthMetric {
	idx := newCustomerIndex(bills)
	repeat := 0
	for _, c := range customers {
		if c.VisitCount > 1 || len(idx.billsFor(c)) >= 2 {
			repeat++
		}
	}
	rate := safeDiv(float64(repeat), float64(len(customers)))
	return HealthMetric{
		Key:    MetricRetention,
		Name:   "Customer retention",
		Cap:    15,
		Value:  rate * 100,
		Score:  rate * 15,
		Detail: fmt.Sprintf("%d of %d customers returned", repeat, len(customers)),
	}
}

func avgBillMetric(recent []models.Bill, divisor float64) HealthMetric {
	avg := safeDiv(Revenue(recent), float64(len(recent)))
	return HealthMetric{
		Key:    MetricAvgBill,
		Name:   "Average bill value",
		Cap:    10,
		Value:  avg,
		Score:  math.Min(10, safeDiv(avg, divisor)),
		Detail: fmt.Sprintf("%.2f per bill", avg),
	}
}

func frequencyMetric(recent []models.Bill, days int) HealthMetric {
	rate := safeDiv(float64(len(recent)), float64(days))
	return HealthMetric{
		Key:    MetricFrequency,
		Name:   "Transaction frequency",
		Cap:    10,
		Value:  rate,
		Score:  math.Min(10, rate*2),
		Detail: fmt.Sprintf("%.1f bills per day", rate),
	}
}

func collectionMetric(recent []models.Bill) HealthMetric {
	credit := 0
	for _, b := range recent {
		if b.PaymentMode == models.PaymentCredit {
			credit++
		}
	}
	pct := safeDiv(float64(credit), float64(len(recent))) * 100
	return HealthMetric{
		Key:    MetricCollection,
		Name:   "Payment collection",
		Cap:    10,
		Value:  pct,
		Score:  math.Max(0, 10-pct*0.5),
		Detail: fmt.Sprintf("%.1f%% of bills on credit", pct),
	}
}

func diversityMetric(recent []models.Bill, products []models.Product) HealthMetric {
	catalog := make(map[string]bool, len(products))
	for _, p := range products {
		catalog[p.ID] = true
	}
	sold := make(map[string]bool)
	for _, b := range recent {
		for _, it := range b.Items {
			if catalog[it.ProductRef] {
				sold[it.ProductRef] = true
			}
		}
	}
	share := safeDiv(float64(len(sold)), float64(len(catalog)))
	return HealthMetric{
		Key:    MetricDiversity,
		Name:   "Product diversity",
		Cap:    10,
		Value:  share * 100,
		Score:  math.Min(10, share*10),
		Detail: fmt.Sprintf("%d of %d products sold", len(sold), len(catalog)),
	}
}

func creditMetric(customers []models.Customer) HealthMetric {
	owing := 0
	for _, c := range customers {
		if c.CreditOutstanding > 0 {
			owing++
		}
	}
	return HealthMetric{
		Key:    MetricCredit,
		Name:   "Credit health",
		Cap:    10,
		Value:  float64(owing),
		Score:  math.Max(0, 10-0.5*float64(owing)),
		Detail: fmt.Sprintf("%d customers with outstanding credit", owing),
	}
}

func consistencyMetric(recent []models.Bill, loc *time.Location, days int) HealthMetric {
	active := make(map[string]bool)
	for _, b := range recent {
		active[DayKey(b.CreatedAt, loc)] = true
	}
	share := math.Min(1, safeDiv(float64(len(active)), float64(days)))
	return HealthMetric{
		Key:    MetricConsistency,
		Name:   "Sales consistency",
		Cap:    5,
		Value:  float64(len(active)),
		Score:  share * 5,
		Detail: fmt.Sprintf("sales on %d of the last %d days", len(active), days),
	}
}

func metricStatus(key string, score, limit float64, cfg HealthConfig) MetricStatus {
	t, ok := cfg.Statuses[key]
	if !ok {
		t = StatusThreshold{Excellent: limit * 0.8, Good: limit * 0.5}
	}
	switch {
	case score >= t.Excellent:
		return StatusExcellent
	case score >= t.Good:
		return StatusGood
	default:
		return StatusNeedsAttention
	}
}
