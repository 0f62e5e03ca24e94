package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/mmynk/bizlens/internal/models"
)

// Anomaly types reported by DetectAnomalies.
const (
	AnomalySalesSpike     = "sales_spike"
	AnomalySalesDrop      = "sales_drop"
	AnomalyLargeBill      = "large_transaction"
	AnomalyNegativeStock  = "negative_stock"
	AnomalyCustomerSurge  = "customer_surge"
	AnomalyNoSales        = "no_sales"
	AnomalyInvalidPricing = "invalid_pricing"
)

// SystemHealth summarises the most severe anomaly that fired.
type SystemHealth string

const (
	SystemHealthy  SystemHealth = "healthy"
	SystemWarning  SystemHealth = "warning"
	SystemCritical SystemHealth = "critical"
)

// Anomaly is one rule that fired against today's data.
type Anomaly struct {
	Type      string   `json:"type"`
	Severity  Severity `json:"severity"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	Value     float64  `json:"value"`
	Threshold float64  `json:"threshold"`

	// Refs lists the bill or product IDs involved, if any.
	Refs []string `json:"refs,omitempty"`
}

// AnomalyReport is the output of DetectAnomalies.
type AnomalyReport struct {
	Anomalies     []Anomaly    `json:"anomalies"`
	Health        SystemHealth `json:"health"`
	TodayRevenue  float64      `json:"todayRevenue"`
	BaselineDaily float64      `json:"baselineDailyAverage"`
}

// DetectAnomalies checks today's activity against trailing baselines.
// Every rule is evaluated; all matches are reported.
func DetectAnomalies(snap models.Snapshot, now time.Time, cfg AnomalyConfig) AnomalyReport {
	baselineDays := cfg.BaselineDays
	if baselineDays <= 0 {
		baselineDays = 7
	}
	today := InWindow(snap.Bills, TodayWindow(now))
	baseline := InWindow(snap.Bills, PriorWindow(now, baselineDays))

	todayTotal := Revenue(today)
	dailyAvg := Revenue(baseline) / float64(baselineDays)
	avgBill := safeDiv(Revenue(baseline), float64(len(baseline)))
	hour := now.Hour()

	report := AnomalyReport{
		Anomalies:     []Anomaly{},
		TodayRevenue:  round2(todayTotal),
		BaselineDaily: round2(dailyAvg),
	}
	add := func(a Anomaly) {
		a.Value = round2(a.Value)
		a.Threshold = round2(a.Threshold)
		report.Anomalies = append(report.Anomalies, a)
	}

	if dailyAvg > 0 && todayTotal > cfg.SpikeMultiplier*dailyAvg {
		add(Anomaly{
			Type:      AnomalySalesSpike,
			Severity:  SeverityInfo,
			Title:     "Unusual sales spike",
			Message:   fmt.Sprintf("Today's sales are %.0f%% of the %d-day daily average", 100*todayTotal/dailyAvg, baselineDays),
			Value:     todayTotal,
			Threshold: cfg.SpikeMultiplier * dailyAvg,
		})
	}

	if dailyAvg > 0 && todayTotal < cfg.DropMultiplier*dailyAvg && hour > cfg.DropAfterHour {
		add(Anomaly{
			Type:      AnomalySalesDrop,
			Severity:  SeverityWarning,
			Title:     "Sales below normal",
			Message:   fmt.Sprintf("Today's sales are only %.0f%% of the %d-day daily average", 100*todayTotal/dailyAvg, baselineDays),
			Value:     todayTotal,
			Threshold: cfg.DropMultiplier * dailyAvg,
		})
	}

	if avgBill > 0 {
		limit := cfg.LargeBillMultiple * avgBill
		var large []models.Bill
		for _, b := range today {
			if b.Total > limit {
				large = append(large, b)
			}
		}
		if len(large) > 0 {
			sort.SliceStable(large, func(i, j int) bool { return large[i].Total > large[j].Total })
			refs := make([]string, len(large))
			for i, b := range large {
				refs[i] = b.ID
			}
			add(Anomaly{
				Type:      AnomalyLargeBill,
				Severity:  SeverityInfo,
				Title:     "Unusually large transaction",
				Message:   fmt.Sprintf("%d bill(s) above %.0fx the average bill; largest is %.2f", len(large), cfg.LargeBillMultiple, large[0].Total),
				Value:     large[0].Total,
				Threshold: limit,
				Refs:      refs,
			})
		}
	}

	var negative, badPrice []string
	for _, p := range snap.Products {
		if p.Stock < 0 {
			negative = append(negative, p.ID)
		}
		if p.Price <= 0 {
			badPrice = append(badPrice, p.ID)
		}
	}
	if len(negative) > 0 {
		add(Anomaly{
			Type:     AnomalyNegativeStock,
			Severity: SeverityCritical,
			Title:    "Negative stock detected",
			Message:  fmt.Sprintf("%d product(s) have negative stock; check billing and stock entries", len(negative)),
			Value:    float64(len(negative)),
			Refs:     negative,
		})
	}

	// totalCustomers/SurgeBaselineDays treats the all-time customer count as
	// a monthly rate. Known approximation, kept for parity with the dashboard.
	newToday := 0
	todayWindow := TodayWindow(now)
	for _, c := range snap.Customers {
		if todayWindow.Contains(c.CreatedAt) {
			newToday++
		}
	}
	expected := safeDiv(float64(len(snap.Customers)), cfg.SurgeBaselineDays)
	if newToday > 0 && float64(newToday) > cfg.SurgeMultiplier*expected {
		add(Anomaly{
			Type:      AnomalyCustomerSurge,
			Severity:  SeverityInfo,
			Title:     "New customer surge",
			Message:   fmt.Sprintf("%d new customers today against about %.1f per day", newToday, expected),
			Value:     float64(newToday),
			Threshold: cfg.SurgeMultiplier * expected,
		})
	}

	if len(today) == 0 && hour >= cfg.NoSalesFromHour && hour <= cfg.NoSalesToHour {
		add(Anomaly{
			Type:     AnomalyNoSales,
			Severity: SeverityWarning,
			Title:    "No sales today",
			Message:  fmt.Sprintf("No bills recorded yet and it is %02d:00", hour),
		})
	}

	if len(badPrice) > 0 {
		add(Anomaly{
			Type:     AnomalyInvalidPricing,
			Severity: SeverityWarning,
			Title:    "Invalid product pricing",
			Message:  fmt.Sprintf("%d product(s) have a zero or negative price", len(badPrice)),
			Value:    float64(len(badPrice)),
			Refs:     badPrice,
		})
	}

	report.Health = SystemHealthy
	for _, a := range report.Anomalies {
		switch a.Severity {
		case SeverityCritical:
			report.Health = SystemCritical
		case SeverityWarning:
			if report.Health != SystemCritical {
				report.Health = SystemWarning
			}
		}
	}
	return report
}
