package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/mmynk/bizlens/internal/models"
)

// RiskTier classifies a churn score.
type RiskTier string

const (
	RiskHigh    RiskTier = "High Risk"
	RiskMedium  RiskTier = "Medium Risk"
	RiskLow     RiskTier = "Low Risk"
	RiskHealthy RiskTier = "Healthy"
)

// Severity grades a single contributing factor or anomaly.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Factor keys reported by ScoreChurn.
const (
	FactorRecency         = "recency"
	FactorFrequency       = "frequency_decline"
	FactorSpend           = "spend_decline"
	FactorLowEngagement   = "low_engagement"
	FactorNoLoyalty       = "no_loyalty"
	maxChurnScore         = 100
	neverPurchasedRecency = 1 << 30
)

// RiskFactor is one triggered contribution to a churn score.
type RiskFactor struct {
	Key         string   `json:"key"`
	Description string   `json:"description"`
	Points      int      `json:"points"`
	Severity    Severity `json:"severity"`
}

// ChurnRisk is the churn assessment for one customer.
type ChurnRisk struct {
	CustomerID string   `json:"customerId"`
	Name       string   `json:"name"`
	Phone      string   `json:"phone,omitempty"`
	Score      int      `json:"score"`
	Tier       RiskTier `json:"tier"`

	// DaysSinceLastPurchase is nil when the customer never purchased.
	DaysSinceLastPurchase *int         `json:"daysSinceLastPurchase"`
	BillCount             int          `json:"billCount"`
	LifetimeSpend         float64      `json:"lifetimeSpend"`
	Factors               []RiskFactor `json:"factors"`
	Actions               []string     `json:"recommendedActions"`
}

// ChurnReport covers every customer in the snapshot, riskiest first.
type ChurnReport struct {
	Customers     []ChurnRisk      `json:"customers"`
	TierCounts    map[RiskTier]int `json:"tierCounts"`
	AtRiskRevenue float64          `json:"atRiskRevenue"`
}

// ScoreChurn computes the additive churn risk score of every customer.
func ScoreChurn(bills []models.Bill, customers []models.Customer, now time.Time, cfg ChurnConfig) ChurnReport {
	idx := newCustomerIndex(bills)
	report := ChurnReport{
		Customers: make([]ChurnRisk, 0, len(customers)),
		TierCounts: map[RiskTier]int{
			RiskHigh: 0, RiskMedium: 0, RiskLow: 0, RiskHealthy: 0,
		},
	}
	for _, c := range customers {
		risk := ScoreCustomer(c, idx.billsFor(c), now, cfg)
		report.TierCounts[risk.Tier]++
		if risk.Tier == RiskHigh || risk.Tier == RiskMedium {
			report.AtRiskRevenue += risk.LifetimeSpend
		}
		report.Customers = append(report.Customers, risk)
	}
	report.AtRiskRevenue = round2(report.AtRiskRevenue)
	sort.SliceStable(report.Customers, func(i, j int) bool {
		a, b := report.Customers[i], report.Customers[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.CustomerID < b.CustomerID
	})
	return report
}

// ScoreCustomer scores one customer against the bills already joined to them.
// A customer without bills is scored as never having purchased.
func ScoreCustomer(c models.Customer, bills []models.Bill, now time.Time, cfg ChurnConfig) ChurnRisk {
	risk := ChurnRisk{
		CustomerID: c.ID,
		Name:       c.Name,
		Phone:      c.Phone,
		BillCount:  len(bills),
		Factors:    []RiskFactor{},
	}
	for _, b := range bills {
		risk.LifetimeSpend += b.Total
	}
	risk.LifetimeSpend = round2(risk.LifetimeSpend)

	recency := neverPurchasedRecency
	if len(bills) > 0 {
		recency = daysBetween(lastPurchase(bills), now)
		if recency < 0 {
			recency = 0
		}
		d := recency
		risk.DaysSinceLastPurchase = &d
	}

	add := func(key, desc string, points int) {
		risk.Factors = append(risk.Factors, RiskFactor{
			Key:         key,
			Description: desc,
			Points:      points,
			Severity:    factorSeverity(points),
		})
	}

	switch {
	case recency > cfg.RecencyHighDays:
		add(FactorRecency, recencyText(recency, cfg.RecencyHighDays), cfg.RecencyHighPoints)
	case recency > cfg.RecencyMedDays:
		add(FactorRecency, recencyText(recency, cfg.RecencyMedDays), cfg.RecencyMedPoints)
	case recency > cfg.RecencyLowDays:
		add(FactorRecency, recencyText(recency, cfg.RecencyLowDays), cfg.RecencyLowPoints)
	}

	if len(bills) >= cfg.MinBillsForTrend {
		older, recent := splitByTime(bills, now)
		if pts, ratio := declinePoints(float64(len(recent)), float64(len(older)), cfg); pts > 0 {
			add(FactorFrequency, fmt.Sprintf("Visits dropped to %.0f%% of the earlier period", ratio*100), pts)
		}
		recentAvg := safeDiv(Revenue(recent), float64(len(recent)))
		olderAvg := safeDiv(Revenue(older), float64(len(older)))
		if pts, ratio := declinePoints(recentAvg, olderAvg, cfg); pts > 0 {
			add(FactorSpend, fmt.Sprintf("Average bill dropped to %.0f%% of the earlier period", ratio*100), pts)
		}
	}

	if c.VisitCount < cfg.LowEngagementVisits && recency > cfg.LowEngagementDays {
		add(FactorLowEngagement, fmt.Sprintf("Only %d visits and inactive for over %d days", c.VisitCount, cfg.LowEngagementDays), cfg.LowEngagementPoints)
	}

	if c.LoyaltyPoints == 0 && c.VisitCount > 0 {
		add(FactorNoLoyalty, "Not enrolled in the loyalty program", cfg.NoLoyaltyPoints)
	}

	score := 0
	for _, f := range risk.Factors {
		score += f.Points
	}
	if score > maxChurnScore {
		score = maxChurnScore
	}
	if score < 0 {
		score = 0
	}
	risk.Score = score
	risk.Tier = riskTier(score, cfg)

	sort.SliceStable(risk.Factors, func(i, j int) bool {
		return risk.Factors[i].Points > risk.Factors[j].Points
	})
	risk.Actions = retentionActions(risk, cfg)
	return risk
}

// splitByTime halves the span from the first purchase to now and returns
// the bills before and after the midpoint.
func splitByTime(bills []models.Bill, now time.Time) (older, recent []models.Bill) {
	first := bills[0].CreatedAt
	for _, b := range bills[1:] {
		if b.CreatedAt.Before(first) {
			first = b.CreatedAt
		}
	}
	mid := first.Add(now.Sub(first) / 2)
	for _, b := range bills {
		if b.CreatedAt.Before(mid) {
			older = append(older, b)
		} else {
			recent = append(recent, b)
		}
	}
	return older, recent
}

// declinePoints compares a recent value against an older baseline.
// It returns 0 points when there is no baseline.
func declinePoints(recent, older float64, cfg ChurnConfig) (int, float64) {
	if older <= 0 {
		return 0, 0
	}
	ratio := recent / older
	switch {
	case ratio < cfg.SevereDeclineRatio:
		return cfg.SevereDeclinePts, ratio
	case ratio < cfg.MildDeclineRatio:
		return cfg.MildDeclinePts, ratio
	}
	return 0, ratio
}

func recencyText(days, threshold int) string {
	if days == neverPurchasedRecency {
		return "No purchase on record"
	}
	return fmt.Sprintf("No purchase in %d days (over %d)", days, threshold)
}

func factorSeverity(points int) Severity {
	switch {
	case points >= 25:
		return SeverityHigh
	case points >= 15:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func riskTier(score int, cfg ChurnConfig) RiskTier {
	switch {
	case score >= cfg.HighRiskScore:
		return RiskHigh
	case score >= cfg.MediumRiskScore:
		return RiskMedium
	case score >= cfg.LowRiskScore:
		return RiskLow
	default:
		return RiskHealthy
	}
}

func retentionActions(r ChurnRisk, cfg ChurnConfig) []string {
	var actions []string
	switch {
	case r.Score >= cfg.HighRiskScore:
		actions = append(actions,
			"Call the customer personally to check in",
			"Offer a time-limited comeback discount",
		)
	case r.Score >= cfg.MediumRiskScore:
		actions = append(actions, "Send a WhatsApp message with new arrivals and offers")
	}
	for _, f := range r.Factors {
		if f.Key == FactorNoLoyalty {
			actions = append(actions, "Invite the customer to join the loyalty program")
			break
		}
	}
	if len(actions) == 0 {
		actions = append(actions, "Schedule a friendly follow-up reminder")
	}
	return actions
}
