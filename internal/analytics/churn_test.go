package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/bizlens/internal/models"
)

func factorKeys(r ChurnRisk) []string {
	keys := make([]string, len(r.Factors))
	for i, f := range r.Factors {
		keys[i] = f.Key
	}
	return keys
}

func TestScoreCustomerLapsedLowEngagement(t *testing.T) {
	c := models.Customer{ID: "c1", Name: "Asha", VisitCount: 1}
	bills := []models.Bill{
		newBill("b1", daysAgo(100), 400),
		newBill("b2", daysAgo(65), 300),
	}

	r := ScoreCustomer(c, bills, refNow, DefaultConfig().Churn)

	assert.Equal(t, 60, r.Score)
	assert.Equal(t, RiskHigh, r.Tier)
	assert.Equal(t, []string{FactorRecency, FactorLowEngagement, FactorNoLoyalty}, factorKeys(r))
	require.NotNil(t, r.DaysSinceLastPurchase)
	assert.Equal(t, 65, *r.DaysSinceLastPurchase)
	assert.Equal(t, 700.0, r.LifetimeSpend)
	assert.Equal(t, []string{
		"Call the customer personally to check in",
		"Offer a time-limited comeback discount",
		"Invite the customer to join the loyalty program",
	}, r.Actions)
}

func TestScoreCustomerRecencyTiers(t *testing.T) {
	tests := []struct {
		name     string
		lastDays int
		want     int
	}{
		{"active", 3, 0},
		{"over two weeks", 15, 10},
		{"over a month", 31, 20},
		{"over two months", 61, 30},
		{"boundary sixty", 60, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := models.Customer{ID: "c", VisitCount: 10, LoyaltyPoints: 100}
			r := ScoreCustomer(c, []models.Bill{newBill("b", daysAgo(tt.lastDays), 100)}, refNow, DefaultConfig().Churn)
			assert.Equal(t, tt.want, r.Score)
		})
	}
}

func TestScoreCustomerClampsToHundred(t *testing.T) {
	c := models.Customer{ID: "c1", VisitCount: 1}
	var bills []models.Bill
	for i := 0; i < 8; i++ {
		bills = append(bills, newBill("old"+string(rune('a'+i)), daysAgo(200-i*10), 1000))
	}
	bills = append(bills, newBill("recent", daysAgo(70), 10))

	r := ScoreCustomer(c, bills, refNow, DefaultConfig().Churn)

	assert.ElementsMatch(t,
		[]string{FactorRecency, FactorFrequency, FactorSpend, FactorLowEngagement, FactorNoLoyalty},
		factorKeys(r))
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, RiskHigh, r.Tier)
	for i := 1; i < len(r.Factors); i++ {
		assert.GreaterOrEqual(t, r.Factors[i-1].Points, r.Factors[i].Points)
	}
}

func TestScoreCustomerNeverPurchased(t *testing.T) {
	r := ScoreCustomer(models.Customer{ID: "new"}, nil, refNow, DefaultConfig().Churn)

	assert.Nil(t, r.DaysSinceLastPurchase)
	assert.Equal(t, []string{FactorRecency, FactorLowEngagement}, factorKeys(r))
	assert.Equal(t, 50, r.Score)
	assert.Equal(t, RiskMedium, r.Tier)
	assert.Equal(t, "No purchase on record", r.Factors[0].Description)
}

func TestScoreCustomerSteadyBuyerIsHealthy(t *testing.T) {
	c := models.Customer{ID: "c1", VisitCount: 12, LoyaltyPoints: 500}
	var bills []models.Bill
	for i := 0; i < 12; i++ {
		bills = append(bills, newBill("b"+string(rune('a'+i)), daysAgo(i*5), 250))
	}

	r := ScoreCustomer(c, bills, refNow, DefaultConfig().Churn)

	assert.Equal(t, 0, r.Score)
	assert.Equal(t, RiskHealthy, r.Tier)
	assert.Empty(t, r.Factors)
	assert.Equal(t, []string{"Schedule a friendly follow-up reminder"}, r.Actions)
}

func TestScoreChurnReport(t *testing.T) {
	customers := []models.Customer{
		{ID: "loyal", VisitCount: 20, LoyaltyPoints: 900},
		{ID: "lapsed", Phone: "9000000002", VisitCount: 1},
		{ID: "ghost"},
	}
	bills := []models.Bill{
		{ID: "b1", CustomerID: "loyal", CreatedAt: daysAgo(1), Total: 500},
		{ID: "b2", CustomerPhone: "9000000002", CreatedAt: daysAgo(90), Total: 1200},
	}

	report := ScoreChurn(bills, customers, refNow, DefaultConfig().Churn)

	require.Len(t, report.Customers, 3)
	assert.Equal(t, "lapsed", report.Customers[0].CustomerID)
	assert.Equal(t, "ghost", report.Customers[1].CustomerID)
	assert.Equal(t, "loyal", report.Customers[2].CustomerID)
	assert.Equal(t, 1, report.TierCounts[RiskHigh])
	assert.Equal(t, 1, report.TierCounts[RiskMedium])
	assert.Equal(t, 1, report.TierCounts[RiskHealthy])
	assert.Equal(t, 0, report.TierCounts[RiskLow])
	assert.Equal(t, 1200.0, report.AtRiskRevenue)
}

func TestScoreChurnBounds(t *testing.T) {
	cfg := DefaultConfig().Churn
	for visits := 0; visits < 5; visits++ {
		for _, points := range []int{0, 50} {
			for _, last := range []int{0, 20, 45, 90, 400} {
				c := models.Customer{ID: "c", VisitCount: visits, LoyaltyPoints: points}
				r := ScoreCustomer(c, []models.Bill{newBill("b", daysAgo(last), 10)}, refNow, cfg)
				assert.GreaterOrEqual(t, r.Score, 0)
				assert.LessOrEqual(t, r.Score, 100)
			}
		}
	}
}
