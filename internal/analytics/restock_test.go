package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/bizlens/internal/models"
)

func TestVelocity(t *testing.T) {
	tests := []struct {
		name          string
		shortQ, longQ int
		want          float64
	}{
		{"recent sales", 14, 40, 2},
		{"falls back to month", 0, 15, 0.5},
		{"no sales", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Velocity(tt.shortQ, tt.longQ, 7, 30), 0.0001)
		})
	}
}

func TestPlanRestockScenario(t *testing.T) {
	products := []models.Product{{ID: "rice", Name: "Rice 5kg", Stock: 20, MinStockThreshold: 5, CostPrice: 250}}
	bills := []models.Bill{
		newBill("b1", daysAgo(1), 0, item("rice", 6)),
		newBill("b2", daysAgo(4), 0, item("rice", 8)),
	}

	plan := PlanRestock(products, bills, refNow, DefaultConfig().Restock)

	require.Len(t, plan.Items, 1)
	got := plan.Items[0]
	assert.InDelta(t, 2.0, got.DailyVelocity, 0.0001)
	assert.Equal(t, 10, got.DaysUntilStockout)
	assert.Equal(t, UrgencySoon, got.Urgency)
	assert.Equal(t, 13, got.RecommendedOrder)
	assert.Equal(t, 3250.0, got.EstimatedCost)
	assert.Equal(t, 3250.0, plan.TotalReorderCost)
}

func TestPlanRestockOrdering(t *testing.T) {
	products := []models.Product{
		{ID: "idle", Name: "Idle", Stock: 100, MinStockThreshold: 5},
		{ID: "low", Name: "Low", Stock: 3, MinStockThreshold: 5, CostPrice: 10},
		{ID: "soon", Name: "Soon", Stock: 20, MinStockThreshold: 5},
		{ID: "urgent", Name: "Urgent", Stock: 4, MinStockThreshold: 5},
		{ID: "gone", Name: "Gone", Stock: 0},
		{ID: "oversold", Name: "Oversold", Stock: -2, MinStockThreshold: 5},
	}
	bills := []models.Bill{
		newBill("b1", daysAgo(2), 0, item("soon", 14), item("urgent", 14)),
		newBill("b2", daysAgo(20), 0, item("gone", 30)),
	}

	plan := PlanRestock(products, bills, refNow, DefaultConfig().Restock)

	names := make([]string, len(plan.Items))
	for i, it := range plan.Items {
		names[i] = it.Name
	}
	assert.Equal(t, []string{"Gone", "Oversold", "Urgent", "Soon", "Low"}, names)

	for i := 1; i < len(plan.Items); i++ {
		assert.LessOrEqual(t, urgencyRank[plan.Items[i-1].Urgency], urgencyRank[plan.Items[i].Urgency])
	}

	gone := plan.Items[0]
	assert.Equal(t, UrgencyCritical, gone.Urgency)
	assert.Equal(t, 0, gone.DaysUntilStockout)
	assert.Equal(t, 0, gone.MinStockThreshold, "explicit zero threshold is kept")
	assert.Equal(t, 14, gone.RecommendedOrder, "ceil(1*14) + 0 - 0")

	assert.Equal(t, 7, plan.Items[1].RecommendedOrder, "negative stock adds to the order")

	low := plan.Items[4]
	assert.Equal(t, UrgencyHealthy, low.Urgency)
	assert.Equal(t, 999, low.DaysUntilStockout)
	assert.Equal(t, 2, low.RecommendedOrder)

	assert.Equal(t, map[Urgency]int{UrgencyCritical: 2, UrgencyUrgent: 1, UrgencySoon: 1, UrgencyHealthy: 1}, plan.Counts)
	assert.Equal(t, 20.0, plan.TotalReorderCost)
}

func TestPlanRestockSoonHorizon(t *testing.T) {
	tests := []struct {
		name  string
		stock int
		want  Urgency
	}{
		{"7 days", 14, UrgencySoon},
		{"8 days", 16, UrgencySoon},
		{"13 days", 26, UrgencySoon},
		{"14 days", 28, UrgencyHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := []models.Product{{ID: "dal", Name: "Dal", Stock: tt.stock, MinStockThreshold: 5}}
			bills := []models.Bill{newBill("b1", daysAgo(1), 0, item("dal", 14))}

			got := restockItem(products[0], 14, 14, DefaultConfig().Restock)
			assert.Equal(t, tt.want, got.Urgency)

			plan := PlanRestock(products, bills, refNow, DefaultConfig().Restock)
			require.Len(t, plan.Items, 1)
			assert.Equal(t, tt.want, plan.Items[0].Urgency)
		})
	}
}

func TestPlanRestockEmpty(t *testing.T) {
	plan := PlanRestock(nil, nil, refNow, DefaultConfig().Restock)

	assert.NotNil(t, plan.Items)
	assert.Empty(t, plan.Items)
	assert.Zero(t, plan.TotalReorderCost)
}
