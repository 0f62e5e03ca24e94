package analytics

import "time"

// Config groups every tunable threshold used by the analyzers.
// DefaultConfig returns the production values; tests and threshold files
// override individual fields.
type Config struct {
	Settings Settings       `mapstructure:"settings" json:"settings"`
	Forecast ForecastConfig `mapstructure:"forecast" json:"forecast"`
	Churn    ChurnConfig    `mapstructure:"churn" json:"churn"`
	Health   HealthConfig   `mapstructure:"health" json:"health"`
	Anomaly  AnomalyConfig  `mapstructure:"anomaly" json:"anomaly"`
	Restock  RestockConfig  `mapstructure:"restock" json:"restock"`
	Pricing  PricingConfig  `mapstructure:"pricing" json:"pricing"`
	Campaign CampaignConfig `mapstructure:"campaign" json:"campaign"`
}

// Settings are store-level business settings.
type Settings struct {
	Currency       string  `mapstructure:"currency" json:"currency"`
	DefaultGSTRate float64 `mapstructure:"default_gst_rate" json:"defaultGstRate"`
}

// ForecastConfig tunes RevenueForecaster.
type ForecastConfig struct {
	// WeekWeights apply to the last weekly totals, most recent first.
	WeekWeights     []float64 `mapstructure:"week_weights" json:"weekWeights"`
	OptimismFactor  float64   `mapstructure:"optimism_factor" json:"optimismFactor"`
	MonthToWeek     float64   `mapstructure:"month_to_week" json:"monthToWeek"`
	BandFraction    float64   `mapstructure:"band_fraction" json:"bandFraction"`
	SeasonalityDays int       `mapstructure:"seasonality_days" json:"seasonalityDays"`
	HighHistoryDays int       `mapstructure:"high_history_days" json:"highHistoryDays"`
	MedHistoryDays  int       `mapstructure:"medium_history_days" json:"mediumHistoryDays"`
}

// ChurnConfig tunes ChurnRiskScorer.
type ChurnConfig struct {
	RecencyHighDays   int `mapstructure:"recency_high_days" json:"recencyHighDays"`
	RecencyMedDays    int `mapstructure:"recency_medium_days" json:"recencyMediumDays"`
	RecencyLowDays    int `mapstructure:"recency_low_days" json:"recencyLowDays"`
	RecencyHighPoints int `mapstructure:"recency_high_points" json:"recencyHighPoints"`
	RecencyMedPoints  int `mapstructure:"recency_medium_points" json:"recencyMediumPoints"`
	RecencyLowPoints  int `mapstructure:"recency_low_points" json:"recencyLowPoints"`

	MinBillsForTrend   int     `mapstructure:"min_bills_for_trend" json:"minBillsForTrend"`
	SevereDeclineRatio float64 `mapstructure:"severe_decline_ratio" json:"severeDeclineRatio"`
	MildDeclineRatio   float64 `mapstructure:"mild_decline_ratio" json:"mildDeclineRatio"`
	SevereDeclinePts   int     `mapstructure:"severe_decline_points" json:"severeDeclinePoints"`
	MildDeclinePts     int     `mapstructure:"mild_decline_points" json:"mildDeclinePoints"`

	LowEngagementVisits int `mapstructure:"low_engagement_visits" json:"lowEngagementVisits"`
	LowEngagementDays   int `mapstructure:"low_engagement_days" json:"lowEngagementDays"`
	LowEngagementPoints int `mapstructure:"low_engagement_points" json:"lowEngagementPoints"`
	NoLoyaltyPoints     int `mapstructure:"no_loyalty_points" json:"noLoyaltyPoints"`

	HighRiskScore   int `mapstructure:"high_risk_score" json:"highRiskScore"`
	MediumRiskScore int `mapstructure:"medium_risk_score" json:"mediumRiskScore"`
	LowRiskScore    int `mapstructure:"low_risk_score" json:"lowRiskScore"`
}

// HealthConfig tunes BusinessHealthScorer.
type HealthConfig struct {
	WindowDays int `mapstructure:"window_days" json:"windowDays"`

	// AvgBillDivisor: an average bill of AvgBillDivisor × 10 earns full marks.
	AvgBillDivisor float64 `mapstructure:"avg_bill_divisor" json:"avgBillDivisor"`

	// Statuses holds per-metric status cut-offs in score points.
	Statuses map[string]StatusThreshold `mapstructure:"statuses" json:"statuses"`
}

// StatusThreshold labels a metric excellent at or above Excellent points and
// good at or above Good points.
type StatusThreshold struct {
	Excellent float64 `mapstructure:"excellent" json:"excellent"`
	Good      float64 `mapstructure:"good" json:"good"`
}

// AnomalyConfig tunes AnomalyDetector.
type AnomalyConfig struct {
	BaselineDays      int     `mapstructure:"baseline_days" json:"baselineDays"`
	SpikeMultiplier   float64 `mapstructure:"spike_multiplier" json:"spikeMultiplier"`
	DropMultiplier    float64 `mapstructure:"drop_multiplier" json:"dropMultiplier"`
	DropAfterHour     int     `mapstructure:"drop_after_hour" json:"dropAfterHour"`
	LargeBillMultiple float64 `mapstructure:"large_bill_multiple" json:"largeBillMultiple"`
	SurgeMultiplier   float64 `mapstructure:"surge_multiplier" json:"surgeMultiplier"`
	SurgeBaselineDays float64 `mapstructure:"surge_baseline_days" json:"surgeBaselineDays"`
	NoSalesFromHour   int     `mapstructure:"no_sales_from_hour" json:"noSalesFromHour"`
	NoSalesToHour     int     `mapstructure:"no_sales_to_hour" json:"noSalesToHour"`
}

// RestockConfig tunes RestockPlanner.
type RestockConfig struct {
	ShortWindowDays int `mapstructure:"short_window_days" json:"shortWindowDays"`
	LongWindowDays  int `mapstructure:"long_window_days" json:"longWindowDays"`
	CoverDays       int `mapstructure:"cover_days" json:"coverDays"`
	UrgentDays      int `mapstructure:"urgent_days" json:"urgentDays"`
	SoonDays        int `mapstructure:"soon_days" json:"soonDays"`
	NoSignalDays    int `mapstructure:"no_signal_days" json:"noSignalDays"`
}

// PricingConfig tunes PricingAdvisor. Margins are fractions (0.15 = 15%).
type PricingConfig struct {
	WindowDays       int     `mapstructure:"window_days" json:"windowDays"`
	LowMargin        float64 `mapstructure:"low_margin" json:"lowMargin"`
	TargetMargin     float64 `mapstructure:"target_margin" json:"targetMargin"`
	SlowStockAbove   int     `mapstructure:"slow_stock_above" json:"slowStockAbove"`
	SlowSoldBelow    int     `mapstructure:"slow_sold_below" json:"slowSoldBelow"`
	SlowMarginAbove  float64 `mapstructure:"slow_margin_above" json:"slowMarginAbove"`
	SlowDiscount     float64 `mapstructure:"slow_discount" json:"slowDiscount"`
	FastSoldAbove    int     `mapstructure:"fast_sold_above" json:"fastSoldAbove"`
	FastMarginMin    float64 `mapstructure:"fast_margin_min" json:"fastMarginMin"`
	FastMarginMax    float64 `mapstructure:"fast_margin_max" json:"fastMarginMax"`
	FastIncrease     float64 `mapstructure:"fast_increase" json:"fastIncrease"`
	HighMargin       float64 `mapstructure:"high_margin" json:"highMargin"`
	HighMarginSoldLT int     `mapstructure:"high_margin_sold_below" json:"highMarginSoldBelow"`
	HighDiscount     float64 `mapstructure:"high_discount" json:"highDiscount"`
	HealthyMarginMax float64 `mapstructure:"healthy_margin_max" json:"healthyMarginMax"`
}

// CampaignConfig tunes CampaignSegmenter.
type CampaignConfig struct {
	WinBackDays     int          `mapstructure:"win_back_days" json:"winBackDays"`
	VIPSpend        float64      `mapstructure:"vip_spend" json:"vipSpend"`
	WelcomeDays     int          `mapstructure:"welcome_days" json:"welcomeDays"`
	MilestoneMin    int          `mapstructure:"milestone_min" json:"milestoneMin"`
	MilestoneTarget int          `mapstructure:"milestone_target" json:"milestoneTarget"`
	ActiveDays      int          `mapstructure:"active_days" json:"activeDays"`
	FestiveMonths   []time.Month `mapstructure:"festive_months" json:"festiveMonths"`
}

// DefaultConfig returns the thresholds the engine ships with.
func DefaultConfig() Config {
	return Config{
		Settings: Settings{
			Currency:       "₹",
			DefaultGSTRate: 0.18,
		},
		Forecast: ForecastConfig{
			WeekWeights:     []float64{0.4, 0.3, 0.2, 0.1},
			OptimismFactor:  1.05,
			MonthToWeek:     4.2,
			BandFraction:    0.2,
			SeasonalityDays: 30,
			HighHistoryDays: 30,
			MedHistoryDays:  14,
		},
		Churn: ChurnConfig{
			RecencyHighDays:     60,
			RecencyMedDays:      30,
			RecencyLowDays:      14,
			RecencyHighPoints:   30,
			RecencyMedPoints:    20,
			RecencyLowPoints:    10,
			MinBillsForTrend:    4,
			SevereDeclineRatio:  0.5,
			MildDeclineRatio:    0.75,
			SevereDeclinePts:    25,
			MildDeclinePts:      15,
			LowEngagementVisits: 3,
			LowEngagementDays:   14,
			LowEngagementPoints: 20,
			NoLoyaltyPoints:     10,
			HighRiskScore:       60,
			MediumRiskScore:     35,
			LowRiskScore:        15,
		},
		Health: HealthConfig{
			WindowDays:     30,
			AvgBillDivisor: 50,
			Statuses: map[string]StatusThreshold{
				MetricGrowth:      {Excellent: 10, Good: 7.5},
				MetricInventory:   {Excellent: 13, Good: 8},
				MetricRetention:   {Excellent: 9, Good: 6},
				MetricAvgBill:     {Excellent: 8, Good: 4},
				MetricFrequency:   {Excellent: 8, Good: 4},
				MetricCollection:  {Excellent: 8, Good: 5},
				MetricDiversity:   {Excellent: 6, Good: 3},
				MetricCredit:      {Excellent: 8, Good: 5},
				MetricConsistency: {Excellent: 4.5, Good: 3.5},
			},
		},
		Anomaly: AnomalyConfig{
			BaselineDays:      7,
			SpikeMultiplier:   1.5,
			DropMultiplier:    0.5,
			DropAfterHour:     14,
			LargeBillMultiple: 3,
			SurgeMultiplier:   2,
			SurgeBaselineDays: 30,
			NoSalesFromHour:   10,
			NoSalesToHour:     20,
		},
		Restock: RestockConfig{
			ShortWindowDays: 7,
			LongWindowDays:  30,
			CoverDays:       14,
			UrgentDays:      3,
			SoonDays:        7,
			NoSignalDays:    999,
		},
		Pricing: PricingConfig{
			WindowDays:       30,
			LowMargin:        0.15,
			TargetMargin:     0.20,
			SlowStockAbove:   50,
			SlowSoldBelow:    5,
			SlowMarginAbove:  0.30,
			SlowDiscount:     0.9,
			FastSoldAbove:    20,
			FastMarginMin:    0.25,
			FastMarginMax:    0.50,
			FastIncrease:     1.05,
			HighMargin:       0.60,
			HighMarginSoldLT: 3,
			HighDiscount:     0.85,
			HealthyMarginMax: 0.50,
		},
		Campaign: CampaignConfig{
			WinBackDays:     30,
			VIPSpend:        5000,
			WelcomeDays:     7,
			MilestoneMin:    8000,
			MilestoneTarget: 10000,
			ActiveDays:      30,
			FestiveMonths:   []time.Month{time.January, time.April, time.October, time.November},
		},
	}
}
