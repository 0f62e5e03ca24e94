package analytics

import (
	"fmt"
	"time"

	"github.com/mmynk/bizlens/internal/models"
)

// Analyzer names, used as keys for Dashboard errors and metrics labels.
const (
	AnalyzerForecast  = "forecast"
	AnalyzerChurn     = "churn"
	AnalyzerHealth    = "health"
	AnalyzerAnomalies = "anomalies"
	AnalyzerRestock   = "restock"
	AnalyzerPricing   = "pricing"
	AnalyzerCampaigns = "campaigns"
)

// Engine runs the analyzers with one set of thresholds.
// It holds no other state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine returns an Engine using cfg.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the thresholds the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Forecast predicts revenue for the seven days after now.
func (e *Engine) Forecast(bills []models.Bill, now time.Time) RevenueForecast {
	return ForecastRevenue(bills, now, e.cfg.Forecast)
}

// Churn scores every customer's risk of leaving.
func (e *Engine) Churn(bills []models.Bill, customers []models.Customer, now time.Time) ChurnReport {
	return ScoreChurn(bills, customers, now, e.cfg.Churn)
}

// Health grades the business from 0 to 100.
func (e *Engine) Health(snap models.Snapshot, now time.Time) HealthScore {
	return ScoreHealth(snap, now, e.cfg.Health)
}

// Anomalies checks today's activity against recent baselines.
func (e *Engine) Anomalies(snap models.Snapshot, now time.Time) AnomalyReport {
	return DetectAnomalies(snap, now, e.cfg.Anomaly)
}

// Restock lists products to reorder, most urgent first.
func (e *Engine) Restock(products []models.Product, bills []models.Bill, now time.Time) RestockPlan {
	return PlanRestock(products, bills, now, e.cfg.Restock)
}

// Pricing suggests a price strategy per product.
func (e *Engine) Pricing(products []models.Product, bills []models.Bill, now time.Time) PricingReport {
	return AdvisePricing(products, bills, now, e.cfg.Pricing)
}

// Campaigns groups customers into outreach segments.
func (e *Engine) Campaigns(customers []models.Customer, bills []models.Bill, now time.Time) []Segment {
	return SegmentCampaigns(customers, bills, now, e.cfg.Campaign)
}

// Dashboard is every analyzer's output for one snapshot. A nil section
// means that analyzer failed; Errors holds the reason keyed by analyzer.
type Dashboard struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Currency    string            `json:"currency"`
	Forecast    *RevenueForecast  `json:"forecast,omitempty"`
	Churn       *ChurnReport      `json:"churn,omitempty"`
	Health      *HealthScore      `json:"health,omitempty"`
	Anomalies   *AnomalyReport    `json:"anomalies,omitempty"`
	Restock     *RestockPlan      `json:"restock,omitempty"`
	Pricing     *PricingReport    `json:"pricing,omitempty"`
	Campaigns   []Segment         `json:"campaigns,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// Dashboard runs all analyzers against the same snapshot. A panic in one
// analyzer is recorded in Errors and does not stop the others.
func (e *Engine) Dashboard(snap models.Snapshot, now time.Time) Dashboard {
	d := Dashboard{
		GeneratedAt: now,
		Currency:    e.cfg.Settings.Currency,
	}
	d.capture(AnalyzerForecast, func() {
		f := e.Forecast(snap.Bills, now)
		d.Forecast = &f
	})
	d.capture(AnalyzerChurn, func() {
		c := e.Churn(snap.Bills, snap.Customers, now)
		d.Churn = &c
	})
	d.capture(AnalyzerHealth, func() {
		h := e.Health(snap, now)
		d.Health = &h
	})
	d.capture(AnalyzerAnomalies, func() {
		a := e.Anomalies(snap, now)
		d.Anomalies = &a
	})
	d.capture(AnalyzerRestock, func() {
		r := e.Restock(snap.Products, snap.Bills, now)
		d.Restock = &r
	})
	d.capture(AnalyzerPricing, func() {
		p := e.Pricing(snap.Products, snap.Bills, now)
		d.Pricing = &p
	})
	d.capture(AnalyzerCampaigns, func() {
		d.Campaigns = e.Campaigns(snap.Customers, snap.Bills, now)
	})
	return d
}

// capture runs fn and records a panic under name instead of propagating it.
func (d *Dashboard) capture(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if d.Errors == nil {
				d.Errors = make(map[string]string)
			}
			d.Errors[name] = fmt.Sprint(r)
		}
	}()
	fn()
}

// Failed reports whether any analyzer in the dashboard failed.
func (d Dashboard) Failed() bool {
	return len(d.Errors) > 0
}
