package analytics

import (
	"time"

	"github.com/mmynk/bizlens/internal/models"
)

// Confidence describes how much bill history backs a forecast.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Trend is the direction of week-over-week revenue.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// DayPrediction is the forecast for one future calendar day.
type DayPrediction struct {
	Date           string  `json:"date"`
	Weekday        string  `json:"weekday"`
	Predicted      float64 `json:"predicted"`
	Lower          float64 `json:"lower"`
	Upper          float64 `json:"upper"`
	SeasonalFactor float64 `json:"seasonalFactor"`
}

// WeekdayAverage is the mean revenue of one weekday in the seasonality window.
type WeekdayAverage struct {
	Weekday string  `json:"weekday"`
	Average float64 `json:"average"`
	Factor  float64 `json:"factor"`
}

// RevenueForecast is the output of ForecastRevenue.
type RevenueForecast struct {
	NextWeekTotal     float64          `json:"nextWeekTotal"`
	NextMonthEstimate float64          `json:"nextMonthEstimate"`
	GrowthRatePercent float64          `json:"growthRatePercent"`
	Trend             Trend            `json:"trend"`
	Confidence        Confidence       `json:"confidence"`
	HistoryDays       int              `json:"historyDays"`
	WeeklyTotals      []float64        `json:"weeklyTotals"`
	PerDay            []DayPrediction  `json:"perDayPredictions"`
	DayOfWeekAverages []WeekdayAverage `json:"dayOfWeekAverages"`
	PeakWeekday       string           `json:"peakWeekday,omitempty"`
}

// WeeklyTotals returns revenue for the last n seven-day windows,
// most recent first. Empty windows total 0.
func WeeklyTotals(bills []models.Bill, now time.Time, n int) []float64 {
	totals := make([]float64, n)
	for i := range totals {
		totals[i] = Revenue(InWindow(bills, WeekWindow(now, i, 7)))
	}
	return totals
}

// WeightedNextWeek applies weights to weekly totals (most recent first) and
// scales the sum by the optimism factor.
func WeightedNextWeek(weekly, weights []float64, optimism float64) float64 {
	var sum float64
	for i, w := range weights {
		if i < len(weekly) {
			sum += weekly[i] * w
		}
	}
	return sum * optimism
}

// GrowthRate is (current - previous) / previous, or 0 without a previous total.
func GrowthRate(current, previous float64) float64 {
	return safeDiv(current-previous, previous)
}

// ForecastRevenue projects the next 7 and 30 days of revenue.
//
// The week total is a weighted sum of the last four weekly totals. It is
// spread over the next seven days using each weekday's share of revenue in
// the seasonality window, with week-over-week growth compounded per day.
func ForecastRevenue(bills []models.Bill, now time.Time, cfg ForecastConfig) RevenueForecast {
	windows := len(cfg.WeekWeights)
	if windows < 2 {
		windows = 2
	}
	weekly := WeeklyTotals(bills, now, windows)
	nextWeek := WeightedNextWeek(weekly, cfg.WeekWeights, cfg.OptimismFactor)
	growth := GrowthRate(weekly[0], weekly[1])

	averages, factors := weekdaySeasonality(bills, now, cfg.SeasonalityDays)

	dailyAvg := nextWeek / 7
	perDay := make([]DayPrediction, 0, 7)
	start := StartOfDay(now)
	for i := 1; i <= 7; i++ {
		day := start.AddDate(0, 0, i)
		dow := int(day.Weekday())
		point := dailyAvg * (1 + growth*(float64(i)/7))
		point *= factors[dow]
		if point < 0 {
			point = 0
		}
		perDay = append(perDay, DayPrediction{
			Date:           day.Format("2006-01-02"),
			Weekday:        day.Weekday().String(),
			Predicted:      round2(point),
			Lower:          round2(point * (1 - cfg.BandFraction)),
			Upper:          round2(point * (1 + cfg.BandFraction)),
			SeasonalFactor: round2(factors[dow]),
		})
	}

	trend := TrendUp
	if growth < 0 {
		trend = TrendDown
	}

	history := historyDays(bills, now)
	out := RevenueForecast{
		NextWeekTotal:     round2(nextWeek),
		NextMonthEstimate: round2(nextWeek * cfg.MonthToWeek),
		GrowthRatePercent: round2(growth * 100),
		Trend:             trend,
		Confidence:        confidenceFor(history, cfg),
		HistoryDays:       history,
		WeeklyTotals:      make([]float64, len(weekly)),
		PerDay:            perDay,
	}
	for i, w := range weekly {
		out.WeeklyTotals[i] = round2(w)
	}

	peak, peakAvg := -1, 0.0
	for d := 0; d < 7; d++ {
		out.DayOfWeekAverages = append(out.DayOfWeekAverages, WeekdayAverage{
			Weekday: time.Weekday(d).String(),
			Average: round2(averages[d]),
			Factor:  round2(factors[d]),
		})
		if averages[d] > peakAvg {
			peak, peakAvg = d, averages[d]
		}
	}
	if peak >= 0 {
		out.PeakWeekday = time.Weekday(peak).String()
	}
	return out
}

// weekdaySeasonality returns, per weekday, the average revenue of that
// weekday's calendar days in the trailing window and its factor relative to
// the overall daily average. Factors default to 1 without revenue.
func weekdaySeasonality(bills []models.Bill, now time.Time, days int) (avg [7]float64, factor [7]float64) {
	if days <= 0 {
		days = 30
	}
	w := TrailingWindow(now, days)
	var sums [7]float64
	var occurrences [7]int
	for d := w.Start; d.Before(w.End); d = d.AddDate(0, 0, 1) {
		occurrences[int(d.Weekday())]++
	}
	var total float64
	for _, b := range InWindow(bills, w) {
		sums[DayOfWeek(b.CreatedAt, now.Location())] += b.Total
		total += b.Total
	}
	overall := total / float64(days)
	for d := 0; d < 7; d++ {
		avg[d] = safeDiv(sums[d], float64(occurrences[d]))
		factor[d] = 1
		if overall > 0 {
			factor[d] = avg[d] / overall
		}
	}
	return avg, factor
}

// historyDays counts calendar days from the earliest bill to now.
func historyDays(bills []models.Bill, now time.Time) int {
	if len(bills) == 0 {
		return 0
	}
	earliest := bills[0].CreatedAt
	for _, b := range bills[1:] {
		if b.CreatedAt.Before(earliest) {
			earliest = b.CreatedAt
		}
	}
	days := daysBetween(earliest, now)
	if days < 0 {
		return 0
	}
	return days
}

func confidenceFor(history int, cfg ForecastConfig) Confidence {
	switch {
	case history >= cfg.HighHistoryDays:
		return ConfidenceHigh
	case history >= cfg.MedHistoryDays:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
