package analytics

import (
	"math"
	"time"

	"github.com/mmynk/bizlens/internal/models"
)

// Window is a span of whole calendar days [Start, End) in one location.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// StartOfDay returns local midnight of the day containing t, in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TodayWindow is the calendar day containing now.
func TodayWindow(now time.Time) Window {
	start := StartOfDay(now)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// TrailingWindow covers the last days calendar days, today included.
func TrailingWindow(now time.Time, days int) Window {
	return WeekWindow(now, 0, days)
}

// PriorWindow covers the days calendar days immediately before today.
func PriorWindow(now time.Time, days int) Window {
	end := StartOfDay(now)
	return Window{Start: end.AddDate(0, 0, -days), End: end}
}

// WeekWindow returns the index-th block of length days counted back from
// today. Index 0 ends with today.
func WeekWindow(now time.Time, index, length int) Window {
	end := StartOfDay(now).AddDate(0, 0, 1-index*length)
	return Window{Start: end.AddDate(0, 0, -length), End: end}
}

// InWindow returns the bills created inside w. Input order is preserved.
func InWindow(bills []models.Bill, w Window) []models.Bill {
	var out []models.Bill
	for _, b := range bills {
		if w.Contains(b.CreatedAt) {
			out = append(out, b)
		}
	}
	return out
}

// Revenue sums bill totals.
func Revenue(bills []models.Bill) float64 {
	var sum float64
	for _, b := range bills {
		sum += b.Total
	}
	return sum
}

// DayOfWeek buckets t into 0 (Sunday) through 6 using loc's calendar.
func DayOfWeek(t time.Time, loc *time.Location) int {
	return int(t.In(loc).Weekday())
}

// HourOfDay buckets t into 0 through 23 using loc's calendar.
func HourOfDay(t time.Time, loc *time.Location) int {
	return t.In(loc).Hour()
}

// DayKey names the local calendar day of t, e.g. "2024-03-09".
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// Buckets is the full temporal partition of a bill collection relative to now.
type Buckets struct {
	Today     []models.Bill
	Last7     []models.Bill
	Last14    []models.Bill
	Last30    []models.Bill
	ByWeekday [7][]models.Bill
	ByHour    [24][]models.Bill
	ByDay     map[string][]models.Bill
}

// Partition groups bills into today, trailing 7/14/30-day windows and
// weekday/hour/day buckets. Boundaries follow now's location.
func Partition(bills []models.Bill, now time.Time) Buckets {
	loc := now.Location()
	today := TodayWindow(now)
	w7, w14, w30 := TrailingWindow(now, 7), TrailingWindow(now, 14), TrailingWindow(now, 30)

	b := Buckets{ByDay: make(map[string][]models.Bill)}
	for _, bill := range bills {
		t := bill.CreatedAt
		if today.Contains(t) {
			b.Today = append(b.Today, bill)
		}
		if w7.Contains(t) {
			b.Last7 = append(b.Last7, bill)
		}
		if w14.Contains(t) {
			b.Last14 = append(b.Last14, bill)
		}
		if w30.Contains(t) {
			b.Last30 = append(b.Last30, bill)
		}
		dow := DayOfWeek(t, loc)
		b.ByWeekday[dow] = append(b.ByWeekday[dow], bill)
		hour := HourOfDay(t, loc)
		b.ByHour[hour] = append(b.ByHour[hour], bill)
		key := DayKey(t, loc)
		b.ByDay[key] = append(b.ByDay[key], bill)
	}
	return b
}

// DailyRevenue returns revenue per local day in w, keyed by DayKey.
// Days without sales are absent.
func DailyRevenue(bills []models.Bill, w Window) map[string]float64 {
	loc := w.Start.Location()
	out := make(map[string]float64)
	for _, b := range bills {
		if w.Contains(b.CreatedAt) {
			out[DayKey(b.CreatedAt, loc)] += b.Total
		}
	}
	return out
}

// daysBetween counts whole calendar days from a to b in b's location.
// Rounding absorbs the hour gained or lost across a DST change.
func daysBetween(a, b time.Time) int {
	d := StartOfDay(b).Sub(StartOfDay(a.In(b.Location())))
	return int(math.Round(d.Hours() / 24))
}
