package analytics

import (
	"time"

	"github.com/mmynk/bizlens/internal/models"
)

// Segment keys returned by SegmentCampaigns.
const (
	SegmentBirthday  = "birthday"
	SegmentWinBack   = "win_back"
	SegmentVIP       = "vip"
	SegmentWelcome   = "welcome"
	SegmentMilestone = "milestone"
	SegmentFestive   = "festive"
)

// Priority labels for segments.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// SegmentMember is one customer inside a segment.
type SegmentMember struct {
	CustomerID    string  `json:"customerId"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone,omitempty"`
	LifetimeSpend float64 `json:"lifetimeSpend"`
	LoyaltyPoints int     `json:"loyaltyPoints"`
}

// Segment is a named outreach audience with a message template.
// Templates use {name} as the customer placeholder.
type Segment struct {
	Key       string          `json:"key"`
	Name      string          `json:"name"`
	Priority  string          `json:"priority"`
	Template  string          `json:"messageTemplate"`
	Customers []SegmentMember `json:"customers"`
}

type segmentDef struct {
	key, name, priority, template string
}

var segmentDefs = []segmentDef{
	{SegmentBirthday, "Birthday Wishes", PriorityHigh,
		"Happy Birthday {name}! Enjoy a special birthday discount on your next visit this month."},
	{SegmentWinBack, "Win-Back", PriorityHigh,
		"Hi {name}, we miss you! Here's a special offer to welcome you back."},
	{SegmentVIP, "VIP Customers", PriorityMedium,
		"Dear {name}, as one of our most valued customers you get early access to new arrivals."},
	{SegmentWelcome, "New Customer Welcome", PriorityMedium,
		"Welcome {name}! Thank you for shopping with us. Show this message for a bonus on your next purchase."},
	{SegmentMilestone, "Loyalty Milestone", PriorityLow,
		"Hi {name}, you're close to your next loyalty reward! A few more purchases to unlock it."},
	{SegmentFestive, "Festive Offers", PriorityMedium,
		"Season's greetings {name}! Celebrate with our festive offers, in store now."},
}

// SegmentCampaigns assigns customers to outreach segments. A customer can
// appear in several segments. Segments with no members are omitted.
func SegmentCampaigns(customers []models.Customer, bills []models.Bill, now time.Time, cfg CampaignConfig) []Segment {
	idx := newCustomerIndex(bills)
	activeSince := TrailingWindow(now, cfg.ActiveDays)
	winBack := TrailingWindow(now, cfg.WinBackDays)
	welcome := TrailingWindow(now, cfg.WelcomeDays)
	festive := isFestiveMonth(now.Month(), cfg.FestiveMonths)

	members := make(map[string][]SegmentMember)
	for _, c := range customers {
		cb := idx.billsFor(c)
		spend := Revenue(cb)
		last := lastPurchase(cb)
		m := SegmentMember{
			CustomerID:    c.ID,
			Name:          c.Name,
			Phone:         c.Phone,
			LifetimeSpend: round2(spend),
			LoyaltyPoints: c.LoyaltyPoints,
		}

		if c.Birthday != nil && c.Birthday.Month() == now.Month() {
			members[SegmentBirthday] = append(members[SegmentBirthday], m)
		}
		if len(cb) == 0 || last.Before(winBack.Start) {
			members[SegmentWinBack] = append(members[SegmentWinBack], m)
		}
		if spend > cfg.VIPSpend {
			members[SegmentVIP] = append(members[SegmentVIP], m)
		}
		if !c.CreatedAt.IsZero() && welcome.Contains(c.CreatedAt) {
			members[SegmentWelcome] = append(members[SegmentWelcome], m)
		}
		if c.LoyaltyPoints >= cfg.MilestoneMin && c.LoyaltyPoints < cfg.MilestoneTarget {
			members[SegmentMilestone] = append(members[SegmentMilestone], m)
		}
		if festive && len(cb) > 0 && !last.Before(activeSince.Start) {
			members[SegmentFestive] = append(members[SegmentFestive], m)
		}
	}

	out := []Segment{}
	for _, d := range segmentDefs {
		if len(members[d.key]) == 0 {
			continue
		}
		out = append(out, Segment{
			Key:       d.key,
			Name:      d.name,
			Priority:  d.priority,
			Template:  d.template,
			Customers: members[d.key],
		})
	}
	return out
}

func isFestiveMonth(m time.Month, months []time.Month) bool {
	for _, fm := range months {
		if fm == m {
			return true
		}
	}
	return false
}
