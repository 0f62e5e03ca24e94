package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/bizlens/internal/models"
)

func segmentMembers(segments []Segment) map[string][]string {
	out := make(map[string][]string)
	for _, s := range segments {
		for _, m := range s.Customers {
			out[s.Key] = append(out[s.Key], m.CustomerID)
		}
	}
	return out
}

func TestSegmentCampaigns(t *testing.T) {
	birthday := time.Date(1990, time.March, 3, 0, 0, 0, 0, time.UTC)
	customers := []models.Customer{
		{ID: "bday", Birthday: &birthday},
		{ID: "lapsed"},
		{ID: "never"},
		{ID: "vip"},
		{ID: "newbie", CreatedAt: daysAgo(3)},
		{ID: "milestone", LoyaltyPoints: 8500},
		{ID: "maxed", LoyaltyPoints: 10000},
	}
	bills := []models.Bill{
		{ID: "b1", CustomerID: "bday", CreatedAt: daysAgo(5), Total: 200},
		{ID: "b2", CustomerID: "lapsed", CreatedAt: daysAgo(40), Total: 300},
		{ID: "b3", CustomerID: "vip", CreatedAt: daysAgo(2), Total: 3500},
		{ID: "b4", CustomerID: "vip", CreatedAt: daysAgo(20), Total: 2500},
		{ID: "b5", CustomerID: "newbie", CreatedAt: daysAgo(0), Total: 150},
		{ID: "b6", CustomerID: "milestone", CreatedAt: daysAgo(1), Total: 100},
		{ID: "b7", CustomerID: "maxed", CreatedAt: daysAgo(1), Total: 100},
	}

	segments := SegmentCampaigns(customers, bills, refNow, DefaultConfig().Campaign)

	keys := make([]string, len(segments))
	for i, s := range segments {
		keys[i] = s.Key
		assert.NotEmpty(t, s.Template, s.Key)
		assert.NotEmpty(t, s.Priority, s.Key)
	}
	assert.Equal(t, []string{SegmentBirthday, SegmentWinBack, SegmentVIP, SegmentWelcome, SegmentMilestone}, keys,
		"festive is gated to its months")

	members := segmentMembers(segments)
	assert.Equal(t, []string{"bday"}, members[SegmentBirthday])
	assert.Equal(t, []string{"lapsed", "never"}, members[SegmentWinBack])
	assert.Equal(t, []string{"vip"}, members[SegmentVIP])
	assert.Equal(t, []string{"newbie"}, members[SegmentWelcome])
	assert.Equal(t, []string{"milestone"}, members[SegmentMilestone])
}

func TestSegmentCampaignsFestive(t *testing.T) {
	now := time.Date(2024, time.October, 10, 12, 0, 0, 0, time.UTC)
	customers := []models.Customer{{ID: "active"}, {ID: "dormant"}}
	bills := []models.Bill{
		{ID: "b1", CustomerID: "active", CreatedAt: now.AddDate(0, 0, -10), Total: 500},
		{ID: "b2", CustomerID: "dormant", CreatedAt: now.AddDate(0, 0, -40), Total: 500},
	}

	segments := SegmentCampaigns(customers, bills, now, DefaultConfig().Campaign)
	members := segmentMembers(segments)

	assert.Equal(t, []string{"active"}, members[SegmentFestive])
	assert.Equal(t, []string{"dormant"}, members[SegmentWinBack])
}

func TestSegmentCampaignsOmitsEmptySegments(t *testing.T) {
	segments := SegmentCampaigns(nil, nil, refNow, DefaultConfig().Campaign)
	require.NotNil(t, segments)
	assert.Empty(t, segments)
}
