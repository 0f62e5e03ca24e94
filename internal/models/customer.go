package models

import "time"

// Customer represents one buyer profile.
type Customer struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone,omitempty"`
	LoyaltyPoints     int       `json:"loyaltyPoints"`
	CreditOutstanding float64   `json:"creditOutstanding"`
	VisitCount        int       `json:"visitCount"`
	CreatedAt         time.Time `json:"createdAt"`

	// Birthday is nil when unknown. Only month and day are meaningful.
	Birthday *time.Time `json:"birthday,omitempty"`
}
