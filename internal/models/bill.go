package models

import "time"

// PaymentMode is how a bill was settled.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "cash"
	PaymentUPI    PaymentMode = "upi"
	PaymentCard   PaymentMode = "card"
	PaymentCredit PaymentMode = "credit"
)

// Bill represents one completed sale transaction.
type Bill struct {
	// ID is the bill identifier from the billing system (UUID when the source had none).
	ID string `json:"id"`

	// CreatedAt is when the bill was issued at checkout.
	CreatedAt time.Time `json:"createdAt"`

	// Total is the authoritative transaction value. Item prices are not
	// guaranteed to add up to it.
	Total float64 `json:"total"`

	// PaymentMode is one of cash, upi, card or credit.
	PaymentMode PaymentMode `json:"paymentMode"`

	// CustomerID links the bill to a customer profile. Empty for walk-in sales.
	CustomerID string `json:"customerId,omitempty"`

	// CustomerPhone is the second join key. Some sources only record the phone.
	CustomerPhone string `json:"customerPhone,omitempty"`

	// Items are the line items in checkout order.
	Items []BillItem `json:"items"`
}

// BillItem represents one line on a bill.
type BillItem struct {
	// ProductRef is the product ID this line sold.
	ProductRef string `json:"productRef"`

	// ProductName is kept for display when the product has since been removed.
	ProductName string `json:"productName,omitempty"`

	// Quantity is at least 1.
	Quantity int `json:"quantity"`

	// UnitPrice may be zero when the source did not record it.
	UnitPrice float64 `json:"unitPrice"`
}

// HasCustomer reports whether the bill can be joined to a customer.
func (b Bill) HasCustomer() bool {
	return b.CustomerID != "" || b.CustomerPhone != ""
}
