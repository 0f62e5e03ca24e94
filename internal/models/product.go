package models

// DefaultMinStockThreshold is used when the source has no reorder level.
const DefaultMinStockThreshold = 5

// CostPriceRatio estimates cost as a share of the selling price when the
// source has no purchase price.
const CostPriceRatio = 0.7

// Product represents one inventory line.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price"`

	// CostPrice defaults to CostPriceRatio × Price when absent upstream.
	CostPrice float64 `json:"costPrice"`

	// CostPriceEstimated is true when CostPrice came from the fallback.
	CostPriceEstimated bool `json:"costPriceEstimated,omitempty"`

	// Stock can be negative when the billing side oversold.
	Stock int `json:"stock"`

	MinStockThreshold int `json:"minStockThreshold"`
}

// Margin returns (price - cost) / price, or 0 when the price is not positive.
func (p Product) Margin() float64 {
	if p.Price <= 0 {
		return 0
	}
	return (p.Price - p.CostPrice) / p.Price
}
