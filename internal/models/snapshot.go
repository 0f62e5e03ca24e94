package models

// Snapshot is a consistent set of input collections as of one evaluation.
// Every analyzer assumes the three slices were fetched together.
type Snapshot struct {
	Bills     []Bill     `json:"bills"`
	Products  []Product  `json:"products"`
	Customers []Customer `json:"customers"`
}

// IsEmpty reports whether the snapshot carries no records at all.
func (s Snapshot) IsEmpty() bool {
	return len(s.Bills) == 0 && len(s.Products) == 0 && len(s.Customers) == 0
}
