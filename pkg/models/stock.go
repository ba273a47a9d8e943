package models

// Stock is one registered instrument in the simulation registry.
type Stock struct {
	Key        int64   `json:"key"`        // assigned by storage, immutable
	Name       string  `json:"name"`       // unique, immutable after creation
	Volatility float64 `json:"volatility"` // half-width of the per-tick uniform perturbation
}

// PricePoint is a single recorded observation in a stock's price history.
// Within a series, ordering by Key equals chronological insertion order.
type PricePoint struct {
	Key   int64   `json:"key"`
	Value float64 `json:"value"`
}

// StockUpdate is a partial update to a registered stock. Nil fields are
// left untouched; set fields are applied independently of each other.
type StockUpdate struct {
	ShareValue *float64
	Volatility *float64
}
