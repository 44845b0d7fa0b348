package catalog

import (
	"github.com/shopspring/decimal"
)

// Product is an immutable catalog record. Prices are currency-agnostic units.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Level       string          `json:"level,omitempty"`
	Rating      *Rating         `json:"rating,omitempty"`
}

// Rating is the optional review summary attached to a product.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// RatingValue returns the rate, treating unrated products as zero.
func (p Product) RatingValue() float64 {
	if p.Rating == nil {
		return 0
	}
	return p.Rating.Rate
}

// Valid reports whether the record satisfies the catalog invariants.
func (p Product) Valid() bool {
	if p.Price.IsNegative() {
		return false
	}
	if p.Rating != nil && (p.Rating.Rate < 0 || p.Rating.Rate > 5 || p.Rating.Count < 0) {
		return false
	}
	return true
}

// Snapshot is the result of loading products and categories together.
type Snapshot struct {
	Products   []Product `json:"products"`
	Categories []string  `json:"categories"`
	// Degraded is set when either half was served from fallback data.
	Degraded bool `json:"degraded"`
}
