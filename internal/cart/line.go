package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/catalog"
)

// Line is one product in the cart with the product fields captured at add time.
type Line struct {
	ProductID int             `json:"productId"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

func lineFromProduct(p catalog.Product, quantity int) Line {
	return Line{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Image:     p.Image,
		Quantity:  quantity,
	}
}

// LineTotal is price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// normalizeLines drops lines that cannot be valid and merges duplicates so a
// rehydrated cart keeps one line per product.
func normalizeLines(in []Line) []Line {
	out := make([]Line, 0, len(in))
	index := make(map[int]int, len(in))
	for _, l := range in {
		if l.Quantity < 1 || l.ProductID == 0 || l.Price.IsNegative() {
			continue
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}
