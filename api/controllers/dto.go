package controllers

import (
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/format"
)

const descriptionPreviewLen = 120

// productView adds the display strings the storefront renders next to a product.
type productView struct {
	catalog.Product
	DisplayPrice       string `json:"displayPrice"`
	DisplayRating      string `json:"displayRating,omitempty"`
	DescriptionPreview string `json:"descriptionPreview"`
}

func newProductView(p catalog.Product) productView {
	view := productView{
		Product:            p,
		DisplayPrice:       format.Price(p.Price),
		DescriptionPreview: format.Truncate(p.Description, descriptionPreviewLen),
	}
	if p.Rating != nil {
		view.DisplayRating = format.Rating(p.Rating.Rate)
	}
	return view
}

func newProductViews(products []catalog.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, newProductView(p))
	}
	return out
}

type productListResponse struct {
	Products   []productView `json:"products"`
	Total      int           `json:"total"`
	NextCursor string        `json:"nextCursor,omitempty"`
	Degraded   bool          `json:"degraded"`
}

type lineView struct {
	cart.Line
	DisplayPrice string `json:"displayPrice"`
	LineTotal    string `json:"lineTotal"`
}

type totalsView struct {
	cart.Totals
	FreeShipping bool              `json:"freeShipping"`
	Display      map[string]string `json:"display"`
}

type cartView struct {
	Lines     []lineView `json:"lines"`
	ItemCount int        `json:"itemCount"`
	Totals    totalsView `json:"totals"`
}

func newTotalsView(t cart.Totals) totalsView {
	return totalsView{
		Totals:       t,
		FreeShipping: t.FreeShipping(),
		Display: map[string]string{
			"subtotal": format.Price(t.Subtotal),
			"shipping": format.Price(t.Shipping),
			"tax":      format.Price(t.Tax),
			"total":    format.Price(t.Total),
		},
	}
}

func newCartView(store *cart.Store) cartView {
	lines := store.Lines()
	view := cartView{
		Lines:     make([]lineView, 0, len(lines)),
		ItemCount: store.ItemCount(),
		Totals:    newTotalsView(store.Totals()),
	}
	for _, line := range lines {
		view.Lines = append(view.Lines, lineView{
			Line:         line,
			DisplayPrice: format.Price(line.Price),
			LineTotal:    format.Price(line.LineTotal()),
		})
	}
	return view
}
