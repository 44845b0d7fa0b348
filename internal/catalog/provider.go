package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type failureRecorder interface {
	IncSourceFailure(operation string)
}

// Provider fronts a Source and degrades to fallback data when it cannot be read.
type Provider struct {
	source   Source
	fallback Source
	logg     *logger.Logger
	metrics  failureRecorder
}

// ProviderParams wires a Provider. Fallback may be nil, in which case reads
// degrade to empty results.
type ProviderParams struct {
	Source   Source
	Fallback Source
	Logger   *logger.Logger
	Metrics  failureRecorder
}

func NewProvider(params ProviderParams) (*Provider, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Provider{
		source:   params.Source,
		fallback: params.Fallback,
		logg:     logg,
		metrics:  params.Metrics,
	}, nil
}

// ListProducts returns the catalog. Source failures are logged and answered with
// the fallback list so callers never branch on them.
func (p *Provider) ListProducts(ctx context.Context) ([]Product, error) {
	products, _ := p.listProducts(ctx)
	return products, nil
}

// GetProduct looks up a product by id. It returns a NotFound error when the id is
// absent from whichever corpus could be read.
func (p *Provider) GetProduct(ctx context.Context, id int) (Product, error) {
	product, err := p.source.Product(ctx, id)
	if err == nil {
		return product, nil
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return Product{}, err
	}

	p.degraded(ctx, "get_product", err)
	if p.fallback == nil {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"id": id})
	}
	product, fbErr := p.fallback.Product(ctx, id)
	if fbErr != nil {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"id": id})
	}
	return product, nil
}

// ListCategories returns the category tags with the same fallback policy as ListProducts.
func (p *Provider) ListCategories(ctx context.Context) ([]string, error) {
	categories, _ := p.listCategories(ctx)
	return categories, nil
}

// Load fetches products and categories concurrently. Each half degrades on its
// own; the snapshot is only assembled once both have completed.
func (p *Provider) Load(ctx context.Context) Snapshot {
	var (
		g          errgroup.Group
		products   []Product
		categories []string
		productsOK bool
		catsOK     bool
	)

	g.Go(func() error {
		products, productsOK = p.listProducts(ctx)
		return nil
	})
	g.Go(func() error {
		categories, catsOK = p.listCategories(ctx)
		return nil
	})
	_ = g.Wait()

	return Snapshot{
		Products:   products,
		Categories: categories,
		Degraded:   !productsOK || !catsOK,
	}
}

func (p *Provider) listProducts(ctx context.Context) ([]Product, bool) {
	products, err := p.source.Products(ctx)
	if err == nil {
		return nonNil(products), true
	}
	p.degraded(ctx, "list_products", err)
	if p.fallback == nil {
		return []Product{}, false
	}
	fb, fbErr := p.fallback.Products(ctx)
	if fbErr != nil {
		p.logg.Error(ctx, "catalog fallback products unavailable", fbErr)
		return []Product{}, false
	}
	return nonNil(fb), false
}

func (p *Provider) listCategories(ctx context.Context) ([]string, bool) {
	categories, err := p.source.Categories(ctx)
	if err == nil {
		if categories == nil {
			categories = []string{}
		}
		return categories, true
	}
	p.degraded(ctx, "list_categories", err)
	if p.fallback == nil {
		return []string{}, false
	}
	fb, fbErr := p.fallback.Categories(ctx)
	if fbErr != nil || fb == nil {
		return []string{}, false
	}
	return fb, false
}

func (p *Provider) degraded(ctx context.Context, operation string, err error) {
	if p.metrics != nil {
		p.metrics.IncSourceFailure(operation)
	}
	ctx = p.logg.WithFields(ctx, map[string]any{
		"operation": operation,
		"fallback":  p.fallback != nil,
	})
	p.logg.Warn(ctx, "catalog source unavailable: "+err.Error())
}

func nonNil(products []Product) []Product {
	if products == nil {
		return []Product{}
	}
	return products
}
