package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

type failingSource struct{}

var errDown = pkgerrors.Wrap(pkgerrors.CodeSourceUnavailable, errors.New("connection refused"), "catalog fetch failed")

func (failingSource) Products(context.Context) ([]Product, error)    { return nil, errDown }
func (failingSource) Product(context.Context, int) (Product, error) { return Product{}, errDown }
func (failingSource) Categories(context.Context) ([]string, error)  { return nil, errDown }

type recordingMetrics struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingMetrics) IncSourceFailure(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func TestProviderServesSource(t *testing.T) {
	p, err := NewProvider(ProviderParams{Source: NewStaticSource(nil, nil)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	products, err := p.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 12 {
		t.Fatalf("expected 12 builtin products, got %d", len(products))
	}

	got, err := p.GetProduct(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Mathematics Practice Book 1-7" {
		t.Fatalf("unexpected product %q", got.Title)
	}

	categories, _ := p.ListCategories(context.Background())
	if len(categories) != 6 || categories[0] != "workbook" {
		t.Fatalf("unexpected categories %v", categories)
	}
}

func TestProviderGetProductNotFound(t *testing.T) {
	p, _ := NewProvider(ProviderParams{Source: NewStaticSource(nil, nil)})
	_, err := p.GetProduct(context.Background(), 404)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProviderFallsBackToEmptyWithoutFallbackSource(t *testing.T) {
	metrics := &recordingMetrics{}
	p, _ := NewProvider(ProviderParams{Source: failingSource{}, Metrics: metrics})

	products, err := p.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("source failures must not propagate, got %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", products)
	}

	categories, err := p.ListCategories(context.Background())
	if err != nil || categories == nil || len(categories) != 0 {
		t.Fatalf("expected empty categories, got %v %v", categories, err)
	}

	if _, err := p.GetProduct(context.Background(), 1); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found when nothing can be read, got %v", err)
	}
	if len(metrics.ops) != 3 {
		t.Fatalf("expected 3 recorded failures, got %v", metrics.ops)
	}
}

func TestProviderFallsBackToStatic(t *testing.T) {
	p, _ := NewProvider(ProviderParams{Source: failingSource{}, Fallback: NewStaticSource(nil, nil)})

	products, _ := p.ListProducts(context.Background())
	if len(products) != 12 {
		t.Fatalf("expected static fallback, got %d products", len(products))
	}
	got, err := p.GetProduct(context.Background(), 2)
	if err != nil || got.ID != 2 {
		t.Fatalf("expected fallback product 2, got %+v %v", got, err)
	}
}

func TestProviderLoadMarksDegraded(t *testing.T) {
	healthy, _ := NewProvider(ProviderParams{Source: NewStaticSource(nil, nil)})
	snap := healthy.Load(context.Background())
	if snap.Degraded || len(snap.Products) != 12 || len(snap.Categories) != 6 {
		t.Fatalf("unexpected healthy snapshot %+v", snap)
	}

	broken, _ := NewProvider(ProviderParams{Source: failingSource{}, Fallback: NewStaticSource(nil, nil)})
	snap = broken.Load(context.Background())
	if !snap.Degraded {
		t.Fatalf("expected degraded snapshot")
	}
	if len(snap.Products) != 12 || len(snap.Categories) != 6 {
		t.Fatalf("expected fallback data in degraded snapshot, got %d/%d", len(snap.Products), len(snap.Categories))
	}
}

func TestNewProviderRequiresSource(t *testing.T) {
	if _, err := NewProvider(ProviderParams{}); err == nil {
		t.Fatal("expected error without source")
	}
}

func TestStaticSourceDerivesCategories(t *testing.T) {
	src := NewStaticSource([]Product{{ID: 1, Category: "art"}, {ID: 2, Category: "art"}, {ID: 3, Category: "science"}}, nil)
	got, _ := src.Categories(context.Background())
	if len(got) != 2 || got[0] != "art" || got[1] != "science" {
		t.Fatalf("unexpected derived categories %v", got)
	}
}
