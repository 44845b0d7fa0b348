package catalog

import "context"

// Source is a backing data source for catalog records.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
	Product(ctx context.Context, id int) (Product, error)
	Categories(ctx context.Context) ([]string, error)
}
