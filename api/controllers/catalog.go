package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/format"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/pagination"
)

const maxQueryLen = 128

// CatalogService is the read surface of the catalog provider.
type CatalogService interface {
	Load(ctx context.Context) catalog.Snapshot
	GetProduct(ctx context.Context, id int) (catalog.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// ProductList serves the browse view: ?q=&category=&level=&sort=&limit=&cursor=.
func ProductList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		sort, err := catalog.ParseSortCriterion(r.URL.Query().Get("sort"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").
				WithDetails(map[string]any{"field": "sort"}))
			return
		}
		query := catalog.Query{
			Search:   validators.ParseQueryString(r, "q", maxQueryLen),
			Category: validators.ParseQueryString(r, "category", maxQueryLen),
			Level:    validators.ParseQueryString(r, "level", maxQueryLen),
			Sort:     sort,
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap := svc.Load(r.Context())
		products := catalog.Apply(snap.Products, query)
		page, next, err := pagination.Page(products, pagination.Params{
			Limit:  limit,
			Cursor: validators.ParseQueryString(r, "cursor", maxQueryLen),
		}, func(p catalog.Product) int { return p.ID })
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
				WithDetails(map[string]any{"field": "cursor"}))
			return
		}
		responses.WriteSuccess(w, productListResponse{
			Products:   newProductViews(page),
			Total:      len(products),
			NextCursor: next,
			Degraded:   snap.Degraded,
		})
	}
}

func ProductDetail(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductView(product))
	}
}

type categoryView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

func CategoryList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]categoryView, 0, len(categories))
		for _, c := range categories {
			out = append(out, categoryView{Name: c, Label: format.Capitalize(c)})
		}
		responses.WriteSuccess(w, out)
	}
}
