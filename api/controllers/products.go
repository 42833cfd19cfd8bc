package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmarrez/storefront-backend/api/responses"
	"github.com/dmarrez/storefront-backend/api/validators"
	"github.com/dmarrez/storefront-backend/internal/products"
	"github.com/dmarrez/storefront-backend/pkg/logger"
	"github.com/dmarrez/storefront-backend/pkg/pagination"
)

type productListResponse struct {
	Items    any                 `json:"items"`
	Metadata pagination.Metadata `json:"metadata"`
}

// ListProducts serves the paginated catalog with search, filter, and sort.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageNumber, err := validators.ParseQueryInt(r, "pageNumber", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "pageSize", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		input := products.ListInput{
			Filters: products.ListFilters{
				Search: strings.TrimSpace(query.Get("searchTerm")),
				Types:  products.ParseCSV(query.Get("types")),
				Brands: products.ParseCSV(query.Get("brands")),
				Sort:   query.Get("orderBy"),
			},
			Pagination: pagination.Params{PageNumber: pageNumber, PageSize: pageSize},
		}

		items, meta, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productListResponse{Items: items, Metadata: meta})
	}
}

// GetProduct serves one catalog entry.
func GetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// GetProductFilters serves the distinct brand/type sets for the filter UI.
func GetProductFilters(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := svc.Filters(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, filters)
	}
}
