package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmarrez/storefront-backend/api/responses"
	"github.com/dmarrez/storefront-backend/api/validators"
	"github.com/dmarrez/storefront-backend/internal/products"
	"github.com/dmarrez/storefront-backend/pkg/logger"
)

type upsertProductRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	Description     string `json:"description" validate:"max=4000"`
	PriceCents      int64  `json:"priceCents" validate:"required,gt=0"`
	PictureURL      string `json:"pictureUrl" validate:"omitempty,url"`
	Type            string `json:"type" validate:"required,min=1,max=100"`
	Brand           string `json:"brand" validate:"required,min=1,max=100"`
	QuantityInStock int    `json:"quantityInStock" validate:"gte=0"`
}

func (r upsertProductRequest) toInput() products.UpsertProductInput {
	return products.UpsertProductInput{
		Name:            r.Name,
		Description:     r.Description,
		PriceCents:      r.PriceCents,
		PictureURL:      r.PictureURL,
		Type:            r.Type,
		Brand:           r.Brand,
		QuantityInStock: r.QuantityInStock,
	}
}

// CreateProduct handles admin product creation.
func CreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct handles admin product updates.
func UpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req upsertProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct handles admin product removal.
func DeleteProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
