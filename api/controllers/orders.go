package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmarrez/storefront-backend/api/middleware"
	"github.com/dmarrez/storefront-backend/api/responses"
	"github.com/dmarrez/storefront-backend/api/validators"
	"github.com/dmarrez/storefront-backend/internal/checkout"
	"github.com/dmarrez/storefront-backend/internal/orders"
	"github.com/dmarrez/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmarrez/storefront-backend/pkg/errors"
	"github.com/dmarrez/storefront-backend/pkg/logger"
	"github.com/dmarrez/storefront-backend/pkg/pagination"
)

type submitOrderRequest struct {
	ShippingAddress models.Address `json:"shippingAddress" validate:"required"`
}

type orderListResponse struct {
	Items    []models.Order      `json:"items"`
	Metadata pagination.Metadata `json:"metadata"`
}

// SubmitOrder turns the authenticated user's basket into an order snapshot.
func SubmitOrder(svc orders.Service, intents checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.UsernameFromContext(r.Context())
		if username == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var req submitOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var intentID string
		if intents != nil {
			stored, err := intents.StoredIntentID(r.Context(), username)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			intentID = stored
		}

		order, err := svc.Submit(r.Context(), orders.SubmitOrderInput{
			BuyerID:         username,
			ShippingAddress: req.ShippingAddress,
			PaymentIntentID: intentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if intents != nil {
			if err := intents.ClearIntent(r.Context(), username); err != nil && logg != nil {
				logg.Error(r.Context(), "clear stored intent after submit", err)
			}
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListOrders serves the authenticated user's order history.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.UsernameFromContext(r.Context())

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

		rows, meta, err := svc.List(r.Context(), username, pagination.Params{PageNumber: pageNumber, PageSize: pageSize})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderListResponse{Items: rows, Metadata: meta})
	}
}

// GetOrder serves one order scoped to the authenticated user.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), middleware.UsernameFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
