package controllers

import (
	"net/http"

	"github.com/dmarrez/storefront-backend/api/middleware"
	"github.com/dmarrez/storefront-backend/api/responses"
	"github.com/dmarrez/storefront-backend/internal/checkout"
	pkgerrors "github.com/dmarrez/storefront-backend/pkg/errors"
	"github.com/dmarrez/storefront-backend/pkg/logger"
)

// CreatePaymentIntent creates or reprices the Stripe payment intent backing
// the authenticated user's basket and returns the client secret.
func CreatePaymentIntent(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.UsernameFromContext(r.Context())
		if username == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		info, err := svc.CreateOrUpdateIntent(r.Context(), username)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}
