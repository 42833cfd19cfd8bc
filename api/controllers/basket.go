package controllers

import (
	"context"
	"net/http"

	"github.com/dmarrez/storefront-backend/api/middleware"
	"github.com/dmarrez/storefront-backend/api/responses"
	"github.com/dmarrez/storefront-backend/api/validators"
	"github.com/dmarrez/storefront-backend/internal/basket"
	"github.com/dmarrez/storefront-backend/internal/identity"
	"github.com/dmarrez/storefront-backend/pkg/config"
	pkgerrors "github.com/dmarrez/storefront-backend/pkg/errors"
	"github.com/dmarrez/storefront-backend/pkg/logger"
)

// GetBasket serves the current buyer's basket. A request with no resolvable
// identity gets NOT_FOUND and its stale cookie cleared.
func GetBasket(svc basket.Service, cfg config.BasketConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := identity.Resolve(middleware.UsernameFromContext(r.Context()), r, cfg.CookieName)
		if !ident.IsPresent() {
			identity.ClearCookie(w, cfg)
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "basket not found"))
			return
		}

		ctx := buyerContext(r, logg, ident.BuyerID)
		current, err := svc.GetBasket(ctx, ident.BuyerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, basket.ToDTO(current))
	}
}

// AddBasketItem adds quantity of a product to the buyer's basket, minting an
// anonymous identity (and issuing the correlation cookie) when the request
// carries none.
func AddBasketItem(svc basket.Service, cfg config.BasketConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := identity.Resolve(middleware.UsernameFromContext(r.Context()), r, cfg.CookieName)
		if !ident.IsPresent() {
			ident = identity.NewAnonymous()
			identity.IssueCookie(w, cfg, ident.BuyerID)
		}

		productID, err := validators.ParseQueryUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := buyerContext(r, logg, ident.BuyerID)
		current, err := svc.AddItem(ctx, ident.BuyerID, productID, quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, basket.ToDTO(current))
	}
}

// RemoveBasketItem decrements a line, deleting it when the quantity reaches
// zero. Removing from a line that is not there is a no-op.
func RemoveBasketItem(svc basket.Service, cfg config.BasketConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := identity.Resolve(middleware.UsernameFromContext(r.Context()), r, cfg.CookieName)
		if !ident.IsPresent() {
			identity.ClearCookie(w, cfg)
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "basket not found"))
			return
		}

		productID, err := validators.ParseQueryUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := buyerContext(r, logg, ident.BuyerID)
		current, err := svc.RemoveItem(ctx, ident.BuyerID, productID, quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, basket.ToDTO(current))
	}
}

func buyerContext(r *http.Request, logg *logger.Logger, buyerID string) context.Context {
	ctx := middleware.WithBuyerID(r.Context(), buyerID)
	if logg != nil {
		ctx = logg.WithBuyerID(ctx, buyerID)
	}
	return ctx
}
