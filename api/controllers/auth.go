package controllers

import (
	"net/http"
	"strings"

	"github.com/dmarrez/storefront-backend/api/middleware"
	"github.com/dmarrez/storefront-backend/api/responses"
	"github.com/dmarrez/storefront-backend/api/validators"
	authsvc "github.com/dmarrez/storefront-backend/internal/auth"
	"github.com/dmarrez/storefront-backend/internal/basket"
	"github.com/dmarrez/storefront-backend/internal/identity"
	"github.com/dmarrez/storefront-backend/pkg/config"
	pkgerrors "github.com/dmarrez/storefront-backend/pkg/errors"
	"github.com/dmarrez/storefront-backend/pkg/logger"
)

// Register creates a new member account.
func Register(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authsvc.RegisterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// Login authenticates the user. Any anonymous basket carried by the
// correlation cookie is folded into the user's basket, and the cookie is
// cleared so the username becomes the basket key from here on.
func Login(svc authsvc.Service, baskets basket.Service, cfg config.BasketConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if cookie, err := r.Cookie(cfg.CookieName); err == nil {
			req.AnonymousToken = strings.TrimSpace(cookie.Value)
		}

		resp, err := svc.Login(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if req.AnonymousToken != "" {
			// The anonymous basket is merged; the token is dead.
			identity.ClearCookie(w, cfg)
		}

		attachBasket(r, baskets, resp, logg)
		responses.WriteSuccess(w, resp)
	}
}

// Me serves the current user's profile with their basket.
func Me(svc authsvc.Service, baskets basket.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := svc.Me(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := &authsvc.MeResponse{User: user}
		if baskets != nil {
			if current, err := baskets.GetBasket(r.Context(), user.Username); err == nil {
				resp.Basket = basket.ToDTO(current)
			} else if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, resp)
	}
}

// Refresh exchanges an expired access token plus refresh token for a new pair.
func Refresh(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authsvc.RefreshRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Refresh(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// Logout revokes the caller's refresh session.
func Logout(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func attachBasket(r *http.Request, baskets basket.Service, resp *authsvc.LoginResponse, logg *logger.Logger) {
	if baskets == nil || resp == nil || resp.User == nil {
		return
	}
	current, err := baskets.GetBasket(r.Context(), resp.User.Username)
	if err != nil {
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) && logg != nil {
			logg.Error(r.Context(), "load basket after login", err)
		}
		return
	}
	resp.Basket = basket.ToDTO(current)
}

