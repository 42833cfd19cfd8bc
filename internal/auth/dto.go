package auth

import (
	"github.com/dmarrez/storefront-backend/internal/basket"
	"github.com/dmarrez/storefront-backend/internal/users"
)

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest carries credentials plus the anonymous basket token lifted from
// the correlation cookie by the controller.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`

	AnonymousToken string `json:"-"`
}

// RefreshRequest exchanges an expired access token and its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LoginResponse is returned from login and refresh. Basket is populated on
// login with the user's post-merge basket.
type LoginResponse struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	User         *users.UserDTO    `json:"user"`
	Basket       *basket.BasketDTO `json:"basket,omitempty"`
}

// MeResponse is the current-user payload.
type MeResponse struct {
	User   *users.UserDTO    `json:"user"`
	Basket *basket.BasketDTO `json:"basket,omitempty"`
}
