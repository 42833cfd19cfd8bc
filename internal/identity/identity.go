package identity

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmarrez/storefront-backend/pkg/config"
)

// Kind tags how a buyer identity was established.
type Kind string

const (
	// KindNone means no identity could be resolved from the request.
	KindNone Kind = "none"
	// KindAnonymous means the buyer is correlated via the basket cookie.
	KindAnonymous Kind = "anonymous"
	// KindAuthenticated means the buyer is a signed-in user.
	KindAuthenticated Kind = "authenticated"
)

// Identity is the resolved buyer identity for a request. The authenticated
// username always wins over the anonymous cookie token.
type Identity struct {
	Kind    Kind
	BuyerID string
}

// IsPresent reports whether a buyer key was resolved.
func (i Identity) IsPresent() bool {
	return i.Kind != KindNone && i.BuyerID != ""
}

// Resolve derives the buyer identity from the authenticated username (empty
// when the request carries no valid token) and the correlation cookie.
func Resolve(username string, r *http.Request, cookieName string) Identity {
	if name := strings.TrimSpace(username); name != "" {
		return Identity{Kind: KindAuthenticated, BuyerID: name}
	}

	if cookie, err := r.Cookie(cookieName); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return Identity{Kind: KindAnonymous, BuyerID: token}
		}
	}

	return Identity{Kind: KindNone}
}

// NewAnonymous mints a fresh anonymous identity.
func NewAnonymous() Identity {
	return Identity{Kind: KindAnonymous, BuyerID: uuid.NewString()}
}

// IssueCookie writes the buyer correlation cookie. The cookie is essential to
// basket function, so no consent gating applies.
func IssueCookie(w http.ResponseWriter, cfg config.BasketConfig, buyerID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    buyerID,
		Path:     "/",
		MaxAge:   int(cfg.CookieTTL().Seconds()),
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the buyer correlation cookie.
func ClearCookie(w http.ResponseWriter, cfg config.BasketConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
