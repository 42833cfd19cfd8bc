package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmarrez/storefront-backend/pkg/config"
)

func newRequestWithCookie(t *testing.T, name, value string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/basket", nil)
	if name != "" {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return req
}

func TestResolveAuthenticatedWinsOverCookie(t *testing.T) {
	t.Parallel()

	req := newRequestWithCookie(t, "buyerId", "anon-token")
	got := Resolve("bob", req, "buyerId")

	if got.Kind != KindAuthenticated {
		t.Fatalf("expected authenticated kind, got %s", got.Kind)
	}
	if got.BuyerID != "bob" {
		t.Fatalf("expected buyer id bob, got %q", got.BuyerID)
	}
}

func TestResolveFallsBackToCookie(t *testing.T) {
	t.Parallel()

	req := newRequestWithCookie(t, "buyerId", "anon-token")
	got := Resolve("", req, "buyerId")

	if got.Kind != KindAnonymous {
		t.Fatalf("expected anonymous kind, got %s", got.Kind)
	}
	if got.BuyerID != "anon-token" {
		t.Fatalf("expected cookie token, got %q", got.BuyerID)
	}
}

func TestResolveAbsent(t *testing.T) {
	t.Parallel()

	req := newRequestWithCookie(t, "", "")
	got := Resolve("  ", req, "buyerId")

	if got.Kind != KindNone {
		t.Fatalf("expected none kind, got %s", got.Kind)
	}
	if got.IsPresent() {
		t.Fatal("expected identity to be absent")
	}
}

func TestResolveIgnoresEmptyCookieValue(t *testing.T) {
	t.Parallel()

	req := newRequestWithCookie(t, "buyerId", "  ")
	got := Resolve("", req, "buyerId")

	if got.Kind != KindNone {
		t.Fatalf("expected none kind for blank cookie, got %s", got.Kind)
	}
}

func TestNewAnonymousMintsUniqueTokens(t *testing.T) {
	t.Parallel()

	a := NewAnonymous()
	b := NewAnonymous()
	if a.Kind != KindAnonymous || b.Kind != KindAnonymous {
		t.Fatal("expected anonymous identities")
	}
	if a.BuyerID == "" || a.BuyerID == b.BuyerID {
		t.Fatalf("expected distinct tokens, got %q and %q", a.BuyerID, b.BuyerID)
	}
}

func TestIssueAndClearCookie(t *testing.T) {
	t.Parallel()

	cfg := config.BasketConfig{CookieName: "buyerId", CookieTTLDays: 30}

	rec := httptest.NewRecorder()
	IssueCookie(rec, cfg, "token-123")
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	issued := cookies[0]
	if issued.Name != "buyerId" || issued.Value != "token-123" {
		t.Fatalf("unexpected cookie %s=%s", issued.Name, issued.Value)
	}
	if issued.MaxAge != 30*24*60*60 {
		t.Fatalf("expected 30 day max-age, got %d", issued.MaxAge)
	}

	rec = httptest.NewRecorder()
	ClearCookie(rec, cfg)
	cookies = rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	cleared := cookies[0]
	if cleared.MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got max-age %d", cleared.MaxAge)
	}
}
