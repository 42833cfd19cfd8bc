package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/dmarrez/storefront-backend/internal/auth"
	"github.com/dmarrez/storefront-backend/internal/checkout"
	"github.com/dmarrez/storefront-backend/internal/orders"
	"github.com/dmarrez/storefront-backend/internal/products"
	"github.com/dmarrez/storefront-backend/internal/users"
	pkgauth "github.com/dmarrez/storefront-backend/pkg/auth"
	"github.com/dmarrez/storefront-backend/pkg/auth/session"
	"github.com/dmarrez/storefront-backend/pkg/config"
	"github.com/dmarrez/storefront-backend/pkg/db/models"
	"github.com/dmarrez/storefront-backend/pkg/enums"
	"github.com/dmarrez/storefront-backend/pkg/logger"
	"github.com/dmarrez/storefront-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubProductService struct{}

func (stubProductService) List(ctx context.Context, input products.ListInput) ([]models.Product, pagination.Metadata, error) {
	return []models.Product{}, pagination.Metadata{}, nil
}

func (stubProductService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return &models.Product{ID: id}, nil
}

func (stubProductService) Filters(ctx context.Context) (*products.FilterOptions, error) {
	return &products.FilterOptions{}, nil
}

func (stubProductService) Create(ctx context.Context, input products.UpsertProductInput) (*models.Product, error) {
	return &models.Product{ID: uuid.New(), Name: input.Name}, nil
}

func (stubProductService) Update(ctx context.Context, id uuid.UUID, input products.UpsertProductInput) (*models.Product, error) {
	return &models.Product{ID: id, Name: input.Name}, nil
}

func (stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type stubBasketService struct{}

func (stubBasketService) GetBasket(ctx context.Context, buyerID string) (*models.Basket, error) {
	return &models.Basket{ID: uuid.New(), BuyerID: buyerID}, nil
}

func (stubBasketService) GetOrCreate(ctx context.Context, buyerID string) (*models.Basket, bool, error) {
	return &models.Basket{ID: uuid.New(), BuyerID: buyerID}, false, nil
}

func (stubBasketService) AddItem(ctx context.Context, buyerID string, productID uuid.UUID, quantity int) (*models.Basket, error) {
	return &models.Basket{ID: uuid.New(), BuyerID: buyerID}, nil
}

func (stubBasketService) RemoveItem(ctx context.Context, buyerID string, productID uuid.UUID, quantity int) (*models.Basket, error) {
	return &models.Basket{ID: uuid.New(), BuyerID: buyerID}, nil
}

func (stubBasketService) MergeOnLogin(ctx context.Context, username, anonymousToken string) error {
	return nil
}

func (stubBasketService) DeleteBasket(ctx context.Context, buyerID string) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req authsvc.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{ID: uuid.New(), Username: req.Username}, nil
}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	return &authsvc.LoginResponse{
		AccessToken:  "access",
		RefreshToken: "refresh",
		User:         &users.UserDTO{ID: uuid.New(), Username: req.Username},
	}, nil
}

func (stubAuthService) Refresh(ctx context.Context, req authsvc.RefreshRequest) (*authsvc.LoginResponse, error) {
	return &authsvc.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

func (stubAuthService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID, Username: "shopper"}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Submit(ctx context.Context, input orders.SubmitOrderInput) (*models.Order, error) {
	return &models.Order{ID: uuid.New(), BuyerID: input.BuyerID}, nil
}

func (stubOrdersService) List(ctx context.Context, buyerID string, page pagination.Params) ([]models.Order, pagination.Metadata, error) {
	return []models.Order{}, pagination.Metadata{}, nil
}

func (stubOrdersService) Get(ctx context.Context, buyerID string, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, BuyerID: buyerID}, nil
}

func (stubOrdersService) MarkPaymentResult(ctx context.Context, paymentIntentID string, succeeded bool) (*models.Order, error) {
	return nil, nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) CreateOrUpdateIntent(ctx context.Context, buyerID string) (*checkout.PaymentIntentInfo, error) {
	return &checkout.PaymentIntentInfo{PaymentIntentID: "pi_test", ClientSecret: "secret", AmountCents: 1500}, nil
}

func (stubCheckoutService) StoredIntentID(ctx context.Context, buyerID string) (string, error) {
	return "", nil
}

func (stubCheckoutService) ClearIntent(ctx context.Context, buyerID string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "storefront-test",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
		Basket: config.BasketConfig{CookieName: "buyerId", CookieTTLDays: 30},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		Redis:    nil,
		Sessions: stubSessionChecker{},
		Products: stubProductService{},
		Baskets:  stubBasketService{},
		Auth:     stubAuthService{},
		Orders:   stubOrdersService{},
		Checkout: stubCheckoutService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "shopper",
		Role:     role,
		JTI:      session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestProductListingIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for product list got %d", resp.Code)
	}
}

func TestBasketGetWithoutIdentityReturnsNotFound(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/basket", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without buyer identity got %d", resp.Code)
	}
	cookie := findCookie(resp.Result().Cookies(), "buyerId")
	if cookie == nil || cookie.MaxAge != -1 {
		t.Fatalf("expected expired buyerId cookie got %+v", cookie)
	}
}

func TestBasketAddMintsAnonymousCookie(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/basket?productId="+uuid.NewString()+"&quantity=2", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for add item got %d: %s", resp.Code, resp.Body.String())
	}
	cookie := findCookie(resp.Result().Cookies(), "buyerId")
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected a minted buyerId cookie")
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		t.Fatalf("expected uuid cookie value got %q", cookie.Value)
	}
}

func TestBasketGetWithCookieSucceeds(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/basket", nil)
	req.AddCookie(&http.Cookie{Name: "buyerId", Value: uuid.NewString()})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for basket with cookie got %d", resp.Code)
	}
}

func TestOrdersRequireAuthentication(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestOrdersListSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleMember))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order list got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminProductsRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	body := `{"name":"Board","priceCents":12000,"type":"boards","brand":"Angular","quantityInStock":5}`

	member := httptest.NewRequest(http.MethodPost, "/api/admin/v1/products", strings.NewReader(body))
	member.Header.Set("Content-Type", "application/json")
	member.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleMember))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, member)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, "/api/admin/v1/products", strings.NewReader(body))
	admin.Header.Set("Content-Type", "application/json")
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin create got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestMeRequiresAuthentication(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestMeSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleMember))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for me got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestStripeWebhookRejectsMissingSignature(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader("{}"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Stripe-Signature got %d", resp.Code)
	}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
