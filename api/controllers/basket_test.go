package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarrez/storefront-backend/api/middleware"
	"github.com/dmarrez/storefront-backend/pkg/config"
	"github.com/dmarrez/storefront-backend/pkg/db/models"
)

type recordingBasketService struct {
	lastBuyerID   string
	lastProductID uuid.UUID
	lastQuantity  int
}

func (s *recordingBasketService) GetBasket(ctx context.Context, buyerID string) (*models.Basket, error) {
	s.lastBuyerID = buyerID
	return &models.Basket{ID: uuid.New(), BuyerID: buyerID}, nil
}

func (s *recordingBasketService) GetOrCreate(ctx context.Context, buyerID string) (*models.Basket, bool, error) {
	s.lastBuyerID = buyerID
	return &models.Basket{ID: uuid.New(), BuyerID: buyerID}, false, nil
}

func (s *recordingBasketService) AddItem(ctx context.Context, buyerID string, productID uuid.UUID, quantity int) (*models.Basket, error) {
	s.lastBuyerID = buyerID
	s.lastProductID = productID
	s.lastQuantity = quantity
	return &models.Basket{ID: uuid.New(), BuyerID: buyerID}, nil
}

func (s *recordingBasketService) RemoveItem(ctx context.Context, buyerID string, productID uuid.UUID, quantity int) (*models.Basket, error) {
	s.lastBuyerID = buyerID
	s.lastProductID = productID
	s.lastQuantity = quantity
	return &models.Basket{ID: uuid.New(), BuyerID: buyerID}, nil
}

func (s *recordingBasketService) MergeOnLogin(ctx context.Context, username, anonymousToken string) error {
	return nil
}

func (s *recordingBasketService) DeleteBasket(ctx context.Context, buyerID string) error {
	return nil
}

func basketCookieConfig() config.BasketConfig {
	return config.BasketConfig{CookieName: "buyerId", CookieTTLDays: 30}
}

func setCookieByName(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestGetBasketWithoutIdentityClearsCookie(t *testing.T) {
	svc := &recordingBasketService{}
	handler := GetBasket(svc, basketCookieConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/basket", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	cookie := setCookieByName(t, rec.Result(), "buyerId")
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.Empty(t, svc.lastBuyerID)
}

func TestGetBasketUsesCookieToken(t *testing.T) {
	svc := &recordingBasketService{}
	handler := GetBasket(svc, basketCookieConfig(), nil)

	token := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/basket", nil)
	req.AddCookie(&http.Cookie{Name: "buyerId", Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, token, svc.lastBuyerID)
}

func TestGetBasketPrefersAuthenticatedUsername(t *testing.T) {
	svc := &recordingBasketService{}
	handler := GetBasket(svc, basketCookieConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/basket", nil)
	req.AddCookie(&http.Cookie{Name: "buyerId", Value: uuid.NewString()})
	req = req.WithContext(middleware.WithUsername(req.Context(), "shopper"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shopper", svc.lastBuyerID)
}

func TestAddBasketItemMintsAnonymousIdentity(t *testing.T) {
	svc := &recordingBasketService{}
	handler := AddBasketItem(svc, basketCookieConfig(), nil)

	productID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/basket?productId="+productID.String()+"&quantity=3", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, productID, svc.lastProductID)
	assert.Equal(t, 3, svc.lastQuantity)

	cookie := setCookieByName(t, rec.Result(), "buyerId")
	require.NotNil(t, cookie)
	_, err := uuid.Parse(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, cookie.Value, svc.lastBuyerID)
}

func TestAddBasketItemReusesCookieIdentity(t *testing.T) {
	svc := &recordingBasketService{}
	handler := AddBasketItem(svc, basketCookieConfig(), nil)

	token := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/basket?productId="+uuid.NewString(), nil)
	req.AddCookie(&http.Cookie{Name: "buyerId", Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, token, svc.lastBuyerID)
	assert.Equal(t, 1, svc.lastQuantity, "quantity defaults to one")
	assert.Nil(t, setCookieByName(t, rec.Result(), "buyerId"), "no fresh cookie when one is presented")
}

func TestAddBasketItemRejectsBadProductID(t *testing.T) {
	svc := &recordingBasketService{}
	handler := AddBasketItem(svc, basketCookieConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/basket?productId=not-a-uuid", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddBasketItemRejectsOversizedQuantity(t *testing.T) {
	svc := &recordingBasketService{}
	handler := AddBasketItem(svc, basketCookieConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/basket?productId="+uuid.NewString()+"&quantity=1001", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveBasketItemWithoutIdentityReturnsNotFound(t *testing.T) {
	svc := &recordingBasketService{}
	handler := RemoveBasketItem(svc, basketCookieConfig(), nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/basket?productId="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	cookie := setCookieByName(t, rec.Result(), "buyerId")
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestRemoveBasketItemWithCookie(t *testing.T) {
	svc := &recordingBasketService{}
	handler := RemoveBasketItem(svc, basketCookieConfig(), nil)

	token := uuid.NewString()
	productID := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/basket?productId="+productID.String()+"&quantity=2", nil)
	req.AddCookie(&http.Cookie{Name: "buyerId", Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, token, svc.lastBuyerID)
	assert.Equal(t, productID, svc.lastProductID)
	assert.Equal(t, 2, svc.lastQuantity)
}
