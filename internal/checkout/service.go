package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
	stripelib "github.com/stripe/stripe-go/v81"
	"gorm.io/gorm"

	"github.com/dmarrez/storefront-backend/internal/orders"
	"github.com/dmarrez/storefront-backend/pkg/config"
	"github.com/dmarrez/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmarrez/storefront-backend/pkg/errors"
)

const (
	intentCurrency = "usd"
	intentTTL      = 24 * time.Hour
)

type basketLoader interface {
	GetBasket(ctx context.Context, buyerID string) (*models.Basket, error)
}

type paymentProvider interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*stripelib.PaymentIntent, error)
	UpdatePaymentIntentAmount(ctx context.Context, id string, amountCents int64) (*stripelib.PaymentIntent, error)
}

type intentStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CheckoutIntentKey(buyerID string) string
}

// PaymentIntentInfo is what the client needs to confirm a payment.
type PaymentIntentInfo struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	AmountCents     int64  `json:"amountCents"`
}

// Service prepares Stripe payment intents for the buyer's current basket.
type Service interface {
	CreateOrUpdateIntent(ctx context.Context, buyerID string) (*PaymentIntentInfo, error)
	StoredIntentID(ctx context.Context, buyerID string) (string, error)
	ClearIntent(ctx context.Context, buyerID string) error
}

type service struct {
	baskets  basketLoader
	payments paymentProvider
	store    intentStore
	checkout config.CheckoutConfig
}

// NewService builds a checkout service with the required dependencies.
func NewService(baskets basketLoader, payments paymentProvider, store intentStore, checkout config.CheckoutConfig) (Service, error) {
	if baskets == nil {
		return nil, fmt.Errorf("basket loader required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if store == nil {
		return nil, fmt.Errorf("intent store required")
	}
	return &service{
		baskets:  baskets,
		payments: payments,
		store:    store,
		checkout: checkout,
	}, nil
}

// CreateOrUpdateIntent creates a payment intent for the basket total, or
// refreshes the amount on the intent already open for this buyer. The intent
// id is kept in Redis so a repriced basket updates in place instead of
// leaking abandoned intents.
func (s *service) CreateOrUpdateIntent(ctx context.Context, buyerID string) (*PaymentIntentInfo, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	current, err := s.baskets.GetBasket(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "basket not found")
		}
		return nil, err
	}
	if len(current.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "basket is empty")
	}

	amount := s.amountCents(current)
	key := s.store.CheckoutIntentKey(buyerID)

	if existingID, err := s.store.Get(ctx, key); err == nil && existingID != "" {
		intent, err := s.payments.UpdatePaymentIntentAmount(ctx, existingID, amount)
		if err == nil {
			return intentInfo(intent, amount), nil
		}
		// A stale or canceled intent falls through to a fresh create.
	} else if err != nil && !errors.Is(err, redislib.Nil) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stored intent")
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, amount, intentCurrency, map[string]string{
		"buyer_id": buyerID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}
	if err := s.store.Set(ctx, key, intent.ID, intentTTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment intent")
	}
	return intentInfo(intent, amount), nil
}

// StoredIntentID returns the open intent for the buyer, or empty when none.
func (s *service) StoredIntentID(ctx context.Context, buyerID string) (string, error) {
	if strings.TrimSpace(buyerID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	id, err := s.store.Get(ctx, s.store.CheckoutIntentKey(buyerID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stored intent")
	}
	return id, nil
}

// ClearIntent drops the buyer's stored intent mapping after order submission.
func (s *service) ClearIntent(ctx context.Context, buyerID string) error {
	if strings.TrimSpace(buyerID) == "" {
		return nil
	}
	if err := s.store.Del(ctx, s.store.CheckoutIntentKey(buyerID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear stored intent")
	}
	return nil
}

// amountCents charges the same subtotal plus delivery fee the order will.
func (s *service) amountCents(current *models.Basket) int64 {
	subtotal := current.SubtotalCents()
	return subtotal + orders.DeliveryFeeCents(s.checkout, subtotal)
}

func intentInfo(intent *stripelib.PaymentIntent, amount int64) *PaymentIntentInfo {
	return &PaymentIntentInfo{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		AmountCents:     amount,
	}
}
