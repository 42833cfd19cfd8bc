package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v81"

	"github.com/dmarrez/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmarrez/storefront-backend/pkg/errors"
)

const (
	eventPaymentSucceeded = "payment_intent.succeeded"
	eventPaymentFailed    = "payment_intent.payment_failed"
)

type orderUpdater interface {
	MarkPaymentResult(ctx context.Context, paymentIntentID string, succeeded bool) (*models.Order, error)
}

// Service reacts to Stripe payment events by flipping order status.
type Service struct {
	orders orderUpdater
	guard  *IdempotencyGuard
}

// NewService builds the webhook service. The guard is optional; without it
// replayed events rely on the order status check alone.
func NewService(orders orderUpdater, guard *IdempotencyGuard) (*Service, error) {
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order updater required")
	}
	return &Service{orders: orders, guard: guard}, nil
}

// HandleEvent processes one verified Stripe event. Unhandled event types are
// acknowledged without action so Stripe stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch string(event.Type) {
	case eventPaymentSucceeded, eventPaymentFailed:
	default:
		return nil
	}

	if s.guard != nil {
		seen, err := s.guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook idempotency check")
		}
		if seen {
			return nil
		}
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		s.unmark(ctx, event.ID)
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}
	if intent.ID == "" {
		s.unmark(ctx, event.ID)
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}

	succeeded := string(event.Type) == eventPaymentSucceeded
	if _, err := s.orders.MarkPaymentResult(ctx, intent.ID, succeeded); err != nil {
		// Intents with no matching order (abandoned baskets) are acknowledged.
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil
		}
		s.unmark(ctx, event.ID)
		return err
	}
	return nil
}

// unmark releases the idempotency slot so Stripe's retry can reprocess.
func (s *Service) unmark(ctx context.Context, eventID string) {
	if s.guard != nil {
		_ = s.guard.Delete(ctx, eventID)
	}
}
