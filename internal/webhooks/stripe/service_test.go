package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"

	"github.com/dmarrez/storefront-backend/pkg/db/models"
	"github.com/dmarrez/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarrez/storefront-backend/pkg/errors"
)

type stubOrders struct {
	calls  []string
	result map[string]bool
	err    error
}

func (s *stubOrders) MarkPaymentResult(_ context.Context, paymentIntentID string, succeeded bool) (*models.Order, error) {
	s.calls = append(s.calls, paymentIntentID)
	if s.err != nil {
		return nil, s.err
	}
	if s.result == nil {
		s.result = map[string]bool{}
	}
	s.result[paymentIntentID] = succeeded
	status := enums.OrderStatusPaymentFailed
	if succeeded {
		status = enums.OrderStatusPaymentReceived
	}
	return &models.Order{Status: status, PaymentIntentID: paymentIntentID}, nil
}

type memoryIdempotencyStore struct {
	keys map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{keys: map[string]string{}}
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return m.keys[key], nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, exists := m.keys[key]; exists {
		return false, nil
	}
	m.keys[key] = value.(string)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func paymentEvent(t *testing.T, eventID, eventType, intentID string) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"id": intentID})
	require.NoError(t, err)
	return &stripe.Event{
		ID:   eventID,
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func newWebhookService(t *testing.T) (*Service, *stubOrders, *memoryIdempotencyStore) {
	t.Helper()
	orders := &stubOrders{}
	store := newMemoryIdempotencyStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "stripe_webhook")
	require.NoError(t, err)
	svc, err := NewService(orders, guard)
	require.NoError(t, err)
	return svc, orders, store
}

func TestHandleEventPaymentSucceeded(t *testing.T) {
	svc, orders, _ := newWebhookService(t)

	event := paymentEvent(t, "evt_1", "payment_intent.succeeded", "pi_1")
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	assert.Equal(t, []string{"pi_1"}, orders.calls)
	assert.True(t, orders.result["pi_1"])
}

func TestHandleEventPaymentFailed(t *testing.T) {
	svc, orders, _ := newWebhookService(t)

	event := paymentEvent(t, "evt_2", "payment_intent.payment_failed", "pi_2")
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	assert.False(t, orders.result["pi_2"])
}

func TestHandleEventDeduplicatesDeliveries(t *testing.T) {
	svc, orders, _ := newWebhookService(t)

	event := paymentEvent(t, "evt_3", "payment_intent.succeeded", "pi_3")
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	assert.Len(t, orders.calls, 1)
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	svc, orders, _ := newWebhookService(t)

	event := paymentEvent(t, "evt_4", "charge.refunded", "pi_4")
	require.NoError(t, svc.HandleEvent(context.Background(), event))
	assert.Empty(t, orders.calls)
}

func TestHandleEventAcksUnknownIntent(t *testing.T) {
	svc, orders, _ := newWebhookService(t)
	orders.err = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")

	event := paymentEvent(t, "evt_5", "payment_intent.succeeded", "pi_missing")
	assert.NoError(t, svc.HandleEvent(context.Background(), event))
}

func TestHandleEventReleasesSlotOnFailure(t *testing.T) {
	svc, orders, store := newWebhookService(t)
	orders.err = pkgerrors.New(pkgerrors.CodeDependency, "db down")

	event := paymentEvent(t, "evt_6", "payment_intent.succeeded", "pi_6")
	require.Error(t, svc.HandleEvent(context.Background(), event))

	// The slot was released so Stripe's retry can be processed.
	assert.Empty(t, store.keys)
}

func TestHandleEventRejectsNilData(t *testing.T) {
	svc, _, _ := newWebhookService(t)

	err := svc.HandleEvent(context.Background(), &stripe.Event{ID: "evt_7"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
