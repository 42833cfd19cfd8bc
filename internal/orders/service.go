package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarrez/storefront-backend/internal/basket"
	"github.com/dmarrez/storefront-backend/pkg/config"
	"github.com/dmarrez/storefront-backend/pkg/db/models"
	"github.com/dmarrez/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarrez/storefront-backend/pkg/errors"
	"github.com/dmarrez/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order operations exposed to the API layer.
type Service interface {
	Submit(ctx context.Context, input SubmitOrderInput) (*models.Order, error)
	List(ctx context.Context, buyerID string, page pagination.Params) ([]models.Order, pagination.Metadata, error)
	Get(ctx context.Context, buyerID string, orderID uuid.UUID) (*models.Order, error)
	MarkPaymentResult(ctx context.Context, paymentIntentID string, succeeded bool) (*models.Order, error)
}

// SubmitOrderInput carries everything needed to turn a basket into an order.
type SubmitOrderInput struct {
	BuyerID         string
	ShippingAddress models.Address
	PaymentIntentID string
}

type service struct {
	repo     OrderRepository
	baskets  basket.BasketRepository
	tx       txRunner
	checkout config.CheckoutConfig
}

// NewService builds an order service with the required dependencies.
func NewService(repo OrderRepository, baskets basket.BasketRepository, tx txRunner, checkout config.CheckoutConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if baskets == nil {
		return nil, fmt.Errorf("basket repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		baskets:  baskets,
		tx:       tx,
		checkout: checkout,
	}, nil
}

// Submit snapshots the buyer's basket into an order and deletes the basket.
// Line name and price are copied so later catalog edits cannot reprice the
// order.
func (s *service) Submit(ctx context.Context, input SubmitOrderInput) (*models.Order, error) {
	if strings.TrimSpace(input.BuyerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if err := validateAddress(input.ShippingAddress); err != nil {
		return nil, err
	}

	current, err := s.baskets.FindByBuyer(ctx, input.BuyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "basket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load basket")
	}
	if len(current.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "basket is empty")
	}

	order := s.buildSnapshot(current, input)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeCommitFailed, err, "problem saving changes")
		}
		if err := s.baskets.WithTx(tx).Delete(ctx, current.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeCommitFailed, err, "problem saving changes")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// List returns the buyer's order history.
func (s *service) List(ctx context.Context, buyerID string, page pagination.Params) ([]models.Order, pagination.Metadata, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, pagination.Metadata{}, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	rows, total, err := s.repo.ListByBuyer(ctx, buyerID, page)
	if err != nil {
		return nil, pagination.Metadata{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, pagination.BuildMetadata(page, total), nil
}

// Get loads one order, scoped to the requesting buyer.
func (s *service) Get(ctx context.Context, buyerID string, orderID uuid.UUID) (*models.Order, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.BuyerID != buyerID {
		// Ownership failures read the same as missing orders.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// MarkPaymentResult flips the order status from a payment provider outcome.
// Only pending orders transition; replayed webhooks are no-ops.
func (s *service) MarkPaymentResult(ctx context.Context, paymentIntentID string, succeeded bool) (*models.Order, error) {
	if strings.TrimSpace(paymentIntentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	order, err := s.repo.FindByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != enums.OrderStatusPending {
		return order, nil
	}

	status := enums.OrderStatusPaymentFailed
	if succeeded {
		status = enums.OrderStatusPaymentReceived
	}
	if err := s.repo.UpdateStatus(ctx, order.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = status
	return order, nil
}

func (s *service) buildSnapshot(current *models.Basket, input SubmitOrderInput) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		BuyerID:         input.BuyerID,
		Status:          enums.OrderStatusPending,
		ShippingAddress: input.ShippingAddress,
		PaymentIntentID: input.PaymentIntentID,
	}

	var subtotal int64
	for i := range current.Items {
		line := current.Items[i]
		subtotal += line.Product.PriceCents * int64(line.Quantity)
		order.Items = append(order.Items, models.OrderItem{
			ID:         uuid.New(),
			OrderID:    order.ID,
			ProductID:  line.ProductID,
			Name:       line.Product.Name,
			PictureURL: line.Product.PictureURL,
			PriceCents: line.Product.PriceCents,
			Quantity:   line.Quantity,
		})
	}

	order.SubtotalCents = subtotal
	order.DeliveryFeeCents = DeliveryFeeCents(s.checkout, subtotal)
	return order
}

// DeliveryFeeCents applies the flat fee with a free threshold.
func DeliveryFeeCents(cfg config.CheckoutConfig, subtotalCents int64) int64 {
	if subtotalCents >= int64(cfg.FreeDeliveryThresholdCents) {
		return 0
	}
	return int64(cfg.DeliveryFeeCents)
}

func validateAddress(addr models.Address) error {
	switch {
	case strings.TrimSpace(addr.FullName) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping name is required")
	case strings.TrimSpace(addr.Line1) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address line is required")
	case strings.TrimSpace(addr.City) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping city is required")
	case strings.TrimSpace(addr.Zip) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping zip is required")
	case strings.TrimSpace(addr.Country) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping country is required")
	}
	return nil
}
