package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarrez/storefront-backend/pkg/db/models"
	"github.com/dmarrez/storefront-backend/pkg/enums"
	"github.com/dmarrez/storefront-backend/pkg/pagination"
)

// OrderRepository exposes persistence operations for order snapshots.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID string, page pagination.Params) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}
