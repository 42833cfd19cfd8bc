package basket

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarrez/storefront-backend/pkg/db/models"
)

// BasketRepository exposes persistence operations for baskets and their lines.
type BasketRepository interface {
	WithTx(tx *gorm.DB) BasketRepository
	FindByBuyer(ctx context.Context, buyerID string) (*models.Basket, error)
	Create(ctx context.Context, basket *models.Basket) (*models.Basket, error)
	BumpVersion(ctx context.Context, basketID uuid.UUID, fromVersion int64) (int64, error)
	UpsertItem(ctx context.Context, item *models.BasketItem) error
	UpdateItemQuantity(ctx context.Context, basketID, productID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, basketID, productID uuid.UUID) error
	Delete(ctx context.Context, basketID uuid.UUID) error
}
