package basket

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dmarrez/storefront-backend/pkg/db/models"
)

// Repository persists baskets via GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a basket repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) BasketRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByBuyer loads the buyer's basket with its lines and live product data.
func (r *Repository) FindByBuyer(ctx context.Context, buyerID string) (*models.Basket, error) {
	var basket models.Basket
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("basket_items.created_at ASC")
		}).
		Preload("Items.Product").
		Where("buyer_id = ?", buyerID).
		First(&basket).Error
	if err != nil {
		return nil, err
	}
	return &basket, nil
}

// Create inserts a new basket.
func (r *Repository) Create(ctx context.Context, basket *models.Basket) (*models.Basket, error) {
	if basket.ID == uuid.Nil {
		basket.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(basket).Error; err != nil {
		return nil, err
	}
	return basket, nil
}

// BumpVersion advances the basket version from the expected value. Zero rows
// affected means another commit got there first.
func (r *Repository) BumpVersion(ctx context.Context, basketID uuid.UUID, fromVersion int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Basket{}).
		Where("id = ? AND version = ?", basketID, fromVersion).
		Update("version", gorm.Expr("version + 1"))
	return res.RowsAffected, res.Error
}

// UpsertItem inserts the line or adds to its quantity when it already exists.
func (r *Repository) UpsertItem(ctx context.Context, item *models.BasketItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "basket_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("basket_items.quantity + excluded.quantity"),
			}),
		}).
		Create(item).Error
}

// UpdateItemQuantity sets the quantity on an existing line.
func (r *Repository) UpdateItemQuantity(ctx context.Context, basketID, productID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.BasketItem{}).
		Where("basket_id = ? AND product_id = ?", basketID, productID).
		Update("quantity", quantity).Error
}

// DeleteItem removes a line from the basket.
func (r *Repository) DeleteItem(ctx context.Context, basketID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("basket_id = ? AND product_id = ?", basketID, productID).
		Delete(&models.BasketItem{}).Error
}

// Delete removes the basket and, via FK cascade, its lines.
func (r *Repository) Delete(ctx context.Context, basketID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", basketID).
		Delete(&models.Basket{}).Error
}
