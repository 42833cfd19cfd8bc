package basket

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dmarrez/storefront-backend/pkg/db/models"
)

func setupBasketTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:basket_repo_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price_cents INTEGER NOT NULL,
  picture_url TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL DEFAULT '',
  brand TEXT NOT NULL DEFAULT '',
  quantity_in_stock INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	baskets := `
CREATE TABLE IF NOT EXISTS baskets (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL UNIQUE,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	basketItems := `
CREATE TABLE IF NOT EXISTS basket_items (
  id TEXT PRIMARY KEY,
  basket_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (basket_id, product_id)
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(baskets).Error)
	require.NoError(t, db.Exec(basketItems).Error)

	t.Cleanup(func() {
		db.Exec(`DELETE FROM basket_items`)
		db.Exec(`DELETE FROM baskets`)
		db.Exec(`DELETE FROM products`)
	})
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		Name:       name,
		PriceCents: 1999,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryCreateAndFindByBuyer(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "keyboard")

	created, err := repo.Create(ctx, &models.Basket{BuyerID: "bob"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	require.NoError(t, repo.UpsertItem(ctx, &models.BasketItem{
		BasketID:  created.ID,
		ProductID: product.ID,
		Quantity:  2,
	}))

	found, err := repo.FindByBuyer(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 2, found.Items[0].Quantity)
	assert.Equal(t, "keyboard", found.Items[0].Product.Name)

	_, err = repo.FindByBuyer(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryBuyerUniqueConstraint(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.Basket{BuyerID: "bob"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.Basket{BuyerID: "bob"})
	require.Error(t, err)
}

func TestRepositoryUpsertItemMergesLines(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "mouse")
	basket, err := repo.Create(ctx, &models.Basket{BuyerID: "bob"})
	require.NoError(t, err)

	require.NoError(t, repo.UpsertItem(ctx, &models.BasketItem{
		BasketID: basket.ID, ProductID: product.ID, Quantity: 1,
	}))
	require.NoError(t, repo.UpsertItem(ctx, &models.BasketItem{
		BasketID: basket.ID, ProductID: product.ID, Quantity: 4,
	}))

	found, err := repo.FindByBuyer(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 5, found.Items[0].Quantity)
}

func TestRepositoryBumpVersionGuardsStaleCommits(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	basket, err := repo.Create(ctx, &models.Basket{BuyerID: "bob"})
	require.NoError(t, err)

	affected, err := repo.BumpVersion(ctx, basket.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// A commit holding the stale version loses.
	affected, err = repo.BumpVersion(ctx, basket.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	affected, err = repo.BumpVersion(ctx, basket.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestRepositoryItemLifecycle(t *testing.T) {
	db := setupBasketTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, "monitor")
	basket, err := repo.Create(ctx, &models.Basket{BuyerID: "bob"})
	require.NoError(t, err)

	require.NoError(t, repo.UpsertItem(ctx, &models.BasketItem{
		BasketID: basket.ID, ProductID: product.ID, Quantity: 3,
	}))

	require.NoError(t, repo.UpdateItemQuantity(ctx, basket.ID, product.ID, 1))
	found, err := repo.FindByBuyer(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 1, found.Items[0].Quantity)

	require.NoError(t, repo.DeleteItem(ctx, basket.ID, product.ID))
	found, err = repo.FindByBuyer(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, found.Items)

	require.NoError(t, repo.Delete(ctx, basket.ID))
	_, err = repo.FindByBuyer(ctx, "bob")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
