package basket

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarrez/storefront-backend/pkg/db"
	"github.com/dmarrez/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmarrez/storefront-backend/pkg/errors"
)

const buyerUniqueConstraint = "idx_baskets_buyer_id"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes basket lifecycle operations keyed by the buyer identity.
type Service interface {
	GetBasket(ctx context.Context, buyerID string) (*models.Basket, error)
	GetOrCreate(ctx context.Context, buyerID string) (*models.Basket, bool, error)
	AddItem(ctx context.Context, buyerID string, productID uuid.UUID, quantity int) (*models.Basket, error)
	RemoveItem(ctx context.Context, buyerID string, productID uuid.UUID, quantity int) (*models.Basket, error)
	MergeOnLogin(ctx context.Context, username, anonymousToken string) error
	DeleteBasket(ctx context.Context, buyerID string) error
}

type service struct {
	repo     BasketRepository
	tx       txRunner
	products productLoader
}

// NewService builds a basket service backed by the provided stack.
func NewService(repo BasketRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("basket repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// GetBasket returns the buyer's basket, or not-found when none exists.
func (s *service) GetBasket(ctx context.Context, buyerID string) (*models.Basket, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	basket, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "basket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load basket")
	}
	return basket, nil
}

// GetOrCreate returns the buyer's basket, creating an empty one when absent.
// The second return reports whether the basket was created by this call.
func (s *service) GetOrCreate(ctx context.Context, buyerID string) (*models.Basket, bool, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	basket, err := s.repo.FindByBuyer(ctx, buyerID)
	if err == nil {
		return basket, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load basket")
	}

	created, err := s.repo.Create(ctx, &models.Basket{BuyerID: buyerID})
	if err != nil {
		// Two first-touch requests can race on the same buyer key. The unique
		// constraint keeps one basket per buyer; the loser surfaces as a
		// retryable commit failure.
		if db.IsUniqueViolation(err, buyerUniqueConstraint) {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeCommitFailed, err, "basket already created for buyer")
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create basket")
	}
	return created, true, nil
}

// AddItem adds quantity of the product to the buyer's basket, creating the
// basket and merging duplicate lines as needed. The write is atomic.
func (s *service) AddItem(ctx context.Context, buyerID string, productID uuid.UUID, quantity int) (*models.Basket, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	// Product existence is checked before any basket write so a bad product
	// id leaves the basket untouched.
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		basket, err := txRepo.FindByBuyer(ctx, buyerID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load basket")
			}
			basket, err = txRepo.Create(ctx, &models.Basket{BuyerID: buyerID})
			if err != nil {
				if db.IsUniqueViolation(err, buyerUniqueConstraint) {
					return pkgerrors.Wrap(pkgerrors.CodeCommitFailed, err, "basket already created for buyer")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create basket")
			}
		}

		if err := txRepo.UpsertItem(ctx, &models.BasketItem{
			BasketID:  basket.ID,
			ProductID: productID,
			Quantity:  quantity,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert basket item")
		}

		return s.bumpVersion(ctx, txRepo, basket)
	}); err != nil {
		return nil, commitError(err)
	}

	return s.GetBasket(ctx, buyerID)
}

// RemoveItem decrements the product line by quantity, clamping at zero and
// deleting the line when the decrement reaches it. Removing a product that is
// not in the basket is a no-op.
func (s *service) RemoveItem(ctx context.Context, buyerID string, productID uuid.UUID, quantity int) (*models.Basket, error) {
	if strings.TrimSpace(buyerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		basket, err := txRepo.FindByBuyer(ctx, buyerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "basket not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load basket")
		}

		item := basket.FindItem(productID)
		if item == nil {
			return nil
		}

		remaining := item.Quantity - quantity
		if remaining > 0 {
			if err := txRepo.UpdateItemQuantity(ctx, basket.ID, productID, remaining); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update basket item")
			}
		} else {
			if err := txRepo.DeleteItem(ctx, basket.ID, productID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete basket item")
			}
		}

		return s.bumpVersion(ctx, txRepo, basket)
	}); err != nil {
		return nil, commitError(err)
	}

	return s.GetBasket(ctx, buyerID)
}

// MergeOnLogin folds the anonymous basket into the user's basket, summing
// duplicate lines, and deletes the anonymous one. Missing anonymous baskets
// are ignored so login never fails on basket state.
func (s *service) MergeOnLogin(ctx context.Context, username, anonymousToken string) error {
	username = strings.TrimSpace(username)
	anonymousToken = strings.TrimSpace(anonymousToken)
	if username == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if anonymousToken == "" || anonymousToken == username {
		return nil
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		anon, err := txRepo.FindByBuyer(ctx, anonymousToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load anonymous basket")
		}

		target, err := txRepo.FindByBuyer(ctx, username)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user basket")
			}
			target, err = txRepo.Create(ctx, &models.Basket{BuyerID: username})
			if err != nil {
				if db.IsUniqueViolation(err, buyerUniqueConstraint) {
					return pkgerrors.Wrap(pkgerrors.CodeCommitFailed, err, "basket already created for user")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user basket")
			}
		}

		for _, item := range anon.Items {
			if err := txRepo.UpsertItem(ctx, &models.BasketItem{
				BasketID:  target.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge basket item")
			}
		}

		if err := txRepo.Delete(ctx, anon.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete anonymous basket")
		}

		return s.bumpVersion(ctx, txRepo, target)
	}); err != nil {
		return commitError(err)
	}

	return nil
}

// DeleteBasket removes the buyer's basket entirely. Missing baskets are fine.
func (s *service) DeleteBasket(ctx context.Context, buyerID string) error {
	if strings.TrimSpace(buyerID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	basket, err := s.repo.FindByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load basket")
	}

	if err := s.repo.Delete(ctx, basket.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete basket")
	}
	return nil
}

func (s *service) bumpVersion(ctx context.Context, repo BasketRepository, basket *models.Basket) error {
	affected, err := repo.BumpVersion(ctx, basket.ID, basket.Version)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump basket version")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeCommitFailed, "basket changed concurrently")
	}
	return nil
}

// commitError keeps typed errors intact and wraps raw transaction failures as
// commit failures so callers can retry.
func commitError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeCommitFailed, err, "problem saving changes")
}
