package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarrez/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmarrez/storefront-backend/pkg/errors"
	"github.com/dmarrez/storefront-backend/pkg/pagination"
)

const (
	minPriceCents = 100
	maxStock      = 200
)

// Service exposes catalog reads plus the admin write surface.
type Service interface {
	List(ctx context.Context, input ListInput) ([]models.Product, pagination.Metadata, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Filters(ctx context.Context) (*FilterOptions, error)
	Create(ctx context.Context, input UpsertProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpsertProductInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UpsertProductInput carries the admin create/update payload.
type UpsertProductInput struct {
	Name            string
	Description     string
	PriceCents      int64
	PictureURL      string
	Type            string
	Brand           string
	QuantityInStock int
}

type service struct {
	repo ProductRepository
}

// NewService builds a product service backed by the provided repository.
func NewService(repo ProductRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

// List returns one catalog page plus pagination metadata.
func (s *service) List(ctx context.Context, input ListInput) ([]models.Product, pagination.Metadata, error) {
	rows, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pagination.Metadata{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, pagination.BuildMetadata(input.Pagination, total), nil
}

// GetByID loads a single product or not-found.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// Filters returns the distinct brand/type inventory.
func (s *service) Filters(ctx context.Context) (*FilterOptions, error) {
	options, err := s.repo.DistinctBrandsAndTypes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load filters")
	}
	return options, nil
}

// Create validates and inserts a new catalog product.
func (s *service) Create(ctx context.Context, input UpsertProductInput) (*models.Product, error) {
	if err := validateUpsert(input); err != nil {
		return nil, err
	}
	product := applyUpsert(&models.Product{}, input)
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

// Update validates and saves changes to an existing product.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpsertProductInput) (*models.Product, error) {
	if err := validateUpsert(input); err != nil {
		return nil, err
	}
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, applyUpsert(product, input))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return updated, nil
}

// Delete removes a product from the catalog.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func validateUpsert(input UpsertProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.PriceCents < minPriceCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be at least 100 cents")
	}
	if input.QuantityInStock < 0 || input.QuantityInStock > maxStock {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be between 0 and 200")
	}
	return nil
}

func applyUpsert(product *models.Product, input UpsertProductInput) *models.Product {
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.PriceCents = input.PriceCents
	product.PictureURL = input.PictureURL
	product.Type = input.Type
	product.Brand = input.Brand
	product.QuantityInStock = input.QuantityInStock
	return product
}
