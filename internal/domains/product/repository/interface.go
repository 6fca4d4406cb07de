package repository

import (
	"context"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	"github.com/google/uuid"
)

// RepositoryInterface - data access cho catalog
type RepositoryInterface interface {
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	ListActiveDiscounts(ctx context.Context, productIDs []uuid.UUID) ([]model.ProductDiscount, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, p *model.Product) error
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
}
