package service

import (
	"context"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	"github.com/google/uuid"
)

type ServiceInterface interface {
	ListProducts(ctx context.Context, req model.ListProductsRequest) ([]model.Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// GetProductsByIDs trả về map đã tính EffectivePrice, bỏ qua id không tồn tại
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateProduct(ctx context.Context, req model.CreateProductRequest) (*model.Product, error)
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
}
