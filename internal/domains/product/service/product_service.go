package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/repository"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/utils"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/cache"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	productCacheTTL    = 10 * time.Minute
	categoriesCacheKey = "categories:all"
)

func productCacheKey(id uuid.UUID) string {
	return "product:" + id.String()
}

type productService struct {
	repo  repository.RepositoryInterface
	cache cache.Cache
	now   func() time.Time
}

func NewService(repo repository.RepositoryInterface, cache cache.Cache) ServiceInterface {
	return &productService{repo: repo, cache: cache, now: time.Now}
}

func (s *productService) ListProducts(ctx context.Context, req model.ListProductsRequest) ([]model.Product, int, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, err
	}
	products, total, err := s.repo.ListProducts(ctx, req.ToFilter())
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// GetProduct - cache-aside, giá hiệu lực luôn tính lại vì discount có thể hết hạn
func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	key := productCacheKey(id)

	var p model.Product
	found, err := s.cache.Get(ctx, key, &p)
	if err != nil {
		logger.Warn("product cache get failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	if !found {
		dbProduct, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if dbProduct == nil {
			return nil, model.ErrProductNotFound
		}
		p = *dbProduct
		if err := s.cache.Set(ctx, key, p, productCacheTTL); err != nil {
			logger.Warn("product cache set failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	if !p.IsActive {
		return nil, model.ErrProductInactive
	}

	discounts, err := s.repo.ListActiveDiscounts(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	p.ApplyPricing(discounts, s.now())
	return &p, nil
}

func (s *productService) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Product, error) {
	result := make(map[uuid.UUID]*model.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	products, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	discounts, err := s.repo.ListActiveDiscounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range products {
		p := &products[i]
		p.ApplyPricing(discounts, now)
		result[p.ID] = p
	}
	return result, nil
}

func (s *productService) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if found, _ := s.cache.Get(ctx, categoriesCacheKey, &categories); found {
		return categories, nil
	}

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, categoriesCacheKey, categories, time.Hour)
	return categories, nil
}

func (s *productService) CreateProduct(ctx context.Context, req model.CreateProductRequest) (*model.Product, error) {
	// ========== STEP 1: Validate ==========
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.CategoryID != nil {
		exists, err := s.repo.CategoryExists(ctx, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, model.ErrCategoryNotFound
		}
	}

	// ========== STEP 2: Slug ==========
	slug := utils.GenerateSlug(req.Name)
	exists, err := s.repo.SlugExists(ctx, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrDuplicateSlug
	}

	// ========== STEP 3: Persist ==========
	p := &model.Product{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Price:       decimal.NewFromInt(req.Price),
		Stock:       req.Stock,
		Color:       req.Color,
		ImageURL:    req.ImageURL,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	p.EffectivePrice = p.Price
	return p, nil
}

func (s *productService) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	if stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	if err := s.repo.UpdateStock(ctx, id, stock); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, productCacheKey(id)); err != nil {
		logger.Warn("product cache invalidate failed", map[string]interface{}{"product_id": id, "error": err.Error()})
	}
	logger.Info("product stock updated", map[string]interface{}{"product_id": id, "stock": stock})
	return nil
}
