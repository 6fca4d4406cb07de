package service

import (
	"context"
	"testing"
	"time"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	products  map[uuid.UUID]model.Product
	discounts []model.ProductDiscount
	getCalls  int
}

func (f *fakeRepo) ListProducts(context.Context, model.ProductFilter) ([]model.Product, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	f.getCalls++
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListActiveDiscounts(context.Context, []uuid.UUID) ([]model.ProductDiscount, error) {
	return f.discounts, nil
}

func (f *fakeRepo) ListCategories(context.Context) ([]model.Category, error) { return nil, nil }
func (f *fakeRepo) CategoryExists(context.Context, uuid.UUID) (bool, error) { return true, nil }
func (f *fakeRepo) SlugExists(context.Context, string) (bool, error)        { return false, nil }

func (f *fakeRepo) Create(_ context.Context, p *model.Product) error {
	p.ID = uuid.New()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeRepo) UpdateStock(_ context.Context, id uuid.UUID, stock int) error {
	p, ok := f.products[id]
	if !ok {
		return model.ErrProductNotFound
	}
	p.Stock = stock
	f.products[id] = p
	return nil
}

func newTestService() (*productService, *fakeRepo, *testutil.MemoryCache) {
	repo := &fakeRepo{products: map[uuid.UUID]model.Product{}}
	c := testutil.NewMemoryCache()
	return &productService{repo: repo, cache: c, now: time.Now}, repo, c
}

func TestGetProduct_CachesAndPrices(t *testing.T) {
	svc, repo, c := newTestService()
	ctx := context.Background()

	id := uuid.New()
	repo.products[id] = model.Product{ID: id, Name: "Hoa hồng đỏ", Price: decimal.NewFromInt(200000), IsActive: true}
	repo.discounts = []model.ProductDiscount{{
		ProductID: &id, IsPercent: true, Value: decimal.NewFromInt(10), IsActive: true,
		StartDate: time.Now().Add(-time.Hour), EndDate: time.Now().Add(time.Hour),
	}}

	p, err := svc.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(180000).Equal(p.EffectivePrice))

	_, err = svc.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.getCalls)
	assert.Contains(t, c.Keys(), "product:"+id.String())
}

func TestGetProduct_NotFoundAndInactive(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	_, err := svc.GetProduct(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrProductNotFound)

	id := uuid.New()
	repo.products[id] = model.Product{ID: id, Price: decimal.NewFromInt(1000)}
	_, err = svc.GetProduct(ctx, id)
	assert.ErrorIs(t, err, model.ErrProductInactive)
}

func TestUpdateStock_InvalidatesCache(t *testing.T) {
	svc, repo, c := newTestService()
	ctx := context.Background()

	id := uuid.New()
	repo.products[id] = model.Product{ID: id, Price: decimal.NewFromInt(1000), Stock: 5, IsActive: true}
	_, err := svc.GetProduct(ctx, id)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStock(ctx, id, 9))
	assert.NotContains(t, c.Keys(), "product:"+id.String())

	p, err := svc.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 9, p.Stock)
}

func TestGetProductsByIDs_SkipsMissing(t *testing.T) {
	svc, repo, _ := newTestService()
	id := uuid.New()
	repo.products[id] = model.Product{ID: id, Price: decimal.NewFromInt(50000), IsActive: true}

	got, err := svc.GetProductsByIDs(context.Background(), []uuid.UUID{id, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.True(t, decimal.NewFromInt(50000).Equal(got[id].EffectivePrice))
}

func TestCreateProduct(t *testing.T) {
	svc, _, _ := newTestService()

	p, err := svc.CreateProduct(context.Background(), model.CreateProductRequest{
		Name: "Bó hoa cẩm tú cầu", Price: 350000, Stock: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "bo-hoa-cam-tu-cau", p.Slug)
	assert.True(t, p.IsActive)

	_, err = svc.CreateProduct(context.Background(), model.CreateProductRequest{Name: "x", Price: 10})
	assert.Error(t, err)
}
