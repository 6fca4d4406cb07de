package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
	productModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// ---- fakes ----

type fakeCartRepo struct {
	items        map[uuid.UUID]*model.CartItem
	state        *model.CartState
	replaceCalls int
	stateErr     error
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{items: map[uuid.UUID]*model.CartItem{}}
}

func (f *fakeCartRepo) ListItems(_ context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	var out []model.CartItem
	for _, it := range f.items {
		if it.UserID == userID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (f *fakeCartRepo) GetItem(_ context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	it, ok := f.items[itemID]
	if !ok || it.UserID != userID {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (f *fakeCartRepo) FindRegularItem(_ context.Context, userID, productID uuid.UUID) (*model.CartItem, error) {
	for _, it := range f.items {
		if it.UserID == userID && it.ProductID == productID && !it.IsGift {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCartRepo) InsertItem(_ context.Context, item *model.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeCartRepo) UpdateQuantity(_ context.Context, itemID uuid.UUID, quantity int, discount decimal.Decimal) error {
	it, ok := f.items[itemID]
	if !ok {
		return model.ErrItemNotFound
	}
	it.Quantity = quantity
	it.Discount = discount
	return nil
}

func (f *fakeCartRepo) UpdateDelivery(_ context.Context, _, itemID uuid.UUID, delivery model.DeliveryInfo) error {
	it, ok := f.items[itemID]
	if !ok {
		return model.ErrItemNotFound
	}
	it.DeliveryDate, it.DeliveryTime, it.Note = delivery.Date, delivery.Time, delivery.Note
	return nil
}

func (f *fakeCartRepo) DeleteItem(_ context.Context, _, itemID uuid.UUID) error {
	if _, ok := f.items[itemID]; !ok {
		return model.ErrItemNotFound
	}
	delete(f.items, itemID)
	return nil
}

func (f *fakeCartRepo) GetState(context.Context, uuid.UUID) (*model.CartState, error) {
	return f.state, f.stateErr
}

func (f *fakeCartRepo) ReplaceVoucher(_ context.Context, state *model.CartState, gifts []model.CartItem) error {
	f.replaceCalls++
	f.deleteGifts()
	f.state = state
	for i := range gifts {
		cp := gifts[i]
		f.items[cp.ID] = &cp
	}
	return nil
}

func (f *fakeCartRepo) ClearVoucher(context.Context, ...uuid.UUID) (int64, error) {
	f.deleteGifts()
	if f.state == nil {
		return 0, nil
	}
	f.state = nil
	return 1, nil
}

func (f *fakeCartRepo) deleteGifts() {
	for id, it := range f.items {
		if it.IsGift {
			delete(f.items, id)
		}
	}
}

func (f *fakeCartRepo) Clear(context.Context, uuid.UUID) error {
	f.items = map[uuid.UUID]*model.CartItem{}
	f.state = nil
	return nil
}

func (f *fakeCartRepo) FindExpiredStates(context.Context, time.Time, int) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeCartRepo) gifts() []model.CartItem {
	var out []model.CartItem
	for _, it := range f.items {
		if it.IsGift {
			out = append(out, *it)
		}
	}
	return out
}

type fakeCatalog struct {
	products map[uuid.UUID]*productModel.Product
}

func (f *fakeCatalog) add(price, discount int64, stock int) *productModel.Product {
	p := &productModel.Product{
		ID: uuid.New(), Name: "Hoa hồng", Price: d(price), Stock: stock, IsActive: true,
		DiscountAmount: d(discount), EffectivePrice: d(price - discount),
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (*productModel.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, productModel.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) GetProductsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*productModel.Product, error) {
	out := map[uuid.UUID]*productModel.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// fakeEvaluator: giảm 10% subtotal khi subtotal >= minOrder, kèm gift nếu có
type fakeEvaluator struct {
	minOrder    decimal.Decimal
	gift        *promotionModel.GiftLine
	resolveErr  error
	evaluateErr error
	lastLines   []promotionModel.Line
}

func (f *fakeEvaluator) ResolveCandidate(_ context.Context, _ uuid.UUID, ref promotionModel.VoucherRef) (*promotionModel.Candidate, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	promo := &promotionModel.Promotion{ID: uuid.New(), Type: promotionModel.TypeOrder}
	return &promotionModel.Candidate{
		Source:    promotionModel.SourceCode,
		Promotion: promo,
		Code:      &promotionModel.PromotionCode{ID: uuid.New(), PromotionID: promo.ID, Code: ref.Code},
	}, nil
}

func (f *fakeEvaluator) Evaluate(_ context.Context, cand *promotionModel.Candidate, in promotionModel.EvalInput) (*promotionModel.EvalResult, error) {
	f.lastLines = in.Lines
	if f.evaluateErr != nil {
		return nil, f.evaluateErr
	}
	subtotal := decimal.Zero
	for _, l := range in.Lines {
		if !l.IsGift {
			subtotal = subtotal.Add(l.Net())
		}
	}
	if subtotal.LessThan(f.minOrder) {
		return nil, promotionModel.NewMinOrderError(f.minOrder)
	}
	res := &promotionModel.EvalResult{
		Type:           cand.Type(),
		Code:           cand.Code.Code,
		DiscountAmount: subtotal.Div(d(10)).Round(0),
	}
	if f.gift != nil {
		res.Gifts = []promotionModel.GiftLine{*f.gift}
	}
	return res, nil
}

func newTestService() (*CartService, *fakeCartRepo, *fakeCatalog, *fakeEvaluator) {
	repo := newFakeCartRepo()
	catalog := &fakeCatalog{products: map[uuid.UUID]*productModel.Product{}}
	eval := &fakeEvaluator{minOrder: decimal.Zero}
	svc := NewCartService(repo, catalog, eval, d(30000)).(*CartService)
	return svc, repo, catalog, eval
}

// ---- tests ----

func TestAddItem_SnapshotsDiscountAndMerges(t *testing.T) {
	svc, repo, catalog, _ := newTestService()
	userID := uuid.New()
	p := catalog.add(200000, 20000, 10)

	view, err := svc.AddItem(context.Background(), userID, model.AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.True(t, view.Items[0].Discount.Equal(d(20000)))
	assert.True(t, view.Subtotal.Equal(d(360000)))
	assert.True(t, view.Total.Equal(d(390000)), "subtotal + shipping")

	view, err = svc.AddItem(context.Background(), userID, model.AddItemRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Len(t, repo.items, 1)
}

func TestAddItem_InsufficientStock(t *testing.T) {
	svc, _, catalog, _ := newTestService()
	p := catalog.add(100000, 0, 2)

	_, err := svc.AddItem(context.Background(), uuid.New(), model.AddItemRequest{ProductID: p.ID, Quantity: 3})

	var cartErr *model.CartError
	require.True(t, errors.As(err, &cartErr))
	assert.Equal(t, "INSUFFICIENT_STOCK", cartErr.Code)
	assert.Equal(t, 2, cartErr.Details["available"])
}

func TestApplyVoucher_ReplacesPreviousGifts(t *testing.T) {
	svc, repo, catalog, eval := newTestService()
	userID := uuid.New()
	p := catalog.add(300000, 0, 10)
	giftProduct := catalog.add(50000, 0, 10)
	_, err := svc.AddItem(context.Background(), userID, model.AddItemRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	// gift cũ từ voucher trước
	oldGift := &model.CartItem{ID: uuid.New(), UserID: userID, ProductID: uuid.New(), Quantity: 3, IsGift: true}
	repo.items[oldGift.ID] = oldGift

	eval.gift = &promotionModel.GiftLine{ProductID: giftProduct.ID, PromotionID: uuid.New(), Quantity: 1, UnitPrice: d(50000), Discount: d(50000)}
	view, err := svc.ApplyVoucher(context.Background(), userID, model.ApplyVoucherRequest{Code: "BLOOM10"})
	require.NoError(t, err)

	gifts := repo.gifts()
	require.Len(t, gifts, 1)
	assert.Equal(t, giftProduct.ID, gifts[0].ProductID)
	assert.NotContains(t, repo.items, oldGift.ID)

	require.NotNil(t, view.AppliedCode)
	assert.Equal(t, "BLOOM10", *view.AppliedCode)
	assert.True(t, view.DiscountAmount.Equal(d(30000)))
	// quà miễn phí: subtotal không đổi
	assert.True(t, view.Subtotal.Equal(d(300000)))
	assert.True(t, view.Total.Equal(d(300000)))
}

func TestApplyVoucher_RejectedKeepsState(t *testing.T) {
	svc, repo, catalog, eval := newTestService()
	userID := uuid.New()
	p := catalog.add(100000, 0, 10)
	_, err := svc.AddItem(context.Background(), userID, model.AddItemRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	eval.minOrder = d(500000)
	_, err = svc.ApplyVoucher(context.Background(), userID, model.ApplyVoucherRequest{Code: "BIG"})

	var appErr *promotionModel.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 0, repo.replaceCalls)
	assert.Nil(t, repo.state)
}

func TestApplyVoucher_EmptyCart(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.ApplyVoucher(context.Background(), uuid.New(), model.ApplyVoucherRequest{Code: "X"})
	assert.ErrorIs(t, err, model.ErrCartEmpty)
}

func TestDecreaseItem_DropsVoucherThatNoLongerQualifies(t *testing.T) {
	svc, repo, catalog, eval := newTestService()
	userID := uuid.New()
	p := catalog.add(200000, 0, 10)
	view, err := svc.AddItem(context.Background(), userID, model.AddItemRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	itemID := view.Items[0].ItemID

	eval.minOrder = d(500000)
	eval.gift = &promotionModel.GiftLine{ProductID: uuid.New(), Quantity: 1}
	_, err = svc.ApplyVoucher(context.Background(), userID, model.ApplyVoucherRequest{Code: "MIN500"})
	require.NoError(t, err)
	require.NotNil(t, repo.state)

	// 600k -> 400k: không còn đủ điều kiện
	view, err = svc.DecreaseItem(context.Background(), userID, itemID)
	require.NoError(t, err)
	assert.Nil(t, repo.state)
	assert.Empty(t, repo.gifts())
	assert.Nil(t, view.AppliedCode)
	assert.True(t, view.DiscountAmount.IsZero())
}

func TestIncreaseItem_ReevaluatesDiscount(t *testing.T) {
	svc, repo, catalog, _ := newTestService()
	userID := uuid.New()
	p := catalog.add(100000, 0, 10)
	view, err := svc.AddItem(context.Background(), userID, model.AddItemRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ApplyVoucher(context.Background(), userID, model.ApplyVoucherRequest{Code: "TEN"})
	require.NoError(t, err)

	view, err = svc.IncreaseItem(context.Background(), userID, view.Items[0].ItemID)
	require.NoError(t, err)
	assert.True(t, repo.state.DiscountAmount.Equal(d(20000)))
	assert.True(t, view.DiscountAmount.Equal(d(20000)))
}

func TestDecreaseItem_ZeroRemoves(t *testing.T) {
	svc, repo, catalog, _ := newTestService()
	userID := uuid.New()
	p := catalog.add(100000, 0, 10)
	view, err := svc.AddItem(context.Background(), userID, model.AddItemRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	view, err = svc.DecreaseItem(context.Background(), userID, view.Items[0].ItemID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Empty(t, repo.items)
	assert.True(t, view.ShippingFee.IsZero())
	assert.True(t, view.Total.IsZero())
}

func TestRefresh_InfrastructureErrorIsReturned(t *testing.T) {
	svc, repo, catalog, eval := newTestService()
	userID := uuid.New()
	p := catalog.add(100000, 0, 10)
	view, err := svc.AddItem(context.Background(), userID, model.AddItemRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.ApplyVoucher(context.Background(), userID, model.ApplyVoucherRequest{Code: "TEN"})
	require.NoError(t, err)

	eval.resolveErr = errors.New("db down")
	_, err = svc.IncreaseItem(context.Background(), userID, view.Items[0].ItemID)
	require.Error(t, err)
	assert.NotNil(t, repo.state, "state giữ nguyên khi lỗi hạ tầng")
}

func TestGiftItemsAreLocked(t *testing.T) {
	svc, repo, _, _ := newTestService()
	userID := uuid.New()
	gift := &model.CartItem{ID: uuid.New(), UserID: userID, ProductID: uuid.New(), Quantity: 1, IsGift: true}
	repo.items[gift.ID] = gift

	_, err := svc.IncreaseItem(context.Background(), userID, gift.ID)
	assert.ErrorIs(t, err, model.ErrGiftItemLocked)
	_, err = svc.RemoveItem(context.Background(), userID, gift.ID)
	assert.ErrorIs(t, err, model.ErrGiftItemLocked)
}

func TestRemoveVoucher_NothingApplied(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.RemoveVoucher(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrNoVoucherApplied)
}
