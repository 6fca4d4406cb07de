package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/repository"
	productModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

const maxQuantityPerItem = 100

type CartService struct {
	repository  repository.RepositoryInterface
	products    ProductCatalog
	promotions  VoucherEvaluator
	shippingFee decimal.Decimal
	now         func() time.Time
}

func NewCartService(
	repo repository.RepositoryInterface,
	products ProductCatalog,
	promotions VoucherEvaluator,
	shippingFee decimal.Decimal,
) ServiceInterface {
	return &CartService{
		repository:  repo,
		products:    products,
		promotions:  promotions,
		shippingFee: shippingFee,
		now:         time.Now,
	}
}

// ===================================
// READ
// ===================================

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.CartView, error) {
	items, err := s.repository.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	products, err := s.loadProducts(ctx, items)
	if err != nil {
		return nil, err
	}
	state, err := s.repository.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	return model.BuildView(items, products, state, s.shippingFee), nil
}

func (s *CartService) loadProducts(ctx context.Context, items []model.CartItem) (map[uuid.UUID]*productModel.Product, error) {
	if len(items) == 0 {
		return map[uuid.UUID]*productModel.Product{}, nil
	}
	products, err := s.products.GetProductsByIDs(ctx, model.ProductIDs(items))
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	return products, nil
}

// ===================================
// ITEM MUTATIONS
// ===================================

func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req model.AddItemRequest) (*model.CartView, error) {
	// Step 1: Validate product
	product, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, model.ErrProductUnavailable
	}

	// Step 2: Check existing item
	existing, err := s.repository.FindRegularItem(ctx, userID, req.ProductID)
	if err != nil {
		return nil, err
	}

	finalQuantity := req.Quantity
	if existing != nil {
		finalQuantity += existing.Quantity
	}
	if finalQuantity > maxQuantityPerItem {
		return nil, fmt.Errorf("maximum %d items per product: %w", maxQuantityPerItem, model.ErrInvalidQuantity)
	}

	// Step 3: Check stock
	if finalQuantity > product.Stock {
		return nil, model.NewInsufficientStockError(product.Name, finalQuantity, product.Stock)
	}

	// Step 4: Add or update item (giảm giá sản phẩm snapshot tại thời điểm thay đổi)
	if existing != nil {
		if err := s.repository.UpdateQuantity(ctx, existing.ID, finalQuantity, product.DiscountAmount); err != nil {
			return nil, err
		}
		if req.DeliveryDate != "" || req.DeliveryTime != "" || req.Note != "" {
			if err := s.repository.UpdateDelivery(ctx, userID, existing.ID, req.Delivery()); err != nil {
				return nil, err
			}
		}
	} else {
		delivery := req.Delivery()
		item := &model.CartItem{
			UserID:       userID,
			ProductID:    req.ProductID,
			Quantity:     finalQuantity,
			Discount:     product.DiscountAmount,
			DeliveryDate: delivery.Date,
			DeliveryTime: delivery.Time,
			Note:         delivery.Note,
		}
		if err := s.repository.InsertItem(ctx, item); err != nil {
			return nil, err
		}
	}

	logger.Info("Cart item added", map[string]interface{}{
		"user_id":    userID,
		"product_id": req.ProductID,
		"quantity":   finalQuantity,
	})

	// Step 5: Re-evaluate voucher
	return s.refresh(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartView, error) {
	if _, err := s.getRegularItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	if err := s.repository.DeleteItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	return s.refresh(ctx, userID)
}

func (s *CartService) IncreaseItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartView, error) {
	return s.changeQuantity(ctx, userID, itemID, 1)
}

func (s *CartService) DecreaseItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartView, error) {
	return s.changeQuantity(ctx, userID, itemID, -1)
}

func (s *CartService) changeQuantity(ctx context.Context, userID, itemID uuid.UUID, delta int) (*model.CartView, error) {
	item, err := s.getRegularItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	newQuantity := item.Quantity + delta
	if newQuantity <= 0 {
		if err := s.repository.DeleteItem(ctx, userID, itemID); err != nil {
			return nil, err
		}
		return s.refresh(ctx, userID)
	}
	if newQuantity > maxQuantityPerItem {
		return nil, fmt.Errorf("maximum %d items per product: %w", maxQuantityPerItem, model.ErrInvalidQuantity)
	}

	product, err := s.products.GetProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if delta > 0 && newQuantity > product.Stock {
		return nil, model.NewInsufficientStockError(product.Name, newQuantity, product.Stock)
	}

	if err := s.repository.UpdateQuantity(ctx, itemID, newQuantity, product.DiscountAmount); err != nil {
		return nil, err
	}
	return s.refresh(ctx, userID)
}

func (s *CartService) UpdateItemDelivery(ctx context.Context, userID, itemID uuid.UUID, req model.UpdateDeliveryRequest) (*model.CartView, error) {
	if _, err := s.getRegularItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	if err := s.repository.UpdateDelivery(ctx, userID, itemID, req.Delivery()); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// getRegularItem - gift item do evaluator quản lý, không cho sửa tay
func (s *CartService) getRegularItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	item, err := s.repository.GetItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.ErrItemNotFound
	}
	if item.IsGift {
		return nil, model.ErrGiftItemLocked
	}
	return item, nil
}

func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.repository.Clear(ctx, userID); err != nil {
		return err
	}
	logger.Info("Cart cleared", map[string]interface{}{"user_id": userID})
	return nil
}

// ===================================
// VOUCHER
// ===================================

func (s *CartService) ApplyVoucher(ctx context.Context, userID uuid.UUID, req model.ApplyVoucherRequest) (*model.CartView, error) {
	items, err := s.repository.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !hasRegularItem(items) {
		return nil, model.ErrCartEmpty
	}

	cand, err := s.promotions.ResolveCandidate(ctx, userID, req.Ref())
	if err != nil {
		return nil, err
	}

	if _, err := s.evaluateAndStore(ctx, userID, cand, items, req.WardCode); err != nil {
		return nil, err
	}

	logger.Info("Voucher applied to cart", map[string]interface{}{
		"user_id":      userID,
		"promotion_id": cand.Promotion.ID,
		"code":         cand.Code.Code,
		"source":       cand.Source,
	})
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveVoucher(ctx context.Context, userID uuid.UUID) (*model.CartView, error) {
	cleared, err := s.repository.ClearVoucher(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cleared == 0 {
		return nil, model.ErrNoVoucherApplied
	}
	return s.GetCart(ctx, userID)
}

// evaluateAndStore evaluate candidate với items hiện tại, thành công thì ghi đè state + gift
func (s *CartService) evaluateAndStore(ctx context.Context, userID uuid.UUID, cand *promotionModel.Candidate, items []model.CartItem, wardCode string) (*model.CartState, error) {
	products, err := s.loadProducts(ctx, items)
	if err != nil {
		return nil, err
	}

	result, err := s.promotions.Evaluate(ctx, cand, promotionModel.EvalInput{
		UserID:      userID,
		Lines:       model.EvalLines(items, products),
		WardCode:    wardCode,
		ShippingFee: s.shippingFee,
		Now:         s.now(),
	})
	if err != nil {
		return nil, err
	}

	state := model.NewCartState(userID, cand, result, wardCode)
	if err := s.repository.ReplaceVoucher(ctx, state, model.GiftItems(userID, result.Gifts)); err != nil {
		return nil, err
	}
	return state, nil
}

// refresh chạy lại evaluator sau mỗi thay đổi số lượng.
// Voucher không còn đủ điều kiện thì state và gift bị xóa.
func (s *CartService) refresh(ctx context.Context, userID uuid.UUID) (*model.CartView, error) {
	state, err := s.repository.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return s.GetCart(ctx, userID)
	}

	items, err := s.repository.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	var reason error
	if !hasRegularItem(items) {
		reason = model.ErrCartEmpty
	} else {
		cand, err := s.promotions.ResolveCandidate(ctx, userID, state.VoucherRef())
		if err == nil {
			_, err = s.evaluateAndStore(ctx, userID, cand, items, state.Ward())
		}
		var rejection *promotionModel.AppError
		if err != nil && !errors.As(err, &rejection) {
			return nil, err
		}
		reason = err
	}

	if reason != nil {
		if _, err := s.repository.ClearVoucher(ctx, userID); err != nil {
			return nil, err
		}
		logger.Info("Cart voucher removed after re-evaluation", map[string]interface{}{
			"user_id": userID,
			"reason":  reason.Error(),
		})
	}
	return s.GetCart(ctx, userID)
}

func hasRegularItem(items []model.CartItem) bool {
	for _, item := range items {
		if !item.IsGift {
			return true
		}
	}
	return false
}
