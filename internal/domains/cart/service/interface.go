package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
	productModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
)

type ServiceInterface interface {
	// GetCart trả về giỏ hàng kèm giá hiện tại và voucher đang áp dụng
	GetCart(ctx context.Context, userID uuid.UUID) (*model.CartView, error)

	// AddItem thêm sản phẩm, cộng dồn nếu đã có trong giỏ
	// Validates: product active, đủ tồn kho
	AddItem(ctx context.Context, userID uuid.UUID, req model.AddItemRequest) (*model.CartView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartView, error)
	IncreaseItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartView, error)
	// DecreaseItem giảm 1, về 0 thì xóa item
	DecreaseItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartView, error)
	UpdateItemDelivery(ctx context.Context, userID, itemID uuid.UUID, req model.UpdateDeliveryRequest) (*model.CartView, error)

	// ApplyVoucher evaluate mã/voucher với giỏ hiện tại rồi ghi đè CartState.
	// Gift cũ luôn bị xóa trước khi chèn gift mới.
	ApplyVoucher(ctx context.Context, userID uuid.UUID, req model.ApplyVoucherRequest) (*model.CartView, error)
	RemoveVoucher(ctx context.Context, userID uuid.UUID) (*model.CartView, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

// ProductCatalog - phần của product service mà giỏ hàng cần
type ProductCatalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*productModel.Product, error)
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*productModel.Product, error)
}

// VoucherEvaluator - phần của promotion service mà giỏ hàng cần
type VoucherEvaluator interface {
	ResolveCandidate(ctx context.Context, userID uuid.UUID, ref promotionModel.VoucherRef) (*promotionModel.Candidate, error)
	Evaluate(ctx context.Context, cand *promotionModel.Candidate, in promotionModel.EvalInput) (*promotionModel.EvalResult, error)
}
