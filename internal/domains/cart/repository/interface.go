package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
)

// RepositoryInterface defines data access methods for cart
type RepositoryInterface interface {
	// ListItems trả về toàn bộ item của user, gift nằm sau item thường
	ListItems(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)

	// GetItem returns nil if not exists (don't treat as error)
	GetItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error)

	// FindRegularItem tìm item không phải quà theo product
	FindRegularItem(ctx context.Context, userID, productID uuid.UUID) (*model.CartItem, error)

	InsertItem(ctx context.Context, item *model.CartItem) error
	UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int, discount decimal.Decimal) error
	UpdateDelivery(ctx context.Context, userID, itemID uuid.UUID, delivery model.DeliveryInfo) error
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error

	// GetState returns nil if cart has no voucher
	GetState(ctx context.Context, userID uuid.UUID) (*model.CartState, error)

	// ReplaceVoucher xóa toàn bộ gift cũ, ghi state mới và chèn gift mới trong 1 transaction
	ReplaceVoucher(ctx context.Context, state *model.CartState, gifts []model.CartItem) error

	// ClearVoucher xóa state và gift của các user
	ClearVoucher(ctx context.Context, userIDs ...uuid.UUID) (int64, error)

	// Clear xóa toàn bộ giỏ hàng và state
	Clear(ctx context.Context, userID uuid.UUID) error

	// FindExpiredStates trả về user có CartState trỏ tới mã/voucher đã hết hạn hoặc bị tắt
	FindExpiredStates(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}
