package repository

import (
	"context"
	"time"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"

	"github.com/google/uuid"
)

// PromotionRepository định nghĩa interface cho promotion data access.
// Các hàm Find* trả về nil, nil khi không tìm thấy.
type PromotionRepository interface {
	// Read operations
	FindPromotionByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error)
	FindCodeByCode(ctx context.Context, code string) (*model.PromotionCode, error)
	FindCodeByID(ctx context.Context, id uuid.UUID) (*model.PromotionCode, error)
	FindUserVoucher(ctx context.Context, id uuid.UUID) (*model.UserVoucher, error)
	ListAvailableCodes(ctx context.Context, now time.Time) ([]model.AvailableCode, error)
	ListUserVouchers(ctx context.Context, userID uuid.UUID) ([]model.WalletVoucher, error)

	// Write operations
	Create(ctx context.Context, promo *model.Promotion, codes []model.PromotionCode) error
	UpdateStatus(ctx context.Context, id uuid.UUID, isActive bool) error
	CreateUserVoucher(ctx context.Context, v *model.UserVoucher) error

	// Utility
	CheckCodeExists(ctx context.Context, codes []string) (bool, error)
}
