package service

import (
	"context"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"

	"github.com/google/uuid"
)

type ServiceInterface interface {
	// ResolveCandidate tải promotion + code (+ voucher) cho mã nhập tay hoặc voucher trong ví
	ResolveCandidate(ctx context.Context, userID uuid.UUID, ref model.VoucherRef) (*model.Candidate, error)
	Evaluate(ctx context.Context, cand *model.Candidate, in model.EvalInput) (*model.EvalResult, error)

	ListAvailableCodes(ctx context.Context) ([]model.AvailableCode, error)
	ClaimVoucher(ctx context.Context, userID uuid.UUID, code string) (*model.UserVoucher, error)
	ListMyVouchers(ctx context.Context, userID uuid.UUID) ([]model.WalletVoucher, error)

	// Admin methods
	CreatePromotion(ctx context.Context, req *model.CreatePromotionRequest) (*model.Promotion, error)
	SetPromotionActive(ctx context.Context, id uuid.UUID, isActive bool) error
}
