package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/repository"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/cache"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"

	"github.com/google/uuid"
)

const (
	availableCodesCacheKey = "promotions:available"
	availableCodesTTL      = 5 * time.Minute
)

type PromotionService struct {
	repo      repository.PromotionRepository
	evaluator *Evaluator
	cache     cache.Cache
	now       func() time.Time
}

func NewPromotionService(
	repo repository.PromotionRepository,
	evaluator *Evaluator,
	cache cache.Cache,
) ServiceInterface {
	return &PromotionService{
		repo:      repo,
		evaluator: evaluator,
		cache:     cache,
		now:       time.Now,
	}
}

func (s *PromotionService) ResolveCandidate(ctx context.Context, userID uuid.UUID, ref model.VoucherRef) (*model.Candidate, error) {
	if ref.UserVoucherID != nil {
		return s.resolveWallet(ctx, userID, *ref.UserVoucherID)
	}

	code, err := s.repo.FindCodeByCode(ctx, model.NormalizeCode(ref.Code))
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, model.ErrPromotionNotFound
	}
	promo, err := s.loadPromotion(ctx, code.PromotionID)
	if err != nil {
		return nil, err
	}

	return &model.Candidate{Source: model.SourceCode, Promotion: promo, Code: code}, nil
}

func (s *PromotionService) resolveWallet(ctx context.Context, userID, voucherID uuid.UUID) (*model.Candidate, error) {
	voucher, err := s.repo.FindUserVoucher(ctx, voucherID)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, model.ErrPromotionNotFound
	}
	if voucher.UserID != userID {
		return nil, model.ErrVoucherNotOwned
	}

	code, err := s.repo.FindCodeByID(ctx, voucher.PromotionCodeID)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, model.ErrPromotionNotFound
	}
	promo, err := s.loadPromotion(ctx, code.PromotionID)
	if err != nil {
		return nil, err
	}

	return &model.Candidate{Source: model.SourceWallet, Promotion: promo, Code: code, Voucher: voucher}, nil
}

func (s *PromotionService) loadPromotion(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	promo, err := s.repo.FindPromotionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, model.ErrPromotionNotFound
	}
	return promo, nil
}

func (s *PromotionService) Evaluate(ctx context.Context, cand *model.Candidate, in model.EvalInput) (*model.EvalResult, error) {
	if in.Now.IsZero() {
		in.Now = s.now()
	}
	return s.evaluator.Evaluate(ctx, cand, in)
}

func (s *PromotionService) ListAvailableCodes(ctx context.Context) ([]model.AvailableCode, error) {
	var codes []model.AvailableCode
	found, err := s.cache.Get(ctx, availableCodesCacheKey, &codes)
	if err != nil {
		logger.Warn("available codes cache get failed", map[string]interface{}{"error": err.Error()})
	}
	if found {
		return codes, nil
	}

	codes, err = s.repo.ListAvailableCodes(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, availableCodesCacheKey, codes, availableCodesTTL); err != nil {
		logger.Warn("available codes cache set failed", map[string]interface{}{"error": err.Error()})
	}
	return codes, nil
}

// ClaimVoucher lưu mã công khai vào ví, mỗi user chỉ lưu một lần
func (s *PromotionService) ClaimVoucher(ctx context.Context, userID uuid.UUID, code string) (*model.UserVoucher, error) {
	cand, err := s.ResolveCandidate(ctx, userID, model.VoucherRef{Code: code})
	if err != nil {
		return nil, err
	}
	if err := ValidateCandidate(cand, userID, s.now()); err != nil {
		return nil, err
	}

	expiry := cand.Promotion.EndDate
	if cand.Code.ExpiryDate != nil && cand.Code.ExpiryDate.Before(expiry) {
		expiry = *cand.Code.ExpiryDate
	}

	voucher := &model.UserVoucher{
		UserID:          userID,
		PromotionCodeID: cand.Code.ID,
		ExpiryDate:      &expiry,
	}
	if err := s.repo.CreateUserVoucher(ctx, voucher); err != nil {
		return nil, err
	}

	logger.Info("voucher claimed", map[string]interface{}{
		"user_id": userID,
		"code":    cand.Code.Code,
	})
	return voucher, nil
}

func (s *PromotionService) ListMyVouchers(ctx context.Context, userID uuid.UUID) ([]model.WalletVoucher, error) {
	return s.repo.ListUserVouchers(ctx, userID)
}

func (s *PromotionService) CreatePromotion(ctx context.Context, req *model.CreatePromotionRequest) (*model.Promotion, error) {
	// ========== STEP 1: Validate Input ==========
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// ========== STEP 2: Check duplicate codes ==========
	promo, codes := req.ToEntity()
	values := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		if seen[c.Code] {
			return nil, model.ErrDuplicateCode
		}
		seen[c.Code] = true
		values = append(values, c.Code)
	}
	exists, err := s.repo.CheckCodeExists(ctx, values)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrDuplicateCode
	}

	// ========== STEP 3: Persist ==========
	if err := s.repo.Create(ctx, promo, codes); err != nil {
		return nil, fmt.Errorf("create promotion: %w", err)
	}

	s.invalidateAvailable(ctx)
	return promo, nil
}

func (s *PromotionService) SetPromotionActive(ctx context.Context, id uuid.UUID, isActive bool) error {
	if err := s.repo.UpdateStatus(ctx, id, isActive); err != nil {
		return err
	}
	s.invalidateAvailable(ctx)

	logger.Info("promotion status updated", map[string]interface{}{
		"promotion_id": id,
		"is_active":    isActive,
	})
	return nil
}

func (s *PromotionService) invalidateAvailable(ctx context.Context) {
	if err := s.cache.Delete(ctx, availableCodesCacheKey); err != nil {
		logger.Warn("available codes cache invalidate failed", map[string]interface{}{"error": err.Error()})
	}
}
