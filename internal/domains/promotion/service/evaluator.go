package service

import (
	"context"
	"fmt"
	"time"

	productmodel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/metrics"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WardResolver đổi tên phường trong allow-list sang mã phường
type WardResolver interface {
	ResolveWardCodes(ctx context.Context, names []string) (map[string]struct{}, error)
}

// GiftCatalog trả về sản phẩm quà tặng đã tính giá hiệu lực
type GiftCatalog interface {
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*productmodel.Product, error)
}

// Evaluator tính kết quả áp dụng một Candidate lên giỏ hàng.
// Mã nhập tay và voucher trong ví đi chung một đường.
type Evaluator struct {
	wards WardResolver
	gifts GiftCatalog
	calc  *DiscountCalculator
}

func NewEvaluator(wards WardResolver, gifts GiftCatalog) *Evaluator {
	return &Evaluator{wards: wards, gifts: gifts, calc: NewDiscountCalculator()}
}

func (e *Evaluator) Evaluate(ctx context.Context, cand *model.Candidate, in model.EvalInput) (*model.EvalResult, error) {
	result, err := e.evaluate(ctx, cand, in)

	outcome := "applied"
	if err != nil {
		outcome = "rejected"
	}
	metrics.VoucherEvaluationsTotal.WithLabelValues(string(cand.Type()), outcome).Inc()
	return result, err
}

func (e *Evaluator) evaluate(ctx context.Context, cand *model.Candidate, in model.EvalInput) (*model.EvalResult, error) {
	if err := ValidateCandidate(cand, in.UserID, in.Now); err != nil {
		return nil, err
	}

	switch cand.Type() {
	case model.TypeOrder:
		return e.evaluateOrder(cand, in)
	case model.TypeProduct:
		return e.evaluateProduct(cand, in)
	case model.TypeShipping:
		return e.evaluateShipping(ctx, cand, in)
	case model.TypeGift:
		return e.evaluateGift(ctx, cand, in)
	}
	return nil, fmt.Errorf("unknown promotion type %q", cand.Type())
}

// ValidateCandidate - điều kiện chung: thời gian, trạng thái, lượt dùng, chủ sở hữu voucher
func ValidateCandidate(cand *model.Candidate, userID uuid.UUID, now time.Time) error {
	promo, code := cand.Promotion, cand.Code

	if !promo.IsActive || !code.IsActive {
		return model.ErrPromotionInactive
	}
	if now.Before(promo.StartDate) {
		return model.ErrPromotionNotStarted
	}
	if now.After(promo.EndDate) {
		return model.ErrPromotionExpired
	}
	if code.ExpiryDate != nil && now.After(*code.ExpiryDate) {
		return model.ErrPromotionExpired
	}
	if code.UsageLimit != nil && code.UsedCount >= *code.UsageLimit {
		return model.ErrUsageLimitExceeded
	}

	if v := cand.Voucher; v != nil {
		if v.UserID != userID {
			return model.ErrVoucherNotOwned
		}
		if v.IsUsed {
			return model.ErrVoucherUsed
		}
		if v.ExpiryDate != nil && now.After(*v.ExpiryDate) {
			return model.ErrVoucherExpired
		}
	}
	return nil
}

type cartTotals struct {
	subtotal decimal.Decimal
	quantity int
}

// totalsOf bỏ qua dòng quà tặng
func totalsOf(lines []model.Line) cartTotals {
	t := cartTotals{subtotal: decimal.Zero}
	for _, l := range lines {
		if l.IsGift {
			continue
		}
		t.subtotal = t.subtotal.Add(l.Net())
		t.quantity += l.Quantity
	}
	return t
}

func checkThresholds(cand *model.Candidate, t cartTotals) error {
	if min := cand.Code.MinOrderValue; min != nil && t.subtotal.LessThan(*min) {
		return model.NewMinOrderError(*min)
	}
	if min := cand.Promotion.MinProductQuantity; min != nil && t.quantity < *min {
		return model.NewMinQuantityError(*min)
	}
	if min := cand.Promotion.MinProductValue; min != nil && t.subtotal.LessThan(*min) {
		return model.NewMinOrderError(*min)
	}
	return nil
}

// ============================================
// ORDER
// ============================================

func (e *Evaluator) evaluateOrder(cand *model.Candidate, in model.EvalInput) (*model.EvalResult, error) {
	totals := totalsOf(in.Lines)
	if err := checkThresholds(cand, totals); err != nil {
		return nil, err
	}

	return &model.EvalResult{
		Type:             model.TypeOrder,
		Code:             cand.Code.Code,
		DiscountAmount:   e.calc.Calculate(cand.Code, totals.subtotal),
		ShippingDiscount: decimal.Zero,
	}, nil
}

// ============================================
// PRODUCT
// ============================================

func matchesLine(l model.Line, productIDs, categoryIDs []uuid.UUID) bool {
	if len(productIDs) == 0 && len(categoryIDs) == 0 {
		return true
	}
	for _, id := range productIDs {
		if id == l.ProductID {
			return true
		}
	}
	if l.CategoryID != nil {
		for _, id := range categoryIDs {
			if id == *l.CategoryID {
				return true
			}
		}
	}
	return false
}

func (e *Evaluator) evaluateProduct(cand *model.Candidate, in model.EvalInput) (*model.EvalResult, error) {
	var matched []model.Line
	for _, l := range in.Lines {
		if !l.IsGift && matchesLine(l, cand.Promotion.ProductIDs, cand.Promotion.CategoryIDs) {
			matched = append(matched, l)
		}
	}
	if len(matched) == 0 {
		return nil, model.ErrNoMatchingProduct
	}
	if err := checkThresholds(cand, totalsOf(matched)); err != nil {
		return nil, err
	}

	// Tính từng dòng, cap tổng theo MaxDiscount
	total := decimal.Zero
	for _, l := range matched {
		total = total.Add(e.calc.Calculate(cand.Code, l.Net()))
	}

	return &model.EvalResult{
		Type:             model.TypeProduct,
		Code:             cand.Code.Code,
		DiscountAmount:   e.calc.CapTotal(cand.Code, total),
		ShippingDiscount: decimal.Zero,
	}, nil
}

// ============================================
// SHIPPING
// ============================================

func (e *Evaluator) evaluateShipping(ctx context.Context, cand *model.Candidate, in model.EvalInput) (*model.EvalResult, error) {
	if err := e.checkArea(ctx, cand.Promotion, in.WardCode); err != nil {
		return nil, err
	}
	if err := checkThresholds(cand, totalsOf(in.Lines)); err != nil {
		return nil, err
	}

	discount := e.calc.Calculate(cand.Code, in.ShippingFee)
	return &model.EvalResult{
		Type:             model.TypeShipping,
		Code:             cand.Code.Code,
		DiscountAmount:   decimal.Zero,
		ShippingDiscount: discount,
		FreeShipping:     in.ShippingFee.IsPositive() && discount.Equal(in.ShippingFee),
	}, nil
}

func (e *Evaluator) checkArea(ctx context.Context, promo *model.Promotion, wardCode string) error {
	if promo.ApplyDistricts == nil {
		return nil
	}

	codes, names, err := parseAreaList(*promo.ApplyDistricts)
	if err != nil {
		logger.Warn("malformed promotion area list", map[string]interface{}{
			"promotion_id": promo.ID,
			"error":        err.Error(),
		})
		return model.ErrAreaNotApplicable
	}
	if len(codes) == 0 && len(names) == 0 {
		return nil
	}
	if wardCode == "" {
		return model.ErrWardRequired
	}

	for _, c := range codes {
		if sameWardCode(c, wardCode) {
			return nil
		}
	}

	if len(names) > 0 && e.wards != nil {
		resolved, err := e.wards.ResolveWardCodes(ctx, names)
		if err != nil {
			return fmt.Errorf("resolve ward names: %w", err)
		}
		for c := range resolved {
			if sameWardCode(c, wardCode) {
				return nil
			}
		}
	}
	return model.ErrAreaNotApplicable
}

// ============================================
// GIFT
// ============================================

type giftMatch struct {
	rule  model.PromotionGift
	times int
}

// TimesMet số lần điều kiện mua được thỏa, đã clamp theo LimitPerOrder
func TimesMet(rule model.PromotionGift, lines []model.Line) int {
	qty := 0
	value := decimal.Zero
	for _, l := range lines {
		if l.IsGift || !matchesBuyCondition(rule, l) {
			continue
		}
		qty += l.Quantity
		value = value.Add(l.Net())
	}

	var times int
	if rule.BuyConditionValueType == model.BuyByValue {
		if !rule.BuyConditionValue.IsPositive() {
			if value.IsPositive() {
				times = 1
			}
		} else {
			times = int(value.Div(rule.BuyConditionValue).IntPart())
		}
	} else {
		if rule.BuyQuantity <= 0 {
			if qty > 0 {
				times = 1
			}
		} else {
			times = qty / rule.BuyQuantity
		}
	}

	if rule.LimitPerOrder && times > 1 {
		times = 1
	}
	return times
}

func matchesBuyCondition(rule model.PromotionGift, l model.Line) bool {
	switch rule.BuyConditionType {
	case model.BuyProduct:
		return len(rule.BuyProductIDs) > 0 && matchesLine(l, rule.BuyProductIDs, nil)
	case model.BuyCategory:
		return len(rule.BuyCategoryIDs) > 0 && matchesLine(l, nil, rule.BuyCategoryIDs)
	default:
		return true
	}
}

// GiftUnitDiscount - giảm giá quà trên phần giá còn lại sau giảm giá sản phẩm
func GiftUnitDiscount(rule model.PromotionGift, remaining decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch rule.GiftDiscountType {
	case model.GiftFree:
		d = remaining
	case model.GiftPercent:
		d = remaining.Mul(rule.GiftDiscountValue).Div(hundred)
	case model.GiftMoney:
		d = rule.GiftDiscountValue
	}
	if d.GreaterThan(remaining) {
		d = remaining
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(0)
}

func (e *Evaluator) evaluateGift(ctx context.Context, cand *model.Candidate, in model.EvalInput) (*model.EvalResult, error) {
	if err := checkThresholds(cand, totalsOf(in.Lines)); err != nil {
		return nil, err
	}

	var matches []giftMatch
	var giftIDs []uuid.UUID
	for _, rule := range cand.Promotion.Gifts {
		times := TimesMet(rule, in.Lines)
		if times == 0 {
			continue
		}
		matches = append(matches, giftMatch{rule: rule, times: times})
		giftIDs = append(giftIDs, rule.GiftProductIDs...)
	}
	if len(matches) == 0 || len(giftIDs) == 0 {
		return nil, model.ErrGiftConditionNotMet
	}

	products, err := e.gifts.GetProductsByIDs(ctx, giftIDs)
	if err != nil {
		return nil, fmt.Errorf("load gift products: %w", err)
	}

	result := &model.EvalResult{
		Type:             model.TypeGift,
		Code:             cand.Code.Code,
		DiscountAmount:   decimal.Zero,
		ShippingDiscount: decimal.Zero,
	}
	for _, m := range matches {
		perTime := m.rule.GiftQuantity
		if perTime <= 0 {
			perTime = 1
		}
		for _, pid := range m.rule.GiftProductIDs {
			p, ok := products[pid]
			if !ok || !p.IsActive {
				logger.Warn("gift product unavailable", map[string]interface{}{
					"promotion_id": cand.Promotion.ID,
					"product_id":   pid,
				})
				continue
			}
			giftDiscount := GiftUnitDiscount(m.rule, p.Price.Sub(p.DiscountAmount))
			result.Gifts = append(result.Gifts, model.GiftLine{
				ProductID:   pid,
				PromotionID: cand.Promotion.ID,
				Quantity:    perTime * m.times,
				UnitPrice:   p.Price,
				Discount:    p.DiscountAmount.Add(giftDiscount),
			})
		}
	}

	if len(result.Gifts) == 0 {
		return nil, model.ErrGiftConditionNotMet
	}
	return result, nil
}
