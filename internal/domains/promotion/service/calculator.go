package service

import (
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountCalculator xử lý logic tính toán discount của một PromotionCode
type DiscountCalculator struct{}

func NewDiscountCalculator() *DiscountCalculator {
	return &DiscountCalculator{}
}

// Calculate tính số tiền giảm trên base (subtotal, thành tiền dòng hoặc phí ship)
//
// 1. Percent: discount = base × value / 100, cap theo MaxDiscount nếu có
// 2. Fixed: discount = value
//
// Cả 2 trường hợp đều không vượt quá base, làm tròn đến VND.
func (c *DiscountCalculator) Calculate(code *model.PromotionCode, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	if code.IsPercent {
		// VD: 500,000 × 10 / 100 = 50,000 -> cap 40,000
		discount = base.Mul(code.Value).Div(hundred)
		if code.MaxDiscount != nil && discount.GreaterThan(*code.MaxDiscount) {
			discount = *code.MaxDiscount
		}
	} else {
		discount = code.Value
	}

	if discount.GreaterThan(base) {
		discount = base
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(0)
}

// CapTotal áp MaxDiscount cho tổng giảm giá cộng dồn từ nhiều dòng
func (c *DiscountCalculator) CapTotal(code *model.PromotionCode, total decimal.Decimal) decimal.Decimal {
	if code.MaxDiscount != nil && total.GreaterThan(*code.MaxDiscount) {
		return *code.MaxDiscount
	}
	return total
}
