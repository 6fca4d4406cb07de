package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Applies kiểm tra discount có áp dụng cho sản phẩm tại thời điểm now
func (d ProductDiscount) Applies(productID uuid.UUID, categoryID *uuid.UUID, now time.Time) bool {
	if !d.IsActive || now.Before(d.StartDate) || now.After(d.EndDate) {
		return false
	}
	if d.ProductID != nil && *d.ProductID == productID {
		return true
	}
	return d.CategoryID != nil && categoryID != nil && *d.CategoryID == *categoryID
}

// Amount số tiền giảm trên 1 đơn vị, không vượt quá giá
func (d ProductDiscount) Amount(price decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	if d.IsPercent {
		amount = price.Mul(d.Value).Div(hundred)
		if d.MaxDiscount != nil && amount.GreaterThan(*d.MaxDiscount) {
			amount = *d.MaxDiscount
		}
	} else {
		amount = d.Value
	}

	if amount.GreaterThan(price) {
		amount = price
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(0)
}

// BestDiscount chọn mức giảm lớn nhất trong các discount đang áp dụng
func BestDiscount(p *Product, discounts []ProductDiscount, now time.Time) decimal.Decimal {
	best := decimal.Zero
	for _, d := range discounts {
		if !d.Applies(p.ID, p.CategoryID, now) {
			continue
		}
		if amount := d.Amount(p.Price); amount.GreaterThan(best) {
			best = amount
		}
	}
	return best
}

// ApplyPricing set DiscountAmount và EffectivePrice
func (p *Product) ApplyPricing(discounts []ProductDiscount, now time.Time) {
	p.DiscountAmount = BestDiscount(p, discounts, now)
	p.EffectivePrice = p.Price.Sub(p.DiscountAmount)
}
