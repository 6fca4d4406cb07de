package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// CALCULATION HELPERS
// =====================================================

type TotalsInput struct {
	GrossSubtotal     decimal.Decimal
	ProductDiscount   decimal.Decimal
	PromotionDiscount decimal.Decimal // từ mã trong CartState
	VoucherDiscount   decimal.Decimal // từ voucher giảm giá trong ví
	ShippingFee       decimal.Decimal
	ShippingDiscount  decimal.Decimal
	PointsRequested   int
	PointsToVND       decimal.Decimal
}

type Totals struct {
	GrossSubtotal     decimal.Decimal `json:"gross_subtotal"`
	ProductDiscount   decimal.Decimal `json:"product_discount"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	PromotionDiscount decimal.Decimal `json:"promotion_discount"`
	VoucherDiscount   decimal.Decimal `json:"voucher_discount"`
	ShippingFee       decimal.Decimal `json:"shipping_fee"`
	ShippingDiscount  decimal.Decimal `json:"shipping_discount"`
	PointsUsed        int             `json:"points_used"`
	PointsDiscount    decimal.Decimal `json:"points_discount"`
	Total             decimal.Decimal `json:"total"`
}

// CalculateTotals:
// total = subtotal - promotionDiscount - voucherDiscount - pointsDiscount + (shippingFee - shippingDiscount)
// Giảm giá bị chặn để total không âm; số điểm dùng thực tế được tính lại (làm tròn xuống).
func CalculateTotals(in TotalsInput) Totals {
	t := Totals{
		GrossSubtotal:   in.GrossSubtotal,
		ProductDiscount: decimal.Min(in.ProductDiscount, in.GrossSubtotal),
		ShippingFee:     in.ShippingFee,
	}
	t.Subtotal = t.GrossSubtotal.Sub(t.ProductDiscount)

	remaining := t.Subtotal
	t.PromotionDiscount = clamp(in.PromotionDiscount, remaining)
	remaining = remaining.Sub(t.PromotionDiscount)
	t.VoucherDiscount = clamp(in.VoucherDiscount, remaining)
	remaining = remaining.Sub(t.VoucherDiscount)

	t.ShippingDiscount = clamp(in.ShippingDiscount, t.ShippingFee)
	remaining = remaining.Add(t.ShippingFee.Sub(t.ShippingDiscount))

	t.PointsUsed, t.PointsDiscount = capPoints(in.PointsRequested, in.PointsToVND, remaining)
	t.Total = remaining.Sub(t.PointsDiscount)
	return t
}

func clamp(v, max decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if max.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(v, max)
}

// capPoints trả về số điểm dùng được sao cho points * rate <= amount
func capPoints(requested int, rate, amount decimal.Decimal) (int, decimal.Decimal) {
	if requested <= 0 || !rate.IsPositive() || !amount.IsPositive() {
		return 0, decimal.Zero
	}
	maxPoints := amount.Div(rate).Floor().IntPart()
	used := int64(requested)
	if used > maxPoints {
		used = maxPoints
	}
	return int(used), rate.Mul(decimal.NewFromInt(used))
}

// EarnedPoints - điểm thưởng khi đơn hoàn thành: floor(total / earnRate)
func EarnedPoints(total, earnRate decimal.Decimal) int {
	if !earnRate.IsPositive() || !total.IsPositive() {
		return 0
	}
	return int(total.Div(earnRate).Floor().IntPart())
}

// =====================================================
// ORDER CODE / TASK ID
// =====================================================

// FormatOrderCode: {yyMMdd}{seq 6 chữ số}{3 chữ cái}, vd 250314000042QKX
func FormatOrderCode(createdAt time.Time, seq int64, suffix string) string {
	return fmt.Sprintf("%s%06d%s", createdAt.Format("060102"), seq, suffix)
}

// AutoCancelTaskID - task id cố định để revoke khi thanh toán thành công
func AutoCancelTaskID(orderID uuid.UUID) string {
	return "auto-cancel:" + orderID.String()
}
