package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceCode   Source = "code"   // mã nhập trực tiếp vào giỏ (CartState)
	SourceWallet Source = "wallet" // voucher đã lưu trong ví
)

// Candidate - một voucher đã resolve, dù đến từ mã nhập tay hay từ ví
type Candidate struct {
	Source    Source
	Promotion *Promotion
	Code      *PromotionCode
	Voucher   *UserVoucher // chỉ có khi Source == SourceWallet
}

func (c *Candidate) Type() PromotionType {
	return c.Promotion.Type
}

func (c *Candidate) UserVoucherID() *uuid.UUID {
	if c.Voucher == nil {
		return nil
	}
	id := c.Voucher.ID
	return &id
}

// Line - một dòng giỏ hàng đưa vào evaluator. Discount là giảm giá sản phẩm trên 1 đơn vị.
type Line struct {
	ProductID  uuid.UUID
	CategoryID *uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
	Discount   decimal.Decimal
	IsGift     bool
}

// Net thành tiền sau giảm giá sản phẩm
func (l Line) Net() decimal.Decimal {
	return l.UnitPrice.Sub(l.Discount).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type EvalInput struct {
	UserID      uuid.UUID
	Lines       []Line
	WardCode    string
	ShippingFee decimal.Decimal
	Now         time.Time
}

// GiftLine - dòng quà tặng sinh ra từ promotion gift
type GiftLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	PromotionID uuid.UUID       `json:"promotion_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"` // giảm giá sản phẩm + giảm giá quà, trên 1 đơn vị
}

type EvalResult struct {
	Type             PromotionType   `json:"type"`
	Code             string          `json:"code"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	ShippingDiscount decimal.Decimal `json:"shipping_discount"`
	FreeShipping     bool            `json:"free_shipping"`
	Gifts            []GiftLine      `json:"gifts,omitempty"`
}
