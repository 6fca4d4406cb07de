package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PromotionType string

const (
	TypeOrder    PromotionType = "order"
	TypeProduct  PromotionType = "product"
	TypeShipping PromotionType = "shipping"
	TypeGift     PromotionType = "gift"
)

func (t PromotionType) Valid() bool {
	switch t {
	case TypeOrder, TypeProduct, TypeShipping, TypeGift:
		return true
	}
	return false
}

// IsDiscount: order/product/gift chiếm slot giảm giá, shipping chiếm slot vận chuyển
func (t PromotionType) IsDiscount() bool {
	return t == TypeOrder || t == TypeProduct || t == TypeGift
}

type Promotion struct {
	ID                   uuid.UUID        `json:"id"`
	Name                 string           `json:"name"`
	Description          string           `json:"description"`
	Type                 PromotionType    `json:"type"`
	StartDate            time.Time        `json:"start_date"`
	EndDate              time.Time        `json:"end_date"`
	IsActive             bool             `json:"is_active"`
	MinProductQuantity   *int             `json:"min_product_quantity,omitempty"`
	MinProductValue      *decimal.Decimal `json:"min_product_value,omitempty"`
	ApplyDistricts       *string          `json:"apply_districts,omitempty"` // JSON list, mã phường hoặc tên
	AllowCombineOrder    bool             `json:"allow_combine_order"`
	AllowCombineProduct  bool             `json:"allow_combine_product"`
	AllowCombineShipping bool             `json:"allow_combine_shipping"`
	ProductIDs           []uuid.UUID      `json:"product_ids"`
	CategoryIDs          []uuid.UUID      `json:"category_ids"`
	Gifts                []PromotionGift  `json:"gifts,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

// AllowsCombineWith - flag của promotion này cho phép đi cùng loại t.
// Gift dùng chung flag với product.
func (p *Promotion) AllowsCombineWith(t PromotionType) bool {
	switch t {
	case TypeOrder:
		return p.AllowCombineOrder
	case TypeProduct, TypeGift:
		return p.AllowCombineProduct
	case TypeShipping:
		return p.AllowCombineShipping
	}
	return false
}

// CanCombine kiểm tra 2 chiều giữa voucher giảm giá và voucher vận chuyển
func CanCombine(discount, shipping *Promotion) bool {
	if discount == nil || shipping == nil {
		return true
	}
	return shipping.AllowsCombineWith(discount.Type) && discount.AllowCombineShipping
}

type PromotionCode struct {
	ID            uuid.UUID        `json:"id"`
	PromotionID   uuid.UUID        `json:"promotion_id"`
	Code          string           `json:"code"`
	IsPercent     bool             `json:"is_percent"`
	Value         decimal.Decimal  `json:"value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	MinOrderValue *decimal.Decimal `json:"min_order_value,omitempty"`
	UsageLimit    *int             `json:"usage_limit,omitempty"`
	UsedCount     int              `json:"used_count"`
	ExpiryDate    *time.Time       `json:"expiry_date,omitempty"`
	IsActive      bool             `json:"is_active"`
}

type BuyConditionType string

const (
	BuyAll      BuyConditionType = "all"
	BuyProduct  BuyConditionType = "product"
	BuyCategory BuyConditionType = "category"
)

type BuyValueType string

const (
	BuyByQuantity BuyValueType = "quantity"
	BuyByValue    BuyValueType = "value"
)

type GiftDiscountType string

const (
	GiftFree    GiftDiscountType = "free"
	GiftPercent GiftDiscountType = "percent"
	GiftMoney   GiftDiscountType = "money"
)

type PromotionGift struct {
	ID                    uuid.UUID        `json:"id"`
	PromotionID           uuid.UUID        `json:"promotion_id"`
	BuyConditionType      BuyConditionType `json:"buy_condition_type"`
	BuyConditionValueType BuyValueType     `json:"buy_condition_value_type"`
	BuyQuantity           int              `json:"buy_quantity"`
	BuyConditionValue     decimal.Decimal  `json:"buy_condition_value"`
	BuyProductIDs         []uuid.UUID      `json:"buy_product_ids"`
	BuyCategoryIDs        []uuid.UUID      `json:"buy_category_ids"`
	GiftProductIDs        []uuid.UUID      `json:"gift_product_ids"`
	GiftQuantity          int              `json:"gift_quantity"`
	GiftDiscountType      GiftDiscountType `json:"gift_discount_type"`
	GiftDiscountValue     decimal.Decimal  `json:"gift_discount_value"`
	LimitPerOrder         bool             `json:"limit_per_order"`
}

// UserVoucher - voucher trong ví của user
type UserVoucher struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	PromotionCodeID uuid.UUID  `json:"promotion_code_id"`
	IsUsed          bool       `json:"is_used"`
	UsedDate        *time.Time `json:"used_date,omitempty"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	OrderID         *uuid.UUID `json:"order_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
