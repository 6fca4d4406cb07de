package model

import (
	"encoding/json"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherRef - tham chiếu voucher từ request: mã nhập tay hoặc id voucher trong ví
type VoucherRef struct {
	Code          string     `json:"code"`
	UserVoucherID *uuid.UUID `json:"user_voucher_id"`
}

func (r VoucherRef) Empty() bool {
	return strings.TrimSpace(r.Code) == "" && r.UserVoucherID == nil
}

// AvailableCode - mã công khai đang chạy
type AvailableCode struct {
	Code          string           `json:"code"`
	PromotionID   uuid.UUID        `json:"promotion_id"`
	PromotionName string           `json:"promotion_name"`
	Description   string           `json:"description"`
	Type          PromotionType    `json:"type"`
	IsPercent     bool             `json:"is_percent"`
	Value         decimal.Decimal  `json:"value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	MinOrderValue *decimal.Decimal `json:"min_order_value,omitempty"`
	EndDate       time.Time        `json:"end_date"`
	Remaining     *int             `json:"remaining,omitempty"`
}

// WalletVoucher - voucher trong ví kèm thông tin mã
type WalletVoucher struct {
	UserVoucher
	Code          string           `json:"code"`
	PromotionName string           `json:"promotion_name"`
	Type          PromotionType    `json:"type"`
	IsPercent     bool             `json:"is_percent"`
	Value         decimal.Decimal  `json:"value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	MinOrderValue *decimal.Decimal `json:"min_order_value,omitempty"`
}

type ClaimVoucherRequest struct {
	Code string `json:"code"`
}

func (r ClaimVoucherRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required.Error("Vui lòng nhập mã giảm giá")),
	)
}

// ============================================
// ADMIN
// ============================================

type CreateCodeRequest struct {
	Code          string           `json:"code"`
	IsPercent     bool             `json:"is_percent"`
	Value         decimal.Decimal  `json:"value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	MinOrderValue *decimal.Decimal `json:"min_order_value"`
	UsageLimit    *int             `json:"usage_limit"`
	ExpiryDate    *time.Time       `json:"expiry_date"`
}

func (r CreateCodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required.Error("Mã là bắt buộc"), validation.Length(3, 50)),
		validation.Field(&r.Value, validation.By(func(interface{}) error {
			if r.Value.IsNegative() {
				return validation.NewError("validation_value_negative", "Giá trị giảm không được âm")
			}
			if r.IsPercent && r.Value.GreaterThan(decimal.NewFromInt(100)) {
				return validation.NewError("validation_percent_range", "Phần trăm giảm tối đa 100")
			}
			return nil
		})),
		validation.Field(&r.UsageLimit, validation.Min(1).Error("Giới hạn lượt dùng phải lớn hơn 0")),
	)
}

type CreateGiftRequest struct {
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

func (r CreateGiftRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BuyConditionType, validation.Required, validation.In(BuyAll, BuyProduct, BuyCategory)),
		validation.Field(&r.BuyConditionValueType, validation.Required, validation.In(BuyByQuantity, BuyByValue)),
		validation.Field(&r.GiftProductIDs, validation.Required.Error("Cần ít nhất một sản phẩm quà tặng")),
		validation.Field(&r.GiftQuantity, validation.Min(1)),
		validation.Field(&r.GiftDiscountType, validation.Required, validation.In(GiftFree, GiftPercent, GiftMoney)),
		validation.Field(&r.BuyProductIDs, validation.When(r.BuyConditionType == BuyProduct, validation.Required)),
		validation.Field(&r.BuyCategoryIDs, validation.When(r.BuyConditionType == BuyCategory, validation.Required)),
	)
}

type CreatePromotionRequest struct {
	Name                 string              `json:"name"`
	Description          string              `json:"description"`
	Type                 PromotionType       `json:"type"`
	StartDate            time.Time           `json:"start_date"`
	EndDate              time.Time           `json:"end_date"`
	MinProductQuantity   *int                `json:"min_product_quantity"`
	MinProductValue      *decimal.Decimal    `json:"min_product_value"`
	ApplyDistricts       []string            `json:"apply_districts"`
	AllowCombineOrder    bool                `json:"allow_combine_order"`
	AllowCombineProduct  bool                `json:"allow_combine_product"`
	AllowCombineShipping bool                `json:"allow_combine_shipping"`
	ProductIDs           []uuid.UUID         `json:"product_ids"`
	CategoryIDs          []uuid.UUID         `json:"category_ids"`
	Codes                []CreateCodeRequest `json:"codes"`
	Gifts                []CreateGiftRequest `json:"gifts"`
}

func (r CreatePromotionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("Tên chương trình là bắt buộc"), validation.Length(3, 200)),
		validation.Field(&r.Type, validation.Required, validation.In(TypeOrder, TypeProduct, TypeShipping, TypeGift).
			Error("Loại khuyến mãi không hợp lệ")),
		validation.Field(&r.StartDate, validation.Required),
		validation.Field(&r.EndDate, validation.Required, validation.By(func(interface{}) error {
			if !r.EndDate.After(r.StartDate) {
				return validation.NewError("validation_date_range", "Ngày kết thúc phải sau ngày bắt đầu")
			}
			return nil
		})),
		validation.Field(&r.MinProductQuantity, validation.Min(1)),
		validation.Field(&r.Codes, validation.Required.Error("Cần ít nhất một mã")),
		validation.Field(&r.Gifts, validation.When(r.Type == TypeGift, validation.Required.Error("Khuyến mãi quà tặng cần cấu hình quà"))),
	)
}

// ToEntity chuyển request sang Promotion + danh sách mã
func (r CreatePromotionRequest) ToEntity() (*Promotion, []PromotionCode) {
	p := &Promotion{
		Name:                 r.Name,
		Description:          r.Description,
		Type:                 r.Type,
		StartDate:            r.StartDate,
		EndDate:              r.EndDate,
		IsActive:             true,
		MinProductQuantity:   r.MinProductQuantity,
		MinProductValue:      r.MinProductValue,
		AllowCombineOrder:    r.AllowCombineOrder,
		AllowCombineProduct:  r.AllowCombineProduct,
		AllowCombineShipping: r.AllowCombineShipping,
		ProductIDs:           nonNil(r.ProductIDs),
		CategoryIDs:          nonNil(r.CategoryIDs),
	}
	if len(r.ApplyDistricts) > 0 {
		raw, _ := json.Marshal(r.ApplyDistricts)
		s := string(raw)
		p.ApplyDistricts = &s
	}
	for _, g := range r.Gifts {
		p.Gifts = append(p.Gifts, PromotionGift{
			BuyConditionType:      g.BuyConditionType,
			BuyConditionValueType: g.BuyConditionValueType,
			BuyQuantity:           g.BuyQuantity,
			BuyConditionValue:     g.BuyConditionValue,
			BuyProductIDs:         nonNil(g.BuyProductIDs),
			BuyCategoryIDs:        nonNil(g.BuyCategoryIDs),
			GiftProductIDs:        nonNil(g.GiftProductIDs),
			GiftQuantity:          g.GiftQuantity,
			GiftDiscountType:      g.GiftDiscountType,
			GiftDiscountValue:     g.GiftDiscountValue,
			LimitPerOrder:         g.LimitPerOrder,
		})
	}

	codes := make([]PromotionCode, 0, len(r.Codes))
	for _, c := range r.Codes {
		codes = append(codes, PromotionCode{
			Code:          NormalizeCode(c.Code),
			IsPercent:     c.IsPercent,
			Value:         c.Value,
			MaxDiscount:   c.MaxDiscount,
			MinOrderValue: c.MinOrderValue,
			UsageLimit:    c.UsageLimit,
			ExpiryDate:    c.ExpiryDate,
			IsActive:      true,
		})
	}
	return p, codes
}

// NormalizeCode - mã giảm giá so khớp không phân biệt hoa thường
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}
