package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	productModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
)

// CartItem - một dòng trong giỏ. Discount là giảm giá sản phẩm trên 1 đơn vị tại thời điểm thay đổi.
// Dòng quà tặng (IsGift) do evaluator sinh ra, bị xóa mỗi khi voucher thay đổi.
type CartItem struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Quantity        int             `json:"quantity"`
	Discount        decimal.Decimal `json:"discount"`
	IsGift          bool            `json:"is_gift"`
	GiftPromotionID *uuid.UUID      `json:"gift_promotion_id,omitempty"`
	DeliveryDate    *time.Time      `json:"delivery_date,omitempty"`
	DeliveryTime    *string         `json:"delivery_time,omitempty"`
	Note            *string         `json:"note,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CartState - voucher đang áp dụng cho giỏ, 1-1 với user, ghi đè mỗi lần apply
type CartState struct {
	UserID           uuid.UUID                    `json:"user_id"`
	PromotionCode    *string                      `json:"promotion_code,omitempty"`
	PromotionID      *uuid.UUID                   `json:"promotion_id,omitempty"`
	PromotionType    promotionModel.PromotionType `json:"promotion_type,omitempty"`
	UserVoucherID    *uuid.UUID                   `json:"user_voucher_id,omitempty"`
	WardCode         *string                      `json:"ward_code,omitempty"`
	DiscountAmount   decimal.Decimal              `json:"discount_amount"`
	ShippingDiscount decimal.Decimal              `json:"shipping_discount"`
	FreeShipping     bool                         `json:"free_shipping"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

// VoucherRef dựng lại tham chiếu voucher để evaluate lại
func (s *CartState) VoucherRef() promotionModel.VoucherRef {
	ref := promotionModel.VoucherRef{UserVoucherID: s.UserVoucherID}
	if s.PromotionCode != nil {
		ref.Code = *s.PromotionCode
	}
	return ref
}

func (s *CartState) Ward() string {
	if s.WardCode == nil {
		return ""
	}
	return *s.WardCode
}

// NewCartState tạo state từ kết quả evaluate
func NewCartState(userID uuid.UUID, cand *promotionModel.Candidate, result *promotionModel.EvalResult, wardCode string) *CartState {
	promotionID := cand.Promotion.ID
	code := cand.Code.Code
	state := &CartState{
		UserID:           userID,
		PromotionCode:    &code,
		PromotionID:      &promotionID,
		PromotionType:    result.Type,
		UserVoucherID:    cand.UserVoucherID(),
		DiscountAmount:   result.DiscountAmount,
		ShippingDiscount: result.ShippingDiscount,
		FreeShipping:     result.FreeShipping,
	}
	// voucher trong ví được tham chiếu bằng id, không bằng mã
	if state.UserVoucherID != nil {
		state.PromotionCode = nil
	}
	if wardCode != "" {
		state.WardCode = &wardCode
	}
	return state
}

// GiftItems chuyển gift lines của evaluator thành cart items
func GiftItems(userID uuid.UUID, gifts []promotionModel.GiftLine) []CartItem {
	items := make([]CartItem, 0, len(gifts))
	for _, g := range gifts {
		promotionID := g.PromotionID
		items = append(items, CartItem{
			ID:              uuid.New(),
			UserID:          userID,
			ProductID:       g.ProductID,
			Quantity:        g.Quantity,
			Discount:        g.Discount,
			IsGift:          true,
			GiftPromotionID: &promotionID,
		})
	}
	return items
}

// EvalLines dựng input cho evaluator, bỏ qua item mà product không còn tồn tại
func EvalLines(items []CartItem, products map[uuid.UUID]*productModel.Product) []promotionModel.Line {
	lines := make([]promotionModel.Line, 0, len(items))
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, promotionModel.Line{
			ProductID:  item.ProductID,
			CategoryID: p.CategoryID,
			Quantity:   item.Quantity,
			UnitPrice:  p.Price,
			Discount:   decimal.Min(item.Discount, p.Price),
			IsGift:     item.IsGift,
		})
	}
	return lines
}

// ProductIDs trả về danh sách product id (không trùng) của các item
func ProductIDs(items []CartItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
