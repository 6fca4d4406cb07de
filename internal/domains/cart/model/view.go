package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	productModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
)

type CartLineView struct {
	ItemID       uuid.UUID       `json:"item_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ImageURL     string          `json:"image_url"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Discount     decimal.Decimal `json:"discount"`
	LineTotal    decimal.Decimal `json:"line_total"`
	IsGift       bool            `json:"is_gift"`
	Stock        int             `json:"stock"`
	DeliveryDate *time.Time      `json:"delivery_date,omitempty"`
	DeliveryTime *string         `json:"delivery_time,omitempty"`
	Note         *string         `json:"note,omitempty"`
}

type CartView struct {
	Items            []CartLineView               `json:"items"`
	ItemCount        int                          `json:"item_count"`
	GrossSubtotal    decimal.Decimal              `json:"gross_subtotal"`
	ProductDiscount  decimal.Decimal              `json:"product_discount"`
	Subtotal         decimal.Decimal              `json:"subtotal"`
	AppliedCode      *string                      `json:"applied_code,omitempty"`
	UserVoucherID    *uuid.UUID                   `json:"user_voucher_id,omitempty"`
	PromotionType    promotionModel.PromotionType `json:"promotion_type,omitempty"`
	DiscountAmount   decimal.Decimal              `json:"discount_amount"`
	ShippingDiscount decimal.Decimal              `json:"shipping_discount"`
	FreeShipping     bool                         `json:"free_shipping"`
	ShippingFee      decimal.Decimal              `json:"shipping_fee"`
	Total            decimal.Decimal              `json:"total"`
}

// BuildView tính tổng tiền giỏ hàng.
// Dòng quà tặng tính theo giá sau giảm (quà miễn phí có LineTotal = 0).
// Item có product đã bị xóa thì bỏ qua.
func BuildView(items []CartItem, products map[uuid.UUID]*productModel.Product, state *CartState, shippingFee decimal.Decimal) *CartView {
	view := &CartView{
		Items:            make([]CartLineView, 0, len(items)),
		GrossSubtotal:    decimal.Zero,
		ProductDiscount:  decimal.Zero,
		DiscountAmount:   decimal.Zero,
		ShippingDiscount: decimal.Zero,
	}

	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		discount := decimal.Min(item.Discount, p.Price)
		line := CartLineView{
			ItemID:       item.ID,
			ProductID:    item.ProductID,
			ProductName:  p.Name,
			ImageURL:     p.ImageURL,
			Quantity:     item.Quantity,
			UnitPrice:    p.Price,
			Discount:     discount,
			LineTotal:    p.Price.Sub(discount).Mul(qty),
			IsGift:       item.IsGift,
			Stock:        p.Stock,
			DeliveryDate: item.DeliveryDate,
			DeliveryTime: item.DeliveryTime,
			Note:         item.Note,
		}
		view.Items = append(view.Items, line)
		view.ItemCount += item.Quantity
		view.GrossSubtotal = view.GrossSubtotal.Add(p.Price.Mul(qty))
		view.ProductDiscount = view.ProductDiscount.Add(discount.Mul(qty))
	}
	view.Subtotal = view.GrossSubtotal.Sub(view.ProductDiscount)

	if len(view.Items) > 0 {
		view.ShippingFee = shippingFee
	} else {
		view.ShippingFee = decimal.Zero
	}

	if state != nil {
		view.AppliedCode = state.PromotionCode
		view.UserVoucherID = state.UserVoucherID
		view.PromotionType = state.PromotionType
		view.DiscountAmount = state.DiscountAmount
		view.ShippingDiscount = decimal.Min(state.ShippingDiscount, view.ShippingFee)
		view.FreeShipping = state.FreeShipping
	}

	total := view.Subtotal.Sub(view.DiscountAmount).Add(view.ShippingFee.Sub(view.ShippingDiscount))
	if total.IsNegative() {
		total = decimal.Zero
	}
	view.Total = total
	return view
}
