package model

import (
	"errors"
	"net/http"
)

// CartError lỗi nghiệp vụ của giỏ hàng kèm HTTP status
type CartError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
}

func (e *CartError) Error() string {
	return e.Message
}

func (e *CartError) Is(target error) bool {
	t, ok := target.(*CartError)
	return ok && t.Code == e.Code
}

var (
	ErrItemNotFound       = &CartError{Code: "CART_ITEM_NOT_FOUND", Message: "Không tìm thấy sản phẩm trong giỏ hàng", HTTPStatus: http.StatusNotFound}
	ErrGiftItemLocked     = &CartError{Code: "CART_GIFT_ITEM_LOCKED", Message: "Không thể thay đổi quà tặng", HTTPStatus: http.StatusBadRequest}
	ErrProductUnavailable = &CartError{Code: "PRODUCT_UNAVAILABLE", Message: "Sản phẩm không còn kinh doanh", HTTPStatus: http.StatusBadRequest}
	ErrCartEmpty          = &CartError{Code: "EMPTY_CART", Message: "Giỏ hàng trống", HTTPStatus: http.StatusBadRequest}
	ErrNoVoucherApplied   = &CartError{Code: "NO_VOUCHER_APPLIED", Message: "Giỏ hàng chưa áp dụng mã giảm giá", HTTPStatus: http.StatusBadRequest}
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

// NewInsufficientStockError số lượng yêu cầu vượt tồn kho
func NewInsufficientStockError(productName string, requested, available int) *CartError {
	return &CartError{
		Code:       "INSUFFICIENT_STOCK",
		Message:    "Sản phẩm " + productName + " không đủ số lượng",
		HTTPStatus: http.StatusConflict,
		Details: map[string]interface{}{
			"requested": requested,
			"available": available,
		},
	}
}
