package model

import (
	"errors"
	"fmt"
)

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeOrderNotFound        = "ORD_NOT_FOUND"
	ErrCodeCartEmpty            = "ORD_CART_EMPTY"
	ErrCodeProductUnavailable   = "ORD_PRODUCT_UNAVAILABLE"
	ErrCodeInsufficientStock    = "ORD_INSUFFICIENT_STOCK"
	ErrCodeVoucherConflict      = "ORD_VOUCHER_CONFLICT"
	ErrCodeVoucherTypeMismatch  = "ORD_VOUCHER_TYPE_MISMATCH"
	ErrCodeVoucherUnavailable   = "ORD_VOUCHER_UNAVAILABLE"
	ErrCodeInsufficientPoints   = "ORD_INSUFFICIENT_POINTS"
	ErrCodeInvalidTransition    = "ORD_INVALID_TRANSITION"
	ErrCodeStatusConflict       = "ORD_STATUS_CONFLICT"
	ErrCodeNotAssignedShipper   = "ORD_NOT_ASSIGNED_SHIPPER"
	ErrCodeInvalidShipper       = "ORD_INVALID_SHIPPER"
	ErrCodeInvalidWard          = "ORD_INVALID_WARD"
	ErrCodeAlreadyPaid          = "ORD_ALREADY_PAID"
	ErrCodeInvalidPaymentMethod = "ORD_INVALID_PAYMENT_METHOD"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrStatusConflict     = errors.New("order status changed concurrently")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrVoucherUnavailable = errors.New("voucher already used or usage limit reached")
)

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
type OrderError struct {
	Code    string
	Message string
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError
func NewOrderError(code, message string, err error) *OrderError {
	return &OrderError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewInsufficientStockError(productName string, requested, available int) *OrderError {
	return NewOrderError(
		ErrCodeInsufficientStock,
		fmt.Sprintf("Sản phẩm %s chỉ còn %d (yêu cầu %d)", productName, available, requested),
		nil,
	)
}

func NewInvalidTransitionError(from, to string) *OrderError {
	return NewOrderError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("Không thể chuyển đơn từ '%s' sang '%s'", from, to),
		nil,
	)
}
