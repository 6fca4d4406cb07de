package model

import (
	"errors"
	"fmt"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================

var (
	ErrInvalidSignature = errors.New("invalid callback signature")
	ErrInvalidTxnRef    = errors.New("invalid transaction reference")
	ErrOrderNotFound    = errors.New("order not found")
	ErrAmountMismatch   = errors.New("paid amount does not match order total")
	ErrNotOnlineOrder   = errors.New("order is not paid online")
	ErrOrderAlreadyPaid = errors.New("order already paid")
	ErrOrderNotPayable  = errors.New("order can no longer be paid")
)

// =====================================================
// CUSTOM PAYMENT ERROR
// =====================================================

const (
	ErrCodeInvalidSignature = "PAY_INVALID_SIGNATURE"
	ErrCodeOrderNotFound    = "PAY_ORDER_NOT_FOUND"
	ErrCodeAmountMismatch   = "PAY_AMOUNT_MISMATCH"
	ErrCodeNotOnline        = "PAY_NOT_ONLINE"
	ErrCodeAlreadyPaid      = "PAY_ALREADY_PAID"
	ErrCodeNotPayable       = "PAY_NOT_PAYABLE"
	ErrCodeGateway          = "PAY_GATEWAY_ERROR"
)

type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func NewPaymentError(code, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
