package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestOrderStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipping, false},
		{StatusConfirmed, StatusShipping, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusShipping, StatusDelivered, true},
		{StatusShipping, StatusDeliveryFailed, true},
		{StatusShipping, StatusCancelled, false},
		{StatusDeliveryFailed, StatusShipping, true},
		{StatusDeliveryFailed, StatusCancelled, true},
		{StatusDelivered, StatusCompleted, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}

	assert.True(t, StatusCompleted.IsFinal())
	assert.True(t, StatusCancelled.IsFinal())
	assert.False(t, StatusDelivered.IsFinal())
}

func TestShipperStatus_CanTransition(t *testing.T) {
	assert.True(t, ShipperNone.CanTransition(ShipperAssigned))
	assert.True(t, ShipperAssigned.CanTransition(ShipperConfirmed))
	assert.True(t, ShipperAssigned.CanTransition(ShipperNone))
	assert.False(t, ShipperNone.CanTransition(ShipperConfirmed))
	assert.False(t, ShipperConfirmed.CanTransition(ShipperAssigned))
}

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name       string
		in         TotalsInput
		wantTotal  int64
		wantPoints int
	}{
		{
			name: "no discounts",
			in: TotalsInput{
				GrossSubtotal: d(500000), ShippingFee: d(30000), PointsToVND: d(1000),
			},
			wantTotal: 530000,
		},
		{
			name: "all discounts and points",
			in: TotalsInput{
				GrossSubtotal: d(500000), ProductDiscount: d(50000),
				PromotionDiscount: d(40000), VoucherDiscount: d(10000),
				ShippingFee: d(30000), ShippingDiscount: d(30000),
				PointsRequested: 100, PointsToVND: d(1000),
			},
			// 450000 - 40000 - 10000 + 0 - 100000
			wantTotal:  300000,
			wantPoints: 100,
		},
		{
			name: "points capped at remaining total",
			in: TotalsInput{
				GrossSubtotal: d(100000), ShippingFee: d(30000),
				PointsRequested: 500, PointsToVND: d(1000),
			},
			wantTotal:  0,
			wantPoints: 130,
		},
		{
			name: "points truncated downward",
			in: TotalsInput{
				GrossSubtotal: d(100500), ShippingFee: d(0),
				PointsRequested: 1000, PointsToVND: d(1000),
			},
			wantTotal:  500,
			wantPoints: 100,
		},
		{
			name: "discounts never push total negative",
			in: TotalsInput{
				GrossSubtotal: d(100000), PromotionDiscount: d(80000), VoucherDiscount: d(80000),
				ShippingFee: d(30000), ShippingDiscount: d(50000), PointsToVND: d(1000),
			},
			wantTotal: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTotals(tt.in)
			assert.True(t, got.Total.Equal(d(tt.wantTotal)), "total = %s", got.Total)
			assert.Equal(t, tt.wantPoints, got.PointsUsed)
			assert.False(t, got.Total.IsNegative())

			// total == subtotal - promo - voucher - points + (fee - shipDiscount)
			expected := got.Subtotal.Sub(got.PromotionDiscount).Sub(got.VoucherDiscount).
				Sub(got.PointsDiscount).Add(got.ShippingFee.Sub(got.ShippingDiscount))
			assert.True(t, got.Total.Equal(expected))

			// points * rate <= subtotal - discounts + shipping
			limit := got.Subtotal.Sub(got.PromotionDiscount).Sub(got.VoucherDiscount).
				Add(got.ShippingFee.Sub(got.ShippingDiscount))
			assert.True(t, got.PointsDiscount.LessThanOrEqual(limit))
		})
	}
}

func TestEarnedPoints(t *testing.T) {
	assert.Equal(t, 53, EarnedPoints(d(539000), d(10000)))
	assert.Equal(t, 0, EarnedPoints(d(9999), d(10000)))
	assert.Equal(t, 0, EarnedPoints(d(100000), decimal.Zero))
}

func TestFormatOrderCode(t *testing.T) {
	created := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "250314000042QKX", FormatOrderCode(created, 42, "QKX"))
	assert.Equal(t, "2503141234567ABC", FormatOrderCode(created, 1234567, "ABC"))
}

func TestAutoCancelTaskID_Deterministic(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, AutoCancelTaskID(id), AutoCancelTaskID(id))
	assert.NotEqual(t, AutoCancelTaskID(id), AutoCancelTaskID(uuid.New()))
}

func TestAwaitingPayment(t *testing.T) {
	o := &Order{PaymentMethod: PaymentMethodMomo, PaymentStatus: PaymentStatusPending, Status: StatusPending}
	assert.True(t, o.AwaitingPayment())
	o.PaymentStatus = PaymentStatusPaid
	assert.False(t, o.AwaitingPayment())
	cod := &Order{PaymentMethod: PaymentMethodCOD, Status: StatusPending}
	assert.False(t, cod.AwaitingPayment())
}
