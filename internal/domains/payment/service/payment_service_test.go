package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
	orderModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/gateway/momo"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/gateway/vnpay"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
)

// =====================================================
// FAKES
// =====================================================

type fakeOrders struct {
	orders map[uuid.UUID]*orderModel.Order
}

func (f *fakeOrders) GetOrderByID(_ context.Context, id uuid.UUID) (*orderModel.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, id uuid.UUID) (bool, error) {
	o := f.orders[id]
	if o.PaymentStatus == orderModel.PaymentStatusPaid {
		return false, nil
	}
	o.PaymentStatus = orderModel.PaymentStatusPaid
	return true, nil
}

func (f *fakeOrders) MarkPaymentFailed(_ context.Context, id uuid.UUID) error {
	o := f.orders[id]
	if o.PaymentStatus == orderModel.PaymentStatusPending {
		o.PaymentStatus = orderModel.PaymentStatusFailed
	}
	return nil
}

type fakeWebhookRepo struct {
	logs      []*model.WebhookLog
	processed map[uuid.UUID]*string
}

func (f *fakeWebhookRepo) Create(_ context.Context, log *model.WebhookLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeWebhookRepo) MarkAsProcessed(_ context.Context, id uuid.UUID, errMsg *string) error {
	f.processed[id] = errMsg
	return nil
}

func (f *fakeWebhookRepo) ListByOrder(context.Context, uuid.UUID, int) ([]model.WebhookLog, error) {
	var out []model.WebhookLog
	for _, l := range f.logs {
		out = append(out, *l)
	}
	return out, nil
}

type fakeRevoker struct{ deleted []string }

func (f *fakeRevoker) DeleteTask(queue, id string) error {
	f.deleted = append(f.deleted, queue+"/"+id)
	return nil
}

type fakeNotifier struct{ events []string }

func (f *fakeNotifier) SendToUser(_ uuid.UUID, eventType string, _ interface{}) {
	f.events = append(f.events, eventType)
}

// =====================================================
// FIXTURE
// =====================================================

const (
	vnpaySecret = "VNPAYSECRET"
	momoAccess  = "ACCESS"
	momoSecret  = "MOMOSECRET"
)

type fixture struct {
	svc      *PaymentService
	orders   *fakeOrders
	webhooks *fakeWebhookRepo
	revoker  *fakeRevoker
	notifier *fakeNotifier
	order    *orderModel.Order
}

func newFixture(t *testing.T, method orderModel.PaymentMethod) *fixture {
	t.Helper()
	jobID := orderModel.AutoCancelTaskID(uuid.Nil)
	order := &orderModel.Order{
		ID:            uuid.New(),
		OrderCode:     "250101000001ABC",
		UserID:        uuid.New(),
		PaymentMethod: method,
		PaymentStatus: orderModel.PaymentStatusPending,
		Status:        orderModel.StatusPending,
		TotalAmount:   decimal.NewFromInt(430000),
		CancelJobID:   &jobID,
	}

	vnpayClient, err := vnpay.NewClient(vnpay.NewConfig(config.VNPayConfig{
		TmnCode:    "DEMO",
		HashSecret: vnpaySecret,
		APIURL:     "https://sandbox.vnpayment.vn/paymentv2",
		ReturnURL:  "https://bloomie.vn/return",
	}, 15*time.Minute))
	require.NoError(t, err)
	momoClient := momo.NewClient(momo.NewConfig(config.MomoConfig{
		PartnerCode: "MOMO",
		AccessKey:   momoAccess,
		SecretKey:   momoSecret,
		APIURL:      "https://test-payment.momo.vn",
	}))

	f := &fixture{
		orders:   &fakeOrders{orders: map[uuid.UUID]*orderModel.Order{order.ID: order}},
		webhooks: &fakeWebhookRepo{processed: map[uuid.UUID]*string{}},
		revoker:  &fakeRevoker{},
		notifier: &fakeNotifier{},
		order:    order,
	}
	f.svc = NewPaymentService(f.orders, f.webhooks, momoClient, vnpayClient, f.revoker, f.notifier)
	return f
}

func (f *fixture) vnpayParams(amount, code string) map[string]string {
	params := map[string]string{
		"vnp_Amount":            amount,
		"vnp_ResponseCode":      code,
		"vnp_TransactionStatus": code,
		"vnp_TransactionNo":     "14226112",
		"vnp_TxnRef":            model.NewTxnRef(f.order.ID, time.Now()),
		"vnp_TmnCode":           "DEMO",
		"vnp_OrderInfo":         "Thanh toan don hang " + f.order.OrderCode,
	}
	params["vnp_SecureHash"] = vnpay.GenerateSignature(params, vnpaySecret)
	return params
}

func (f *fixture) momoIPN(amount int64, resultCode int) model.MomoIPNRequest {
	req := model.MomoIPNRequest{
		PartnerCode:  "MOMO",
		OrderID:      model.NewTxnRef(f.order.ID, time.Now()),
		RequestID:    "req-1",
		Amount:       amount,
		OrderInfo:    "Thanh toan",
		OrderType:    "momo_wallet",
		TransID:      2147483648,
		ResultCode:   resultCode,
		Message:      "ok",
		PayType:      "qr",
		ResponseTime: 1735700400000,
	}
	req.Signature = momo.GenerateSignature(momo.BuildIPNSignatureString(momoAccess, req), momoSecret)
	return req
}

// =====================================================
// TESTS
// =====================================================

func TestHandleVNPayIPN(t *testing.T) {
	t.Run("success confirms and revokes auto-cancel", func(t *testing.T) {
		f := newFixture(t, orderModel.PaymentMethodVNPay)

		resp := f.svc.HandleVNPayIPN(context.Background(), f.vnpayParams("43000000", "00"))

		assert.Equal(t, model.VNPayRspSuccess, resp.RspCode)
		assert.Equal(t, orderModel.PaymentStatusPaid, f.order.PaymentStatus)
		assert.Equal(t, []string{shared.QueueCritical + "/" + *f.order.CancelJobID}, f.revoker.deleted)
		assert.Equal(t, []string{shared.EventPaymentResult}, f.notifier.events)
		require.Len(t, f.webhooks.logs, 1)
		assert.True(t, f.webhooks.logs[0].IsValid)
		assert.Nil(t, f.webhooks.processed[f.webhooks.logs[0].ID])
	})

	t.Run("duplicate IPN is reported as already confirmed", func(t *testing.T) {
		f := newFixture(t, orderModel.PaymentMethodVNPay)
		params := f.vnpayParams("43000000", "00")

		f.svc.HandleVNPayIPN(context.Background(), params)
		resp := f.svc.HandleVNPayIPN(context.Background(), params)

		assert.Equal(t, model.VNPayRspAlreadyConfirmed, resp.RspCode)
		assert.Len(t, f.revoker.deleted, 1)
	})

	t.Run("tampered signature", func(t *testing.T) {
		f := newFixture(t, orderModel.PaymentMethodVNPay)
		params := f.vnpayParams("43000000", "00")
		params["vnp_Amount"] = "100"

		resp := f.svc.HandleVNPayIPN(context.Background(), params)

		assert.Equal(t, model.VNPayRspInvalidSignature, resp.RspCode)
		assert.Equal(t, orderModel.PaymentStatusPending, f.order.PaymentStatus)
		assert.False(t, f.webhooks.logs[0].IsValid)
	})

	t.Run("amount mismatch", func(t *testing.T) {
		f := newFixture(t, orderModel.PaymentMethodVNPay)

		resp := f.svc.HandleVNPayIPN(context.Background(), f.vnpayParams("100000", "00"))

		assert.Equal(t, model.VNPayRspInvalidAmount, resp.RspCode)
		assert.Equal(t, orderModel.PaymentStatusPending, f.order.PaymentStatus)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newFixture(t, orderModel.PaymentMethodVNPay)
		params := map[string]string{
			"vnp_Amount":       "43000000",
			"vnp_ResponseCode": "00",
			"vnp_TxnRef":       model.NewTxnRef(uuid.New(), time.Now()),
		}
		params["vnp_SecureHash"] = vnpay.GenerateSignature(params, vnpaySecret)

		resp := f.svc.HandleVNPayIPN(context.Background(), params)
		assert.Equal(t, model.VNPayRspOrderNotFound, resp.RspCode)
	})

	t.Run("failed transaction marks payment failed", func(t *testing.T) {
		f := newFixture(t, orderModel.PaymentMethodVNPay)

		resp := f.svc.HandleVNPayIPN(context.Background(), f.vnpayParams("43000000", "24"))

		assert.Equal(t, model.VNPayRspSuccess, resp.RspCode)
		assert.Equal(t, orderModel.PaymentStatusFailed, f.order.PaymentStatus)
		assert.Empty(t, f.revoker.deleted)
	})
}

func TestHandleVNPayReturn(t *testing.T) {
	f := newFixture(t, orderModel.PaymentMethodVNPay)
	params := f.vnpayParams("43000000", "00")

	result, err := f.svc.HandleVNPayReturn(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, f.order.ID, result.OrderID)

	// IPN đến sau return vẫn OK
	result, err = f.svc.HandleVNPayReturn(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestHandleMomoIPN(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t, orderModel.PaymentMethodMomo)

		err := f.svc.HandleMomoIPN(context.Background(), f.momoIPN(430000, 0))
		require.NoError(t, err)
		assert.Equal(t, orderModel.PaymentStatusPaid, f.order.PaymentStatus)

		// MoMo retry IPN -> vẫn 204
		assert.NoError(t, f.svc.HandleMomoIPN(context.Background(), f.momoIPN(430000, 0)))
	})

	t.Run("invalid signature", func(t *testing.T) {
		f := newFixture(t, orderModel.PaymentMethodMomo)
		req := f.momoIPN(430000, 0)
		req.Signature = "deadbeef"

		err := f.svc.HandleMomoIPN(context.Background(), req)
		assert.ErrorIs(t, err, model.ErrInvalidSignature)
		assert.NotNil(t, f.webhooks.processed[f.webhooks.logs[0].ID])
	})

	t.Run("user cancelled", func(t *testing.T) {
		f := newFixture(t, orderModel.PaymentMethodMomo)

		err := f.svc.HandleMomoIPN(context.Background(), f.momoIPN(430000, momo.ResultCodeUserCancelled))
		require.NoError(t, err)
		assert.Equal(t, orderModel.PaymentStatusFailed, f.order.PaymentStatus)
	})
}

func TestRetryPayment(t *testing.T) {
	f := newFixture(t, orderModel.PaymentMethodVNPay)
	ctx := context.Background()

	resp, err := f.svc.RetryPayment(ctx, f.order.ID, f.order.UserID)
	require.NoError(t, err)
	assert.Contains(t, resp.PaymentURL, "vnp_TxnRef=")
	assert.Equal(t, f.order.OrderCode, resp.OrderCode)

	_, err = f.svc.RetryPayment(ctx, f.order.ID, uuid.New())
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	f.order.PaymentStatus = orderModel.PaymentStatusPaid
	_, err = f.svc.RetryPayment(ctx, f.order.ID, f.order.UserID)
	assert.ErrorIs(t, err, model.ErrOrderAlreadyPaid)

	f.order.PaymentStatus = orderModel.PaymentStatusFailed
	f.order.Status = orderModel.StatusCancelled
	_, err = f.svc.RetryPayment(ctx, f.order.ID, f.order.UserID)
	assert.ErrorIs(t, err, model.ErrOrderNotPayable)
}

func TestRetryPayment_COD(t *testing.T) {
	f := newFixture(t, orderModel.PaymentMethodCOD)

	_, err := f.svc.RetryPayment(context.Background(), f.order.ID, f.order.UserID)

	var payErr *model.PaymentError
	require.True(t, errors.As(err, &payErr))
	assert.Equal(t, model.ErrCodeNotOnline, payErr.Code)
}
