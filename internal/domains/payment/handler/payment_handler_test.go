package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	orderModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
)

type stubService struct {
	momoErr   error
	vnpParams map[string]string
}

func (s *stubService) CreatePaymentURL(context.Context, *orderModel.Order) (string, error) {
	return "", nil
}

func (s *stubService) RetryPayment(context.Context, uuid.UUID, uuid.UUID) (*model.PaymentURLResponse, error) {
	return nil, model.NewPaymentError(model.ErrCodeAlreadyPaid, "Đơn hàng đã được thanh toán", model.ErrOrderAlreadyPaid)
}

func (s *stubService) HandleMomoIPN(context.Context, model.MomoIPNRequest) error {
	return s.momoErr
}

func (s *stubService) HandleVNPayIPN(_ context.Context, params map[string]string) model.VNPayIPNResponse {
	s.vnpParams = params
	return model.VNPayIPNResponse{RspCode: model.VNPayRspSuccess, Message: "Confirm Success"}
}

func (s *stubService) HandleVNPayReturn(context.Context, map[string]string) (*model.CallbackResult, error) {
	return &model.CallbackResult{Success: true}, nil
}

func (s *stubService) ConfirmPayment(context.Context, *orderModel.Order) (bool, error) {
	return true, nil
}

func (s *stubService) ListWebhookLogs(context.Context, uuid.UUID) ([]model.WebhookLog, error) {
	return nil, nil
}

func newRouter(svc *stubService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	customer := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(shared.ContextKeyUserID, uuid.New())
		c.Next()
	})
	NewPaymentHandler(svc).RegisterRoutes(customer, r.Group("/api/v1/admin"), r.Group("/api/v1"))
	return r
}

func TestMomoWebhook(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/momo", strings.NewReader(`{"orderId":"x","resultCode":0}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	svc.momoErr = model.NewPaymentError(model.ErrCodeInvalidSignature, "Chữ ký không hợp lệ", model.ErrInvalidSignature)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/momo", strings.NewReader(`{"orderId":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), model.ErrCodeInvalidSignature)
}

func TestVNPayWebhook_OnlyForwardsVnpParams(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/vnpay?vnp_TxnRef=abc&vnp_Amount=100&foo=bar", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"RspCode":"00","Message":"Confirm Success"}`, w.Body.String())
	assert.Equal(t, map[string]string{"vnp_TxnRef": "abc", "vnp_Amount": "100"}, svc.vnpParams)
}

func TestRetryPayment_MapsErrorCode(t *testing.T) {
	r := newRouter(&stubService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/pay", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), model.ErrCodeAlreadyPaid)
}
