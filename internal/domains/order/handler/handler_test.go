package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/service"
	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"
)

// stubService chỉ implement các method handler test dùng tới,
// method khác gọi vào interface nil sẽ panic
type stubService struct {
	service.ServiceInterface

	err      error
	checkout model.CheckoutRequest
	calls    []string
}

func (s *stubService) Checkout(_ context.Context, _ uuid.UUID, req model.CheckoutRequest) (*model.CheckoutResponse, error) {
	s.checkout = req
	if s.err != nil {
		return nil, s.err
	}
	return &model.CheckoutResponse{Order: &model.Order{OrderCode: "BL250314-0001-ABC", Status: model.StatusPending}}, nil
}

func (s *stubService) shipperResult(name string) (*model.Order, error) {
	s.calls = append(s.calls, name)
	if s.err != nil {
		return nil, s.err
	}
	return &model.Order{Status: model.StatusShipping}, nil
}

func (s *stubService) ConfirmAssignment(context.Context, uuid.UUID, uuid.UUID) (*model.Order, error) {
	return s.shipperResult("confirm")
}

func (s *stubService) RejectAssignment(context.Context, uuid.UUID, uuid.UUID) (*model.Order, error) {
	return s.shipperResult("reject")
}

func (s *stubService) CompleteDelivery(context.Context, uuid.UUID, uuid.UUID) (*model.Order, error) {
	return s.shipperResult("complete")
}

func (s *stubService) FailDelivery(context.Context, uuid.UUID, uuid.UUID, model.FailDeliveryRequest) (*model.Order, error) {
	return s.shipperResult("fail")
}

func (s *stubService) UpdateLocation(context.Context, uuid.UUID, uuid.UUID, model.UpdateLocationRequest) error {
	s.calls = append(s.calls, "location")
	return s.err
}

func newRouter(svc service.ServiceInterface, withUser bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	setUser := func(c *gin.Context) {
		if withUser {
			c.Set(shared.ContextKeyUserID, uuid.New())
		}
		c.Next()
	}
	v1 := r.Group("/api/v1", setUser)
	NewOrderHandler(svc).RegisterRoutes(v1, v1.Group("/admin"), v1.Group("/shipper"))
	return r
}

func doJSON(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var env response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

const validCheckout = `{"receiver_name":"Nguyễn Văn A","phone":"0901234567","address":"12 Lê Lợi","ward_code":"00004","payment_method":"COD"}`

func TestCheckout_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetail  string
	}{
		{
			name:       "success",
			body:       validCheckout,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed json",
			body:       `{"receiver_name":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "validation errors keyed by field",
			body:       `{"phone":"123","payment_method":"CASH"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VAL_INVALID_INPUT",
			wantDetail: "receiver_name",
		},
		{
			name:       "empty cart",
			body:       validCheckout,
			err:        model.NewOrderError(model.ErrCodeCartEmpty, "Giỏ hàng trống", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrCodeCartEmpty,
		},
		{
			name:       "insufficient stock",
			body:       validCheckout,
			err:        model.NewOrderError(model.ErrCodeInsufficientStock, "Sản phẩm Bó hồng đỏ không đủ số lượng", nil),
			wantStatus: http.StatusConflict,
			wantCode:   model.ErrCodeInsufficientStock,
		},
		{
			name:       "insufficient points",
			body:       validCheckout,
			err:        model.NewOrderError(model.ErrCodeInsufficientPoints, "Không đủ điểm", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   model.ErrCodeInsufficientPoints,
		},
		{
			name:        "shipping voucher outside area",
			body:        validCheckout,
			err:         fmt.Errorf("evaluate shipping voucher: %w", promotionModel.ErrAreaNotApplicable),
			wantStatus:  http.StatusBadRequest,
			wantCode:    string(promotionModel.ErrCodePromoAreaNotAllowed),
			wantMessage: "không áp dụng cho khu vực giao hàng này.",
		},
		{
			name:       "min order value carries details",
			body:       validCheckout,
			err:        promotionModel.NewMinOrderError(decimal.NewFromInt(300000)),
			wantStatus: http.StatusBadRequest,
			wantDetail: "min_order_value",
		},
		{
			name:       "unexpected error hides cause",
			body:       validCheckout,
			err:        errors.New("pq: connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(&stubService{err: tt.err}, true)

			w, env := doJSON(r, http.MethodPost, "/api/v1/orders/checkout", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus < 300 {
				assert.True(t, env.Success)
				return
			}
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, env.Error.Code)
			}
			if tt.wantMessage != "" {
				assert.Contains(t, env.Error.Message, tt.wantMessage)
			}
			if tt.wantDetail != "" {
				details, ok := env.Error.Details.(map[string]interface{})
				require.True(t, ok, "details: %v", env.Error.Details)
				assert.Contains(t, details, tt.wantDetail)
			}
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func TestCheckout_RequiresUser(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc, false)

	w, env := doJSON(r, http.MethodPost, "/api/v1/orders/checkout", validCheckout)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	assert.Empty(t, svc.checkout.ReceiverName)
}

func TestShipperActions_ErrorMapping(t *testing.T) {
	orderPath := "/api/v1/shipper/orders/" + uuid.NewString()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		err        error
		wantStatus int
		wantCode   string
		wantCall   string
	}{
		{"confirm ok", http.MethodPost, orderPath + "/confirm", "", nil, http.StatusOK, "", "confirm"},
		{"reject after accept", http.MethodPost, orderPath + "/reject", "",
			model.NewOrderError(model.ErrCodeInvalidTransition, "Bạn đã nhận đơn này, không thể từ chối", nil),
			http.StatusUnprocessableEntity, model.ErrCodeInvalidTransition, "reject"},
		{"complete by another shipper", http.MethodPost, orderPath + "/complete", "",
			model.NewOrderError(model.ErrCodeNotAssignedShipper, "Đơn hàng không được phân công cho bạn", nil),
			http.StatusForbidden, model.ErrCodeNotAssignedShipper, "complete"},
		{"concurrent update", http.MethodPost, orderPath + "/confirm", "",
			model.NewOrderError(model.ErrCodeStatusConflict, "Đơn hàng vừa được cập nhật, vui lòng thử lại", model.ErrStatusConflict),
			http.StatusConflict, model.ErrCodeStatusConflict, "confirm"},
		{"missing order", http.MethodPost, orderPath + "/complete", "",
			fmt.Errorf("get order: %w", model.ErrOrderNotFound),
			http.StatusNotFound, model.ErrCodeOrderNotFound, "complete"},
		{"fail needs reason", http.MethodPost, orderPath + "/fail", `{"reason":""}`, nil,
			http.StatusBadRequest, "VAL_INVALID_INPUT", ""},
		{"fail ok", http.MethodPost, orderPath + "/fail", `{"reason":"Không liên lạc được"}`, nil,
			http.StatusOK, "", "fail"},
		{"location out of range", http.MethodPut, orderPath + "/location", `{"lat":91,"lng":106.7}`, nil,
			http.StatusBadRequest, "VAL_INVALID_INPUT", ""},
		{"location ok", http.MethodPut, orderPath + "/location", `{"lat":10.77,"lng":106.7}`, nil,
			http.StatusNoContent, "", "location"},
		{"bad order id", http.MethodPost, "/api/v1/shipper/orders/not-a-uuid/confirm", "", nil,
			http.StatusBadRequest, "BAD_REQUEST", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{err: tt.err}
			r := newRouter(svc, true)

			w, env := doJSON(r, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantCode, env.Error.Code)
			}
			if tt.wantCall == "" {
				assert.Empty(t, svc.calls)
			} else {
				assert.Equal(t, []string{tt.wantCall}, svc.calls)
			}
		})
	}
}
