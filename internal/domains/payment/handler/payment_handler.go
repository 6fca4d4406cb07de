package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/gateway/vnpay"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/service"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/middleware"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

// =====================================================
// PAYMENT HANDLER
// =====================================================
type PaymentHandler struct {
	paymentService service.ServiceInterface
}

func NewPaymentHandler(paymentService service.ServiceInterface) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes: webhook không qua auth, chỉ dựa vào chữ ký
func (h *PaymentHandler) RegisterRoutes(customer, admin, public *gin.RouterGroup) {
	customer.POST("/orders/:id/pay", h.RetryPayment)         // POST /api/v1/orders/:id/pay
	admin.GET("/orders/:id/payment-logs", h.ListWebhookLogs) // GET /api/v1/admin/orders/:id/payment-logs

	public.POST("/webhooks/momo", h.MomoWebhook)
	public.GET("/webhooks/vnpay", h.VNPayWebhook)
	public.GET("/payments/vnpay/return", h.VNPayReturn)
}

// RetryPayment tạo lại link thanh toán cho đơn MOMO / VNPAY chưa trả tiền
// POST /api/v1/orders/:id/pay
func (h *PaymentHandler) RetryPayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Mã đơn hàng không hợp lệ")
		return
	}

	resp, err := h.paymentService.RetryPayment(c.Request.Context(), orderID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// ListWebhookLogs GET /api/v1/admin/orders/:id/payment-logs
func (h *PaymentHandler) ListWebhookLogs(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Mã đơn hàng không hợp lệ")
		return
	}

	logs, err := h.paymentService.ListWebhookLogs(c.Request.Context(), orderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, logs)
}

// =====================================================
// WEBHOOKS
// =====================================================

// MomoWebhook handles Momo IPN callback
// POST /api/v1/webhooks/momo
func (h *PaymentHandler) MomoWebhook(c *gin.Context) {
	// Step 1: Parse webhook data from JSON body
	var req model.MomoIPNRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request format")
		return
	}

	// Step 2: Process webhook
	if err := h.paymentService.HandleMomoIPN(c.Request.Context(), req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	// Step 3: MoMo chỉ cần 204 để ngừng retry
	c.Status(http.StatusNoContent)
}

// VNPayWebhook handles VNPay IPN callback
// GET /api/v1/webhooks/vnpay
func (h *PaymentHandler) VNPayWebhook(c *gin.Context) {
	params := vnpay.ParamsFromQuery(c.Request.URL.Query())

	// VNPay luôn cần HTTP 200, kết quả nằm trong RspCode
	resp := h.paymentService.HandleVNPayIPN(c.Request.Context(), params)
	c.JSON(http.StatusOK, resp)
}

// VNPayReturn - frontend chuyển tiếp query từ VNPay về đây để hiển thị kết quả
// GET /api/v1/payments/vnpay/return
func (h *PaymentHandler) VNPayReturn(c *gin.Context) {
	params := vnpay.ParamsFromQuery(c.Request.URL.Query())

	result, err := h.paymentService.HandleVNPayReturn(c.Request.Context(), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// =====================================================
// ERROR MAPPING
// =====================================================

func (h *PaymentHandler) handleServiceError(c *gin.Context, err error) {
	var payErr *model.PaymentError
	if errors.As(err, &payErr) {
		response.ErrorResponse(c, h.getHTTPStatusFromErrorCode(payErr.Code), payErr.Code, payErr.Message)
		return
	}

	logger.Error("payment handler error", err)
	response.InternalServerError(c, "Đã có lỗi xảy ra, vui lòng thử lại")
}

func (h *PaymentHandler) getHTTPStatusFromErrorCode(code string) int {
	statusMap := map[string]int{
		model.ErrCodeInvalidSignature: http.StatusBadRequest,
		model.ErrCodeAmountMismatch:   http.StatusBadRequest,
		model.ErrCodeOrderNotFound:    http.StatusNotFound,
		model.ErrCodeNotOnline:        http.StatusBadRequest,
		model.ErrCodeAlreadyPaid:      http.StatusConflict,
		model.ErrCodeNotPayable:       http.StatusConflict,
		model.ErrCodeGateway:          http.StatusBadGateway,
	}

	if status, exists := statusMap[code]; exists {
		return status
	}
	return http.StatusInternalServerError
}
