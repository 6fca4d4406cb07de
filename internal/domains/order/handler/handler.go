package handler

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/service"
	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/middleware"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

// =====================================================
// ORDER HANDLER
// =====================================================
type OrderHandler struct {
	orderService service.ServiceInterface
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService service.ServiceInterface) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// =====================================================
// ROUTES REGISTRATION
// =====================================================

// RegisterRoutes đăng ký route theo nhóm quyền; các group đã gắn middleware ở router
func (h *OrderHandler) RegisterRoutes(customer, admin, shipper *gin.RouterGroup) {
	orders := customer.Group("/orders")
	{
		orders.POST("/checkout", h.Checkout)            // POST /api/v1/orders/checkout
		orders.GET("", h.ListMyOrders)                  // GET /api/v1/orders?status=&page=
		orders.GET("/:id", h.GetOrder)                  // GET /api/v1/orders/:id
		orders.POST("/:id/cancel", h.CancelOrder)       // POST /api/v1/orders/:id/cancel
		orders.POST("/:id/received", h.ConfirmReceived) // POST /api/v1/orders/:id/received
	}

	adminOrders := admin.Group("/orders")
	{
		adminOrders.GET("", h.ListOrders)
		adminOrders.GET("/:id", h.GetOrderAdmin)
		adminOrders.PATCH("/:id/status", h.UpdateStatus)
		adminOrders.POST("/:id/assign", h.AssignShipper)
		adminOrders.GET("/:id/tracking", h.GetTracking)
	}

	shipperOrders := shipper.Group("/orders")
	{
		shipperOrders.GET("", h.ListAssigned)
		shipperOrders.POST("/:id/confirm", h.ConfirmAssignment)
		shipperOrders.POST("/:id/reject", h.RejectAssignment)
		shipperOrders.POST("/:id/fail", h.FailDelivery)
		shipperOrders.POST("/:id/complete", h.CompleteDelivery)
		shipperOrders.PUT("/:id/location", h.UpdateLocation)
	}
}

// =====================================================
// CHECKOUT
// =====================================================

// Checkout POST /orders/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	var req model.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	result, err := h.orderService.Checkout(c.Request.Context(), userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// =====================================================
// CUSTOMER
// =====================================================

func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, orderID, ok := h.userAndOrder(c)
	if !ok {
		return
	}

	result, err := h.orderService.GetOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	req, ok := bindListRequest(c)
	if !ok {
		return
	}
	orders, total, err := h.orderService.ListMyOrders(c.Request.Context(), userID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	f := req.ToFilter()
	response.SuccessWithMeta(c, http.StatusOK, orders, response.NewMeta(f.Page, f.Limit, total))
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, orderID, ok := h.userAndOrder(c)
	if !ok {
		return
	}

	var req model.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	if err := h.orderService.CancelOrder(c.Request.Context(), orderID, userID, req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"order_id": orderID, "status": model.StatusCancelled})
}

func (h *OrderHandler) ConfirmReceived(c *gin.Context) {
	userID, orderID, ok := h.userAndOrder(c)
	if !ok {
		return
	}

	order, err := h.orderService.ConfirmReceived(c.Request.Context(), orderID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

// =====================================================
// ADMIN
// =====================================================

func (h *OrderHandler) ListOrders(c *gin.Context) {
	req, ok := bindListRequest(c)
	if !ok {
		return
	}
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	f := req.ToFilter()
	response.SuccessWithMeta(c, http.StatusOK, orders, response.NewMeta(f.Page, f.Limit, total))
}

func (h *OrderHandler) GetOrderAdmin(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	result, err := h.orderService.GetOrderAdmin(c.Request.Context(), orderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	adminID, orderID, ok := h.userAndOrder(c)
	if !ok {
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, adminID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

func (h *OrderHandler) AssignShipper(c *gin.Context) {
	adminID, orderID, ok := h.userAndOrder(c)
	if !ok {
		return
	}

	var req model.AssignShipperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	order, err := h.orderService.AssignShipper(c.Request.Context(), orderID, adminID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

func (h *OrderHandler) GetTracking(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	tracking, err := h.orderService.GetTracking(c.Request.Context(), orderID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, tracking)
}

// =====================================================
// SHIPPER
// =====================================================

func (h *OrderHandler) ListAssigned(c *gin.Context) {
	shipperID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	req, ok := bindListRequest(c)
	if !ok {
		return
	}
	orders, total, err := h.orderService.ListAssigned(c.Request.Context(), shipperID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	f := req.ToFilter()
	response.SuccessWithMeta(c, http.StatusOK, orders, response.NewMeta(f.Page, f.Limit, total))
}

func (h *OrderHandler) ConfirmAssignment(c *gin.Context) {
	h.shipperAction(c, h.orderService.ConfirmAssignment)
}

func (h *OrderHandler) RejectAssignment(c *gin.Context) {
	h.shipperAction(c, h.orderService.RejectAssignment)
}

func (h *OrderHandler) CompleteDelivery(c *gin.Context) {
	h.shipperAction(c, h.orderService.CompleteDelivery)
}

func (h *OrderHandler) FailDelivery(c *gin.Context) {
	shipperID, orderID, ok := h.userAndOrder(c)
	if !ok {
		return
	}

	var req model.FailDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	order, err := h.orderService.FailDelivery(c.Request.Context(), orderID, shipperID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

func (h *OrderHandler) UpdateLocation(c *gin.Context) {
	shipperID, orderID, ok := h.userAndOrder(c)
	if !ok {
		return
	}

	var req model.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	if err := h.orderService.UpdateLocation(c.Request.Context(), orderID, shipperID, req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// =====================================================
// HELPER FUNCTIONS
// =====================================================

type shipperActionFunc func(ctx context.Context, orderID, shipperID uuid.UUID) (*model.Order, error)

func (h *OrderHandler) shipperAction(c *gin.Context, fn shipperActionFunc) {
	shipperID, orderID, ok := h.userAndOrder(c)
	if !ok {
		return
	}
	order, err := fn(c.Request.Context(), orderID, shipperID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

func (h *OrderHandler) userAndOrder(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return uuid.Nil, uuid.Nil, false
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, orderID, true
}

func parseOrderID(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Mã đơn hàng không hợp lệ")
		return uuid.Nil, false
	}
	return orderID, true
}

func bindListRequest(c *gin.Context) (model.ListOrdersRequest, bool) {
	var req model.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Tham số truy vấn không hợp lệ")
		return req, false
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return req, false
	}
	return req, true
}

// handleServiceError handles service layer errors and maps to HTTP responses
func (h *OrderHandler) handleServiceError(c *gin.Context, err error) {
	// Check if it's a custom OrderError
	var orderErr *model.OrderError
	if errors.As(err, &orderErr) {
		statusCode := h.getHTTPStatusFromErrorCode(orderErr.Code)
		response.ErrorResponse(c, statusCode, orderErr.Code, orderErr.Message)
		return
	}

	// Lỗi voucher từ evaluator
	var promoErr *promotionModel.AppError
	if errors.As(err, &promoErr) {
		response.ErrorWithDetails(c, promoErr.HTTPStatus, string(promoErr.Code), promoErr.Message, promoErr.Details)
		return
	}

	var verr validation.Errors
	if errors.As(err, &verr) {
		response.ValidationError(c, verr)
		return
	}

	if errors.Is(err, model.ErrOrderNotFound) {
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeOrderNotFound, "Không tìm thấy đơn hàng")
		return
	}

	logger.Error("order handler error", err)
	response.InternalServerError(c, "Đã có lỗi xảy ra, vui lòng thử lại")
}

// getHTTPStatusFromErrorCode maps business error codes to HTTP status codes
func (h *OrderHandler) getHTTPStatusFromErrorCode(code string) int {
	statusMap := map[string]int{
		model.ErrCodeOrderNotFound:        http.StatusNotFound,
		model.ErrCodeCartEmpty:            http.StatusBadRequest,
		model.ErrCodeProductUnavailable:   http.StatusUnprocessableEntity,
		model.ErrCodeInsufficientStock:    http.StatusConflict,
		model.ErrCodeVoucherConflict:      http.StatusBadRequest,
		model.ErrCodeVoucherTypeMismatch:  http.StatusBadRequest,
		model.ErrCodeVoucherUnavailable:   http.StatusConflict,
		model.ErrCodeInsufficientPoints:   http.StatusUnprocessableEntity,
		model.ErrCodeInvalidTransition:    http.StatusUnprocessableEntity,
		model.ErrCodeStatusConflict:       http.StatusConflict,
		model.ErrCodeNotAssignedShipper:   http.StatusForbidden,
		model.ErrCodeInvalidShipper:       http.StatusBadRequest,
		model.ErrCodeInvalidWard:          http.StatusBadRequest,
		model.ErrCodeAlreadyPaid:          http.StatusConflict,
		model.ErrCodeInvalidPaymentMethod: http.StatusBadRequest,
	}

	if status, exists := statusMap[code]; exists {
		return status
	}

	return http.StatusInternalServerError
}
