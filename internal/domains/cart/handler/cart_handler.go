package handler

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/service"
	productModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/middleware"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

// Handler handles HTTP requests for cart
type Handler struct {
	service service.ServiceInterface
}

func NewHandler(cartService service.ServiceInterface) *Handler {
	return &Handler{service: cartService}
}

// GetCart GET /cart
func (h *Handler) GetCart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	cart, err := h.service.GetCart(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cart)
}

// AddItem POST /cart/items
func (h *Handler) AddItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	var req model.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	cart, err := h.service.AddItem(c.Request.Context(), userID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cart)
}

// RemoveItem DELETE /cart/items/:id
func (h *Handler) RemoveItem(c *gin.Context) {
	h.itemAction(c, h.service.RemoveItem)
}

// IncreaseItem POST /cart/items/:id/increase
func (h *Handler) IncreaseItem(c *gin.Context) {
	h.itemAction(c, h.service.IncreaseItem)
}

// DecreaseItem POST /cart/items/:id/decrease
func (h *Handler) DecreaseItem(c *gin.Context) {
	h.itemAction(c, h.service.DecreaseItem)
}

func (h *Handler) itemAction(c *gin.Context, action func(ctx context.Context, userID, itemID uuid.UUID) (*model.CartView, error)) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Item ID không hợp lệ")
		return
	}

	cart, err := action(c.Request.Context(), userID, itemID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cart)
}

// UpdateItemDelivery PUT /cart/items/:id/delivery
func (h *Handler) UpdateItemDelivery(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Item ID không hợp lệ")
		return
	}

	var req model.UpdateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	cart, err := h.service.UpdateItemDelivery(c.Request.Context(), userID, itemID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cart)
}

// ApplyVoucher POST /cart/voucher
func (h *Handler) ApplyVoucher(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	var req model.ApplyVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	cart, err := h.service.ApplyVoucher(c.Request.Context(), userID, req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cart)
}

// RemoveVoucher DELETE /cart/voucher
func (h *Handler) RemoveVoucher(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	cart, err := h.service.RemoveVoucher(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cart)
}

// ClearCart DELETE /cart
func (h *Handler) ClearCart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	if err := h.service.ClearCart(c.Request.Context(), userID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Đã xóa giỏ hàng"})
}

func handleError(c *gin.Context, err error) {
	var cartErr *model.CartError
	if errors.As(err, &cartErr) {
		response.ErrorWithDetails(c, cartErr.HTTPStatus, cartErr.Code, cartErr.Message, cartErr.Details)
		return
	}

	var promoErr *promotionModel.AppError
	if errors.As(err, &promoErr) {
		response.ErrorWithDetails(c, promoErr.HTTPStatus, string(promoErr.Code), promoErr.Message, promoErr.Details)
		return
	}

	var verr validation.Errors
	switch {
	case errors.As(err, &verr):
		response.ValidationError(c, verr)
	case errors.Is(err, model.ErrInvalidQuantity):
		response.BadRequest(c, "Số lượng không hợp lệ (tối đa 100 mỗi sản phẩm)")
	case errors.Is(err, productModel.ErrProductNotFound), errors.Is(err, productModel.ErrProductInactive):
		response.NotFound(c, "Sản phẩm không tồn tại")
	default:
		logger.Error("cart handler error", err)
		response.InternalServerError(c, "Đã có lỗi xảy ra, vui lòng thử lại")
	}
}
