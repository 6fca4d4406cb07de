package handler

import (
	"errors"
	"net/http"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/service"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/middleware"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
)

// PublicHandler xử lý các API phía khách hàng
type PublicHandler struct {
	service service.ServiceInterface
}

func NewPublicHandler(promotionService service.ServiceInterface) *PublicHandler {
	return &PublicHandler{service: promotionService}
}

// ListAvailableCodes GET /v1/promotions
func (h *PublicHandler) ListAvailableCodes(c *gin.Context) {
	codes, err := h.service.ListAvailableCodes(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, codes)
}

// ClaimVoucher POST /v1/vouchers/claim
func (h *PublicHandler) ClaimVoucher(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	var req model.ClaimVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	voucher, err := h.service.ClaimVoucher(c.Request.Context(), userID, req.Code)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, voucher)
}

// ListMyVouchers GET /v1/vouchers
func (h *PublicHandler) ListMyVouchers(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return
	}

	vouchers, err := h.service.ListMyVouchers(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, vouchers)
}

// handleError map AppError / validation error sang HTTP response
func handleError(c *gin.Context, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		response.ErrorWithDetails(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message, appErr.Details)
		return
	}

	var verr validation.Errors
	if errors.As(err, &verr) {
		response.ValidationError(c, verr)
		return
	}

	logger.Error("promotion handler error", err)
	response.InternalServerError(c, "Đã có lỗi xảy ra, vui lòng thử lại")
}
