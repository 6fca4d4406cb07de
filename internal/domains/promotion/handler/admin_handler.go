package handler

import (
	"net/http"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/service"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler xử lý các API quản trị khuyến mãi
type AdminHandler struct {
	service service.ServiceInterface
}

func NewAdminHandler(promotionService service.ServiceInterface) *AdminHandler {
	return &AdminHandler{service: promotionService}
}

// CreatePromotion POST /v1/admin/promotions
func (h *AdminHandler) CreatePromotion(c *gin.Context) {
	var req model.CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	promo, err := h.service.CreatePromotion(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, promo)
}

// SetPromotionActive PATCH /v1/admin/promotions/:id/status
func (h *AdminHandler) SetPromotionActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "ID khuyến mãi không hợp lệ")
		return
	}

	var req model.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}

	if err := h.service.SetPromotionActive(c.Request.Context(), id, req.IsActive); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "is_active": req.IsActive})
}
