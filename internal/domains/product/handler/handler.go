package handler

import (
	"errors"
	"net/http"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/service"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// ListProducts - GET /v1/products
// Query: category_id, min_price, max_price, color, min_rating, q, sort, page, limit
func (h *Handler) ListProducts(c *gin.Context) {
	var req model.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Tham số không hợp lệ")
		return
	}

	products, total, err := h.service.ListProducts(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	filter := req.ToFilter()
	response.SuccessWithMeta(c, http.StatusOK, products, response.NewMeta(filter.Page, filter.Limit, total))
}

// GetProduct - GET /v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "ID sản phẩm không hợp lệ")
		return
	}

	p, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// ListCategories - GET /v1/categories
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, categories)
}

// CreateProduct - POST /v1/admin/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var req model.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu không hợp lệ")
		return
	}

	p, err := h.service.CreateProduct(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

// UpdateStock - PATCH /v1/admin/products/:id/stock
func (h *Handler) UpdateStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "ID sản phẩm không hợp lệ")
		return
	}
	var req model.UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	if err := h.service.UpdateStock(c.Request.Context(), id, req.Stock); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "stock": req.Stock})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var verr validation.Errors
	switch {
	case errors.As(err, &verr):
		response.ValidationError(c, verr)
	case errors.Is(err, model.ErrProductNotFound), errors.Is(err, model.ErrProductInactive):
		response.NotFound(c, err.Error())
	case errors.Is(err, model.ErrCategoryNotFound):
		response.BadRequest(c, err.Error())
	case errors.Is(err, model.ErrDuplicateSlug):
		response.Conflict(c, err.Error())
	default:
		logger.Error("product handler error", err)
		response.InternalServerError(c, "Đã có lỗi xảy ra")
	}
}
