package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	a "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/address"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"
)

type AddressHandler struct {
	service a.ServiceInterface
}

func NewAddressHandler(service a.ServiceInterface) *AddressHandler {
	return &AddressHandler{service: service}
}

// ListWards handles GET /wards?q=
func (h *AddressHandler) ListWards(c *gin.Context) {
	wards, err := h.service.ListWards(c.Request.Context(), c.Query("q"))
	if err != nil {
		statusCode, message, code := a.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}
	response.Success(c, http.StatusOK, wards)
}

// GetWard handles GET /wards/:code
func (h *AddressHandler) GetWard(c *gin.Context) {
	ward, err := h.service.GetWard(c.Request.Context(), c.Param("code"))
	if err != nil {
		statusCode, message, code := a.GetErrorResponse(err)
		response.ErrorResponse(c, statusCode, code, message)
		return
	}
	response.Success(c, http.StatusOK, ward)
}
