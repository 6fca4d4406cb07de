package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chatbot/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chatbot/service"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/middleware"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

type ChatbotHandler struct {
	chatbotService service.ServiceInterface
}

func NewChatbotHandler(chatbotService service.ServiceInterface) *ChatbotHandler {
	return &ChatbotHandler{chatbotService: chatbotService}
}

// RegisterRoutes - group phải gắn OptionalAuthMiddleware
func (h *ChatbotHandler) RegisterRoutes(optional *gin.RouterGroup) {
	bot := optional.Group("/chatbot")
	{
		bot.POST("/messages", h.Chat)          // POST /api/v1/chatbot/messages
		bot.GET("/history", h.History)         // GET /api/v1/chatbot/history?session_id=
		bot.DELETE("/history", h.ClearHistory) // DELETE /api/v1/chatbot/history?session_id=
	}
}

func (h *ChatbotHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	result, err := h.chatbotService.Chat(c.Request.Context(), optionalUser(c), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

func (h *ChatbotHandler) History(c *gin.Context) {
	req, ok := bindHistory(c)
	if !ok {
		return
	}
	turns, err := h.chatbotService.History(c.Request.Context(), optionalUser(c), req.SessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, turns)
}

func (h *ChatbotHandler) ClearHistory(c *gin.Context) {
	req, ok := bindHistory(c)
	if !ok {
		return
	}
	if err := h.chatbotService.ClearHistory(c.Request.Context(), optionalUser(c), req.SessionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindHistory(c *gin.Context) (model.HistoryRequest, bool) {
	var req model.HistoryRequest
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

func optionalUser(c *gin.Context) *uuid.UUID {
	if userID, ok := middleware.GetUserID(c); ok {
		return &userID
	}
	return nil
}

func (h *ChatbotHandler) handleServiceError(c *gin.Context, err error) {
	var botErr *model.ChatbotError
	if errors.As(err, &botErr) {
		if botErr.HTTPStatus == http.StatusTooManyRequests {
			c.Header("Retry-After", "60")
		}
		response.ErrorResponse(c, botErr.HTTPStatus, botErr.Code, botErr.Message)
		return
	}

	logger.Error("chatbot handler error", err)
	response.InternalServerError(c, "Đã có lỗi xảy ra, vui lòng thử lại")
}
