package handler

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/service"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/middleware"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

type ChatHandler struct {
	chatService service.ServiceInterface
}

func NewChatHandler(chatService service.ServiceInterface) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// RegisterRoutes: authed = mọi user đã đăng nhập, staff = staff + admin
func (h *ChatHandler) RegisterRoutes(authed, staff *gin.RouterGroup) {
	support := authed.Group("/support")
	{
		support.POST("/conversations", h.StartConversation)     // POST /api/v1/support/conversations
		support.GET("/conversations", h.ListMyConversations)    // GET /api/v1/support/conversations
		support.GET("/conversations/:id", h.GetConversation)    // GET /api/v1/support/conversations/:id
		support.GET("/conversations/:id/messages", h.ListMessages)
		support.POST("/conversations/:id/messages", h.SendMessage)
		support.POST("/conversations/:id/read", h.MarkRead)
		support.POST("/conversations/:id/close", h.Close)
		support.POST("/conversations/:id/reopen", h.Reopen)
		support.GET("/unread", h.UnreadCount)
	}

	staffSupport := staff.Group("/support")
	{
		staffSupport.GET("/conversations", h.ListConversations) // ?status=&tag=&assignee=me|unassigned|<id>&unread_only=
		staffSupport.POST("/conversations/:id/assign", h.AssignToSelf)
		staffSupport.POST("/conversations/:id/transfer", h.Transfer)
		staffSupport.GET("/conversations/:id/transfers", h.ListTransfers)
		staffSupport.POST("/conversations/:id/tags", h.AddTag)
		staffSupport.DELETE("/conversations/:id/tags/:tag", h.RemoveTag)
		staffSupport.GET("/analytics", h.Analytics)
	}
}

// =====================================================
// CUSTOMER
// =====================================================

func (h *ChatHandler) StartConversation(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req model.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	conv, err := h.chatService.StartConversation(c.Request.Context(), actor.UserID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, conv)
}

func (h *ChatHandler) ListMyConversations(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, limit := bindPage(c)

	convs, total, err := h.chatService.ListMyConversations(c.Request.Context(), actor.UserID, page, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, convs, response.NewMeta(page, limit, total))
}

// =====================================================
// CONVERSATION
// =====================================================

func (h *ChatHandler) GetConversation(c *gin.Context) {
	actor, convID, ok := actorAndConversation(c)
	if !ok {
		return
	}
	conv, err := h.chatService.GetConversation(c.Request.Context(), actor, convID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, conv)
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	actor, convID, ok := actorAndConversation(c)
	if !ok {
		return
	}
	page, limit := bindPage(c)

	msgs, total, err := h.chatService.ListMessages(c.Request.Context(), actor, convID, page, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, msgs, response.NewMeta(page, limit, total))
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	actor, convID, ok := actorAndConversation(c)
	if !ok {
		return
	}

	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), actor, convID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, msg)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	actor, convID, ok := actorAndConversation(c)
	if !ok {
		return
	}
	if err := h.chatService.MarkRead(c.Request.Context(), actor, convID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) Close(c *gin.Context) {
	actor, convID, ok := actorAndConversation(c)
	if !ok {
		return
	}
	conv, err := h.chatService.Close(c.Request.Context(), actor, convID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, conv)
}

func (h *ChatHandler) Reopen(c *gin.Context) {
	actor, convID, ok := actorAndConversation(c)
	if !ok {
		return
	}
	conv, err := h.chatService.Reopen(c.Request.Context(), actor, convID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, conv)
}

func (h *ChatHandler) UnreadCount(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	n, err := h.chatService.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, model.UnreadCountResponse{Unread: n})
}

// =====================================================
// STAFF
// =====================================================

func (h *ChatHandler) ListConversations(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req model.ListConversationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Tham số truy vấn không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	filter := req.ToFilter(actor.UserID)
	convs, total, err := h.chatService.ListConversations(c.Request.Context(), filter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, convs, response.NewMeta(filter.Page, filter.Limit, total))
}

func (h *ChatHandler) AssignToSelf(c *gin.Context) {
	actor, convID, ok := actorAndConversation(c)
	if !ok {
		return
	}
	conv, err := h.chatService.AssignToSelf(c.Request.Context(), actor.UserID, convID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, conv)
}

func (h *ChatHandler) Transfer(c *gin.Context) {
	actor, convID, ok := actorAndConversation(c)
	if !ok {
		return
	}

	var req model.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	conv, err := h.chatService.Transfer(c.Request.Context(), actor.UserID, convID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, conv)
}

func (h *ChatHandler) ListTransfers(c *gin.Context) {
	convID, ok := parseConversationID(c)
	if !ok {
		return
	}
	transfers, err := h.chatService.ListTransfers(c.Request.Context(), convID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, transfers)
}

func (h *ChatHandler) AddTag(c *gin.Context) {
	convID, ok := parseConversationID(c)
	if !ok {
		return
	}

	var req model.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Dữ liệu request không hợp lệ")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	tags, err := h.chatService.AddTag(c.Request.Context(), convID, req.Tag)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tags": tags})
}

func (h *ChatHandler) RemoveTag(c *gin.Context) {
	convID, ok := parseConversationID(c)
	if !ok {
		return
	}
	tags, err := h.chatService.RemoveTag(c.Request.Context(), convID, c.Param("tag"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tags": tags})
}

// Analytics GET /staff/support/analytics?from=2025-03-01&to=2025-03-31
func (h *ChatHandler) Analytics(c *gin.Context) {
	var req model.AnalyticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Ngày không hợp lệ, định dạng YYYY-MM-DD")
		return
	}

	result, err := h.chatService.Analytics(c.Request.Context(), req.From, req.To)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// =====================================================
// HELPER FUNCTIONS
// =====================================================

func getActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Vui lòng đăng nhập")
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, Role: middleware.GetRole(c)}, true
}

func parseConversationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Mã cuộc trò chuyện không hợp lệ")
		return uuid.Nil, false
	}
	return id, true
}

func actorAndConversation(c *gin.Context) (service.Actor, uuid.UUID, bool) {
	actor, ok := getActor(c)
	if !ok {
		return actor, uuid.Nil, false
	}
	id, ok := parseConversationID(c)
	if !ok {
		return actor, uuid.Nil, false
	}
	return actor, id, true
}

func bindPage(c *gin.Context) (int, int) {
	var p model.PageRequest
	_ = c.ShouldBindQuery(&p)
	return p.Normalize()
}

func (h *ChatHandler) handleServiceError(c *gin.Context, err error) {
	var chatErr *model.ChatError
	if errors.As(err, &chatErr) {
		response.ErrorResponse(c, chatErr.HTTPStatus, chatErr.Code, chatErr.Message)
		return
	}

	var verr validation.Errors
	if errors.As(err, &verr) {
		response.ValidationError(c, verr)
		return
	}

	if errors.Is(err, model.ErrConversationNotFound) {
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeConversationNotFound, "Không tìm thấy cuộc trò chuyện")
		return
	}

	logger.Error("chat handler error", err)
	response.InternalServerError(c, "Đã có lỗi xảy ra, vui lòng thử lại")
}
