package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/repository"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/metrics"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/jwt"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

type ChatService struct {
	repo     repository.RepositoryInterface
	notifier Notifier
	now      func() time.Time
}

var _ ServiceInterface = (*ChatService)(nil)

func NewChatService(repo repository.RepositoryInterface, notifier Notifier) *ChatService {
	return &ChatService{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

func isStaff(role string) bool {
	return role == jwt.RoleStaff || role == jwt.RoleAdmin
}

// load + kiểm tra quyền: customer chỉ thấy hội thoại của mình
func (s *ChatService) load(ctx context.Context, actor Actor, conversationID uuid.UUID) (*model.Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, model.NewNotFoundError()
	}
	if !isStaff(actor.Role) && conv.CustomerID != actor.UserID {
		return nil, model.NewForbiddenError()
	}
	return conv, nil
}

func mapConflict(err error, msg string) error {
	if errors.Is(err, model.ErrStateConflict) {
		return &model.ChatError{
			Code:       model.ErrCodeClosed,
			Message:    msg,
			HTTPStatus: http.StatusConflict,
			Err:        err,
		}
	}
	return err
}

// =====================================================
// CUSTOMER
// =====================================================

// StartConversation - khách đã có hội thoại đang mở thì gửi tiếp vào đó
func (s *ChatService) StartConversation(ctx context.Context, customerID uuid.UUID, req model.StartConversationRequest) (*model.Conversation, error) {
	existing, err := s.repo.FindOpenByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		actor := Actor{UserID: customerID, Role: jwt.RoleCustomer}
		if _, err := s.SendMessage(ctx, actor, existing.ID, model.SendMessageRequest{Content: req.Message}); err != nil {
			return nil, err
		}
		return s.repo.GetConversation(ctx, existing.ID)
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = model.Preview(req.Message, 60)
	}

	conv := &model.Conversation{
		ID:         uuid.New(),
		CustomerID: customerID,
		Subject:    subject,
	}
	first := &model.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       &customerID,
		SenderRole:     model.SenderCustomer,
		Content:        strings.TrimSpace(req.Message),
	}
	if err := s.repo.CreateConversation(ctx, conv, first); err != nil {
		return nil, err
	}

	metrics.ChatMessagesTotal.WithLabelValues(string(model.SenderCustomer)).Inc()
	logger.Info("Support conversation started", map[string]interface{}{
		"conversation_id": conv.ID,
		"customer_id":     customerID,
	})
	return conv, nil
}

func (s *ChatService) ListMyConversations(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.Conversation, int, error) {
	page, limit = model.PageRequest{Page: page, Limit: limit}.Normalize()
	return s.repo.ListConversations(ctx, model.ConversationFilter{
		CustomerID: &customerID,
		Page:       page,
		Limit:      limit,
	})
}

// =====================================================
// MESSAGES
// =====================================================

func (s *ChatService) GetConversation(ctx context.Context, actor Actor, conversationID uuid.UUID) (*model.Conversation, error) {
	return s.load(ctx, actor, conversationID)
}

func (s *ChatService) SendMessage(ctx context.Context, actor Actor, conversationID uuid.UUID, req model.SendMessageRequest) (*model.Message, error) {
	conv, err := s.load(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsOpen() {
		return nil, model.NewChatError(http.StatusConflict, model.ErrCodeClosed, "Cuộc trò chuyện đã đóng")
	}

	senderID := actor.UserID
	msg := &model.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       &senderID,
		Content:        strings.TrimSpace(req.Content),
	}

	var effects repository.MessageEffects
	if isStaff(actor.Role) {
		msg.SenderRole = model.SenderStaff
		effects.IncUnreadCustomer = true
		effects.FirstResponse = true
		// staff trả lời đầu tiên sẽ nhận luôn hội thoại
		if conv.StaffID == nil {
			effects.ClaimStaff = &senderID
		}
	} else {
		msg.SenderRole = model.SenderCustomer
		effects.IncUnreadStaff = true
	}

	if err := s.repo.AddMessage(ctx, msg, effects); err != nil {
		return nil, mapConflict(err, "Cuộc trò chuyện đã đóng")
	}
	metrics.ChatMessagesTotal.WithLabelValues(string(msg.SenderRole)).Inc()

	if effects.ClaimStaff != nil {
		conv.StaffID = effects.ClaimStaff
	}
	s.push(conv, actor.UserID, shared.EventChatMessage, msg)
	return msg, nil
}

func (s *ChatService) ListMessages(ctx context.Context, actor Actor, conversationID uuid.UUID, page, limit int) ([]model.Message, int, error) {
	if _, err := s.load(ctx, actor, conversationID); err != nil {
		return nil, 0, err
	}
	page, limit = model.PageRequest{Page: page, Limit: limit}.Normalize()
	return s.repo.ListMessages(ctx, conversationID, page, limit)
}

func (s *ChatService) MarkRead(ctx context.Context, actor Actor, conversationID uuid.UUID) error {
	if _, err := s.load(ctx, actor, conversationID); err != nil {
		return err
	}
	reader := model.SenderCustomer
	if isStaff(actor.Role) {
		reader = model.SenderStaff
	}
	return s.repo.MarkRead(ctx, conversationID, reader)
}

func (s *ChatService) UnreadCount(ctx context.Context, actor Actor) (int, error) {
	if isStaff(actor.Role) {
		return s.repo.UnreadForStaff(ctx, actor.UserID)
	}
	return s.repo.UnreadForCustomer(ctx, actor.UserID)
}

// =====================================================
// STAFF
// =====================================================

func (s *ChatService) ListConversations(ctx context.Context, filter model.ConversationFilter) ([]model.Conversation, int, error) {
	filter.Page, filter.Limit = model.PageRequest{Page: filter.Page, Limit: filter.Limit}.Normalize()
	return s.repo.ListConversations(ctx, filter)
}

func (s *ChatService) AssignToSelf(ctx context.Context, staffID, conversationID uuid.UUID) (*model.Conversation, error) {
	conv, err := s.load(ctx, Actor{UserID: staffID, Role: jwt.RoleStaff}, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsOpen() {
		return nil, model.NewChatError(http.StatusConflict, model.ErrCodeClosed, "Cuộc trò chuyện đã đóng")
	}
	if conv.StaffID != nil {
		if *conv.StaffID == staffID {
			return conv, nil
		}
		return nil, model.NewChatError(http.StatusConflict, model.ErrCodeSameStaff, "Cuộc trò chuyện đã có nhân viên phụ trách, hãy dùng chức năng chuyển")
	}

	if err := s.repo.AssignStaff(ctx, conversationID, nil, staffID); err != nil {
		if errors.Is(err, model.ErrStateConflict) {
			return nil, &model.ChatError{
				Code:       model.ErrCodeSameStaff,
				Message:    "Cuộc trò chuyện vừa được nhân viên khác nhận",
				HTTPStatus: http.StatusConflict,
				Err:        err,
			}
		}
		return nil, err
	}
	return s.repo.GetConversation(ctx, conversationID)
}

// Transfer: ghi transfer + tin nhắn hệ thống, báo cho staff nhận và khách
func (s *ChatService) Transfer(ctx context.Context, staffID, conversationID uuid.UUID, req model.TransferRequest) (*model.Conversation, error) {
	conv, err := s.load(ctx, Actor{UserID: staffID, Role: jwt.RoleStaff}, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsOpen() {
		return nil, model.NewChatError(http.StatusConflict, model.ErrCodeClosed, "Cuộc trò chuyện đã đóng")
	}
	if conv.StaffID != nil && *conv.StaffID == req.ToStaffID {
		return nil, model.NewChatError(http.StatusBadRequest, model.ErrCodeSameStaff, "Nhân viên này đang phụ trách cuộc trò chuyện")
	}

	role, err := s.repo.GetUserRole(ctx, req.ToStaffID)
	if err != nil {
		return nil, err
	}
	if !isStaff(role) {
		return nil, model.NewChatError(http.StatusBadRequest, model.ErrCodeInvalidStaff, "Người nhận không phải nhân viên hỗ trợ")
	}

	note := strings.TrimSpace(req.Note)
	transfer := &model.Transfer{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		FromStaffID:    conv.StaffID,
		ToStaffID:      req.ToStaffID,
		Note:           note,
	}
	content := "Cuộc trò chuyện đã được chuyển cho nhân viên khác"
	if note != "" {
		content = fmt.Sprintf("%s. Ghi chú: %s", content, note)
	}
	notice := systemMessage(conv.ID, content)

	if err := s.repo.Transfer(ctx, transfer, notice); err != nil {
		return nil, mapConflict(err, "Cuộc trò chuyện vừa được cập nhật, vui lòng tải lại")
	}

	logger.Info("Support conversation transferred", map[string]interface{}{
		"conversation_id": conv.ID,
		"by":              staffID,
		"to":              req.ToStaffID,
	})

	payload := map[string]interface{}{
		"conversation_id": conv.ID,
		"from_staff_id":   transfer.FromStaffID,
		"to_staff_id":     transfer.ToStaffID,
		"note":            note,
	}
	if s.notifier != nil {
		s.notifier.SendToUser(req.ToStaffID, shared.EventChatTransferred, payload)
		s.notifier.SendToUser(conv.CustomerID, shared.EventChatMessage, notice)
	}
	return s.repo.GetConversation(ctx, conversationID)
}

func (s *ChatService) ListTransfers(ctx context.Context, conversationID uuid.UUID) ([]model.Transfer, error) {
	return s.repo.ListTransfers(ctx, conversationID)
}

func normalizeTag(tag string) (string, error) {
	t := model.NormalizeTag(tag)
	if t == "" || len([]rune(t)) > model.MaxTagLength {
		return "", model.NewChatError(http.StatusBadRequest, model.ErrCodeInvalidTag, "Tag không hợp lệ")
	}
	return t, nil
}

func (s *ChatService) AddTag(ctx context.Context, conversationID uuid.UUID, tag string) ([]string, error) {
	t, err := normalizeTag(tag)
	if err != nil {
		return nil, err
	}
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, model.NewNotFoundError()
	}
	if len(conv.Tags) >= model.MaxTags && !containsTag(conv.Tags, t) {
		return nil, model.NewChatError(http.StatusBadRequest, model.ErrCodeInvalidTag,
			fmt.Sprintf("Tối đa %d tag cho mỗi cuộc trò chuyện", model.MaxTags))
	}

	tags, err := s.repo.AddTag(ctx, conversationID, t)
	if errors.Is(err, model.ErrConversationNotFound) {
		return nil, model.NewNotFoundError()
	}
	return tags, err
}

func (s *ChatService) RemoveTag(ctx context.Context, conversationID uuid.UUID, tag string) ([]string, error) {
	t, err := normalizeTag(tag)
	if err != nil {
		return nil, err
	}
	tags, err := s.repo.RemoveTag(ctx, conversationID, t)
	if errors.Is(err, model.ErrConversationNotFound) {
		return nil, model.NewNotFoundError()
	}
	return tags, err
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// =====================================================
// STATUS
// =====================================================

func (s *ChatService) Close(ctx context.Context, actor Actor, conversationID uuid.UUID) (*model.Conversation, error) {
	conv, err := s.load(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsOpen() {
		return nil, model.NewChatError(http.StatusConflict, model.ErrCodeAlreadyClosed, "Cuộc trò chuyện đã đóng")
	}

	notice := systemMessage(conv.ID, "Cuộc trò chuyện đã kết thúc")
	if err := s.repo.SetStatus(ctx, conv.ID, model.StatusOpen, model.StatusClosed, notice); err != nil {
		return nil, mapConflict(err, "Cuộc trò chuyện đã đóng")
	}

	s.push(conv, actor.UserID, shared.EventChatClosed, map[string]interface{}{
		"conversation_id": conv.ID,
		"closed_by":       actor.UserID,
	})
	return s.repo.GetConversation(ctx, conversationID)
}

func (s *ChatService) Reopen(ctx context.Context, actor Actor, conversationID uuid.UUID) (*model.Conversation, error) {
	conv, err := s.load(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.IsOpen() {
		return nil, model.NewChatError(http.StatusConflict, model.ErrCodeAlreadyOpen, "Cuộc trò chuyện đang mở")
	}
	// khách chỉ mở lại nếu chưa có hội thoại khác đang mở
	if !isStaff(actor.Role) {
		other, err := s.repo.FindOpenByCustomer(ctx, conv.CustomerID)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, model.NewChatError(http.StatusConflict, model.ErrCodeAlreadyOpen, "Bạn đang có cuộc trò chuyện khác đang mở")
		}
	}

	notice := systemMessage(conv.ID, "Cuộc trò chuyện đã được mở lại")
	if err := s.repo.SetStatus(ctx, conv.ID, model.StatusClosed, model.StatusOpen, notice); err != nil {
		return nil, mapConflict(err, "Cuộc trò chuyện vừa được cập nhật, vui lòng tải lại")
	}

	s.push(conv, actor.UserID, shared.EventChatMessage, notice)
	return s.repo.GetConversation(ctx, conversationID)
}

// =====================================================
// HELPERS
// =====================================================

func systemMessage(conversationID uuid.UUID, content string) *model.Message {
	return &model.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderRole:     model.SenderSystem,
		Content:        content,
	}
}

// push gửi event cho các bên còn lại trong hội thoại
func (s *ChatService) push(conv *model.Conversation, sender uuid.UUID, eventType string, data interface{}) {
	if s.notifier == nil {
		return
	}
	if conv.CustomerID != sender {
		s.notifier.SendToUser(conv.CustomerID, eventType, data)
	}
	if conv.StaffID != nil && *conv.StaffID != sender {
		s.notifier.SendToUser(*conv.StaffID, eventType, data)
	}
}
