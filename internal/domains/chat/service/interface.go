package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/model"
)

// Actor - người gọi thao tác (lấy từ JWT)
type Actor struct {
	UserID uuid.UUID
	Role   string
}

type ServiceInterface interface {
	// Customer
	StartConversation(ctx context.Context, customerID uuid.UUID, req model.StartConversationRequest) (*model.Conversation, error)
	ListMyConversations(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.Conversation, int, error)

	// Chung cho customer + staff
	GetConversation(ctx context.Context, actor Actor, conversationID uuid.UUID) (*model.Conversation, error)
	SendMessage(ctx context.Context, actor Actor, conversationID uuid.UUID, req model.SendMessageRequest) (*model.Message, error)
	ListMessages(ctx context.Context, actor Actor, conversationID uuid.UUID, page, limit int) ([]model.Message, int, error)
	MarkRead(ctx context.Context, actor Actor, conversationID uuid.UUID) error
	UnreadCount(ctx context.Context, actor Actor) (int, error)

	// Staff
	ListConversations(ctx context.Context, filter model.ConversationFilter) ([]model.Conversation, int, error)
	AssignToSelf(ctx context.Context, staffID, conversationID uuid.UUID) (*model.Conversation, error)
	Transfer(ctx context.Context, staffID, conversationID uuid.UUID, req model.TransferRequest) (*model.Conversation, error)
	ListTransfers(ctx context.Context, conversationID uuid.UUID) ([]model.Transfer, error)
	AddTag(ctx context.Context, conversationID uuid.UUID, tag string) ([]string, error)
	RemoveTag(ctx context.Context, conversationID uuid.UUID, tag string) ([]string, error)
	Close(ctx context.Context, actor Actor, conversationID uuid.UUID) (*model.Conversation, error)
	Reopen(ctx context.Context, actor Actor, conversationID uuid.UUID) (*model.Conversation, error)
	Analytics(ctx context.Context, from, to time.Time) (*model.Analytics, error)
}

// Notifier đẩy event realtime tới user (websocket hub)
type Notifier interface {
	SendToUser(userID uuid.UUID, eventType string, data interface{})
}
