package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/model"
)

// MessageEffects - cập nhật hội thoại đi kèm một tin nhắn mới
type MessageEffects struct {
	IncUnreadCustomer bool
	IncUnreadStaff    bool
	// gán staff nếu hội thoại chưa có người phụ trách
	ClaimStaff *uuid.UUID
	// set first_response_at nếu đang NULL
	FirstResponse bool
}

type RepositoryInterface interface {
	// ---- CONVERSATIONS ----

	// CreateConversation insert hội thoại + tin nhắn đầu tiên trong 1 transaction
	CreateConversation(ctx context.Context, conv *model.Conversation, first *model.Message) error
	// GetConversation returns nil if not exists
	GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	FindOpenByCustomer(ctx context.Context, customerID uuid.UUID) (*model.Conversation, error)
	ListConversations(ctx context.Context, filter model.ConversationFilter) ([]model.Conversation, int, error)

	// ---- MESSAGES ----

	AddMessage(ctx context.Context, msg *model.Message, effects MessageEffects) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, page, limit int) ([]model.Message, int, error)
	// MarkRead reset unread counter của phía reader
	MarkRead(ctx context.Context, conversationID uuid.UUID, reader model.SenderRole) error

	// ---- STAFF ACTIONS ----

	// AssignStaff chỉ gán khi staff_id hiện tại = expected (nil = chưa gán)
	AssignStaff(ctx context.Context, conversationID uuid.UUID, expected *uuid.UUID, staffID uuid.UUID) error
	Transfer(ctx context.Context, transfer *model.Transfer, notice *model.Message) error
	ListTransfers(ctx context.Context, conversationID uuid.UUID) ([]model.Transfer, error)
	AddTag(ctx context.Context, conversationID uuid.UUID, tag string) ([]string, error)
	RemoveTag(ctx context.Context, conversationID uuid.UUID, tag string) ([]string, error)
	// SetStatus đổi open <-> closed, ghi thêm tin nhắn hệ thống
	SetStatus(ctx context.Context, conversationID uuid.UUID, from, to model.ConversationStatus, notice *model.Message) error

	// ---- COUNTERS ----

	UnreadForCustomer(ctx context.Context, customerID uuid.UUID) (int, error)
	// UnreadForStaff gồm hội thoại của staff và hội thoại chưa ai nhận
	UnreadForStaff(ctx context.Context, staffID uuid.UUID) (int, error)
	GetUserRole(ctx context.Context, userID uuid.UUID) (string, error)

	// ---- ANALYTICS ----

	CountByStatus(ctx context.Context, from, to time.Time) (model.StatusCounts, error)
	CountMessages(ctx context.Context, from, to time.Time) (int, error)
	AvgFirstResponseSeconds(ctx context.Context, from, to time.Time) (float64, error)
	StaffHandled(ctx context.Context, from, to time.Time) ([]model.StaffStat, error)
	TagDistribution(ctx context.Context, from, to time.Time) (map[string]int, error)
}
