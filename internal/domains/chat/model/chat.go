package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ConversationStatus string

const (
	StatusOpen   ConversationStatus = "open"
	StatusClosed ConversationStatus = "closed"
)

type SenderRole string

const (
	SenderCustomer SenderRole = "customer"
	SenderStaff    SenderRole = "staff"
	SenderSystem   SenderRole = "system"
)

type Conversation struct {
	ID              uuid.UUID          `json:"id"`
	CustomerID      uuid.UUID          `json:"customer_id"`
	CustomerName    string             `json:"customer_name,omitempty"`
	StaffID         *uuid.UUID         `json:"staff_id,omitempty"`
	StaffName       *string            `json:"staff_name,omitempty"`
	Status          ConversationStatus `json:"status"`
	Subject         string             `json:"subject"`
	Tags            []string           `json:"tags"`
	UnreadCustomer  int                `json:"unread_customer"`
	UnreadStaff     int                `json:"unread_staff"`
	LastMessage     string             `json:"last_message"`
	LastMessageAt   *time.Time         `json:"last_message_at,omitempty"`
	FirstResponseAt *time.Time         `json:"first_response_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	ClosedAt        *time.Time         `json:"closed_at,omitempty"`
}

func (c *Conversation) IsOpen() bool {
	return c.Status == StatusOpen
}

type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       *uuid.UUID `json:"sender_id,omitempty"`
	SenderRole     SenderRole `json:"sender_role"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Transfer struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	FromStaffID    *uuid.UUID `json:"from_staff_id,omitempty"`
	ToStaffID      uuid.UUID  `json:"to_staff_id"`
	Note           string     `json:"note"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ConversationFilter - staff lọc danh sách hội thoại
type ConversationFilter struct {
	Status     ConversationStatus
	Tag        string
	StaffID    *uuid.UUID
	Unassigned bool
	UnreadOnly bool
	CustomerID *uuid.UUID
	Page       int
	Limit      int
}

// Analytics - báo cáo hỗ trợ khách hàng trong khoảng thời gian
type Analytics struct {
	From                    time.Time      `json:"from"`
	To                      time.Time      `json:"to"`
	TotalConversations      int            `json:"total_conversations"`
	OpenConversations       int            `json:"open_conversations"`
	ClosedConversations     int            `json:"closed_conversations"`
	TotalMessages           int            `json:"total_messages"`
	AvgFirstResponseSeconds float64        `json:"avg_first_response_seconds"`
	StaffHandled            []StaffStat    `json:"staff_handled"`
	TagDistribution         map[string]int `json:"tag_distribution"`
}

type StaffStat struct {
	StaffID       uuid.UUID `json:"staff_id"`
	StaffName     string    `json:"staff_name"`
	Conversations int       `json:"conversations"`
	Messages      int       `json:"messages"`
}

// StatusCounts - kết quả query đếm theo trạng thái
type StatusCounts struct {
	Total  int
	Open   int
	Closed int
}

// NormalizeTag: trim + lower-case, "" nếu không hợp lệ
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Preview cắt nội dung tin nhắn cho last_message
func Preview(content string, max int) string {
	r := []rune(strings.TrimSpace(content))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max]) + "…"
}
