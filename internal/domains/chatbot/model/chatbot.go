package model

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	MaxMessageLength = 1000
	// số lượt hỏi-đáp giữ lại trong history
	MaxHistoryTurns = 10
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// Turn - một tin nhắn trong history lưu ở Redis
type Turn struct {
	Role string    `json:"role"` // user | model
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (r ChatRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SessionID, validation.Match(sessionIDPattern).Error("session_id không hợp lệ")),
		validation.Field(&r.Message,
			validation.Required.Error("Vui lòng nhập câu hỏi"),
			validation.RuneLength(1, MaxMessageLength).Error("Câu hỏi tối đa 1000 ký tự"),
		),
	)
}

type ChatResponse struct {
	SessionID string   `json:"session_id"`
	Reply     string   `json:"reply"`
	ToolsUsed []string `json:"tools_used,omitempty"`
}

type HistoryRequest struct {
	SessionID string `form:"session_id"`
}

func (r HistoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SessionID, validation.Match(sessionIDPattern).Error("session_id không hợp lệ")),
	)
}
