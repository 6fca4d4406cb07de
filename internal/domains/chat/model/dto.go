package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	MaxMessageLength = 2000
	MaxTagLength     = 30
	MaxTags          = 10
)

type StartConversationRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (r StartConversationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Subject, validation.Length(0, 200).Error("Tiêu đề tối đa 200 ký tự")),
		validation.Field(&r.Message,
			validation.Required.Error("Vui lòng nhập nội dung"),
			validation.RuneLength(1, MaxMessageLength).Error("Tin nhắn tối đa 2000 ký tự"),
		),
	)
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

func (r SendMessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content,
			validation.Required.Error("Vui lòng nhập nội dung"),
			validation.RuneLength(1, MaxMessageLength).Error("Tin nhắn tối đa 2000 ký tự"),
		),
	)
}

type TransferRequest struct {
	ToStaffID uuid.UUID `json:"to_staff_id"`
	Note      string    `json:"note"`
}

func (r TransferRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ToStaffID, validation.By(func(interface{}) error {
			if r.ToStaffID == uuid.Nil {
				return validation.NewError("validation_to_staff_required", "Vui lòng chọn nhân viên nhận")
			}
			return nil
		})),
		validation.Field(&r.Note, validation.Length(0, 500)),
	)
}

type TagRequest struct {
	Tag string `json:"tag"`
}

func (r TagRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Tag,
			validation.Required.Error("Tag không được để trống"),
			validation.RuneLength(1, MaxTagLength).Error("Tag tối đa 30 ký tự"),
		),
	)
}

// ListConversationsRequest - query string của staff
type ListConversationsRequest struct {
	Status     string `form:"status"`
	Tag        string `form:"tag"`
	Assignee   string `form:"assignee"` // "me" | "unassigned" | <uuid>
	UnreadOnly bool   `form:"unread_only"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

func (r ListConversationsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.In(string(StatusOpen), string(StatusClosed)).Error("Trạng thái không hợp lệ")),
		validation.Field(&r.Assignee, validation.By(func(interface{}) error {
			switch r.Assignee {
			case "", "me", "unassigned":
				return nil
			}
			if _, err := uuid.Parse(r.Assignee); err != nil {
				return validation.NewError("validation_assignee_invalid", "assignee không hợp lệ")
			}
			return nil
		})),
		validation.Field(&r.Page, validation.Min(0)),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(100)),
	)
}

// ToFilter - staffID là người đang gọi (assignee=me)
func (r ListConversationsRequest) ToFilter(staffID uuid.UUID) ConversationFilter {
	f := ConversationFilter{
		Status:     ConversationStatus(r.Status),
		Tag:        NormalizeTag(r.Tag),
		UnreadOnly: r.UnreadOnly,
	}
	switch r.Assignee {
	case "":
	case "me":
		f.StaffID = &staffID
	case "unassigned":
		f.Unassigned = true
	default:
		if id, err := uuid.Parse(r.Assignee); err == nil {
			f.StaffID = &id
		}
	}
	f.Page, f.Limit = PageRequest{Page: r.Page, Limit: r.Limit}.Normalize()
	return f
}

type PageRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize đặt mặc định page=1, limit=20
func (p PageRequest) Normalize() (int, int) {
	page, limit := p.Page, p.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

type AnalyticsRequest struct {
	From time.Time `form:"from" time_format:"2006-01-02"`
	To   time.Time `form:"to" time_format:"2006-01-02"`
}

type UnreadCountResponse struct {
	Unread int `json:"unread"`
}
