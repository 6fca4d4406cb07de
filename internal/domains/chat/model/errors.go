package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrStateConflict        = errors.New("conversation state changed")
)

const (
	ErrCodeConversationNotFound = "CHAT_NOT_FOUND"
	ErrCodeForbidden            = "CHAT_FORBIDDEN"
	ErrCodeClosed               = "CHAT_CLOSED"
	ErrCodeAlreadyOpen          = "CHAT_ALREADY_OPEN"
	ErrCodeAlreadyClosed        = "CHAT_ALREADY_CLOSED"
	ErrCodeInvalidStaff         = "CHAT_INVALID_STAFF"
	ErrCodeSameStaff            = "CHAT_SAME_STAFF"
	ErrCodeInvalidTag           = "CHAT_INVALID_TAG"
	ErrCodeInvalidRange         = "CHAT_INVALID_RANGE"
)

// ChatError - lỗi nghiệp vụ chat, handler trả thẳng HTTPStatus
type ChatError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ChatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

func NewChatError(status int, code, message string) *ChatError {
	return &ChatError{Code: code, Message: message, HTTPStatus: status}
}

func NewNotFoundError() *ChatError {
	return &ChatError{
		Code:       ErrCodeConversationNotFound,
		Message:    "Không tìm thấy cuộc trò chuyện",
		HTTPStatus: http.StatusNotFound,
		Err:        ErrConversationNotFound,
	}
}

func NewForbiddenError() *ChatError {
	return NewChatError(http.StatusForbidden, ErrCodeForbidden, "Bạn không có quyền truy cập cuộc trò chuyện này")
}
