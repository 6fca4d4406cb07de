package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRateLimited = errors.New("chatbot rate limit exceeded")
	ErrUnavailable = errors.New("chatbot unavailable")
)

const (
	ErrCodeRateLimited = "BOT_RATE_LIMITED"
	ErrCodeUnavailable = "BOT_UNAVAILABLE"
	ErrCodeInvalid     = "BOT_INVALID_REQUEST"
)

type ChatbotError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ChatbotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ChatbotError) Unwrap() error {
	return e.Err
}

func NewRateLimitError(limit int) *ChatbotError {
	return &ChatbotError{
		Code:       ErrCodeRateLimited,
		Message:    fmt.Sprintf("Bạn đã gửi quá %d tin nhắn mỗi phút, vui lòng thử lại sau", limit),
		HTTPStatus: http.StatusTooManyRequests,
		Err:        ErrRateLimited,
	}
}

func NewUnavailableError(err error) *ChatbotError {
	return &ChatbotError{
		Code:       ErrCodeUnavailable,
		Message:    "Trợ lý ảo đang bận, bạn vui lòng thử lại sau hoặc chat với nhân viên hỗ trợ",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        errors.Join(ErrUnavailable, err),
	}
}
