package address

import (
	"errors"
	"fmt"
	"net/http"
)

// AddressError định nghĩa base error cho address domain
type AddressError struct {
	Code    string
	Message string
	Err     error
}

func (e *AddressError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AddressError) Unwrap() error {
	return e.Err
}

var ErrWardNotFound = &AddressError{
	Code:    "WARD_NOT_FOUND",
	Message: "Không tìm thấy phường/xã",
}

var ErrInvalidWardCode = &AddressError{
	Code:    "INVALID_WARD_CODE",
	Message: "Mã phường/xã không hợp lệ",
}

func NewQueryError(err error) *AddressError {
	return &AddressError{
		Code:    "WARD_QUERY_FAILED",
		Message: "Không thể truy vấn danh sách phường/xã",
		Err:     err,
	}
}

// GetErrorResponse map AddressError sang HTTP status
func GetErrorResponse(err error) (int, string, string) {
	var addrErr *AddressError
	if !errors.As(err, &addrErr) {
		return http.StatusInternalServerError, "Đã có lỗi xảy ra", "INTERNAL_SERVER_ERROR"
	}
	switch addrErr.Code {
	case ErrWardNotFound.Code:
		return http.StatusNotFound, addrErr.Message, addrErr.Code
	case ErrInvalidWardCode.Code:
		return http.StatusBadRequest, addrErr.Message, addrErr.Code
	default:
		return http.StatusInternalServerError, addrErr.Message, addrErr.Code
	}
}
