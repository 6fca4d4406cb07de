package address

import "context"

// Repository - truy vấn bảng wards
type Repository interface {
	List(ctx context.Context, search string, limit int) ([]Ward, error)
	GetByCode(ctx context.Context, code string) (*Ward, error)

	// FindCodesByName trả về mã các phường có tên chứa name (không phân biệt hoa thường)
	FindCodesByName(ctx context.Context, name string) ([]string, error)
}
