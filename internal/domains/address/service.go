package address

import "context"

type ServiceInterface interface {
	ListWards(ctx context.Context, search string) ([]Ward, error)
	GetWard(ctx context.Context, code string) (*Ward, error)

	// ResolveWardCodes đổi danh sách tên phường sang tập mã phường
	ResolveWardCodes(ctx context.Context, names []string) (map[string]struct{}, error)
}
