package model

import "errors"

var (
	ErrProductNotFound  = errors.New("không tìm thấy sản phẩm")
	ErrProductInactive  = errors.New("sản phẩm đã ngừng kinh doanh")
	ErrCategoryNotFound = errors.New("không tìm thấy danh mục")
	ErrDuplicateSlug    = errors.New("slug sản phẩm đã tồn tại")
)
