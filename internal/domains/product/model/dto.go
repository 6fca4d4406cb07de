package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListProductsRequest bind từ query string
type ListProductsRequest struct {
	CategoryID string  `form:"category_id"`
	MinPrice   *int64  `form:"min_price"`
	MaxPrice   *int64  `form:"max_price"`
	Color      string  `form:"color"`
	MinRating  *string `form:"min_rating"`
	Search     string  `form:"q"`
	Sort       string  `form:"sort"`
	Page       int     `form:"page"`
	Limit      int     `form:"limit"`
}

func (r ListProductsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CategoryID, validation.By(optionalUUID)),
		validation.Field(&r.Sort, validation.In(SortNewest, SortPriceAsc, SortPriceDesc, SortRating, SortBestSelling).
			Error("Kiểu sắp xếp không hợp lệ")),
		validation.Field(&r.MinPrice, validation.Min(int64(0)).Error("Giá tối thiểu không được âm")),
		validation.Field(&r.MaxPrice, validation.Min(int64(0)).Error("Giá tối đa không được âm")),
		validation.Field(&r.Limit, validation.Max(100).Error("Tối đa 100 sản phẩm mỗi trang")),
	)
}

// ToFilter chuyển request đã validate thành filter cho repository
func (r ListProductsRequest) ToFilter() ProductFilter {
	f := ProductFilter{
		Color:  r.Color,
		Search: r.Search,
		Sort:   r.Sort,
		Page:   r.Page,
		Limit:  r.Limit,
	}
	if f.Sort == "" {
		f.Sort = SortNewest
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if id, err := uuid.Parse(r.CategoryID); err == nil {
		f.CategoryID = &id
	}
	if r.MinPrice != nil {
		v := decimal.NewFromInt(*r.MinPrice)
		f.MinPrice = &v
	}
	if r.MaxPrice != nil {
		v := decimal.NewFromInt(*r.MaxPrice)
		f.MaxPrice = &v
	}
	if r.MinRating != nil {
		if v, err := decimal.NewFromString(*r.MinRating); err == nil {
			f.MinRating = &v
		}
	}
	return f
}

type CreateProductRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Price       int64      `json:"price"`
	Stock       int        `json:"stock"`
	Color       string     `json:"color"`
	ImageURL    string     `json:"image_url"`
}

func (r CreateProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("Tên sản phẩm là bắt buộc"), validation.Length(2, 200)),
		validation.Field(&r.Price, validation.Required.Error("Giá là bắt buộc"), validation.Min(int64(1000)).Error("Giá tối thiểu 1.000đ")),
		validation.Field(&r.Stock, validation.Min(0).Error("Tồn kho không được âm")),
	)
}

type UpdateStockRequest struct {
	Stock int `json:"stock"`
}

func (r UpdateStockRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Stock, validation.Min(0).Error("Tồn kho không được âm")),
	)
}

func optionalUUID(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_invalid_uuid", "ID không hợp lệ")
	}
	return nil
}
