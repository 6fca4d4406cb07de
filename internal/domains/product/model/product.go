package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type Product struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	Color        string          `json:"color"`
	ImageURL     string          `json:"image_url"`
	Rating       decimal.Decimal `json:"rating"`
	SoldCount    int             `json:"sold_count"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Tính từ ProductDiscount đang chạy, không lưu DB
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
}

// ProductDiscount: giảm giá thường trực theo sản phẩm hoặc theo danh mục,
// độc lập với voucher
type ProductDiscount struct {
	ID          uuid.UUID        `json:"id"`
	ProductID   *uuid.UUID       `json:"product_id,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	IsPercent   bool             `json:"is_percent"`
	Value       decimal.Decimal  `json:"value"`
	MaxDiscount *decimal.Decimal `json:"max_discount,omitempty"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	IsActive    bool             `json:"is_active"`
}

// Sort options cho catalog
const (
	SortNewest      = "newest"
	SortPriceAsc    = "price_asc"
	SortPriceDesc   = "price_desc"
	SortRating      = "rating"
	SortBestSelling = "best_selling"
)

type ProductFilter struct {
	CategoryID *uuid.UUID
	MinPrice   *decimal.Decimal // so với effective price
	MaxPrice   *decimal.Decimal
	Color      string
	MinRating  *decimal.Decimal
	Search     string
	Sort       string
	Page       int
	Limit      int
}

func (f ProductFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
