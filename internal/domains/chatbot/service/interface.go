package service

import (
	"context"

	"github.com/google/uuid"

	cartModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chatbot/model"
	orderModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	productModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
)

type ServiceInterface interface {
	// Chat - userID nil với khách chưa đăng nhập, khi đó history theo session_id
	Chat(ctx context.Context, userID *uuid.UUID, req model.ChatRequest) (*model.ChatResponse, error)
	History(ctx context.Context, userID *uuid.UUID, sessionID string) ([]model.Turn, error)
	ClearHistory(ctx context.Context, userID *uuid.UUID, sessionID string) error
}

// =====================================================
// TOOL DEPENDENCIES
// =====================================================

type ProductSearcher interface {
	ListProducts(ctx context.Context, req productModel.ListProductsRequest) ([]productModel.Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*productModel.Product, error)
}

type CartManager interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*cartModel.CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, req cartModel.AddItemRequest) (*cartModel.CartView, error)
}

type OrderReader interface {
	ListMyOrders(ctx context.Context, userID uuid.UUID, req orderModel.ListOrdersRequest) ([]orderModel.Order, int, error)
}

type PromotionLister interface {
	ListAvailableCodes(ctx context.Context) ([]promotionModel.AvailableCode, error)
}
