package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"google.golang.org/genai"

	cartModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
	orderModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	productModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

const (
	ToolSearchProducts = "search_products"
	ToolGetProduct     = "get_product"
	ToolGetCart        = "get_cart"
	ToolAddToCart      = "add_to_cart"
	ToolGetOrderStatus = "get_order_status"
	ToolListPromotions = "list_promotions"

	maxSearchResults = 5
	loginRequiredMsg = "Khách chưa đăng nhập. Hãy mời khách đăng nhập để dùng chức năng này."
)

// Toolbox thực thi các function mà Gemini yêu cầu
type Toolbox struct {
	products   ProductSearcher
	carts      CartManager
	orders     OrderReader
	promotions PromotionLister
}

func NewToolbox(products ProductSearcher, carts CartManager, orders OrderReader, promotions PromotionLister) *Toolbox {
	return &Toolbox{
		products:   products,
		carts:      carts,
		orders:     orders,
		promotions: promotions,
	}
}

// Declarations - schema gửi kèm mỗi request generateContent
func (t *Toolbox) Declarations() []*genai.Tool {
	return []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{
		{
			Name:        ToolSearchProducts,
			Description: "Tìm hoa / sản phẩm đang bán theo từ khóa, màu sắc, khoảng giá (VND).",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"query":     {Type: genai.TypeString, Description: "Từ khóa, ví dụ: hoa hồng, bó hoa sinh nhật"},
					"color":     {Type: genai.TypeString, Description: "Màu chủ đạo, ví dụ: đỏ, trắng"},
					"min_price": {Type: genai.TypeInteger, Description: "Giá thấp nhất (VND)"},
					"max_price": {Type: genai.TypeInteger, Description: "Giá cao nhất (VND)"},
					"sort": {
						Type: genai.TypeString,
						Enum: []string{productModel.SortNewest, productModel.SortPriceAsc, productModel.SortPriceDesc, productModel.SortRating, productModel.SortBestSelling},
					},
				},
			},
		},
		{
			Name:        ToolGetProduct,
			Description: "Xem chi tiết một sản phẩm: giá sau giảm, tồn kho, mô tả.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"product_id": {Type: genai.TypeString}},
				Required:   []string{"product_id"},
			},
		},
		{
			Name:        ToolGetCart,
			Description: "Xem giỏ hàng hiện tại của khách (cần đăng nhập).",
		},
		{
			Name:        ToolAddToCart,
			Description: "Thêm sản phẩm vào giỏ hàng của khách (cần đăng nhập). Chỉ gọi khi khách đã đồng ý.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"product_id":    {Type: genai.TypeString},
					"quantity":      {Type: genai.TypeInteger, Description: "Mặc định 1"},
					"delivery_date": {Type: genai.TypeString, Description: "Ngày giao YYYY-MM-DD"},
				},
				Required: []string{"product_id"},
			},
		},
		{
			Name:        ToolGetOrderStatus,
			Description: "Tra cứu trạng thái đơn hàng của chính khách (cần đăng nhập). Bỏ trống order_code để xem các đơn gần nhất.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"order_code": {Type: genai.TypeString}},
			},
		},
		{
			Name:        ToolListPromotions,
			Description: "Liệt kê các mã khuyến mãi đang áp dụng.",
		},
	}}}
}

// Execute chạy tool; lỗi nghiệp vụ được trả về trong response để model diễn giải cho khách
func (t *Toolbox) Execute(ctx context.Context, userID *uuid.UUID, call *genai.FunctionCall) map[string]interface{} {
	var (
		result map[string]interface{}
		err    error
	)

	switch call.Name {
	case ToolSearchProducts:
		result, err = t.searchProducts(ctx, call.Args)
	case ToolGetProduct:
		result, err = t.getProduct(ctx, call.Args)
	case ToolGetCart:
		if userID == nil {
			return errorResult(loginRequiredMsg)
		}
		result, err = t.getCart(ctx, *userID)
	case ToolAddToCart:
		if userID == nil {
			return errorResult(loginRequiredMsg)
		}
		result, err = t.addToCart(ctx, *userID, call.Args)
	case ToolGetOrderStatus:
		if userID == nil {
			return errorResult(loginRequiredMsg)
		}
		result, err = t.getOrderStatus(ctx, *userID, call.Args)
	case ToolListPromotions:
		result, err = t.listPromotions(ctx)
	default:
		return errorResult(fmt.Sprintf("Không có chức năng %q", call.Name))
	}

	if err != nil {
		return errorResult(userMessage(call.Name, err))
	}
	return result
}

func errorResult(msg string) map[string]interface{} {
	return map[string]interface{}{"error": msg}
}

// userMessage - chỉ lộ message của lỗi nghiệp vụ, lỗi hệ thống thì log
func userMessage(tool string, err error) string {
	var cartErr *cartModel.CartError
	if errors.As(err, &cartErr) {
		return cartErr.Message
	}
	var orderErr *orderModel.OrderError
	if errors.As(err, &orderErr) {
		return orderErr.Message
	}
	var verr validation.Errors
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if errors.Is(err, productModel.ErrProductNotFound) || errors.Is(err, productModel.ErrProductInactive) || errors.Is(err, errBadArgument) {
		return err.Error()
	}

	logger.ErrorWithFields("chatbot tool failed", err, map[string]interface{}{"tool": tool})
	return "Hệ thống đang gặp sự cố, chưa lấy được dữ liệu"
}

var errBadArgument = errors.New("tham số không hợp lệ")

// =====================================================
// TOOLS
// =====================================================

func (t *Toolbox) searchProducts(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	req := productModel.ListProductsRequest{
		Search: argString(args, "query"),
		Color:  argString(args, "color"),
		Sort:   argString(args, "sort"),
		Page:   1,
		Limit:  maxSearchResults,
	}
	if v, ok := argInt(args, "min_price"); ok {
		p := int64(v)
		req.MinPrice = &p
	}
	if v, ok := argInt(args, "max_price"); ok {
		p := int64(v)
		req.MaxPrice = &p
	}
	if err := req.Validate(); err != nil {
		req.Sort = ""
	}

	products, total, err := t.products.ListProducts(ctx, req)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]interface{}, 0, len(products))
	for _, p := range products {
		items = append(items, productSummary(p))
	}
	return map[string]interface{}{"total": total, "products": items}, nil
}

func (t *Toolbox) getProduct(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	id, err := uuid.Parse(argString(args, "product_id"))
	if err != nil {
		return nil, errBadArgument
	}
	p, err := t.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	out := productSummary(*p)
	out["description"] = p.Description
	out["category"] = p.CategoryName
	out["rating"] = p.Rating.StringFixed(1)
	return out, nil
}

func (t *Toolbox) getCart(ctx context.Context, userID uuid.UUID) (map[string]interface{}, error) {
	cart, err := t.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cartSummary(cart), nil
}

func (t *Toolbox) addToCart(ctx context.Context, userID uuid.UUID, args map[string]interface{}) (map[string]interface{}, error) {
	id, err := uuid.Parse(argString(args, "product_id"))
	if err != nil {
		return nil, errBadArgument
	}
	qty, ok := argInt(args, "quantity")
	if !ok {
		qty = 1
	}

	req := cartModel.AddItemRequest{
		ProductID:    id,
		Quantity:     qty,
		DeliveryDate: argString(args, "delivery_date"),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cart, err := t.carts.AddItem(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	out := cartSummary(cart)
	out["added"] = true
	return out, nil
}

func (t *Toolbox) getOrderStatus(ctx context.Context, userID uuid.UUID, args map[string]interface{}) (map[string]interface{}, error) {
	code := strings.ToUpper(argString(args, "order_code"))

	// chỉ tìm trong đơn của chính user
	orders, _, err := t.orders.ListMyOrders(ctx, userID, orderModel.ListOrdersRequest{Search: code, Page: 1, Limit: 3})
	if err != nil {
		return nil, err
	}

	items := make([]map[string]interface{}, 0, len(orders))
	for _, o := range orders {
		if code != "" && !strings.EqualFold(o.OrderCode, code) {
			continue
		}
		items = append(items, map[string]interface{}{
			"order_code":     o.OrderCode,
			"status":         string(o.Status),
			"payment_method": string(o.PaymentMethod),
			"payment_status": string(o.PaymentStatus),
			"total":          o.TotalAmount.StringFixed(0),
			"created_at":     o.CreatedAt.Format("02/01/2006 15:04"),
		})
	}
	if code != "" && len(items) == 0 {
		return errorResult(fmt.Sprintf("Không tìm thấy đơn %s trong tài khoản của khách", code)), nil
	}
	return map[string]interface{}{"orders": items}, nil
}

func (t *Toolbox) listPromotions(ctx context.Context) (map[string]interface{}, error) {
	codes, err := t.promotions.ListAvailableCodes(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]interface{}, 0, len(codes))
	for _, c := range codes {
		item := map[string]interface{}{
			"code":        c.Code,
			"name":        c.PromotionName,
			"description": c.Description,
			"type":        string(c.Type),
			"end_date":    c.EndDate.Format("02/01/2006"),
		}
		if c.IsPercent {
			item["value"] = c.Value.StringFixed(0) + "%"
		} else {
			item["value"] = c.Value.StringFixed(0) + "đ"
		}
		if c.MinOrderValue != nil {
			item["min_order_value"] = c.MinOrderValue.StringFixed(0)
		}
		items = append(items, item)
	}
	return map[string]interface{}{"promotions": items}, nil
}

// =====================================================
// HELPERS
// =====================================================

func productSummary(p productModel.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":              p.ID.String(),
		"name":            p.Name,
		"price":           p.Price.StringFixed(0),
		"effective_price": p.EffectivePrice.StringFixed(0),
		"color":           p.Color,
		"in_stock":        p.Stock > 0,
	}
}

func cartSummary(cart *cartModel.CartView) map[string]interface{} {
	lines := make([]map[string]interface{}, 0, len(cart.Items))
	for _, it := range cart.Items {
		lines = append(lines, map[string]interface{}{
			"product_name": it.ProductName,
			"quantity":     it.Quantity,
			"line_total":   it.LineTotal.StringFixed(0),
			"is_gift":      it.IsGift,
		})
	}
	out := map[string]interface{}{
		"items":           lines,
		"subtotal":        cart.Subtotal.StringFixed(0),
		"discount_amount": cart.DiscountAmount.StringFixed(0),
		"shipping_fee":    cart.ShippingFee.StringFixed(0),
		"total":           cart.Total.StringFixed(0),
	}
	if cart.AppliedCode != nil {
		out["applied_code"] = *cart.AppliedCode
	}
	return out
}

func argString(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// argInt - số trong JSON args luôn là float64
func argInt(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		if v < 0 || v > math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
