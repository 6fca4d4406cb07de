package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
	cartModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chatbot/model"
	orderModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/model"
	productModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/model"
	promotionModel "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/gemini"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/utils"
)

// ---- fakes ----

type memCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	counters map[string]int64
	ttl      map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, counters: map[string]int64{}, ttl: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	m.ttl[key] = ttl
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memCache) Ping(context.Context) error                  { return nil }
func (m *memCache) DeletePattern(context.Context, string) error { return nil }

func (m *memCache) Increment(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *memCache) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttl[key] = ttl
	return nil
}

func (m *memCache) TTL(_ context.Context, key string) (time.Duration, error) {
	return m.ttl[key], nil
}

// llmCall - một lần gọi GenerateContent đã ghi lại
type llmCall struct {
	Contents          []*genai.Content
	SystemInstruction *genai.Content
	Tools             []*genai.Tool
}

// scriptedLLM trả lần lượt các response đã chuẩn bị
type scriptedLLM struct {
	responses []*genai.GenerateContentResponse
	err       error
	requests  []llmCall
}

func (s *scriptedLLM) GenerateContent(_ context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	call := llmCall{Contents: append([]*genai.Content(nil), contents...)}
	if cfg != nil {
		call.SystemInstruction = cfg.SystemInstruction
		call.Tools = cfg.Tools
	}
	s.requests = append(s.requests, call)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return textResponse("hết kịch bản"), nil
	}
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: gemini.RoleModel, Parts: []*genai.Part{{Text: text}}},
	}}}
}

func callResponse(name string, args map[string]interface{}) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: gemini.RoleModel, Parts: []*genai.Part{{
			FunctionCall: &genai.FunctionCall{Name: name, Args: args},
		}}},
	}}}
}

type fakeProducts struct {
	products []productModel.Product
	lastReq  productModel.ListProductsRequest
}

func (f *fakeProducts) ListProducts(_ context.Context, req productModel.ListProductsRequest) ([]productModel.Product, int, error) {
	f.lastReq = req
	return f.products, len(f.products), nil
}

func (f *fakeProducts) GetProduct(_ context.Context, id uuid.UUID) (*productModel.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, productModel.ErrProductNotFound
}

type fakeCarts struct {
	added  []cartModel.AddItemRequest
	addErr error
}

func (f *fakeCarts) GetCart(context.Context, uuid.UUID) (*cartModel.CartView, error) {
	return &cartModel.CartView{Total: decimal.NewFromInt(350000)}, nil
}

func (f *fakeCarts) AddItem(_ context.Context, _ uuid.UUID, req cartModel.AddItemRequest) (*cartModel.CartView, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = append(f.added, req)
	return &cartModel.CartView{Total: decimal.NewFromInt(700000)}, nil
}

type fakeOrders struct {
	orders map[uuid.UUID][]orderModel.Order
}

func (f *fakeOrders) ListMyOrders(_ context.Context, userID uuid.UUID, req orderModel.ListOrdersRequest) ([]orderModel.Order, int, error) {
	var out []orderModel.Order
	for _, o := range f.orders[userID] {
		if req.Search == "" || strings.Contains(o.OrderCode, req.Search) {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

type fakePromotions struct{}

func (fakePromotions) ListAvailableCodes(context.Context) ([]promotionModel.AvailableCode, error) {
	return []promotionModel.AvailableCode{{Code: "FREESHIP", PromotionName: "Miễn phí vận chuyển", IsPercent: false, Value: decimal.NewFromInt(30000)}}, nil
}

type fixture struct {
	svc      *ChatbotService
	llm      *scriptedLLM
	cache    *memCache
	products *fakeProducts
	carts    *fakeCarts
	orders   *fakeOrders
}

func newFixture() *fixture {
	f := &fixture{
		llm:   &scriptedLLM{},
		cache: newMemCache(),
		products: &fakeProducts{products: []productModel.Product{{
			ID: uuid.New(), Name: "Bó hồng đỏ", Price: decimal.NewFromInt(400000), EffectivePrice: decimal.NewFromInt(350000), Stock: 3,
		}}},
		carts:  &fakeCarts{},
		orders: &fakeOrders{orders: map[uuid.UUID][]orderModel.Order{}},
	}
	tools := NewToolbox(f.products, f.carts, f.orders, fakePromotions{})
	f.svc = NewChatbotService(f.llm, f.cache, tools, config.GeminiConfig{
		MaxToolCall: 3,
		RateLimit:   2,
		HistoryTTL:  24 * time.Hour,
	})
	f.svc.now = func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }
	return f
}

func responsePart(t *testing.T, req llmCall) *genai.FunctionResponse {
	t.Helper()
	last := req.Contents[len(req.Contents)-1]
	require.NotEmpty(t, last.Parts)
	require.NotNil(t, last.Parts[0].FunctionResponse)
	return last.Parts[0].FunctionResponse
}

// ---- tests ----

func TestChat_TextOnly_SavesHistory(t *testing.T) {
	f := newFixture()
	f.llm.responses = []*genai.GenerateContentResponse{textResponse("Chào bạn, Bloomie có thể giúp gì?")}
	ctx := context.Background()

	resp, err := f.svc.Chat(ctx, nil, model.ChatRequest{Message: "xin chào"})
	require.NoError(t, err)
	assert.Equal(t, "Chào bạn, Bloomie có thể giúp gì?", resp.Reply)
	assert.Len(t, resp.SessionID, 32)

	require.Len(t, f.llm.requests, 1)
	assert.NotNil(t, f.llm.requests[0].SystemInstruction)
	assert.NotEmpty(t, f.llm.requests[0].Tools)

	turns, err := f.svc.History(ctx, nil, resp.SessionID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, gemini.RoleUser, turns[0].Role)
	assert.Equal(t, "xin chào", turns[0].Text)
	assert.Equal(t, 24*time.Hour, f.cache.ttl["chatbot:history:session:"+resp.SessionID])

	// lượt 2 gửi kèm history
	f.llm.responses = []*genai.GenerateContentResponse{textResponse("ok")}
	_, err = f.svc.Chat(ctx, nil, model.ChatRequest{SessionID: resp.SessionID, Message: "cảm ơn"})
	require.NoError(t, err)
	assert.Len(t, f.llm.requests[1].Contents, 3)
}

func TestChat_HistoryKeepsLastTenTurns(t *testing.T) {
	f := newFixture()
	f.svc.cfg.RateLimit = 100
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := f.svc.Chat(ctx, &userID, model.ChatRequest{Message: "câu hỏi"})
		require.NoError(t, err)
	}
	turns, err := f.svc.History(ctx, &userID, "")
	require.NoError(t, err)
	assert.Len(t, turns, model.MaxHistoryTurns*2)

	require.NoError(t, f.svc.ClearHistory(ctx, &userID, ""))
	turns, err = f.svc.History(ctx, &userID, "")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestChat_FunctionCalling(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.llm.responses = []*genai.GenerateContentResponse{
		callResponse(ToolSearchProducts, map[string]interface{}{"query": "hoa hồng", "max_price": float64(500000), "sort": "cheapest"}),
		textResponse("Bó hồng đỏ giá 350.000đ"),
	}

	resp, err := f.svc.Chat(ctx, nil, model.ChatRequest{SessionID: "guest-session-1", Message: "có hoa hồng dưới 500k không?"})
	require.NoError(t, err)
	assert.Equal(t, "Bó hồng đỏ giá 350.000đ", resp.Reply)
	assert.Equal(t, []string{ToolSearchProducts}, resp.ToolsUsed)

	assert.Equal(t, "hoa hồng", f.products.lastReq.Search)
	require.NotNil(t, f.products.lastReq.MaxPrice)
	assert.Equal(t, int64(500000), *f.products.lastReq.MaxPrice)
	assert.Empty(t, f.products.lastReq.Sort, "invalid sort is dropped")

	require.Len(t, f.llm.requests, 2)
	second := f.llm.requests[1]
	// user, model(functionCall), user(functionResponse)
	require.Len(t, second.Contents, 3)
	assert.Equal(t, gemini.RoleModel, second.Contents[1].Role)
	fr := responsePart(t, second)
	assert.Equal(t, ToolSearchProducts, fr.Name)
	assert.Equal(t, 1, fr.Response["total"])

	// history chỉ lưu text
	turns, err := f.svc.History(ctx, nil, "guest-session-1")
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestChat_MaxToolRounds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 4; i++ {
		f.llm.responses = append(f.llm.responses, callResponse(ToolListPromotions, nil))
	}

	resp, err := f.svc.Chat(ctx, &userID, model.ChatRequest{Message: "có mã nào không?"})
	require.NoError(t, err)

	// 3 vòng có tools + 1 vòng cuối không có tools
	require.Len(t, f.llm.requests, 4)
	assert.NotEmpty(t, f.llm.requests[2].Tools)
	assert.Empty(t, f.llm.requests[3].Tools)
	assert.Len(t, resp.ToolsUsed, 3)
	assert.Equal(t, fallbackReply, resp.Reply)
}

func TestChat_LoginRequiredTools(t *testing.T) {
	for _, tool := range []string{ToolGetCart, ToolAddToCart, ToolGetOrderStatus} {
		t.Run(tool, func(t *testing.T) {
			f := newFixture()
			f.llm.responses = []*genai.GenerateContentResponse{
				callResponse(tool, map[string]interface{}{"product_id": uuid.NewString()}),
				textResponse("Bạn vui lòng đăng nhập nhé"),
			}
			_, err := f.svc.Chat(context.Background(), nil, model.ChatRequest{SessionID: "guest-session-2", Message: "..."})
			require.NoError(t, err)

			fr := responsePart(t, f.llm.requests[1])
			assert.Equal(t, loginRequiredMsg, fr.Response["error"])
			assert.Empty(t, f.carts.added)
		})
	}
}

func TestToolbox_AddToCart(t *testing.T) {
	f := newFixture()
	tools := NewToolbox(f.products, f.carts, f.orders, fakePromotions{})
	userID := uuid.New()
	productID := f.products.products[0].ID

	res := tools.Execute(context.Background(), &userID, &genai.FunctionCall{
		Name: ToolAddToCart,
		Args: map[string]interface{}{"product_id": productID.String(), "quantity": float64(2)},
	})
	assert.Equal(t, true, res["added"])
	assert.Equal(t, "700000", res["total"])
	require.Len(t, f.carts.added, 1)
	assert.Equal(t, 2, f.carts.added[0].Quantity)

	// lỗi nghiệp vụ của giỏ được chuyển thành message
	f.carts.addErr = cartModel.NewInsufficientStockError("Bó hồng đỏ", 5, 3)
	res = tools.Execute(context.Background(), &userID, &genai.FunctionCall{
		Name: ToolAddToCart,
		Args: map[string]interface{}{"product_id": productID.String(), "quantity": float64(5)},
	})
	assert.Equal(t, "Sản phẩm Bó hồng đỏ không đủ số lượng", res["error"])

	res = tools.Execute(context.Background(), &userID, &genai.FunctionCall{
		Name: ToolAddToCart,
		Args: map[string]interface{}{"product_id": "not-a-uuid"},
	})
	assert.Equal(t, errBadArgument.Error(), res["error"])
}

func TestToolbox_GetOrderStatus_OwnOrdersOnly(t *testing.T) {
	f := newFixture()
	tools := NewToolbox(f.products, f.carts, f.orders, fakePromotions{})
	owner, other := uuid.New(), uuid.New()
	f.orders.orders[owner] = []orderModel.Order{{
		OrderCode: "BL250314-0001", Status: orderModel.StatusShipping, TotalAmount: decimal.NewFromInt(380000),
	}}

	res := tools.Execute(context.Background(), &owner, &genai.FunctionCall{
		Name: ToolGetOrderStatus, Args: map[string]interface{}{"order_code": "bl250314-0001"},
	})
	orders, ok := res["orders"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, orders, 1)
	assert.Equal(t, string(orderModel.StatusShipping), orders[0]["status"])

	res = tools.Execute(context.Background(), &other, &genai.FunctionCall{
		Name: ToolGetOrderStatus, Args: map[string]interface{}{"order_code": "BL250314-0001"},
	})
	assert.Contains(t, res["error"], "Không tìm thấy đơn")
}

func TestToolbox_UnknownAndNotFound(t *testing.T) {
	f := newFixture()
	tools := NewToolbox(f.products, f.carts, f.orders, fakePromotions{})

	res := tools.Execute(context.Background(), nil, &genai.FunctionCall{Name: "drop_tables"})
	assert.Contains(t, res["error"], "drop_tables")

	res = tools.Execute(context.Background(), nil, &genai.FunctionCall{
		Name: ToolGetProduct, Args: map[string]interface{}{"product_id": uuid.NewString()},
	})
	assert.Equal(t, productModel.ErrProductNotFound.Error(), res["error"])

	res = tools.Execute(context.Background(), nil, &genai.FunctionCall{Name: ToolListPromotions})
	promos := res["promotions"].([]map[string]interface{})
	require.Len(t, promos, 1)
	assert.Equal(t, "30000đ", promos[0]["value"])
}

func TestChat_RateLimit(t *testing.T) {
	f := newFixture()
	ctx := utils.WithClientIP(context.Background(), "203.0.113.7")

	_, err := f.svc.Chat(ctx, nil, model.ChatRequest{SessionID: "session-aaaa", Message: "1"})
	require.NoError(t, err)
	// session khác nhưng cùng IP
	_, err = f.svc.Chat(ctx, nil, model.ChatRequest{SessionID: "session-bbbb", Message: "2"})
	require.NoError(t, err)

	_, err = f.svc.Chat(ctx, nil, model.ChatRequest{SessionID: "session-cccc", Message: "3"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRateLimited)
	assert.Len(t, f.llm.requests, 2)

	// user khác không bị ảnh hưởng
	userID := uuid.New()
	_, err = f.svc.Chat(ctx, &userID, model.ChatRequest{Message: "4"})
	assert.NoError(t, err)
	assert.Equal(t, time.Minute, f.cache.ttl["chatbot:rl:ip:203.0.113.7:29032380"])
}

func TestChat_LLMError(t *testing.T) {
	f := newFixture()
	f.llm.err = errors.New("connection reset")

	_, err := f.svc.Chat(context.Background(), nil, model.ChatRequest{SessionID: "session-dddd", Message: "hi"})
	var botErr *model.ChatbotError
	require.True(t, errors.As(err, &botErr))
	assert.Equal(t, model.ErrCodeUnavailable, botErr.Code)
	assert.ErrorIs(t, err, model.ErrUnavailable)

	turns, err := f.svc.History(context.Background(), nil, "session-dddd")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
