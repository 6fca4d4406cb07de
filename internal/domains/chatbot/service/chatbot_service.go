package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chatbot/model"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/gemini"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/metrics"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/utils"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/cache"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"
)

const systemPrompt = `Bạn là trợ lý ảo của Bloomie, cửa hàng hoa tươi online tại Việt Nam.
- Luôn trả lời bằng tiếng Việt, thân thiện, ngắn gọn.
- Chỉ tư vấn về hoa, sản phẩm, giỏ hàng, đơn hàng, khuyến mãi và giao hàng của Bloomie.
- Dùng các function được cung cấp để lấy dữ liệu thật, không tự bịa giá, tồn kho hay trạng thái đơn.
- Giá hiển thị theo định dạng 350.000đ.
- Chỉ thêm vào giỏ khi khách đã xác nhận rõ sản phẩm và số lượng.
- Nếu function trả về "error", giải thích cho khách bằng lời lẽ dễ hiểu.
- Câu hỏi ngoài phạm vi thì lịch sự từ chối và gợi ý chat với nhân viên hỗ trợ.`

const fallbackReply = "Xin lỗi, mình chưa xử lý được yêu cầu này. Bạn thử hỏi lại cụ thể hơn hoặc chat với nhân viên hỗ trợ nhé."

type ChatbotService struct {
	llm   gemini.Generator
	cache cache.Cache
	tools *Toolbox
	cfg   config.GeminiConfig
	now   func() time.Time
}

var _ ServiceInterface = (*ChatbotService)(nil)

func NewChatbotService(llm gemini.Generator, c cache.Cache, tools *Toolbox, cfg config.GeminiConfig) *ChatbotService {
	if cfg.MaxToolCall <= 0 {
		cfg.MaxToolCall = 3
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 20
	}
	if cfg.HistoryTTL <= 0 {
		cfg.HistoryTTL = 24 * time.Hour
	}
	return &ChatbotService{
		llm:   llm,
		cache: c,
		tools: tools,
		cfg:   cfg,
		now:   time.Now,
	}
}

// =====================================================
// CHAT
// =====================================================

func (s *ChatbotService) Chat(ctx context.Context, userID *uuid.UUID, req model.ChatRequest) (*model.ChatResponse, error) {
	// Step 1: xác định session (user đăng nhập dùng user id)
	sessionID := req.SessionID
	if userID == nil && sessionID == "" {
		sessionID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	historyKey := s.historyKey(userID, sessionID)

	// Step 2: rate limit
	if err := s.checkRateLimit(ctx, s.rateSubject(ctx, userID, sessionID)); err != nil {
		metrics.ChatbotRequestsTotal.WithLabelValues("rate_limited").Inc()
		return nil, err
	}

	// Step 3: history + câu hỏi mới
	history := s.loadHistory(ctx, historyKey)
	message := strings.TrimSpace(req.Message)

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, gemini.TextContent(turn.Role, turn.Text))
	}
	contents = append(contents, gemini.TextContent(gemini.RoleUser, message))

	// Step 4: vòng function calling
	reply, toolsUsed, err := s.converse(ctx, userID, contents)
	if err != nil {
		metrics.ChatbotRequestsTotal.WithLabelValues("error").Inc()
		logger.Error("chatbot generate failed", err)
		return nil, model.NewUnavailableError(err)
	}

	// Step 5: lưu history
	now := s.now()
	history = append(history,
		model.Turn{Role: gemini.RoleUser, Text: message, At: now},
		model.Turn{Role: gemini.RoleModel, Text: reply, At: now},
	)
	s.saveHistory(ctx, historyKey, history)

	outcome := "ok"
	if len(toolsUsed) > 0 {
		outcome = "tool"
	}
	metrics.ChatbotRequestsTotal.WithLabelValues(outcome).Inc()

	return &model.ChatResponse{
		SessionID: sessionID,
		Reply:     reply,
		ToolsUsed: toolsUsed,
	}, nil
}

// converse gọi Gemini, thực thi functionCall rồi gửi lại functionResponse, tối đa MaxToolCall vòng
func (s *ChatbotService) converse(ctx context.Context, userID *uuid.UUID, contents []*genai.Content) (string, []string, error) {
	var toolsUsed []string

	for round := 0; ; round++ {
		cfg := &genai.GenerateContentConfig{
			SystemInstruction: gemini.TextContent(gemini.RoleUser, systemPrompt),
			Temperature:       genai.Ptr[float32](0.4),
			MaxOutputTokens:   1024,
		}
		// hết lượt tool thì không gửi tools nữa, buộc model trả lời bằng text
		if round < s.cfg.MaxToolCall {
			cfg.Tools = s.tools.Declarations()
		}

		resp, err := s.llm.GenerateContent(ctx, contents, cfg)
		if err != nil {
			return "", toolsUsed, err
		}
		modelTurn := gemini.FirstContent(resp)
		if modelTurn == nil {
			return "", toolsUsed, errors.New("gemini returned no candidates")
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 || round >= s.cfg.MaxToolCall {
			reply := strings.TrimSpace(resp.Text())
			if reply == "" {
				reply = fallbackReply
			}
			return reply, toolsUsed, nil
		}

		// giữ nguyên lượt functionCall của model trong context
		modelTurn.Role = gemini.RoleModel
		contents = append(contents, modelTurn)

		responses := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			logger.Info("Chatbot tool call", map[string]interface{}{
				"tool":  call.Name,
				"round": round + 1,
			})
			result := s.tools.Execute(ctx, userID, call)
			responses = append(responses, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: result,
			}})
			toolsUsed = append(toolsUsed, call.Name)
		}
		contents = append(contents, &genai.Content{Role: gemini.RoleUser, Parts: responses})
	}
}

// =====================================================
// HISTORY
// =====================================================

func (s *ChatbotService) History(ctx context.Context, userID *uuid.UUID, sessionID string) ([]model.Turn, error) {
	if userID == nil && sessionID == "" {
		return []model.Turn{}, nil
	}
	var turns []model.Turn
	if _, err := s.cache.Get(ctx, s.historyKey(userID, sessionID), &turns); err != nil {
		return nil, fmt.Errorf("failed to load chatbot history: %w", err)
	}
	if turns == nil {
		turns = []model.Turn{}
	}
	return turns, nil
}

func (s *ChatbotService) ClearHistory(ctx context.Context, userID *uuid.UUID, sessionID string) error {
	if userID == nil && sessionID == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, s.historyKey(userID, sessionID)); err != nil {
		return fmt.Errorf("failed to clear chatbot history: %w", err)
	}
	return nil
}

func (s *ChatbotService) historyKey(userID *uuid.UUID, sessionID string) string {
	if userID != nil {
		return "chatbot:history:user:" + userID.String()
	}
	return "chatbot:history:session:" + sessionID
}

// loadHistory - Redis lỗi thì chat tiếp không có context
func (s *ChatbotService) loadHistory(ctx context.Context, key string) []model.Turn {
	var turns []model.Turn
	if _, err := s.cache.Get(ctx, key, &turns); err != nil {
		logger.Warn("chatbot history load failed", map[string]interface{}{"key": key, "error": err.Error()})
		return nil
	}
	return turns
}

func (s *ChatbotService) saveHistory(ctx context.Context, key string, turns []model.Turn) {
	// 1 lượt = user + model
	if keep := model.MaxHistoryTurns * 2; len(turns) > keep {
		turns = turns[len(turns)-keep:]
	}
	if err := s.cache.Set(ctx, key, turns, s.cfg.HistoryTTL); err != nil {
		logger.Warn("chatbot history save failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// =====================================================
// RATE LIMIT
// =====================================================

// rateSubject - khách vãng lai tính theo IP để không lách bằng session mới
func (s *ChatbotService) rateSubject(ctx context.Context, userID *uuid.UUID, sessionID string) string {
	if userID != nil {
		return "user:" + userID.String()
	}
	if ip := utils.ClientIPFromContext(ctx); ip != "" {
		return "ip:" + ip
	}
	return "session:" + sessionID
}

// checkRateLimit - fixed window 1 phút trên Redis counter
func (s *ChatbotService) checkRateLimit(ctx context.Context, subject string) error {
	window := s.now().Unix() / 60
	key := fmt.Sprintf("chatbot:rl:%s:%d", subject, window)

	count, err := s.cache.Increment(ctx, key)
	if err != nil {
		// fail open
		logger.Warn("chatbot rate limit unavailable", map[string]interface{}{"key": key, "error": err.Error()})
		return nil
	}
	if count == 1 {
		if err := s.cache.Expire(ctx, key, time.Minute); err != nil {
			logger.Warn("chatbot rate limit expire failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	if count > int64(s.cfg.RateLimit) {
		return model.NewRateLimitError(s.cfg.RateLimit)
	}
	return nil
}
