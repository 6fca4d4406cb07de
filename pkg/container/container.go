package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/config"
	infraCache "github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/cache"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/database"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/gemini"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/metrics"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/queue"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/realtime"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/cache"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/jwt"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/logger"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/address"
	addressHandler "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/address/handler"
	addressRepo "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/address/repository"
	addressService "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/address/service"

	productHandler "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/handler"
	productRepo "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/repository"
	productService "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/product/service"

	promoHandler "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/handler"
	promoRepo "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/repository"
	promoService "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/promotion/service"

	cartHandler "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/handler"
	cartJob "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/job"
	cartRepo "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/repository"
	cartService "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/cart/service"

	orderHandler "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/handler"
	orderJob "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/job"
	orderRepo "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/repository"
	orderService "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/order/service"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/gateway/momo"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/gateway/vnpay"
	paymentHandler "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/handler"
	paymentRepo "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/repository"
	paymentService "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/payment/service"

	chatHandler "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/handler"
	chatRepo "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/repository"
	chatService "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chat/service"

	chatbotHandler "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chatbot/handler"
	chatbotService "github.com/dnduykhoa/bloomie-backend-sub000/internal/domains/chatbot/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa toàn bộ dependency graph của API và worker.
// Thứ tự khởi tạo: config -> infrastructure -> repositories -> services -> handlers
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	redisCache  *infraCache.RedisCache
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client
	Inspector   *asynq.Inspector
	Hub         *realtime.Hub
	LLM         *gemini.Client

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	AddressRepo   address.Repository
	ProductRepo   productRepo.RepositoryInterface
	PromotionRepo promoRepo.PromotionRepository
	CartRepo      cartRepo.RepositoryInterface
	OrderRepo     orderRepo.OrderRepository
	WebhookRepo   paymentRepo.WebhookRepoInterface
	ChatRepo      chatRepo.RepositoryInterface

	// ========================================
	// SERVICE LAYER
	// ========================================
	AddressService   address.ServiceInterface
	ProductService   productService.ServiceInterface
	PromotionService promoService.ServiceInterface
	CartService      cartService.ServiceInterface
	OrderService     *orderService.OrderService
	PaymentService   *paymentService.PaymentService
	ChatService      *chatService.ChatService
	ChatbotService   *chatbotService.ChatbotService

	// ========================================
	// HANDLER LAYER
	// ========================================
	AddressHandler         *addressHandler.AddressHandler
	ProductHandler         *productHandler.Handler
	PromotionPublicHandler *promoHandler.PublicHandler
	PromotionAdminHandler  *promoHandler.AdminHandler
	CartHandler            *cartHandler.Handler
	OrderHandler           *orderHandler.OrderHandler
	PaymentHandler         *paymentHandler.PaymentHandler
	ChatHandler            *chatHandler.ChatHandler
	ChatbotHandler         *chatbotHandler.ChatbotHandler
	RealtimeHandler        *realtime.Handler

	// ========================================
	// JOB HANDLERS (worker)
	// ========================================
	AutoCancelOrderHandler         *orderJob.AutoCancelOrderHandler
	AutoCompleteOrdersHandler      *orderJob.AutoCompleteOrdersHandler
	RemoveExpiredPromotionsHandler *cartJob.RemoveExpiredPromotionsHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer - sai thứ tự khởi tạo sẽ nil pointer ở bước sau
func NewContainer() (*Container, error) {
	logger.Info("🔧 Initializing DI Container...", nil)

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Info("✅ Config loaded", map[string]interface{}{"environment": cfg.App.Environment})

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db
	logger.Info("✅ Database connected", nil)

	// ========================================
	// STEP 3: INITIALIZE CACHE + QUEUE
	// ========================================
	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisCache.Connect(ctx); err != nil {
		// Redis lỗi không chặn khởi động: cache miss, chatbot fail-open
		logger.Warn("⚠️  Redis connection failed (non-critical)", map[string]interface{}{"error": err.Error()})
	} else {
		logger.Info("✅ Redis connected", nil)
	}
	c.redisCache = redisCache
	c.Cache = redisCache

	c.AsynqClient = queue.NewClient(cfg.Redis)
	c.Inspector = queue.NewInspector(cfg.Redis)

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	c.Hub = realtime.NewHub()
	llm, err := gemini.NewClient(ctx, cfg.Gemini)
	if err != nil {
		return nil, err
	}
	c.LLM = llm

	// ========================================
	// STEP 4-6: REPOSITORIES -> SERVICES -> HANDLERS
	// ========================================
	c.initRepositories()

	if err := c.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	c.initHandlers()
	c.initJobHandlers()

	logger.Info("🎉 DI Container initialized successfully", nil)
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.AddressRepo = addressRepo.NewPostgresRepository(pool)
	c.ProductRepo = productRepo.NewPostgresRepository(pool)
	c.PromotionRepo = promoRepo.NewPostgresRepository(pool)
	c.CartRepo = cartRepo.NewPostgresRepository(pool)
	c.OrderRepo = orderRepo.NewPostgresOrderRepository(pool)
	c.WebhookRepo = paymentRepo.NewWebhookRepository(pool)
	c.ChatRepo = chatRepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() error {
	cfg := c.Config

	c.AddressService = addressService.NewAddressService(c.AddressRepo, c.Cache)
	c.ProductService = productService.NewService(c.ProductRepo, c.Cache)

	// ----------------------------------------
	// PROMOTION: evaluator dùng chung cho cart và checkout
	// ----------------------------------------
	evaluator := promoService.NewEvaluator(c.AddressService, c.ProductService)
	c.PromotionService = promoService.NewPromotionService(c.PromotionRepo, evaluator, c.Cache)

	c.CartService = cartService.NewCartService(
		c.CartRepo,
		c.ProductService,
		c.PromotionService,
		cfg.Order.ShippingFee,
	)

	// ----------------------------------------
	// ORDER + PAYMENT (phụ thuộc vòng: checkout cần link thanh toán)
	// ----------------------------------------
	c.OrderService = orderService.NewOrderService(
		c.OrderRepo,
		c.CartRepo,
		c.ProductService,
		c.PromotionService,
		c.AddressService,
		c.AsynqClient,
		c.Inspector,
		c.Hub,
		cfg.Order,
	)

	momoGateway := momo.NewClient(momo.NewConfig(cfg.Momo))
	vnpayGateway, err := vnpay.NewClient(vnpay.NewConfig(cfg.VNPay, cfg.Order.PaymentTimeout))
	if err != nil {
		return fmt.Errorf("failed to init vnpay client: %w", err)
	}

	c.PaymentService = paymentService.NewPaymentService(
		c.OrderRepo,
		c.WebhookRepo,
		momoGateway,
		vnpayGateway,
		c.Inspector,
		c.Hub,
	)
	c.OrderService.SetPaymentURLCreator(c.PaymentService)

	// ----------------------------------------
	// SUPPORT CHAT + CHATBOT
	// ----------------------------------------
	c.ChatService = chatService.NewChatService(c.ChatRepo, c.Hub)

	toolbox := chatbotService.NewToolbox(c.ProductService, c.CartService, c.OrderService, c.PromotionService)
	c.ChatbotService = chatbotService.NewChatbotService(c.LLM, c.Cache, toolbox, cfg.Gemini)

	return nil
}

func (c *Container) initHandlers() {
	c.AddressHandler = addressHandler.NewAddressHandler(c.AddressService)
	c.ProductHandler = productHandler.NewHandler(c.ProductService)
	c.PromotionPublicHandler = promoHandler.NewPublicHandler(c.PromotionService)
	c.PromotionAdminHandler = promoHandler.NewAdminHandler(c.PromotionService)
	c.CartHandler = cartHandler.NewHandler(c.CartService)
	c.OrderHandler = orderHandler.NewOrderHandler(c.OrderService)
	c.PaymentHandler = paymentHandler.NewPaymentHandler(c.PaymentService)
	c.ChatHandler = chatHandler.NewChatHandler(c.ChatService)
	c.ChatbotHandler = chatbotHandler.NewChatbotHandler(c.ChatbotService)
	c.RealtimeHandler = realtime.NewHandler(c.Hub, c.Config.App.CORSOrigins)
}

func (c *Container) initJobHandlers() {
	c.AutoCancelOrderHandler = orderJob.NewAutoCancelOrderHandler(c.OrderService)
	c.AutoCompleteOrdersHandler = orderJob.NewAutoCompleteOrdersHandler(
		c.OrderRepo,
		c.OrderService,
		c.Config.Order.AutoCompleteDays,
	)
	c.RemoveExpiredPromotionsHandler = cartJob.NewRemoveExpiredPromotionsHandler(c.CartRepo)
}

// ========================================
// BACKGROUND
// ========================================

// StartBackground chạy hub websocket và đẩy pool stats sang Prometheus
func (c *Container) StartBackground(ctx context.Context) {
	go c.Hub.Run(ctx)
	go c.DB.MonitorPoolHealth(ctx, 30*time.Second, metrics.ObserveDBPool)
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	logger.Info("🧹 Cleaning up container resources...", nil)

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			logger.Error("Failed to close asynq client", err)
		}
	}
	if c.Inspector != nil {
		if err := c.Inspector.Close(); err != nil {
			logger.Error("Failed to close asynq inspector", err)
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logger.Error("Failed to close database", err)
		} else {
			logger.Info("✅ Database connections closed", nil)
		}
	}

	if c.redisCache != nil {
		if err := c.redisCache.Close(); err != nil {
			logger.Error("Failed to close Redis", err)
		} else {
			logger.Info("✅ Redis connections closed", nil)
		}
	}

	logger.Info("✅ Container cleanup completed", nil)
}
