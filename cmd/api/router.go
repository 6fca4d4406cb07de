package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/infrastructure/metrics"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/middleware"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/container"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/jwt"
)

// routeGroups - mỗi group đã gắn sẵn middleware auth / role
type routeGroups struct {
	public   *gin.RouterGroup // không cần đăng nhập
	optional *gin.RouterGroup // có token thì đọc, không có vẫn cho qua
	authed   *gin.RouterGroup // mọi user đã đăng nhập
	staff    *gin.RouterGroup // staff + admin
	admin    *gin.RouterGroup
	shipper  *gin.RouterGroup
}

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(),
		middleware.CORS(c.Config.App.CORSOrigins),
		middleware.ClientIPMiddleware(),
	)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	// token đi qua query ?token= vì browser không gửi header được
	router.GET("/ws", middleware.AuthMiddleware(c.JWTManager), c.RealtimeHandler.ServeWS)

	v1 := router.Group("/api/v1")
	v1.GET("/health", healthCheckHandler(c))

	groups := routeGroups{
		public:   v1,
		optional: v1.Group("", middleware.OptionalAuthMiddleware(c.JWTManager)),
		authed:   v1.Group("", middleware.AuthMiddleware(c.JWTManager)),
		staff: v1.Group("/staff",
			middleware.AuthMiddleware(c.JWTManager),
			middleware.RequireRoles(jwt.RoleStaff, jwt.RoleAdmin)),
		admin: v1.Group("/admin",
			middleware.AuthMiddleware(c.JWTManager),
			middleware.RequireRoles(jwt.RoleAdmin)),
		shipper: v1.Group("/shipper",
			middleware.AuthMiddleware(c.JWTManager),
			middleware.RequireRoles(jwt.RoleShipper)),
	}

	setupCatalogRoutes(groups, c)
	setupAddressRoutes(groups, c)
	setupPromotionRoutes(groups, c)
	setupCartRoutes(groups, c)

	c.OrderHandler.RegisterRoutes(groups.authed, groups.admin, groups.shipper)
	c.PaymentHandler.RegisterRoutes(groups.authed, groups.admin, groups.public)
	c.ChatHandler.RegisterRoutes(groups.authed, groups.staff)
	c.ChatbotHandler.RegisterRoutes(groups.optional)

	return router
}

// ========================================
// CATALOG ROUTES
// ========================================
func setupCatalogRoutes(g routeGroups, c *container.Container) {
	products := g.public.Group("/products")
	{
		products.GET("", c.ProductHandler.ListProducts)
		products.GET("/:id", c.ProductHandler.GetProduct)
	}
	g.public.GET("/categories", c.ProductHandler.ListCategories)

	adminProducts := g.admin.Group("/products")
	{
		adminProducts.POST("", c.ProductHandler.CreateProduct)
		adminProducts.PATCH("/:id/stock", c.ProductHandler.UpdateStock)
	}
}

// ========================================
// ADDRESS ROUTES
// ========================================
func setupAddressRoutes(g routeGroups, c *container.Container) {
	wards := g.public.Group("/wards")
	{
		wards.GET("", c.AddressHandler.ListWards) // ?q=
		wards.GET("/:code", c.AddressHandler.GetWard)
	}
}

// ========================================
// PROMOTION ROUTES
// ========================================
func setupPromotionRoutes(g routeGroups, c *container.Container) {
	g.public.GET("/promotions", c.PromotionPublicHandler.ListAvailableCodes)

	vouchers := g.authed.Group("/vouchers")
	{
		vouchers.GET("", c.PromotionPublicHandler.ListMyVouchers)
		vouchers.POST("/claim", c.PromotionPublicHandler.ClaimVoucher)
	}

	adminPromotions := g.admin.Group("/promotions")
	{
		adminPromotions.POST("", c.PromotionAdminHandler.CreatePromotion)
		adminPromotions.PATCH("/:id/active", c.PromotionAdminHandler.SetPromotionActive)
	}
}

// ========================================
// CART ROUTES
// ========================================
func setupCartRoutes(g routeGroups, c *container.Container) {
	cart := g.authed.Group("/cart")
	{
		cart.GET("", c.CartHandler.GetCart)
		cart.DELETE("", c.CartHandler.ClearCart)
		cart.POST("/items", c.CartHandler.AddItem)
		cart.DELETE("/items/:id", c.CartHandler.RemoveItem)
		cart.POST("/items/:id/increase", c.CartHandler.IncreaseItem)
		cart.POST("/items/:id/decrease", c.CartHandler.DecreaseItem)
		cart.PATCH("/items/:id/delivery", c.CartHandler.UpdateItemDelivery)
		cart.POST("/voucher", c.CartHandler.ApplyVoucher)
		cart.DELETE("/voucher", c.CartHandler.RemoveVoucher)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = "error: " + err.Error()
				health["status"] = "degraded"
			}
		}

		// Redis lỗi không làm API ngừng phục vụ
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = "error: " + err.Error()
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, health)
	}
}
