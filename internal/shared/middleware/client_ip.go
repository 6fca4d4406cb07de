package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/utils"
)

// ClientIPMiddleware inject client IP vào gin context và request context
// (payment service cần IP để tạo URL VNPay)
func ClientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := utils.ExtractClientIP(c)

		c.Set(shared.ContextKeyClientIP, clientIP)
		c.Request = c.Request.WithContext(utils.WithClientIP(c.Request.Context(), clientIP))

		c.Next()
	}
}
