package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"
)

// RequireRoles chỉ cho phép các role được liệt kê (chạy sau AuthMiddleware)
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := allowed[GetRole(c)]; !ok {
			response.Forbidden(c, "Bạn không có quyền truy cập chức năng này")
			c.Abort()
			return
		}
		c.Next()
	}
}
