package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared"
	"github.com/dnduykhoa/bloomie-backend-sub000/internal/shared/response"
	"github.com/dnduykhoa/bloomie-backend-sub000/pkg/jwt"
)

// AuthMiddleware - Middleware xác thực JWT token
// Set "userID" (uuid.UUID) và "role" vào gin context
func AuthMiddleware(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := parseBearer(c, manager)
		if !ok {
			response.Unauthorized(c, "Token không hợp lệ hoặc đã hết hạn")
			c.Abort()
			return
		}

		c.Set(shared.ContextKeyUserID, userID)
		c.Set(shared.ContextKeyRole, role)
		c.Next()
	}
}

// OptionalAuthMiddleware cho phép cả khách vãng lai (chatbot)
// Token sai format hoặc hết hạn -> coi như anonymous, không trả lỗi
func OptionalAuthMiddleware(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, role, ok := parseBearer(c, manager); ok {
			c.Set(shared.ContextKeyUserID, userID)
			c.Set(shared.ContextKeyRole, role)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, manager *jwt.Manager) (uuid.UUID, string, bool) {
	authHeader := c.GetHeader("Authorization")
	token := ""
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return uuid.Nil, "", false
		}
		token = parts[1]
	} else {
		// websocket không gửi được header từ browser
		token = c.Query("token")
	}
	if token == "" {
		return uuid.Nil, "", false
	}

	claims, err := manager.ValidateAccessToken(token)
	if err != nil {
		return uuid.Nil, "", false
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, "", false
	}

	role := claims.Role
	if role == "" {
		role = jwt.RoleCustomer
	}
	return userID, role, true
}

// GetUserID lấy user ID đã được AuthMiddleware set
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(shared.ContextKeyUserID)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := v.(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}

// GetRole trả về role, mặc định customer
func GetRole(c *gin.Context) string {
	if v, exists := c.Get(shared.ContextKeyRole); exists {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return jwt.RoleCustomer
}
