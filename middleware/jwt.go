package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/Kasai-Ohara-Tsu/apo2/config"
	"github.com/Kasai-Ohara-Tsu/apo2/services"
)

var jwtService *services.JWTService

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(cfg *config.Config) {
	jwtService = services.NewJWTService(cfg)
}

// extractToken 从授权头中提取token
func extractToken(authHeader string) string {
	// 检查并移除 "Bearer " 前缀
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// AuthenticateSystemAdmin 验证系统管理员权限
func AuthenticateSystemAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Authorization header is required",
				"data":    nil,
			})
			c.Abort()
			return
		}

		// 提取token
		tokenString := extractToken(authHeader)
		token, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Invalid token: " + err.Error(),
				"data":    nil,
			})
			c.Abort()
			return
		}

		if token.Valid {
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				c.JSON(http.StatusUnauthorized, gin.H{
					"code":    401,
					"message": "Invalid token claims",
					"data":    nil,
				})
				c.Abort()
				return
			}

			// 检查是否是系统管理员
			if role, exists := claims["role"].(string); !exists || role != "admin" {
				c.JSON(http.StatusForbidden, gin.H{
					"code":    403,
					"message": "Insufficient permissions: requires system admin role",
					"data":    nil,
				})
				c.Abort()
				return
			}

			// 存储claims到上下文
			c.Set("userID", claims["user_id"])
			c.Set("role", claims["role"])
			c.Set("claims", claims)
			c.Next()
		} else {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Invalid token",
				"data":    nil,
			})
			c.Abort()
			return
		}
	}
}
