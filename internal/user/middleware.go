package user

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/config"
)

const (
	// UserIDHeader 是机器人网关透传的聊天平台用户ID
	UserIDHeader = "X-User-ID"
	// AdminTokenHeader 携带管理接口的访问令牌
	AdminTokenHeader = "X-Admin-Token"
	// UserIDKey 是Gin上下文中用户ID的键名
	UserIDKey = "userID"
)

// RequireUserMiddleware 校验请求头中的用户ID并放入Gin上下文。
// 平台用户ID由上游网关鉴权后注入，这里只做存在性和长度检查。
func RequireUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少用户标识"})
			return
		}
		if len(userID) > 64 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "用户标识格式不正确"})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// RequireAdminMiddleware 校验管理令牌。未配置令牌时管理接口整体关闭。
func RequireAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := config.Cfg.Bot.AdminToken
		if expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "管理接口未启用"})
			return
		}
		if c.GetHeader(AdminTokenHeader) != expected {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "管理令牌不正确"})
			return
		}
		c.Next()
	}
}

// MustGetUserID 从Gin上下文中取出用户ID，middleware保证其存在。
func MustGetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
