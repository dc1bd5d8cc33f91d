package middleware

import (
	"net/http"
	"strings"
	"time"

	"travel-planner/internal/storage"
	"travel-planner/internal/util"

	"github.com/gin-gonic/gin"
)

// CookieName 登录 cookie 的名字
const CookieName = "tp_token"

// AuthMiddleware 校验 JWT，并在 context 里放入当前用户。
func AuthMiddleware(jwtSecret string, store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		// 1) Header: Authorization: Bearer xxx
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = parts[1]
			}
		}

		// 2) URL 查询参数 ?token=xxx（用于下载等无法自定义 Header 的场景）
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		// 3) Cookie（浏览器端的会话标识）
		if tokenStr == "" {
			if cookie, err := c.Cookie(CookieName); err == nil {
				tokenStr = cookie
			}
		}

		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, "未登录")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
			util.Error(c, http.StatusUnauthorized, "登录已失效，请重新登录")
			c.Abort()
			return
		}

		user, err := store.GetUserByID(claims.UserID)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, "查询用户失败")
			c.Abort()
			return
		}
		if user == nil {
			util.Error(c, http.StatusUnauthorized, "用户不存在")
			c.Abort()
			return
		}

		c.Set("currentUser", user)
		c.Next()
	}
}
