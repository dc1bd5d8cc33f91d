package middleware

import (
	"log"
	"time"

	"travel-planner/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLog 给每个请求分配 request id 并记录访问日志。
// 登录用户会一并记下用户 ID，方便排查归属问题。
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := uuid.New().String()
		c.Set("requestID", reqID)
		c.Header("X-Request-ID", reqID)

		start := time.Now()
		c.Next()

		var userID uint
		if v, ok := c.Get("currentUser"); ok {
			if user, ok := v.(*models.User); ok && user != nil {
				userID = user.ID
			}
		}

		log.Printf("[%s] %s %s status=%d user=%d ip=%s cost=%s",
			reqID[:8],
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			userID,
			c.ClientIP(),
			time.Since(start).Round(time.Millisecond),
		)
	}
}
