package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"scholar-blog/cmd/internal/logger"
	"scholar-blog/cmd/internal/trace"
	"scholar-blog/dto"
)

// Recovery 는 핸들러 panic 을 구조화 로그로 남기고 공통 에러 응답으로 바꾼다.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorWithFields("panic recovered", logger.Fields{
					"method":     c.Request.Method,
					"path":       c.Request.URL.Path,
					"panic":      fmt.Sprint(r),
					"stack":      string(debug.Stack()),
					"request_id": trace.RequestIDFromContext(c.Request.Context()),
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Fail("internal_error"))
			}
		}()
		c.Next()
	}
}
