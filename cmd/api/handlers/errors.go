package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"scholar-blog/cmd/api/services"
	"scholar-blog/cmd/internal/logger"
	"scholar-blog/cmd/internal/trace"
	"scholar-blog/dto"
)

// respondError 는 서비스 에러를 HTTP 상태와 snake_case 에러 코드로 바꿔 응답한다.
// 알 수 없는 에러는 로그로 남기고 internal_error 로 감춘다.
func respondError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, dto.Fail(vErr.Code))
	case errors.Is(err, services.ErrInvalidID):
		c.JSON(http.StatusBadRequest, dto.Fail(services.ErrInvalidID.Error()))
	case errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, dto.Fail(rootCode(err)))
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, dto.Fail(services.ErrEmailTaken.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.Fail(services.ErrInvalidCredentials.Error()))
	case errors.Is(err, services.ErrInvalidRefreshToken):
		c.JSON(http.StatusUnauthorized, dto.Fail(services.ErrInvalidRefreshToken.Error()))
	default:
		logger.ErrorWithFields("request failed", logger.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"error":      err.Error(),
			"request_id": trace.RequestIDFromContext(c.Request.Context()),
		})
		c.JSON(http.StatusInternalServerError, dto.Fail("internal_error"))
	}
}

func rootCode(err error) string {
	for _, sentinel := range []error{services.ErrPostNotFound, services.ErrCategoryNotFound, services.ErrUserNotFound} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "not_found"
}

func badRequest(c *gin.Context, code string) {
	c.JSON(http.StatusBadRequest, dto.Fail(code))
}
