package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"scholar-blog/dto"
)

var (
	ErrMissingHeader = errors.New("missing_authorization_header")
	ErrInvalidFormat = errors.New("invalid_authorization_header")
	ErrEmptyToken    = errors.New("empty_token")
)

// ExtractBearerToken 은 Authorization 헤더에서 Bearer 토큰을 꺼낸다.
func ExtractBearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidFormat
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// AbortWithUnauthorized 는 401 과 공통 에러 JSON 으로 요청을 중단한다.
func AbortWithUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail(err.Error()))
}

// AbortWithForbidden 은 403 과 공통 에러 JSON 으로 요청을 중단한다.
func AbortWithForbidden(c *gin.Context, code string) {
	c.AbortWithStatusJSON(http.StatusForbidden, dto.Fail(code))
}
