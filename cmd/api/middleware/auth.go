package middleware

import (
	"errors"
	"slices"

	"github.com/gin-gonic/gin"

	"scholar-blog/cmd/api/auth"
	"scholar-blog/cmd/internal/logger"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// TokenParser 는 access 토큰을 검증한다. *auth.JWTManager 가 구현한다.
type TokenParser interface {
	ParseAccess(token string) (*auth.Claims, error)
}

// RequireAuth 는 요청 헤더의 access 토큰을 검증하고 사용자 정보를 컨텍스트에 저장한다.
// 만료된 토큰은 token_expired 로 응답해 클라이언트가 refresh 를 시도할 수 있게 한다.
func RequireAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c)
		if err != nil {
			auth.AbortWithUnauthorized(c, err)
			return
		}

		claims, err := tokens.ParseAccess(token)
		if err != nil {
			logger.DebugWithFields("token parse error", logger.Fields{"error": err.Error()})
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				auth.AbortWithUnauthorized(c, auth.ErrTokenExpired)
			default:
				auth.AbortWithUnauthorized(c, auth.ErrInvalidToken)
			}
			return
		}

		// 컨텍스트에 사용자 정보 저장
		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RequireRole 은 RequireAuth 뒤에서 사용하며, role 이 roles 중 하나인지 확인한다.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if !slices.Contains(roles, role) {
			userID, _ := UserID(c)
			logger.WarnWithFields("access denied", logger.Fields{
				"user_id": userID,
				"role":    role,
				"want":    roles,
			})
			auth.AbortWithForbidden(c, "forbidden_insufficient_permissions")
			return
		}
		c.Next()
	}
}

// UserID 는 RequireAuth 가 저장한 사용자 ID 를 반환한다.
func UserID(c *gin.Context) (string, bool) {
	v := c.GetString(ContextUserID)
	return v, v != ""
}

// OptionalAuth 는 공개 엔드포인트에서 사용한다. 유효한 토큰이 있으면 사용자 정보를
// 저장하고, 없거나 유효하지 않으면 익명 요청으로 그대로 통과시킨다.
func OptionalAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c)
		if err == nil {
			if claims, err := tokens.ParseAccess(token); err == nil {
				c.Set(ContextUserID, claims.Subject)
				c.Set(ContextRole, claims.Role)
			}
		}
		c.Next()
	}
}
