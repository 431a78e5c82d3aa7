package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scholar-blog/cmd/api/middleware"
	"scholar-blog/cmd/api/services"
	"scholar-blog/cmd/internal/logger"
	"scholar-blog/dto"
)

// RegisterHandler godoc
// @Summary      Register
// @Description  reader 계정을 만들고 access/refresh 토큰을 발급한다.
// @Tags         auth
// @Accept       json
// @Param        body  body  dto.RegisterRequest  true  "Account"
// @Produce      json
// @Success      201  {object}  dto.Response[dto.LoginResponseDTO]
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      409  {object}  dto.ErrorResponseDTO
// @Router       /auth/register [post]
func RegisterHandler(svc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.RegisterRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid_request_body")
			return
		}
		out, err := svc.Register(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		logger.InfoWithFields("user registered", logger.Fields{"user_id": out.User.ID})
		c.JSON(http.StatusCreated, dto.OK(out))
	}
}

// LoginHandler godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Produce      json
// @Success      200  {object}  dto.Response[dto.LoginResponseDTO]
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Router       /auth/login [post]
func LoginHandler(svc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.LoginRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid_request_body")
			return
		}
		out, err := svc.Login(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.OK(out))
	}
}

// RefreshTokenHandler godoc
// @Summary      Refresh access token
// @Description  refresh 토큰으로 새 access 토큰을 발급한다. accessToken 은 응답 최상위에 있다.
// @Tags         auth
// @Accept       json
// @Param        body  body  dto.RefreshTokenRequest  true  "Refresh token"
// @Produce      json
// @Success      200  {object}  dto.RefreshTokenResponse
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Router       /auth/refresh-token [post]
func RefreshTokenHandler(svc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.RefreshTokenRequest
		if err := c.ShouldBindJSON(&in); err != nil || in.RefreshToken == "" {
			badRequest(c, "refresh_token_required")
			return
		}
		access, err := svc.Refresh(c.Request.Context(), in.RefreshToken)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.RefreshTokenResponse{Success: true, AccessToken: access})
	}
}

// MeHandler godoc
// @Summary      Current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dto.Response[dto.UserProfileDTO]
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Router       /auth/me [get]
func MeHandler(svc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		me, err := svc.Me(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.OK(me))
	}
}
