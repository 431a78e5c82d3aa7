package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"scholar-blog/cmd/api/handlers"
	"scholar-blog/cmd/api/middleware"
	"scholar-blog/cmd/api/services"
	"scholar-blog/models"
)

// Deps 는 라우터가 사용하는 서비스 묶음이다.
type Deps struct {
	Posts  *services.PostService
	Auth   *services.AuthService
	Tokens middleware.TokenParser
	// Health 는 저장소 연결 상태를 확인한다. nil 이면 항상 ok.
	Health func(ctx context.Context) error
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestTrace())

	// 헬스 체크
	r.GET("/health", func(c *gin.Context) {
		if d.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := d.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mongo": "down", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// v1 라우트
	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", handlers.RegisterHandler(d.Auth))
		authGroup.POST("/login", handlers.LoginHandler(d.Auth))
		authGroup.POST("/refresh-token", handlers.RefreshTokenHandler(d.Auth))
		authGroup.GET("/me", middleware.RequireAuth(d.Tokens), handlers.MeHandler(d.Auth))

		public := api.Group("", middleware.OptionalAuth(d.Tokens))
		public.GET("/posts", handlers.ListPostsHandler(d.Posts))
		public.GET("/posts/search/suggestions", handlers.SuggestionsHandler(d.Posts))
		public.GET("/posts/:id", handlers.GetPostHandler(d.Posts))
		public.POST("/posts/:id/view", handlers.IncrementPostViewCountHandler(d.Posts))
		public.GET("/categories", handlers.ListCategoriesHandler(d.Posts))

		api.POST("/posts",
			middleware.RequireAuth(d.Tokens),
			middleware.RequireRole(models.RoleResearcher, models.RoleAdmin),
			handlers.CreatePostHandler(d.Posts),
		)
	}

	return r
}
