package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"scholar-blog/cmd/api/middleware"
	"scholar-blog/cmd/api/services"
	"scholar-blog/dto"
)

// ListPostsHandler godoc
// @Summary      List posts
// @Description  List posts with filters and pagination. Readers only see published posts.
// @Tags         posts
// @Param        page      query  int     false  "Page number (1-based)"
// @Param        limit     query  int     false  "Page size (<=100)"
// @Param        category  query  string  false  "Category id or slug"
// @Param        search    query  string  false  "Substring over title, excerpt, content and tags"
// @Param        status    query  string  false  "draft or published (researcher/admin only)"
// @Param        author    query  string  false  "Author id"
// @Produce      json
// @Success      200  {object}  dto.Response[dto.PostListDTO]
// @Router       /posts [get]
func ListPostsHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.ListPostsInput
		in.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
		in.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "9"))
		in.Category = c.Query("category")
		in.Search = c.Query("search")
		in.Status = c.Query("status")
		in.Author = c.Query("author")
		in.ViewerRole = c.GetString(middleware.ContextRole)

		page, err := svc.List(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.OK(page))
	}
}

// GetPostHandler godoc
// @Summary      Get post by id
// @Tags         posts
// @Param        id   path   string  true  "ObjectID"
// @Produce      json
// @Success      200  {object}  dto.Response[dto.PostDTO]
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /posts/{id} [get]
func GetPostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := svc.GetByID(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextRole))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.OK(post))
	}
}

// IncrementPostViewCountHandler godoc
// @Summary      Increment post view count
// @Tags         posts
// @Param        id   path   string  true  "ObjectID"
// @Produce      json
// @Success      200  {object}  dto.MessageResponseDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /posts/{id}/view [post]
func IncrementPostViewCountHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.IncrementViewCount(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Success: true, Message: "view count incremented successfully"})
	}
}

// CreatePostHandler godoc
// @Summary      Create post
// @Description  researcher/admin 만 호출할 수 있다.
// @Tags         posts
// @Accept       json
// @Param        body  body  dto.CreatePostRequest  true  "Post"
// @Produce      json
// @Success      201  {object}  dto.Response[dto.PostDTO]
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      403  {object}  dto.ErrorResponseDTO
// @Router       /posts [post]
func CreatePostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.CreatePostRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid_request_body")
			return
		}
		userID, _ := middleware.UserID(c)

		post, err := svc.Create(c.Request.Context(), userID, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.OK(post))
	}
}

// SuggestionsHandler godoc
// @Summary      Search suggestions
// @Tags         posts
// @Param        q     query  string  true   "Search text (2+ characters)"
// @Param        type  query  string  false  "all, title, content, author or tags"
// @Produce      json
// @Success      200  {object}  dto.Response[dto.SuggestionListDTO]
// @Router       /posts/search/suggestions [get]
func SuggestionsHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.Suggestions(c.Request.Context(), c.Query("q"), c.DefaultQuery("type", "all"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.OK(out))
	}
}

// ListCategoriesHandler godoc
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Success      200  {object}  dto.Response[[]dto.CategoryDTO]
// @Router       /categories [get]
func ListCategoriesHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := svc.ListCategories(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.OK(cats))
	}
}
