package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"scholar-blog/cmd/internal/logger"
	"scholar-blog/dto"
)

// ListPostsParams maps to the GET /posts query string. Zero values are
// left out.
type ListPostsParams struct {
	Page     int
	Limit    int
	Category string
	Search   string
	Status   string
	Author   string
}

func (p ListPostsParams) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Author != "" {
		q.Set("author", p.Author)
	}
	return q
}

// getData sends r and unwraps the {success, data} envelope.
func getData[T any](ctx context.Context, c *Client, r Request) (T, error) {
	var out dto.Response[T]
	resp, err := c.Do(ctx, r)
	if err != nil {
		return out.Data, err
	}
	if err := resp.Decode(&out); err != nil {
		return out.Data, err
	}
	return out.Data, nil
}

func (c *Client) ListPosts(ctx context.Context, p ListPostsParams) (dto.PostListDTO, error) {
	return getData[dto.PostListDTO](ctx, c, Request{
		Method: http.MethodGet,
		Path:   "/posts",
		Query:  p.query(),
	})
}

func (c *Client) GetPost(ctx context.Context, id string) (dto.PostDTO, error) {
	return getData[dto.PostDTO](ctx, c, Request{
		Method: http.MethodGet,
		Path:   path.Join("/posts", id),
	})
}

// IncrementView bumps the view counter of a post.
func (c *Client) IncrementView(ctx context.Context, id string) error {
	_, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   path.Join("/posts", id, "view"),
	})
	return err
}

func (c *Client) CreatePost(ctx context.Context, in dto.CreatePostRequest) (dto.PostDTO, error) {
	return getData[dto.PostDTO](ctx, c, Request{
		Method: http.MethodPost,
		Path:   "/posts",
		Body:   in,
	})
}

func (c *Client) ListCategories(ctx context.Context) ([]dto.CategoryDTO, error) {
	return getData[[]dto.CategoryDTO](ctx, c, Request{
		Method: http.MethodGet,
		Path:   "/categories",
	})
}

// Suggestions fetches search suggestions for query. Failures are logged and
// yield an empty list; suggestions are never worth an error dialog.
func (c *Client) Suggestions(ctx context.Context, query, searchType string) []dto.SuggestionDTO {
	q := url.Values{"q": {query}}
	if searchType != "" {
		q.Set("type", searchType)
	}
	out, err := getData[dto.SuggestionListDTO](ctx, c, Request{
		Method: http.MethodGet,
		Path:   "/posts/search/suggestions",
		Query:  q,
	})
	if err != nil {
		logger.DebugWithFields("apiclient suggestions failed", logger.Fields{"error": err.Error()})
		return []dto.SuggestionDTO{}
	}
	if out.Suggestions == nil {
		return []dto.SuggestionDTO{}
	}
	return out.Suggestions
}
