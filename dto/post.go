package dto

import (
	"time"

	"scholar-blog/models"
)

// PostDTO is the wire shape of a post shared by the API server and blogcli.
// IDs are hex strings to keep transport simple.
type PostDTO struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Excerpt   string      `json:"excerpt"`
	Content   string      `json:"content"`
	Tags      []string    `json:"tags"`
	Author    AuthorDTO   `json:"author"`
	Category  CategoryDTO `json:"category"`
	Status    string      `json:"status,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	Views     int64       `json:"views"`
	Likes     int64       `json:"likes"`
}

type AuthorDTO struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// FullName returns "firstName lastName" with missing parts dropped.
func (a AuthorDTO) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PostListDTO is the data section of GET /posts.
type PostListDTO struct {
	Posts      []PostDTO `json:"posts"`
	Total      int64     `json:"total"`
	TotalPages int       `json:"totalPages"`
}

// CreatePostRequest is the body of POST /posts.
type CreatePostRequest struct {
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	CategoryID string   `json:"categoryId"`
	Status     string   `json:"status"`
}

// SuggestionDTO is a single search suggestion.
// Type is one of "title", "tag", "author", "category".
type SuggestionDTO struct {
	Type    string `json:"type"`
	Value   string `json:"value"`
	Display string `json:"display"`
	PostID  string `json:"postId,omitempty"`
}

type SuggestionListDTO struct {
	Suggestions []SuggestionDTO `json:"suggestions"`
}

// NewPostDTO constructs PostDTO from models.Post
func NewPostDTO(p models.Post) PostDTO {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	out := PostDTO{
		ID:      p.ID.Hex(),
		Title:   p.Title,
		Excerpt: p.Excerpt,
		Content: p.Content,
		Tags:    tags,
		Author: AuthorDTO{
			FirstName: p.Author.FirstName,
			LastName:  p.Author.LastName,
		},
		Category: CategoryDTO{
			Name: p.Category.Name,
			Slug: p.Category.Slug,
		},
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		Views:     p.ViewCount,
		Likes:     p.LikeCount,
	}
	if !p.Author.ID.IsZero() {
		out.Author.ID = p.Author.ID.Hex()
	}
	if !p.Category.ID.IsZero() {
		out.Category.ID = p.Category.ID.Hex()
	}
	return out
}

// NewCategoryDTO constructs CategoryDTO from models.Category
func NewCategoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID.Hex(), Name: c.Name, Slug: c.Slug}
}
