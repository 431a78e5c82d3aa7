package services

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"scholar-blog/dto"
	"scholar-blog/models"
	"scholar-blog/repositories"
)

const (
	minSuggestionQuery = 2
	maxSuggestions     = 8
)

// PostStore 는 PostService 가 사용하는 포스트 저장소다. *repositories.PostRepository 가 구현한다.
type PostStore interface {
	List(ctx context.Context, opt repositories.ListPostsOptions) ([]models.Post, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	IncrementViewCount(ctx context.Context, id primitive.ObjectID) error
	Insert(ctx context.Context, p *models.Post) error
	SuggestTitles(ctx context.Context, query string, limit int64) ([]models.Post, error)
	SuggestTags(ctx context.Context, query string, limit int) ([]string, error)
	SuggestAuthors(ctx context.Context, query string, limit int) ([]models.AuthorRef, error)
}

// CategoryStore 는 *repositories.CategoryRepository 가 구현한다.
type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	SuggestNames(ctx context.Context, query string, limit int64) ([]models.Category, error)
}

// PostService 는 포스트 비즈니스 로직과 DTO 매핑을 담당한다.
type PostService struct {
	posts      PostStore
	categories CategoryStore
	users      UserStore
}

func NewPostService(posts PostStore, categories CategoryStore, users UserStore) *PostService {
	return &PostService{posts: posts, categories: categories, users: users}
}

type ListPostsInput struct {
	Page     int
	Limit    int
	Category string // id hex 또는 slug
	Search   string
	Status   string
	Author   string // 작성자 id hex
	// ViewerRole 는 요청자의 role 이다. 익명이면 빈 문자열.
	ViewerRole string
}

// List 는 포스트 목록을 반환한다. researcher/admin 이 아니면 published 만 보인다.
func (s *PostService) List(ctx context.Context, in ListPostsInput) (dto.PostListDTO, error) {
	opt := repositories.ListPostsOptions{
		Page:     in.Page,
		PageSize: in.Limit,
		Category: strings.TrimSpace(in.Category),
		Search:   strings.TrimSpace(in.Search),
		Status:   in.Status,
	}
	if !canSeeDrafts(in.ViewerRole) {
		opt.Status = models.PostStatusPublished
	}
	if in.Author != "" {
		oid, err := primitive.ObjectIDFromHex(in.Author)
		if err != nil {
			return dto.PostListDTO{}, ErrInvalidID
		}
		opt.AuthorID = &oid
	}

	posts, total, err := s.posts.List(ctx, opt)
	if err != nil {
		return dto.PostListDTO{}, err
	}

	pageSize := in.Limit
	if pageSize <= 0 {
		pageSize = repositories.DefaultPageSize
	}
	if pageSize > repositories.MaxPageSize {
		pageSize = repositories.MaxPageSize
	}

	out := make([]dto.PostDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, dto.NewPostDTO(p))
	}
	return dto.PostListDTO{
		Posts:      out,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

// GetByID 는 ObjectID hex 로 포스트를 읽어 DTO 로 반환한다.
func (s *PostService) GetByID(ctx context.Context, hexID, viewerRole string) (dto.PostDTO, error) {
	oid, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return dto.PostDTO{}, ErrInvalidID
	}
	p, err := s.posts.GetByID(ctx, oid)
	if errors.Is(err, repositories.ErrNotFound) {
		return dto.PostDTO{}, ErrPostNotFound
	}
	if err != nil {
		return dto.PostDTO{}, err
	}
	// 초안은 작성 권한이 있는 사용자에게만 보인다.
	if p.Status != models.PostStatusPublished && !canSeeDrafts(viewerRole) {
		return dto.PostDTO{}, ErrPostNotFound
	}
	return dto.NewPostDTO(*p), nil
}

// IncrementViewCount 는 ObjectID hex 로 찾은 포스트의 view_count 를 1 올린다.
func (s *PostService) IncrementViewCount(ctx context.Context, hexID string) error {
	oid, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return ErrInvalidID
	}
	if err := s.posts.IncrementViewCount(ctx, oid); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

// Create 는 authorID 사용자의 새 포스트를 저장한다.
func (s *PostService) Create(ctx context.Context, authorID string, in dto.CreatePostRequest) (dto.PostDTO, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	switch {
	case title == "":
		return dto.PostDTO{}, invalid("title_required")
	case content == "":
		return dto.PostDTO{}, invalid("content_required")
	}

	status := in.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if status != models.PostStatusDraft && status != models.PostStatusPublished {
		return dto.PostDTO{}, invalid("invalid_status")
	}

	catID, err := primitive.ObjectIDFromHex(in.CategoryID)
	if err != nil {
		return dto.PostDTO{}, invalid("category_required")
	}
	category, err := s.categories.FindByID(ctx, catID)
	if errors.Is(err, repositories.ErrNotFound) {
		return dto.PostDTO{}, ErrCategoryNotFound
	}
	if err != nil {
		return dto.PostDTO{}, err
	}

	uid, err := primitive.ObjectIDFromHex(authorID)
	if err != nil {
		return dto.PostDTO{}, ErrInvalidID
	}
	author, err := s.users.FindByID(ctx, uid)
	if errors.Is(err, repositories.ErrNotFound) {
		return dto.PostDTO{}, ErrUserNotFound
	}
	if err != nil {
		return dto.PostDTO{}, err
	}

	p := &models.Post{
		Status:   status,
		Title:    title,
		Excerpt:  strings.TrimSpace(in.Excerpt),
		Content:  content,
		Tags:     normalizeTags(in.Tags),
		Author:   author.AuthorRef(),
		Category: category.Ref(),
	}
	if err := s.posts.Insert(ctx, p); err != nil {
		return dto.PostDTO{}, err
	}
	return dto.NewPostDTO(*p), nil
}

// ListCategories 는 모든 카테고리를 반환한다.
func (s *PostService) ListCategories(ctx context.Context) ([]dto.CategoryDTO, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, dto.NewCategoryDTO(c))
	}
	return out, nil
}

// Suggestions 는 검색어 자동완성 후보를 반환한다.
// searchType 은 all, title, content, author, tags 중 하나이며 모르는 값은 all 로 취급한다.
// 두 글자 미만의 검색어는 빈 목록을 반환한다.
func (s *PostService) Suggestions(ctx context.Context, query, searchType string) (dto.SuggestionListDTO, error) {
	out := dto.SuggestionListDTO{Suggestions: []dto.SuggestionDTO{}}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSuggestionQuery {
		return out, nil
	}

	var err error
	add := func(list []dto.SuggestionDTO, e error) {
		if e != nil && err == nil {
			err = e
		}
		out.Suggestions = append(out.Suggestions, list...)
	}

	switch searchType {
	case "title", "content":
		add(s.titleSuggestions(ctx, query, maxSuggestions))
	case "tags":
		add(s.tagSuggestions(ctx, query, maxSuggestions))
	case "author":
		add(s.authorSuggestions(ctx, query, maxSuggestions))
	default:
		add(s.titleSuggestions(ctx, query, 3))
		add(s.tagSuggestions(ctx, query, 2))
		add(s.authorSuggestions(ctx, query, 2))
		add(s.categorySuggestions(ctx, query, 1))
	}
	if err != nil {
		return dto.SuggestionListDTO{}, err
	}
	if len(out.Suggestions) > maxSuggestions {
		out.Suggestions = out.Suggestions[:maxSuggestions]
	}
	return out, nil
}

func (s *PostService) titleSuggestions(ctx context.Context, query string, limit int) ([]dto.SuggestionDTO, error) {
	posts, err := s.posts.SuggestTitles(ctx, query, int64(limit))
	if err != nil {
		return nil, err
	}
	out := make([]dto.SuggestionDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, dto.SuggestionDTO{Type: "title", Value: p.Title, Display: p.Title, PostID: p.ID.Hex()})
	}
	return out, nil
}

func (s *PostService) tagSuggestions(ctx context.Context, query string, limit int) ([]dto.SuggestionDTO, error) {
	tags, err := s.posts.SuggestTags(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SuggestionDTO, 0, len(tags))
	for _, t := range tags {
		out = append(out, dto.SuggestionDTO{Type: "tag", Value: t, Display: "#" + t})
	}
	return out, nil
}

func (s *PostService) authorSuggestions(ctx context.Context, query string, limit int) ([]dto.SuggestionDTO, error) {
	authors, err := s.posts.SuggestAuthors(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SuggestionDTO, 0, len(authors))
	for _, a := range authors {
		name := dto.AuthorDTO{FirstName: a.FirstName, LastName: a.LastName}.FullName()
		out = append(out, dto.SuggestionDTO{Type: "author", Value: name, Display: name})
	}
	return out, nil
}

func (s *PostService) categorySuggestions(ctx context.Context, query string, limit int) ([]dto.SuggestionDTO, error) {
	cats, err := s.categories.SuggestNames(ctx, query, int64(limit))
	if err != nil {
		return nil, err
	}
	out := make([]dto.SuggestionDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, dto.SuggestionDTO{Type: "category", Value: c.Slug, Display: c.Name})
	}
	return out, nil
}

func canSeeDrafts(role string) bool {
	return role == models.RoleResearcher || role == models.RoleAdmin
}

// normalizeTags 는 태그를 trim 하고 빈 값과 중복을 순서를 유지한 채 제거한다.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
