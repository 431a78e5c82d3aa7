// Package memstore holds in-memory versions of the Mongo repositories. The
// API server uses them when started with mongo uri "memory://", and tests
// use them in place of a database.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"scholar-blog/models"
	"scholar-blog/repositories"
)

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

type PostRepository struct {
	mu    sync.RWMutex
	posts []models.Post
}

func NewPostRepository(seed ...models.Post) *PostRepository {
	r := &PostRepository{}
	for _, p := range seed {
		_ = r.Insert(context.Background(), &p)
	}
	return r
}

func (r *PostRepository) matches(p models.Post, opt repositories.ListPostsOptions) bool {
	if opt.Status != "" && p.Status != opt.Status {
		return false
	}
	if opt.AuthorID != nil && p.Author.ID != *opt.AuthorID {
		return false
	}
	if opt.Category != "" && p.Category.Slug != opt.Category && p.Category.ID.Hex() != opt.Category {
		return false
	}
	if opt.Search != "" {
		hit := containsFold(p.Title, opt.Search) || containsFold(p.Excerpt, opt.Search) || containsFold(p.Content, opt.Search)
		for _, t := range p.Tags {
			hit = hit || containsFold(t, opt.Search)
		}
		if !hit {
			return false
		}
	}
	return true
}

func (r *PostRepository) List(_ context.Context, opt repositories.ListPostsOptions) ([]models.Post, int64, error) {
	if opt.Page <= 0 {
		opt.Page = 1
	}
	if opt.PageSize <= 0 {
		opt.PageSize = repositories.DefaultPageSize
	}
	if opt.PageSize > repositories.MaxPageSize {
		opt.PageSize = repositories.MaxPageSize
	}

	r.mu.RLock()
	var hits []models.Post
	for _, p := range r.posts {
		if r.matches(p, opt) {
			hits = append(hits, p)
		}
	}
	r.mu.RUnlock()

	slices.SortStableFunc(hits, func(a, b models.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	total := int64(len(hits))
	start := (opt.Page - 1) * opt.PageSize
	if start >= len(hits) {
		return []models.Post{}, total, nil
	}
	end := min(start+opt.PageSize, len(hits))
	return slices.Clone(hits[start:end]), total, nil
}

func (r *PostRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.posts {
		if r.posts[i].ID == id {
			p := r.posts[i]
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *PostRepository) IncrementViewCount(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.posts {
		if r.posts[i].ID == id {
			r.posts[i].ViewCount++
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *PostRepository) Insert(_ context.Context, p *models.Post) error {
	now := time.Now()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Tags == nil {
		p.Tags = []string{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, *p)
	return nil
}

func (r *PostRepository) published() []models.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if p.Status == models.PostStatusPublished {
			out = append(out, p)
		}
	}
	return out
}

func (r *PostRepository) SuggestTitles(_ context.Context, query string, limit int64) ([]models.Post, error) {
	posts := r.published()
	slices.SortStableFunc(posts, func(a, b models.Post) int {
		return cmp.Compare(b.ViewCount, a.ViewCount)
	})
	var out []models.Post
	for _, p := range posts {
		if int64(len(out)) == limit {
			break
		}
		if containsFold(p.Title, query) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PostRepository) SuggestTags(_ context.Context, query string, limit int) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, p := range r.published() {
		for _, t := range p.Tags {
			if len(out) == limit {
				return out, nil
			}
			if containsFold(t, query) && !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (r *PostRepository) SuggestAuthors(_ context.Context, query string, limit int) ([]models.AuthorRef, error) {
	var out []models.AuthorRef
	seen := map[primitive.ObjectID]bool{}
	for _, p := range r.published() {
		if len(out) == limit {
			break
		}
		a := p.Author
		if seen[a.ID] || !(containsFold(a.FirstName, query) || containsFold(a.LastName, query)) {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	slices.SortStableFunc(out, func(a, b models.AuthorRef) int {
		return cmp.Compare(a.LastName, b.LastName)
	})
	return out, nil
}

type CategoryRepository struct {
	mu   sync.RWMutex
	cats []models.Category
}

func NewCategoryRepository(seed ...models.Category) *CategoryRepository {
	r := &CategoryRepository{}
	for _, c := range seed {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		r.cats = append(r.cats, c)
	}
	return r
}

func (r *CategoryRepository) sorted() []models.Category {
	r.mu.RLock()
	out := slices.Clone(r.cats)
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b models.Category) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

func (r *CategoryRepository) List(context.Context) ([]models.Category, error) {
	out := r.sorted()
	if out == nil {
		out = []models.Category{}
	}
	return out, nil
}

func (r *CategoryRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.cats {
		if r.cats[i].ID == id {
			c := r.cats[i]
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *CategoryRepository) SuggestNames(_ context.Context, query string, limit int64) ([]models.Category, error) {
	out := []models.Category{}
	for _, c := range r.sorted() {
		if int64(len(out)) == limit {
			break
		}
		if containsFold(c.Name, query) {
			out = append(out, c)
		}
	}
	return out, nil
}

type UserRepository struct {
	mu    sync.RWMutex
	users []models.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) Insert(_ context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repositories.ErrDuplicate
		}
	}
	now := time.Now()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	r.users = append(r.users, *u)
	return nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *UserRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

// Delete removes a user. Posts keep their author snapshot.
func (r *UserRepository) Delete(id primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = slices.DeleteFunc(r.users, func(u models.User) bool { return u.ID == id })
}

func (r *UserRepository) find(pred func(models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.users {
		if pred(r.users[i]) {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}
