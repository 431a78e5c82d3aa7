package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"scholar-blog/dto"
	"scholar-blog/models"
	"scholar-blog/repositories/memstore"
)

// failingPostStore 는 모든 추천어 조회를 실패시킨다.
type failingPostStore struct {
	*memstore.PostRepository
}

func (failingPostStore) SuggestTitles(context.Context, string, int64) ([]models.Post, error) {
	return nil, errors.New("mongo down")
}

type postFixture struct {
	svc        *PostService
	posts      *memstore.PostRepository
	cats       *memstore.CategoryRepository
	users      *memstore.UserRepository
	biology    models.Category
	researcher models.User
	published  models.Post
	draft      models.Post
}

func newPostFixture() *postFixture {
	biology := models.Category{ID: primitive.NewObjectID(), Name: "Biology", Slug: "biology"}
	virology := models.Category{ID: primitive.NewObjectID(), Name: "Virology", Slug: "virology"}
	researcher := models.User{ID: primitive.NewObjectID(), FirstName: "Rosalind", LastName: "Franklin", Role: models.RoleResearcher}

	published := models.Post{
		ID:        primitive.NewObjectID(),
		Status:    models.PostStatusPublished,
		Title:     "Viral Replication",
		Tags:      []string{"virus", "rna"},
		Author:    researcher.AuthorRef(),
		Category:  virology.Ref(),
		CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	draft := models.Post{
		ID:       primitive.NewObjectID(),
		Status:   models.PostStatusDraft,
		Title:    "Viral Vectors (draft)",
		Author:   researcher.AuthorRef(),
		Category: virology.Ref(),
	}

	posts := memstore.NewPostRepository(published, draft)
	users := memstore.NewUserRepository()
	_ = users.Insert(context.Background(), &researcher)
	cats := memstore.NewCategoryRepository(biology, virology)
	return &postFixture{
		svc:        NewPostService(posts, cats, users),
		posts:      posts,
		cats:       cats,
		users:      users,
		biology:    biology,
		researcher: researcher,
		published:  published,
		draft:      draft,
	}
}

func TestListShowsOnlyPublishedToReaders(t *testing.T) {
	f := newPostFixture()

	out, err := f.svc.List(context.Background(), ListPostsInput{Status: models.PostStatusDraft, Limit: 9})
	require.NoError(t, err)

	require.Len(t, out.Posts, 1)
	assert.Equal(t, "Viral Replication", out.Posts[0].Title)
	assert.EqualValues(t, 1, out.Total)
	assert.Equal(t, 1, out.TotalPages)
}

func TestListLetsResearchersFilterByStatus(t *testing.T) {
	f := newPostFixture()

	out, err := f.svc.List(context.Background(), ListPostsInput{Status: models.PostStatusDraft, ViewerRole: models.RoleResearcher})
	require.NoError(t, err)

	require.Len(t, out.Posts, 1)
	assert.Equal(t, models.PostStatusDraft, out.Posts[0].Status)
}

func TestListComputesTotalPages(t *testing.T) {
	f := newPostFixture()
	for i := 0; i < 19; i++ {
		require.NoError(t, f.posts.Insert(context.Background(), &models.Post{Status: models.PostStatusPublished}))
	}

	out, err := f.svc.List(context.Background(), ListPostsInput{Limit: 9})
	require.NoError(t, err)

	assert.EqualValues(t, 20, out.Total)
	assert.Equal(t, 3, out.TotalPages)
}

func TestListRejectsBadAuthorID(t *testing.T) {
	f := newPostFixture()

	_, err := f.svc.List(context.Background(), ListPostsInput{Author: "nope"})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestGetByID(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	got, err := f.svc.GetByID(ctx, f.published.ID.Hex(), "")
	require.NoError(t, err)
	assert.Equal(t, f.published.Title, got.Title)

	_, err = f.svc.GetByID(ctx, "zzz", "")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = f.svc.GetByID(ctx, primitive.NewObjectID().Hex(), "")
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = f.svc.GetByID(ctx, f.draft.ID.Hex(), models.RoleReader)
	assert.ErrorIs(t, err, ErrPostNotFound, "drafts are hidden from readers")

	_, err = f.svc.GetByID(ctx, f.draft.ID.Hex(), models.RoleAdmin)
	assert.NoError(t, err)
}

func TestIncrementViewCount(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.IncrementViewCount(ctx, f.published.ID.Hex()))
	got, err := f.svc.GetByID(ctx, f.published.ID.Hex(), "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Views)

	assert.ErrorIs(t, f.svc.IncrementViewCount(ctx, primitive.NewObjectID().Hex()), ErrPostNotFound)
	assert.ErrorIs(t, f.svc.IncrementViewCount(ctx, "bad"), ErrInvalidID)
}

func TestCreateValidatesInput(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()
	authorID := f.researcher.ID.Hex()

	tests := []struct {
		name string
		in   dto.CreatePostRequest
		code string
	}{
		{"missing title", dto.CreatePostRequest{Content: "x", CategoryID: f.biology.ID.Hex()}, "title_required"},
		{"missing content", dto.CreatePostRequest{Title: "x", CategoryID: f.biology.ID.Hex()}, "content_required"},
		{"bad status", dto.CreatePostRequest{Title: "x", Content: "y", Status: "archived", CategoryID: f.biology.ID.Hex()}, "invalid_status"},
		{"missing category", dto.CreatePostRequest{Title: "x", Content: "y"}, "category_required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, authorID, tt.in)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.code, vErr.Code)
		})
	}

	_, err := f.svc.Create(ctx, authorID, dto.CreatePostRequest{Title: "x", Content: "y", CategoryID: primitive.NewObjectID().Hex()})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCreateStoresDenormalizedPost(t *testing.T) {
	f := newPostFixture()

	got, err := f.svc.Create(context.Background(), f.researcher.ID.Hex(), dto.CreatePostRequest{
		Title:      "  Bacterial Growth ",
		Content:    "Doubling every 20 minutes.",
		Tags:       []string{"bacteria", " Bacteria", "", "growth"},
		CategoryID: f.biology.ID.Hex(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Bacterial Growth", got.Title)
	assert.Equal(t, models.PostStatusDraft, got.Status)
	assert.Equal(t, []string{"bacteria", "growth"}, got.Tags)
	assert.Equal(t, "biology", got.Category.Slug)
	assert.Equal(t, "Rosalind Franklin", got.Author.FullName())
}

func TestSuggestions(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	out, err := f.svc.Suggestions(ctx, "v", "all")
	require.NoError(t, err)
	assert.NotNil(t, out.Suggestions)
	assert.Empty(t, out.Suggestions, "one-letter queries get no suggestions")

	out, err = f.svc.Suggestions(ctx, "vir", "title")
	require.NoError(t, err)
	require.NotEmpty(t, out.Suggestions)
	for _, s := range out.Suggestions {
		assert.Equal(t, "title", s.Type)
		assert.NotEmpty(t, s.PostID)
	}

	out, err = f.svc.Suggestions(ctx, "vir", "all")
	require.NoError(t, err)
	types := map[string]bool{}
	for _, s := range out.Suggestions {
		types[s.Type] = true
	}
	assert.True(t, types["title"])
	assert.True(t, types["tag"])
	assert.True(t, types["category"])
	assert.LessOrEqual(t, len(out.Suggestions), maxSuggestions)

	out, err = f.svc.Suggestions(ctx, "franklin", "author")
	require.NoError(t, err)
	require.Len(t, out.Suggestions, 1)
	assert.Equal(t, "Rosalind Franklin", out.Suggestions[0].Display)
}

func TestSuggestionsPropagatesStoreErrors(t *testing.T) {
	f := newPostFixture()
	svc := NewPostService(failingPostStore{f.posts}, f.cats, f.users)

	_, err := svc.Suggestions(context.Background(), "vir", "title")
	assert.Error(t, err)
}
