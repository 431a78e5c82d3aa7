package filter

import (
	"slices"
	"strings"

	"scholar-blog/dto"
)

// Pipeline turns a post window and a State into a Result.
// The zero value is usable and behaves like Apply.
type Pipeline struct {
	PageSize int
	Ranker   Ranker
}

// NewPipeline returns a Pipeline with the given page size and the
// default ContainsRanker. A non-positive size selects DefaultPageSize.
func NewPipeline(pageSize int) *Pipeline {
	return &Pipeline{PageSize: pageSize, Ranker: ContainsRanker{}}
}

// Apply runs the pipeline with the default page size and ranker.
func Apply(posts []dto.PostDTO, s State) Result {
	var p Pipeline
	return p.Apply(posts, s)
}

// Apply filters by category, matches DebouncedQuery, sorts and paginates.
// posts is never modified. Page is not clamped: a page outside
// [1, TotalPages] yields no items.
func (p *Pipeline) Apply(posts []dto.PostDTO, s State) Result {
	matched := filterCategory(posts, s.Category)
	if q := strings.TrimSpace(s.DebouncedQuery); q != "" {
		matched = p.match(matched, q, s.SearchType)
	}
	sortPosts(matched, s.SortBy)

	size := p.pageSize()
	res := Result{
		TotalMatched: len(matched),
		TotalPages:   (len(matched) + size - 1) / size,
		Page:         s.Page,
	}
	res.PageItems = paginate(matched, s.Page, size)
	return res
}

func (p *Pipeline) pageSize() int {
	if p == nil || p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}

func (p *Pipeline) ranker() Ranker {
	if p == nil || p.Ranker == nil {
		return ContainsRanker{}
	}
	return p.Ranker
}

// filterCategory copies posts whose category id or slug equals category.
// The result is always a fresh slice so later steps can sort in place.
func filterCategory(posts []dto.PostDTO, category string) []dto.PostDTO {
	category = strings.TrimSpace(category)
	if category == "" {
		return slices.Clone(posts)
	}
	out := make([]dto.PostDTO, 0, len(posts))
	for _, post := range posts {
		if post.Category.ID == category || post.Category.Slug == category {
			out = append(out, post)
		}
	}
	return out
}

type rankedPost struct {
	post dto.PostDTO
	rank Rank
}

// match keeps posts ranked Contains or better, best rank first. If the
// ranker fails on any post the whole set goes through fallbackMatch.
func (p *Pipeline) match(posts []dto.PostDTO, query string, t SearchType) []dto.PostDTO {
	r := p.ranker()
	ranked := make([]rankedPost, 0, len(posts))
	for _, post := range posts {
		rank, err := safeRank(r, query, searchableOf(post).fields(t))
		if err != nil {
			return fallbackMatch(posts, query)
		}
		if rank >= Contains {
			ranked = append(ranked, rankedPost{post: post, rank: rank})
		}
	}
	slices.SortStableFunc(ranked, func(a, b rankedPost) int {
		return int(b.rank) - int(a.rank)
	})

	out := make([]dto.PostDTO, len(ranked))
	for i, rp := range ranked {
		out[i] = rp.post
	}
	return out
}

// sortPosts sorts in place. The sort is stable so ties keep the order
// they arrive in: input order when no query is active, otherwise the
// best-rank-first order produced by match (input order within a rank).
func sortPosts(posts []dto.PostDTO, by SortBy) {
	switch by {
	case SortOldest:
		slices.SortStableFunc(posts, func(a, b dto.PostDTO) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	case SortPopular:
		slices.SortStableFunc(posts, func(a, b dto.PostDTO) int {
			switch {
			case a.Views > b.Views:
				return -1
			case a.Views < b.Views:
				return 1
			}
			return 0
		})
	default:
		slices.SortStableFunc(posts, func(a, b dto.PostDTO) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
}

func paginate(posts []dto.PostDTO, page, size int) []dto.PostDTO {
	// compare page numbers before multiplying so huge pages cannot overflow
	if page < 1 || page-1 >= (len(posts)+size-1)/size {
		return []dto.PostDTO{}
	}
	start := (page - 1) * size
	end := min(start+size, len(posts))
	return posts[start:end]
}
