package filter

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"scholar-blog/dto"
)

// Rank orders how well a field matched the query. Higher is better.
type Rank int

const (
	NoMatch Rank = iota
	Contains
	WordStartsWith
	StartsWith
	Equal
	CaseSensitiveEqual
)

func (r Rank) String() string {
	switch r {
	case Contains:
		return "contains"
	case WordStartsWith:
		return "word-starts-with"
	case StartsWith:
		return "starts-with"
	case Equal:
		return "equal"
	case CaseSensitiveEqual:
		return "case-sensitive-equal"
	default:
		return "no-match"
	}
}

// Ranker scores a post's candidate fields against a query.
// Implementations may return an error; the pipeline then falls back to a
// plain substring scan.
type Ranker interface {
	Rank(query string, fields []string) (Rank, error)
}

// ErrRankerFailed wraps a panic recovered from a Ranker.
var ErrRankerFailed = errors.New("ranker failed")

// fold returns the case-folded form of s. A Caser keeps state, so one is
// created per call instead of being shared.
func fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsRanker ranks with a "contains" threshold: anything below a
// case-insensitive substring hit is NoMatch.
type ContainsRanker struct{}

func (ContainsRanker) Rank(query string, fields []string) (Rank, error) {
	if query == "" {
		return NoMatch, nil
	}
	fq := fold(query)
	best := NoMatch
	for _, f := range fields {
		if f == "" {
			continue
		}
		if r := rankField(f, query, fq); r > best {
			best = r
			if best == CaseSensitiveEqual {
				break
			}
		}
	}
	return best, nil
}

func rankField(field, query, foldedQuery string) Rank {
	if field == query {
		return CaseSensitiveEqual
	}
	ff := fold(field)
	switch {
	case ff == foldedQuery:
		return Equal
	case strings.HasPrefix(ff, foldedQuery):
		return StartsWith
	case strings.Contains(ff, " "+foldedQuery):
		return WordStartsWith
	case strings.Contains(ff, foldedQuery):
		return Contains
	}
	return NoMatch
}

// searchable holds the per-post fields a query can hit.
type searchable struct {
	title    string
	excerpt  string
	content  string
	tags     string
	author   string
	category string
}

func searchableOf(p dto.PostDTO) searchable {
	return searchable{
		title:    p.Title,
		excerpt:  p.Excerpt,
		content:  p.Content,
		tags:     strings.Join(p.Tags, " "),
		author:   p.Author.FullName(),
		category: p.Category.Name,
	}
}

// fields returns the field group selected by t.
func (s searchable) fields(t SearchType) []string {
	switch t {
	case SearchTitle:
		return []string{s.title}
	case SearchAuthor:
		return []string{s.author}
	case SearchContent:
		return []string{s.excerpt, s.content}
	case SearchTags:
		return []string{s.tags}
	default:
		return []string{s.title, s.excerpt, s.content, s.tags, s.author, s.category}
	}
}

func (s searchable) all() string {
	return strings.Join(s.fields(SearchAll), " ")
}

// safeRank calls r and turns a panic into ErrRankerFailed.
func safeRank(r Ranker, query string, fields []string) (rank Rank, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rank, err = NoMatch, fmt.Errorf("%w: %v", ErrRankerFailed, rec)
		}
	}()
	return r.Rank(query, fields)
}

// fallbackMatch is the substring scan used when ranking fails. It must not
// panic and must keep every post whose fields contain query.
func fallbackMatch(posts []dto.PostDTO, query string) []dto.PostDTO {
	fq := fold(query)
	out := make([]dto.PostDTO, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(fold(searchableOf(p).all()), fq) {
			out = append(out, p)
		}
	}
	return out
}
