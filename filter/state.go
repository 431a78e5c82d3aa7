// Package filter derives the visible page of posts from a fetched window
// and the current filter state. Everything except Controller and Debouncer
// is a pure function of its inputs.
package filter

import (
	"strings"

	"scholar-blog/dto"
)

// DefaultPageSize is the number of posts shown per page.
const DefaultPageSize = 9

type SortBy string

const (
	SortNewest  SortBy = "newest"
	SortOldest  SortBy = "oldest"
	SortPopular SortBy = "popular"
)

// ParseSortBy maps unknown values to SortNewest.
func ParseSortBy(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortPopular:
		return SortPopular
	default:
		return SortNewest
	}
}

type SearchType string

const (
	SearchAll     SearchType = "all"
	SearchTitle   SearchType = "title"
	SearchAuthor  SearchType = "author"
	SearchContent SearchType = "content"
	SearchTags    SearchType = "tags"
)

// ParseSearchType maps unknown values to SearchAll.
func ParseSearchType(s string) SearchType {
	switch t := SearchType(strings.ToLower(strings.TrimSpace(s))); t {
	case SearchTitle, SearchAuthor, SearchContent, SearchTags:
		return t
	default:
		return SearchAll
	}
}

// State is the user's filter selection. It is a value: every change
// produces a new State.
//
// Query is what the user is typing; only DebouncedQuery is used for
// matching.
type State struct {
	Query          string
	DebouncedQuery string
	Category       string
	SortBy         SortBy
	SearchType     SearchType
	Page           int
}

// DefaultState is the state after "clear filters".
func DefaultState() State {
	return State{
		SortBy:     SortNewest,
		SearchType: SearchAll,
		Page:       1,
	}
}

// Result is the output of the pipeline.
type Result struct {
	PageItems    []dto.PostDTO
	TotalMatched int
	TotalPages   int
	Page         int
}
