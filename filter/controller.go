package filter

import (
	"context"
	"strings"
	"sync"
	"time"

	"scholar-blog/dto"
)

// SuggestionSource fetches search suggestions. Implementations return an
// empty list instead of an error.
type SuggestionSource interface {
	Suggestions(ctx context.Context, query, searchType string) []dto.SuggestionDTO
}

// Controller owns the filter State for one view. Every change recomputes
// the Result synchronously and reports it to the OnChange listener.
// Typing goes through a Debouncer; only the debounced query is matched.
type Controller struct {
	pipeline *Pipeline
	onChange func(State, Result)

	suggest   SuggestionSource
	onSuggest func([]dto.SuggestionDTO)

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	posts       []dto.PostDTO
	state       State
	result      Result
	suggestions []dto.SuggestionDTO
	suggestSeq  uint64

	debouncer *Debouncer
}

type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	pipeline  *Pipeline
	debounce  time.Duration
	onChange  func(State, Result)
	suggest   SuggestionSource
	onSuggest func([]dto.SuggestionDTO)
}

func WithPipeline(p *Pipeline) ControllerOption {
	return func(o *controllerOptions) { o.pipeline = p }
}

func WithDebounce(d time.Duration) ControllerOption {
	return func(o *controllerOptions) { o.debounce = d }
}

// WithOnChange registers the listener called after every recompute.
// It runs without the controller lock held.
func WithOnChange(fn func(State, Result)) ControllerOption {
	return func(o *controllerOptions) { o.onChange = fn }
}

// WithSuggestions fetches suggestions for each debounced query and hands
// them to fn. A response for an older query is dropped.
func WithSuggestions(src SuggestionSource, fn func([]dto.SuggestionDTO)) ControllerOption {
	return func(o *controllerOptions) {
		o.suggest = src
		o.onSuggest = fn
	}
}

func NewController(posts []dto.PostDTO, opts ...ControllerOption) *Controller {
	o := controllerOptions{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pipeline == nil {
		o.pipeline = NewPipeline(DefaultPageSize)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		pipeline:  o.pipeline,
		onChange:  o.onChange,
		suggest:   o.suggest,
		onSuggest: o.onSuggest,
		ctx:       ctx,
		cancel:    cancel,
		posts:     posts,
		state:     DefaultState(),
	}
	c.debouncer = NewDebouncer(o.debounce, c.applyDebouncedQuery)
	c.result = c.pipeline.Apply(c.posts, c.state)
	return c
}

// State returns the current filter state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the last computed result.
func (c *Controller) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Suggestions returns the latest accepted suggestion list.
func (c *Controller) Suggestions() []dto.SuggestionDTO {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suggestions
}

// SetPosts replaces the post window.
func (c *Controller) SetPosts(posts []dto.PostDTO) {
	c.update(func(s *State) { c.posts = posts })
}

// SetQuery records what the user typed and restarts the debounce timer.
// Matching is unaffected until the timer fires.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	c.state.Query = q
	c.mu.Unlock()
	c.debouncer.Trigger()
}

// FlushQuery applies a pending query immediately.
func (c *Controller) FlushQuery() {
	c.debouncer.Flush()
}

func (c *Controller) SetCategory(category string) {
	c.update(func(s *State) {
		s.Category = category
		s.Page = 1
	})
}

func (c *Controller) SetSearchType(t SearchType) {
	c.update(func(s *State) {
		s.SearchType = t
		s.Page = 1
	})
}

func (c *Controller) SetSortBy(by SortBy) {
	c.update(func(s *State) { s.SortBy = by })
}

// SetPage selects a page. The caller clamps it to [1, TotalPages].
func (c *Controller) SetPage(page int) {
	c.update(func(s *State) { s.Page = page })
}

// ClearFilters drops any pending query and restores DefaultState.
func (c *Controller) ClearFilters() {
	c.debouncer.Cancel()
	c.update(func(s *State) {
		*s = DefaultState()
		c.suggestSeq++
		c.suggestions = nil
	})
}

// Close stops the debouncer and abandons in-flight suggestion requests.
func (c *Controller) Close() {
	c.debouncer.Stop()
	c.cancel()
}

func (c *Controller) applyDebouncedQuery() {
	var query string
	var searchType SearchType
	c.update(func(s *State) {
		s.DebouncedQuery = s.Query
		s.Page = 1
		query, searchType = s.DebouncedQuery, s.SearchType
	})
	c.fetchSuggestions(query, searchType)
}

// update mutates the state under the lock, recomputes and notifies.
func (c *Controller) update(mutate func(s *State)) {
	c.mu.Lock()
	mutate(&c.state)
	c.result = c.pipeline.Apply(c.posts, c.state)
	state, result := c.state, c.result
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(state, result)
	}
}

func (c *Controller) fetchSuggestions(query string, searchType SearchType) {
	if c.suggest == nil {
		return
	}

	c.mu.Lock()
	c.suggestSeq++
	seq := c.suggestSeq
	if strings.TrimSpace(query) == "" {
		c.suggestions = nil
		c.mu.Unlock()
		c.publishSuggestions(nil)
		return
	}
	c.mu.Unlock()

	go func() {
		list := c.suggest.Suggestions(c.ctx, query, string(searchType))

		c.mu.Lock()
		if seq != c.suggestSeq || c.ctx.Err() != nil {
			c.mu.Unlock()
			return
		}
		c.suggestions = list
		c.mu.Unlock()
		c.publishSuggestions(list)
	}()
}

func (c *Controller) publishSuggestions(list []dto.SuggestionDTO) {
	if c.onSuggest != nil {
		c.onSuggest(list)
	}
}
