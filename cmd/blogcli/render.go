package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"scholar-blog/dto"
	"scholar-blog/filter"
)

const excerptWidth = 60

func printResult(w io.Writer, s filter.State, r filter.Result) {
	if r.TotalMatched == 0 {
		fmt.Fprintln(w, "No posts found.")
		if s.DebouncedQuery != "" || s.Category != "" {
			fmt.Fprintln(w, "Try a different search term or clear the filters.")
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tCATEGORY\tDATE\tVIEWS")
	for _, p := range r.PageItems {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			p.ID,
			truncate(p.Title, excerptWidth),
			p.Author.FullName(),
			p.Category.Name,
			p.CreatedAt.Format("2006-01-02"),
			p.Views,
		)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\npage %d of %d, %d matching posts", r.Page, r.TotalPages, r.TotalMatched)
	if s.DebouncedQuery != "" {
		fmt.Fprintf(w, " for %q in %s", s.DebouncedQuery, s.SearchType)
	}
	fmt.Fprintf(w, ", sorted by %s\n", s.SortBy)
}

func printPost(w io.Writer, p dto.PostDTO) {
	fmt.Fprintln(w, p.Title)
	fmt.Fprintln(w, strings.Repeat("=", len([]rune(p.Title))))
	fmt.Fprintf(w, "by %s in %s, %s, %d views, %d likes\n",
		p.Author.FullName(), p.Category.Name, p.CreatedAt.Format("2006-01-02"), p.Views, p.Likes)
	if len(p.Tags) > 0 {
		fmt.Fprintf(w, "tags: %s\n", strings.Join(p.Tags, ", "))
	}
	fmt.Fprintln(w)
	if p.Excerpt != "" {
		fmt.Fprintln(w, p.Excerpt)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, p.Content)
}

func printCategories(w io.Writer, cats []dto.CategoryDTO) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tNAME")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Slug, c.Name)
	}
	_ = tw.Flush()
}

func printSuggestions(w io.Writer, list []dto.SuggestionDTO) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No suggestions.")
		return
	}
	for _, s := range list {
		fmt.Fprintf(w, "  [%s] %s\n", s.Type, s.Display)
	}
}

// truncate returns s truncated to max runes.
func truncate(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max-1]) + "…"
}
