package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"scholar-blog/dto"
	"scholar-blog/filter"
)

const browseHelp = `Type to search. Commands:
  :type <all|title|content|author|tags>   search field group
  :category <slug>                        filter by category, empty to reset
  :sort <newest|oldest|popular>           sort order
  :page <n>, :next, :prev                 pagination
  :clear                                  reset all filters
  :quit                                   leave`

// runBrowse is an interactive loop over one window of posts. Every text
// line is a new query; results are printed when the debounce timer fires,
// suggestions as soon as they arrive.
func runBrowse(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "browse")
	window := fs.Int("window", a.cfg.Client.PostWindow, "number of posts fetched before filtering")
	if err := fs.Parse(args); err != nil {
		return err
	}

	posts, err := a.fetchPosts(ctx, *window)
	if err != nil {
		return err
	}

	var outMu sync.Mutex
	ctl := filter.NewController(posts,
		filter.WithPipeline(filter.NewPipeline(a.cfg.Filter.PageSize)),
		filter.WithDebounce(a.cfg.Filter.Debounce),
		filter.WithOnChange(func(s filter.State, r filter.Result) {
			outMu.Lock()
			defer outMu.Unlock()
			printResult(a.out, s, r)
		}),
		filter.WithSuggestions(a.client, func(list []dto.SuggestionDTO) {
			if len(list) == 0 {
				return
			}
			outMu.Lock()
			defer outMu.Unlock()
			fmt.Fprintln(a.out, "suggestions:")
			printSuggestions(a.out, list)
		}),
	)
	defer ctl.Close()

	fmt.Fprintln(a.out, browseHelp)
	printResult(a.out, ctl.State(), ctl.Result())

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(a.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				ctl.FlushQuery()
				return nil
			}
			if quit := browseLine(ctl, line, a); quit {
				return nil
			}
		}
	}
}

// browseLine applies one input line and reports whether to quit.
func browseLine(ctl *filter.Controller, line string, a *app) bool {
	if !strings.HasPrefix(line, ":") {
		ctl.SetQuery(line)
		return false
	}

	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "quit", "q":
		return true
	case "type":
		ctl.SetSearchType(filter.ParseSearchType(arg))
	case "category":
		ctl.SetCategory(arg)
	case "sort":
		ctl.SetSortBy(filter.ParseSortBy(arg))
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(a.errOut, "page must be a number")
			return false
		}
		ctl.SetPage(clampPage(n, ctl.Result().TotalPages))
	case "next":
		ctl.SetPage(clampPage(ctl.State().Page+1, ctl.Result().TotalPages))
	case "prev":
		ctl.SetPage(clampPage(ctl.State().Page-1, ctl.Result().TotalPages))
	case "clear":
		ctl.ClearFilters()
	case "help":
		fmt.Fprintln(a.out, browseHelp)
	default:
		fmt.Fprintf(a.errOut, "unknown command :%s, try :help\n", cmd)
	}
	return false
}
