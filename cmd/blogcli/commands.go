package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"scholar-blog/cmd/blogcli/apiclient"
	"scholar-blog/dto"
	"scholar-blog/filter"
	"scholar-blog/models"
)

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "login")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	password, err := a.readPassword("Password: ")
	if err != nil {
		return err
	}
	out, err := a.client.Login(ctx, *email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s %s (%s)\n", out.User.FirstName, out.User.LastName, out.User.Role)
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "register")
	email := fs.String("email", "", "account email")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *first == "" || *last == "" {
		return errors.New("-email, -first and -last are required")
	}

	password, err := a.readPassword("Choose a password: ")
	if err != nil {
		return err
	}
	out, err := a.client.Register(ctx, dto.RegisterRequest{
		Email:     *email,
		Password:  password,
		FirstName: *first,
		LastName:  *last,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s! You are registered as a %s.\n", out.User.FirstName, out.User.Role)
	return nil
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func runWhoami(ctx context.Context, a *app, _ []string) error {
	me, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s <%s>\nrole: %s\n", me.FirstName, me.LastName, me.Email, me.Role)
	return nil
}

func runPosts(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "posts")
	query := fs.String("q", "", "search text")
	searchType := fs.String("type", string(filter.SearchAll), "all, title, content, author or tags")
	category := fs.String("category", "", "category id or slug")
	sortBy := fs.String("sort", string(filter.SortNewest), "newest, oldest or popular")
	page := fs.Int("page", 1, "page number")
	window := fs.Int("window", a.cfg.Client.PostWindow, "number of posts fetched before filtering")
	if err := fs.Parse(args); err != nil {
		return err
	}

	posts, err := a.fetchPosts(ctx, *window)
	if err != nil {
		return err
	}

	ctl := filter.NewController(posts, filter.WithPipeline(filter.NewPipeline(a.cfg.Filter.PageSize)))
	defer ctl.Close()

	ctl.SetCategory(*category)
	ctl.SetSearchType(filter.ParseSearchType(*searchType))
	ctl.SetSortBy(filter.ParseSortBy(*sortBy))
	ctl.SetQuery(*query)
	ctl.FlushQuery()
	ctl.SetPage(clampPage(*page, ctl.Result().TotalPages))

	printResult(a.out, ctl.State(), ctl.Result())
	return nil
}

func runView(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: blogcli view <id>")
	}
	post, err := a.client.GetPost(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.client.IncrementView(ctx, post.ID); err != nil {
		fmt.Fprintln(a.errOut, "warning: view not counted:", describe(err))
	}
	printPost(a.out, post)
	return nil
}

func runCategories(ctx context.Context, a *app, _ []string) error {
	cats, err := a.client.ListCategories(ctx)
	if err != nil {
		return err
	}
	printCategories(a.out, cats)
	return nil
}

func runSuggest(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "suggest")
	query := fs.String("q", "", "search text")
	searchType := fs.String("type", string(filter.SearchAll), "all, title, content, author or tags")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*query) == "" {
		return errors.New("-q is required")
	}

	printSuggestions(a.out, a.client.Suggestions(ctx, *query, string(filter.ParseSearchType(*searchType))))
	return nil
}

// fetchPosts loads the window of published posts the filter runs on.
func (a *app) fetchPosts(ctx context.Context, window int) ([]dto.PostDTO, error) {
	if window <= 0 {
		window = a.cfg.Client.PostWindow
	}
	list, err := a.client.ListPosts(ctx, apiclient.ListPostsParams{
		Page:   1,
		Limit:  window,
		Status: models.PostStatusPublished,
	})
	if err != nil {
		return nil, err
	}
	return list.Posts, nil
}

// readPassword reads without echo from a terminal, or one line otherwise.
func (a *app) readPassword(prompt string) (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.errOut, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}

func clampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}
