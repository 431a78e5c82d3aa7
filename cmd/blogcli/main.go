// Command blogcli browses and searches scholar-blog posts from a terminal.
//
//	blogcli login -email ada@lab.test
//	blogcli posts -q viral -type title -sort popular
//	blogcli browse
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"scholar-blog/cmd/blogcli/apiclient"
	"scholar-blog/cmd/blogcli/credentials"
	"scholar-blog/cmd/internal/httpclient"
	"scholar-blog/cmd/internal/logger"
	"scholar-blog/cmd/internal/trace"
	"scholar-blog/config"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":      {"login -email <email>              log in and store the session", runLogin},
	"register":   {"register -email <email> -first <name> -last <name>", runRegister},
	"logout":     {"logout                            forget the stored session", runLogout},
	"whoami":     {"whoami                            show the logged in user", runWhoami},
	"posts":      {"posts [-q text] [-type t] [-category c] [-sort s] [-page n]", runPosts},
	"view":       {"view <id>                         show one post and count the view", runView},
	"categories": {"categories                        list categories", runCategories},
	"suggest":    {"suggest -q <text> [-type t]       search suggestions", runSuggest},
	"browse":     {"browse                            interactive search", runBrowse},
}

// app bundles what every command needs.
type app struct {
	cfg    config.AppConfig
	client *apiclient.Client
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func main() {
	cfg := config.GetConfig()
	logger.Setup(logger.Options{Level: cfg.Logging.Level, Service: "blogcli", Output: os.Stderr})
	os.Exit(run(cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(cfg config.AppConfig, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	store, err := credentials.Open(credentials.Options{
		Kind:     cfg.Client.CredentialStore,
		FilePath: cfg.Client.CredentialFile,
		RedisURL: cfg.Client.RedisURL,
		RedisKey: cfg.Client.RedisKey,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = trace.WithNewRequest(ctx)

	a := &app{cfg: cfg, in: stdin, out: stdout, errOut: stderr}
	a.client = newClient(cfg, store, stderr)

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintln(stderr, describe(err))
		logger.DebugWithFields("blogcli command failed", logger.Fields{
			"command":    args[0],
			"error":      err.Error(),
			"request_id": trace.RequestIDFromContext(ctx),
		})
		return 1
	}
	return 0
}

func newClient(cfg config.AppConfig, store credentials.Store, stderr io.Writer) *apiclient.Client {
	return apiclient.New(cfg.Client.BaseURL, store,
		apiclient.WithHTTPClient(httpclient.New(httpclient.Config{Timeout: cfg.Client.Timeout})),
		apiclient.WithPublicPaths(cfg.Client.PublicPaths...),
		apiclient.WithOnSessionEnded(func(context.Context) {
			fmt.Fprintln(stderr, "Your session has expired. Run `blogcli login` to sign in again.")
		}),
	)
}

// describe turns client errors into a line fit for a terminal.
func describe(err error) string {
	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, apiclient.ErrSessionEnded):
		return "error: not logged in"
	case errors.As(err, &apiErr) && apiErr.IsNotFound():
		return "error: not found"
	case errors.As(err, &apiErr) && apiErr.IsForbidden():
		return "error: you do not have permission to do that"
	case errors.As(err, &apiErr) && apiErr.IsUnauthorized():
		return "error: authentication required"
	}
	return "error: " + err.Error()
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: blogcli <command> [flags]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}
