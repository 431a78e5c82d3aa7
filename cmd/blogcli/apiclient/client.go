// Package apiclient is the blogcli HTTP client for the scholar-blog API.
//
// Every request carries the stored access token as a bearer credential. A
// 401 on a protected path triggers exactly one refresh-token exchange and
// one retry of the original request; a failed exchange ends the session.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"golang.org/x/sync/singleflight"

	"scholar-blog/cmd/blogcli/credentials"
	"scholar-blog/cmd/internal/httpclient"
	"scholar-blog/cmd/internal/logger"
	"scholar-blog/dto"
)

const (
	DefaultRefreshPath = "/auth/refresh-token"

	maxErrorBody = 2048
)

// ErrSessionEnded is returned when the refresh token could not be exchanged.
// Stored credentials are already cleared; the user has to log in again.
var ErrSessionEnded = errors.New("apiclient: session ended, please log in again")

// APIError is a non-2xx answer from the API that was not resolved by a
// token refresh.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Code is the snake_case "error" field of the response envelope.
	Code    string
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status=%d %s", e.Method, e.Path, e.StatusCode, msg)
}

func (e *APIError) IsNotFound() bool     { return e.StatusCode == http.StatusNotFound }
func (e *APIError) IsForbidden() bool    { return e.StatusCode == http.StatusForbidden }
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

// Request describes one API call. Path is relative to the base URL and
// must not contain a query string. Body is JSON encoded unless it is
// already a []byte.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is a successful (2xx) API answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

type Option func(*Client)

// WithHTTPClient replaces the default logging http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.base = httpclient.NewBaseClientWithClient(hc, c.base.BaseURL) }
}

// WithPublicPaths sets the allowlist of paths that never trigger a
// refresh. Entries are path.Match patterns, optionally prefixed with an
// HTTP method: "/auth/login", "GET /posts/*".
func WithPublicPaths(patterns ...string) Option {
	return func(c *Client) { c.public = parsePublicPaths(patterns) }
}

// WithOnSessionEnded registers a hook run once per failed refresh, after
// the credentials were cleared. blogcli uses it to point the user at login.
func WithOnSessionEnded(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onSessionEnded = fn }
}

func WithRefreshPath(p string) Option {
	return func(c *Client) { c.refreshPath = p }
}

type Client struct {
	base           *httpclient.BaseClient
	store          credentials.Store
	public         []publicPath
	refreshPath    string
	onSessionEnded func(ctx context.Context)

	// refreshes coalesces concurrent refresh attempts into one exchange.
	refreshes singleflight.Group
}

// New creates a client for baseURL, e.g. http://localhost:8080/api/v1.
func New(baseURL string, store credentials.Store, opts ...Option) *Client {
	c := &Client{
		base:        httpclient.NewBaseClient(strings.TrimRight(baseURL, "/")),
		store:       store,
		refreshPath: DefaultRefreshPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the credential store the client reads tokens from.
func (c *Client) Store() credentials.Store { return c.store }

// Do sends r. A 401 on a non-public path is answered with one refresh and
// one retry; the retried answer is final whatever its status.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	body, err := encodeBody(r.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: encode %s %s: %w", r.Method, r.Path, err)
	}

	resp, sentToken, err := c.send(ctx, r, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || c.isPublic(r.Method, r.Path) {
		return finish(r, resp)
	}

	if err := c.refresh(ctx, sentToken); err != nil {
		return nil, err
	}

	resp, _, err = c.send(ctx, r, body)
	if err != nil {
		return nil, err
	}
	return finish(r, resp)
}

// send issues one HTTP round trip and returns the access token it attached.
func (c *Client) send(ctx context.Context, r Request, body []byte) (*Response, string, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := c.base.NewRequest(ctx, method, r.Path, r.Query, body)
	if err != nil {
		return nil, "", err
	}

	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, "", err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("apiclient: %s %s: %w", method, r.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("apiclient: read %s %s: %w", method, r.Path, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, token, nil
}

// bearerToken returns the stored access token when it looks like a signed
// token. Anything else in the store is dropped and the request goes out
// unauthenticated.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	creds, err := c.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("apiclient: load credentials: %w", err)
	}
	if isTokenShaped(creds.AccessToken) {
		return creds.AccessToken, nil
	}
	if !creds.Empty() {
		logger.WarnWithFields("apiclient dropping malformed session", logger.Fields{})
		if err := c.store.Clear(ctx); err != nil {
			return "", fmt.Errorf("apiclient: clear credentials: %w", err)
		}
	}
	return "", nil
}

// refresh exchanges the stored refresh token for a new access token.
// staleToken is the access token the rejected request carried; when the
// store already holds a different one, another request refreshed first and
// the caller only needs to retry.
func (c *Client) refresh(ctx context.Context, staleToken string) error {
	// the exchange outlives a cancelled waiter so that other waiters still
	// get its result
	refreshCtx := context.WithoutCancel(ctx)
	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		creds, err := c.store.Load(refreshCtx)
		if err != nil {
			return nil, fmt.Errorf("load credentials: %w", err)
		}
		if creds.AccessToken != staleToken && isTokenShaped(creds.AccessToken) {
			return nil, nil
		}
		if err := c.exchange(refreshCtx, creds.RefreshToken); err != nil {
			c.endSession(refreshCtx, err)
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionEnded, err)
	}
	return nil
}

func (c *Client) exchange(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return errors.New("no refresh token stored")
	}

	body, err := json.Marshal(dto.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}
	req, err := c.base.NewRequest(ctx, http.MethodPost, c.refreshPath, nil, body)
	if err != nil {
		return err
	}
	resp, err := c.base.Do(req)
	if err != nil {
		return fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("refresh rejected: status=%d body=%s", resp.StatusCode, string(b))
	}

	var out dto.RefreshTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	if !isTokenShaped(out.AccessToken) {
		return errors.New("refresh response carried no usable access token")
	}

	if err := c.store.SetAccessToken(ctx, out.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	logger.InfoWithFields("apiclient access token refreshed", logger.Fields{})
	return nil
}

func (c *Client) endSession(ctx context.Context, cause error) {
	logger.WarnWithFields("apiclient session ended", logger.Fields{"error": cause.Error()})
	if err := c.store.Clear(ctx); err != nil {
		logger.ErrorWithFields("apiclient clear credentials failed", logger.Fields{"error": err.Error()})
	}
	if c.onSessionEnded != nil {
		c.onSessionEnded(ctx)
	}
}

func finish(r Request, resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, newAPIError(r, resp)
}

func newAPIError(r Request, resp *Response) *APIError {
	apiErr := &APIError{Method: r.Method, Path: r.Path, StatusCode: resp.StatusCode}
	if apiErr.Method == "" {
		apiErr.Method = http.MethodGet
	}

	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err == nil {
		apiErr.Code = envelope.Error
		apiErr.Message = envelope.Message
	} else if len(resp.Body) > 0 {
		b := resp.Body
		if len(b) > maxErrorBody {
			b = b[:maxErrorBody]
		}
		apiErr.Message = strings.TrimSpace(string(b))
	}
	return apiErr
}

func encodeBody(v any) ([]byte, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(v)
	}
}

var tokenShape = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)

// isTokenShaped reports whether s has the three base64url segments of a
// compact JWS. Signature and claims are the server's business.
func isTokenShaped(s string) bool {
	return tokenShape.MatchString(s)
}

type publicPath struct {
	method  string // empty matches any method
	pattern string
}

func parsePublicPaths(patterns []string) []publicPath {
	out := make([]publicPath, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pp := publicPath{pattern: p}
		if method, rest, ok := strings.Cut(p, " "); ok {
			pp.method = strings.ToUpper(method)
			pp.pattern = strings.TrimSpace(rest)
		}
		out = append(out, pp)
	}
	return out
}

func (c *Client) isPublic(method, p string) bool {
	if method == "" {
		method = http.MethodGet
	}
	p = path.Clean("/" + p)
	if p == path.Clean("/"+c.refreshPath) {
		return true
	}
	for _, pp := range c.public {
		if pp.method != "" && !strings.EqualFold(pp.method, method) {
			continue
		}
		if ok, err := path.Match(pp.pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}
