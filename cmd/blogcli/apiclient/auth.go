package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"scholar-blog/cmd/blogcli/credentials"
	"scholar-blog/dto"
)

// Login authenticates and stores the returned token pair and profile.
func (c *Client) Login(ctx context.Context, email, password string) (dto.LoginResponseDTO, error) {
	return c.startSession(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   dto.LoginRequest{Email: email, Password: password},
	})
}

// Register creates a reader account and logs it in.
func (c *Client) Register(ctx context.Context, in dto.RegisterRequest) (dto.LoginResponseDTO, error) {
	return c.startSession(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body:   in,
	})
}

func (c *Client) startSession(ctx context.Context, r Request) (dto.LoginResponseDTO, error) {
	out, err := getData[dto.LoginResponseDTO](ctx, c, r)
	if err != nil {
		return out, err
	}
	if !isTokenShaped(out.AccessToken) || out.RefreshToken == "" {
		return out, fmt.Errorf("apiclient: %s returned no usable token pair", r.Path)
	}

	user := out.User
	err = c.store.Save(ctx, credentials.Credentials{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		User:         &user,
	})
	if err != nil {
		return out, fmt.Errorf("apiclient: save credentials: %w", err)
	}
	return out, nil
}

// Logout forgets the local session. Tokens are stateless on the server
// side, so there is nothing to revoke there.
func (c *Client) Logout(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Me returns the profile of the logged in user.
func (c *Client) Me(ctx context.Context) (dto.UserProfileDTO, error) {
	return getData[dto.UserProfileDTO](ctx, c, Request{
		Method: http.MethodGet,
		Path:   "/auth/me",
	})
}
