// Package credentials persists the blogcli session: the access/refresh
// token pair and the cached user profile. The three values are always
// written and cleared together.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"scholar-blog/dto"
)

// ErrNoSession is returned by SetAccessToken when the session was cleared.
var ErrNoSession = errors.New("credentials: no session stored")

// Credentials is the persisted session.
type Credentials struct {
	AccessToken  string              `json:"accessToken"`
	RefreshToken string              `json:"refreshToken"`
	User         *dto.UserProfileDTO `json:"user,omitempty"`
}

// Empty reports whether no session is stored.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Store is the only place session state lives. The API client gets one
// injected; nothing reads tokens from ambient state.
type Store interface {
	// Load returns the stored session, or an empty Credentials when none
	// is stored.
	Load(ctx context.Context) (Credentials, error)
	// Save replaces the whole session.
	Save(ctx context.Context, c Credentials) error
	// SetAccessToken overwrites only the access token. Only the refresh
	// flow calls it. It fails with ErrNoSession and writes nothing when no
	// refresh token is stored, so a cleared session stays cleared.
	SetAccessToken(ctx context.Context, token string) error
	// Clear removes tokens and profile at once.
	Clear(ctx context.Context) error
}

const (
	KindMemory = "memory"
	KindFile   = "file"
	KindRedis  = "redis"
)

// Options selects and configures a Store implementation.
type Options struct {
	Kind     string
	FilePath string
	RedisURL string
	RedisKey string
}

// Open builds the Store described by opts.
func Open(opts Options) (Store, error) {
	switch opts.Kind {
	case KindMemory:
		return NewMemoryStore(), nil
	case "", KindFile:
		p := opts.FilePath
		if p == "" {
			var err error
			if p, err = DefaultFilePath(); err != nil {
				return nil, err
			}
		}
		return NewFileStore(p), nil
	case KindRedis:
		return NewRedisStoreFromURL(opts.RedisURL, opts.RedisKey)
	default:
		return nil, fmt.Errorf("credentials: unknown store kind %q", opts.Kind)
	}
}
