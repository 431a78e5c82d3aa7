package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"scholar-blog/dto"
)

const (
	fieldAccess  = "access_token"
	fieldRefresh = "refresh_token"
	fieldUser    = "user"

	defaultRedisKey = "blogcli:session"
)

// setAccessScript updates the access token only while a refresh token is
// stored. Returns 0 when the session is gone.
var setAccessScript = redis.NewScript(`
local refresh = redis.call("HGET", KEYS[1], ARGV[1])
if not refresh or refresh == "" then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[2], ARGV[3])
return 1
`)

// RedisStore keeps the session in a single Redis hash so that several
// blogcli processes on different hosts can share one login. Clear deletes
// the whole key, which keeps the three values together.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. ttl of 0 keeps the key until
// Clear.
func NewRedisStore(client *redis.Client, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{client: client, key: key, ttl: ttl}
}

// NewRedisStoreFromURL parses a redis:// URL and verifies the connection.
func NewRedisStoreFromURL(url, key string) (*RedisStore, error) {
	if url == "" {
		return nil, errors.New("credentials: redis url is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("credentials: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("credentials: redis ping: %w", err)
	}
	return NewRedisStore(client, key, 0), nil
}

func (s *RedisStore) Load(ctx context.Context) (Credentials, error) {
	m, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Credentials{}, fmt.Errorf("credentials: redis load: %w", err)
	}
	c := Credentials{
		AccessToken:  m[fieldAccess],
		RefreshToken: m[fieldRefresh],
	}
	if raw := m[fieldUser]; raw != "" {
		var u dto.UserProfileDTO
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			c.User = &u
		}
	}
	return c, nil
}

func (s *RedisStore) Save(ctx context.Context, c Credentials) error {
	user := ""
	if c.User != nil {
		b, err := json.Marshal(c.User)
		if err != nil {
			return err
		}
		user = string(b)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key,
			fieldAccess, c.AccessToken,
			fieldRefresh, c.RefreshToken,
			fieldUser, user,
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("credentials: redis save: %w", err)
	}
	return nil
}

func (s *RedisStore) SetAccessToken(ctx context.Context, token string) error {
	n, err := setAccessScript.Run(ctx, s.client, []string{s.key}, fieldRefresh, fieldAccess, token).Int()
	if err != nil {
		return fmt.Errorf("credentials: redis set access token: %w", err)
	}
	if n == 0 {
		return ErrNoSession
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("credentials: redis clear: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
