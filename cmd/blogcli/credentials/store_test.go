package credentials

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholar-blog/dto"
)

func sampleCredentials() Credentials {
	return Credentials{
		AccessToken:  "aaa.bbb.ccc",
		RefreshToken: "rrr.sss.ttt",
		User:         &dto.UserProfileDTO{ID: "u1", Email: "ada@lab.test", Role: "researcher"},
	}
}

// exerciseStore runs the same contract against every implementation.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	c, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.Empty(), "fresh store must be empty")

	require.NoError(t, s.Save(ctx, sampleCredentials()))
	c, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "aaa.bbb.ccc", c.AccessToken)
	assert.Equal(t, "rrr.sss.ttt", c.RefreshToken)
	require.NotNil(t, c.User)
	assert.Equal(t, "ada@lab.test", c.User.Email)

	require.NoError(t, s.SetAccessToken(ctx, "new.access.token"))
	c, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new.access.token", c.AccessToken)
	assert.Equal(t, "rrr.sss.ttt", c.RefreshToken, "refresh token must survive an access token update")
	require.NotNil(t, c.User)

	require.NoError(t, s.Clear(ctx))
	c, err = s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.Empty())
	assert.Nil(t, c.User, "profile is cleared with the tokens")

	// clearing twice is fine
	require.NoError(t, s.Clear(ctx))

	// a refresh finishing after logout must not bring back a lone access token
	require.NoError(t, s.Save(ctx, sampleCredentials()))
	require.NoError(t, s.Clear(ctx))
	assert.ErrorIs(t, s.SetAccessToken(ctx, "x.y.z"), ErrNoSession)
	c, err = s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.Empty(), "cleared session stays cleared")

	assert.ErrorIs(t, s.SetAccessToken(ctx, "x.y.z"), ErrNoSession, "never-saved store rejects too")
	c, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, c.AccessToken)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseStore(t, NewFileStore(p))
}

func TestFileStoreWritesOwnerOnlyFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(p)

	require.NoError(t, s.Save(context.Background(), sampleCredentials()))

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// no temp files left next to the session
	entries, err := os.ReadDir(filepath.Dir(p))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o600))

	_, err := NewFileStore(p).Load(context.Background())
	assert.Error(t, err)
}

func TestOpenSelectsImplementation(t *testing.T) {
	s, err := Open(Options{Kind: KindMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	p := filepath.Join(t.TempDir(), "s.json")
	s, err = Open(Options{Kind: KindFile, FilePath: p})
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, s)
	assert.Equal(t, p, s.(*FileStore).Path())

	_, err = Open(Options{Kind: "etcd"})
	assert.Error(t, err)

	_, err = Open(Options{Kind: KindRedis})
	assert.Error(t, err, "redis store needs a url")
}
