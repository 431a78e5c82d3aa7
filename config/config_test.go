package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUsesDefaultsWithoutConfigFile(t *testing.T) {
	dir := t.TempDir()

	c, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, 9, c.Filter.PageSize)
	assert.Equal(t, 300*time.Millisecond, c.Filter.Debounce)
	assert.Contains(t, c.Client.PublicPaths, "/auth/refresh-token")
}

func TestLoadReadsYAMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	yml := `
logging:
  level: debug
auth:
  issuer: yaml-issuer
  access_ttl: 5m
filter:
  page_size: 12
client:
  public_paths:
    - /posts
    - /posts/*
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, CONFIG_FILE), []byte(yml), 0o644))

	t.Setenv("BLOG_AUTH_ISSUER", "env-issuer")
	t.Setenv("BLOG_FILTER_DEBOUNCE", "150ms")

	c, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, "env-issuer", c.Auth.Issuer)
	assert.Equal(t, 5*time.Minute, c.Auth.AccessTTL)
	assert.Equal(t, 12, c.Filter.PageSize)
	assert.Equal(t, 150*time.Millisecond, c.Filter.Debounce)
	assert.Equal(t, []string{"/posts", "/posts/*"}, c.Client.PublicPaths)
	// 건드리지 않은 섹션은 기본값을 유지한다
	assert.Equal(t, "scholarblog", c.Mongo.DBName)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CONFIG_FILE), []byte("logging: [oops"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}
