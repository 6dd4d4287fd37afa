package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/reauthor/config"
)

func writeConfig(
	tb testing.TB,
	content string,
) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "config.yaml")

	err := os.WriteFile(
		path, []byte(content), 0o600,
	)
	if err != nil {
		tb.Fatalf("write config: %v", err)
	}

	return path
}

func TestLoad_explicit_file(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
author:
  name: Jane Doe
  email: jane@example.com
github:
  token: gh-tok
  host: git.corp.example.com
gitlab:
  token: gl-tok
  host: https://gl.corp.example.com
bitbucket:
  endpoint: https://bb.example.com/rest/api/1.0
  project: TM
  user: admin
  password: secret
`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", cfg.Author.Name)
	assert.Equal(
		t, "jane@example.com", cfg.Author.Email,
	)
	assert.Equal(t, "gh-tok", cfg.GitHub.Token)
	assert.Equal(
		t, "git.corp.example.com", cfg.GitHub.Host,
	)
	assert.Equal(t, "gl-tok", cfg.GitLab.Token)
	assert.Equal(
		t,
		"https://gl.corp.example.com",
		cfg.GitLab.Host,
	)
	assert.Equal(
		t,
		"https://bb.example.com/rest/api/1.0",
		cfg.Bitbucket.Endpoint,
	)
	assert.Equal(t, "TM", cfg.Bitbucket.Project)
	assert.Equal(t, "admin", cfg.Bitbucket.User)
	assert.Equal(t, "secret", cfg.Bitbucket.Password)
}

func TestLoad_missing_explicit_file_fails(t *testing.T) {
	t.Parallel()

	_, err := config.Load(
		filepath.Join(t.TempDir(), "nope.yaml"),
	)

	assert.ErrorContains(t, err, "loading configuration")
}

func TestLoad_missing_default_is_empty(t *testing.T) {
	// Point the user configuration directory at an
	// empty location.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load("")

	require.NoError(t, err)
	assert.Empty(t, cfg.Author.Name)
	assert.Empty(t, cfg.Bitbucket.Endpoint)
}

func TestLoad_malformed_yaml_fails(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "author: [broken\n")

	_, err := config.Load(path)

	assert.ErrorContains(t, err, "parsing")
}

func TestLoad_env_token_fallback(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-gh")
	t.Setenv("GITLAB_TOKEN", "env-gl")

	path := writeConfig(t, `
author:
  name: Jane Doe
`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "env-gh", cfg.GitHub.Token)
	assert.Equal(t, "env-gl", cfg.GitLab.Token)
}

func TestLoad_file_token_beats_env(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-gh")

	path := writeConfig(t, `
github:
  token: file-gh
`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "file-gh", cfg.GitHub.Token)
}

func TestDefaultPath_points_into_app_dir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	path := config.DefaultPath()

	assert.Equal(
		t,
		filepath.Join(
			"/tmp/xdg", "reauthor", "config.yaml",
		),
		path,
	)
}
