package identity_test

import (
	"context"
	oe "os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/reauthor/identity"
)

func TestResolve_flag_wins(t *testing.T) {
	t.Parallel()

	dir := configuredRepo(
		t, "Git Name", "git@example.com",
	)

	id, err := identity.Resolve(identity.Sources{
		FlagName:    "Flag Name",
		FlagEmail:   "flag@example.com",
		ConfigName:  "Config Name",
		ConfigEmail: "config@example.com",
		Dir:         dir,
	})

	require.NoError(t, err)
	assert.Equal(t, "Flag Name", id.Name)
	assert.Equal(t, "flag@example.com", id.Email)
}

func TestResolve_config_beats_git(t *testing.T) {
	t.Parallel()

	dir := configuredRepo(
		t, "Git Name", "git@example.com",
	)

	id, err := identity.Resolve(identity.Sources{
		ConfigName:  "Config Name",
		ConfigEmail: "config@example.com",
		Dir:         dir,
	})

	require.NoError(t, err)
	assert.Equal(t, "Config Name", id.Name)
	assert.Equal(t, "config@example.com", id.Email)
}

func TestResolve_git_fallback(t *testing.T) {
	t.Parallel()

	dir := configuredRepo(
		t, "Git Name", "git@example.com",
	)

	id, err := identity.Resolve(identity.Sources{
		Dir: dir,
	})

	require.NoError(t, err)
	assert.Equal(t, "Git Name", id.Name)
	assert.Equal(t, "git@example.com", id.Email)
}

func TestResolve_fields_resolve_independently(
	t *testing.T,
) {
	t.Parallel()

	dir := configuredRepo(
		t, "Git Name", "git@example.com",
	)

	id, err := identity.Resolve(identity.Sources{
		FlagName: "Flag Name",
		Dir:      dir,
	})

	require.NoError(t, err)
	assert.Equal(t, "Flag Name", id.Name)
	assert.Equal(t, "git@example.com", id.Email)
}

func TestResolve_missing_name_fails(t *testing.T) {
	t.Parallel()

	dir := configuredRepo(t, "", "git@example.com")

	_, err := identity.Resolve(identity.Sources{
		Dir: dir,
	})

	assert.ErrorContains(t, err, "no author name")
}

func TestResolve_missing_email_fails(t *testing.T) {
	t.Parallel()

	dir := configuredRepo(t, "Git Name", "")

	_, err := identity.Resolve(identity.Sources{
		Dir: dir,
	})

	assert.ErrorContains(t, err, "no author email")
}

// configuredRepo creates a git repository whose local
// configuration carries the given identity. Empty
// values are written explicitly so a global git
// configuration cannot leak into the test.
func configuredRepo(
	tb testing.TB,
	name string,
	email string,
) string {
	tb.Helper()

	dir := tb.TempDir()

	cmds := [][]string{
		{"init", "-b", "main"},
		{"config", "user.name", name},
		{"config", "user.email", email},
	}

	for _, args := range cmds {
		//nolint:gosec // test helper
		cmd := oe.CommandContext(
			context.Background(), "git", args...,
		)
		cmd.Dir = dir

		out, err := cmd.CombinedOutput()
		if err != nil {
			tb.Fatalf(
				"git %v failed: %s: %v",
				args, string(out), err,
			)
		}
	}

	return dir
}
