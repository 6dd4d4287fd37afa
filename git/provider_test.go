package git_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/reauthor/git"
)

func TestPublisherFunc_CreateRepo_passes_spec(
	t *testing.T,
) {
	t.Parallel()

	var gotSpec git.RepoSpec

	fn := git.PublisherFunc(
		func(
			_ context.Context,
			spec git.RepoSpec,
		) (*git.RemoteRepo, error) {
			gotSpec = spec

			return &git.RemoteRepo{
				PushURL: "https://example.com/x.git",
			}, nil
		},
	)

	remote, err := fn.CreateRepo(
		context.Background(),
		git.RepoSpec{
			Owner:       "acme",
			Name:        "widget",
			Description: "my widget",
			Private:     true,
		},
	)

	require.NoError(t, err)
	assert.Equal(t, "acme", gotSpec.Owner)
	assert.Equal(t, "widget", gotSpec.Name)
	assert.Equal(t, "my widget", gotSpec.Description)
	assert.True(t, gotSpec.Private)
	assert.Equal(
		t,
		"https://example.com/x.git",
		remote.PushURL,
	)
}

func TestPublisherFunc_CreateRepo_empty_description_uses_name(
	t *testing.T,
) {
	t.Parallel()

	var gotDescription string

	fn := git.PublisherFunc(
		func(
			_ context.Context,
			spec git.RepoSpec,
		) (*git.RemoteRepo, error) {
			gotDescription = spec.Description

			return &git.RemoteRepo{}, nil
		},
	)

	_, err := fn.CreateRepo(
		context.Background(),
		git.RepoSpec{Name: "widget"},
	)

	require.NoError(t, err)
	assert.Equal(t, "widget", gotDescription)
}

func TestPublisherFunc_CreateRepo_returns_error(
	t *testing.T,
) {
	t.Parallel()

	errTest := errors.New("test error")

	fn := git.PublisherFunc(
		func(
			_ context.Context,
			_ git.RepoSpec,
		) (*git.RemoteRepo, error) {
			return nil, errTest
		},
	)

	_, err := fn.CreateRepo(
		context.Background(),
		git.RepoSpec{Name: "widget"},
	)

	assert.ErrorIs(t, err, errTest)
}
