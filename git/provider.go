package git

import "context"

// Pattern: Strategy -- swap git platform without
// changing repository creation logic.

// RepoSpec describes a repository to create on a git
// hosting platform.
type RepoSpec struct {
	// Owner is the user, organisation, or group that
	// owns the repository. Empty means the authenticated
	// user's own namespace.
	Owner string
	// Name is the repository name.
	Name string
	// Description is shown by the platform next to the
	// repository.
	Description string
	// Private marks the repository as non-public.
	Private bool
}

// RemoteRepo is a repository created, or found already
// existing, on a git hosting platform.
type RemoteRepo struct {
	// PushURL is the URL to push to, with credentials
	// embedded when the platform requires them.
	PushURL string
	// WebURL is the browsable repository location.
	WebURL string
}

// Publisher creates repositories on a git hosting
// platform.
type Publisher interface {
	CreateRepo(
		ctx context.Context,
		spec RepoSpec,
	) (*RemoteRepo, error)
}

// PublisherFunc adapts a plain function to the
// Publisher interface. When the description is empty
// the repository name is used as description.
type PublisherFunc func(
	ctx context.Context,
	spec RepoSpec,
) (*RemoteRepo, error)

// CreateRepo delegates to the wrapped function. If the
// description is empty, the name is substituted.
func (f PublisherFunc) CreateRepo(
	ctx context.Context,
	spec RepoSpec,
) (*RemoteRepo, error) {
	if spec.Description == "" {
		spec.Description = spec.Name
	}

	return f(ctx, spec)
}
