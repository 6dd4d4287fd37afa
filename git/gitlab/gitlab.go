package gitlab

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/reauthor/git"
)

// Config holds the settings needed to create a GitLab
// project publisher.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// AccessToken is a personal or group access token
	// used for authentication.
	AccessToken string
}

// Provider creates projects on GitLab.
//
// Pattern: Strategy -- implements git.Publisher.
type Provider struct {
	client *gl.Client
	token  string
}

// NewProvider validates cfg and returns a Provider
// ready to create projects.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating gitlab publisher"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Provider{
		client: client,
		token:  cfg.AccessToken,
	}, nil
}

// CreateRepo creates the project described by spec. A
// non-empty owner selects the namespace to create
// under. If the project name is already taken (HTTP
// 400) the existing project is reused; the subsequent
// force push overwrites its history.
func (p *Provider) CreateRepo(
	ctx context.Context,
	spec git.RepoSpec,
) (*git.RemoteRepo, error) {
	const errCtx = "creating gitlab project"

	if spec.Name == "" {
		return nil, fmt.Errorf(
			"%s: project name must be set", errCtx,
		)
	}

	opts := gl.CreateProjectOptions{
		Name:        gl.Ptr(spec.Name),
		Description: gl.Ptr(spec.Description),
		Visibility:  gl.Ptr(gl.PublicVisibility),
	}

	if spec.Private {
		opts.Visibility = gl.Ptr(gl.PrivateVisibility)
	}

	if spec.Owner != "" {
		nsID, err := p.namespaceID(ctx, spec.Owner)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		if nsID != 0 {
			opts.NamespaceID = gl.Ptr(nsID)
		}
	}

	created, resp, err := p.client.Projects.CreateProject(
		&opts, gl.WithContext(ctx),
	)
	if err == nil {
		slog.Info(
			"created project",
			"url", created.WebURL,
		)

		return p.remoteRepo(created), nil
	}

	// HTTP 400: project name or path already taken in
	// the namespace.
	if resp != nil &&
		resp.StatusCode == http.StatusBadRequest {
		slog.Info("reusing existing project")

		return p.lookup(ctx, spec)
	}

	logResponse(resp)

	return nil, fmt.Errorf("%s: %w", errCtx, err)
}

// namespaceID resolves the owner path to a namespace
// id. The authenticated user's own namespace resolves
// to zero, which keeps the create default.
func (p *Provider) namespaceID(
	ctx context.Context,
	owner string,
) (int, error) {
	user, _, err := p.client.Users.CurrentUser(
		gl.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("current user: %w", err)
	}

	if user.Username == owner {
		return 0, nil
	}

	ns, _, err := p.client.Namespaces.GetNamespace(
		owner, gl.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf(
			"namespace %s: %w", owner, err,
		)
	}

	return ns.ID, nil
}

// lookup fetches an already existing project.
func (p *Provider) lookup(
	ctx context.Context,
	spec git.RepoSpec,
) (*git.RemoteRepo, error) {
	const errCtx = "fetching existing project"

	owner := spec.Owner

	if owner == "" {
		user, _, err := p.client.Users.CurrentUser(
			gl.WithContext(ctx),
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: current user: %w", errCtx, err,
			)
		}

		owner = user.Username
	}

	project, resp, err := p.client.Projects.GetProject(
		owner+"/"+spec.Name,
		nil,
		gl.WithContext(ctx),
	)
	if err != nil {
		logResponse(resp)

		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return p.remoteRepo(project), nil
}

// remoteRepo converts an API project to the remote
// descriptor with an authenticated push URL.
func (p *Provider) remoteRepo(
	project *gl.Project,
) *git.RemoteRepo {
	pushURL := project.HTTPURLToRepo

	if u, err := url.Parse(pushURL); err == nil {
		u.User = url.UserPassword("oauth2", p.token)
		pushURL = u.String()
	}

	return &git.RemoteRepo{
		PushURL: pushURL,
		WebURL:  project.WebURL,
	}
}

// logResponse logs the API response body for
// debugging.
func logResponse(resp *gl.Response) {
	if resp == nil || resp.Body == nil {
		return
	}

	defer resp.Body.Close() //nolint:errcheck

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn(
			"cannot read response body",
			"error", err,
		)

		return
	}

	slog.Warn("gitlab response", "body", string(rb))
}
