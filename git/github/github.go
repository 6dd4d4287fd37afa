package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/reauthor/git"
)

// Config holds the settings needed to create a GitHub
// repository publisher.
type Config struct {
	// AccessToken is a personal access token or
	// GitHub App token used for authentication.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave
	// empty for github.com.
	EnterpriseHost string
}

// Provider creates repositories on GitHub.
//
// Pattern: Strategy -- implements git.Publisher.
type Provider struct {
	client *gh.Client
	token  string
	host   string
}

// NewProvider validates cfg and returns a Provider
// ready to create repositories.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github publisher"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.AccessToken)

	host := "github.com"

	if cfg.EnterpriseHost != "" {
		host = cfg.EnterpriseHost

		baseURL := "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL := "https://" +
			cfg.EnterpriseHost + "/api/uploads/"

		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return &Provider{
		client: client,
		token:  cfg.AccessToken,
		host:   host,
	}, nil
}

// CreateRepo creates the repository described by spec.
// If a repository of that name already exists (HTTP
// 422) it is reused; the subsequent force push
// overwrites its history.
func (p *Provider) CreateRepo(
	ctx context.Context,
	spec git.RepoSpec,
) (*git.RemoteRepo, error) {
	const errCtx = "creating github repository"

	if spec.Name == "" {
		return nil, fmt.Errorf(
			"%s: repository name must be set", errCtx,
		)
	}

	org, err := p.org(ctx, spec.Owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	repo := &gh.Repository{
		Name:        &spec.Name,
		Description: &spec.Description,
		Private:     &spec.Private,
	}

	created, resp, err := p.client.Repositories.Create(
		ctx, org, repo,
	)
	if err == nil {
		slog.Info(
			"created repository",
			"url", created.GetHTMLURL(),
		)

		return p.remoteRepo(created), nil
	}

	// HTTP 422: repository name already exists for
	// this owner.
	if resp != nil &&
		resp.StatusCode ==
			http.StatusUnprocessableEntity {
		slog.Info("reusing existing repository")

		return p.lookup(ctx, spec)
	}

	logResponse(resp)

	return nil, fmt.Errorf("%s: %w", errCtx, err)
}

// org maps the requested owner to the organisation
// argument of the create call. Creating under the
// authenticated user requires an empty organisation.
func (p *Provider) org(
	ctx context.Context,
	owner string,
) (string, error) {
	if owner == "" {
		return "", nil
	}

	user, _, err := p.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("current user: %w", err)
	}

	if strings.EqualFold(user.GetLogin(), owner) {
		return "", nil
	}

	return owner, nil
}

// lookup fetches an already existing repository.
func (p *Provider) lookup(
	ctx context.Context,
	spec git.RepoSpec,
) (*git.RemoteRepo, error) {
	const errCtx = "fetching existing repository"

	owner := spec.Owner

	if owner == "" {
		user, _, err := p.client.Users.Get(ctx, "")
		if err != nil {
			return nil, fmt.Errorf(
				"%s: current user: %w", errCtx, err,
			)
		}

		owner = user.GetLogin()
	}

	repo, resp, err := p.client.Repositories.Get(
		ctx, owner, spec.Name,
	)
	if err != nil {
		logResponse(resp)

		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return p.remoteRepo(repo), nil
}

// remoteRepo converts an API repository to the remote
// descriptor with an authenticated push URL.
func (p *Provider) remoteRepo(
	repo *gh.Repository,
) *git.RemoteRepo {
	u := url.URL{
		Scheme: "https",
		User: url.UserPassword(
			"x-access-token", p.token,
		),
		Host: p.host,
		Path: "/" + repo.GetFullName() + ".git",
	}

	return &git.RemoteRepo{
		PushURL: u.String(),
		WebURL:  repo.GetHTMLURL(),
	}
}

// logResponse logs the API response body for
// debugging.
func logResponse(resp *gh.Response) {
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

	slog.Warn("github response", "body", string(rb))
}
