package bitbucket

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/reauthor/git"
)

// Config holds the settings needed to create a
// Bitbucket Server repository publisher.
type Config struct {
	// APIEndpoint is the base Bitbucket Server REST API
	// URL (e.g. "https://bb.example.com/rest/api/1.0").
	APIEndpoint string
	// Project is the key of the project to create
	// repositories in. A spec owner overrides it per
	// call.
	Project string
	// User is the Bitbucket API username.
	User string
	// Password is the Bitbucket API password (or
	// personal access token).
	Password string
}

// Provider creates repositories on Bitbucket Server.
//
// Pattern: Strategy -- implements git.Publisher.
type Provider struct {
	endpoint string
	project  string
	user     string
	password string
}

type repository struct {
	Slug        string `json:"slug,omitempty"`
	Name        string `json:"name,omitempty"`
	ScmID       string `json:"scmId,omitempty"`
	Description string `json:"description,omitempty"`
	Public      bool   `json:"public"`
	Links       *links `json:"links,omitempty"`
}

type links struct {
	Clone []cloneLink `json:"clone,omitempty"`
	Self  []selfLink  `json:"self,omitempty"`
}

type cloneLink struct {
	Href string `json:"href,omitempty"`
	Name string `json:"name,omitempty"`
}

type selfLink struct {
	Href string `json:"href,omitempty"`
}

// NewProvider validates cfg and returns a Provider
// ready to create repositories.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating bitbucket publisher"

	if cfg.APIEndpoint == "" {
		return nil, fmt.Errorf(
			"%s: api endpoint must be set",
			errCtx,
		)
	}

	if cfg.User == "" {
		return nil, fmt.Errorf(
			"%s: user must be set", errCtx,
		)
	}

	if cfg.Password == "" {
		return nil, fmt.Errorf(
			"%s: password must be set", errCtx,
		)
	}

	return &Provider{
		endpoint: cfg.APIEndpoint,
		project:  cfg.Project,
		user:     cfg.User,
		password: cfg.Password,
	}, nil
}

// CreateRepo creates the repository described by spec
// in the configured project. Returns the existing
// repository on 409 (already exists); the subsequent
// force push overwrites its history.
func (p *Provider) CreateRepo(
	ctx context.Context,
	spec git.RepoSpec,
) (*git.RemoteRepo, error) {
	const errCtx = "creating bitbucket repository"

	if spec.Name == "" {
		return nil, fmt.Errorf(
			"%s: repository name must be set", errCtx,
		)
	}

	projectKey := p.project
	if spec.Owner != "" {
		projectKey = spec.Owner
	}

	if projectKey == "" {
		return nil, fmt.Errorf(
			"%s: project key must be set", errCtx,
		)
	}

	repo := repository{
		Name:        spec.Name,
		ScmID:       "git",
		Description: spec.Description,
		Public:      !spec.Private,
	}

	payload, err := json.Marshal(&repo)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: marshal request: %w", errCtx, err,
		)
	}

	status, rb, err := p.send(
		ctx,
		http.MethodPost,
		p.endpoint+"/projects/"+projectKey+"/repos",
		payload,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	// 201 Created: repository was created.
	if status == http.StatusCreated {
		slog.Info("repository created")

		return p.remoteRepo(rb)
	}

	// 409 Conflict: repository already exists.
	if status == http.StatusConflict {
		slog.Info("reusing existing repository")

		return p.lookup(ctx, projectKey, spec.Name)
	}

	return nil, fmt.Errorf(
		"%s: unexpected status %d",
		errCtx, status,
	)
}

// lookup fetches an already existing repository by its
// slug.
func (p *Provider) lookup(
	ctx context.Context,
	projectKey string,
	slug string,
) (*git.RemoteRepo, error) {
	const errCtx = "fetching existing repository"

	status, rb, err := p.send(
		ctx,
		http.MethodGet,
		p.endpoint+"/projects/"+projectKey+
			"/repos/"+slug,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf(
			"%s: unexpected status %d",
			errCtx, status,
		)
	}

	return p.remoteRepo(rb)
}

// send performs an authenticated API request and
// returns the response status and body.
func (p *Provider) send(
	ctx context.Context,
	method string,
	apiURL string,
	payload []byte,
) (int, []byte, error) {
	const errCtx = "calling bitbucket api"

	var body io.Reader
	if payload != nil {
		body = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(
		ctx, method, apiURL, body,
	)
	if err != nil {
		return 0, nil, fmt.Errorf(
			"%s: build request: %w", errCtx, err,
		)
	}

	req.Header.Set(
		"Content-Type",
		"application/json; charset=utf-8",
	)
	req.SetBasicAuth(p.user, p.password)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf(
			"%s: send request: %w", errCtx, err,
		)
	}

	defer resp.Body.Close() //nolint:errcheck

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf(
			"%s: read response: %w", errCtx, err,
		)
	}

	slog.Info(
		"bitbucket response",
		"status", resp.Status,
		"body", string(rb),
	)

	return resp.StatusCode, rb, nil
}

// remoteRepo converts an API response body to the
// remote descriptor with an authenticated push URL.
func (p *Provider) remoteRepo(
	rb []byte,
) (*git.RemoteRepo, error) {
	const errCtx = "decoding bitbucket repository"

	var repo repository

	if err := json.Unmarshal(rb, &repo); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	remote := &git.RemoteRepo{}

	if repo.Links != nil {
		for _, link := range repo.Links.Clone {
			if link.Name != "http" &&
				link.Name != "https" {
				continue
			}

			u, err := url.Parse(link.Href)
			if err != nil {
				return nil, fmt.Errorf(
					"%s: clone link: %w", errCtx, err,
				)
			}

			u.User = url.UserPassword(
				p.user, p.password,
			)
			remote.PushURL = u.String()

			break
		}

		if len(repo.Links.Self) != 0 {
			remote.WebURL = repo.Links.Self[0].Href
		}
	}

	if remote.PushURL == "" {
		return nil, fmt.Errorf(
			"%s: no http clone link", errCtx,
		)
	}

	return remote, nil
}
