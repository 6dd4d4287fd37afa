// Package config loads the reauthor configuration file
// holding the default substitute identity and the
// hosting platform credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Author is the default substitute identity applied to
// rewritten commits.
type Author struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// GitHub holds GitHub API settings.
type GitHub struct {
	// Token is the personal access token.
	Token string `yaml:"token"`
	// Host is an optional GitHub Enterprise hostname.
	Host string `yaml:"host"`
}

// GitLab holds GitLab API settings.
type GitLab struct {
	// Token is the personal access token.
	Token string `yaml:"token"`
	// Host is an optional self-managed instance base
	// URL.
	Host string `yaml:"host"`
}

// Bitbucket holds Bitbucket Server API settings.
type Bitbucket struct {
	// Endpoint is the base REST API URL.
	Endpoint string `yaml:"endpoint"`
	// Project is the default project key.
	Project  string `yaml:"project"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Config is the on-disk configuration of the tool.
type Config struct {
	Author    Author    `yaml:"author"`
	GitHub    GitHub    `yaml:"github"`
	GitLab    GitLab    `yaml:"gitlab"`
	Bitbucket Bitbucket `yaml:"bitbucket"`
}

// DefaultPath returns the default configuration file
// location under the user configuration directory.
// Returns empty when no user configuration directory
// can be determined.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(
		base, "reauthor", "config.yaml",
	)
}

// Load reads the configuration from path. When path is
// empty the default location is used, and a missing
// file there yields an empty configuration. An
// explicitly given path must exist. Unset tokens fall
// back to the GITHUB_TOKEN and GITLAB_TOKEN environment
// variables.
func Load(path string) (*Config, error) {
	const errCtx = "loading configuration"

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	var cfg Config

	raw, err := os.ReadFile(path)

	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf(
				"%s: parsing %s: %w",
				errCtx, path, err,
			)
		}
	case os.IsNotExist(err) && !explicit:
		// No default file: start from an empty
		// configuration.
	default:
		return nil, fmt.Errorf(
			"%s: reading %s: %w", errCtx, path, err,
		)
	}

	applyEnv(&cfg)

	return &cfg, nil
}

// applyEnv fills unset tokens from the environment.
func applyEnv(cfg *Config) {
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}

	if cfg.GitLab.Token == "" {
		cfg.GitLab.Token = os.Getenv("GITLAB_TOKEN")
	}
}
