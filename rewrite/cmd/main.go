// Command reauthor clones a git repository, rewrites its
// history under a substitute identity with randomized
// timestamps, and optionally publishes the result to a
// freshly created remote repository.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/manifoldco/promptui"

	"github.com/byte4ever/reauthor/config"
	"github.com/byte4ever/reauthor/git"
	"github.com/byte4ever/reauthor/git/bitbucket"
	"github.com/byte4ever/reauthor/git/github"
	"github.com/byte4ever/reauthor/git/gitlab"
	"github.com/byte4ever/reauthor/identity"
	"github.com/byte4ever/reauthor/rewrite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // CLI flag setup is inherently long
func run() error {
	const errCtx = "running reauthor"

	// Source and output flags.
	repo := flag.String(
		"repo", "",
		"Source git repository URL",
	)
	out := flag.String(
		"out", "",
		"Directory for the rewritten clone",
	)
	gitMirror := flag.String(
		"git_mirror", "",
		"Local git mirror for reference clones",
	)
	branch := flag.String(
		"branch", "",
		"Source branch (default: first of main, "+
			"master, stable)",
	)

	// Identity flags.
	name := flag.String(
		"name", "",
		"Substitute author name",
	)
	email := flag.String(
		"email", "",
		"Substitute author email",
	)

	// Rewrite flags.
	defaultBranch := flag.String(
		"default_branch", rewrite.DefaultBranchName,
		"Branch name of the rewritten history",
	)
	messageTemplate := flag.String(
		"message_template", "",
		"Template applied to commit messages "+
			"({{message}}, {{index}}, {{total}}, "+
			"{{date}})",
	)
	reportPath := flag.String(
		"report", "",
		"Write a JSON rewrite report to this path",
	)
	skipVerify := flag.Bool(
		"skip_verify", false,
		"Skip the post-rewrite property check",
	)

	// Publishing flags.
	pushURL := flag.String(
		"push_url", "",
		"Push the rewritten history to this URL",
	)
	gitServer := flag.String(
		"git_server", "none",
		"Create the remote repository on: github, "+
			"gitlab, bitbucket, or none",
	)
	repoOwner := flag.String(
		"repo_owner", "",
		"Owner of the created repository",
	)
	repoName := flag.String(
		"repo_name", "",
		"Name of the created repository "+
			"(default: source repository name)",
	)
	description := flag.String(
		"description", "",
		"Description of the created repository",
	)
	private := flag.Bool(
		"private", false,
		"Create the repository as private",
	)

	// Run control flags.
	configPath := flag.String(
		"config", "",
		"Configuration file path",
	)
	dryRun := flag.Bool(
		"dry_run", false,
		"Skip repository creation and push",
	)
	yes := flag.Bool(
		"yes", false,
		"Skip the force-push confirmation prompt",
	)

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	author, err := identity.Resolve(identity.Sources{
		FlagName:    *name,
		FlagEmail:   *email,
		ConfigName:  cfg.Author.Name,
		ConfigEmail: cfg.Author.Email,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	publisher, err := newPublisher(*gitServer, cfg)
	if err != nil {
		return fmt.Errorf(
			"%s: create publisher: %w", errCtx, err,
		)
	}

	remote := git.RepoSpec{
		Owner:       *repoOwner,
		Name:        *repoName,
		Description: *description,
		Private:     *private,
	}

	if publisher != nil && remote.Name == "" {
		remote.Name = sourceRepoName(*repo)
		if remote.Name == "" {
			return fmt.Errorf(
				"%s: repository name is required, "+
					"pass -repo_name",
				errCtx,
			)
		}
	}

	// Confirm before touching the remote.
	willPush := !*dryRun &&
		(*pushURL != "" || publisher != nil)

	if willPush && !*yes {
		ok, err := confirmPush(*pushURL, remote.Name)
		if err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		if !ok {
			slog.Info("aborted")

			return nil
		}
	}

	runCfg := rewrite.Config{
		SourceURL:       *repo,
		OutputDir:       *out,
		Mirror:          *gitMirror,
		Author:          author,
		Branch:          *branch,
		DefaultBranch:   *defaultBranch,
		MessageTemplate: *messageTemplate,
		ReportPath:      *reportPath,
		PushURL:         *pushURL,
		Publisher:       publisher,
		Remote:          remote,
		DryRun:          *dryRun,
		SkipVerify:      *skipVerify,
	}

	if err := rewrite.Run(
		context.Background(), runCfg,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// sourceRepoName derives the repository name from the
// source URL. Returns empty when the URL has no usable
// name.
func sourceRepoName(repo string) string {
	parts, err := git.ParseRemoteURL(repo)
	if err != nil {
		return ""
	}

	return parts.Name
}

// confirmPush asks the user before force-pushing.
// Declining is not an error.
func confirmPush(
	pushURL string,
	repoName string,
) (bool, error) {
	target := pushURL
	if target == "" {
		target = repoName
	}

	prompt := promptui.Prompt{
		Label: fmt.Sprintf(
			"Force-push rewritten history to %s",
			target,
		),
		IsConfirm: true,
	}

	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}

		return false, fmt.Errorf(
			"confirmation prompt: %w", err,
		)
	}

	return true, nil
}

// newPublisher creates a git.Publisher based on the
// server name. Pattern: Factory -- selects platform
// implementation at runtime.
func newPublisher(
	server string,
	cfg *config.Config,
) (git.Publisher, error) {
	const errCtx = "creating publisher"

	switch server {
	case "none", "":
		//nolint:nilnil // "none" disables publishing
		return nil, nil

	case "github":
		p, err := github.NewProvider(github.Config{
			AccessToken:    cfg.GitHub.Token,
			EnterpriseHost: cfg.GitHub.Host,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	case "gitlab":
		p, err := gitlab.NewProvider(gitlab.Config{
			Host:        cfg.GitLab.Host,
			AccessToken: cfg.GitLab.Token,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	case "bitbucket":
		p, err := bitbucket.NewProvider(
			bitbucket.Config{
				APIEndpoint: cfg.Bitbucket.Endpoint,
				Project:     cfg.Bitbucket.Project,
				User:        cfg.Bitbucket.User,
				Password:    cfg.Bitbucket.Password,
			},
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	default:
		return nil, fmt.Errorf(
			"%s: unknown server %q", errCtx, server,
		)
	}
}
