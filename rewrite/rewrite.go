// Package rewrite orchestrates the history rewrite. It
// clones the source repository, reads its commits, replays
// them on an orphan branch under a substitute identity with
// randomized timestamps, renames the result to the default
// branch, verifies it, and optionally publishes it to a
// freshly created remote repository.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/byte4ever/reauthor/git"
	"github.com/byte4ever/reauthor/identity"
	"github.com/byte4ever/reauthor/message"
	"github.com/byte4ever/reauthor/report"
	"github.com/byte4ever/reauthor/timestamp"
	"github.com/byte4ever/reauthor/verify"
)

// DefaultBranchName is the branch the rewritten history
// ends up on unless configured otherwise.
const DefaultBranchName = "main"

// RemoteName is the remote the rewritten history is
// pushed to.
const RemoteName = "target"

// defaultCandidates are the source branch names tried in
// order when none is configured.
var defaultCandidates = []string{"main", "master", "stable"}

// Config holds all settings for a rewrite run. Use a
// Config struct instead of many arguments.
type Config struct {
	// SourceURL is the repository to clone and rewrite.
	SourceURL string

	// OutputDir is where the rewritten clone is built. An
	// existing directory is replaced.
	OutputDir string

	// Mirror is an optional local mirror passed to
	// git clone --reference.
	Mirror string

	// Author is the substitute identity stamped on every
	// rewritten commit, as author and as committer.
	Author identity.Identity

	// Branch overrides source branch discovery.
	Branch string

	// CandidateBranches are tried in order when Branch is
	// empty. Empty means main, master, stable.
	CandidateBranches []string

	// DefaultBranch is the name the rewritten branch is
	// renamed to. Empty means main.
	DefaultBranch string

	// MessageTemplate rewrites commit messages. Empty
	// keeps them verbatim. See package message for the
	// available placeholders.
	MessageTemplate string

	// ReportPath writes a JSON rewrite report when set.
	ReportPath string

	// PushURL is pushed to directly when set. When empty
	// and Publisher is set, the push URL comes from the
	// created repository.
	PushURL string

	// Publisher creates the remote repository on a git
	// hosting platform. Nil disables creation.
	Publisher git.Publisher

	// Remote describes the repository Publisher creates.
	Remote git.RepoSpec

	// DryRun skips repository creation and push when
	// true.
	DryRun bool

	// SkipVerify disables the post-rewrite property
	// check.
	SkipVerify bool

	// Now anchors the randomization window. Zero means
	// the current time.
	Now time.Time

	// Seed drives timestamp randomization. Zero means a
	// wall clock seed.
	Seed int64
}

// Run executes the full rewrite workflow: clone, replay,
// rename, verify, report, publish.
func Run(ctx context.Context, cfg Config) error {
	const errCtx = "running history rewrite"

	if err := validate(cfg); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Step 1: Clone the source repository.
	repo, err := git.Clone(
		cfg.SourceURL, cfg.OutputDir, cfg.Mirror,
	)
	if err != nil {
		return fmt.Errorf(
			"%s: clone source: %w", errCtx, err,
		)
	}

	// Step 2: Locate and check out the source branch.
	srcBranch, err := sourceBranch(repo, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := repo.Checkout(srcBranch); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	// Step 3: Read the commits, oldest first.
	commits, err := repo.Commits(srcBranch)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if len(commits) == 0 {
		return fmt.Errorf(
			"%s: no commits on branch %s",
			errCtx, srcBranch,
		)
	}

	slog.Info(
		"read source history",
		"branch", srcBranch,
		"commits", len(commits),
	)

	// Step 4: Draw one timestamp per commit, ascending.
	times := timestamp.NewSeeded(now, seed).
		Times(len(commits))

	// Step 5: Replay every commit on an orphan branch.
	if err := repo.CheckoutOrphan(
		"rewrite-" + uuid.NewString(),
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	entries, err := replay(repo, cfg, commits, times)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	// Step 6: Rename to the default branch and drop every
	// other local branch so a later push --all cannot leak
	// original history.
	defBranch := cfg.DefaultBranch
	if defBranch == "" {
		defBranch = DefaultBranchName
	}

	if err := repo.RenameBranch(defBranch); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := dropOtherBranches(
		repo, defBranch,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"history rewritten",
		"branch", defBranch,
		"commits", len(commits),
	)

	// Step 7: Verify the rewritten history.
	if cfg.SkipVerify {
		slog.Info("skipping verification")
	} else if err := verify.Check(verify.Params{
		Dir:         cfg.OutputDir,
		Branch:      defBranch,
		AuthorName:  cfg.Author.Name,
		AuthorEmail: cfg.Author.Email,
		ExpectCount: len(commits),
		Window:      timestamp.Window,
		Now:         now,
	}); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	// Step 8: Write the rewrite report.
	if cfg.ReportPath != "" {
		rp := &report.Report{
			GeneratedAt: now,
			SourceURL:   cfg.SourceURL,
			Branch:      defBranch,
			AuthorName:  cfg.Author.Name,
			AuthorEmail: cfg.Author.Email,
			Entries:     entries,
		}

		if err := report.Write(
			cfg.ReportPath, rp,
		); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	// Step 9: Publish.
	if cfg.DryRun {
		slog.Info(
			"dry run: skipping repository creation and push",
			"branch", defBranch,
		)

		return nil
	}

	if err := publish(ctx, repo, cfg); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// validate rejects configurations that cannot run.
func validate(cfg Config) error {
	if cfg.SourceURL == "" {
		return errors.New(
			"source repository URL is required",
		)
	}

	if cfg.OutputDir == "" {
		return errors.New("output directory is required")
	}

	if cfg.Author.Name == "" || cfg.Author.Email == "" {
		return errors.New(
			"substitute identity is incomplete",
		)
	}

	return nil
}

// sourceBranch returns the configured branch or the first
// discovered candidate.
func sourceBranch(
	repo *git.Repo,
	cfg Config,
) (string, error) {
	if cfg.Branch != "" {
		return cfg.Branch, nil
	}

	candidates := cfg.CandidateBranches
	if len(candidates) == 0 {
		candidates = defaultCandidates
	}

	return repo.FirstBranch(candidates)
}

// replay rebuilds every commit on the current orphan
// branch. Trees are materialized from the original
// commits, messages go through the template, author and
// committer are the substitute identity.
func replay(
	repo *git.Repo,
	cfg Config,
	commits []git.Commit,
	times []time.Time,
) ([]report.Entry, error) {
	const errCtx = "replaying commits"

	entries := make([]report.Entry, 0, len(commits))

	for i, c := range commits {
		if err := repo.MaterializeTree(
			c.Hash,
		); err != nil {
			return nil, fmt.Errorf(
				"%s: commit %s: %w", errCtx, c.Hash, err,
			)
		}

		if err := repo.StageAll(); err != nil {
			return nil, fmt.Errorf(
				"%s: commit %s: %w", errCtx, c.Hash, err,
			)
		}

		msg := message.Expand(
			cfg.MessageTemplate,
			message.Vars{
				Message: c.Message,
				Index:   i + 1,
				Total:   len(commits),
				Date:    times[i],
			},
		)

		newHash, err := repo.CommitAll(
			cfg.Author.Name,
			cfg.Author.Email,
			msg,
			times[i],
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: commit %s: %w", errCtx, c.Hash, err,
			)
		}

		entries = append(entries, report.Entry{
			Index:         i + 1,
			OriginalHash:  c.Hash,
			RewrittenHash: newHash,
			CommittedAt:   times[i],
			Subject:       report.Subject(c.Message),
		})
	}

	return entries, nil
}

// dropOtherBranches deletes every local branch except
// keep.
func dropOtherBranches(
	repo *git.Repo,
	keep string,
) error {
	branches, err := repo.LocalBranches()
	if err != nil {
		return err
	}

	for _, branch := range branches {
		if branch == keep {
			continue
		}

		if err := repo.DeleteBranch(branch); err != nil {
			return err
		}
	}

	return nil
}

// publish creates the remote repository when a Publisher
// is configured and force-pushes all branches and tags.
func publish(
	ctx context.Context,
	repo *git.Repo,
	cfg Config,
) error {
	const errCtx = "publishing rewritten history"

	pushURL := cfg.PushURL

	if pushURL == "" && cfg.Publisher != nil {
		created, err := cfg.Publisher.CreateRepo(
			ctx, cfg.Remote,
		)
		if err != nil {
			return fmt.Errorf(
				"%s: create repository: %w", errCtx, err,
			)
		}

		slog.Info(
			"remote repository ready",
			"url", created.WebURL,
		)

		pushURL = created.PushURL
	}

	if pushURL == "" {
		slog.Info("no push target configured, done")

		return nil
	}

	if err := repo.AddRemote(
		RemoteName, pushURL,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := repo.PushAllForce(RemoteName); err != nil {
		return fmt.Errorf(
			"%s: push branches: %w", errCtx, err,
		)
	}

	if err := repo.PushTagsForce(RemoteName); err != nil {
		return fmt.Errorf(
			"%s: push tags: %w", errCtx, err,
		)
	}

	return nil
}
