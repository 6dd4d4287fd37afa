package git

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/byte4ever/reauthor/exec"
)

// Commit is one commit of the source history.
type Commit struct {
	// Hash is the full commit hash.
	Hash string
	// Message is the raw commit message, preserved
	// verbatim including trailing newlines.
	Message string
}

// Repo is a local clone of a git repository. Create
// with Clone, and call Clean when done.
type Repo struct {
	// Dir is the filesystem location of the clone.
	Dir string
	// RemoteName is the name of the upstream remote.
	RemoteName string
}

// Clone clones a repository into dir, replacing dir if
// it already exists. Pass the full repository URL as
// repo (e.g. "https://github.com/org/repo.git").
// mirrorDir is an optional local mirror used as a
// reference clone. The clone is complete: all branches
// and tags are fetched so the history can be replayed
// and the tags pushed later.
//
//nolint:gosec // file paths originate from CLI flags
func Clone(
	repo string,
	dir string,
	mirrorDir string,
) (*Repo, error) {
	const errCtx = "cloning repository"

	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf(
			"%s: remove dir: %w", errCtx, err,
		)
	}

	remoteName := "origin"

	args := []string{
		"clone",
		"--origin", remoteName,
	}

	if mirrorDir != "" {
		args = append(args, "--reference", mirrorDir)
	}

	args = append(args, repo, dir)

	if _, err := exec.Ex("", "git", args...); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &Repo{
		Dir:        dir,
		RemoteName: remoteName,
	}, nil
}

// Clean removes the local clone directory.
func (r *Repo) Clean() error {
	const errCtx = "cleaning repository"

	if err := os.RemoveAll(r.Dir); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// FirstBranch returns the first of candidates that
// exists on the remote or locally.
func (r *Repo) FirstBranch(
	candidates []string,
) (string, error) {
	const errCtx = "locating branch"

	for _, branch := range candidates {
		refs := []string{
			"refs/remotes/" + r.RemoteName + "/" + branch,
			"refs/heads/" + branch,
		}

		for _, ref := range refs {
			if _, err := exec.Ex(
				r.Dir, "git",
				"show-ref", "--verify", "--quiet", ref,
			); err == nil {
				return branch, nil
			}
		}
	}

	return "", fmt.Errorf(
		"%s: none of %s found",
		errCtx, strings.Join(candidates, ", "),
	)
}

// Checkout checks out the given branch, creating a
// local tracking branch from the remote if needed.
func (r *Repo) Checkout(branch string) error {
	const errCtx = "checking out branch"

	if _, err := exec.Ex(
		r.Dir, "git", "checkout", branch,
	); err != nil {
		return fmt.Errorf(
			"%s: %s: %w", errCtx, branch, err,
		)
	}

	return nil
}

// Commits returns all commits reachable from rev,
// oldest first.
func (r *Repo) Commits(rev string) ([]Commit, error) {
	const errCtx = "listing commits"

	out, err := exec.Ex(
		r.Dir, "git",
		"log", "--reverse",
		"--pretty=tformat:%H%n%B%x00",
		rev,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return parseLog(out), nil
}

// parseLog splits NUL-delimited log records into
// commits. Each record is the commit hash, a newline,
// and the raw message body.
func parseLog(out string) []Commit {
	var commits []Commit

	for _, record := range strings.Split(out, "\x00") {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}

		hash, message, _ := strings.Cut(record, "\n")

		commits = append(commits, Commit{
			Hash:    strings.TrimSpace(hash),
			Message: message,
		})
	}

	return commits
}

// CheckoutOrphan creates and checks out an orphan
// branch with no history, an empty index, and an empty
// working tree.
func (r *Repo) CheckoutOrphan(branch string) error {
	const errCtx = "checking out orphan branch"

	if _, err := exec.Ex(
		r.Dir, "git", "checkout", "--orphan", branch,
	); err != nil {
		return fmt.Errorf(
			"%s: %s: %w", errCtx, branch, err,
		)
	}

	// checkout --orphan keeps the previous index and
	// working tree; drop both so commits are built from
	// materialized trees only.
	if _, err := exec.Ex(
		r.Dir, "git",
		"rm", "-rf", "-q", "--ignore-unmatch", ".",
	); err != nil {
		return fmt.Errorf(
			"%s: clear index: %w", errCtx, err,
		)
	}

	return nil
}

// MaterializeTree resets the index and working tree to
// the tree of the given commit without moving the
// current branch head.
func (r *Repo) MaterializeTree(hash string) error {
	const errCtx = "materializing tree"

	if _, err := exec.Ex(
		r.Dir, "git",
		"read-tree", "--reset", "-u", hash,
	); err != nil {
		return fmt.Errorf(
			"%s: %s: %w", errCtx, hash, err,
		)
	}

	return nil
}

// StageAll stages every change in the working tree,
// including deletions.
func (r *Repo) StageAll() error {
	const errCtx = "staging changes"

	if _, err := exec.Ex(
		r.Dir, "git", "add", "--all",
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// CommitAll commits the staged tree with the given
// identity and timestamp applied to both author and
// committer. The message is stored verbatim. Returns
// the hash of the created commit.
func (r *Repo) CommitAll(
	name string,
	email string,
	message string,
	when time.Time,
) (string, error) {
	const errCtx = "creating commit"

	stamp := when.Format(time.RFC3339)

	env := []string{
		"GIT_AUTHOR_NAME=" + name,
		"GIT_AUTHOR_EMAIL=" + email,
		"GIT_AUTHOR_DATE=" + stamp,
		"GIT_COMMITTER_NAME=" + name,
		"GIT_COMMITTER_EMAIL=" + email,
		"GIT_COMMITTER_DATE=" + stamp,
	}

	if _, err := exec.ExEnv(
		r.Dir, env, "git",
		"commit",
		"--allow-empty",
		"--allow-empty-message",
		"--no-verify",
		"--cleanup=verbatim",
		"-m", message,
	); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return r.Head()
}

// Head returns the full hash of the current HEAD
// commit.
func (r *Repo) Head() (string, error) {
	const errCtx = "resolving HEAD"

	out, err := exec.Ex(
		r.Dir, "git", "rev-parse", "HEAD",
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return strings.TrimSpace(out), nil
}

// RenameBranch force-renames the current branch,
// replacing an existing branch of that name.
func (r *Repo) RenameBranch(name string) error {
	const errCtx = "renaming branch"

	if _, err := exec.Ex(
		r.Dir, "git", "branch", "-M", name,
	); err != nil {
		return fmt.Errorf(
			"%s: %s: %w", errCtx, name, err,
		)
	}

	return nil
}

// DeleteBranch force-deletes a local branch.
func (r *Repo) DeleteBranch(name string) error {
	const errCtx = "deleting branch"

	if _, err := exec.Ex(
		r.Dir, "git", "branch", "-D", name,
	); err != nil {
		return fmt.Errorf(
			"%s: %s: %w", errCtx, name, err,
		)
	}

	return nil
}

// LocalBranches returns the names of all local
// branches.
func (r *Repo) LocalBranches() ([]string, error) {
	const errCtx = "listing branches"

	out, err := exec.Ex(
		r.Dir, "git",
		"for-each-ref",
		"--format=%(refname:short)",
		"refs/heads",
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var branches []string

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			branches = append(branches, line)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf(
			"%s: scan: %w", errCtx, err,
		)
	}

	return branches, nil
}

// AddRemote registers url under the given remote name,
// replacing a previous registration.
func (r *Repo) AddRemote(name string, url string) error {
	const errCtx = "adding remote"

	// Drop a stale remote from an earlier run. The error
	// is ignored: the remote usually does not exist.
	_, _ = exec.Ex(
		r.Dir, "git", "remote", "remove", name,
	)

	if _, err := exec.Ex(
		r.Dir, "git", "remote", "add", name, url,
	); err != nil {
		return fmt.Errorf(
			"%s: %s: %w", errCtx, name, err,
		)
	}

	return nil
}

// PushAllForce force-pushes every local branch to the
// named remote. All rewriting should be finished before
// calling PushAllForce.
func (r *Repo) PushAllForce(remote string) error {
	const errCtx = "pushing branches"

	if _, err := exec.Ex(
		r.Dir, "git",
		"push", "--force", "--all", remote,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// PushTagsForce force-pushes every tag to the named
// remote.
func (r *Repo) PushTagsForce(remote string) error {
	const errCtx = "pushing tags"

	if _, err := exec.Ex(
		r.Dir, "git",
		"push", "--force", "--tags", remote,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// LookupIdentity reads user.name and user.email from
// the git configuration visible in dir. Missing values
// are returned as empty strings.
func LookupIdentity(dir string) (string, string) {
	var name, email string

	if out, err := exec.Ex(
		dir, "git", "config", "user.name",
	); err == nil {
		name = strings.TrimSpace(out)
	}

	if out, err := exec.Ex(
		dir, "git", "config", "user.email",
	); err == nil {
		email = strings.TrimSpace(out)
	}

	return name, email
}
