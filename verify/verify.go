// Package verify re-opens a rewritten repository and checks
// the properties the rewrite must hold: commit count,
// substitute identity on every commit, and timestamps inside
// the randomization window.
package verify

import (
	"fmt"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Params bundles what a verification run needs.
type Params struct {
	// Dir is the rewritten repository work tree.
	Dir string
	// Branch is the branch to walk.
	Branch string
	// AuthorName and AuthorEmail are the substitute
	// identity every commit must carry, as author and as
	// committer.
	AuthorName  string
	AuthorEmail string
	// ExpectCount is the number of commits the branch must
	// hold.
	ExpectCount int
	// Window is how far back timestamps may reach from Now.
	Window time.Duration
	// Now anchors the window. Zero means time.Now().
	Now time.Time
}

// Check walks Branch and returns an error describing the
// first violated property, or nil when every commit passes.
func Check(params Params) error {
	const errCtx = "verifying rewritten repository"

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}

	// Timestamps are generated from a floor truncated to
	// whole seconds; the check uses the same floor.
	start := now.Add(-params.Window).Truncate(time.Second)

	repo, err := gitlib.PlainOpen(params.Dir)
	if err != nil {
		return fmt.Errorf(
			"%s: opening %q: %w",
			errCtx, params.Dir, err,
		)
	}

	ref, err := repo.Reference(
		plumbing.NewBranchReferenceName(params.Branch),
		true,
	)
	if err != nil {
		return fmt.Errorf(
			"%s: resolving branch %q: %w",
			errCtx, params.Branch, err,
		)
	}

	iter, err := repo.Log(&gitlib.LogOptions{From: ref.Hash()})
	if err != nil {
		return fmt.Errorf("%s: reading log: %w", errCtx, err)
	}

	var count int

	err = iter.ForEach(func(c *object.Commit) error {
		count++

		if err := checkIdentity(c, params); err != nil {
			return err
		}

		return checkWindow(c, start, now)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if count != params.ExpectCount {
		return fmt.Errorf(
			"%s: branch %q holds %d commits, want %d",
			errCtx, params.Branch, count, params.ExpectCount,
		)
	}

	return nil
}

func checkIdentity(c *object.Commit, params Params) error {
	for _, sig := range []object.Signature{
		c.Author,
		c.Committer,
	} {
		if sig.Name != params.AuthorName ||
			sig.Email != params.AuthorEmail {
			return fmt.Errorf(
				"commit %s carries identity %q <%s>, want %q <%s>",
				c.Hash, sig.Name, sig.Email,
				params.AuthorName, params.AuthorEmail,
			)
		}
	}

	return nil
}

func checkWindow(
	c *object.Commit,
	start, now time.Time,
) error {
	when := c.Author.When

	if when.Before(start) || when.After(now) {
		return fmt.Errorf(
			"commit %s timestamp %s outside [%s, %s]",
			c.Hash,
			when.Format(time.RFC3339),
			start.Format(time.RFC3339),
			now.Format(time.RFC3339),
		)
	}

	return nil
}
