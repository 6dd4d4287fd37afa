// Package report writes the JSON rewrite report that
// maps source commits to their rewritten counterparts.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Entry describes one rewritten commit.
type Entry struct {
	// Index is the 1-based position, oldest first.
	Index int `json:"index"`
	// OriginalHash is the source commit hash.
	OriginalHash string `json:"original_hash"`
	// RewrittenHash is the replacement commit hash.
	RewrittenHash string `json:"rewritten_hash"`
	// CommittedAt is the timestamp assigned to the
	// rewritten commit.
	CommittedAt time.Time `json:"committed_at"`
	// Subject is the first line of the commit message.
	Subject string `json:"subject"`
}

// Report is the full outcome of one rewrite run.
type Report struct {
	// GeneratedAt is when the report was written.
	GeneratedAt time.Time `json:"generated_at"`
	// SourceURL is the repository that was rewritten.
	SourceURL string `json:"source_url"`
	// Branch is the branch holding the rewritten
	// history.
	Branch string `json:"branch"`
	// AuthorName and AuthorEmail are the substitute
	// identity stamped on every commit.
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	// Entries map source commits to rewritten ones,
	// oldest first.
	Entries []Entry `json:"entries"`
}

// Subject returns the first line of a commit message.
func Subject(message string) string {
	subject, _, _ := strings.Cut(message, "\n")

	return strings.TrimSpace(subject)
}

// Write stores the report as indented JSON at path.
func Write(path string, rp *Report) error {
	const errCtx = "writing report"

	buf, err := json.MarshalIndent(rp, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := os.WriteFile(
		path, append(buf, '\n'), 0o600,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Load reads a report written by Write.
func Load(path string) (*Report, error) {
	const errCtx = "loading report"

	//nolint:gosec // path is caller-provided by design
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var rp Report

	if err := json.Unmarshal(buf, &rp); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &rp, nil
}
