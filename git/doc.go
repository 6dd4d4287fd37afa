// Package git provides git repository operations and a strategy interface for
// creating repositories on different git hosting platforms.
//
// The Publisher interface abstracts remote repository creation. Implementations
// exist for GitHub, GitLab, and Bitbucket Server in sub-packages. PublisherFunc
// is a convenience adapter that lets plain functions satisfy the interface.
//
// Repo wraps a local git clone with methods for replaying history onto an
// orphan branch and force-pushing the result. Clone creates a new Repo from a
// remote URL with optional mirror reference.
package git
