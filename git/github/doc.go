// Package github implements a git.Publisher that creates repositories on
// GitHub (cloud or enterprise). Configure with a Config containing the
// personal access token. Set EnterpriseHost for GitHub Enterprise
// installations.
package github
