package git

import (
	"fmt"
	"net/url"
	"strings"
)

// RemoteParts are the components of a remote repository
// URL.
type RemoteParts struct {
	// Host is the platform host, without port or
	// credentials.
	Host string
	// Owner is the user, organisation, or group path.
	// Nested group paths keep their slashes. Empty when
	// the URL carries no owner segment.
	Owner string
	// Name is the repository name, without the .git
	// suffix.
	Name string
}

// ParseRemoteURL extracts host, owner, and repository
// name from an https or scp-style ssh remote URL.
func ParseRemoteURL(remote string) (*RemoteParts, error) {
	const errCtx = "parsing remote url"

	var host, path string

	switch {
	case strings.Contains(remote, "://"):
		u, err := url.Parse(remote)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		host = u.Hostname()
		path = strings.Trim(u.Path, "/")
	case strings.Contains(remote, "@") &&
		strings.Contains(remote, ":"):
		// scp-style: git@host:owner/name.git
		rest := remote[strings.Index(remote, "@")+1:]

		var ok bool

		host, path, ok = strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf(
				"%s: %q", errCtx, remote,
			)
		}

		path = strings.Trim(path, "/")
	default:
		return nil, fmt.Errorf(
			"%s: unsupported form %q", errCtx, remote,
		)
	}

	if host == "" {
		return nil, fmt.Errorf(
			"%s: missing host in %q", errCtx, remote,
		)
	}

	owner, name := splitOwnerName(
		strings.TrimSuffix(path, ".git"),
	)
	if name == "" {
		return nil, fmt.Errorf(
			"%s: missing repository name in %q",
			errCtx, remote,
		)
	}

	return &RemoteParts{
		Host:  host,
		Owner: owner,
		Name:  name,
	}, nil
}

// splitOwnerName splits "owner/name" on the last slash.
// A path without slash is all name.
func splitOwnerName(path string) (string, string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}

	return path[:idx], path[idx+1:]
}
