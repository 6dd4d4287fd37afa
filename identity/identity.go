// Package identity resolves the substitute identity
// applied to rewritten commits.
package identity

import (
	"fmt"

	"github.com/byte4ever/reauthor/git"
)

// Identity is the display name and email stamped on
// rewritten commits, for both author and committer.
type Identity struct {
	Name  string
	Email string
}

// Sources are the identity inputs in precedence order.
// Flag values win over configured defaults; the git
// configuration visible in Dir is the final fallback.
type Sources struct {
	// FlagName and FlagEmail come from the command
	// line.
	FlagName  string
	FlagEmail string
	// ConfigName and ConfigEmail come from the
	// configuration file.
	ConfigName  string
	ConfigEmail string
	// Dir is the directory whose git configuration is
	// consulted last.
	Dir string
}

// Resolve picks each identity field independently from
// the first non-empty source and fails when a field is
// empty everywhere.
func Resolve(src Sources) (Identity, error) {
	const errCtx = "resolving identity"

	id := Identity{
		Name:  firstNonEmpty(src.FlagName, src.ConfigName),
		Email: firstNonEmpty(src.FlagEmail, src.ConfigEmail),
	}

	if id.Name == "" || id.Email == "" {
		gitName, gitEmail := git.LookupIdentity(src.Dir)

		if id.Name == "" {
			id.Name = gitName
		}

		if id.Email == "" {
			id.Email = gitEmail
		}
	}

	if id.Name == "" {
		return Identity{}, fmt.Errorf(
			"%s: no author name: pass -name, set it in "+
				"the configuration file, or configure "+
				"git user.name", errCtx,
		)
	}

	if id.Email == "" {
		return Identity{}, fmt.Errorf(
			"%s: no author email: pass -email, set it "+
				"in the configuration file, or "+
				"configure git user.email", errCtx,
		)
	}

	return id, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
