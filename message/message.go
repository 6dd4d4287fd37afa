// Package message expands commit message templates
// applied while replaying history.
package message

import (
	"strconv"
	"time"

	"github.com/valyala/fasttemplate"
)

// DefaultTemplate keeps the original commit message
// unchanged.
const DefaultTemplate = "{{message}}"

// Vars are the values available to a template.
type Vars struct {
	// Message is the original commit message.
	Message string
	// Index is the 1-based position of the commit,
	// oldest first.
	Index int
	// Total is the number of commits being rewritten.
	Total int
	// Date is the timestamp assigned to the commit.
	Date time.Time
}

// Expand substitutes {{message}}, {{index}}, {{total}},
// and {{date}} in tpl. Unknown placeholders are kept
// verbatim; placeholders inside substituted values are
// not expanded again. An empty tpl behaves like
// DefaultTemplate.
func Expand(tpl string, vars Vars) string {
	if tpl == "" {
		tpl = DefaultTemplate
	}

	return fasttemplate.ExecuteStringStd(
		tpl, "{{", "}}",
		map[string]any{
			"message": vars.Message,
			"index":   strconv.Itoa(vars.Index),
			"total":   strconv.Itoa(vars.Total),
			"date":    vars.Date.Format(time.RFC3339),
		},
	)
}
