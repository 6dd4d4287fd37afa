package rewrite

// Exported aliases for testing internal functions from
// rewrite_test package.

// ValidateForTest exposes validate.
var ValidateForTest = validate

// DefaultCandidatesForTest exposes defaultCandidates.
var DefaultCandidatesForTest = defaultCandidates
