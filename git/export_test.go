package git

// Exported aliases for testing internal functions from
// git_test package.

// ParseLogForTest exposes parseLog.
var ParseLogForTest = parseLog

// SplitOwnerNameForTest exposes splitOwnerName.
var SplitOwnerNameForTest = splitOwnerName
