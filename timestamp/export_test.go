package timestamp

// Exported aliases for testing internal functions from
// timestamp_test package.

// IsWeekendForTest exposes isWeekend.
var IsWeekendForTest = isWeekend
