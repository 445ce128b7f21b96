package dynamo

import (
	"strings"
	"time"
)

// sortKeyTimeLayout is fixed-width so that lexicographic order on the sort
// key equals chronological order. RFC3339Nano would drop trailing zeros and
// break that.
const sortKeyTimeLayout = "2006-01-02T15:04:05.000000000Z"

// sortKey builds the composite clustering key "<event_time>#<id>". Reading
// the partition with ScanIndexForward=false yields newest-first scans.
func sortKey(t time.Time, id string) string {
	return t.UTC().Format(sortKeyTimeLayout) + "#" + id
}

// sortKeyLowerBound is the smallest sort key at or after t, used as the
// range-scan window start.
func sortKeyLowerBound(t time.Time) string {
	return t.UTC().Format(sortKeyTimeLayout)
}

// splitSortKey recovers the id component of a composite sort key.
func splitSortKey(key string) (timePart, id string) {
	if i := strings.IndexByte(key, '#'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}
