package radiator

import (
	"slices"
	"strings"
)

// Compare orders entries worst result first, then by name. Entries without a
// comparable result (groups) are ordered by name only.
func Compare(a, b ViewEntry) int {
	ra, rb := a.LastFinishedResult(), b.LastFinishedResult()
	if ra.Valid() && rb.Valid() {
		if ra.IsBetterThan(rb) {
			return 1
		}
		if ra.IsWorseThan(rb) {
			return -1
		}
	}
	return strings.Compare(a.Name(), b.Name())
}

// SortEntries sorts in place with Compare. Entries that compare equal keep
// their relative order.
func SortEntries(entries []ViewEntry) {
	slices.SortStableFunc(entries, Compare)
}
