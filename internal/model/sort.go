package model

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortByUsername orders records the way the UI expects them: English
// collation that ignores case and accents, raw username as tie-breaker.
func SortByUsername(records []Portfolio) {
	// A Collator keeps internal buffers and must not be shared.
	c := collate.New(language.English, collate.Loose)
	sort.SliceStable(records, func(i, j int) bool {
		if r := c.CompareString(records[i].Username, records[j].Username); r != 0 {
			return r < 0
		}
		return records[i].Username < records[j].Username
	})
}

// IsSortedByUsername is the check counterpart of SortByUsername.
func IsSortedByUsername(records []Portfolio) bool {
	c := collate.New(language.English, collate.Loose)
	for i := 1; i < len(records); i++ {
		r := c.CompareString(records[i-1].Username, records[i].Username)
		if r > 0 || (r == 0 && records[i-1].Username > records[i].Username) {
			return false
		}
	}
	return true
}
