// Package view holds the presentation logic shared by the panel and the CLI:
// filtering, text formatting and clipboard access. It never touches the store.
package view

import (
	"strings"

	"github.com/kcaldas/devconsole/pkg/types"
)

// FilterAll matches every level
const FilterAll = "ALL"

// Filters lists the level filters in the order the panel cycles through them
var Filters = []string{FilterAll, string(types.LevelDebug), string(types.LevelError), string(types.LevelObject)}

// Filter returns the entries matching level and search, oldest first.
// level is FilterAll or an exact level name. search matches message or title,
// case-insensitively; empty matches everything.
func Filter(logs []types.Entry, level, search string) []types.Entry {
	if level == "" {
		level = FilterAll
	}
	needle := strings.ToLower(search)

	out := make([]types.Entry, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		e := logs[i]
		if level != FilterAll && string(e.Level) != level {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(e.Message), needle) &&
			!strings.Contains(strings.ToLower(e.Title), needle) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// NextFilter returns the filter following current, wrapping around
func NextFilter(current string) string {
	for i, f := range Filters {
		if f == current {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// NormalizeFilter maps user input such as "error" to a filter value
func NormalizeFilter(s string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if upper == "" {
		return FilterAll, true
	}
	for _, f := range Filters {
		if f == upper {
			return f, true
		}
	}
	return FilterAll, false
}
