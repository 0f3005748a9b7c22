package wikigg

import (
	"net/url"
	"slices"
	"strings"
)

// GameParams are the query parameters holding an in-progress game. They are
// only meaningful for the wiki they were chosen on.
var GameParams = []string{"start", "target"}

// stripParams removes every occurrence of the named parameters from a raw
// query string. Remaining parameters keep their order and encoding.
func stripParams(rawQuery string, names ...string) string {
	if rawQuery == "" {
		return ""
	}

	kept := make([]string, 0, strings.Count(rawQuery, "&")+1)
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		name, _, _ := strings.Cut(part, "=")
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		if slices.Contains(names, name) {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "&")
}
