package wikigg

import (
	"net/url"
	"strings"
)

// Match is the outcome of resolving a navigation path.
type Match struct {
	Key  string
	Wiki Descriptor
	// Fallback is set when the path named no known wiki and the default was used.
	Fallback bool
}

// Match resolves path to a wiki. It never fails: a missing marker, a missing
// key or an unknown key all yield the default wiki.
func (r *Registry) Match(path string) Match {
	segs := segments(path)
	if i := indexOf(segs, r.marker); i >= 0 && i+1 < len(segs) {
		if d, ok := r.wikis[segs[i+1]]; ok {
			return Match{Key: d.Key, Wiki: d}
		}
	}
	return Match{Key: r.defaultKey, Wiki: r.Default(), Fallback: true}
}

// ResolveCurrentWiki returns the descriptor of the wiki path is playing.
func (r *Registry) ResolveCurrentWiki(path string) Descriptor {
	return r.Match(path).Wiki
}

// CurrentWikiKey returns the key of the wiki path is playing.
func (r *Registry) CurrentWikiKey(path string) string {
	return r.Match(path).Key
}

// SwitchWiki returns the location to navigate to when the player picks newKey
// while on current. The segment after the marker is replaced, or the path
// becomes /<marker>/<newKey> when there is no marker. Game parameters are
// dropped since they belong to the previous wiki.
func (r *Registry) SwitchWiki(current, newKey string) string {
	origin, path, query, fragment := splitLocation(current)

	segs := segments(path)
	key := url.PathEscape(newKey)

	loc := origin
	if i := indexOf(segs, r.marker); i >= 0 {
		if i+1 < len(segs) {
			segs[i+1] = key
		} else {
			segs = append(segs, key)
		}
		loc += "/" + strings.Join(segs, "/")
	} else {
		loc += "/" + url.PathEscape(r.marker) + "/" + key
	}

	if q := stripParams(query, GameParams...); q != "" {
		loc += "?" + q
	}
	if fragment != "" {
		loc += "#" + fragment
	}
	return loc
}

// splitLocation breaks a location into origin, escaped path, raw query and
// fragment. Origin is only set for absolute URLs; anything without a scheme
// is treated as a path, even when it starts with "//".
func splitLocation(raw string) (origin, path, query, fragment string) {
	raw, fragment, _ = strings.Cut(raw, "#")
	raw, query, _ = strings.Cut(raw, "?")
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Scheme + "://" + u.Host, u.EscapedPath(), query, fragment
	}
	return "", raw, query, fragment
}

// segments splits a path into its non-empty segments, ignoring any query or
// fragment.
func segments(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func indexOf(segs []string, want string) int {
	for i, s := range segs {
		if s == want {
			return i
		}
	}
	return -1
}
