package app

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidKey is returned by NormalizeKey for input that cannot name a wiki.
var ErrInvalidKey = errors.New("invalid wiki key")

var (
	keyAllowed  = regexp.MustCompile(`^[a-z0-9\-]+$`)
	keyDashRuns = regexp.MustCompile(`-+`)
)

// NormalizeKey turns user input from the wiki selector into a path-safe key:
// diacritics are stripped, letters lower-cased, spaces and underscores become
// dashes. It does not check that the key is a known wiki.
func NormalizeKey(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if strings.ContainsAny(trimmed, "/\\?&:#'\"%") || strings.Contains(trimmed, "..") {
		return "", ErrInvalidKey
	}

	trimmed = stripDiacritics(trimmed)
	trimmed = normalizeUnicode(trimmed)
	trimmed = keyDashRuns.ReplaceAllString(trimmed, "-")
	trimmed = strings.Trim(trimmed, "-")

	if trimmed == "" || !keyAllowed.MatchString(trimmed) {
		return "", ErrInvalidKey
	}

	return trimmed, nil
}

func normalizeUnicode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
		case r == '-' || r == '_' || r == ' ':
			b.WriteRune('-')
		default:
			// drop everything else
		}
	}
	return b.String()
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripDiacritics(s string) string {
	stripped, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return stripped
}
