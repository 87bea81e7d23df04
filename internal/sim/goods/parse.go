package goods

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Parse resolves a good from its ID ("CANNED_FOOD"), display name
// ("Canned Food") or CamelCase form ("CannedFood"), case-insensitively.
func Parse(s string) (Good, error) {
	key := normalize(s)
	if key == "" {
		return "", fmt.Errorf("empty good")
	}
	for _, g := range all {
		if normalize(string(g)) == key {
			return g, nil
		}
	}
	if best, ok := suggest(key); ok {
		return "", fmt.Errorf("unknown good %q (did you mean %s?)", s, best)
	}
	return "", fmt.Errorf("unknown good %q", s)
}

// MustParse is Parse for static tables; it panics on unknown input.
func MustParse(s string) Good {
	g, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return g
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func suggest(key string) (Good, bool) {
	var (
		best     Good
		bestDist = -1
	)
	for _, g := range all {
		cand := normalize(string(g))
		dist := levenshtein.ComputeDistance(key, cand)
		if dist > distanceLimit(len(cand)) {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = g, dist
		}
	}
	return best, bestDist >= 0
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
