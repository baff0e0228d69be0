package domain

import (
	"strings"
	"unicode"
)

// stationAliases maps live-feed spellings to the static reference
// spellings. Hand-curated from observed mismatches between the water level
// bulletins and the static stations file.
var stationAliases = map[string]string{
	"Nagalagam Street": "N' Street",
	"Kithulgala":       "Kitulgala",
	"Rathnapura":       "Ratnapura",
	"Thawalama":        "Tawalama",
	"Thanamalwila":     "Tanamalwila",
	"Thaldena":         "Taldena",
	"Horowpothana":     "Horowpatana",
	"Yaka Wewa":        "Yakawewa",
	"Thanthirimale":    "Tantirimale",
	"Padiyathalawa":    "Padiyatalawa",
	"Manampitiya":      "Manampitiya (HMIS)",
	"Weraganthota":     "Weragantota",
}

// NormalizeStationName returns the canonical join key for a station name:
// the aliased spelling folded to lowercase with whitespace, apostrophes,
// and parentheses removed. Two station references are the same station
// exactly when their normalized keys are equal. Idempotent.
func NormalizeStationName(name string) string {
	if alias, ok := stationAliases[name]; ok {
		name = alias
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) || r == '\'' || r == '(' || r == ')' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
