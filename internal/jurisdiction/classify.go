// Package jurisdiction decides which government body receives the
// application for a given municipality. It is a pure rule table with no I/O:
// the guaranteed fallback when the AI verification step fails.
package jurisdiction

import "strings"

// Classification is the legal tier of a municipality.
type Classification int

const (
	// Ordinary municipalities are regulated by their prefecture.
	Ordinary Classification = iota
	// CoreCity (中核市) holds its own designation authority.
	CoreCity
	// DesignatedCity (政令指定都市) holds prefecture-equivalent authority.
	DesignatedCity
)

func (c Classification) String() string {
	switch c {
	case DesignatedCity:
		return "designated_city"
	case CoreCity:
		return "core_city"
	default:
		return "ordinary"
	}
}

// Classify determines the legal tier of a municipality name. Matching is
// fuzzy so that "横浜" and "横浜市" both resolve to the same entry; the
// designated-city table takes priority over the core-city table.
func Classify(city string) Classification {
	if matchesAny(designatedCities, city) {
		return DesignatedCity
	}
	if matchesAny(coreCities, city) {
		return CoreCity
	}
	return Ordinary
}

// matchesAny reports whether city matches a table entry: exact, the input
// contains the entry, or the entry contains the input minus a trailing 市.
func matchesAny(candidates []string, city string) bool {
	stripped := strings.TrimSuffix(city, "市")
	for _, c := range candidates {
		if c == city || strings.Contains(city, c) || (stripped != "" && strings.Contains(c, stripped)) {
			return true
		}
	}
	return false
}
