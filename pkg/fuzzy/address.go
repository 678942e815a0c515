package fuzzy

import (
	"regexp"
	"strings"
)

// streetSuffixes maps full street-type words to their postal abbreviation.
var streetSuffixes = map[string]string{
	"avenue":    "ave",
	"street":    "st",
	"road":      "rd",
	"boulevard": "blvd",
	"drive":     "dr",
	"lane":      "ln",
	"court":     "ct",
	"place":     "pl",
	"highway":   "hwy",
	"parkway":   "pkwy",
	"terrace":   "ter",
	"square":    "sq",
	"circle":    "cir",
}

var abbreviations = func() map[string]bool {
	m := make(map[string]bool, len(streetSuffixes))
	for _, abbr := range streetSuffixes {
		m[abbr] = true
	}
	return m
}()

var directionals = map[string]string{
	"north": "n",
	"south": "s",
	"east":  "e",
	"west":  "w",
}

var (
	stateZipRe = regexp.MustCompile(`^([a-z]{2})(?:\s+(\d{5}(?:-\d{4})?))?$`)
	zipOnlyRe  = regexp.MustCompile(`^\d{5}(?:-\d{4})?$`)
	numberRe   = regexp.MustCompile(`^\d+[a-z]?$`)
	spaceRe    = regexp.MustCompile(`\s+`)
	junkRe     = regexp.MustCompile(`[^\p{L}\p{N},\s\-]`)
)

// StreetSuffixWords returns every full and abbreviated street-type word, for
// building recognizers.
func StreetSuffixWords() []string {
	words := make([]string, 0, len(streetSuffixes)*2)
	seen := make(map[string]bool)
	for full, abbr := range streetSuffixes {
		for _, w := range []string{full, abbr} {
			if !seen[w] {
				seen[w] = true
				words = append(words, w)
			}
		}
	}
	return words
}

// LooksLikeAddress reports whether s contains a comma or a street-type word.
// Abbreviations such as "st" or "dr" only count when s also contains a digit,
// so "Dr Smith" is not an address but "12 Oak Dr" is.
func LooksLikeAddress(s string) bool {
	if strings.Contains(s, ",") {
		return true
	}
	tokens := Tokens(s)
	hasDigit := strings.ContainsAny(s, "0123456789")
	for _, tok := range tokens {
		if _, ok := streetSuffixes[tok]; ok {
			return true
		}
		if hasDigit && abbreviations[tok] {
			return true
		}
	}
	return false
}

// Address is a loosely parsed postal address. Every field is canonical: folded,
// with street types and directionals abbreviated.
type Address struct {
	Number string
	Street string
	City   string
	State  string
	Zip    string
}

// String serializes the address as "number street, city, state zip",
// omitting empty parts.
func (a Address) String() string {
	var parts []string
	if street := strings.TrimSpace(a.Number + " " + a.Street); street != "" {
		parts = append(parts, street)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	if tail := strings.TrimSpace(a.State + " " + a.Zip); tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// ParseAddress splits s on commas into street, city and state/zip parts.
// The first part is always the street line; a trailing part that looks like
// "ST 12345", "ST" or a bare zip becomes State/Zip.
func ParseAddress(s string) Address {
	var parts []string
	for _, p := range strings.Split(collapse(s), ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	var addr Address
	if len(parts) == 0 {
		return addr
	}

	words := strings.Fields(canonicalWords(parts[0]))
	if len(words) > 1 && numberRe.MatchString(words[0]) {
		addr.Number = words[0]
		words = words[1:]
	}
	addr.Street = strings.Join(words, " ")

	rest := parts[1:]
	if n := len(rest); n > 0 {
		last := rest[n-1]
		if m := stateZipRe.FindStringSubmatch(last); m != nil && (n > 1 || m[2] != "") {
			addr.State, addr.Zip = m[1], m[2]
			rest = rest[:n-1]
		} else if zipOnlyRe.MatchString(last) {
			addr.Zip = last
			rest = rest[:n-1]
		}
	}
	if len(rest) > 0 {
		addr.City = strings.Join(rest, " ")
	}
	return addr
}

// NormalizeAddress canonicalizes s for comparison: folded, punctuation
// collapsed, street types and directionals abbreviated and re-serialized
// through ParseAddress.
func NormalizeAddress(s string) string {
	return ParseAddress(s).String()
}

// collapse folds s, drops punctuation other than commas and hyphens, and
// squeezes whitespace.
func collapse(s string) string {
	s = junkRe.ReplaceAllString(Fold(s), " ")
	s = strings.ReplaceAll(s, ",", ", ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func canonicalWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if abbr, ok := streetSuffixes[w]; ok {
			words[i] = abbr
		} else if abbr, ok := directionals[w]; ok {
			words[i] = abbr
		}
	}
	return strings.Join(words, " ")
}
