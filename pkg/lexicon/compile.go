package lexicon

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/ekaya-inc/ekaya-command/pkg/fuzzy"
	"github.com/ekaya-inc/ekaya-command/pkg/nlp"
	"github.com/ekaya-inc/ekaya-command/pkg/synonyms"
)

// maxPhraseLength bounds sampled values turned into phrase patterns; longer
// values are free text that a command will not quote verbatim.
const maxPhraseLength = 80

// Generic recognizers, applied after every schema-derived pattern.
var (
	phoneRe = regexp.MustCompile(`(?:\(\d{3}\)\s?|\b\d{3}[-.\s]?)\d{3}[-.\s]?\d{4}\b`)
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	isoDate = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	usDate  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	relDate = regexp.MustCompile(`(?i)\b(?:today|tonight|yesterday|tomorrow|(?:last|this|next) (?:night|morning|afternoon|evening|week|month|year))\b`)
	govID   = regexp.MustCompile(`(?i)\bGOV-?\d{4,}\b`)
)

// streetRe matches an optional house number, one word and a street type.
var streetRe = func() *regexp.Regexp {
	words := fuzzy.StreetSuffixWords()
	sort.Slice(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	return regexp.MustCompile(`(?i)\b(?:\d+[a-z]{0,2}\s+)?[a-z0-9]+\s+(?:` + strings.Join(words, "|") + `)\b`)
}()

// CompileOptions configures pattern compilation.
type CompileOptions struct {
	// Synonyms are excluded from the capitalized-word name recognizer.
	Synonyms *synonyms.Map
	// Vocabulary lists command words (intent keywords, stop-words) that are never names.
	Vocabulary []string
}

// Compile turns modules into the priority pattern list, in this order:
// module names and aliases, sampled column values (raw then normalized),
// address bigrams, generic recognizers, capitalized single words.
func Compile(modules []Module, opts CompileOptions) *nlp.PatternSet {
	var patterns []nlp.Pattern
	seen := make(map[string]bool)
	add := func(label, value string) {
		value = strings.TrimSpace(value)
		if !usablePhrase(value) {
			return
		}
		key := label + "\x00" + strings.ToLower(value)
		if seen[key] {
			return
		}
		seen[key] = true
		patterns = append(patterns, nlp.Pattern{Label: label, Kind: nlp.PhrasePattern, Value: value})
	}

	exclusions := append([]string(nil), opts.Vocabulary...)
	for _, m := range modules {
		add(nlp.LabelModule, m.Name)
		exclusions = append(exclusions, m.Name)
		for _, a := range m.Aliases {
			add(nlp.LabelModule, a)
			exclusions = append(exclusions, a)
		}
	}
	if opts.Synonyms != nil {
		exclusions = append(exclusions, opts.Synonyms.Aliases()...)
	}

	for _, m := range modules {
		for _, c := range m.Columns {
			label := strings.ToUpper(c.Name)
			for _, v := range c.Samples {
				add(label, v)
			}
			for _, v := range c.Normalized {
				add(label, v)
			}
		}
	}

	for _, m := range modules {
		for _, c := range m.Columns {
			if c.Role != RoleAddress {
				continue
			}
			label := strings.ToUpper(c.Name)
			for _, v := range c.Samples {
				for _, bg := range bigrams(v) {
					add(label, bg)
				}
			}
		}
	}

	patterns = append(patterns,
		nlp.Pattern{Label: nlp.LabelPhone, Kind: nlp.RegexPattern, Regex: phoneRe},
		nlp.Pattern{Label: nlp.LabelEmail, Kind: nlp.RegexPattern, Regex: emailRe},
		nlp.Pattern{Label: nlp.LabelDate, Kind: nlp.RegexPattern, Regex: isoDate},
		nlp.Pattern{Label: nlp.LabelDate, Kind: nlp.RegexPattern, Regex: usDate},
		nlp.Pattern{Label: nlp.LabelDate, Kind: nlp.RegexPattern, Regex: relDate},
		nlp.Pattern{Label: nlp.LabelGovID, Kind: nlp.RegexPattern, Regex: govID},
		nlp.Pattern{Label: nlp.LabelAddress, Kind: nlp.RegexPattern, Regex: streetRe},
		nlp.Pattern{Label: nlp.LabelPerson, Kind: nlp.TitleWordPattern},
	)

	return nlp.NewPatternSet(patterns, exclusions)
}

// usablePhrase rejects values too short, too long or purely numeric to be
// recognized safely by exact match.
func usablePhrase(v string) bool {
	if len([]rune(v)) < 2 || len(v) > maxPhraseLength {
		return false
	}
	for _, r := range v {
		if !unicode.IsDigit(r) && !unicode.IsSpace(r) && !unicode.IsPunct(r) {
			return true
		}
	}
	return false
}

// bigrams returns adjacent word pairs of the first comma-separated part of an
// address, so "221 Baker Street, Springfield" yields "221 Baker" and "Baker Street"
// and "5th Avenue, New York" yields "5th Avenue".
func bigrams(address string) []string {
	first, _, _ := strings.Cut(address, ",")
	words := strings.Fields(first)
	if len(words) < 2 {
		return nil
	}
	out := make([]string, 0, len(words)-1)
	for i := 0; i+1 < len(words); i++ {
		out = append(out, words[i]+" "+words[i+1])
	}
	return out
}
