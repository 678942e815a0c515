package nlp

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PatternKind selects how a Pattern matches.
type PatternKind int

const (
	// PhrasePattern matches Value case-insensitively on word boundaries.
	PhrasePattern PatternKind = iota
	// RegexPattern matches Regex anywhere in the text.
	RegexPattern
	// TitleWordPattern matches any single capitalized word not in the set's exclusions.
	TitleWordPattern
)

// Pattern is one priority recognizer.
type Pattern struct {
	Label string
	Kind  PatternKind
	Value string
	Regex *regexp.Regexp
}

// PatternSet is an immutable, ordered list of patterns. Earlier patterns win
// ties against later ones.
type PatternSet struct {
	patterns   []Pattern
	phrases    []string // lowered Value per pattern, "" for non-phrase kinds
	exclusions map[string]bool
}

// NewPatternSet builds a set from patterns in priority order. exclusions lists
// words (any case) that TitleWordPattern must never match.
func NewPatternSet(patterns []Pattern, exclusions []string) *PatternSet {
	ps := &PatternSet{
		patterns:   append([]Pattern(nil), patterns...),
		phrases:    make([]string, len(patterns)),
		exclusions: make(map[string]bool, len(exclusions)),
	}
	for i, p := range ps.patterns {
		if p.Kind == PhrasePattern {
			ps.phrases[i] = asciiLower(strings.TrimSpace(p.Value))
		}
	}
	for _, w := range exclusions {
		ps.exclusions[strings.ToLower(w)] = true
	}
	return ps
}

// Len returns the number of patterns.
func (ps *PatternSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.patterns)
}

// Patterns returns a copy of the patterns in priority order.
func (ps *PatternSet) Patterns() []Pattern {
	if ps == nil {
		return nil
	}
	return append([]Pattern(nil), ps.patterns...)
}

type candidate struct {
	start, end int
	pattern    int
	label      string
}

// Match returns the non-overlapping pattern spans in text ordered by position.
// Among overlapping candidates the longest wins, then the earliest pattern,
// then the leftmost.
func (ps *PatternSet) Match(text string, tokens []Token) []Span {
	if ps.Len() == 0 || text == "" {
		return nil
	}

	lowered := asciiLower(text)
	var cands []candidate

	for i, p := range ps.patterns {
		switch p.Kind {
		case PhrasePattern:
			phrase := ps.phrases[i]
			if phrase == "" {
				continue
			}
			for from := 0; from < len(lowered); {
				idx := strings.Index(lowered[from:], phrase)
				if idx < 0 {
					break
				}
				start := from + idx
				end := start + len(phrase)
				if atWordBoundary(text, start, end) {
					cands = append(cands, candidate{start: start, end: end, pattern: i, label: p.Label})
				}
				from = start + 1
			}
		case RegexPattern:
			if p.Regex == nil {
				continue
			}
			for _, loc := range p.Regex.FindAllStringIndex(text, -1) {
				if loc[1] > loc[0] {
					cands = append(cands, candidate{start: loc[0], end: loc[1], pattern: i, label: p.Label})
				}
			}
		case TitleWordPattern:
			for _, tok := range tokens {
				if isTitleWord(tok.Text) && !ps.exclusions[strings.ToLower(tok.Text)] {
					cands = append(cands, candidate{start: tok.Start, end: tok.End, pattern: i, label: p.Label})
				}
			}
		}
	}

	sort.SliceStable(cands, func(a, b int) bool {
		la, lb := cands[a].end-cands[a].start, cands[b].end-cands[b].start
		if la != lb {
			return la > lb
		}
		if cands[a].pattern != cands[b].pattern {
			return cands[a].pattern < cands[b].pattern
		}
		return cands[a].start < cands[b].start
	})

	var accepted []candidate
	for _, c := range cands {
		overlaps := false
		for _, a := range accepted {
			if c.start < a.end && a.start < c.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			accepted = append(accepted, c)
		}
	}

	sort.Slice(accepted, func(a, b int) bool { return accepted[a].start < accepted[b].start })

	spans := make([]Span, 0, len(accepted))
	for _, c := range accepted {
		spans = append(spans, newSpan(text, tokens, c.start, c.end, c.label))
	}
	return spans
}

// newSpan builds a span for text[start:end] and resolves the tokens it overlaps.
func newSpan(text string, tokens []Token, start, end int, label string) Span {
	s := Span{Text: text[start:end], Label: label, Start: start, End: end, TokenStart: -1, TokenEnd: -1}
	for i, tok := range tokens {
		if tok.End <= start || tok.Start >= end {
			continue
		}
		if s.TokenStart < 0 {
			s.TokenStart = i
		}
		s.TokenEnd = i + 1
	}
	if s.TokenStart < 0 {
		s.TokenStart, s.TokenEnd = 0, 0
	}
	return s
}

func overlapsAny(spans []Span, start, end int) bool {
	for _, s := range spans {
		if start < s.End && s.Start < end {
			return true
		}
	}
	return false
}

func atWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isTitleWord reports an upper-case letter followed by at least one lower-case letter.
func isTitleWord(s string) bool {
	if utf8.RuneCountInString(s) < 2 {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsUpper(r) {
				return false
			}
			continue
		}
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

// asciiLower lower-cases ASCII letters only, so byte offsets are preserved.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
