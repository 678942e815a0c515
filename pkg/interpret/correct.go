package interpret

import (
	"strings"
	"unicode/utf8"

	"github.com/ekaya-inc/ekaya-command/pkg/fuzzy"
	"github.com/ekaya-inc/ekaya-command/pkg/lexicon"
)

// passThrough labels carry values that are unambiguous as written.
var passThrough = map[string]bool{
	LabelDate:         true,
	LabelTime:         true,
	LabelPhone:        true,
	LabelEmail:        true,
	LabelGovernmentID: true,
}

// minContainment is the shortest query the containment step accepts.
const minContainment = 3

// MatchStrategy is one step of fuzzy correction. query and keys are already
// in the comparison form of the path; it returns the index of the chosen key.
type MatchStrategy interface {
	Name() string
	Match(query string, keys []string) (int, bool)
}

// Correction is the outcome of correcting one entity.
type Correction struct {
	Value    string
	Matched  bool
	Strategy string // empty for pass-through labels and misses
}

// Corrector snaps entity text onto stored values.
type Corrector struct {
	address []MatchStrategy
	general []MatchStrategy
}

// NewCorrector creates a corrector with the standard strategy order for both
// paths: scored similarity, containment, phonetic. cutoff is on the 0-100 scale.
func NewCorrector(cutoff int) *Corrector {
	phonetic := Phonetic{Threshold: float64(cutoff) / 100}
	return &Corrector{
		address: []MatchStrategy{
			Scored{Label: "token_set", Score: fuzzy.TokenSetRatio, Cutoff: cutoff},
			Containment{},
			phonetic,
		},
		general: []MatchStrategy{
			Scored{Label: "token_sort", Score: fuzzy.TokenSortRatio, Cutoff: cutoff},
			Containment{},
			phonetic,
		},
	}
}

// Correct returns the stored value text should be replaced with. Candidates
// come from the columns of module related to label. Matched is false when
// no candidate cleared any step; Value is then text unchanged.
func (c *Corrector) Correct(snap *lexicon.Snapshot, module, label, text string) Correction {
	if passThrough[label] {
		return Correction{Value: text, Matched: true}
	}

	cands := snap.Candidates(module, label)
	if len(cands) == 0 {
		return Correction{Value: text}
	}

	for _, cand := range cands {
		if cand.Value == text {
			return Correction{Value: cand.Value, Matched: true, Strategy: "exact"}
		}
	}

	var query string
	var keys []string
	var strategies []MatchStrategy
	if fuzzy.LooksLikeAddress(text) {
		query = fuzzy.NormalizeAddress(text)
		keys = make([]string, len(cands))
		for i, cand := range cands {
			keys[i] = cand.Normalized
			if keys[i] == "" {
				keys[i] = fuzzy.NormalizeAddress(cand.Value)
			}
		}
		strategies = c.address
	} else {
		query = fuzzy.Fold(text)
		keys = make([]string, len(cands))
		for i, cand := range cands {
			keys[i] = fuzzy.Fold(cand.Value)
		}
		strategies = c.general
	}

	for _, s := range strategies {
		if i, ok := s.Match(query, keys); ok {
			return Correction{Value: cands[i].Value, Matched: true, Strategy: s.Name()}
		}
	}
	return Correction{Value: text}
}

// Scored accepts the highest Score at or above Cutoff. The first key wins ties.
type Scored struct {
	Label  string
	Score  func(a, b string) int
	Cutoff int
}

func (s Scored) Name() string { return s.Label }

func (s Scored) Match(query string, keys []string) (int, bool) {
	bestIdx, bestScore := -1, -1
	for i, k := range keys {
		if score := s.Score(query, k); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestIdx < 0 || bestScore < s.Cutoff {
		return 0, false
	}
	return bestIdx, true
}

// Containment accepts the first key that contains the query or is contained in it.
type Containment struct{}

func (Containment) Name() string { return "containment" }

func (Containment) Match(query string, keys []string) (int, bool) {
	if utf8.RuneCountInString(query) < minContainment {
		return 0, false
	}
	for i, k := range keys {
		if k == "" {
			continue
		}
		if strings.Contains(k, query) || strings.Contains(query, k) {
			return i, true
		}
	}
	return 0, false
}

// Phonetic accepts the best fuzzy.Phonetic score at or above Threshold.
type Phonetic struct {
	Threshold float64
}

func (Phonetic) Name() string { return "phonetic" }

func (p Phonetic) Match(query string, keys []string) (int, bool) {
	bestIdx, bestScore := -1, -1.0
	for i, k := range keys {
		if score := fuzzy.Phonetic(query, k); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestIdx < 0 || bestScore < p.Threshold {
		return 0, false
	}
	return bestIdx, true
}
