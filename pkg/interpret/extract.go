package interpret

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ekaya-inc/ekaya-command/pkg/lexicon"
	"github.com/ekaya-inc/ekaya-command/pkg/nlp"
)

// Normalized entity labels.
const (
	LabelName         = "name"
	LabelAddress      = "address"
	LabelAge          = "age"
	LabelGovernmentID = "governmentid"
	LabelPhone        = "phone_number"
	LabelEmail        = "email"
	LabelDate         = "date"
	LabelTime         = "time"
)

var labelTable = map[string]string{
	"GPE":          LabelAddress,
	"ORG":          LabelAddress,
	"ORGANIZATION": LabelAddress,
	"LOC":          LabelAddress,
	"LOCATION":     LabelAddress,
	"FAC":          LabelAddress,
	"ADDRESS":      LabelAddress,
	"CARDINAL":     LabelAge,
	"PERSON":       LabelName,
	"NAME":         LabelName,
	"GOVID":        LabelGovernmentID,
	"PHONE":        LabelPhone,
	"EMAIL":        LabelEmail,
	"DATE":         LabelDate,
	"TIME":         LabelTime,
}

// NormalizeLabel maps a span label to its entity label. Labels not in the
// table are lower-cased.
func NormalizeLabel(label string) string {
	if l, ok := labelTable[strings.ToUpper(label)]; ok {
		return l
	}
	return strings.ToLower(label)
}

// Entity is one extracted fragment before correction.
type Entity struct {
	Label string // normalized label
	Text  string // span text with stop-words removed
	Raw   string // span text as recognized
}

// Extraction is what the extractor found in a parsed command.
type Extraction struct {
	// Module is set when a MODULE span names a known module.
	Module   string
	Entities []Entity
}

// Extract turns parsed spans into entities. GPE spans that are a single
// title-case word are treated as persons; contiguous person spans are merged
// into one name.
func Extract(doc *nlp.Doc, snap *lexicon.Snapshot) Extraction {
	var out Extraction
	if doc == nil {
		return out
	}

	spans := mergePersons(doc.Text, fixLabels(doc.Spans))

	for _, s := range spans {
		if s.Label == nlp.LabelModule {
			if out.Module == "" {
				if m, ok := snap.ResolveName(s.Text); ok {
					out.Module = m
				}
			}
			continue
		}

		text := stripStopWords(s.Text)
		if text == "" {
			continue
		}
		out.Entities = append(out.Entities, Entity{
			Label: NormalizeLabel(s.Label),
			Text:  text,
			Raw:   s.Text,
		})
	}
	return out
}

func fixLabels(spans []nlp.Span) []nlp.Span {
	out := make([]nlp.Span, len(spans))
	copy(out, spans)
	for i, s := range out {
		if s.Label == nlp.LabelGPE && s.TokenEnd-s.TokenStart == 1 && isTitleCase(s.Text) {
			out[i].Label = nlp.LabelPerson
		}
	}
	return out
}

func isPersonLabel(label string) bool {
	return label == nlp.LabelPerson || label == nlp.LabelName
}

// mergePersons joins runs of person spans whose token ranges touch.
func mergePersons(text string, spans []nlp.Span) []nlp.Span {
	var out []nlp.Span
	for _, s := range spans {
		if n := len(out); n > 0 {
			prev := &out[n-1]
			if isPersonLabel(prev.Label) && isPersonLabel(s.Label) &&
				prev.TokenEnd == s.TokenStart && prev.TokenEnd > prev.TokenStart {
				prev.End = s.End
				prev.TokenEnd = s.TokenEnd
				prev.Text = text[prev.Start:prev.End]
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func stripStopWords(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if !stopWords[strings.ToLower(strings.TrimFunc(w, unicode.IsPunct))] {
			kept = append(kept, w)
		}
	}
	return strings.TrimFunc(strings.Join(kept, " "), func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

func isTitleCase(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	if !unicode.IsUpper(r) || size == len(s) {
		return false
	}
	for _, r := range s[size:] {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}
