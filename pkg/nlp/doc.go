// Package nlp is the language-analysis boundary of the command engine: it turns
// command text into tokens and labeled entity spans, applying the lexicon's
// priority patterns before any default entity recognition.
package nlp

import "context"

// Entity labels produced by patterns and default recognition.
const (
	LabelModule   = "MODULE"
	LabelPerson   = "PERSON"
	LabelName     = "NAME"
	LabelGPE      = "GPE"
	LabelOrg      = "ORG"
	LabelLocation = "LOC"
	LabelAddress  = "ADDRESS"
	LabelPhone    = "PHONE"
	LabelEmail    = "EMAIL"
	LabelDate     = "DATE"
	LabelGovID    = "GOVID"
)

// Token is one word or punctuation mark. Start and End are byte offsets into Doc.Text.
type Token struct {
	Text  string `json:"text"`
	Tag   string `json:"tag,omitempty"` // Penn Treebank part of speech, empty when unknown
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Span is a labeled entity. Start/End are byte offsets into Doc.Text;
// TokenStart/TokenEnd index Doc.Tokens with TokenEnd exclusive.
type Span struct {
	Text       string `json:"text"`
	Label      string `json:"label"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	TokenStart int    `json:"token_start"`
	TokenEnd   int    `json:"token_end"`
}

// Doc is the analysis of one command.
type Doc struct {
	Text   string  `json:"text"`
	Tokens []Token `json:"tokens"`
	Spans  []Span  `json:"spans"`
}

// Parser analyzes command text. Spans matched by patterns take priority over
// the parser's own entity recognition; a nil pattern set means none.
type Parser interface {
	Parse(ctx context.Context, text string, patterns *PatternSet) (*Doc, error)
}

// Similarity scores how related two pieces of text are, in [0,1].
type Similarity interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}
