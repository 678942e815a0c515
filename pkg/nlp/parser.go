package nlp

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tsawler/prose/v3"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/apperrors"
)

var ruleTokenRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’.\-@_][\p{L}\p{N}]+)*|[^\s\p{L}\p{N}]`)

// Tokenize splits text into words and punctuation. Words keep internal
// apostrophes, dots, hyphens and @ so phone numbers and emails stay whole.
func Tokenize(text string) []Token {
	locs := ruleTokenRe.FindAllStringIndex(text, -1)
	tokens := make([]Token, 0, len(locs))
	for _, loc := range locs {
		tokens = append(tokens, Token{Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}
	return tokens
}

// RuleParser recognizes entities with lexicon patterns only. It has no
// statistical model and produces no part-of-speech tags.
type RuleParser struct{}

var _ Parser = RuleParser{}

// Parse tokenizes text and applies patterns.
func (RuleParser) Parse(ctx context.Context, text string, patterns *PatternSet) (*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tokens := Tokenize(text)
	return &Doc{Text: text, Tokens: tokens, Spans: patterns.Match(text, tokens)}, nil
}

// ProseParser uses the prose library for tokens, part-of-speech tags and default
// named-entity recognition. Pattern spans are applied first and prose entities
// that overlap them are dropped.
type ProseParser struct {
	logger *zap.Logger
}

var _ Parser = (*ProseParser)(nil)

// NewProseParser creates a prose-backed parser. If logger is nil, a no-op logger is used.
func NewProseParser(logger *zap.Logger) *ProseParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProseParser{logger: logger.Named("nlp")}
}

// Parse analyzes text with prose and the given patterns.
func (p *ProseParser) Parse(ctx context.Context, text string, patterns *PatternSet) (*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrParserUnavailable, err)
	}

	// prose reports token and entity text without offsets; locate them in order.
	var tokens []Token
	cursor := 0
	for _, tok := range doc.Tokens() {
		start, end, ok := locate(text, tok.Text, cursor)
		if !ok {
			p.logger.Debug("Dropping token not found in text", zap.String("token", tok.Text))
			continue
		}
		tokens = append(tokens, Token{Text: text[start:end], Tag: tok.Tag, Start: start, End: end})
		cursor = end
	}

	spans := patterns.Match(text, tokens)
	patternSpans := len(spans)

	cursor = 0
	for _, ent := range doc.Entities() {
		start, end, ok := locate(text, ent.Text, cursor)
		if !ok {
			continue
		}
		cursor = end
		if overlapsAny(spans[:patternSpans], start, end) {
			continue
		}
		spans = append(spans, newSpan(text, tokens, start, end, strings.ToUpper(ent.Label)))
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	return &Doc{Text: text, Tokens: tokens, Spans: spans}, nil
}

// locate finds needle in text at or after from.
func locate(text, needle string, from int) (int, int, bool) {
	if needle == "" || from > len(text) {
		return 0, 0, false
	}
	idx := strings.Index(text[from:], needle)
	if idx < 0 {
		return 0, 0, false
	}
	start := from + idx
	return start, start + len(needle), true
}
