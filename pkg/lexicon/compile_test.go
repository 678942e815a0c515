package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-command/pkg/nlp"
	"github.com/ekaya-inc/ekaya-command/pkg/synonyms"
)

// spanLabels maps span text to label for compact assertions.
func spanLabels(spans []nlp.Span) map[string]string {
	out := make(map[string]string, len(spans))
	for _, s := range spans {
		out[s.Text] = s.Label
	}
	return out
}

func compileAndMatch(t *testing.T, text string) []nlp.Span {
	t.Helper()
	ps := Compile(fixtureModules(), CompileOptions{
		Synonyms:   synonyms.Default(),
		Vocabulary: []string{"show", "add", "to"},
	})
	return ps.Match(text, nlp.Tokenize(text))
}

func TestCompile_PatternOrder(t *testing.T) {
	ps := Compile(fixtureModules(), CompileOptions{})
	patterns := ps.Patterns()
	require.NotEmpty(t, patterns)

	assert.Equal(t, nlp.LabelModule, patterns[0].Label)
	assert.Equal(t, "citizens", patterns[0].Value)

	last := patterns[len(patterns)-1]
	assert.Equal(t, nlp.TitleWordPattern, last.Kind)
	assert.Equal(t, nlp.LabelPerson, last.Label)

	firstRegex := -1
	for i, p := range patterns {
		if p.Kind == nlp.RegexPattern {
			firstRegex = i
			break
		}
	}
	require.Greater(t, firstRegex, 0)
	for _, p := range patterns[:firstRegex] {
		assert.Equal(t, nlp.PhrasePattern, p.Kind)
	}
}

func TestCompile_RecognizesModulesAndSampledValues(t *testing.T) {
	labels := spanLabels(compileAndMatch(t, "show me fire incidents on 5th avenue"))

	assert.Equal(t, nlp.LabelModule, labels["incidents"])
	assert.Equal(t, "INCIDENT_TYPE", labels["fire"])
	assert.Equal(t, "ADDRESS", labels["5th avenue"])
}

func TestCompile_PersonAndPhone(t *testing.T) {
	labels := spanLabels(compileAndMatch(t, "add John Smith to citizens, phone 555-123-4567"))

	assert.Equal(t, "NAME", labels["John Smith"])
	assert.Equal(t, nlp.LabelModule, labels["citizens"])
	// Purely numeric samples are left to the phone recognizer.
	assert.Equal(t, nlp.LabelPhone, labels["555-123-4567"])
}

func TestCompile_GenericRecognizers(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		span  string
		label string
	}{
		{"phone", "call 555-987-6543 now", "555-987-6543", nlp.LabelPhone},
		{"email", "mail jane.doe@example.org", "jane.doe@example.org", nlp.LabelEmail},
		{"iso date", "arrested 2024-03-14", "2024-03-14", nlp.LabelDate},
		{"us date", "arrested 3/14/2024", "3/14/2024", nlp.LabelDate},
		{"relative date", "reports from last night", "last night", nlp.LabelDate},
		{"government id", "holder of GOV-100999", "GOV-100999", nlp.LabelGovID},
		{"street", "seen near 17 Oak Road", "17 Oak Road", nlp.LabelAddress},
		{"capitalized word", "find Victor", "Victor", nlp.LabelPerson},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := spanLabels(compileAndMatch(t, tt.text))
			assert.Equal(t, tt.label, labels[tt.span], "spans: %v", labels)
		})
	}
}

func TestCompile_ExclusionsAreNeverNames(t *testing.T) {
	labels := spanLabels(compileAndMatch(t, "Show Fire Incident"))

	assert.NotContains(t, labels, "Show")
	assert.Equal(t, "INCIDENT_TYPE", labels["Fire"])
	assert.Equal(t, nlp.LabelModule, labels["Incident"])
}

func TestUsablePhrase(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"fire", true},
		{"x", false},
		{"42", false},
		{"555-123-4567", false},
		{"5th Avenue", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, usablePhrase(tt.value))
		})
	}
}

func TestBigrams(t *testing.T) {
	assert.Equal(t, []string{"221 Baker", "Baker Street"}, bigrams("221 Baker Street, Springfield, IL 62701"))
	assert.Equal(t, []string{"5th Avenue"}, bigrams("5th Avenue, New York, NY 10001"))
	assert.Nil(t, bigrams("Downtown"))
}
