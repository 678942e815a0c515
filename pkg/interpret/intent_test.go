package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"show me fire incidents on 5th avenue", IntentSearch},
		{"Find John Smith", IntentSearch},
		{"who reported the fire?", IntentUnknown},
		{"add John Smith to citizens, phone 555-123-4567", IntentAdd},
		{"Register a new citizen", IntentAdd},
		{"update the address of Maria Garcia", IntentUpdate},
		{"change phone for John Smith", IntentUpdate},
		{"delete report 12", IntentDelete},
		{"remove Victor Kane from criminals", IntentDelete},
		{"John Smith 221 Baker Street", IntentUnknown},
		{"", IntentUnknown},
		// search outranks every other set
		{"find and delete duplicate reports", IntentSearch},
		// add outranks update and delete
		{"add or update the suspect", IntentAdd},
		// words shared by every intent do not decide it
		{"delete the record for John Smith", IntentDelete},
		{"update the record of Maria Garcia", IntentUpdate},
		{"remove record of Aisha Khan", IntentDelete},
		{"change address to new street", IntentUpdate},
		{"delete citizen who lives on baker street", IntentDelete},
		{"enter the shift where Officer Lee worked", IntentUnknown},
		// keywords match whole words only
		{"showroom addresses", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.text))
		})
	}
}

func TestClassifyIntent_Deterministic(t *testing.T) {
	text := "SHOW Citizens and delete criminals"
	first := ClassifyIntent(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ClassifyIntent(text))
	}
	assert.Equal(t, ClassifyIntent("show citizens and delete criminals"), first)
}

func TestVocabulary(t *testing.T) {
	vocab := Vocabulary()
	assert.Contains(t, vocab, "show")
	assert.Contains(t, vocab, "delete")
	assert.Contains(t, vocab, "the")
	assert.Contains(t, vocab, "who")
	assert.Contains(t, vocab, "record")
	assert.NotContains(t, vocab, "citizens")
}
