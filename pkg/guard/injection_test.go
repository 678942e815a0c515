package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckEntityValue(t *testing.T) {
	tests := []struct {
		name            string
		label           string
		value           string
		expectInjection bool
	}{
		// Values a records command legitimately carries
		{"person name", "name", "John Smith", false},
		{"apostrophe in name", "name", "O'Brien", false},
		{"address", "address", "221 Baker Street, Springfield, IL 62701", false},
		{"phone number", "phone_number", "+1-555-123-4567", false},
		{"email", "email", "user@example.com", false},
		{"date", "date", "2024-01-15", false},
		{"government id", "governmentid", "GOV-100231", false},
		{"double dash in text", "description", "This is a note -- with dashes", false},
		{"sql keyword in prose", "description", "SELECT the best option from the menu", false},
		{"empty", "name", "", false},

		// Injection payloads
		{"tautology", "name", "' OR '1'='1", true},
		{"stacked drop", "name", "'; DROP TABLE users--", true},
		{"union select", "governmentid", "1 UNION SELECT * FROM passwords", true},
		{"comment truncation", "name", "admin'--", true},
		{"time based", "age", "1' AND SLEEP(5)--", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckEntityValue(tt.label, tt.value)

			if !tt.expectInjection {
				assert.Nil(t, result)
				return
			}

			require.NotNil(t, result)
			assert.Equal(t, tt.label, result.Label)
			assert.Equal(t, tt.value, result.Value)
			assert.NotEmpty(t, result.Fingerprint)
		})
	}
}
