// Package guard screens extracted entity values before they leave the engine.
// Interpreted commands feed downstream executors that build queries from entity
// values, so values carrying SQL injection payloads are rejected here.
package guard

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes an entity value flagged as SQL injection.
type InjectionCheckResult struct {
	Label       string // Normalized entity label the value was extracted under
	Value       string // The value that was checked
	Fingerprint string // libinjection fingerprint of the detected pattern
}

// CheckEntityValue runs libinjection over value.
//
// Returns nil if no injection is detected, or an InjectionCheckResult with
// details about the detected pattern.
//
// Example:
//
//	result := CheckEntityValue("name", "John Smith")
//	// result == nil
//
//	result := CheckEntityValue("name", "'; DROP TABLE citizens--")
//	// result.Fingerprint == "s;T" (or similar)
func CheckEntityValue(label, value string) *InjectionCheckResult {
	if value == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}

	return &InjectionCheckResult{
		Label:       label,
		Value:       value,
		Fingerprint: string(fingerprint),
	}
}
