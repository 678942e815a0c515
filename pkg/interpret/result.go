package interpret

import (
	"encoding/json"
	"fmt"
)

// EntityValue holds the corrected values of one label in order of first
// appearance. It marshals as a plain string when it holds a single value.
type EntityValue []string

func (v EntityValue) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

func (v *EntityValue) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*v = EntityValue{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("entity value must be a string or list of strings: %w", err)
	}
	*v = many
	return nil
}

// add appends value unless it is already present.
func (v EntityValue) add(value string) EntityValue {
	for _, existing := range v {
		if existing == value {
			return v
		}
	}
	return append(v, value)
}

// ParsedCommand is the structured directive returned to callers.
type ParsedCommand struct {
	Message  string                 `json:"message"`
	Intent   Intent                 `json:"intent"`
	Module   string                 `json:"module"`
	Entities map[string]EntityValue `json:"entities"`
}

// UnmatchedEntity is an entity kept as typed because no stored value was close enough.
type UnmatchedEntity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// RejectedEntity is an entity dropped because its value looks like SQL injection.
type RejectedEntity struct {
	Label       string `json:"label"`
	Text        string `json:"text"`
	Fingerprint string `json:"fingerprint"`
}

// Result is a ParsedCommand plus diagnostics about how it was produced.
type Result struct {
	Command        ParsedCommand     `json:"command"`
	ModuleStrategy string            `json:"module_strategy"`
	Unmatched      []UnmatchedEntity `json:"unmatched,omitempty"`
	Rejected       []RejectedEntity  `json:"rejected,omitempty"`
	SnapshotID     string            `json:"snapshot_id"`
}
