package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an opaque identifier assigned by the gateway.
// It decodes from either a JSON string or a JSON number.
type ID string

// IsZero reports whether the ID is empty
func (id ID) IsZero() bool {
	return id == ""
}

// String implements fmt.Stringer
func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts "12", 12 and null
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("failed to decode id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}
