package types

import (
	"encoding/json"
	"fmt"
)

// PortEntry describes one discoverable local server
type PortEntry struct {
	Port  string
	Label string
}

// MarshalJSON encodes the entry as a two-element array
func (p PortEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Port, p.Label})
}

// UnmarshalJSON decodes a two-element [port, label] array
func (p *PortEntry) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("port entry must be a [port, label] array: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("port entry must have 2 elements, got %d", len(pair))
	}
	p.Port, p.Label = pair[0], pair[1]
	return nil
}
