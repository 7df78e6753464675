package types

import "time"

// StateEntry is the persisted location of one panel.
// Pathname keeps its leading slash, like a browser location does.
type StateEntry struct {
	Mode     string `json:"mode"`
	Port     string `json:"port"`
	Pathname string `json:"pathname"`
	Search   string `json:"search"`
	Hash     string `json:"hash"`
}

// StateStats summarises the state store
type StateStats struct {
	Entries     int        `json:"entries"`
	Backend     string     `json:"backend"`
	LastSaved   *time.Time `json:"last_saved,omitempty"`
	LastRemoved *time.Time `json:"last_removed,omitempty"`
}
