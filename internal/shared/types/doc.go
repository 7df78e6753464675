// Package types provides shared data structures for the local browser backend.
//
// These are the wire shapes exchanged between the browser, the HTTP API and
// the panel runtime. Domain logic lives in internal/domain; this package only
// carries data.
//
// Core Types:
//   - PortEntry: one selectable local server, encoded as ["port", "label"]
//   - StateEntry: persisted panel location {mode, port, pathname, search, hash}
//   - WSMessage: panel WebSocket envelope
//
// Example Usage:
//
//	entry := types.PortEntry{Port: "8080", Label: "Dev server"}
//	data, _ := json.Marshal(entry) // ["8080","Dev server"]
package types
