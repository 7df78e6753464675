// Package state persists the last visited location of each panel.
//
// A panel that points at a local server has exactly one entry, keyed by its
// panel id. Returning to the landing page removes the entry. Closing a panel
// keeps it, so a panel reopened under the same id resumes where it was.
//
// Components:
//   - Manager: sync.Map cache in front of a Backend
//   - MemoryBackend: process-local, lost on restart
//   - FileBackend: one JSON document per panel id
//   - SQLiteBackend: panel_state table via modernc.org/sqlite
//
// Example Usage:
//
//	backend, _ := state.NewFileBackend("/var/lib/localbrowser/state")
//	manager := state.NewManager(backend)
//	err := manager.Save(ctx, "lb-1", loc)
//	loc, ok, err := manager.Fetch(ctx, "lb-1")
package state
