// Package panel reconciles the embedded frame with the toolbar.
//
// A Panel is in one of two states. Landing shows the extension's own page
// and has no stored location. Proxied shows a local server through the
// reverse proxy, and every navigation there is persisted.
//
//	Landing --toolbar selects port--> Proxied
//	Proxied --toolbar edit / in-frame navigation--> Proxied (saved)
//	Proxied --port reset / navigation to landing--> Landing (removed)
//	Landing --anything unselected--> Landing (no-op)
//
// Resources:
//   - a load subscription on the Frame, taken in Open
//   - a poll loop refreshing the port list, taken in Open
//
// Both are released exactly once by Close. Polls run concurrently; a poll
// result older than the last applied one is dropped.
//
// Tracker owns the set of open panels and lets a reconnecting client take
// over a panel by id.
package panel
