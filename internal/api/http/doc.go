// Package http provides the JSON and static HTTP handlers of the extension:
// health, the open-ports directory, the session state REST surface, the
// panel listing and the landing page.
package http
