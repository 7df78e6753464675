// Package ports answers "which local servers can the panel show".
//
// Discoverer runs next to the host and enumerates listening TCP sockets on
// loopback or wildcard addresses, merged with configured persistent ports.
// Client runs on the panel side and polls the open-ports endpoint, removing
// the host's own port and prepending the "Select a Port" entry.
package ports
