// Package main is the entry point for the local browser server.
//
// The server backs a JupyterLab panel that embeds web servers running on the
// same machine. It lists the listening local ports, reverse proxies a chosen
// port under the base URL, remembers where each panel was pointed and drives
// the panels over a WebSocket.
//
// Routes (under the base URL):
//
//	jupyterlab-local-browser/open-ports      [port, label] pairs
//	jupyterlab-local-browser/public/         landing page
//	jupyterlab-local-browser/state/:id       stored panel locations
//	jupyterlab-local-browser/panels/stream   panel WebSocket
//	proxy/[absolute/]<port>/<path>           reverse proxy
//
// Configuration:
//   - Environment variables (12-factor), see internal/infrastructure/config
//   - CLI flags (override env vars)
//   - Optional ports file (PORTS_FILE) in YAML, TOML or JSON
//
// Usage:
//
//	# Production mode
//	./server -port 8888 -base-url /user/alice/
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
