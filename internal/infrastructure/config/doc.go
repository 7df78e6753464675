// Package config provides 12-factor configuration management for the local
// browser server.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
// Port lists may additionally come from a YAML, TOML or JSON file.
//
// Configuration Sections:
//   - Server: HTTP listen address and base URL
//   - Browser: Landing page assets, poll interval, toolbar, proxy target host
//   - Ports: Persistent, hidden and labelled ports for discovery
//   - State: Panel state backend (memory, file, sqlite)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, BASE_URL
//   - JUPYTERLAB_LOCAL_BROWSER_STATIC_DIR, POLL_INTERVAL, FULL_TOOLBAR, PROXY_HOST, OWN_PORT
//   - PORTS_PERSISTENT, PORTS_HIDDEN, PORTS_LABELS, PORTS_FILE
//   - STATE_BACKEND, STATE_PATH
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
