// Package middleware holds the gin middleware shared by the API routes:
// CORS and per-client rate limiting.
package middleware
