/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the local
browser server, tracking HTTP requests, panels, port polls, state store
operations, the reverse proxy and WebSocket connections.

Metrics live on a private registry owned by each Metrics value, so several
servers (and tests) can coexist in one process.

# Features

- HTTP request metrics (latency, throughput, size)
- Panel lifecycle metrics (open panels, total opened)
- Port directory poll metrics (status, latency)
- Port discovery metrics (ports found, latency)
- State store operation counts
- Reverse proxy metrics (mode, status, latency)
- Circuit breaker transitions
- WebSocket connection metrics

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record custom metrics
	metrics.RecordPoll("success", time.Since(start))

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
