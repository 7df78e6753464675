/*
Package tracing provides lightweight request tracing for debugging.

# Overview

Every HTTP request gets a trace id (taken from X-Trace-ID when the caller
sends one) and a span id. Both are stored on the request context, echoed in
the response headers and forwarded on outbound calls such as the port
directory poll, so one panel session can be followed through the logs.

# Features

- Trace context propagation via HTTP headers
- Span creation and management with parent-child relationships
- ULID trace and span ids
- Gin middleware for automatic instrumentation
- Structured logging integration
- Buffered, asynchronous span collection

# Usage

	// Create tracer
	tracer := tracing.New("localbrowser", logger)
	defer tracer.Close()

	// HTTP middleware
	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Trace Format

Traces use standard HTTP headers for propagation:
- X-Trace-ID: Unique identifier for entire request flow
- X-Span-ID: Identifier for current operation
*/
package tracing
