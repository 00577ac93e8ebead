// Package handlers provides HTTP request handlers for the plugin host API.
//
// Handlers are organized by plugin capability:
//
//   - query.go: data queries
//   - streams.go: stream subscription, publishing and live streams over SSE
//     and WebSocket
//   - resources.go: resource calls with streamed body chunks
//   - health.go: health and readiness checks
//   - realtime.go: plugin lifecycle events over WebSocket and SSE
//
// Every handler dispatches through a backend.Registry, so a plugin that lacks
// a capability answers 501 instead of failing to start.
//
// Live streams follow one pattern: run the stream, defer Close on the
// returned handle, then poll it with the request (or session) context. A
// client that goes away cancels that context, Next returns, and the deferred
// Close fires the plugin's teardown.
package handlers

//go:generate gomarkdoc --output README.md .
