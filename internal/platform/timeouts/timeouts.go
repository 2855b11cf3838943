// Package timeouts defines shared timeout constants used across binaries.
// Centralizing these values prevents drift between entrypoints and makes the
// durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// OutboxPoll is the default interval between notification outbox sweeps.
const OutboxPoll = 2 * time.Second

// OTelShutdown caps how long pending spans are flushed on exit.
const OTelShutdown = 5 * time.Second
