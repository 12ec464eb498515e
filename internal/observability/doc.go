// Package observability provides metrics and structured logging for the
// agent core runtime.
//
// # Metrics
//
// Metrics are implemented with the Prometheus client library and track
// agent run counts and duration, tool-call outcomes, approval decisions,
// and LLM token usage. See NewMetrics.
//
// # Logging
//
// Logging is built on slog with request/session/run ID correlation from
// context and automatic redaction of API keys, tokens, and other
// sensitive fields. See NewLogger.
package observability
