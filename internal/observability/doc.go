// Package observability groups logging, Prometheus metrics and OpenTelemetry
// tracing for the bot.
//
// Subpackages:
//   - logging: slog construction, run identifiers, secret redaction
//   - metrics: per-run Prometheus metrics pushed to a Pushgateway
//   - tracing: one span per pipeline stage
package observability
