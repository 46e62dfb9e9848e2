// Package observability turns engine lifecycle events into Prometheus
// metrics and structured log records.
package observability
