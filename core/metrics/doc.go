// Package metrics defines the sinks recording production plan outcomes.
// Sinks like PromSink and LogSink live in infra/metrics and register
// themselves in the factory registry; NewMetricsSink builds the configured
// set and wraps several sinks in a MultiSink.
package metrics
