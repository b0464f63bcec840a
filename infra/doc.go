// Package infra holds the technical adapters behind the board: the git
// command wrapper, the zerolog logger, Prometheus and InfluxDB sinks, the
// MQTT change notifier and the Sentry reporter. Adapters depend on core
// interfaces, never the other way around.
package infra
