// Package metrics defines interfaces and implementations for collecting
// board observability data. Sinks like the Prometheus and InfluxDB adapters
// in infra/metrics record mutations, publish outcomes and timeline
// projections, and can be combined with NewMultiSink. The factory helpers
// return a MultiSink automatically when multiple sinks are configured.
package metrics
