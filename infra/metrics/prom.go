package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/forestryvehicleadmin/motorpool/core/metrics"
)

// PromSink records board activity in Prometheus metrics.
type PromSink struct {
	mutations   *prometheus.CounterVec
	records     prometheus.Gauge
	publishes   *prometheus.CounterVec
	publishDur  prometheus.Histogram
	projections *prometheus.CounterVec
}

// NewPromSink registers board metrics on the default Prometheus registerer.
// The Prometheus server should be started separately on the configured port.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_mutations_total",
		Help: "Total number of applied board mutations",
	}, []string{"op"})
	records := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "board_records",
		Help: "Number of records currently on the board",
	})
	publishes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_publish_outcomes_total",
		Help: "Publish attempts against the shared remote by outcome",
	}, []string{"state", "reason"})
	publishDur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "board_publish_duration_seconds",
		Help:    "Time spent publishing the board to the shared remote",
		Buckets: prometheus.DefBuckets,
	})
	projections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_projections_total",
		Help: "Timeline projections served, by view and cache outcome",
	}, []string{"view", "cache_hit"})

	if err := reg.Register(mutations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			mutations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(records); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			records = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(publishes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			publishes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(publishDur); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			publishDur = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(projections); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			projections = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		mutations:   mutations,
		records:     records,
		publishes:   publishes,
		publishDur:  publishDur,
		projections: projections,
	}, nil
}

// RecordMutation increments the mutation counter and refreshes the board
// size gauge.
func (s *PromSink) RecordMutation(ev coremetrics.MutationRecord) error {
	s.mutations.WithLabelValues(ev.Op).Inc()
	s.records.Set(float64(ev.Records))
	return nil
}

// RecordSync counts the publish outcome and observes its duration.
func (s *PromSink) RecordSync(ev coremetrics.SyncRecord) error {
	s.publishes.WithLabelValues(ev.State, ev.Reason).Inc()
	s.publishDur.Observe(ev.Duration.Seconds())
	return nil
}

// RecordProjection counts a served timeline projection.
func (s *PromSink) RecordProjection(ev coremetrics.ProjectionRecord) error {
	s.projections.WithLabelValues(ev.View, strconv.FormatBool(ev.CacheHit)).Inc()
	return nil
}

// RecordBoardSize sets the gauge to the current number of records.
func (s *PromSink) RecordBoardSize(size int) error {
	if s.records != nil {
		s.records.Set(float64(size))
	}
	return nil
}
