// Package metrics instruments the finality harness with prometheus
// counters. Consumers depend on the Metricer interface so tests and
// library users can pass the noop implementation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "strata_checker"

type Metricer interface {
	RecordUp()

	RecordCheckStarted(idx uint64)
	RecordCheckPassed(idx uint64)
	RecordCheckFailed(idx uint64)

	RecordProofSubmitted(idx uint64)
	RecordAnchorObserved(txid string)

	RecordBlocksGenerated(n int)
	RecordGenerationFailure()

	RecordBridgeKeyAggregated(numOperators int)
}

type Metrics struct {
	registry *prometheus.Registry

	up prometheus.Gauge

	checksStarted prometheus.Counter
	checksPassed  prometheus.Counter
	checksFailed  prometheus.Counter

	proofsSubmitted prometheus.Counter
	anchorsObserved prometheus.Counter

	blocksGenerated    prometheus.Counter
	generationFailures prometheus.Counter

	bridgeKeyAggregations prometheus.Counter
	bridgeOperators       prometheus.Gauge
}

var _ Metricer = (*Metrics)(nil)

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		up: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "up",
			Help:      "1 if the checker has finished starting up",
		}),
		checksStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "checks_started_total",
			Help:      "Count of checkpoint finality checks started",
		}),
		checksPassed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "checks_passed_total",
			Help:      "Count of checkpoint finality checks that passed",
		}),
		checksFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "checks_failed_total",
			Help:      "Count of checkpoint finality checks that failed",
		}),
		proofsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "proofs_submitted_total",
			Help:      "Count of checkpoint proofs submitted to the sequencer",
		}),
		anchorsObserved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "anchors_observed_total",
			Help:      "Count of new proof-envelope txids observed on L1",
		}),
		blocksGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "blocks_generated_total",
			Help:      "Count of L1 blocks generated by the harness",
		}),
		generationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generation_failures_total",
			Help:      "Count of failed L1 block generation requests",
		}),
		bridgeKeyAggregations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bridge_key_aggregations_total",
			Help:      "Count of bridge pubkey aggregations performed",
		}),
		bridgeOperators: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "bridge_operators",
			Help:      "Number of operators in the last aggregated key set",
		}),
	}
}

// Registry exposes the underlying registry for serving /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordUp() {
	m.up.Set(1)
}

func (m *Metrics) RecordCheckStarted(idx uint64) {
	m.checksStarted.Inc()
}

func (m *Metrics) RecordCheckPassed(idx uint64) {
	m.checksPassed.Inc()
}

func (m *Metrics) RecordCheckFailed(idx uint64) {
	m.checksFailed.Inc()
}

func (m *Metrics) RecordProofSubmitted(idx uint64) {
	m.proofsSubmitted.Inc()
}

func (m *Metrics) RecordAnchorObserved(txid string) {
	m.anchorsObserved.Inc()
}

func (m *Metrics) RecordBlocksGenerated(n int) {
	m.blocksGenerated.Add(float64(n))
}

func (m *Metrics) RecordGenerationFailure() {
	m.generationFailures.Inc()
}

func (m *Metrics) RecordBridgeKeyAggregated(numOperators int) {
	m.bridgeKeyAggregations.Inc()
	m.bridgeOperators.Set(float64(numOperators))
}
