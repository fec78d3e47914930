package metrics

type noopMetrics struct{}

// NoopMetrics discards all measurements.
var NoopMetrics Metricer = new(noopMetrics)

func (*noopMetrics) RecordUp()                         {}
func (*noopMetrics) RecordCheckStarted(idx uint64)     {}
func (*noopMetrics) RecordCheckPassed(idx uint64)      {}
func (*noopMetrics) RecordCheckFailed(idx uint64)      {}
func (*noopMetrics) RecordProofSubmitted(idx uint64)   {}
func (*noopMetrics) RecordAnchorObserved(txid string)  {}
func (*noopMetrics) RecordBlocksGenerated(n int)       {}
func (*noopMetrics) RecordGenerationFailure()          {}
func (*noopMetrics) RecordBridgeKeyAggregated(num int) {}
