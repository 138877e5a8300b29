package presign

import (
	gethmetrics "github.com/ethereum/go-ethereum/metrics"
)

// errorReasons enumerates every failure counter the engine tracks,
// mirroring the classification branches in the send/validate phases.
var errorReasons = []string{
	"create_dealing",
	"duplicate_dealing_in_batch",
	"unexpected_dealing",
	"duplicate_dealing",
	"verify_dealing_permanent",
	"verify_dealing_transient",
	"create_support_missing_transcript_params",
	"verify_dealing_private_permanent",
	"verify_dealing_private_transient",
	"dealing_support_multi_sign",
	"duplicate_support_in_batch",
	"unexpected_support",
	"duplicate_support",
	"verify_dealing_support",
}

var phaseNames = []string{
	"send_dealings",
	"validate_dealings",
	"send_dealing_support",
	"validate_dealing_support",
}

// Metrics holds the counters and histograms the engine updates every
// tick, registered against a go-ethereum metrics.Registry.
type Metrics struct {
	errors       map[string]gethmetrics.Counter
	dealingsSent gethmetrics.Counter
	supportSent  gethmetrics.Counter
	durations    map[string]gethmetrics.Histogram
}

// NewMetrics registers a fresh set of counters and histograms against
// registry. Pass gethmetrics.NewRegistry() for an isolated registry, or
// gethmetrics.DefaultRegistry to publish alongside the rest of a host
// process's metrics.
func NewMetrics(registry gethmetrics.Registry) *Metrics {
	m := &Metrics{
		errors:    make(map[string]gethmetrics.Counter, len(errorReasons)),
		durations: make(map[string]gethmetrics.Histogram, len(phaseNames)),
	}
	for _, reason := range errorReasons {
		m.errors[reason] = gethmetrics.NewRegisteredCounter("presigner/errors/"+reason, registry)
	}
	for _, phase := range phaseNames {
		sample := gethmetrics.NewExpDecaySample(1028, 0.015)
		m.durations[phase] = gethmetrics.NewRegisteredHistogram("presigner/duration/"+phase, registry, sample)
	}
	m.dealingsSent = gethmetrics.NewRegisteredCounter("presigner/dealings_sent", registry)
	m.supportSent = gethmetrics.NewRegisteredCounter("presigner/support_sent", registry)
	return m
}

func (m *Metrics) incError(reason string) {
	if c, ok := m.errors[reason]; ok {
		c.Inc(1)
	}
}

func (m *Metrics) observe(phase string, nanos int64) {
	if h, ok := m.durations[phase]; ok {
		h.Update(nanos)
	}
}
