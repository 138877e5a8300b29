package presign

import (
	"time"

	gethlog "github.com/ethereum/go-ethereum/log"
	gethmetrics "github.com/ethereum/go-ethereum/metrics"

	"github.com/tolelom/ecdsapresign/blockreader"
	"github.com/tolelom/ecdsapresign/crypto"
	"github.com/tolelom/ecdsapresign/pool"
	"github.com/tolelom/ecdsapresign/types"
)

// Engine is the pre-signature process manager: given the current block
// reader state and artifact pool, it drives the four phases of the
// protocol (send dealings, validate dealings, send dealing support,
// validate dealing support) and returns the resulting change set for
// the host to apply to the pool (spec §4.4).
type Engine struct {
	nodeID    types.NodeID
	crypto    crypto.Capability
	scheduler *Scheduler
	metrics   *Metrics
	log       gethlog.Logger
}

// New builds an Engine for nodeID. If logger is nil, gethlog.Root() is
// used.
func New(nodeID types.NodeID, capability crypto.Capability, registry gethmetrics.Registry, logger gethlog.Logger) *Engine {
	if logger == nil {
		logger = gethlog.Root()
	}
	return &Engine{
		nodeID:    nodeID,
		crypto:    capability,
		scheduler: NewScheduler(),
		metrics:   NewMetrics(registry),
		log:       logger,
	}
}

// OnStateChange runs one tick of the pre-signer: it tries each phase in
// round-robin order starting from the scheduler's cursor and returns the
// first non-empty change set produced, or an empty one if every phase
// had nothing to do this tick.
func (e *Engine) OnStateChange(reader blockreader.Reader, p pool.ArtifactPool) types.ChangeSet {
	phases := []Phase{
		e.timedPhase("send_dealings", func() types.ChangeSet { return e.sendDealings(reader, p) }),
		e.timedPhase("validate_dealings", func() types.ChangeSet { return e.validateDealings(reader, p) }),
		e.timedPhase("send_dealing_support", func() types.ChangeSet { return e.sendDealingSupport(reader, p) }),
		e.timedPhase("validate_dealing_support", func() types.ChangeSet { return e.validateDealingSupport(reader, p) }),
	}
	return e.scheduler.CallNext(phases)
}

func (e *Engine) timedPhase(name string, fn func() types.ChangeSet) Phase {
	return func() types.ChangeSet {
		start := time.Now()
		result := fn()
		e.metrics.observe(name, time.Since(start).Nanoseconds())
		return result
	}
}
