// Package pool defines the artifact pool view the pre-signer core reads
// from and the change actions it writes back, split into validated and
// unvalidated partitions (spec §2, §4.1).
package pool

import (
	"github.com/tolelom/ecdsapresign/types"
)

// Entry pairs a pool-assigned ID with a validated item.
type Entry[T any] struct {
	ID   types.MessageID
	Item T
}

// UnvalidatedEntry pairs a pool-assigned ID with an unvalidated item and
// the peer it arrived from, so the core can hold peers accountable for
// invalid messages.
type UnvalidatedEntry[T any] struct {
	ID     types.MessageID
	Item   T
	PeerID types.NodeID
}

// View is the validated partition of the pool.
type View interface {
	Dealings() []Entry[types.Dealing]
	DealingSupport() []Entry[types.DealingSupport]
}

// UnvalidatedView is the unvalidated partition of the pool.
type UnvalidatedView interface {
	Dealings() []UnvalidatedEntry[types.Dealing]
	DealingSupport() []UnvalidatedEntry[types.DealingSupport]
}

// ArtifactPool is the read-only pool interface the pre-signer core
// consumes each tick. It never inserts or mutates the pool directly; it
// only computes a types.ChangeSet for the host to apply.
type ArtifactPool interface {
	Validated() View
	Unvalidated() UnvalidatedView
}

// Mutable extends ArtifactPool with the write operations a gossip layer
// or test harness needs: accepting a message off the wire into the
// unvalidated partition, and applying the core's change set.
type Mutable interface {
	ArtifactPool

	// InsertUnvalidated adds msg to the unvalidated partition as having
	// arrived from peer, returning its assigned ID.
	InsertUnvalidated(msg types.Message, peer types.NodeID) types.MessageID

	// Apply performs every action in changes, in order.
	Apply(changes types.ChangeSet) error
}
