package presign

import (
	"crypto/ed25519"
	"testing"

	gethlog "github.com/ethereum/go-ethereum/log"
	gethmetrics "github.com/ethereum/go-ethereum/metrics"

	"github.com/tolelom/ecdsapresign/blockreader"
	"github.com/tolelom/ecdsapresign/crypto/ed25519capability"
	"github.com/tolelom/ecdsapresign/pool"
	"github.com/tolelom/ecdsapresign/pool/memory"
	"github.com/tolelom/ecdsapresign/types"
)

// replica bundles one simulated node's engine, pool, and block reader
// for the convergence test below.
type replica struct {
	id     types.NodeID
	engine *Engine
	pool   *memory.Pool
	reader *blockreader.Static
}

// gossip copies every validated message from each replica's pool into
// every other replica's unvalidated partition, the way an artifact
// gossip layer would relay newly validated artifacts to peers.
func gossip(replicas []*replica) {
	for _, src := range replicas {
		dealings := src.pool.Validated().Dealings()
		support := src.pool.Validated().DealingSupport()
		for _, dst := range replicas {
			if dst == src {
				continue
			}
			for _, d := range dealings {
				if !alreadyHasDealing(dst.pool, d.Item) {
					dst.pool.InsertUnvalidated(d.Item, src.id)
				}
			}
			for _, s := range support {
				if !alreadyHasSupport(dst.pool, s.Item) {
					dst.pool.InsertUnvalidated(s.Item, src.id)
				}
			}
		}
	}
}

func alreadyHasDealing(p pool.ArtifactPool, d types.Dealing) bool {
	for _, e := range p.Validated().Dealings() {
		if e.Item.TranscriptID == d.TranscriptID && e.Item.DealerID == d.DealerID {
			return true
		}
	}
	for _, e := range p.Unvalidated().Dealings() {
		if e.Item.TranscriptID == d.TranscriptID && e.Item.DealerID == d.DealerID {
			return true
		}
	}
	return false
}

func alreadyHasSupport(p pool.ArtifactPool, s types.DealingSupport) bool {
	for _, e := range p.Validated().DealingSupport() {
		if sameSupport(e.Item, s) {
			return true
		}
	}
	for _, e := range p.Unvalidated().DealingSupport() {
		if sameSupport(e.Item, s) {
			return true
		}
	}
	return false
}

func sameSupport(a, b types.DealingSupport) bool {
	return a.Content.TranscriptID == b.Content.TranscriptID &&
		a.Content.DealerID == b.Content.DealerID &&
		a.Signature.Signer == b.Signature.Signer
}

// TestThreeReplicaConvergence runs three simulated nodes, each a dealer
// and receiver for one shared transcript, through repeated ticks with
// gossip relay in between, and checks that every node ends up holding a
// validated dealing from every dealer and a validated support share
// from every receiver for that dealing.
func TestThreeReplicaConvergence(t *testing.T) {
	ids := []types.NodeID{node1, node2, node3}
	committee := buildCommittee(t, ids)

	params := types.TranscriptParams{
		TranscriptID:    1,
		Dealers:         types.NewNodeSet(ids...),
		Receivers:       types.NewNodeSet(ids...),
		RegistryVersion: 1,
		AlgorithmID:     "placeholder",
		Operation:       "random",
	}

	replicas := make([]*replica, 0, len(ids))
	for _, id := range ids {
		r := blockreader.NewStatic(10, []types.TranscriptParams{params})
		replicas = append(replicas, &replica{
			id:     id,
			engine: New(id, committee[id], gethmetrics.NewRegistry(), gethlog.Root()),
			pool:   memory.New(),
			reader: r,
		})
	}

	// Drive enough ticks for dealings to be created, gossiped, validated,
	// supported, gossiped again, and validated — twelve rounds, each
	// giving every replica up to four ticks (one full scheduler rotation),
	// is generous headroom since a tick runs the phases in sequence
	// whenever the active phase is empty.
	for round := 0; round < 12; round++ {
		for _, r := range replicas {
			for i := 0; i < 4; i++ {
				changes := r.engine.OnStateChange(r.reader, r.pool)
				if len(changes) == 0 {
					break
				}
				if err := r.pool.Apply(changes); err != nil {
					t.Fatalf("replica %s Apply: %v", r.id, err)
				}
			}
		}
		gossip(replicas)
	}

	for _, r := range replicas {
		dealings := r.pool.Validated().Dealings()
		if len(dealings) != len(ids) {
			t.Errorf("replica %s has %d validated dealings, want %d", r.id, len(dealings), len(ids))
		}
		support := r.pool.Validated().DealingSupport()
		// Each of len(ids) dealings should be supported by every
		// receiver, its own dealer included: len(ids) dealings *
		// len(ids) receivers.
		if len(support) != len(ids)*len(ids) {
			t.Errorf("replica %s has %d validated support shares, want %d", r.id, len(support), len(ids)*len(ids))
		}
	}
}

// buildCommittee generates one ed25519 key pair per node and returns a
// Capability for each, every one able to verify every other's dealings
// and support shares.
func buildCommittee(t *testing.T, ids []types.NodeID) map[types.NodeID]*ed25519capability.Capability {
	t.Helper()
	privKeys := make(map[types.NodeID]ed25519.PrivateKey, len(ids))
	pubKeys := make(map[types.NodeID]ed25519.PublicKey, len(ids))
	for _, id := range ids {
		priv, pub, err := ed25519capability.GenerateKeyPair()
		if err != nil {
			t.Fatalf("GenerateKeyPair: %v", err)
		}
		privKeys[id] = priv
		pubKeys[id] = pub
	}

	out := make(map[types.NodeID]*ed25519capability.Capability, len(ids))
	for _, id := range ids {
		out[id] = ed25519capability.New(id, privKeys[id], pubKeys)
	}
	return out
}
