package presign

import (
	"github.com/tolelom/ecdsapresign/blockreader"
	"github.com/tolelom/ecdsapresign/pool"
	"github.com/tolelom/ecdsapresign/types"
)

type supportKey struct {
	transcriptID types.TranscriptID
	dealerID     types.NodeID
	signer       types.NodeID
}

// validateDealingSupport classifies every unvalidated dealing-support
// share: duplicates within the batch are rejected, then each survivor
// must name a receiver, reference a dealing this node already has
// validated, and not duplicate an existing validated share before its
// signature is checked. Unlike dealing validation, any signature
// verification failure here is handled as invalid, whether or not the
// capability reports it as replicated; a transient failure is not left
// for a retry (spec §4.9, open question resolution in DESIGN.md).
func (e *Engine) validateDealingSupport(reader blockreader.Reader, p pool.ArtifactPool) types.ChangeSet {
	validDealings := make(map[dealingKey]types.Dealing)
	for _, entry := range p.Validated().Dealings() {
		validDealings[dealingKey{entry.Item.TranscriptID, entry.Item.DealerID}] = entry.Item
	}

	unvalidated := p.Unvalidated().DealingSupport()
	counts := make(map[supportKey]int, len(unvalidated))
	for _, entry := range unvalidated {
		counts[supportKey{entry.Item.Content.TranscriptID, entry.Item.Content.DealerID, entry.Item.Signature.Signer}]++
	}
	duplicateInBatch := make(map[types.MessageID]bool)
	for _, entry := range unvalidated {
		key := supportKey{entry.Item.Content.TranscriptID, entry.Item.Content.DealerID, entry.Item.Signature.Signer}
		if counts[key] > 1 {
			duplicateInBatch[entry.ID] = true
		}
	}

	var changes types.ChangeSet
	for _, entry := range unvalidated {
		support := entry.Item
		if duplicateInBatch[entry.ID] {
			changes = append(changes, types.HandleInvalid{ID: entry.ID, Reason: "duplicate dealing support in batch"})
			e.metrics.incError("duplicate_support_in_batch")
			continue
		}

		action := Classify(reader, support.Content.RequestedHeight, support.Content.TranscriptID)
		switch action.Kind {
		case ActionDefer:
			continue
		case ActionDrop:
			changes = append(changes, types.RemoveUnvalidated{ID: entry.ID})
			continue
		}

		params := action.Params
		if !params.Receivers.Contains(support.Signature.Signer) {
			changes = append(changes, types.HandleInvalid{ID: entry.ID, Reason: "signer not authorized as receiver"})
			e.metrics.incError("unexpected_support")
			continue
		}

		key := dealingKey{support.Content.TranscriptID, support.Content.DealerID}
		if _, ok := validDealings[key]; !ok {
			// The referenced dealing hasn't reached this node's validated
			// partition yet; it may still be in flight, so defer rather
			// than condemn the support.
			continue
		}
		if hasNodeIssuedDealingSupport(p, support.Content.TranscriptID, support.Content.DealerID, support.Signature.Signer) {
			changes = append(changes, types.HandleInvalid{ID: entry.ID, Reason: "signer already has a validated support share"})
			e.metrics.incError("duplicate_support")
			continue
		}

		if err := e.crypto.Verify(&support, params.RegistryVersion); err != nil {
			changes = append(changes, types.HandleInvalid{ID: entry.ID, Reason: err.Error()})
			e.metrics.incError("verify_dealing_support")
			continue
		}

		changes = append(changes, types.MoveToValidated{ID: entry.ID})
	}
	return changes
}
