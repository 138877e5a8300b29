package presign

import (
	"github.com/tolelom/ecdsapresign/blockreader"
	"github.com/tolelom/ecdsapresign/crypto"
	"github.com/tolelom/ecdsapresign/pool"
	"github.com/tolelom/ecdsapresign/types"
)

type dealingKey struct {
	transcriptID types.TranscriptID
	dealerID     types.NodeID
}

// validateDealings classifies every unvalidated dealing: duplicates
// within the same batch are rejected outright, then each survivor is
// classified against the current block reader state and, if current,
// checked for dealer authorization, an existing validated dealing from
// the same dealer, and public signature validity (spec §4.7).
func (e *Engine) validateDealings(reader blockreader.Reader, p pool.ArtifactPool) types.ChangeSet {
	unvalidated := p.Unvalidated().Dealings()

	counts := make(map[dealingKey]int, len(unvalidated))
	for _, entry := range unvalidated {
		counts[dealingKey{entry.Item.TranscriptID, entry.Item.DealerID}]++
	}
	duplicateInBatch := make(map[types.MessageID]bool)
	for _, entry := range unvalidated {
		if counts[dealingKey{entry.Item.TranscriptID, entry.Item.DealerID}] > 1 {
			duplicateInBatch[entry.ID] = true
		}
	}

	var changes types.ChangeSet
	for _, entry := range unvalidated {
		if duplicateInBatch[entry.ID] {
			changes = append(changes, types.HandleInvalid{ID: entry.ID, Reason: "duplicate dealing in batch"})
			e.metrics.incError("duplicate_dealing_in_batch")
			continue
		}

		action := Classify(reader, entry.Item.RequestedHeight, entry.Item.TranscriptID)
		switch action.Kind {
		case ActionDefer:
			continue
		case ActionDrop:
			changes = append(changes, types.RemoveUnvalidated{ID: entry.ID})
			continue
		}

		params := action.Params
		if !params.Dealers.Contains(entry.Item.DealerID) {
			changes = append(changes, types.HandleInvalid{ID: entry.ID, Reason: "dealer not authorized for transcript"})
			e.metrics.incError("unexpected_dealing")
			continue
		}
		if hasDealerIssuedDealing(p, entry.Item.TranscriptID, entry.Item.DealerID) {
			changes = append(changes, types.HandleInvalid{ID: entry.ID, Reason: "dealer already has a validated dealing"})
			e.metrics.incError("duplicate_dealing")
			continue
		}

		if err := e.crypto.VerifyDealingPublic(params, entry.Item.Blob); err != nil {
			if crypto.IsReplicated(err) {
				changes = append(changes, types.HandleInvalid{ID: entry.ID, Reason: err.Error()})
				e.metrics.incError("verify_dealing_permanent")
			} else {
				e.log.Debug("transient dealing verification failure", "transcript", entry.Item.TranscriptID, "err", err)
				e.metrics.incError("verify_dealing_transient")
			}
			continue
		}

		changes = append(changes, types.MoveToValidated{ID: entry.ID})
	}
	return changes
}
