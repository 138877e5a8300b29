package presign

import (
	"github.com/tolelom/ecdsapresign/blockreader"
	"github.com/tolelom/ecdsapresign/crypto"
	"github.com/tolelom/ecdsapresign/pool"
	"github.com/tolelom/ecdsapresign/types"
)

// sendDealingSupport verifies each validated dealing this node hasn't
// yet supported and, if this node is a receiver for that dealing's
// transcript and verification succeeds, signs it and emits the
// resulting support (spec §4.8).
func (e *Engine) sendDealingSupport(reader blockreader.Reader, p pool.ArtifactPool) types.ChangeSet {
	paramsByTranscript := make(map[types.TranscriptID]types.TranscriptParams)
	for _, params := range reader.RequestedTranscripts() {
		paramsByTranscript[params.TranscriptID] = params
	}

	var changes types.ChangeSet
	for _, entry := range p.Validated().Dealings() {
		dealing := entry.Item
		if hasNodeIssuedDealingSupport(p, dealing.TranscriptID, dealing.DealerID, e.nodeID) {
			continue
		}
		params, ok := paramsByTranscript[dealing.TranscriptID]
		if !ok {
			e.log.Warn("validated dealing for a transcript no longer requested", "transcript", dealing.TranscriptID)
			e.metrics.incError("create_support_missing_transcript_params")
			continue
		}
		if !params.Receivers.Contains(e.nodeID) {
			continue
		}

		if err := e.crypto.VerifyDealingPrivate(&params, dealing.Blob); err != nil {
			// This dealing already passed public verification to reach the
			// validated partition; a permanent failure here means this
			// node's own private check condemns it regardless, so it's
			// handled invalid and removed from the validated partition
			// (spec §4.8). A transient failure is left alone to retry.
			if crypto.IsReplicated(err) {
				e.log.Warn("private dealing verification failed", "transcript", dealing.TranscriptID, "dealer", dealing.DealerID, "err", err)
				changes = append(changes, types.HandleInvalid{ID: entry.ID, Reason: "private verification permanent error"})
				e.metrics.incError("verify_dealing_private_permanent")
			} else {
				e.log.Debug("transient private dealing verification failure", "transcript", dealing.TranscriptID, "err", err)
				e.metrics.incError("verify_dealing_private_transient")
			}
			continue
		}

		share, err := e.crypto.Sign(&dealing, e.nodeID, params.RegistryVersion)
		if err != nil {
			e.log.Warn("failed to sign dealing support", "transcript", dealing.TranscriptID, "err", err)
			e.metrics.incError("dealing_support_multi_sign")
			continue
		}
		support := types.DealingSupport{Content: dealing, Signature: share}
		changes = append(changes, types.AddToValidated{Message: support})
		e.metrics.supportSent.Inc(1)
	}
	return changes
}

func hasNodeIssuedDealingSupport(p pool.ArtifactPool, transcriptID types.TranscriptID, dealerID, signer types.NodeID) bool {
	for _, e := range p.Validated().DealingSupport() {
		c := e.Item.Content
		if c.TranscriptID == transcriptID && c.DealerID == dealerID && e.Item.Signature.Signer == signer {
			return true
		}
	}
	return false
}
