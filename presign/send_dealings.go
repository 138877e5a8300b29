package presign

import (
	"github.com/tolelom/ecdsapresign/blockreader"
	"github.com/tolelom/ecdsapresign/pool"
	"github.com/tolelom/ecdsapresign/types"
)

// sendDealings issues a dealing for every transcript this node is a
// dealer for, unless it has already issued one (spec §4.6).
func (e *Engine) sendDealings(reader blockreader.Reader, p pool.ArtifactPool) types.ChangeSet {
	var changes types.ChangeSet
	for _, params := range reader.RequestedTranscripts() {
		if !params.Dealers.Contains(e.nodeID) {
			continue
		}
		if hasDealerIssuedDealing(p, params.TranscriptID, e.nodeID) {
			continue
		}
		params := params
		blob, err := e.crypto.CreateDealing(&params)
		if err != nil {
			e.log.Warn("failed to create dealing", "transcript", params.TranscriptID, "err", err)
			e.metrics.incError("create_dealing")
			continue
		}
		dealing := types.Dealing{
			TranscriptID:    params.TranscriptID,
			DealerID:        e.nodeID,
			RequestedHeight: reader.Height(),
			Blob:            blob,
		}
		changes = append(changes, types.AddToValidated{Message: dealing})
		e.metrics.dealingsSent.Inc(1)
	}
	return changes
}

func hasDealerIssuedDealing(p pool.ArtifactPool, transcriptID types.TranscriptID, dealer types.NodeID) bool {
	for _, e := range p.Validated().Dealings() {
		if e.Item.TranscriptID == transcriptID && e.Item.DealerID == dealer {
			return true
		}
	}
	return false
}
