// Package presign implements the pre-signature process manager: the
// engine that drives dealing and dealing-support creation and
// validation each consensus tick (spec §4, §6).
package presign

import (
	"github.com/tolelom/ecdsapresign/blockreader"
	"github.com/tolelom/ecdsapresign/types"
)

// ActionKind is the outcome of classifying an unvalidated artifact
// against the current block reader state.
type ActionKind int

const (
	// ActionProcess means the artifact's transcript is currently
	// requested and it should be validated now.
	ActionProcess ActionKind = iota
	// ActionDefer means the artifact is ahead of this node's view of
	// consensus; re-examine it on a future tick.
	ActionDefer
	// ActionDrop means the artifact's transcript is not (or no longer)
	// requested at a height it could apply to; discard it.
	ActionDrop
)

// Action is the result of Classify.
type Action struct {
	Kind ActionKind
	// Params is the matching transcript's parameters, set only when
	// Kind is ActionProcess.
	Params *types.TranscriptParams
}

// Classify decides what to do with an artifact requesting transcriptID,
// first seen referencing msgHeight, against reader's current view.
//
// An artifact from a height beyond the reader's tip is deferred: this
// node hasn't caught up to the block that would justify a verdict. A
// transcript ID that does appear among the currently requested
// transcripts is processed now; otherwise it is dropped as stale or
// unknown.
func Classify(reader blockreader.Reader, msgHeight types.Height, transcriptID types.TranscriptID) Action {
	if msgHeight > reader.Height() {
		return Action{Kind: ActionDefer}
	}
	for _, p := range reader.RequestedTranscripts() {
		if p.TranscriptID == transcriptID {
			params := p
			return Action{Kind: ActionProcess, Params: &params}
		}
	}
	return Action{Kind: ActionDrop}
}
