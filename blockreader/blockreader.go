// Package blockreader gives the pre-signer core a read-only view of the
// chain's current finalized tip: its height and the IDKG transcripts
// consensus has requested as of that height (spec §4.2).
package blockreader

import (
	"sync"

	"github.com/tolelom/ecdsapresign/types"
)

// Reader is the view the pre-signer core consumes. Implementations must
// be safe for concurrent use; the core calls these once per tick but
// production hosts may refresh the underlying snapshot from another
// goroutine.
type Reader interface {
	// Height returns the height of the current finalized tip.
	Height() types.Height

	// RequestedTranscripts returns the IDKG transcripts consensus has
	// requested as of the current tip. Callers must not mutate the
	// returned slice.
	RequestedTranscripts() []types.TranscriptParams
}

// Static is an immutable Reader snapshot, useful for tests and for any
// caller that already has a finalized block decoded.
type Static struct {
	height    types.Height
	requested []types.TranscriptParams
}

// NewStatic builds a Static reader over a fixed height and transcript set.
func NewStatic(height types.Height, requested []types.TranscriptParams) *Static {
	cp := make([]types.TranscriptParams, len(requested))
	copy(cp, requested)
	return &Static{height: height, requested: cp}
}

func (s *Static) Height() types.Height { return s.height }

func (s *Static) RequestedTranscripts() []types.TranscriptParams { return s.requested }

// Mutable is a Reader whose snapshot can be swapped out as new blocks
// finalize, for use by a long-running driver that polls consensus.
type Mutable struct {
	mu        sync.RWMutex
	height    types.Height
	requested []types.TranscriptParams
}

// NewMutable builds a Mutable reader with an initial snapshot.
func NewMutable(height types.Height, requested []types.TranscriptParams) *Mutable {
	m := &Mutable{}
	m.Update(height, requested)
	return m
}

// Update replaces the current snapshot. Safe to call concurrently with
// Height/RequestedTranscripts.
func (m *Mutable) Update(height types.Height, requested []types.TranscriptParams) {
	cp := make([]types.TranscriptParams, len(requested))
	copy(cp, requested)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.height = height
	m.requested = cp
}

func (m *Mutable) Height() types.Height {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.height
}

func (m *Mutable) RequestedTranscripts() []types.TranscriptParams {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requested
}
