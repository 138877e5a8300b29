// Package crypto defines the capability the pre-signer core uses to
// create and verify IDKG dealings and dealing-support shares. The
// interface is deliberately narrow: the core never touches key material
// or transcript math directly, only this capability (spec §4.3).
package crypto

import (
	"errors"
	"fmt"

	"github.com/tolelom/ecdsapresign/types"
)

// Capability is the set of crypto operations the pre-signer core
// consumes. A production implementation backs this with the real IDKG
// protocol; implementations in this repo are reference/test-grade
// stand-ins (see ed25519capability).
type Capability interface {
	// CreateDealing produces this node's dealing for params. Called only
	// when the node is a dealer for the transcript and hasn't already
	// issued one.
	CreateDealing(params *types.TranscriptParams) (types.CryptoDealing, error)

	// VerifyDealingPublic checks a peer dealing using only public
	// information (no private key material of ours is involved).
	VerifyDealingPublic(params *types.TranscriptParams, dealing types.CryptoDealing) error

	// VerifyDealingPrivate checks a peer dealing using this node's own
	// private share, ahead of co-signing it. Called only when the node
	// is a receiver for the transcript.
	VerifyDealingPrivate(params *types.TranscriptParams, dealing types.CryptoDealing) error

	// Sign produces this node's multi-signature share over dealing.
	Sign(dealing *types.Dealing, signer types.NodeID, registryVersion uint64) (types.MultiSigShare, error)

	// Verify checks a received dealing-support's multi-signature share.
	Verify(support *types.DealingSupport, registryVersion uint64) error
}

// Error wraps a crypto failure with the replicated/transient
// discriminant from spec §4.3: Replicated true means every honest node
// would observe the same failure deterministically (safe basis to mark
// a peer's message invalid); false means the failure may be local or
// transient and should be retried, not penalized.
type Error struct {
	Op         string
	Err        error
	Replicated bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Permanent wraps err as a replicated (permanent) crypto error.
func Permanent(op string, err error) error {
	return &Error{Op: op, Err: err, Replicated: true}
}

// Transient wraps err as a non-replicated (transient) crypto error.
func Transient(op string, err error) error {
	return &Error{Op: op, Err: err, Replicated: false}
}

// IsReplicated reports whether err (or a wrapped cause) is a Replicated
// crypto Error. A nil or non-crypto error is never replicated.
func IsReplicated(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Replicated
	}
	return false
}
