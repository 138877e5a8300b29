// Package types holds the wire-level data model shared by the pre-signer
// core and its collaborators: node identities, transcript parameters,
// dealings, dealing support shares, and the change actions the engine
// emits.
package types

import "fmt"

// NodeID is an opaque replica identity, stable across the protocol epoch.
type NodeID string

// Height is a monotone consensus height.
type Height uint64

// TranscriptID identifies an IDKG transcript for its whole lifecycle,
// from request to completion or drop.
type TranscriptID uint64

// AlgorithmID names the signature algorithm a transcript is generated for.
type AlgorithmID string

// TranscriptOperation names the IDKG operation a transcript realizes
// (e.g. a fresh random transcript vs. a resharing of an existing one).
type TranscriptOperation string

// NodeSet is an ordered, duplicate-free set of node identities with
// O(n) membership lookup — dealer and receiver lists are small (committee
// sized), so a slice scan is simpler and cheaper than a map for this size.
type NodeSet struct {
	ordered []NodeID
}

// NewNodeSet builds a NodeSet from ids, preserving first-seen order and
// dropping duplicates.
func NewNodeSet(ids ...NodeID) NodeSet {
	seen := make(map[NodeID]bool, len(ids))
	out := make([]NodeID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return NodeSet{ordered: out}
}

// Contains reports whether id is a member of the set.
func (s NodeSet) Contains(id NodeID) bool {
	for _, m := range s.ordered {
		if m == id {
			return true
		}
	}
	return false
}

// List returns the set members in their original order. Callers must not
// mutate the returned slice.
func (s NodeSet) List() []NodeID {
	return s.ordered
}

// Len returns the number of members.
func (s NodeSet) Len() int {
	return len(s.ordered)
}

// TranscriptParams describes a transcript that consensus has requested.
// Produced by the block reader; read-only to the pre-signer core.
type TranscriptParams struct {
	TranscriptID    TranscriptID
	Dealers         NodeSet
	Receivers       NodeSet
	RegistryVersion uint64
	AlgorithmID     AlgorithmID
	Operation       TranscriptOperation
}

// CryptoDealing is the opaque crypto payload produced by the IDKG
// capability for one dealer's contribution to a transcript.
type CryptoDealing []byte

// Dealing is a dealer's contribution to a transcript, plus the
// provenance needed to triage and validate it.
type Dealing struct {
	TranscriptID    TranscriptID
	DealerID        NodeID
	RequestedHeight Height
	Blob            CryptoDealing
}

// MultiSigShare is one receiver's multi-signature share over a dealing.
type MultiSigShare struct {
	Signer NodeID
	Share  []byte
}

// DealingSupport is a receiver's attestation that a dealing passed
// private verification: the dealing content plus the receiver's share.
type DealingSupport struct {
	Content   Dealing
	Signature MultiSigShare
}

// Message is the sum type of artifacts the pool can carry: a Dealing or
// a DealingSupport. Only Dealing and DealingSupport implement it.
type Message interface {
	isMessage()
}

func (Dealing) isMessage()        {}
func (DealingSupport) isMessage() {}

// MessageID is a pool-assigned identifier for a pool entry. Opaque to
// the pre-signer core beyond equality comparison.
type MessageID string

// ChangeAction is one action the pre-signer core asks the pool to apply.
// Only AddToValidated, MoveToValidated, RemoveUnvalidated and
// HandleInvalid implement it.
type ChangeAction interface {
	isChangeAction()
	fmt.Stringer
}

// AddToValidated asks the pool to insert msg directly into the
// validated partition (used for artifacts this node itself produced).
type AddToValidated struct {
	Message Message
}

// MoveToValidated asks the pool to move the unvalidated entry id into
// the validated partition.
type MoveToValidated struct {
	ID MessageID
}

// RemoveUnvalidated asks the pool to drop the unvalidated entry id
// without comment (it is stale, not invalid).
type RemoveUnvalidated struct {
	ID MessageID
}

// HandleInvalid asks the pool to drop the entry id and record why, for
// peer-misbehavior accounting. The entry is usually unvalidated, but
// send_dealing_support also emits it for a validated dealing that fails
// private verification permanently.
type HandleInvalid struct {
	ID     MessageID
	Reason string
}

func (AddToValidated) isChangeAction()    {}
func (MoveToValidated) isChangeAction()   {}
func (RemoveUnvalidated) isChangeAction() {}
func (HandleInvalid) isChangeAction()     {}

func (a AddToValidated) String() string { return fmt.Sprintf("AddToValidated(%T)", a.Message) }
func (a MoveToValidated) String() string {
	return fmt.Sprintf("MoveToValidated(%s)", a.ID)
}
func (a RemoveUnvalidated) String() string {
	return fmt.Sprintf("RemoveUnvalidated(%s)", a.ID)
}
func (a HandleInvalid) String() string {
	return fmt.Sprintf("HandleInvalid(%s, %q)", a.ID, a.Reason)
}

// ChangeSet is an ordered sequence of change actions, emission order is
// apply order.
type ChangeSet []ChangeAction
