// Package ed25519capability is a reference, test-grade implementation
// of crypto.Capability. It stands in for the real interactive
// distributed-key-generation (IDKG) cryptography, which spec §1
// declares out of scope for this core — no pack example implements
// threshold ECDSA, so this uses the teacher's own ed25519 signing
// primitive generalized from "sign a block hash" to "sign a dealing
// digest", with the digest itself computed via blake2b instead of the
// teacher's sha256 (see DESIGN.md).
package ed25519capability

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/tolelom/ecdsapresign/crypto"
	"github.com/tolelom/ecdsapresign/types"
)

// payload is the self-describing content of a types.CryptoDealing blob:
// enough for any holder of the dealer's public key to re-derive the
// digest and check the signature, without the pre-signer core needing
// to understand any of it.
type payload struct {
	DealerID  types.NodeID
	Digest    []byte
	Signature []byte
}

// Capability implements crypto.Capability using ed25519 signatures and
// blake2b digests. One Capability instance represents one node: it can
// sign with its own private key and verify any peer's dealing or
// support given that peer's public key is in the registry.
type Capability struct {
	nodeID  types.NodeID
	priv    ed25519.PrivateKey
	pubKeys map[types.NodeID]ed25519.PublicKey
}

// New builds a Capability for nodeID. pubKeys should contain the public
// key of every node whose dealings or support this instance may need to
// verify (normally the full committee), including nodeID's own.
func New(nodeID types.NodeID, priv ed25519.PrivateKey, pubKeys map[types.NodeID]ed25519.PublicKey) *Capability {
	return &Capability{nodeID: nodeID, priv: priv, pubKeys: pubKeys}
}

// GenerateKeyPair generates a fresh ed25519 key pair for a node.
func GenerateKeyPair() (ed25519.PrivateKey, ed25519.PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}

func transcriptDigest(params *types.TranscriptParams, dealerID types.NodeID) [32]byte {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%d|%s|%d|%s|%s", params.TranscriptID, dealerID, params.RegistryVersion, params.AlgorithmID, params.Operation)
	for _, d := range params.Dealers.List() {
		fmt.Fprintf(h, "|d:%s", d)
	}
	for _, r := range params.Receivers.List() {
		fmt.Fprintf(h, "|r:%s", r)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// CreateDealing signs the transcript digest with this node's own key,
// acting as dealer.
func (c *Capability) CreateDealing(params *types.TranscriptParams) (types.CryptoDealing, error) {
	digest := transcriptDigest(params, c.nodeID)
	sig := ed25519.Sign(c.priv, digest[:])
	blob, err := json.Marshal(payload{DealerID: c.nodeID, Digest: digest[:], Signature: sig})
	if err != nil {
		return nil, crypto.Transient("create_dealing", err)
	}
	return types.CryptoDealing(blob), nil
}

func (c *Capability) verifyDealing(params *types.TranscriptParams, dealing types.CryptoDealing) error {
	var p payload
	if err := json.Unmarshal(dealing, &p); err != nil {
		return crypto.Permanent("verify_dealing", fmt.Errorf("malformed dealing: %w", err))
	}
	want := transcriptDigest(params, p.DealerID)
	if len(p.Digest) != len(want) || string(p.Digest) != string(want[:]) {
		return crypto.Permanent("verify_dealing", fmt.Errorf("digest mismatch for dealer %s", p.DealerID))
	}
	pub, ok := c.pubKeys[p.DealerID]
	if !ok {
		// Registry hasn't caught up with this dealer's key yet: treat as
		// transient so the caller retries rather than penalizing a peer
		// for our own stale view.
		return crypto.Transient("verify_dealing", fmt.Errorf("unknown public key for dealer %s", p.DealerID))
	}
	if !ed25519.Verify(pub, p.Digest, p.Signature) {
		return crypto.Permanent("verify_dealing", fmt.Errorf("bad signature from dealer %s", p.DealerID))
	}
	return nil
}

// VerifyDealingPublic checks the dealing's signature against the
// dealer's known public key.
func (c *Capability) VerifyDealingPublic(params *types.TranscriptParams, dealing types.CryptoDealing) error {
	return c.verifyDealing(params, dealing)
}

// VerifyDealingPrivate performs the same check as VerifyDealingPublic.
// A real IDKG implementation additionally decrypts and checks this
// node's private share here; that step has no analogue in this
// reference stand-in.
func (c *Capability) VerifyDealingPrivate(params *types.TranscriptParams, dealing types.CryptoDealing) error {
	return c.verifyDealing(params, dealing)
}

// Sign produces signer's multi-signature share over dealing. Only
// supported when signer is this Capability's own node, since a
// Capability only ever holds one node's private key.
func (c *Capability) Sign(dealing *types.Dealing, signer types.NodeID, registryVersion uint64) (types.MultiSigShare, error) {
	if signer != c.nodeID {
		return types.MultiSigShare{}, crypto.Permanent("sign", fmt.Errorf("capability for %s cannot sign as %s", c.nodeID, signer))
	}
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%d|%s|%d|%x|%d", dealing.TranscriptID, dealing.DealerID, dealing.RequestedHeight, dealing.Blob, registryVersion)
	sig := ed25519.Sign(c.priv, h.Sum(nil))
	return types.MultiSigShare{Signer: signer, Share: sig}, nil
}

// Verify checks a dealing-support's multi-signature share against the
// signer's known public key.
func (c *Capability) Verify(support *types.DealingSupport, registryVersion uint64) error {
	pub, ok := c.pubKeys[support.Signature.Signer]
	if !ok {
		return crypto.Transient("verify_support", fmt.Errorf("unknown public key for signer %s", support.Signature.Signer))
	}
	h, _ := blake2b.New256(nil)
	d := support.Content
	fmt.Fprintf(h, "%d|%s|%d|%x|%d", d.TranscriptID, d.DealerID, d.RequestedHeight, d.Blob, registryVersion)
	if !ed25519.Verify(pub, h.Sum(nil), support.Signature.Share) {
		return crypto.Permanent("verify_support", fmt.Errorf("bad signature from signer %s", support.Signature.Signer))
	}
	return nil
}
