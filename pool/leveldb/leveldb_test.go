package leveldb

import (
	"path/filepath"
	"testing"

	"github.com/tolelom/ecdsapresign/types"
)

func openTestPool(t *testing.T) *Pool {
	t.Helper()
	p, err := Open(filepath.Join(t.TempDir(), "pool"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestInsertUnvalidatedAndMoveToValidated(t *testing.T) {
	p := openTestPool(t)
	d := types.Dealing{TranscriptID: 1, DealerID: "n1"}
	id := p.InsertUnvalidated(d, "peer1")

	got := p.Unvalidated().Dealings()
	if len(got) != 1 || got[0].ID != id || got[0].PeerID != "peer1" {
		t.Fatalf("Unvalidated().Dealings() = %v", got)
	}

	if err := p.Apply(types.ChangeSet{types.MoveToValidated{ID: id}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(p.Unvalidated().Dealings()) != 0 {
		t.Error("expected unvalidated dealing to be removed after move")
	}
	validated := p.Validated().Dealings()
	if len(validated) != 1 || validated[0].ID != id || validated[0].Item.DealerID != "n1" {
		t.Fatalf("Validated().Dealings() = %v", validated)
	}
}

func TestAddToValidatedPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pool")
	p, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d := types.Dealing{TranscriptID: 7, DealerID: "n1"}
	if err := p.Apply(types.ChangeSet{types.AddToValidated{Message: d}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open (reopen): %v", err)
	}
	defer reopened.Close()
	got := reopened.Validated().Dealings()
	if len(got) != 1 || got[0].Item.TranscriptID != 7 {
		t.Fatalf("Validated().Dealings() after reopen = %v", got)
	}
}

func TestHandleInvalidRemovesUnvalidatedEntry(t *testing.T) {
	p := openTestPool(t)
	id := p.InsertUnvalidated(types.DealingSupport{}, "peer1")
	if err := p.Apply(types.ChangeSet{types.HandleInvalid{ID: id, Reason: "bad signature"}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(p.Unvalidated().DealingSupport()) != 0 {
		t.Error("expected unvalidated support entry to be removed")
	}
}
