package memory

import (
	"testing"

	"github.com/tolelom/ecdsapresign/types"
)

func TestInsertUnvalidatedAndMoveToValidated(t *testing.T) {
	p := New()
	d := types.Dealing{TranscriptID: 1, DealerID: "n1"}
	id := p.InsertUnvalidated(d, "peer1")

	if got := p.Unvalidated().Dealings(); len(got) != 1 || got[0].ID != id {
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

func TestAddToValidatedAssignsFreshIDsForDuplicateContent(t *testing.T) {
	p := New()
	d := types.Dealing{TranscriptID: 1, DealerID: "n1"}
	if err := p.Apply(types.ChangeSet{types.AddToValidated{Message: d}, types.AddToValidated{Message: d}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got := p.Validated().Dealings()
	if len(got) != 2 {
		t.Fatalf("Validated().Dealings() len = %d, want 2", len(got))
	}
	if got[0].ID == got[1].ID {
		t.Error("expected distinct IDs for separately inserted duplicate content")
	}
}

func TestHandleInvalidRemovesUnvalidatedEntry(t *testing.T) {
	p := New()
	id := p.InsertUnvalidated(types.DealingSupport{}, "peer1")
	if err := p.Apply(types.ChangeSet{types.HandleInvalid{ID: id, Reason: "bad signature"}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(p.Unvalidated().DealingSupport()) != 0 {
		t.Error("expected unvalidated support entry to be removed")
	}
}

func TestRemoveUnvalidated(t *testing.T) {
	p := New()
	id := p.InsertUnvalidated(types.Dealing{}, "peer1")
	if err := p.Apply(types.ChangeSet{types.RemoveUnvalidated{ID: id}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(p.Unvalidated().Dealings()) != 0 {
		t.Error("expected unvalidated dealing to be removed")
	}
}
