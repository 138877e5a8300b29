package blockreader

import (
	"testing"

	"github.com/tolelom/ecdsapresign/types"
)

func TestStaticReader(t *testing.T) {
	params := []types.TranscriptParams{{TranscriptID: 1}}
	r := NewStatic(10, params)
	if r.Height() != 10 {
		t.Fatalf("Height() = %d, want 10", r.Height())
	}
	if len(r.RequestedTranscripts()) != 1 {
		t.Fatalf("RequestedTranscripts() len = %d, want 1", len(r.RequestedTranscripts()))
	}
}

func TestMutableReaderUpdate(t *testing.T) {
	r := NewMutable(1, nil)
	if r.Height() != 1 {
		t.Fatalf("Height() = %d, want 1", r.Height())
	}
	r.Update(2, []types.TranscriptParams{{TranscriptID: 5}})
	if r.Height() != 2 {
		t.Fatalf("Height() = %d, want 2", r.Height())
	}
	got := r.RequestedTranscripts()
	if len(got) != 1 || got[0].TranscriptID != 5 {
		t.Fatalf("RequestedTranscripts() = %v, want one entry with ID 5", got)
	}
}
