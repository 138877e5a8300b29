package presign

import (
	"testing"

	"github.com/tolelom/ecdsapresign/blockreader"
	"github.com/tolelom/ecdsapresign/types"
)

func TestClassifyDefersFutureHeight(t *testing.T) {
	reader := blockreader.NewStatic(10, nil)
	a := Classify(reader, 11, 1)
	if a.Kind != ActionDefer {
		t.Fatalf("Kind = %v, want ActionDefer", a.Kind)
	}
}

func TestClassifyProcessesRequestedTranscript(t *testing.T) {
	reader := blockreader.NewStatic(10, []types.TranscriptParams{{TranscriptID: 5}})
	a := Classify(reader, 3, 5)
	if a.Kind != ActionProcess {
		t.Fatalf("Kind = %v, want ActionProcess", a.Kind)
	}
	if a.Params == nil || a.Params.TranscriptID != 5 {
		t.Fatalf("Params = %v", a.Params)
	}
}

func TestClassifyDropsUnknownTranscript(t *testing.T) {
	reader := blockreader.NewStatic(10, []types.TranscriptParams{{TranscriptID: 5}})
	a := Classify(reader, 3, 99)
	if a.Kind != ActionDrop {
		t.Fatalf("Kind = %v, want ActionDrop", a.Kind)
	}
}
