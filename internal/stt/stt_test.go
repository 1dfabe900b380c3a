package stt

import (
	"os"
	"testing"
)

func TestRmsFloat32Silence(t *testing.T) {
	if got := rmsFloat32(make([]float32, 100)); got != 0 {
		t.Fatalf("rmsFloat32(silence) = %v, want 0", got)
	}
}

func TestRmsFloat32KnownSignal(t *testing.T) {
	samples := []float32{1, -1, 1, -1}
	if got := rmsFloat32(samples); got != 1 {
		t.Fatalf("rmsFloat32() = %v, want 1", got)
	}
}

func TestSubtractNoiseFloorClampsTowardZero(t *testing.T) {
	out := subtractNoiseFloor([]float32{0.1, -0.1, 0.01}, 0.05)
	want := []float32{0.05, -0.05, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestSubtractNoiseFloorNoOpWhenZero(t *testing.T) {
	in := []float32{0.1, -0.2}
	out := subtractNoiseFloor(in, 0)
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("out[%d] = %v, want unchanged %v", i, out[i], in[i])
		}
	}
}

func TestAverageWordConfidenceEmptyTokensIsConfident(t *testing.T) {
	if got := averageWordConfidence(nil, nil); got != 1.0 {
		t.Fatalf("averageWordConfidence(nil) = %v, want 1.0", got)
	}
}

func TestAverageWordConfidenceBoundedToUnitRange(t *testing.T) {
	got := averageWordConfidence([]string{"a", "b", "c", "d", "e", "f", "g", "h"}, []float32{0, 0.1})
	if got < 0 || got > 1 {
		t.Fatalf("averageWordConfidence() = %v, want in [0,1]", got)
	}
}

func TestWriteHotwordsFileEmptyPhrasesReturnsEmptyPath(t *testing.T) {
	path, err := writeHotwordsFile(nil)
	if err != nil {
		t.Fatalf("writeHotwordsFile() error = %v", err)
	}
	if path != "" {
		t.Fatalf("path = %q, want empty", path)
	}
}

func TestWriteHotwordsFileWritesOnePhrasePerLine(t *testing.T) {
	path, err := writeHotwordsFile([]string{"hey assist", "goodbye assist"})
	if err != nil {
		t.Fatalf("writeHotwordsFile() error = %v", err)
	}
	defer os.RemoveAll(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "hey assist\ngoodbye assist\n" {
		t.Fatalf("contents = %q", string(data))
	}
}
