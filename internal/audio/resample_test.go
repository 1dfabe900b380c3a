package audio

import "testing"

func TestResampleIdentityWhenRatesMatch(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := Resample(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(in))
	}
}

func TestResampleChangesLengthProportionally(t *testing.T) {
	in := make([]float32, 1600)
	out := Resample(in, 16000, 8000)
	if out == nil || len(out) != 800 {
		t.Fatalf("len(out) = %d, want 800", len(out))
	}
}

func TestResampleUpsamplingGrowsLength(t *testing.T) {
	in := make([]float32, 100)
	out := Resample(in, 16000, 24000)
	if len(out) != 150 {
		t.Fatalf("len(out) = %d, want 150", len(out))
	}
}
