package runctl

import "testing"

func TestFlagStartsRunning(t *testing.T) {
	f := NewFlag()
	if !f.Running() {
		t.Fatalf("Running() = false, want true")
	}
}

func TestFlagStopIsIdempotent(t *testing.T) {
	f := NewFlag()
	f.Stop()
	f.Stop()
	if f.Running() {
		t.Fatalf("Running() = true after Stop(), want false")
	}
}
