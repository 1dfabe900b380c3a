package audio

import "testing"

func TestEncodeDecodePCM16WAVRoundTrip(t *testing.T) {
	pcm := []byte{0x00, 0x00, 0xff, 0x7f, 0x00, 0x80}
	wav, err := EncodeWAVPCM16LE(pcm, 22050)
	if err != nil {
		t.Fatalf("EncodeWAVPCM16LE() error = %v", err)
	}

	samples, rate, err := DecodePCM16WAV(wav)
	if err != nil {
		t.Fatalf("DecodePCM16WAV() error = %v", err)
	}
	if rate != 22050 {
		t.Fatalf("rate = %d, want 22050", rate)
	}
	if len(samples) != 3 {
		t.Fatalf("len(samples) = %d, want 3", len(samples))
	}
	if samples[0] != 0 {
		t.Fatalf("samples[0] = %v, want 0", samples[0])
	}
}

func TestDecodePCM16WAVRejectsNonRIFF(t *testing.T) {
	if _, _, err := DecodePCM16WAV([]byte("not a wav file at all")); err == nil {
		t.Fatal("DecodePCM16WAV() error = nil, want error for non-RIFF input")
	}
}
