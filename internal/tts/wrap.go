package tts

import (
	"encoding/binary"
	"math"

	"github.com/letrezdraw/AIST/internal/audio"
)

// wrapRawPCM16 wraps headerless PCM16LE mono samples (as produced by
// Piper's --output-raw and some sherpa-onnx builds) in a WAV container so
// Framework can decode every provider's output uniformly.
func wrapRawPCM16(raw []byte, sampleRate int) ([]byte, error) {
	return audio.EncodeWAVPCM16LE(raw, sampleRate)
}

// encodeFloat32PCM16WAV quantizes float32 samples in [-1, 1] to PCM16LE and
// wraps them as WAV, for providers (sherpa-onnx) whose native output is
// float samples rather than an encoded byte stream.
func encodeFloat32PCM16WAV(samples []float32, sampleRate int) ([]byte, error) {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s*math.MaxInt16)))
	}
	return audio.EncodeWAVPCM16LE(pcm, sampleRate)
}
