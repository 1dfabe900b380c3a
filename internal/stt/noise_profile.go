package stt

import (
	"fmt"
	"os"

	"github.com/letrezdraw/AIST/internal/audio"
)

// LoadNoiseProfile reads a short WAV recording of ambient noise from path
// and decodes it to float32 samples for WhisperStyleConfig.NoiseProfile.
func LoadNoiseProfile(path string) ([]float32, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stt: read noise profile %q: %w", path, err)
	}
	samples, _, err := audio.DecodePCM16WAV(data)
	if err != nil {
		return nil, fmt.Errorf("stt: decode noise profile %q: %w", path, err)
	}
	return samples, nil
}
