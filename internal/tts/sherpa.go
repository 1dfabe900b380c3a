package tts

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go-linux"
)

// SherpaProvider drives sherpa-onnx's offline (Kokoro-style) TTS engine,
// the same module already wired for stt.VoskStyleProvider. Grounded on
// agalue-sherpa-voice-assistant/internal/tts/synthesizer.go, adapted to
// this package's Provider interface (WAV bytes in, not a raw samples
// struct) so Framework can treat every provider identically.
type SherpaProvider struct {
	mu         sync.Mutex
	tts        *sherpa.OfflineTts
	sampleRate int
	speakerID  int
	speed      float32
}

// SherpaConfig mirrors the handful of Kokoro model fields an AIST
// deployment actually needs to set.
type SherpaConfig struct {
	Model     string
	Voices    string
	Tokens    string
	DataDir   string
	Lexicon   string
	Language  string
	SpeakerID int
	Speed     float32
	Provider  string
	NumThreads int
}

// NewSherpaProvider loads the Kokoro model described by cfg.
func NewSherpaProvider(cfg SherpaConfig) (*SherpaProvider, error) {
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}
	if cfg.NumThreads <= 0 {
		cfg.NumThreads = 2
	}

	ttsConfig := &sherpa.OfflineTtsConfig{}
	ttsConfig.Model.Kokoro.Model = cfg.Model
	ttsConfig.Model.Kokoro.Voices = cfg.Voices
	ttsConfig.Model.Kokoro.Tokens = cfg.Tokens
	ttsConfig.Model.Kokoro.DataDir = cfg.DataDir
	ttsConfig.Model.Kokoro.Lexicon = cfg.Lexicon
	ttsConfig.Model.Kokoro.Lang = cfg.Language
	ttsConfig.Model.Kokoro.LengthScale = 1.0 / cfg.Speed
	ttsConfig.Model.NumThreads = cfg.NumThreads
	ttsConfig.Model.Provider = cfg.Provider
	ttsConfig.MaxNumSentences = 1

	engine := sherpa.NewOfflineTts(ttsConfig)
	if engine == nil {
		return nil, fmt.Errorf("sherpa: failed to construct offline TTS engine")
	}

	return &SherpaProvider{
		tts:        engine,
		sampleRate: 24000,
		speakerID:  cfg.SpeakerID,
		speed:      cfg.Speed,
	}, nil
}

// Speak synthesizes text and wraps the result as WAV. sherpa-onnx's Go
// binding has no context-cancellation hook, so ctx is only honored up to
// the point the call is made; a single utterance is short enough that
// this is not a meaningful limitation in practice.
func (s *SherpaProvider) Speak(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("sherpa: empty text")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	audio := s.tts.Generate(text, s.speakerID, s.speed)
	s.mu.Unlock()

	if audio == nil || len(audio.Samples) == 0 {
		return nil, fmt.Errorf("sherpa: generation produced no audio")
	}

	return encodeFloat32PCM16WAV(audio.Samples, int(audio.SampleRate))
}

// Close releases the underlying sherpa-onnx engine.
func (s *SherpaProvider) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tts != nil {
		sherpa.DeleteOfflineTts(s.tts)
		s.tts = nil
	}
}
