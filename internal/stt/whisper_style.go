package stt

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"go.uber.org/zap"

	"github.com/letrezdraw/AIST/internal/audio"
	"github.com/letrezdraw/AIST/internal/eventbus"
	"github.com/letrezdraw/AIST/internal/state"
)

// WhisperStyleConfig configures the chunked recognizer.
type WhisperStyleConfig struct {
	ModelPath            string
	Language             string
	SampleRate           int
	EnergyThreshold      float64
	PhraseTimeout        time.Duration
	UseNoiseCancellation bool
	NoiseProfile         []float32 // pre-loaded noise sample, see LoadNoiseProfile
	MaxWorkers           int
}

// WhisperStyleProvider buffers microphone audio with an energy-gated VAD
// and hands completed utterances to a bounded pool of whisper.cpp workers,
// mirroring original_source/aist/stt_providers/whisper_provider.py's
// buffer-then-transcribe shape and MrWong99-glyphoxa's native.go call
// pattern against whisperlib.
type WhisperStyleProvider struct {
	cfg    WhisperStyleConfig
	model  whisperlib.Model
	logger *zap.Logger
	deps   deps

	sem   chan struct{}
	noise float32
}

// NewWhisperStyleProvider loads the whisper.cpp model once; NewContext is
// created per-utterance since whisper.cpp contexts are not safe for
// concurrent use.
func NewWhisperStyleProvider(cfg WhisperStyleConfig, device *audio.Device, bus *eventbus.Bus, interlock *audio.Interlock, logger *zap.Logger) (*WhisperStyleProvider, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.PhraseTimeout <= 0 {
		cfg.PhraseTimeout = time.Second
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 2
	}

	model, err := whisperlib.New(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("stt: load whisper model %q: %w", cfg.ModelPath, err)
	}

	var noiseRMS float32
	if cfg.UseNoiseCancellation {
		noiseRMS = rmsFloat32(cfg.NoiseProfile)
	}

	return &WhisperStyleProvider{
		cfg:    cfg,
		model:  model,
		logger: logger,
		deps:   deps{device: device, bus: bus, interlock: interlock},
		sem:    make(chan struct{}, cfg.MaxWorkers),
		noise:  noiseRMS,
	}, nil
}

// Run captures audio, accumulating speech until a silence gap of
// PhraseTimeout, then dispatches the segment to a worker.
func (p *WhisperStyleProvider) Run(ctx context.Context, machine *state.Machine, ready chan<- struct{}) error {
	var (
		mu         sync.Mutex
		buffer     []float32
		hadSpeech  bool
		silentSince time.Time
	)

	flush := func() {
		mu.Lock()
		if len(buffer) == 0 || !hadSpeech {
			buffer = nil
			hadSpeech = false
			mu.Unlock()
			return
		}
		segment := buffer
		buffer = nil
		hadSpeech = false
		mu.Unlock()

		p.dispatch(ctx, segment, machine)
	}

	err := p.deps.device.StartCapture(func(frame audio.Frame) {
		if p.deps.interlock.Muted() {
			return
		}

		samples := frame.Samples
		if p.cfg.UseNoiseCancellation {
			samples = subtractNoiseFloor(samples, p.noise)
		}

		energy := rmsFloat32(samples) * 32768
		mu.Lock()
		if energy < p.cfg.EnergyThreshold {
			if hadSpeech {
				if silentSince.IsZero() {
					silentSince = time.Now()
				} else if time.Since(silentSince) >= p.cfg.PhraseTimeout {
					mu.Unlock()
					flush()
					return
				}
				buffer = append(buffer, samples...)
			}
		} else {
			hadSpeech = true
			silentSince = time.Time{}
			buffer = append(buffer, samples...)
		}
		mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("stt: start capture: %w", err)
	}
	defer p.deps.device.StopCapture()

	close(ready)
	<-ctx.Done()
	flush()
	return ctx.Err()
}

// dispatch runs one whisper.cpp transcription on a pooled goroutine,
// bounded by p.sem so a burst of short utterances cannot spawn unbounded
// concurrent whisper contexts.
func (p *WhisperStyleProvider) dispatch(ctx context.Context, samples []float32, machine *state.Machine) {
	p.sem <- struct{}{}
	go func() {
		defer func() { <-p.sem }()

		text, err := p.transcribe(samples)
		if err != nil {
			p.logger.Warn("stt: whisper transcription failed", zap.Error(err))
			return
		}
		if text == "" {
			return
		}
		publishTranscript(p.deps.bus, text, 1.0)
	}()
}

func (p *WhisperStyleProvider) transcribe(samples []float32) (string, error) {
	wctx, err := p.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("stt: create whisper context: %w", err)
	}
	if p.cfg.Language != "" {
		if err := wctx.SetLanguage(p.cfg.Language); err != nil {
			p.logger.Debug("stt: failed to set whisper language", zap.Error(err))
		}
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("stt: whisper process: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if err != nil {
			break
		}
		if t := strings.TrimSpace(segment.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}

// Close releases the whisper model.
func (p *WhisperStyleProvider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

func rmsFloat32(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}

// subtractNoiseFloor reduces every sample's magnitude by the noise
// profile's RMS, a simplified stand-in for
// aist/stt_providers/whisper_provider.py's spectral noise-gate: it trades
// spectral precision for a single scalar that is cheap to apply per frame
// in real time.
func subtractNoiseFloor(samples []float32, noiseRMS float32) []float32 {
	if noiseRMS <= 0 {
		return samples
	}
	out := make([]float32, len(samples))
	for i, s := range samples {
		if s > 0 {
			out[i] = s - noiseRMS
			if out[i] < 0 {
				out[i] = 0
			}
		} else {
			out[i] = s + noiseRMS
			if out[i] > 0 {
				out[i] = 0
			}
		}
	}
	return out
}
