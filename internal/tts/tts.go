// Package tts implements the text-to-speech provider framework: a
// Provider synthesizes one utterance into WAV bytes, and Framework
// turns tts.speak bus events into played audio, bracketing playback
// with tts.started/tts.finished so the STT interlock and frontend state
// machine can react.
package tts

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/letrezdraw/AIST/internal/audio"
	"github.com/letrezdraw/AIST/internal/eventbus"
)

// Provider synthesizes text into a WAV-encoded PCM16 mono stream.
type Provider interface {
	Speak(ctx context.Context, text string) (wav []byte, err error)
}

// Framework subscribes to tts.speak and runs each request on its own
// background worker: there is normally at most one utterance in flight,
// but nothing prevents a skill from queuing a second before the first
// finishes.
type Framework struct {
	provider Provider
	device   *audio.Device
	bus      *eventbus.Bus
	logger   *zap.Logger
	timeout  time.Duration
}

// NewFramework wires provider to device/bus. timeout bounds both synthesis
// and playback for a single utterance.
func NewFramework(provider Provider, device *audio.Device, bus *eventbus.Bus, logger *zap.Logger, timeout time.Duration) *Framework {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Framework{provider: provider, device: device, bus: bus, logger: logger, timeout: timeout}
}

// Start subscribes to tts.speak until ctx is canceled, returning the
// unsubscribe function the caller should invoke on shutdown.
func (f *Framework) Start(ctx context.Context) func() {
	return f.bus.Subscribe(eventbus.TopicTTSSpeak, func(payload any) {
		req, ok := payload.(eventbus.TTSSpeak)
		if !ok {
			return
		}
		go f.speak(ctx, req.Text)
	})
}

// Speak synthesizes and plays text synchronously, bracketed by
// tts.started/tts.finished. Callers that only need to enqueue speech
// should publish eventbus.TopicTTSSpeak instead of calling this directly.
func (f *Framework) Speak(ctx context.Context, text string) error {
	return f.speak(ctx, text)
}

func (f *Framework) speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	f.bus.Publish(eventbus.TopicTTSStarted, eventbus.TTSStarted{Text: text})
	defer f.bus.Publish(eventbus.TopicTTSFinished, eventbus.TTSFinished{Text: text})

	wav, err := f.provider.Speak(callCtx, text)
	if err != nil {
		f.logger.Error("tts: synthesis failed", zap.Error(err), zap.String("text", text))
		return fmt.Errorf("tts: synthesize: %w", err)
	}

	samples, sampleRate, err := audio.DecodePCM16WAV(wav)
	if err != nil {
		f.logger.Error("tts: decode failed", zap.Error(err))
		return fmt.Errorf("tts: decode: %w", err)
	}

	if f.device != nil {
		resampled := audio.Resample(samples, sampleRate, f.device.PlaybackRate())
		if err := f.device.Play(resampled, f.timeout); err != nil {
			f.logger.Warn("tts: playback error", zap.Error(err))
			return err
		}
	}
	return nil
}
