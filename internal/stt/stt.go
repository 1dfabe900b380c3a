// Package stt implements two STT provider shapes: a streaming
// "vosk-style" recognizer constrained to the assistant's standing
// phrases while DORMANT, and a chunked "whisper-style" recognizer that
// buffers audio until a silence gap and transcribes the whole utterance
// at once. Both publish eventbus.TopicSTTTranscribed and honor the
// audio.Interlock so they never consult the assistant's own speech.
package stt

import (
	"context"

	"github.com/letrezdraw/AIST/internal/audio"
	"github.com/letrezdraw/AIST/internal/eventbus"
	"github.com/letrezdraw/AIST/internal/state"
)

// Provider drives one microphone-to-transcript pipeline. Run blocks until
// ctx is canceled; ready is closed once the provider's models are loaded
// and it is actively listening, so the caller can publish
// eventbus.TopicInitStatus only once startup truly finished.
type Provider interface {
	Run(ctx context.Context, machine *state.Machine, ready chan<- struct{}) error
}

// publishTranscript is the single place a transcribed utterance is handed
// to the rest of the system, shared by both providers so the payload shape
// never drifts between them.
func publishTranscript(bus *eventbus.Bus, text string, confidence float64) {
	if text == "" {
		return
	}
	bus.Publish(eventbus.TopicSTTTranscribed, eventbus.STTTranscribed{Text: text, Confidence: confidence})
}

// deps bundles the collaborators both providers need, to avoid repeating a
// five-field constructor signature on each one.
type deps struct {
	device    *audio.Device
	bus       *eventbus.Bus
	interlock *audio.Interlock
}
