package audio

import (
	"sync"

	"github.com/letrezdraw/AIST/internal/eventbus"
)

// Interlock is the single boolean guarding the one shared microphone:
// while true, STT providers must discard any
// captured audio and skip VAD entirely rather than merely ignoring the
// result, since feeding the assistant's own voice back into recognition
// risks a feedback loop of self-triggered activation phrases.
//
// It is held by exactly one writer (the TTS framework) and read by every
// STT provider, so it is deliberately simpler than a general-purpose
// mutex: callers never need to "wait their turn", only to check and react.
type Interlock struct {
	mu     sync.RWMutex
	muted  bool
	onMute func(muted bool)
}

// NewInterlock wires itself to the in-process bus, flipping muted on
// tts.started and clearing it on tts.finished.
func NewInterlock(bus *eventbus.Bus) *Interlock {
	il := &Interlock{}
	if bus != nil {
		bus.Subscribe(eventbus.TopicTTSStarted, func(any) { il.setMuted(true) })
		bus.Subscribe(eventbus.TopicTTSFinished, func(any) { il.setMuted(false) })
	}
	return il
}

// Muted reports whether STT should currently discard captured audio.
func (il *Interlock) Muted() bool {
	il.mu.RLock()
	defer il.mu.RUnlock()
	return il.muted
}

// OnChange registers a callback invoked whenever mute state flips, so a
// provider can reset its buffered audio/recognizer state the moment TTS
// playback ends instead of racing the next poll.
func (il *Interlock) OnChange(fn func(muted bool)) {
	il.mu.Lock()
	il.onMute = fn
	il.mu.Unlock()
}

func (il *Interlock) setMuted(muted bool) {
	il.mu.Lock()
	il.muted = muted
	cb := il.onMute
	il.mu.Unlock()
	if cb != nil {
		cb(muted)
	}
}
