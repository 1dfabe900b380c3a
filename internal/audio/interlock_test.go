package audio

import (
	"testing"

	"github.com/letrezdraw/AIST/internal/eventbus"
)

func TestInterlockTracksTTSLifecycle(t *testing.T) {
	bus := eventbus.New()
	il := NewInterlock(bus)

	if il.Muted() {
		t.Fatal("Muted() = true before any tts event, want false")
	}

	bus.Publish(eventbus.TopicTTSStarted, eventbus.TTSStarted{Text: "hello"})
	if !il.Muted() {
		t.Fatal("Muted() = false after tts.started, want true")
	}

	bus.Publish(eventbus.TopicTTSFinished, eventbus.TTSFinished{Text: "hello"})
	if il.Muted() {
		t.Fatal("Muted() = true after tts.finished, want false")
	}
}

func TestInterlockOnChangeCallback(t *testing.T) {
	bus := eventbus.New()
	il := NewInterlock(bus)

	var seen []bool
	il.OnChange(func(muted bool) { seen = append(seen, muted) })

	bus.Publish(eventbus.TopicTTSStarted, eventbus.TTSStarted{})
	bus.Publish(eventbus.TopicTTSFinished, eventbus.TTSFinished{})

	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Fatalf("seen = %v, want [true false]", seen)
	}
}
