package tts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/letrezdraw/AIST/internal/eventbus"
)

type fakeProvider struct {
	wav []byte
	err error
}

func (f *fakeProvider) Speak(_ context.Context, _ string) ([]byte, error) {
	return f.wav, f.err
}

func TestFrameworkSpeakBracketsStartedFinished(t *testing.T) {
	wav, err := wrapRawPCM16([]byte{0x00, 0x00, 0x10, 0x00}, 16000)
	if err != nil {
		t.Fatalf("wrapRawPCM16() error = %v", err)
	}

	bus := eventbus.New()
	var events []string
	bus.Subscribe(eventbus.TopicTTSStarted, func(any) { events = append(events, "started") })
	bus.Subscribe(eventbus.TopicTTSFinished, func(any) { events = append(events, "finished") })

	fw := NewFramework(&fakeProvider{wav: wav}, nil, bus, zap.NewNop(), time.Second)
	if err := fw.Speak(context.Background(), "hello there"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}

	if len(events) != 2 || events[0] != "started" || events[1] != "finished" {
		t.Fatalf("events = %v, want [started finished]", events)
	}
}

func TestFrameworkSpeakIgnoresEmptyText(t *testing.T) {
	bus := eventbus.New()
	called := false
	bus.Subscribe(eventbus.TopicTTSStarted, func(any) { called = true })

	fw := NewFramework(&fakeProvider{}, nil, bus, zap.NewNop(), time.Second)
	if err := fw.Speak(context.Background(), ""); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if called {
		t.Fatal("tts.started published for empty text")
	}
}

func TestFrameworkSpeakPropagatesProviderError(t *testing.T) {
	bus := eventbus.New()
	fw := NewFramework(&fakeProvider{err: errTest}, nil, bus, zap.NewNop(), time.Second)
	if err := fw.Speak(context.Background(), "hi"); err == nil {
		t.Fatal("Speak() error = nil, want provider error surfaced")
	}
}

var errTest = &testError{"synthesis exploded"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
