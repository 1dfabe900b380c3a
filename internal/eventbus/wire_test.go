package eventbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestWireBusPublishSubscribeRoundTrip(t *testing.T) {
	wb, err := Bind("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer wb.Close()

	addr := wb.ln.Addr().String()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	received := make(chan STTTranscribed, 1)
	go func() {
		_ = Subscribe(ctx, addr, "stt.", func(topic Topic, payload []byte) {
			var evt STTTranscribed
			if err := json.Unmarshal(payload, &evt); err == nil {
				received <- evt
			}
		})
	}()

	// Give the subscriber goroutine time to dial and register before
	// publishing; WireBus has no explicit "subscriber ready" signal.
	time.Sleep(50 * time.Millisecond)

	want := STTTranscribed{Text: "turn off the lights", Confidence: 0.92}
	if err := wb.Publish(TopicSTTTranscribed, want); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if got != want {
			t.Fatalf("got %#v, want %#v", got, want)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for subscriber to receive publish")
	}
}

func TestWireBusSubscribeFiltersByTopicPrefix(t *testing.T) {
	wb, err := Bind("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer wb.Close()

	addr := wb.ln.Addr().String()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var gotTopics []Topic
	topicCh := make(chan Topic, 4)
	go func() {
		_ = Subscribe(ctx, addr, "tts.", func(topic Topic, _ []byte) {
			topicCh <- topic
		})
	}()

	time.Sleep(50 * time.Millisecond)

	_ = wb.Publish(TopicSTTTranscribed, STTTranscribed{Text: "ignored"})
	_ = wb.Publish(TopicTTSStarted, TTSStarted{Text: "hello"})

	select {
	case topic := <-topicCh:
		gotTopics = append(gotTopics, topic)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tts.started")
	}

	if len(gotTopics) != 1 || gotTopics[0] != TopicTTSStarted {
		t.Fatalf("gotTopics = %v, want [tts.started]", gotTopics)
	}
}
