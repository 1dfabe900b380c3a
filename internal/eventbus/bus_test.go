package eventbus

import "testing"

func TestBusPublishDeliversToSubscriber(t *testing.T) {
	b := New()
	got := make(chan any, 1)
	b.Subscribe(TopicStateChanged, func(payload any) { got <- payload })

	want := StateChanged{From: "DORMANT", To: "LISTENING"}
	b.Publish(TopicStateChanged, want)

	select {
	case payload := <-got:
		sc, ok := payload.(StateChanged)
		if !ok || sc != want {
			t.Fatalf("got %#v, want %#v", payload, want)
		}
	default:
		t.Fatal("subscriber did not receive publish")
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	unsub := b.Subscribe(TopicIntentMatched, func(any) { calls++ })
	unsub()

	b.Publish(TopicIntentMatched, IntentMatched{Intent: "get_current_time"})
	if calls != 0 {
		t.Fatalf("calls = %d, want 0 after unsubscribe", calls)
	}
}

func TestBusDeliversOnlyToMatchingTopic(t *testing.T) {
	b := New()
	var stateCalls, intentCalls int
	b.Subscribe(TopicStateChanged, func(any) { stateCalls++ })
	b.Subscribe(TopicIntentMatched, func(any) { intentCalls++ })

	b.Publish(TopicStateChanged, StateChanged{})

	if stateCalls != 1 {
		t.Fatalf("stateCalls = %d, want 1", stateCalls)
	}
	if intentCalls != 0 {
		t.Fatalf("intentCalls = %d, want 0", intentCalls)
	}
}

func TestBusSubscriberPanicDoesNotStopOtherSubscribers(t *testing.T) {
	b := New()
	secondCalled := false
	b.Subscribe(TopicTTSStarted, func(any) { panic("boom") })
	b.Subscribe(TopicTTSStarted, func(any) { secondCalled = true })

	b.Publish(TopicTTSStarted, TTSStarted{Text: "hello"})

	if !secondCalled {
		t.Fatal("second subscriber should still run after first panics")
	}
}
