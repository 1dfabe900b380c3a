package eventbus

import "sync"

// Subscriber receives every payload published on the topic it subscribed
// to, in publish order for that topic.
type Subscriber func(payload any)

// Bus is an in-process publish/subscribe registry. The teacher's session
// manager only ever supported a single expiry callback
// (session.Manager.SetExpireHook); Bus generalizes that into an explicit
// multi-subscriber registry per topic, each subscription independently
// revocable.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]*subscription
	seq  uint64
}

type subscription struct {
	id uint64
	fn Subscriber
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]*subscription)}
}

// Subscribe registers fn against topic and returns a function that
// removes the subscription. Callers must invoke the returned func during
// shutdown to avoid leaking the closure.
func (b *Bus) Subscribe(topic Topic, fn Subscriber) func() {
	b.mu.Lock()
	b.seq++
	id := b.seq
	sub := &subscription{id: id, fn: fn}
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[topic]
		for i, s := range list {
			if s.id == id {
				b.subs[topic] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers payload synchronously to every current subscriber of
// topic, in registration order. A subscriber that panics does not
// prevent delivery to the remaining subscribers.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	list := make([]*subscription, len(b.subs[topic]))
	copy(list, b.subs[topic])
	b.mu.RUnlock()

	for _, sub := range list {
		func() {
			defer func() { recover() }()
			sub.fn(payload)
		}()
	}
}
