package audio

import "sync/atomic"

// playbackRingSize is roughly 20s of audio at 24kHz, enough to hold the
// longest TTS utterance expected without overflowing.
const playbackRingSize = 1 << 19

// playbackRing is a lock-free single-producer single-consumer ring buffer
// feeding the playback callback. Overflowing samples are dropped rather
// than blocking the producer, matching the audio callback's hard real-time
// constraint.
type playbackRing struct {
	samples [playbackRingSize]float32
	head    atomic.Uint64
	tail    atomic.Uint64
}

func newPlaybackRing() *playbackRing {
	return &playbackRing{}
}

func (r *playbackRing) push(samples []float32) int {
	head := r.head.Load()
	tail := r.tail.Load()
	available := playbackRingSize - int(head-tail)
	n := len(samples)
	if n > available {
		n = available
	}
	for i := 0; i < n; i++ {
		r.samples[(head+uint64(i))%playbackRingSize] = samples[i]
	}
	r.head.Add(uint64(n))
	return n
}

func (r *playbackRing) pop() (float32, bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head == tail {
		return 0, false
	}
	s := r.samples[tail%playbackRingSize]
	r.tail.Add(1)
	return s, true
}

func (r *playbackRing) isEmpty() bool {
	return r.head.Load() == r.tail.Load()
}

func (r *playbackRing) clear() {
	r.tail.Store(r.head.Load())
}
