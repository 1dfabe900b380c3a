// Package audio owns the frontend's microphone and speaker handles.
// Exactly one Device is opened per frontend process, running a single
// capture callback and a single playback callback, shared by whichever
// STT/TTS providers are configured.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
)

// Frame is one chunk of mono float32 PCM samples captured from the
// microphone, tagged with the sample rate the device was opened at.
type Frame struct {
	Samples    []float32
	SampleRate int
}

// Device owns the malgo context plus the capture and playback sub-devices.
// Capture and playback share the context but run independent streams;
// the Interlock governs when captured audio is actually consulted
// rather than whether the mic stream is open.
type Device struct {
	ctx *malgo.AllocatedContext

	captureMu  sync.Mutex
	capture    *malgo.Device
	onFrame    func(Frame)
	captureHz  uint32
	capRunning atomic.Bool

	playbackMu sync.Mutex
	playback   *malgo.Device
	playbackHz uint32
	ring       *playbackRing
	playing    atomic.Bool
	doneCh     chan struct{}
}

// Open initializes the audio context. captureRate/playbackRate are the
// rates the respective STT/TTS provider expects (e.g. 16000 for most STT
// models, 22050/24000 for Piper/Kokoro TTS); device-native rates are
// resampled to match via Resample.
func Open(captureRate, playbackRate int) (*Device, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: init context: %w", err)
	}
	return &Device{
		ctx:        ctx,
		captureHz:  uint32(captureRate),
		playbackHz: uint32(playbackRate),
		ring:       newPlaybackRing(),
		doneCh:     make(chan struct{}, 1),
	}, nil
}

// StartCapture opens the microphone and invokes onFrame for every chunk,
// resampled to captureHz. Only one capture stream may be active at a time.
func (d *Device) StartCapture(onFrame func(Frame)) error {
	d.captureMu.Lock()
	defer d.captureMu.Unlock()
	if d.capture != nil {
		return fmt.Errorf("audio: capture already started")
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = d.captureHz
	cfg.PeriodSizeInMilliseconds = 32

	d.onFrame = onFrame
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, in []byte, _ uint32) {
			if !d.capRunning.Load() {
				return
			}
			samples := bytesToFloat32(in)
			cp := make([]float32, len(samples))
			copy(cp, samples)
			if d.onFrame != nil {
				d.onFrame(Frame{Samples: cp, SampleRate: int(d.captureHz)})
			}
		},
	}

	dev, err := malgo.InitDevice(d.ctx.Context, cfg, callbacks)
	if err != nil {
		return fmt.Errorf("audio: init capture device: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return fmt.Errorf("audio: start capture device: %w", err)
	}
	d.capture = dev
	d.capRunning.Store(true)
	return nil
}

// PlaybackRate returns the sample rate Play expects its samples at.
func (d *Device) PlaybackRate() int { return int(d.playbackHz) }

// CaptureRate returns the sample rate StartCapture delivers frames at.
func (d *Device) CaptureRate() int { return int(d.captureHz) }

// PauseCapture silences the capture callback without tearing the device
// down, used while an Interlock is held by TTS playback.
func (d *Device) PauseCapture()  { d.capRunning.Store(false) }
func (d *Device) ResumeCapture() { d.capRunning.Store(true) }

// StopCapture tears down the microphone stream.
func (d *Device) StopCapture() {
	d.captureMu.Lock()
	defer d.captureMu.Unlock()
	if d.capture == nil {
		return
	}
	d.capRunning.Store(false)
	d.capture.Stop()
	d.capture.Uninit()
	d.capture = nil
}

// StartPlayback opens the speaker stream. It is safe to call once and then
// reuse across many Play calls.
func (d *Device) StartPlayback() error {
	d.playbackMu.Lock()
	defer d.playbackMu.Unlock()
	if d.playback != nil {
		return nil
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = 1
	cfg.SampleRate = d.playbackHz
	cfg.PeriodSizeInMilliseconds = 50

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, framecount uint32) {
			for i := 0; i < int(framecount); i++ {
				sample, ok := d.ring.pop()
				if !ok {
					sample = 0
				}
				binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(sample))
			}
			if d.ring.isEmpty() {
				d.playing.Store(false)
				select {
				case d.doneCh <- struct{}{}:
				default:
				}
			}
		},
	}

	dev, err := malgo.InitDevice(d.ctx.Context, cfg, callbacks)
	if err != nil {
		return fmt.Errorf("audio: init playback device: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return fmt.Errorf("audio: start playback device: %w", err)
	}
	d.playback = dev
	return nil
}

// Play queues samples (already resampled to d.playbackHz) and blocks until
// they finish playing or playbackTimeout elapses.
func (d *Device) Play(samples []float32, playbackTimeout time.Duration) error {
	if err := d.StartPlayback(); err != nil {
		return err
	}
	d.ring.push(samples)
	d.playing.Store(true)

	deadline := time.After(playbackTimeout)
	for d.playing.Load() {
		select {
		case <-d.doneCh:
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			d.ring.clear()
			d.playing.Store(false)
			return fmt.Errorf("audio: playback exceeded %s", playbackTimeout)
		}
	}
	return nil
}

// Close tears down both streams and frees the malgo context.
func (d *Device) Close() {
	d.StopCapture()
	d.playbackMu.Lock()
	if d.playback != nil {
		d.playback.Stop()
		d.playback.Uninit()
		d.playback = nil
	}
	d.playbackMu.Unlock()
	if d.ctx != nil {
		d.ctx.Uninit()
		d.ctx.Free()
		d.ctx = nil
	}
}

func bytesToFloat32(data []byte) []float32 {
	n := len(data) / 4
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
