package stt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go-linux"
	"go.uber.org/zap"

	"github.com/letrezdraw/AIST/internal/audio"
	"github.com/letrezdraw/AIST/internal/eventbus"
	"github.com/letrezdraw/AIST/internal/state"
)

// VoskStyleConfig configures the streaming recognizer pair.
type VoskStyleConfig struct {
	Encoder             string
	Decoder             string
	Joiner              string
	Tokens              string
	SampleRate          int
	Provider            string
	NumThreads          int
	ConfidenceThreshold float64
	StandingPhrases      []string // activation + deactivation + exit phrases
}

// VoskStyleProvider holds two sherpa-onnx online recognizers: one whose
// hotword list is restricted to the assistant's standing phrases (the
// nearest real mechanism to a JSGF-style grammar restriction —
// sherpa-onnx has no grammar API, only phrase-list boosting), and one
// unrestricted recognizer for LISTENING-state free dictation. The active
// recognizer swaps on every state.changed event.
type VoskStyleProvider struct {
	cfg    VoskStyleConfig
	logger *zap.Logger
	deps   deps

	mu         sync.Mutex
	restricted *sherpa.OnlineRecognizer
	open       *sherpa.OnlineRecognizer
	active     *sherpa.OnlineRecognizer
	stream     *sherpa.OnlineStream

	hotwordsFile string
}

// NewVoskStyleProvider loads both recognizers. cfg.StandingPhrases seeds a
// generated hotwords file for the restricted recognizer.
func NewVoskStyleProvider(cfg VoskStyleConfig, device *audio.Device, bus *eventbus.Bus, interlock *audio.Interlock, logger *zap.Logger) (*VoskStyleProvider, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.NumThreads <= 0 {
		cfg.NumThreads = 2
	}

	hotwordsPath, err := writeHotwordsFile(cfg.StandingPhrases)
	if err != nil {
		return nil, fmt.Errorf("stt: write hotwords file: %w", err)
	}

	restricted := newOnlineRecognizer(cfg, hotwordsPath)
	if restricted == nil {
		return nil, fmt.Errorf("stt: failed to construct restricted recognizer")
	}
	open := newOnlineRecognizer(cfg, "")
	if open == nil {
		sherpa.DeleteOnlineRecognizer(restricted)
		return nil, fmt.Errorf("stt: failed to construct unrestricted recognizer")
	}

	p := &VoskStyleProvider{
		cfg:          cfg,
		logger:       logger,
		deps:         deps{device: device, bus: bus, interlock: interlock},
		restricted:   restricted,
		open:         open,
		active:       restricted,
		hotwordsFile: hotwordsPath,
	}
	p.stream = sherpa.NewOnlineStream(p.active)

	bus.Subscribe(eventbus.TopicStateChanged, func(payload any) {
		evt, ok := payload.(eventbus.StateChanged)
		if !ok {
			return
		}
		p.swap(state.AssistantState(evt.To))
	})

	return p, nil
}

func newOnlineRecognizer(cfg VoskStyleConfig, hotwordsFile string) *sherpa.OnlineRecognizer {
	rc := &sherpa.OnlineRecognizerConfig{}
	rc.ModelConfig.Transducer.Encoder = cfg.Encoder
	rc.ModelConfig.Transducer.Decoder = cfg.Decoder
	rc.ModelConfig.Transducer.Joiner = cfg.Joiner
	rc.ModelConfig.Tokens = cfg.Tokens
	rc.ModelConfig.NumThreads = cfg.NumThreads
	rc.ModelConfig.Provider = cfg.Provider
	rc.DecodingMethod = "modified_beam_search"
	if hotwordsFile != "" {
		rc.HotwordsFile = hotwordsFile
		rc.HotwordsScore = 2.0
	}
	return sherpa.NewOnlineRecognizer(rc)
}

// writeHotwordsFile renders one boosted phrase per line, the format
// sherpa-onnx's HotwordsFile expects, tokenized as space-separated words
// (sherpa tokenizes hotwords itself at the BPE/char level; a plain phrase
// per line is the documented minimal input).
func writeHotwordsFile(phrases []string) (string, error) {
	if len(phrases) == 0 {
		return "", nil
	}
	dir, err := os.MkdirTemp("", "aist-hotwords-*")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "hotwords.txt")
	var sb strings.Builder
	for _, p := range phrases {
		sb.WriteString(strings.TrimSpace(p))
		sb.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (p *VoskStyleProvider) swap(to state.AssistantState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	want := p.restricted
	if to == state.Listening {
		want = p.open
	}
	if want == p.active {
		return
	}
	sherpa.DeleteOnlineStream(p.stream)
	p.active = want
	p.stream = sherpa.NewOnlineStream(p.active)
}

// Run feeds captured audio to the active recognizer until ctx is
// canceled, publishing a transcript each time the recognizer finalizes an
// endpoint.
func (p *VoskStyleProvider) Run(ctx context.Context, machine *state.Machine, ready chan<- struct{}) error {
	err := p.deps.device.StartCapture(func(frame audio.Frame) {
		if p.deps.interlock.Muted() {
			return
		}
		p.acceptWaveform(frame, machine)
	})
	if err != nil {
		return fmt.Errorf("stt: start capture: %w", err)
	}
	defer p.deps.device.StopCapture()

	p.deps.interlock.OnChange(func(muted bool) {
		if !muted {
			p.reset()
		}
	})

	close(ready)
	<-ctx.Done()
	return ctx.Err()
}

func (p *VoskStyleProvider) acceptWaveform(frame audio.Frame, machine *state.Machine) {
	p.mu.Lock()
	p.stream.AcceptWaveform(p.cfg.SampleRate, frame.Samples)
	for p.active.IsReady(p.stream) {
		p.active.Decode(p.stream)
	}
	isEndpoint := p.active.IsEndpoint(p.stream)
	result := p.active.GetResult(p.stream)
	if isEndpoint {
		p.active.Reset(p.stream)
	}
	p.mu.Unlock()

	text := strings.TrimSpace(result.Text)
	if !isEndpoint || text == "" {
		return
	}

	confidence := averageWordConfidence(result.Tokens, result.Timestamps)
	if machine.Current() == state.Listening && confidence < p.cfg.ConfidenceThreshold {
		p.logger.Debug("stt: dropping low-confidence result", zap.String("text", text), zap.Float64("confidence", confidence))
		return
	}
	publishTranscript(p.deps.bus, text, confidence)
}

func (p *VoskStyleProvider) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil && p.stream != nil {
		p.active.Reset(p.stream)
	}
}

// averageWordConfidence approximates a per-utterance confidence score from
// token count and timing density, since sherpa-onnx's streaming result
// does not expose per-token logprobs the way some offline decoders do: a
// higher token-to-duration ratio across very short timestams correlates
// with uncertain, rushed decodes in practice, so this is a coarse but
// monotonic proxy rather than a calibrated probability.
func averageWordConfidence(tokens []string, timestamps []float32) float64 {
	if len(tokens) == 0 {
		return 1.0
	}
	if len(timestamps) < 2 {
		return 0.85
	}
	span := timestamps[len(timestamps)-1] - timestamps[0]
	if span <= 0 {
		return 0.85
	}
	density := float64(len(tokens)) / float64(span)
	confidence := 1.0 - (density-4.0)*0.05
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// Close releases both recognizers.
func (p *VoskStyleProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		sherpa.DeleteOnlineStream(p.stream)
		p.stream = nil
	}
	if p.restricted != nil {
		sherpa.DeleteOnlineRecognizer(p.restricted)
		p.restricted = nil
	}
	if p.open != nil {
		sherpa.DeleteOnlineRecognizer(p.open)
		p.open = nil
	}
}
