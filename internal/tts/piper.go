package tts

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// PiperProvider shells out to a local `piper` binary per utterance. Piper
// has no Go-native binding in the retrieved corpus, so this follows the
// teacher's own exec-subprocess pattern for CLI-wrapped voice tools
// (internal/voice/local.go's whisperCPP.Transcribe): build an argument
// list, run, capture stdout, surface stderr on failure.
type PiperProvider struct {
	binaryPath  string
	voiceModel  string
	lengthScale float64
}

// NewPiperProvider constructs a PiperProvider. lengthScale follows Piper's
// own convention: >1 slows speech down, <1 speeds it up.
func NewPiperProvider(binaryPath, voiceModel string, lengthScale float64) *PiperProvider {
	if lengthScale <= 0 {
		lengthScale = 1.0
	}
	return &PiperProvider{binaryPath: binaryPath, voiceModel: voiceModel, lengthScale: lengthScale}
}

// Speak runs `piper --model <voiceModel> --output-raw` with text on stdin
// and the raw PCM16LE samples on stdout, wrapping the result in a WAV
// header (Piper's --output-raw path omits one) so Framework can decode it
// the same way as any other provider.
func (p *PiperProvider) Speak(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("piper: empty text")
	}

	args := []string{
		"--model", p.voiceModel,
		"--output-raw",
		"--length_scale", fmt.Sprintf("%.3f", p.lengthScale),
	}

	cmd := exec.CommandContext(ctx, p.binaryPath, args...)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("piper: %s", detail)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("piper: produced no audio")
	}

	return wrapRawPCM16(stdout.Bytes(), piperSampleRate)
}

const piperSampleRate = 22050
