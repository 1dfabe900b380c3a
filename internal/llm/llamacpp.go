package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"os/exec"

	"github.com/letrezdraw/AIST/internal/aisterr"
)

// LlamaCppProvider shells out to a local llama.cpp-compatible CLI binary
// for each request: build an argv, run with a context deadline, capture
// stderr for diagnostics, read the result from stdout. Selected when
// models.llm.path names a GGUF file rather than an "ollama://"
// reference.
type LlamaCppProvider struct {
	cliPath    string
	modelPath  string
	contextLen int
}

// NewLlamaCppProvider constructs a provider invoking cliPath (e.g. a
// "main"/"llama-cli" build) against modelPath for every request.
func NewLlamaCppProvider(cliPath, modelPath string, contextLen int) *LlamaCppProvider {
	if contextLen <= 0 {
		contextLen = 4096
	}
	return &LlamaCppProvider{cliPath: cliPath, modelPath: modelPath, contextLen: contextLen}
}

// HealthCheck verifies the CLI binary resolves on PATH (or is itself a
// path to an executable file) and the model file exists, without
// actually running an inference.
func (p *LlamaCppProvider) HealthCheck(ctx context.Context) error {
	if _, err := exec.LookPath(p.cliPath); err != nil {
		return &aisterr.ModelLoadError{Component: aisterr.ComponentLLM, Err: fmt.Errorf("llama.cpp CLI %q not found: %w", p.cliPath, err)}
	}
	if _, err := os.Stat(p.modelPath); err != nil {
		return &aisterr.ModelLoadError{Component: aisterr.ComponentLLM, Err: fmt.Errorf("llama.cpp model %q not found: %w", p.modelPath, err)}
	}
	return nil
}

func (p *LlamaCppProvider) Route(ctx context.Context, systemPrompt, userUtterance string, opts Options) (string, error) {
	return p.run(ctx, systemPrompt, userUtterance, opts)
}

func (p *LlamaCppProvider) Chat(ctx context.Context, systemPrompt, userUtterance string, opts Options) (string, error) {
	return p.run(ctx, systemPrompt, userUtterance, opts)
}

func (p *LlamaCppProvider) run(ctx context.Context, systemPrompt, userUtterance string, opts Options) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}

	prompt := systemPrompt + "\n\n" + userUtterance
	args := []string{
		"-m", p.modelPath,
		"-p", prompt,
		"-c", strconv.Itoa(p.contextLen),
		"-n", strconv.Itoa(maxTokens),
		"--temp", strconv.FormatFloat(opts.Temperature, 'f', -1, 64),
		"--simple-io",
		"-no-cnv",
	}

	cmd := exec.CommandContext(ctx, p.cliPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &aisterr.ModelLoadError{Component: aisterr.ComponentLLM, Err: fmt.Errorf("llama.cpp timed out")}
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", &aisterr.ModelLoadError{Component: aisterr.ComponentLLM, Err: fmt.Errorf("llama.cpp failed: %s", detail)}
	}

	return strings.TrimSpace(stdout.String()), nil
}
