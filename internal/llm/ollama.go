package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/letrezdraw/AIST/internal/aisterr"
	"github.com/letrezdraw/AIST/internal/observability"
	"github.com/letrezdraw/AIST/internal/reliability"
)

const (
	chatRetryBase = 200 * time.Millisecond
	chatRetryCap  = 3 * time.Second
	chatMaxTries  = 3
)

// OllamaProvider implements Provider against a local Ollama server,
// grounded on agalue-sherpa-voice-assistant's internal/llm.Client: same
// official api.Client, same connection-pooled http.Client, same
// system+history+user message assembly. Selected when models.llm.path
// names an "ollama://<model>" reference.
type OllamaProvider struct {
	client  *api.Client
	model   string
	metrics *observability.Metrics
}

// NewOllamaProvider dials host (e.g. "http://127.0.0.1:11434") for model.
// metrics may be nil; every Metrics method is nil-safe.
func NewOllamaProvider(host, model string, metrics *observability.Metrics) (*OllamaProvider, error) {
	parsedURL, err := url.Parse(strings.TrimSuffix(host, "/"))
	if err != nil {
		return nil, &aisterr.ModelLoadError{Component: aisterr.ComponentLLM, Err: fmt.Errorf("invalid ollama host %q: %w", host, err)}
	}

	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &OllamaProvider{client: api.NewClient(parsedURL, httpClient), model: model, metrics: metrics}, nil
}

// HealthCheck verifies the Ollama server is reachable, surfaced as an
// init.status_update on failure.
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	if err := p.client.Heartbeat(ctx); err != nil {
		return &aisterr.ModelLoadError{Component: aisterr.ComponentLLM, Err: fmt.Errorf("cannot reach ollama: %w", err)}
	}
	return nil
}

// Route asks the model to choose a function, with temperature forced to
// opts.Temperature (callers pass 0 for routing) and no conversation
// history, since routing decisions must be self-contained per request.
func (p *OllamaProvider) Route(ctx context.Context, systemPrompt, userUtterance string, opts Options) (string, error) {
	return p.chat(ctx, systemPrompt, nil, userUtterance, opts)
}

// Chat asks the model for a conversational reply, given the caller's
// fully-rendered history-aware system prompt.
func (p *OllamaProvider) Chat(ctx context.Context, systemPrompt, userUtterance string, opts Options) (string, error) {
	return p.chat(ctx, systemPrompt, nil, userUtterance, opts)
}

func (p *OllamaProvider) chat(ctx context.Context, systemPrompt string, history []api.Message, userUtterance string, opts Options) (string, error) {
	messages := make([]api.Message, 0, len(history)+2)
	messages = append(messages, api.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, api.Message{Role: "user", Content: userUtterance})

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 256
	}

	req := &api.ChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   boolPtr(false),
		Options: map[string]any{
			"temperature": opts.Temperature,
			"num_predict": maxTokens,
		},
	}

	var response api.ChatResponse
	var lastErr error
	for attempt := 0; attempt < chatMaxTries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(reliability.ExponentialBackoff(attempt, chatRetryBase, chatRetryCap)):
			}
		}

		lastErr = p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
			response = resp
			return nil
		})
		if lastErr == nil {
			return strings.TrimSpace(response.Message.Content), nil
		}

		var statusErr api.StatusError
		if !errors.As(lastErr, &statusErr) || !reliability.IsRetryableHTTPStatus(statusErr.StatusCode) {
			break
		}
	}

	var statusErr api.StatusError
	if errors.As(lastErr, &statusErr) {
		p.metrics.ObserveProviderError("ollama", strconv.Itoa(statusErr.StatusCode))
	} else {
		p.metrics.ObserveProviderError("ollama", "transport")
	}
	return "", fmt.Errorf("ollama chat request failed: %w", lastErr)
}

func boolPtr(b bool) *bool { return &b }
