// Package llm implements the opaque text-to-text oracle the dispatcher
// routes and chats against: routing (JSON function-call selection) and
// chat (conversational reply), plus the summarization pass the
// dispatcher runs when a skill's raw output is too long to speak verbatim.
package llm

import "context"

// Options carries the per-call generation knobs: temperature and
// max_new_tokens, both overridable per call since routing always runs
// at temperature 0 while chat runs at the configured temperature
// (default 0.7).
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Provider is the interface every LLM backend implements. Route asks for
// a single JSON routing decision (temperature forced to 0 by callers);
// Chat asks for a natural-language reply given a fully-formatted prompt.
// HealthCheck verifies the backing model is actually reachable, called
// once at startup so the dispatcher knows whether to route non-fast-path
// commands at all.
type Provider interface {
	Route(ctx context.Context, systemPrompt, userUtterance string, opts Options) (string, error)
	Chat(ctx context.Context, systemPrompt, userUtterance string, opts Options) (string, error)
	HealthCheck(ctx context.Context) error
}

// Summarize produces a natural-language answer from a raw skill output,
// hiding the fact that a command ran. It is a thin wrapper over
// Provider.Chat with a fixed system prompt, kept here
// rather than in the dispatcher since it is conceptually part of the LLM
// component.
func Summarize(ctx context.Context, provider Provider, originalUtterance, rawOutput string, opts Options) (string, error) {
	systemPrompt := "You are a voice assistant. Rephrase the following tool output as a short, " +
		"natural spoken sentence answering the user's request. Do not mention that a tool or " +
		"skill was used; just answer naturally."
	userUtterance := "User asked: \"" + originalUtterance + "\"\nTool output: \"" + rawOutput + "\""
	return provider.Chat(ctx, systemPrompt, userUtterance, opts)
}
