// Package dispatcher turns one utterance into a DispatchResponse through
// a seven-step decision procedure, combining fuzzy-matched fast paths
// that never need the LLM with an LLM-routed slow path for everything
// else.
package dispatcher

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/letrezdraw/AIST/internal/conversation"
	"github.com/letrezdraw/AIST/internal/factstore"
	"github.com/letrezdraw/AIST/internal/fuzzy"
	"github.com/letrezdraw/AIST/internal/llm"
	"github.com/letrezdraw/AIST/internal/observability"
	"github.com/letrezdraw/AIST/internal/sandbox"
	"github.com/letrezdraw/AIST/internal/skills"
	"github.com/letrezdraw/AIST/internal/state"
)

// Action mirrors state.Action; redeclared here as DispatchResponse's own
// field type so this package does not force every caller to import
// internal/state just to read a response.
type Action = state.Action

const (
	ActionCommand    = state.ActionCommand
	ActionActivate   = state.ActionActivate
	ActionDeactivate = state.ActionDeactivate
	ActionExit       = state.ActionExit
	ActionIgnore     = state.ActionIgnore
)

// IntentResult names the matched intent and its resolved parameters, set
// only when an intent was actually invoked (fast path or slow path).
type IntentResult struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
}

// DispatchResponse is the backend's reply to one command request.
type DispatchResponse struct {
	Action Action        `json:"action"`
	Speak  string        `json:"speak,omitempty"`
	Intent *IntentResult `json:"intent,omitempty"`
}

// Config carries the assistant-tuning knobs the dispatcher needs.
type Config struct {
	ActivationPhrases   []string
	DeactivationPhrases []string
	ExitPhrases         []string
	FuzzyMatchThreshold int
	SkillTimeout        time.Duration
	LLMTemperatureChat  float64
	LLMMaxTokensChat    int
	LLMMaxTokensRoute   int
	// LLMAvailable reports whether the backend's LLM handle passed its
	// startup health check. When false, Dispatch only serves fast-path
	// intents and replies with a degradation message for everything
	// else rather than trying (and failing) to route through the LLM.
	LLMAvailable bool
}

// Dispatcher wires together the registry, LLM provider, fact store and
// conversation manager into the seven-step command-resolution
// procedure.
type Dispatcher struct {
	cfg      Config
	registry *skills.Registry
	provider llm.Provider
	facts    *factstore.Store
	history  *conversation.Manager
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// llmUnavailableMessage is what Dispatch speaks for any command that
// would otherwise need the LLM, while the LLM handle is down.
const llmUnavailableMessage = "The language model is not available right now, so I can only handle a few built-in commands."

// New constructs a Dispatcher. facts may be nil, in which case the chat
// path skips fact retrieval. metrics may be nil; every Metrics method is
// nil-safe so a caller that doesn't care about observability can pass it
// straight through.
func New(cfg Config, registry *skills.Registry, provider llm.Provider, facts *factstore.Store, history *conversation.Manager, logger *zap.Logger, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{cfg: cfg, registry: registry, provider: provider, facts: facts, history: history, logger: logger, metrics: metrics}
}

// Dispatch runs the seven-step procedure against utterance, given the
// frontend's currently-reported AssistantState.
func (d *Dispatcher) Dispatch(ctx context.Context, utterance string, assistantState state.AssistantState) DispatchResponse {
	turnStart := time.Now()
	defer func() { d.metrics.ObserveTurnStage("turn_total", time.Since(turnStart)) }()

	utterance = strings.ToLower(strings.TrimSpace(utterance))

	// Step 1: universal exit-phrase check.
	if fuzzy.AnyMatches(utterance, d.cfg.ExitPhrases, d.cfg.FuzzyMatchThreshold) {
		return DispatchResponse{Action: ActionExit, Speak: "Goodbye."}
	}

	// Step 2: state gate.
	if assistantState == state.Dormant {
		if fuzzy.AnyMatches(utterance, d.cfg.ActivationPhrases, d.cfg.FuzzyMatchThreshold) {
			return DispatchResponse{Action: ActionActivate, Speak: "Listening."}
		}
		return DispatchResponse{Action: ActionIgnore}
	}
	if fuzzy.AnyMatches(utterance, d.cfg.DeactivationPhrases, d.cfg.FuzzyMatchThreshold) {
		return DispatchResponse{Action: ActionDeactivate, Speak: "Okay."}
	}

	// Step 3: fast-path intent match, skipping the LLM entirely.
	if intent, ok := d.fastPathMatch(utterance); ok {
		d.metrics.ObserveIntentMatch("fast_path")
		dispatchStart := time.Now()
		defer func() { d.metrics.ObserveTurnStage("stt_commit_to_dispatch", time.Since(dispatchStart)) }()
		return d.invokeIntent(ctx, utterance, intent, map[string]string{})
	}

	// No fast-path match and the LLM is unavailable: every remaining
	// step needs the LLM, so short-circuit with a degradation message
	// rather than attempting to route through a handle known to be down.
	if !d.cfg.LLMAvailable {
		return DispatchResponse{Action: ActionCommand, Speak: llmUnavailableMessage}
	}

	// Step 4: built-in "summarize conversation" special case.
	if fuzzy.AnyMatches(utterance, summarizePhrases, d.cfg.FuzzyMatchThreshold) {
		return d.summarizeConversation(ctx, utterance)
	}

	// Step 5: LLM-routed slow path.
	function, params, err := d.routeWithLLM(ctx, utterance, string(assistantState))
	if err != nil {
		d.logger.Warn("dispatcher: routing failed, falling back to chat", zap.Error(err))
		function = "chat"
	}

	// Step 6: unresolved or explicit chat route.
	intent, known := d.registry.Lookup(function)
	if function == "chat" || !known {
		d.metrics.ObserveIntentMatch("chat")
		return d.chatFallback(ctx, utterance)
	}

	// Step 7: invoke the matched intent via the sandbox.
	d.metrics.ObserveIntentMatch("llm_route")
	return d.invokeIntent(ctx, utterance, intent, params)
}

func (d *Dispatcher) fastPathMatch(utterance string) (skills.Intent, bool) {
	for _, intent := range d.registry.All() {
		if fuzzy.AnyMatches(utterance, intent.Phrases, d.cfg.FuzzyMatchThreshold) {
			return intent, true
		}
	}
	return skills.Intent{}, false
}

func (d *Dispatcher) routeWithLLM(ctx context.Context, utterance, assistantState string) (string, map[string]string, error) {
	prompt := buildRoutingPrompt(d.registry.All(), assistantState)
	raw, err := d.provider.Route(ctx, prompt, utterance, llm.Options{Temperature: 0, MaxTokens: routingMaxTokens(d.cfg)})
	if err != nil {
		return "", nil, err
	}

	jsonBlock, err := extractJSONObject(raw)
	if err != nil {
		return "", nil, err
	}

	var decision routingDecision
	if err := json.Unmarshal([]byte(jsonBlock), &decision); err != nil {
		return "", nil, err
	}
	return decision.Function, paramsToStringMap(decision.Parameters), nil
}

func routingMaxTokens(cfg Config) int {
	if cfg.LLMMaxTokensRoute > 0 {
		return cfg.LLMMaxTokensRoute
	}
	return 256
}

func (d *Dispatcher) chatFallback(ctx context.Context, utterance string) DispatchResponse {
	var facts []factstore.Fact
	if d.facts != nil {
		if f, err := d.facts.RetrieveRelevantFacts(ctx, utterance, 3); err == nil {
			facts = f
		} else {
			d.logger.Warn("dispatcher: fact retrieval failed", zap.Error(err))
		}
	}

	systemPrompt := llm.BuildChatSystemPrompt(d.history.History(), facts)
	reply, err := d.provider.Chat(ctx, systemPrompt, utterance, llm.Options{Temperature: d.chatTemperature(), MaxTokens: d.chatMaxTokens()})
	if err != nil {
		d.logger.Warn("dispatcher: chat failed", zap.Error(err))
		reply = "I'm having trouble thinking right now."
	}

	d.history.Add(conversation.RoleUser, utterance)
	d.history.Add(conversation.RoleAssistant, reply)

	return DispatchResponse{Action: ActionCommand, Speak: reply, Intent: &IntentResult{Name: "chat"}}
}

func (d *Dispatcher) chatTemperature() float64 {
	if d.cfg.LLMTemperatureChat > 0 {
		return d.cfg.LLMTemperatureChat
	}
	return 0.7
}

func (d *Dispatcher) chatMaxTokens() int {
	if d.cfg.LLMMaxTokensChat > 0 {
		return d.cfg.LLMMaxTokensChat
	}
	return 256
}

func (d *Dispatcher) invokeIntent(ctx context.Context, utterance string, intent skills.Intent, params map[string]string) DispatchResponse {
	execStart := time.Now()
	result := sandbox.Invoke(ctx, sandbox.Request{SkillID: intent.SkillID, Intent: intent.Name, Params: params}, d.cfg.SkillTimeout)
	d.metrics.ObserveTurnStage("dispatch_to_skill_exec", time.Since(execStart))
	d.metrics.ObserveSkillInvocation(intent.SkillID, result.Outcome.String())
	if result.Risk == "high" || result.Risk == "medium" {
		d.logger.Info("dispatcher: elevated-risk skill invocation",
			zap.String("skill", intent.SkillID), zap.String("intent", intent.Name), zap.String("risk", result.Risk))
	}

	intentResult := &IntentResult{Name: intent.Name, Params: params}

	var speak string
	switch result.Outcome {
	case sandbox.OutcomeBlocked:
		speak = "I can't do that."
		d.logger.Warn("dispatcher: skill invocation blocked by policy", zap.String("skill", intent.SkillID), zap.String("reason", result.Output))
	case sandbox.OutcomeTimeout:
		speak = intent.SkillID + " took too long to respond"
	case sandbox.OutcomeCrash:
		speak = intent.SkillID + " crashed"
	case sandbox.OutcomeError:
		speak = intent.SkillID + " error"
	case sandbox.OutcomeSuccess:
		speak = result.Output
		if len(speak) > 100 {
			if summarized, err := llm.Summarize(ctx, d.provider, utterance, speak, llm.Options{Temperature: d.chatTemperature(), MaxTokens: d.chatMaxTokens()}); err == nil {
				speak = summarized
			}
		}
	}

	if speak != "" {
		d.history.Add(conversation.RoleUser, utterance)
		d.history.Add(conversation.RoleAssistant, speak)
	}

	return DispatchResponse{Action: ActionCommand, Speak: speak, Intent: intentResult}
}

// summarizePhrases seed the built-in "summarize conversation" special
// case, checked after fast-path intents and before LLM routing.
var summarizePhrases = []string{
	"summarize the conversation",
	"summarize our conversation",
	"give me a summary",
}

func (d *Dispatcher) summarizeConversation(ctx context.Context, utterance string) DispatchResponse {
	history := d.history.History()
	if len(history) == 0 {
		return DispatchResponse{Action: ActionCommand, Speak: "There's nothing to summarize yet.", Intent: &IntentResult{Name: "summarize_conversation"}}
	}

	systemPrompt := "Summarize the following conversation between a user and a voice assistant in one or two sentences."
	summary, err := d.provider.Chat(ctx, systemPrompt, llm.FormatHistory(history), llm.Options{Temperature: d.chatTemperature(), MaxTokens: d.chatMaxTokens()})
	if err != nil {
		d.logger.Warn("dispatcher: summarization failed", zap.Error(err))
		return DispatchResponse{Action: ActionCommand, Speak: "I couldn't summarize the conversation right now.", Intent: &IntentResult{Name: "summarize_conversation"}}
	}

	if d.facts != nil && strings.TrimSpace(summary) != "" {
		if err := d.facts.StoreFact(ctx, summary, "dispatcher.summarize"); err != nil {
			d.logger.Warn("dispatcher: failed to persist summary fact", zap.Error(err))
		}
	}

	d.history.Add(conversation.RoleUser, utterance)
	d.history.Add(conversation.RoleAssistant, summary)

	return DispatchResponse{Action: ActionCommand, Speak: summary, Intent: &IntentResult{Name: "summarize_conversation"}}
}
