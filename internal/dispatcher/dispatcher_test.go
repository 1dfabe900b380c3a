package dispatcher

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/letrezdraw/AIST/internal/conversation"
	"github.com/letrezdraw/AIST/internal/llm"
	"github.com/letrezdraw/AIST/internal/skills"
	"github.com/letrezdraw/AIST/internal/state"
)

type fakeProvider struct {
	routeResponse string
	routeErr      error
	chatResponse  string
	chatErr       error
}

func (f *fakeProvider) Route(ctx context.Context, systemPrompt, userUtterance string, opts llm.Options) (string, error) {
	return f.routeResponse, f.routeErr
}

func (f *fakeProvider) Chat(ctx context.Context, systemPrompt, userUtterance string, opts llm.Options) (string, error) {
	return f.chatResponse, f.chatErr
}

func (f *fakeProvider) HealthCheck(ctx context.Context) error {
	return nil
}

func testConfig() Config {
	return Config{
		ActivationPhrases:   []string{"hey assist"},
		DeactivationPhrases: []string{"go to sleep"},
		ExitPhrases:         []string{"assist exit"},
		FuzzyMatchThreshold: 85,
		SkillTimeout:        time.Second,
		LLMAvailable:        true,
	}
}

func newTestDispatcher(provider llm.Provider) *Dispatcher {
	return New(testConfig(), skills.NewRegistry(), provider, nil, conversation.New(5), zap.NewNop(), nil)
}

func TestDispatchExitPhraseReturnsExitAction(t *testing.T) {
	d := newTestDispatcher(&fakeProvider{})
	resp := d.Dispatch(context.Background(), "assist exit", state.Listening)
	if resp.Action != ActionExit || resp.Speak != "Goodbye." {
		t.Fatalf("Dispatch() = %+v, want EXIT/Goodbye.", resp)
	}
}

func TestDispatchDormantIgnoresUnrelatedUtterance(t *testing.T) {
	d := newTestDispatcher(&fakeProvider{})
	resp := d.Dispatch(context.Background(), "what a nice day", state.Dormant)
	if resp.Action != ActionIgnore {
		t.Fatalf("Dispatch() = %+v, want IGNORE", resp)
	}
}

func TestDispatchDormantActivatesOnActivationPhrase(t *testing.T) {
	d := newTestDispatcher(&fakeProvider{})
	resp := d.Dispatch(context.Background(), "hey assist", state.Dormant)
	if resp.Action != ActionActivate {
		t.Fatalf("Dispatch() = %+v, want ACTIVATE", resp)
	}
}

func TestDispatchListeningDeactivatesOnDeactivationPhrase(t *testing.T) {
	d := newTestDispatcher(&fakeProvider{})
	resp := d.Dispatch(context.Background(), "go to sleep", state.Listening)
	if resp.Action != ActionDeactivate {
		t.Fatalf("Dispatch() = %+v, want DEACTIVATE", resp)
	}
}

func TestDispatchSummarizeConversationWithEmptyHistory(t *testing.T) {
	d := newTestDispatcher(&fakeProvider{})
	resp := d.Dispatch(context.Background(), "give me a summary", state.Listening)
	if resp.Speak != "There's nothing to summarize yet." {
		t.Fatalf("Speak = %q, want the empty-history fallback", resp.Speak)
	}
}

func TestDispatchFallsBackToChatWhenRoutingUnparseable(t *testing.T) {
	provider := &fakeProvider{routeResponse: "not json at all", chatResponse: "here's my reply"}
	d := newTestDispatcher(provider)

	resp := d.Dispatch(context.Background(), "tell me a joke", state.Listening)
	if resp.Action != ActionCommand || resp.Speak != "here's my reply" {
		t.Fatalf("Dispatch() = %+v, want COMMAND/here's my reply", resp)
	}
	if resp.Intent == nil || resp.Intent.Name != "chat" {
		t.Fatalf("Intent = %+v, want chat", resp.Intent)
	}
}

func TestDispatchRoutesToChatFunctionExplicitly(t *testing.T) {
	provider := &fakeProvider{routeResponse: `{"function":"chat","parameters":{}}`, chatResponse: "sure thing"}
	d := newTestDispatcher(provider)

	resp := d.Dispatch(context.Background(), "how are you", state.Listening)
	if resp.Speak != "sure thing" {
		t.Fatalf("Speak = %q, want %q", resp.Speak, "sure thing")
	}
}

func TestDispatchDegradesWhenLLMUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.LLMAvailable = false
	d := New(cfg, skills.NewRegistry(), &fakeProvider{}, nil, conversation.New(5), zap.NewNop(), nil)

	resp := d.Dispatch(context.Background(), "tell me a joke", state.Listening)
	if resp.Action != ActionCommand || resp.Speak != llmUnavailableMessage {
		t.Fatalf("Dispatch() = %+v, want COMMAND/%q", resp, llmUnavailableMessage)
	}
}

func TestDispatchActivationStillWorksWhenLLMUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.LLMAvailable = false
	cfg.ActivationPhrases = []string{"hey assist"}
	d := New(cfg, skills.NewRegistry(), &fakeProvider{}, nil, conversation.New(5), zap.NewNop(), nil)

	resp := d.Dispatch(context.Background(), "hey assist", state.Dormant)
	if resp.Action != ActionActivate {
		t.Fatalf("Dispatch() = %+v, want ACTIVATE even with the LLM unavailable", resp)
	}
}

func TestDispatchAppendsHistoryOnSuccessfulChatCommand(t *testing.T) {
	provider := &fakeProvider{routeResponse: "garbage", chatResponse: "an answer"}
	history := conversation.New(5)
	d := New(testConfig(), skills.NewRegistry(), provider, nil, history, zap.NewNop(), nil)

	d.Dispatch(context.Background(), "what's up", state.Listening)

	got := history.History()
	if len(got) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(got))
	}
	if got[0].Role != conversation.RoleUser || got[1].Role != conversation.RoleAssistant {
		t.Fatalf("history roles = %+v", got)
	}
}
