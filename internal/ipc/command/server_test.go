package command

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/letrezdraw/AIST/internal/conversation"
	"github.com/letrezdraw/AIST/internal/dispatcher"
	"github.com/letrezdraw/AIST/internal/eventbus"
	"github.com/letrezdraw/AIST/internal/state"
)

type fakeDispatcher struct {
	response dispatcher.DispatchResponse
}

func (f *fakeDispatcher) Dispatch(_ context.Context, _ string, _ state.AssistantState) dispatcher.DispatchResponse {
	return f.response
}

func startTestServer(t *testing.T, disp Dispatcher, history *conversation.Manager) (*Server, func()) {
	t.Helper()
	srv, err := NewServer("127.0.0.1:0", disp, history, eventbus.New(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Serve(ctx)

	return srv, func() {
		cancel()
		srv.Close()
	}
}

func TestServerClientCommandRoundTrip(t *testing.T) {
	disp := &fakeDispatcher{response: dispatcher.DispatchResponse{Action: dispatcher.ActionCommand, Speak: "hello there"}}
	history := conversation.New(5)
	srv, stop := startTestServer(t, disp, history)
	defer stop()

	client := NewClient(srv.Addr(), ClientOptions{SendTimeout: 2 * time.Second, ReceiveTimeout: 2 * time.Second})
	resp := client.SendCommand("hi", "LISTENING")

	if resp.Action != dispatcher.ActionCommand || resp.Speak != "hello there" {
		t.Fatalf("SendCommand() = %+v, want COMMAND/hello there", resp)
	}
}

func TestServerClientClearConversationSentinel(t *testing.T) {
	disp := &fakeDispatcher{}
	history := conversation.New(5)
	history.Add(conversation.RoleUser, "something")
	srv, stop := startTestServer(t, disp, history)
	defer stop()

	client := NewClient(srv.Addr(), ClientOptions{})
	if err := client.ClearConversation(); err != nil {
		t.Fatalf("ClearConversation() error = %v", err)
	}
	if history.Len() != 0 {
		t.Fatalf("history.Len() = %d, want 0 after clear", history.Len())
	}
}

func TestClientSynthesizesFallbackOnDialFailure(t *testing.T) {
	client := NewClient("127.0.0.1:1", ClientOptions{SendTimeout: 200 * time.Millisecond, ReceiveTimeout: 200 * time.Millisecond})
	resp := client.SendCommand("hi", "LISTENING")
	if resp.Speak != "cannot reach brain" {
		t.Fatalf("Speak = %q, want %q", resp.Speak, "cannot reach brain")
	}
}
