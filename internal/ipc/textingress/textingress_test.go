package textingress

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestListenerDeliversPushedLineToHandler(t *testing.T) {
	ln, err := Bind("127.0.0.1:0", zap.NewNop())
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	received := make(chan Line, 1)
	go ln.Serve(ctx, func(l Line) { received <- l })

	time.Sleep(50 * time.Millisecond)

	if err := Push(ln.Addr(), "turn on the lights"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	select {
	case line := <-received:
		if line.Text != "turn on the lights" {
			t.Fatalf("line.Text = %q, want %q", line.Text, "turn on the lights")
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for pushed line")
	}
}
